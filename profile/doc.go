// Package profile provides optional runtime profiling for the minipy
// interpreter.
//
// Profiling is built on [github.com/pkg/profile] and must be enabled at build
// time with the "pprof" build tag ([Tag]). Without the tag, [Profiler.Start]
// returns a no-op and [Modes] reports no modes, so the interpreter carries no
// profiling overhead.
//
// # Modes
//
// The following modes are supported when built with the pprof tag:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// From the command line, a long-running script is profiled with:
//
//	go build -tags pprof .
//	./minipy --pprof-mode cpu fib.py
//	go tool pprof -http=: ~/.cache/minipy/pprof/cpu.pprof
//
// The tree-walking evaluator spends most of its time in expression dispatch
// and environment lookups, which show clearly in a CPU profile of a deeply
// recursive script.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
