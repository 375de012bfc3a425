// Package cli contains the command line interface for minipy.
//
// # Usage
//
//	minipy [flags] [run] [script...]
//	minipy eval 'print(2 ** 10)'
//	minipy repl
//	minipy fmt [native|tokens|json|yaml] [source]
//	minipy init [--force]
//	minipy version
//
// Running without arguments starts the REPL when stdin is a terminal and
// otherwise executes stdin as a program.
//
// # Globals
//
// The --define (-D) flag predefines a global variable from an expr-lang
// expression, evaluated before the program runs:
//
//	minipy -D 'user=env("USER")' -D 'limit=2 * 50' script.py
//
// Expressions may use env(NAME), hostname, cwd() and earlier definitions.
//
// # Search Path
//
// A script named without a path that does not exist in the working directory
// is looked up in each --path (-I) directory and then in each directory of
// $MINIPY_PATH, as given and with a ".py" suffix.
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory (e.g. ~/.config/minipy). The init command writes
// config.yaml from the current flag values. Command-line flags take
// precedence.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// At trace level the interpreter logs parse, cache and call events.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o minipy .
//
// The profiling flags are:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default
//     ~/.cache/minipy/pprof)
package cli
