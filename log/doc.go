// Package log is the structured logger shared by the minipy interpreter, its
// command-line interface and its REPL. It wraps [log/slog] with a mutable
// configuration and an extra [LevelTrace] below debug.
//
// # Loggers
//
// [Make] builds a [Logger] from functional options; [Logger.Wrap] derives a
// copy with some options overridden, and [Logger.With] one carrying extra
// attributes:
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelTrace))
//	logger = logger.With(slog.String("script", path))
//	logger.Trace("call enter", slog.String("function", "fib"))
//
// Every level has a context-aware method (TraceContext, DebugContext, ...)
// and a context-free one, which uses [DefaultContextProvider].
//
// # Levels
//
// Levels are [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn] and
// [LevelError], named in output as TRACE through ERROR. The interpreter
// reports each call, parse and parse-cache lookup at trace level, guarded by
// [Logger.EnabledAt] so that a disabled trace costs no attribute building.
//
// # Output
//
// Records are written as [FormatJSON] (the default) or [FormatText].
// [WithPretty], on by default, lays either format out with lipgloss styles.
// [WithTimeLayout] accepts a named [time] layout such as "RFC3339Nano", a
// custom reference-time layout, or "none" to drop timestamps. [WithCaller]
// adds the source location of the logging call.
//
// # Package Logger
//
// The package-level functions ([Trace], [Info], [Error], ...) write through
// [Default], which logs to stderr so that records never mix with what a
// script prints. The command-line flags reconfigure it with [Config].
package log
