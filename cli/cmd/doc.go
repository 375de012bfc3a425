// Package cmd implements the minipy subcommands: running scripts, evaluating
// arguments, the REPL, formatting and configuration file generation.
//
// Commands read their shared interpreter configuration from the context, see
// [WithSettings], and their streams from [WithStdio].
package cmd
