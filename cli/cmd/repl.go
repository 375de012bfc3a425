package cmd

import (
	"context"

	"github.com/ardnew/minipy/cli/cmd/repl"
	"github.com/ardnew/minipy/log"
)

// Repl starts an interactive session.
type Repl struct {
	Plain bool `help:"Use the line-oriented prompt even on a terminal" short:"p"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	return startRepl(ctx, settingsFrom(ctx), stdioFrom(ctx), r.Plain)
}

// startRepl runs the terminal REPL, or the plain one if requested or if stdin
// is not a terminal.
func startRepl(ctx context.Context, set Settings, stdio Stdio, plain bool) error {
	if plain || !isTerminal(stdio.In) {
		log.DebugContext(ctx, "start plain repl")

		return repl.RunPlain(ctx, stdio.In, stdio.Out, log.Default(), set.options()...)
	}

	log.DebugContext(ctx, "start terminal repl")

	return repl.Run(ctx, set.CacheDir, log.Default(), set.options()...)
}
