package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
)

// evalSource names program text given on the command line.
const evalSource = "<eval>"

// Eval executes program text given as arguments.
type Eval struct {
	Source  []string      `arg:"" help:"Program text; each argument is one line" name:"source"`
	Timeout time.Duration `       help:"Abort evaluation after this duration (0 disables)" short:"t"`
}

// Run executes the eval command, printing the repr of the final expression
// statement's value unless it is None.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ctx, stop := withTimeout(ctx, e.Timeout)
	defer stop()

	set := settingsFrom(ctx)
	stdio := stdioFrom(ctx)

	src := strings.Join(e.Source, "\n") + "\n"

	log.TraceContext(ctx, "eval", slog.String("source", src))

	interp := lang.New(append(set.options(), lang.WithOutput(stdio.Out))...)

	v, err := interp.Exec(ctx, src)
	if err != nil {
		return report(stdio, evalSource, src, err)
	}

	if !v.IsNone() {
		fmt.Fprintln(stdio.Out, v.Repr())
	}

	return nil
}
