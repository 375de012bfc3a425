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

// Run executes MiniPython scripts.
type Run struct {
	Scripts []string      `arg:"" help:"Script files, names on the search path, or '-' for stdin" name:"script" optional:""`
	Timeout time.Duration `       help:"Abort evaluation after this duration (0 disables)"                            short:"t"`
}

// Run executes each script in order, each in a fresh interpreter, stopping at
// the first failure. Without scripts it starts the REPL when stdin is a
// terminal, and otherwise runs stdin as a script.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	set := settingsFrom(ctx)
	stdio := stdioFrom(ctx)

	names := r.Scripts
	if len(names) == 0 {
		if isTerminal(stdio.In) {
			return startRepl(ctx, set, stdio, false)
		}

		names = []string{stdinSource}
	}

	scripts, err := resolveScripts(names, set.SearchPath)
	if err != nil {
		return err
	}

	ctx, stop := withTimeout(ctx, r.Timeout)
	defer stop()

	for _, s := range scripts {
		src, err := s.read(stdio.In)
		if err != nil {
			return err
		}

		log.DebugContext(ctx, "run script",
			slog.String("script", s.name),
			slog.String("path", s.path),
		)

		interp := lang.New(append(set.options(), lang.WithOutput(stdio.Out))...)

		if _, err := interp.Exec(ctx, src); err != nil {
			return report(stdio, s.name, src, err)
		}
	}

	return nil
}

// report prints err with a source snippet to the error stream and returns it
// wrapped as [ErrProgramFailed].
func report(stdio Stdio, name, src string, err error) error {
	msg := strings.TrimRight(lang.FormatError(src, err), "\n")
	fmt.Fprintf(stdio.Err, "%s: %s\n", name, msg)

	return ErrProgramFailed.With(slog.String("source", name)).Wrap(err)
}
