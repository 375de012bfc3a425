package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
)

const (
	plainPrompt = ">>> "
	plainCont   = "... "
)

// RunPlain runs a line-oriented REPL reading from r and writing prompts,
// printed output, results and errors to w. It is used when the input is not
// a terminal.
//
// RunPlain returns nil at end of input. Evaluation errors are reported
// inline and do not end the session.
func RunPlain(
	ctx context.Context,
	r io.Reader,
	w io.Writer,
	logger log.Logger,
	opts ...lang.Option,
) error {
	opts = append([]lang.Option{lang.WithOutput(w), lang.WithLogger(logger)}, opts...)
	sess := NewSession(opts...)
	scanner := bufio.NewScanner(r)

	report := func(res Result) error {
		if res.Err != nil {
			logger.DebugContext(ctx, "repl eval failed", slog.Any("error", res.Err))
		}

		if echo := res.Echo(); echo != "" {
			_, err := io.WriteString(w, echo+"\n")

			return err
		}

		return nil
	}

	for {
		prompt := plainPrompt
		if sess.Pending() {
			prompt = plainCont
		}

		if _, err := io.WriteString(w, prompt); err != nil {
			return err
		}

		if !scanner.Scan() {
			break
		}

		if err := ctx.Err(); err != nil {
			return context.Cause(ctx)
		}

		res, done := sess.Feed(ctx, scanner.Text())
		if !done {
			continue
		}

		if err := report(res); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	if err := report(sess.Flush(ctx)); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")

	return err
}
