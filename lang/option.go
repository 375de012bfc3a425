package lang

import (
	"context"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/ardnew/minipy/log"
)

// Limits on nested function calls.
const (
	DefaultMaxDepth = 1000
	MaxDepthLimit   = 10_000 // largest limit accepted by [WithMaxDepth]
)

// PrintFunc receives the arguments of each call to print.
type PrintFunc func(ctx context.Context, args ...Value) error

type config struct {
	out      io.Writer
	print    PrintFunc
	maxDepth int
	logger   log.Logger
	globals  map[string]Value
}

// Option configures parsing and evaluation.
type Option func(*config)

func makeConfig(opts ...Option) config {
	cfg := config{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.print == nil {
		out := cfg.out
		if out == nil {
			out = os.Stdout
		}

		cfg.print = Printer(out)
	}

	return cfg
}

// WithOutput sets the writer used by the default print sink.
// It has no effect when [WithPrint] is also given.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// WithPrint replaces the print sink.
func WithPrint(fn PrintFunc) Option {
	return func(c *config) { c.print = fn }
}

// WithMaxDepth limits the depth of nested function calls. Values less than 1
// select [DefaultMaxDepth], and values above [MaxDepthLimit] are reduced to
// it.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		c.maxDepth = min(depth, MaxDepthLimit)
	}
}

// WithLogger sets the logger that receives trace events.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithGlobals predefines global variables. Repeated options are merged, with
// later values winning.
func WithGlobals(globals map[string]Value) Option {
	return func(c *config) {
		if c.globals == nil {
			c.globals = make(map[string]Value, len(globals))
		}

		maps.Copy(c.globals, globals)
	}
}

// Printer returns a print sink writing the printed forms of its arguments to
// w, separated by spaces and terminated by a newline.
func Printer(w io.Writer) PrintFunc {
	return func(_ context.Context, args ...Value) error {
		var sb strings.Builder

		for i, arg := range args {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(arg.String())
		}

		sb.WriteByte('\n')

		_, err := io.WriteString(w, sb.String())

		return err
	}
}
