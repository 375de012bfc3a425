package repl

import (
	"context"
	"strings"
	"unicode"

	"github.com/ardnew/minipy/lang"
)

// Result is the outcome of executing one complete chunk of REPL input.
type Result struct {
	Source string
	Value  lang.Value
	Err    error
}

// Echo returns the text the REPL shows for r: the repr of a non-None value,
// the error with a caret snippet, or the empty string.
func (r Result) Echo() string {
	if r.Err != nil {
		return strings.TrimRight(lang.FormatError(r.Source, r.Err), "\n")
	}

	if r.Value.IsNone() {
		return ""
	}

	return r.Value.Repr()
}

// Session accumulates REPL input into complete programs and executes them in
// a persistent interpreter.
//
// A line ending in ':' opens a block. Lines are then buffered until an empty
// line, which executes the whole block. Any other line executes immediately.
type Session struct {
	opts       []lang.Option
	interp     *lang.Interpreter
	pending    []string
	transcript []string
}

// NewSession returns a session whose interpreter is configured with opts.
func NewSession(opts ...lang.Option) *Session {
	return &Session{opts: opts, interp: lang.New(opts...)}
}

// Interpreter returns the interpreter holding the session's globals.
func (s *Session) Interpreter() *lang.Interpreter { return s.interp }

// Pending reports whether a block is open and awaiting more lines.
func (s *Session) Pending() bool { return len(s.pending) > 0 }

// Transcript returns the source of every chunk that executed without error,
// in order.
func (s *Session) Transcript() string { return strings.Join(s.transcript, "") }

// Reset discards all globals, the transcript and any open block.
func (s *Session) Reset() {
	s.interp = lang.New(s.opts...)
	s.pending = nil
	s.transcript = nil
}

// Discard drops any open block without executing it.
func (s *Session) Discard() { s.pending = nil }

// Feed consumes one line of input. It reports false while a block is still
// open, in which case the returned Result is empty.
func (s *Session) Feed(ctx context.Context, line string) (Result, bool) {
	if len(s.pending) == 0 {
		if strings.TrimSpace(line) == "" {
			return Result{}, true
		}

		if opensBlock(line) {
			s.pending = append(s.pending, line)

			return Result{}, false
		}

		return s.exec(ctx, line+"\n"), true
	}

	if strings.TrimSpace(line) != "" {
		s.pending = append(s.pending, line)

		return Result{}, false
	}

	return s.Flush(ctx), true
}

// Flush executes any open block, as if an empty line had been entered.
func (s *Session) Flush(ctx context.Context) Result {
	if len(s.pending) == 0 {
		return Result{}
	}

	src := strings.Join(s.pending, "\n") + "\n"
	s.pending = nil

	return s.exec(ctx, src)
}

// Load executes src as a whole program in a fresh interpreter, which replaces
// the session state only if execution succeeds.
func (s *Session) Load(ctx context.Context, src string) Result {
	next := NewSession(s.opts...)
	r := next.exec(ctx, src)

	if r.Err == nil {
		*s = *next
	}

	return r
}

func (s *Session) exec(ctx context.Context, src string) Result {
	v, err := s.interp.Exec(ctx, src)
	if err == nil {
		s.transcript = append(s.transcript, src)
	}

	return Result{Source: src, Value: v, Err: err}
}

// opensBlock reports whether line ends with ':' once any trailing comment and
// whitespace are removed.
func opensBlock(line string) bool {
	if i := commentStart(line); i >= 0 {
		line = line[:i]
	}

	return strings.HasSuffix(strings.TrimRightFunc(line, unicode.IsSpace), ":")
}

// commentStart returns the byte offset of a '#' outside string literals, or
// -1.
func commentStart(line string) int {
	var quote rune

	escaped := false

	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '#':
			return i
		}
	}

	return -1
}
