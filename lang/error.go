package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Error categories. Every error produced by this package matches exactly one
// of these with [errors.Is], in addition to its specific sentinel.
var (
	ErrLex     = NewError("lex error")
	ErrParse   = NewError("parse error")
	ErrRuntime = NewError("runtime error")
)

// Lexical errors.
var (
	ErrUnexpectedChar     = newKind(ErrLex, "unexpected character")
	ErrUnterminatedString = newKind(ErrLex, "unterminated string literal")
	ErrInvalidNumber      = newKind(ErrLex, "invalid number literal")
	ErrIndentation        = newKind(ErrLex, "inconsistent indentation")
)

// Parse errors.
var (
	ErrSyntax  = newKind(ErrParse, "invalid syntax")
	ErrTooDeep = newKind(ErrParse, "nesting too deep")
)

// Runtime errors.
var (
	ErrUndefinedName   = newKind(ErrRuntime, "undefined name")
	ErrTypeMismatch    = newKind(ErrRuntime, "type mismatch")
	ErrDivisionByZero  = newKind(ErrRuntime, "division by zero")
	ErrNotCallable     = newKind(ErrRuntime, "not callable")
	ErrArityMismatch   = newKind(ErrRuntime, "arity mismatch")
	ErrStackOverflow   = newKind(ErrRuntime, "maximum recursion depth exceeded")
	ErrTooLarge        = newKind(ErrRuntime, "result too large")
	ErrAssertionFailed = newKind(ErrRuntime, "assertion failed")
	ErrInterrupted     = newKind(ErrRuntime, "interrupted")
)

// ErrReadInput is returned when source text cannot be read.
var ErrReadInput = NewError("failed to read input")

// Error is the error type of every failure reported by this package.
// It implements both error and slog.LogValuer.
//
// Errors are immutable: each derivation method returns a copy that remains
// matchable (via [errors.Is]) against the sentinel it was derived from and
// against that sentinel's category.
type Error struct {
	msg      string
	detail   string
	err      error       // Wrapped error (for errors.Unwrap)
	attrs    []slog.Attr // Attributes for structured logging
	kind     *Error
	class    *Error
	pos      *Position
	expected []string
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

func newKind(class *Error, msg string) *Error {
	e := NewError(msg)
	e.class = class

	return e
}

// WrapError converts err to an *Error, returning it unchanged if it already
// is one.
func WrapError(err error) *Error {
	if ee := (*Error)(nil); errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

func (e *Error) clone() *Error {
	c := *e

	return &c
}

// Error implements the error interface. The message has the form
//
//	<msg>[: <detail>][ at line L, column C][ (expected A or B)][: <cause>]
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if e.detail != "" {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.detail)
	}

	if e.pos != nil {
		sb.WriteString(" at ")
		sb.WriteString(e.pos.String())
	}

	if len(e.expected) > 0 {
		sb.WriteString(" (expected ")
		sb.WriteString(strings.Join(e.expected, " or "))
		sb.WriteString(")")
	}

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Is reports whether target is the sentinel e was derived from, or that
// sentinel's category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	return t == e || t == e.kind || (e.class != nil && t == e.class)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Position returns the source position of the error, if known.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// Expected returns the items the parser would have accepted at the error
// position.
func (e *Error) Expected() []string { return e.expected }

// Detail returns the error-specific description, without the category
// message or position.
func (e *Error) Detail() string { return e.detail }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+5)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.pos != nil {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	if len(e.expected) > 0 {
		attrs = append(attrs,
			slog.String("expected", strings.Join(e.expected, ", ")))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With returns a copy of e with attributes added for structured logging.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	c.attrs = append(append(c.attrs, e.attrs...), attrs...)

	return c
}

// Detailf returns a copy of e with a formatted description.
func (e *Error) Detailf(format string, args ...any) *Error {
	c := e.clone()
	c.detail = fmt.Sprintf(format, args...)

	return c
}

// At returns a copy of e located at pos. A position already recorded is
// kept, so the innermost location wins as an error propagates outward.
func (e *Error) At(pos Position) *Error {
	if e.pos != nil {
		return e
	}

	c := e.clone()
	c.pos = &pos

	return c
}

// Expect returns a copy of e listing what the parser would have accepted.
func (e *Error) Expect(items ...string) *Error {
	c := e.clone()
	c.expected = items

	return c
}

// FormatError renders err for humans. When err carries a position inside
// source, the offending line is shown with a caret under the error column:
//
//	invalid syntax at line 2, column 7 (expected ":")
//	  2 | if x > 1
//	    |        ^
func FormatError(source string, err error) string {
	if err == nil {
		return ""
	}

	var ee *Error
	if !errors.As(err, &ee) || ee.pos == nil {
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString(err.Error())
	sb.WriteByte('\n')

	lines := strings.Split(source, "\n")
	pos := ee.pos

	if pos.Line < 1 || pos.Line > len(lines) {
		return sb.String()
	}

	num := strconv.Itoa(pos.Line)
	line := strings.TrimRight(lines[pos.Line-1], "\r")

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(line)
	sb.WriteByte('\n')

	sb.WriteString("  ")
	sb.WriteString(strings.Repeat(" ", len(num)))
	sb.WriteString(" | ")

	// Keep tabs so the caret lines up with the echoed source.
	col := 1
	for _, r := range line {
		if col >= pos.Column {
			break
		}

		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}

		col++
	}

	sb.WriteString("^\n")

	return sb.String()
}
