package lang

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := ErrDivisionByZero.Detailf("1 / 0").At(Position{Line: 3, Column: 7})

	for _, target := range []error{ErrDivisionByZero, ErrRuntime} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(%v, %v) = false", err, target)
		}
	}

	for _, target := range []error{ErrTypeMismatch, ErrParse, ErrLex, io.EOF} {
		if errors.Is(err, target) {
			t.Errorf("errors.Is(%v, %v) = true", err, target)
		}
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "sentinel",
			err:  ErrUndefinedName,
			want: "undefined name",
		},
		{
			name: "detail and position",
			err:  ErrUndefinedName.Detailf("name %q is not defined", "x").At(Position{Line: 2, Column: 5}),
			want: `undefined name: name "x" is not defined at line 2, column 5`,
		},
		{
			name: "expected items",
			err:  ErrSyntax.Detailf("unexpected newline").At(Position{Line: 1, Column: 5}).Expect(`":"`, "indent"),
			want: `invalid syntax: unexpected newline at line 1, column 5 (expected ":" or indent)`,
		},
		{
			name: "wrapped cause",
			err:  ErrReadInput.Wrap(io.ErrUnexpectedEOF),
			want: "failed to read input: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Immutable(t *testing.T) {
	derived := ErrTypeMismatch.Detailf("first").With(slog.String("k", "v"))
	_ = derived.At(Position{Line: 9, Column: 9})

	if ErrTypeMismatch.Detail() != "" {
		t.Errorf("sentinel detail changed to %q", ErrTypeMismatch.Detail())
	}

	if _, ok := derived.Position(); ok {
		t.Error("At modified its receiver")
	}
}

func TestError_AtKeepsInnermost(t *testing.T) {
	inner := ErrTypeMismatch.At(Position{Line: 2, Column: 3})
	outer := inner.At(Position{Line: 8, Column: 1})

	if pos, _ := outer.Position(); pos.Line != 2 || pos.Column != 3 {
		t.Errorf("position = %v, want line 2, column 3", pos)
	}
}

func TestError_LogValue(t *testing.T) {
	var sb strings.Builder

	logger := slog.New(slog.NewTextHandler(&sb, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return a
		},
	}))

	err := ErrSyntax.Detailf("unexpected %q", ")").
		At(Position{Line: 4, Column: 2}).
		Expect("expression").
		With(slog.String("file", "a.py"))

	logger.Error("parse failed", slog.Any("err", err))

	want := `level=ERROR msg="parse failed" err.error="invalid syntax" ` +
		`err.detail="unexpected \")\"" err.line=4 err.column=2 ` +
		`err.expected=expression err.file=a.py` + "\n"

	if got := sb.String(); got != want {
		t.Errorf("log output:\n got %q\nwant %q", got, want)
	}
}

func TestWrapError(t *testing.T) {
	if got := WrapError(ErrSyntax); got != ErrSyntax {
		t.Errorf("WrapError(*Error) = %p, want the same error", got)
	}

	plain := errors.New("plain")
	if got := WrapError(plain); !errors.Is(got, plain) {
		t.Errorf("WrapError(%v) does not wrap it", plain)
	}
}

func TestFormatError(t *testing.T) {
	src := "x = 1\nif x > 1\n    pass\n"

	_, err := Parse(t.Context(), src)
	if err == nil {
		t.Fatal("expected a parse error")
	}

	want := `invalid syntax: unexpected newline at line 2, column 9 (expected ":")` + "\n" +
		"  2 | if x > 1\n" +
		"    |         ^\n"

	if got := FormatError(src, err); got != want {
		t.Errorf("FormatError:\n got %q\nwant %q", got, want)
	}
}

func TestFormatError_Tabs(t *testing.T) {
	src := "if True:\n\ty = é + z\n"
	err := ErrUndefinedName.At(Position{Line: 2, Column: 10})

	want := "undefined name at line 2, column 10\n" +
		"  2 | \ty = é + z\n" +
		"    | \t        ^\n"

	if got := FormatError(src, err); got != want {
		t.Errorf("FormatError:\n got %q\nwant %q", got, want)
	}
}

func TestFormatError_NoPosition(t *testing.T) {
	err := errors.New("boom")
	if got := FormatError("x", err); got != "boom" {
		t.Errorf("FormatError = %q, want %q", got, "boom")
	}

	if got := FormatError("x", nil); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty", got)
	}
}
