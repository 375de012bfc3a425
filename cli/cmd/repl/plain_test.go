package repl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
)

func TestRunPlain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  ">>> \n",
		},
		{
			name:  "results and print output",
			input: "x = 2\nx * 21\nprint('x is', x)\n",
			want:  ">>> >>> 42\n>>> x is 2\n>>> \n",
		},
		{
			name:  "block",
			input: "def f(a):\n    return a\n\nf('hi')\n",
			want:  ">>> ... ... >>> 'hi'\n>>> \n",
		},
		{
			name:  "open block at end of input",
			input: "if True:\n    1 + 1\n    print('ran')",
			want:  ">>> ... ... ... ran\n\n",
		},
		{
			name:  "error then recovery",
			input: "1 // 0\n'still here'\n",
			want: ">>> division by zero: 1 // 0 at line 1, column 3\n" +
				"  1 | 1 // 0\n" +
				"    |   ^\n" +
				">>> 'still here'\n>>> \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder

			err := RunPlain(t.Context(), strings.NewReader(tt.input), &out, log.Logger{})
			if err != nil {
				t.Fatalf("RunPlain: %v", err)
			}

			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunPlain_Options(t *testing.T) {
	var out strings.Builder

	err := RunPlain(t.Context(), strings.NewReader("greeting\n"), &out, log.Logger{},
		lang.WithGlobals(map[string]lang.Value{"greeting": lang.String("hi")}))
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}

	if want := ">>> 'hi'\n>>> \n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunPlain_ReadError(t *testing.T) {
	r := iotest.ErrReader(errors.New("device gone"))

	err := RunPlain(t.Context(), r, new(strings.Builder), log.Logger{})
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("error = %v, want read failure", err)
	}
}

func TestRunPlain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancelCause(t.Context())
	cancel(errors.New("stop"))

	err := RunPlain(ctx, strings.NewReader("1\n"), new(strings.Builder), log.Logger{})
	if err == nil || err.Error() != "stop" {
		t.Errorf("error = %v, want the cancellation cause", err)
	}
}
