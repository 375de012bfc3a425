package repl

import (
	"context"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/minipy/lang"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no call", "greeting", 8, "", 0, false},
		{"first arg empty", "add(", 4, "add", 0, true},
		{"first arg", "add(1", 5, "add", 0, true},
		{"second arg empty", "add(1,", 6, "add", 1, true},
		{"second arg", "add(1, 2", 8, "add", 1, true},
		{"closed call", "add(1, 2)", 9, "", 0, false},
		{"nested inner", "add(mul(2, ", 11, "mul", 1, true},
		{"nested closed", "add(mul(2, 3), ", 15, "add", 1, true},
		{"grouping paren", "x = (1 + ", 9, "", 0, false},
		{"comma in string", "add('a,b', ", 11, "add", 1, true},
		{"paren in string", "add(')', ", 9, "add", 1, true},
		{"cursor in string", "print('a(", 9, "", 0, false},
		{"cursor before paren", "add(1)", 2, "", 0, false},
		{"statement prefix", "    return fact(n - 1", 21, "fact", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.wantInCall || got.name != tt.wantName || got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall(%q, %d) = %+v, want {name:%s argIndex:%d inCall:%v}",
					tt.input, tt.cursor, got, tt.wantName, tt.wantIndex, tt.wantInCall)
			}
		})
	}
}

func signatureEnv(t testing.TB) *lang.Env {
	t.Helper()

	pair := lang.NewBuiltin("pair", 2,
		func(context.Context, []lang.Value) (lang.Value, error) { return lang.None(), nil })

	interp := lang.New(
		lang.WithOutput(io.Discard),
		lang.WithGlobals(map[string]lang.Value{"pair": pair, "answer": lang.Int(42)}),
	)

	if _, err := interp.Exec(context.Background(), "def add(a, b):\n    return a + b\ndef nothing(): pass\n"); err != nil {
		t.Fatal(err)
	}

	return interp.Globals()
}

func TestGetSignature(t *testing.T) {
	env := signatureEnv(t)

	tests := []struct {
		name          string
		funcName      string
		wantSignature string
		wantParams    []string
	}{
		{"user function", "add", "add(a, b)", []string{"a", "b"}},
		{"no parameters", "nothing", "nothing()", nil},
		{"variadic builtin", "print", "print(...)", []string{"..."}},
		{"fixed builtin", "pair", "pair(arg1, arg2)", []string{"arg1", "arg2"}},
		{"not a function", "answer", "", nil},
		{"undefined", "doesnotexist", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSig, gotParams := getSignature(env, tt.funcName)

			if gotSig != tt.wantSignature {
				t.Errorf("signature = %q, want %q", gotSig, tt.wantSignature)
			}

			if !slices.Equal(gotParams, tt.wantParams) {
				t.Errorf("params = %q, want %q", gotParams, tt.wantParams)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name       string
		signature  string
		params     []string
		currentArg int
	}{
		{"no params", "nothing()", nil, 0},
		{"first param", "add(a, b)", []string{"a", "b"}, 0},
		{"second param", "add(a, b)", []string{"a", "b"}, 1},
		{"past the end", "add(a, b)", []string{"a", "b"}, 5},
		{"variadic", "print(...)", []string{"..."}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.signature, tt.params, tt.currentArg)

			for _, part := range append([]string{tt.signature[:strings.IndexByte(tt.signature, '(')]}, tt.params...) {
				if !strings.Contains(got, part) {
					t.Errorf("hint %q lacks %q", got, part)
				}
			}
		})
	}

	if got := renderSignatureHint("", nil, 0); got != "" {
		t.Errorf("empty signature rendered %q", got)
	}
}
