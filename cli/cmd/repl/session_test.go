package repl

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ardnew/minipy/lang"
)

func feed(t *testing.T, s *Session, lines ...string) []Result {
	t.Helper()

	var results []Result

	for _, line := range lines {
		if res, done := s.Feed(t.Context(), line); done {
			results = append(results, res)
		}
	}

	return results
}

func TestSession_Feed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string // echo of each completed chunk
	}{
		{
			name:  "expression is echoed",
			lines: []string{"1 + 2"},
			want:  []string{"3"},
		},
		{
			name:  "statements are silent",
			lines: []string{"x = 'a'", "x * 3"},
			want:  []string{"", "'aaa'"},
		},
		{
			name:  "blank line outside a block",
			lines: []string{"", "   "},
			want:  []string{"", ""},
		},
		{
			name:  "block runs on empty line",
			lines: []string{"def double(n):", "    return n * 2", "", "double(21)"},
			want:  []string{"", "42"},
		},
		{
			name:  "nested block",
			lines: []string{"t = 0", "for_ = 3", "while for_ > 0:", "    if for_ != 2:", "        t += for_", "    for_ -= 1", "", "t"},
			want:  []string{"", "", "", "4"},
		},
		{
			name:  "colon in string does not open a block",
			lines: []string{"'a:'"},
			want:  []string{"'a:'"},
		},
		{
			name:  "comment after block opener",
			lines: []string{"if True:  # always", "    y = 1", "", "y"},
			want:  []string{"", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(lang.WithOutput(io.Discard))

			results := feed(t, s, tt.lines...)
			if len(results) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.want))
			}

			for i, res := range results {
				if res.Err != nil {
					t.Fatalf("result %d: %v", i, res.Err)
				}

				if got := res.Echo(); got != tt.want[i] {
					t.Errorf("result %d echo = %q, want %q", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestSession_ErrorKeepsGlobals(t *testing.T) {
	s := NewSession(lang.WithOutput(io.Discard))

	results := feed(t, s, "x = 1", "x + missing", "x")

	if !errors.Is(results[1].Err, lang.ErrUndefinedName) {
		t.Fatalf("error = %v, want undefined name", results[1].Err)
	}

	want := "undefined name: name \"missing\" is not defined at line 1, column 5\n" +
		"  1 | x + missing\n" +
		"    |     ^"
	if got := results[1].Echo(); got != want {
		t.Errorf("echo:\n got %q\nwant %q", got, want)
	}

	if got := results[2].Echo(); got != "1" {
		t.Errorf("x = %q after error, want 1", got)
	}
}

func TestSession_PendingAndFlush(t *testing.T) {
	var out strings.Builder

	s := NewSession(lang.WithOutput(&out))

	if _, done := s.Feed(t.Context(), "while False:"); done {
		t.Fatal("block opener completed immediately")
	}

	if !s.Pending() {
		t.Fatal("Pending() = false with an open block")
	}

	feed(t, s, "    pass", "print('after')")

	if out.Len() != 0 {
		t.Fatalf("block ran early, output %q", out.String())
	}

	if res := s.Flush(t.Context()); res.Err != nil {
		t.Fatalf("Flush: %v", res.Err)
	}

	if s.Pending() {
		t.Error("Pending() = true after Flush")
	}

	if out.String() != "after\n" {
		t.Errorf("output = %q, want %q", out.String(), "after\n")
	}

	s.Feed(t.Context(), "if True:")
	s.Discard()

	if s.Pending() {
		t.Error("Pending() = true after Discard")
	}
}

func TestSession_Transcript(t *testing.T) {
	s := NewSession(lang.WithOutput(io.Discard))

	feed(t, s, "a = 1", "a +", "def f():", "    return a", "", "f()")

	want := "a = 1\ndef f():\n    return a\nf()\n"
	if got := s.Transcript(); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}

	s.Reset()

	if s.Transcript() != "" {
		t.Error("Reset kept the transcript")
	}

	if _, ok := s.Interpreter().Globals().Get("a"); ok {
		t.Error("Reset kept global a")
	}
}

func TestSession_Load(t *testing.T) {
	s := NewSession(lang.WithOutput(io.Discard))
	feed(t, s, "old = 1")

	if res := s.Load(t.Context(), "new = old\n"); res.Err == nil {
		t.Fatal("Load of a failing program succeeded")
	}

	if _, ok := s.Interpreter().Globals().Get("old"); !ok {
		t.Error("failed Load replaced the session")
	}

	if res := s.Load(t.Context(), "new = 2\n"); res.Err != nil {
		t.Fatalf("Load: %v", res.Err)
	}

	globals := s.Interpreter().Globals()
	if _, ok := globals.Get("old"); ok {
		t.Error("successful Load kept old globals")
	}

	if v, _ := globals.Get("new"); v.Repr() != "2" {
		t.Errorf("new = %s, want 2", v.Repr())
	}

	if s.Transcript() != "new = 2\n" {
		t.Errorf("Transcript() = %q", s.Transcript())
	}
}

func TestOpensBlock(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"if x:", true},
		{"else:  ", true},
		{"def f(a, b): # comment", true},
		{"x = 1", false},
		{"s = 'ends with:'", false},
		{"x = 1  # note:", false},
		{`s = "#" + ':'`, false},
		{"while s == '#':", true},
	}

	for _, tt := range tests {
		if got := opensBlock(tt.line); got != tt.want {
			t.Errorf("opensBlock(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
