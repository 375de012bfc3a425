package repl

import (
	"io"
	"slices"
	"testing"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/minipy/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"after_comparison", "a >= fo", 7, "fo", 5, 7},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore_and_digits", "x = my_var2", 11, "my_var2", 4, 11},
		{"keyword_prefix", "    ret", 7, "ret", 4, 7},
		{"hyphen_is_operator", "n-fo", 4, "fo", 2, 4},
		{"unicode", "é + naï", 9, "naï", 5, 9},
		{"cursor_past_end", "ab", 10, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestInString(t *testing.T) {
	tests := []struct {
		input  string
		offset int
		want   bool
	}{
		{"x = 'ab", 7, true},
		{"x = 'ab' + c", 12, false},
		{`x = "it\"s`, 10, true},
		{"x = 1 # pri", 11, true},
		{"x = 1 # pri", 5, false},
		{"'#' + pri", 9, false},
	}

	for _, tt := range tests {
		if got := inString(tt.input, tt.offset); got != tt.want {
			t.Errorf("inString(%q, %d) = %v, want %v", tt.input, tt.offset, got, tt.want)
		}
	}
}

func TestEvalCandidates(t *testing.T) {
	interp := lang.New(lang.WithOutput(io.Discard))
	if _, err := interp.Exec(t.Context(), "def fib(n): return n\nfiber = 1\n"); err != nil {
		t.Fatal(err)
	}

	names := evalCandidates(interp)

	for _, want := range []string{"fib", "fiber", "print", "while", "True"} {
		if !slices.Contains(names, want) {
			t.Errorf("candidates lack %q: %v", want, names)
		}
	}

	if !slices.IsSorted(names) {
		t.Errorf("candidates not sorted: %v", names)
	}

	matches := fuzzy.Find("fib", names)
	if len(matches) < 2 || matches[0].Str != "fib" {
		t.Errorf("fuzzy ranking for %q = %v", "fib", matches)
	}
}

func TestPreview(t *testing.T) {
	interp := lang.New(lang.WithOutput(io.Discard))
	if _, err := interp.Exec(t.Context(), "def add(a, b): return a + b\nlong = 'x' * 60\n"); err != nil {
		t.Fatal(err)
	}

	globals := interp.Globals()

	add, _ := globals.Get("add")
	if got := preview(add); got != "add(a, b)" {
		t.Errorf("preview(add) = %q", got)
	}

	long, _ := globals.Get("long")
	if got := []rune(preview(long)); len(got) != 40 || string(got[37:]) != "..." {
		t.Errorf("preview(long) = %q", string(got))
	}

	if got := preview(lang.Float(2.5)); got != "2.5" {
		t.Errorf("preview(2.5) = %q", got)
	}
}

func TestRenderCandidateBar(t *testing.T) {
	matches := fuzzy.Find("a", []string{"alpha", "beta", "gamma", "delta"})
	noFunc := func(string) bool { return false }

	if renderCandidateBar(nil, -1, false, 80, noFunc) != "" {
		t.Error("bar rendered without matches")
	}

	wide := renderCandidateBar(matches, -1, false, 80, noFunc)
	narrow := renderCandidateBar(matches, -1, false, 12, noFunc)

	if wide == "" || narrow == "" {
		t.Fatal("bar empty with matches")
	}

	if len(narrow) >= len(wide) {
		t.Errorf("narrow bar not truncated: %q", narrow)
	}
}
