package lang

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// structural compares syntax trees while ignoring source positions.
var structural = cmp.Options{
	cmp.Comparer(func(a, b Position) bool { return true }),
	cmp.Comparer(func(a, b Value) bool {
		return a.Type() == b.Type() && a.Equal(b)
	}),
}

func lit(v Value) *Literal      { return &Literal{Value: v} }
func name(s string) *Variable   { return &Variable{Name: s} }
func neg(e Expr) *UnaryOp       { return &UnaryOp{Op: OpNeg, Operand: e} }
func not(e Expr) *UnaryOp       { return &UnaryOp{Op: OpNot, Operand: e} }
func bin(op Op, l, r Expr) Expr { return &BinaryOp{Op: op, Left: l, Right: r} }

func parseExpr(t *testing.T, src string) Expr {
	t.Helper()

	prog, err := Parse(t.Context(), src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}

	stmts := prog.Statements()
	if len(stmts) != 1 {
		t.Fatalf("Parse(%q): got %d statements, want 1", src, len(stmts))
	}

	es, ok := stmts[0].(*ExprStatement)
	if !ok {
		t.Fatalf("Parse(%q): got %T, want *ExprStatement", src, stmts[0])
	}

	return es.Expr
}

func TestParse_Precedence(t *testing.T) {
	one, two, three := lit(Int(1)), lit(Int(2)), lit(Int(3))

	tests := []struct {
		input string
		want  Expr
	}{
		{"1 + 2 * 3", bin(OpAdd, one, bin(OpMul, two, three))},
		{"(1 + 2) * 3", bin(OpMul, bin(OpAdd, one, two), three)},
		{"1 - 2 - 3", bin(OpSub, bin(OpSub, one, two), three)},
		{"2 ** 3 ** 2", bin(OpPow, two, bin(OpPow, three, two))},
		{"-2 ** 2", neg(bin(OpPow, two, two))},
		{"2 ** -1", bin(OpPow, two, neg(one))},
		{"--1", neg(neg(one))},
		{"1 < 2 < 3", bin(OpLess, bin(OpLess, one, two), three)},
		{"not 1 == 2", not(bin(OpEq, one, two))},
		{"not not 1", not(not(one))},
		{
			"1 or 2 and not 3",
			bin(OpOr, one, bin(OpAnd, two, not(three))),
		},
		{"1 // 2 % 3", bin(OpMod, bin(OpFloorDiv, one, two), three)},
		{"3 * -2", bin(OpMul, three, neg(two))},
		{"-x + 1", bin(OpAdd, neg(name("x")), one)},
		{
			"f(1, g(2))(3)",
			&Call{
				Callee: &Call{
					Callee: name("f"),
					Args:   []Expr{one, &Call{Callee: name("g"), Args: []Expr{two}}},
				},
				Args: []Expr{three},
			},
		},
		{`"a" * 3`, bin(OpMul, lit(String("a")), three)},
		{"True != None", bin(OpNotEq, lit(Bool(true)), lit(None()))},
		{"2.5e1", lit(Float(25))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseExpr(t, tt.input)
			if diff := cmp.Diff(tt.want, got, structural); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Statements(t *testing.T) {
	src := `
def f(a, b):
    if a:
        return b
    elif b: pass
    else:
        while a:
            a -= 1
            if a == 2: break
            continue
    return
x = y = f(1, 2)
assert x, "msg"
`

	prog, err := Parse(t.Context(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &Program{Body: &Block{Statements: []Stmt{
		&FunctionDef{
			Name:   "f",
			Params: []string{"a", "b"},
			Body: &Block{Statements: []Stmt{
				&If{
					Clauses: []IfClause{
						{
							Cond: name("a"),
							Body: &Block{Statements: []Stmt{&Return{Value: name("b")}}},
						},
						{
							Cond: name("b"),
							Body: &Block{Statements: []Stmt{&Pass{}}},
						},
					},
					Else: &Block{Statements: []Stmt{
						&While{
							Cond: name("a"),
							Body: &Block{Statements: []Stmt{
								&CompoundAssign{Name: "a", Op: OpSub, Value: lit(Int(1))},
								&If{Clauses: []IfClause{{
									Cond: bin(OpEq, name("a"), lit(Int(2))),
									Body: &Block{Statements: []Stmt{&Break{}}},
								}}},
								&Continue{},
							}},
						},
					}},
				},
				&Return{},
			}},
		},
		&Assign{
			Targets: []string{"x", "y"},
			Value: &Call{
				Callee: name("f"),
				Args:   []Expr{lit(Int(1)), lit(Int(2))},
			},
		},
		&Assert{Cond: name("x"), Msg: lit(String("msg"))},
	}}}

	if diff := cmp.Diff(want, prog, structural); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Positions(t *testing.T) {
	prog, err := Parse(t.Context(), "x = 1\ny = x +  2\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	assign, ok := prog.Statements()[1].(*Assign)
	if !ok {
		t.Fatalf("statement 2 is %T", prog.Statements()[1])
	}

	op, ok := assign.Value.(*BinaryOp)
	if !ok {
		t.Fatalf("value is %T", assign.Value)
	}

	if got := op.Pos(); got.Line != 2 || got.Column != 7 {
		t.Errorf("operator position = %v, want line 2, column 7", got)
	}

	if got := op.Right.Pos(); got.Line != 2 || got.Column != 10 {
		t.Errorf("operand position = %v, want line 2, column 10", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     error
		detail   string
		expected []string
	}{
		{
			name:     "missing colon",
			input:    "if x\n    y\n",
			want:     ErrSyntax,
			detail:   "unexpected newline",
			expected: []string{`":"`},
		},
		{
			name:   "return outside function",
			input:  "return 1\n",
			want:   ErrSyntax,
			detail: "'return' outside function",
		},
		{
			name:   "break outside loop",
			input:  "if x: break\n",
			want:   ErrSyntax,
			detail: "'break' outside loop",
		},
		{
			name:   "continue inside function inside loop",
			input:  "while x:\n    def f():\n        continue\n",
			want:   ErrSyntax,
			detail: "'continue' outside loop",
		},
		{
			name:   "duplicate parameter",
			input:  "def f(a, a): pass\n",
			want:   ErrSyntax,
			detail: `duplicate parameter "a" in function "f"`,
		},
		{
			name:     "assign to literal",
			input:    "1 = x\n",
			want:     ErrSyntax,
			detail:   "cannot assign to expression",
			expected: []string{"name"},
		},
		{
			name:     "assign to call",
			input:    "f() += 1\n",
			want:     ErrSyntax,
			detail:   "cannot assign to expression",
			expected: []string{"name"},
		},
		{
			name:     "missing indented block",
			input:    "while x:\ny\n",
			want:     ErrSyntax,
			detail:   "unexpected identifier y",
			expected: []string{"indented block"},
		},
		{
			name:   "unexpected indent",
			input:  "x = 1\n    y = 2\n",
			want:   ErrSyntax,
			detail: "unexpected indent",
		},
		{
			name:     "not after binary operator",
			input:    "1 + not 2\n",
			want:     ErrSyntax,
			detail:   `unexpected "not"`,
			expected: []string{"expression"},
		},
		{
			name:     "unclosed call",
			input:    "f(1, 2\n",
			want:     ErrSyntax,
			detail:   "unexpected newline",
			expected: []string{`")"`},
		},
		{
			name:  "lexical error surfaces",
			input: "x = 1 ! 2\n",
			want:  ErrUnexpectedChar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(t.Context(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *Error", err)
			}

			if _, ok := e.Position(); !ok {
				t.Errorf("error %v has no position", err)
			}

			if tt.detail != "" && e.Detail() != tt.detail {
				t.Errorf("detail = %q, want %q", e.Detail(), tt.detail)
			}

			if diff := cmp.Diff(tt.expected, e.Expected()); diff != "" {
				t.Errorf("expected mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ErrorIsParseCategory(t *testing.T) {
	_, err := Parse(t.Context(), "def (x): pass")

	if !errors.Is(err, ErrParse) || errors.Is(err, ErrRuntime) {
		t.Errorf("error %v has the wrong category", err)
	}

	if !strings.Contains(err.Error(), "line 1, column 5") {
		t.Errorf("error %q does not name its position", err)
	}
}

func TestParse_Nesting(t *testing.T) {
	nestedIf := func(levels int) string {
		var sb strings.Builder

		for i := range levels {
			sb.WriteString(strings.Repeat(" ", i) + "if x:\n")
		}

		sb.WriteString(strings.Repeat(" ", levels) + "pass\n")

		return sb.String()
	}

	tests := []struct {
		name string
		src  string
		ok   bool
	}{
		{"parentheses", strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200), true},
		{"operator chain", "x" + strings.Repeat(" + 1", 500), true},
		{"blocks", nestedIf(100), true},
		{"deep parentheses", strings.Repeat("(", 20_000) + "1" + strings.Repeat(")", 20_000), false},
		{"prefix minus", strings.Repeat("-", 20_000) + "1", false},
		{"prefix not", strings.Repeat("not ", 20_000) + "x", false},
		{"long operator chain", "x" + strings.Repeat(" + 1", 20_000), false},
		{"right-nested power", "2" + strings.Repeat(" ** 2", 20_000), false},
		{"call chain", "f" + strings.Repeat("()", 20_000), false},
		{"deep blocks", nestedIf(1100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(t.Context(), tt.src+"\n")

			if tt.ok {
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}

				return
			}

			if !errors.Is(err, ErrTooDeep) || !errors.Is(err, ErrParse) {
				t.Fatalf("error = %v, want %v", err, ErrTooDeep)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *Error", err)
			}

			if _, ok := e.Position(); !ok {
				t.Errorf("error %v has no position", err)
			}
		})
	}
}
