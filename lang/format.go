package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultIndent is the indentation width used by [Program.Format] when a
// width less than 1 is requested.
const DefaultIndent = 4

// precAtom is the binding power of literals, names, calls and groups.
const precAtom = precPower + 1

// Format writes p as canonical source text: every suite becomes an indented
// block of indent spaces, and parentheses appear only where they change the
// parse. Parsing the output yields a tree equal to p apart from positions.
func (p *Program) Format(w io.Writer, indent int) error {
	if indent < 1 {
		indent = DefaultIndent
	}

	f := &formatter{indent: strings.Repeat(" ", indent)}

	stmts := p.Statements()
	for i, s := range stmts {
		// Separate top-level definitions from their neighbours.
		if i > 0 && (isDef(s) || isDef(stmts[i-1])) {
			f.sb.WriteByte('\n')
		}

		f.stmt(s, 0)
	}

	_, err := io.WriteString(w, f.sb.String())

	return err
}

func isDef(s Stmt) bool {
	_, ok := s.(*FunctionDef)

	return ok
}

type formatter struct {
	sb     strings.Builder
	indent string
}

func (f *formatter) line(depth int, text string) {
	for range depth {
		f.sb.WriteString(f.indent)
	}

	f.sb.WriteString(text)
	f.sb.WriteByte('\n')
}

func (f *formatter) block(b *Block, depth int) {
	if b == nil || len(b.Statements) == 0 {
		f.line(depth, "pass")

		return
	}

	for _, s := range b.Statements {
		f.stmt(s, depth)
	}
}

func (f *formatter) stmt(s Stmt, depth int) {
	switch n := s.(type) {
	case *ExprStatement:
		f.line(depth, formatExpr(n.Expr, precOr))

	case *Assign:
		f.line(depth,
			strings.Join(n.Targets, " = ")+" = "+formatExpr(n.Value, precOr))

	case *CompoundAssign:
		f.line(depth,
			n.Name+" "+n.Op.String()+"= "+formatExpr(n.Value, precOr))

	case *If:
		for i, c := range n.Clauses {
			word := "elif "
			if i == 0 {
				word = "if "
			}

			f.line(depth, word+formatExpr(c.Cond, precOr)+":")
			f.block(c.Body, depth+1)
		}

		if n.Else != nil {
			f.line(depth, "else:")
			f.block(n.Else, depth+1)
		}

	case *While:
		f.line(depth, "while "+formatExpr(n.Cond, precOr)+":")
		f.block(n.Body, depth+1)

	case *FunctionDef:
		f.line(depth, "def "+n.Name+"("+strings.Join(n.Params, ", ")+"):")
		f.block(n.Body, depth+1)

	case *Return:
		if n.Value == nil {
			f.line(depth, "return")
		} else {
			f.line(depth, "return "+formatExpr(n.Value, precOr))
		}

	case *Assert:
		text := "assert " + formatExpr(n.Cond, precOr)
		if n.Msg != nil {
			text += ", " + formatExpr(n.Msg, precOr)
		}

		f.line(depth, text)

	case *Break:
		f.line(depth, "break")

	case *Continue:
		f.line(depth, "continue")

	case *Pass:
		f.line(depth, "pass")

	case *Block:
		f.block(n, depth)
	}
}

// binding returns the binding power of e as it would be parsed.
func binding(e Expr) int {
	switch n := e.(type) {
	case *BinaryOp:
		switch n.Op {
		case OpOr:
			return precOr
		case OpAnd:
			return precAnd
		case OpEq, OpNotEq, OpLess, OpGreater, OpLessEq, OpGreaterEq:
			return precCompare
		case OpAdd, OpSub:
			return precSum
		case OpPow:
			return precPower
		default:
			return precProduct
		}

	case *UnaryOp:
		if n.Op == OpNot {
			return precNot
		}

		return precUnary

	default:
		return precAtom
	}
}

// formatExpr renders e in a position that requires a binding power of at
// least minPrec, parenthesizing it otherwise.
func formatExpr(e Expr, minPrec int) string {
	prec := binding(e)

	var s string

	switch n := e.(type) {
	case *Literal:
		s = formatLiteral(n.Value)

	case *Variable:
		s = n.Name

	case *Call:
		args := make([]string, len(n.Args))
		for i, arg := range n.Args {
			args[i] = formatExpr(arg, precOr)
		}

		s = formatExpr(n.Callee, precAtom) + "(" + strings.Join(args, ", ") + ")"

	case *UnaryOp:
		if n.Op == OpNot {
			s = "not " + formatExpr(n.Operand, precNot)
		} else {
			s = n.Op.String() + formatExpr(n.Operand, precUnary)
		}

	case *BinaryOp:
		left, right := prec, prec+1
		if n.Op == OpPow {
			left, right = precAtom, precUnary
		}

		s = formatExpr(n.Left, left) + " " + n.Op.String() + " " +
			formatExpr(n.Right, right)

	default:
		s = fmt.Sprintf("<%T>", e)
	}

	if prec < minPrec {
		return "(" + s + ")"
	}

	return s
}

func formatLiteral(v Value) string {
	switch v.typ {
	case TypeString:
		return quote(v.s)

	case TypeFloat:
		// Only an overflowing literal produces infinity.
		if math.IsInf(v.f, 1) {
			return "1e999"
		}

		return formatFloat(v.f)

	default:
		return v.String()
	}
}

// ToMap converts a syntax tree node into nested maps suitable for encoding.
// Every map has a "node" key naming the node kind and, for nodes with a
// known position, "line" and "column" keys.
func ToMap(n Node) map[string]any {
	m := make(map[string]any)

	switch n := n.(type) {
	case *Program:
		m["node"] = "Program"
		m["body"] = statementMaps(n.Statements())

		return m

	case *Literal:
		m["node"] = "Literal"
		m["type"] = n.Value.Type().String()
		m["value"] = n.Value.Native()

	case *Variable:
		m["node"] = "Variable"
		m["name"] = n.Name

	case *BinaryOp:
		m["node"] = "BinaryOp"
		m["op"] = n.Op.String()
		m["left"] = ToMap(n.Left)
		m["right"] = ToMap(n.Right)

	case *UnaryOp:
		m["node"] = "UnaryOp"
		m["op"] = n.Op.String()
		m["operand"] = ToMap(n.Operand)

	case *Call:
		m["node"] = "Call"
		m["callee"] = ToMap(n.Callee)
		m["args"] = exprMaps(n.Args)

	case *ExprStatement:
		m["node"] = "ExprStatement"
		m["expr"] = ToMap(n.Expr)

	case *Assign:
		m["node"] = "Assign"
		m["targets"] = n.Targets
		m["value"] = ToMap(n.Value)

	case *CompoundAssign:
		m["node"] = "CompoundAssign"
		m["name"] = n.Name
		m["op"] = n.Op.String()
		m["value"] = ToMap(n.Value)

	case *If:
		m["node"] = "If"

		clauses := make([]any, len(n.Clauses))
		for i, c := range n.Clauses {
			clauses[i] = map[string]any{
				"cond": ToMap(c.Cond),
				"body": ToMap(c.Body),
			}
		}

		m["clauses"] = clauses

		if n.Else != nil {
			m["else"] = ToMap(n.Else)
		}

	case *While:
		m["node"] = "While"
		m["cond"] = ToMap(n.Cond)
		m["body"] = ToMap(n.Body)

	case *FunctionDef:
		m["node"] = "FunctionDef"
		m["name"] = n.Name
		m["params"] = n.Params
		m["body"] = ToMap(n.Body)

	case *Return:
		m["node"] = "Return"
		if n.Value != nil {
			m["value"] = ToMap(n.Value)
		}

	case *Assert:
		m["node"] = "Assert"
		m["cond"] = ToMap(n.Cond)

		if n.Msg != nil {
			m["msg"] = ToMap(n.Msg)
		}

	case *Break:
		m["node"] = "Break"

	case *Continue:
		m["node"] = "Continue"

	case *Pass:
		m["node"] = "Pass"

	case *Block:
		m["node"] = "Block"
		m["statements"] = statementMaps(n.Statements)

	default:
		m["node"] = fmt.Sprintf("%T", n)

		return m
	}

	if pos := n.Pos(); pos.Line > 0 {
		m["line"] = pos.Line
		m["column"] = pos.Column
	}

	return m
}

func exprMaps(exprs []Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = ToMap(e)
	}

	return out
}

func statementMaps(stmts []Stmt) []any {
	out := make([]any, len(stmts))
	for i, s := range stmts {
		out[i] = ToMap(s)
	}

	return out
}

// FormatJSON writes the tree of p as indented JSON. An indent less than 1
// writes compact JSON.
func FormatJSON(w io.Writer, p *Program, indent int) error {
	var (
		b   []byte
		err error
	)

	if indent < 1 {
		b, err = json.Marshal(ToMap(p))
	} else {
		b, err = json.MarshalIndent(ToMap(p), "", strings.Repeat(" ", indent))
	}

	if err != nil {
		return err
	}

	_, err = w.Write(append(b, '\n'))

	return err
}

// FormatYAML writes the tree of p as YAML. An indent less than 1 writes flow
// style.
func FormatYAML(ctx context.Context, w io.Writer, p *Program, indent int) error {
	opt := yaml.Flow(true)
	if indent > 0 {
		opt = yaml.Indent(indent)
	}

	b, err := yaml.MarshalContext(ctx, ToMap(p), opt)
	if err != nil {
		return err
	}

	_, err = w.Write(b)

	return err
}

// FormatTokens writes the tokens of src, one per line, each preceded by its
// line and column.
func FormatTokens(w io.Writer, src string) error {
	for tok, err := range NewLexer(src).All() {
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "%d:%d\t%s\n",
			tok.Pos.Line, tok.Pos.Column, tok); err != nil {
			return err
		}
	}

	return nil
}
