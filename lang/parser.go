package lang

import (
	"context"
	"log/slog"
	"strconv"
)

// Binding powers, lowest first. A prefix operator is accepted only where the
// minimum power being parsed does not exceed its own, so "a + not b" is
// rejected while "a + -b" is not.
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precCompare
	precSum
	precProduct
	precUnary
	precPower
)

// maxNesting bounds the depth of the syntax tree: nested parentheses, prefix
// operators, operator chains, call chains and blocks each add a level.
const maxNesting = 1000

func precedence(k Kind) int {
	switch k {
	case KeywordOr:
		return precOr
	case KeywordAnd:
		return precAnd
	case EqEq, NotEq, Less, Greater, LessEq, GreaterEq:
		return precCompare
	case Plus, Minus:
		return precSum
	case Star, Slash, DoubleSlash, Percent:
		return precProduct
	case DoubleStar:
		return precPower
	default:
		return precNone
	}
}

// Parse parses src into a program without consulting the parse cache.
func Parse(ctx context.Context, src string, opts ...Option) (*Program, error) {
	cfg := makeConfig(opts...)

	prog, err := parse(src)
	if err != nil {
		cfg.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("source_bytes", len(src)),
		slog.Int("statements", len(prog.Statements())),
	)

	return prog, nil
}

func parse(src string) (*Program, error) {
	p := &parser{lex: NewLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}

	return p.program()
}

// parser is a recursive-descent parser with one token of lookahead.
type parser struct {
	lex       *Lexer
	tok       Token
	funcDepth int
	loopDepth int
	nest      int
}

func (p *parser) next() error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}

	p.tok = t

	return nil
}

// unexpected reports the current token as a syntax error.
func (p *parser) unexpected(expected ...string) error {
	return ErrSyntax.
		Detailf("unexpected %s", p.tok.describe()).
		At(p.tok.Pos).
		Expect(expected...)
}

func (p *parser) expect(kind Kind) (Token, error) {
	t := p.tok
	if t.Kind != kind {
		return t, p.unexpected(quoted(kind))
	}

	return t, p.next()
}

// enter adds a level of nesting. Callers restore p.nest when the nested
// construct is complete.
func (p *parser) enter() error {
	if p.nest >= maxNesting {
		return ErrTooDeep.
			Detailf("more than %d levels of nesting", maxNesting).
			At(p.tok.Pos)
	}

	p.nest++

	return nil
}

func quoted(kind Kind) string {
	switch kind {
	case Ident, Newline, Indent, EOF:
		return kind.String()
	default:
		return strconv.Quote(kind.String())
	}
}

func (p *parser) program() (*Program, error) {
	body := &Block{At: Position{Line: 1, Column: 1}}

	for p.tok.Kind != EOF {
		if p.tok.Kind == Newline {
			if err := p.next(); err != nil {
				return nil, err
			}

			continue
		}

		s, err := p.statement()
		if err != nil {
			return nil, err
		}

		body.Statements = append(body.Statements, s)
	}

	return &Program{Body: body}, nil
}

func (p *parser) statement() (Stmt, error) {
	switch p.tok.Kind {
	case KeywordIf:
		return p.ifStmt()
	case KeywordWhile:
		return p.whileStmt()
	case KeywordDef:
		return p.defStmt()
	case Indent:
		return nil, ErrSyntax.Detailf("unexpected indent").At(p.tok.Pos)
	}

	s, err := p.simple()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(Newline); err != nil {
		return nil, err
	}

	return s, nil
}

func (p *parser) simple() (Stmt, error) {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case KeywordReturn:
		if p.funcDepth == 0 {
			return nil, ErrSyntax.Detailf("'return' outside function").At(pos)
		}

		if err := p.next(); err != nil {
			return nil, err
		}

		if p.tok.Kind == Newline {
			return &Return{At: pos}, nil
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}

		return &Return{At: pos, Value: value}, nil

	case KeywordAssert:
		return p.assertStmt()

	case KeywordBreak, KeywordContinue:
		kind := p.tok.Kind
		if p.loopDepth == 0 {
			return nil, ErrSyntax.
				Detailf("'%s' outside loop", kind).
				At(pos)
		}

		if err := p.next(); err != nil {
			return nil, err
		}

		if kind == KeywordBreak {
			return &Break{At: pos}, nil
		}

		return &Continue{At: pos}, nil

	case KeywordPass:
		return &Pass{At: pos}, p.next()
	}

	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.tok.Kind == Equals:
		return p.assignment(lhs)

	case augmented[p.tok.Kind] != KindInvalid:
		name, err := p.target(lhs)
		if err != nil {
			return nil, err
		}

		op := binaryOps[augmented[p.tok.Kind]]

		if err := p.next(); err != nil {
			return nil, err
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}

		return &CompoundAssign{At: pos, Name: name, Op: op, Value: value}, nil
	}

	return &ExprStatement{At: pos, Expr: lhs}, nil
}

// assignment parses the rest of "a = b = ... = value" after its first
// target.
func (p *parser) assignment(first Expr) (Stmt, error) {
	stmt := &Assign{At: first.Pos()}
	rhs := first

	for p.tok.Kind == Equals {
		name, err := p.target(rhs)
		if err != nil {
			return nil, err
		}

		stmt.Targets = append(stmt.Targets, name)

		if err := p.next(); err != nil {
			return nil, err
		}

		if rhs, err = p.expr(); err != nil {
			return nil, err
		}
	}

	stmt.Value = rhs

	return stmt, nil
}

func (p *parser) target(e Expr) (string, error) {
	v, ok := e.(*Variable)
	if !ok {
		return "", ErrSyntax.
			Detailf("cannot assign to expression").
			At(e.Pos()).
			Expect("name")
	}

	return v.Name, nil
}

func (p *parser) assertStmt() (Stmt, error) {
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	cond, err := p.expr()
	if err != nil {
		return nil, err
	}

	stmt := &Assert{At: pos, Cond: cond}

	if p.tok.Kind == Comma {
		if err := p.next(); err != nil {
			return nil, err
		}

		if stmt.Msg, err = p.expr(); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

// block parses a suite: either an indented block on the following lines or
// a single simple statement on the same line as the colon.
func (p *parser) block() (*Block, error) {
	if _, err := p.expect(Colon); err != nil {
		return nil, err
	}

	defer func(n int) { p.nest = n }(p.nest)

	if err := p.enter(); err != nil {
		return nil, err
	}

	b := &Block{At: p.tok.Pos}

	if p.tok.Kind != Newline {
		s, err := p.simple()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(Newline); err != nil {
			return nil, err
		}

		b.Statements = []Stmt{s}

		return b, nil
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	if p.tok.Kind != Indent {
		return nil, p.unexpected("indented block")
	}

	b.At = p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	for p.tok.Kind != Dedent && p.tok.Kind != EOF {
		if p.tok.Kind == Newline {
			if err := p.next(); err != nil {
				return nil, err
			}

			continue
		}

		s, err := p.statement()
		if err != nil {
			return nil, err
		}

		b.Statements = append(b.Statements, s)
	}

	if _, err := p.expect(Dedent); err != nil {
		return nil, err
	}

	return b, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	stmt := &If{At: p.tok.Pos}

	for {
		if err := p.next(); err != nil {
			return nil, err
		}

		cond, err := p.expr()
		if err != nil {
			return nil, err
		}

		body, err := p.block()
		if err != nil {
			return nil, err
		}

		stmt.Clauses = append(stmt.Clauses, IfClause{Cond: cond, Body: body})

		if p.tok.Kind != KeywordElif {
			break
		}
	}

	if p.tok.Kind == KeywordElse {
		if err := p.next(); err != nil {
			return nil, err
		}

		body, err := p.block()
		if err != nil {
			return nil, err
		}

		stmt.Else = body
	}

	return stmt, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	cond, err := p.expr()
	if err != nil {
		return nil, err
	}

	p.loopDepth++
	body, err := p.block()
	p.loopDepth--

	if err != nil {
		return nil, err
	}

	return &While{At: pos, Cond: cond, Body: body}, nil
}

func (p *parser) defStmt() (Stmt, error) {
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	name, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}

	var params []string

	seen := make(map[string]bool)

	for p.tok.Kind != RParen {
		param := p.tok
		if param.Kind != Ident {
			return nil, p.unexpected("parameter name", `")"`)
		}

		if seen[param.Lit] {
			return nil, ErrSyntax.
				Detailf("duplicate parameter %q in function %q", param.Lit, name.Lit).
				At(param.Pos)
		}

		seen[param.Lit] = true
		params = append(params, param.Lit)

		if err := p.next(); err != nil {
			return nil, err
		}

		if p.tok.Kind != Comma {
			break
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}

	// A function body starts outside any loop.
	loops := p.loopDepth
	p.loopDepth = 0
	p.funcDepth++

	body, err := p.block()

	p.funcDepth--
	p.loopDepth = loops

	if err != nil {
		return nil, err
	}

	return &FunctionDef{At: pos, Name: name.Lit, Params: params, Body: body}, nil
}

func (p *parser) expr() (Expr, error) { return p.binary(precOr) }

// binary parses an expression whose operators bind at least as tightly as
// minPrec. Operators are left-associative except "**", whose right operand
// is a unary expression that may itself contain "**".
func (p *parser) binary(minPrec int) (Expr, error) {
	defer func(n int) { p.nest = n }(p.nest)

	if err := p.enter(); err != nil {
		return nil, err
	}

	left, err := p.unary(minPrec)
	if err != nil {
		return nil, err
	}

	for {
		prec := precedence(p.tok.Kind)
		if prec == precNone || prec < minPrec {
			return left, nil
		}

		if err := p.enter(); err != nil {
			return nil, err
		}

		op := binaryOps[p.tok.Kind]
		pos := p.tok.Pos

		if err := p.next(); err != nil {
			return nil, err
		}

		next := prec + 1
		if prec == precPower {
			next = precUnary
		}

		right, err := p.binary(next)
		if err != nil {
			return nil, err
		}

		left = &BinaryOp{At: pos, Op: op, Left: left, Right: right}
	}
}

func (p *parser) unary(minPrec int) (Expr, error) {
	pos := p.tok.Pos

	var (
		op   Op
		prec int
	)

	switch p.tok.Kind {
	case KeywordNot:
		op, prec = OpNot, precNot
	case Minus:
		op, prec = OpNeg, precUnary
	case Plus:
		op, prec = OpPos, precUnary
	default:
		return p.postfix()
	}

	if minPrec > prec {
		return nil, p.unexpected("expression")
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	operand, err := p.binary(prec)
	if err != nil {
		return nil, err
	}

	return &UnaryOp{At: pos, Op: op, Operand: operand}, nil
}

// postfix parses a primary expression followed by any number of calls.
func (p *parser) postfix() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	defer func(n int) { p.nest = n }(p.nest)

	for p.tok.Kind == LParen {
		if err := p.enter(); err != nil {
			return nil, err
		}

		call := &Call{At: p.tok.Pos, Callee: expr}

		if err := p.next(); err != nil {
			return nil, err
		}

		for p.tok.Kind != RParen {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}

			call.Args = append(call.Args, arg)

			if p.tok.Kind != Comma {
				break
			}

			if err := p.next(); err != nil {
				return nil, err
			}
		}

		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}

		expr = call
	}

	return expr, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.tok

	var lit Value

	switch t.Kind {
	case IntLit:
		i, err := strconv.ParseInt(t.Lit, 10, 64)
		if err != nil {
			return nil, ErrInvalidNumber.Detailf("%s", t.Lit).At(t.Pos).Wrap(err)
		}

		lit = Int(i)

	case FloatLit:
		// Range errors still yield the correctly rounded ±Inf or 0.
		f, _ := strconv.ParseFloat(t.Lit, 64)
		lit = Float(f)

	case StringLit:
		lit = String(t.Lit)

	case KeywordTrue:
		lit = Bool(true)

	case KeywordFalse:
		lit = Bool(false)

	case KeywordNone:
		lit = None()

	case Ident:
		return &Variable{At: t.Pos, Name: t.Lit}, p.next()

	case LParen:
		if err := p.next(); err != nil {
			return nil, err
		}

		e, err := p.expr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}

		return e, nil

	default:
		return nil, p.unexpected("expression")
	}

	return &Literal{At: t.Pos, Value: lit}, p.next()
}
