package lang

// Op identifies the operator of a [BinaryOp] or [UnaryOp].
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpEq
	OpNotEq
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpPos
)

var opText = [...]string{
	OpInvalid:   "?",
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpFloorDiv:  "//",
	OpMod:       "%",
	OpPow:       "**",
	OpEq:        "==",
	OpNotEq:     "!=",
	OpLess:      "<",
	OpGreater:   ">",
	OpLessEq:    "<=",
	OpGreaterEq: ">=",
	OpAnd:       "and",
	OpOr:        "or",
	OpNot:       "not",
	OpNeg:       "-",
	OpPos:       "+",
}

// String returns the source spelling of op.
func (op Op) String() string {
	if int(op) < len(opText) {
		return opText[op]
	}

	return opText[OpInvalid]
}

// binaryOps maps operator tokens to binary operators.
var binaryOps = map[Kind]Op{
	Plus:        OpAdd,
	Minus:       OpSub,
	Star:        OpMul,
	Slash:       OpDiv,
	DoubleSlash: OpFloorDiv,
	Percent:     OpMod,
	DoubleStar:  OpPow,
	EqEq:        OpEq,
	NotEq:       OpNotEq,
	Less:        OpLess,
	Greater:     OpGreater,
	LessEq:      OpLessEq,
	GreaterEq:   OpGreaterEq,
	KeywordAnd:  OpAnd,
	KeywordOr:   OpOr,
}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Position
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a parsed source text.
type Program struct {
	Body *Block
}

// Statements returns the top-level statements of p.
func (p *Program) Statements() []Stmt {
	if p == nil || p.Body == nil {
		return nil
	}

	return p.Body.Statements
}

// Pos returns the position of the start of p.
func (p *Program) Pos() Position {
	if p == nil || p.Body == nil {
		return Position{}
	}

	return p.Body.At
}

// Expression nodes.
type (
	// Literal is a constant value: a number, string, True, False or None.
	Literal struct {
		At    Position
		Value Value
	}

	// Variable is a reference to a name.
	Variable struct {
		At   Position
		Name string
	}

	// BinaryOp applies Op to Left and Right. For [OpAnd] and [OpOr], Right is
	// evaluated only when Left does not determine the result.
	BinaryOp struct {
		At    Position
		Op    Op
		Left  Expr
		Right Expr
	}

	// UnaryOp applies Op ([OpNeg], [OpPos] or [OpNot]) to Operand.
	UnaryOp struct {
		At      Position
		Op      Op
		Operand Expr
	}

	// Call invokes Callee with positional Args.
	Call struct {
		At     Position
		Callee Expr
		Args   []Expr
	}
)

// Statement nodes.
type (
	// ExprStatement evaluates an expression for its effect.
	ExprStatement struct {
		At   Position
		Expr Expr
	}

	// Assign binds Value to each of Targets, left to right. A single
	// assignment has one target; "a = b = 0" has two.
	Assign struct {
		At      Position
		Targets []string
		Value   Expr
	}

	// CompoundAssign rebinds Name to "Name Op Value".
	CompoundAssign struct {
		At    Position
		Name  string
		Op    Op
		Value Expr
	}

	// If runs the body of the first clause whose condition is truthy, or Else
	// when none is.
	If struct {
		At      Position
		Clauses []IfClause
		Else    *Block // nil when absent
	}

	// While runs Body as long as Cond is truthy.
	While struct {
		At   Position
		Cond Expr
		Body *Block
	}

	// FunctionDef binds Name to a function in the current scope.
	FunctionDef struct {
		At     Position
		Name   string
		Params []string
		Body   *Block
	}

	// Return leaves the enclosing function. Value is nil for a bare return.
	Return struct {
		At    Position
		Value Expr
	}

	// Assert fails when Cond is falsy. Msg is nil when absent.
	Assert struct {
		At   Position
		Cond Expr
		Msg  Expr
	}

	// Break leaves the innermost loop.
	Break struct{ At Position }

	// Continue starts the next iteration of the innermost loop.
	Continue struct{ At Position }

	// Pass does nothing.
	Pass struct{ At Position }

	// Block is a sequence of statements.
	Block struct {
		At         Position
		Statements []Stmt
	}
)

// IfClause is one "if" or "elif" branch.
type IfClause struct {
	Cond Expr
	Body *Block
}

func (n *Literal) Pos() Position        { return n.At }
func (n *Variable) Pos() Position       { return n.At }
func (n *BinaryOp) Pos() Position       { return n.At }
func (n *UnaryOp) Pos() Position        { return n.At }
func (n *Call) Pos() Position           { return n.At }
func (n *ExprStatement) Pos() Position  { return n.At }
func (n *Assign) Pos() Position         { return n.At }
func (n *CompoundAssign) Pos() Position { return n.At }
func (n *If) Pos() Position             { return n.At }
func (n *While) Pos() Position          { return n.At }
func (n *FunctionDef) Pos() Position    { return n.At }
func (n *Return) Pos() Position         { return n.At }
func (n *Assert) Pos() Position         { return n.At }
func (n *Break) Pos() Position          { return n.At }
func (n *Continue) Pos() Position       { return n.At }
func (n *Pass) Pos() Position           { return n.At }
func (n *Block) Pos() Position          { return n.At }

func (*Literal) exprNode()  {}
func (*Variable) exprNode() {}
func (*BinaryOp) exprNode() {}
func (*UnaryOp) exprNode()  {}
func (*Call) exprNode()     {}

func (*ExprStatement) stmtNode()  {}
func (*Assign) stmtNode()         {}
func (*CompoundAssign) stmtNode() {}
func (*If) stmtNode()             {}
func (*While) stmtNode()          {}
func (*FunctionDef) stmtNode()    {}
func (*Return) stmtNode()         {}
func (*Assert) stmtNode()         {}
func (*Break) stmtNode()          {}
func (*Continue) stmtNode()       {}
func (*Pass) stmtNode()           {}
func (*Block) stmtNode()          {}
