package lang

import "strconv"

// Position identifies a location in source text.
type Position struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
	Column int // column number in runes, starting at 1
}

// String returns the position formatted as "line L, column C".
func (p Position) String() string {
	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}

// Kind identifies the lexical class of a [Token].
type Kind uint8

const (
	KindInvalid Kind = iota

	EOF
	Newline
	Indent
	Dedent

	Ident
	IntLit
	FloatLit
	StringLit

	keywordBegin
	KeywordDef
	KeywordReturn
	KeywordIf
	KeywordElif
	KeywordElse
	KeywordWhile
	KeywordBreak
	KeywordContinue
	KeywordPass
	KeywordAssert
	KeywordAnd
	KeywordOr
	KeywordNot
	KeywordTrue
	KeywordFalse
	KeywordNone
	keywordEnd

	operatorBegin
	Plus
	Minus
	Star
	Slash
	DoubleSlash
	Percent
	DoubleStar
	EqEq
	NotEq
	Less
	Greater
	LessEq
	GreaterEq
	Equals
	PlusEq
	MinusEq
	StarEq
	SlashEq
	DoubleSlashEq
	PercentEq
	DoubleStarEq
	operatorEnd

	LParen
	RParen
	Colon
	Comma
)

var kindText = [...]string{
	KindInvalid: "invalid",
	EOF:         "end of input",
	Newline:     "newline",
	Indent:      "indent",
	Dedent:      "dedent",
	Ident:       "identifier",
	IntLit:      "integer",
	FloatLit:    "float",
	StringLit:   "string",

	KeywordDef:      "def",
	KeywordReturn:   "return",
	KeywordIf:       "if",
	KeywordElif:     "elif",
	KeywordElse:     "else",
	KeywordWhile:    "while",
	KeywordBreak:    "break",
	KeywordContinue: "continue",
	KeywordPass:     "pass",
	KeywordAssert:   "assert",
	KeywordAnd:      "and",
	KeywordOr:       "or",
	KeywordNot:      "not",
	KeywordTrue:     "True",
	KeywordFalse:    "False",
	KeywordNone:     "None",

	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	DoubleSlash:   "//",
	Percent:       "%",
	DoubleStar:    "**",
	EqEq:          "==",
	NotEq:         "!=",
	Less:          "<",
	Greater:       ">",
	LessEq:        "<=",
	GreaterEq:     ">=",
	Equals:        "=",
	PlusEq:        "+=",
	MinusEq:       "-=",
	StarEq:        "*=",
	SlashEq:       "/=",
	DoubleSlashEq: "//=",
	PercentEq:     "%=",
	DoubleStarEq:  "**=",

	LParen: "(",
	RParen: ")",
	Colon:  ":",
	Comma:  ",",
}

// String returns the keyword or operator text for fixed tokens and a
// descriptive name for the others.
func (k Kind) String() string {
	if int(k) < len(kindText) && kindText[k] != "" {
		return kindText[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k > keywordBegin && k < keywordEnd }

// IsOperator reports whether k is an arithmetic, comparison or assignment
// operator.
func (k Kind) IsOperator() bool { return k > operatorBegin && k < operatorEnd }

// keywords maps reserved words to their kinds.
var keywords = func() map[string]Kind {
	m := make(map[string]Kind, keywordEnd-keywordBegin)
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		m[kindText[k]] = k
	}

	return m
}()

// Keywords returns the reserved words in declaration order.
func Keywords() []string {
	words := make([]string, 0, keywordEnd-keywordBegin-1)
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		words = append(words, kindText[k])
	}

	return words
}

// augmented maps compound assignment operators to the binary operator they
// apply.
var augmented = map[Kind]Kind{
	PlusEq:        Plus,
	MinusEq:       Minus,
	StarEq:        Star,
	SlashEq:       Slash,
	DoubleSlashEq: DoubleSlash,
	PercentEq:     Percent,
	DoubleStarEq:  DoubleStar,
}

// Token is a lexical unit of source text.
type Token struct {
	Kind Kind
	Lit  string // decoded literal for identifiers, numbers and strings
	Pos  Position
}

// String returns a compact description of t such as "identifier x".
func (t Token) String() string {
	switch t.Kind {
	case Ident, IntLit, FloatLit:
		return t.Kind.String() + " " + t.Lit
	case StringLit:
		return t.Kind.String() + " " + strconv.Quote(t.Lit)
	default:
		return t.Kind.String()
	}
}

// describe names t for error messages, quoting fixed-text tokens.
func (t Token) describe() string {
	switch {
	case t.Kind.IsKeyword(), t.Kind.IsOperator(), t.Kind >= LParen:
		return strconv.Quote(t.Kind.String())
	default:
		return t.String()
	}
}
