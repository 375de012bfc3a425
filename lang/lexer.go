package lang

import (
	"errors"
	"iter"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tabWidth is the column multiple a tab advances indentation to.
const tabWidth = 8

// Lexer converts source text into a stream of tokens on demand.
//
// Indentation is tracked with a stack of widths: a line indented deeper than
// the top of the stack produces an [Indent] token, and a shallower line
// produces one [Dedent] per level closed. Blank and comment-only lines never
// affect indentation, and newlines inside parentheses are ignored.
//
// A Lexer is single-use: once it has returned [EOF] it keeps returning EOF,
// and once it has returned an error it keeps returning that error.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int

	indents []int
	pending []Token

	depth       int  // open parentheses
	lineStart   bool // at the first character of a logical line
	lineHasToks bool // current logical line produced a token
	done        bool
	err         error
}

// NewLexer returns a Lexer reading from src.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:       src,
		line:      1,
		col:       1,
		indents:   []int{0},
		lineStart: true,
	}
}

// Tokenize returns every token of src, ending with [EOF].
func Tokenize(src string) ([]Token, error) {
	var toks []Token

	for t, err := range NewLexer(src).All() {
		if err != nil {
			return toks, err
		}

		toks = append(toks, t)
	}

	return toks, nil
}

// All returns an iterator over the remaining tokens. Iteration stops after
// [EOF] or the first error.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			t, err := l.Next()
			if !yield(t, err) || err != nil || t.Kind == EOF {
				return
			}
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}

	for len(l.pending) == 0 {
		if err := l.scan(); err != nil {
			l.err = err

			return Token{}, err
		}
	}

	t := l.pending[0]
	l.pending = l.pending[1:]

	return t, nil
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}

	return 0
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func (l *Lexer) emit(kind Kind, lit string, pos Position) {
	l.pending = append(l.pending, Token{Kind: kind, Lit: lit, Pos: pos})

	switch kind {
	case Newline, Indent, Dedent, EOF:
	default:
		l.lineHasToks = true
	}
}

// scan queues zero or more tokens.
func (l *Lexer) scan() error {
	if l.done {
		l.emit(EOF, "", l.position())

		return nil
	}

	if l.lineStart && l.depth == 0 {
		if err := l.indentation(); err != nil {
			return err
		}
	}

	l.skipSpace()

	pos := l.position()

	if l.pos >= len(l.src) {
		l.finish(pos)

		return nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case r == '\n':
		l.advance()

		if l.depth > 0 {
			return nil
		}

		if l.lineHasToks {
			l.emit(Newline, "", pos)
		}

		l.lineHasToks = false
		l.lineStart = true

		return nil

	case r == '_' || unicode.IsLetter(r):
		l.identifier(pos)

		return nil

	case r >= '0' && r <= '9':
		return l.number(pos)

	case r == '"' || r == '\'':
		return l.quoted(pos)
	}

	return l.operator(pos)
}

// indentation measures the leading whitespace of a line and queues the
// Indent or Dedent tokens it implies.
func (l *Lexer) indentation() error {
	width := 0

measure:
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		case '\f':
			width = 0
		default:
			break measure
		}

		l.advance()
	}

	// Blank and comment-only lines leave the indentation alone.
	switch l.peekByte(0) {
	case 0, '\n', '\r', '#':
		return nil
	}

	l.lineStart = false

	pos := l.position()
	top := l.indents[len(l.indents)-1]

	if width > top {
		l.indents = append(l.indents, width)
		l.emit(Indent, "", pos)

		return nil
	}

	for width < top {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(Dedent, "", pos)
		top = l.indents[len(l.indents)-1]
	}

	if width != top {
		return ErrIndentation.
			Detailf("unindent to column %d matches no outer level", width+1).
			At(pos)
	}

	return nil
}

// skipSpace skips blanks, comments and backslash line continuations.
func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			l.advance()

		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}

		case c == '\\' && l.peekByte(1) == '\n':
			l.advance()
			l.advance()

		case c == '\\' && l.peekByte(1) == '\r' && l.peekByte(2) == '\n':
			l.advance()
			l.advance()
			l.advance()

		default:
			return
		}
	}
}

// finish queues the tokens that close the input.
func (l *Lexer) finish(pos Position) {
	if l.lineHasToks {
		l.emit(Newline, "", pos)
		l.lineHasToks = false
	}

	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(Dedent, "", pos)
	}

	l.emit(EOF, "", pos)
	l.done = true
}

func (l *Lexer) identifier(pos Position) {
	start := l.pos

	for l.pos < len(l.src) {
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		l.advance()
	}

	word := l.src[start:l.pos]
	if kind, ok := keywords[word]; ok {
		l.emit(kind, word, pos)

		return
	}

	l.emit(Ident, word, pos)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Lexer) digits() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance()
	}
}

func (l *Lexer) number(pos Position) error {
	start := l.pos
	float := false

	l.digits()

	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.advance()
		l.digits()

		float = true
	}

	if c := l.peekByte(0); c == 'e' || c == 'E' {
		sign := l.peekByte(1) == '+' || l.peekByte(1) == '-'

		if isDigit(l.peekByte(1)) || (sign && isDigit(l.peekByte(2))) {
			l.advance()

			if sign {
				l.advance()
			}

			l.digits()

			float = true
		}
	}

	text := l.src[start:l.pos]

	if float {
		// Out-of-range exponents round to ±Inf or 0, as Python does.
		if _, err := strconv.ParseFloat(text, 64); err != nil &&
			!errors.Is(err, strconv.ErrRange) {
			return ErrInvalidNumber.Detailf("%s", text).At(pos).Wrap(err)
		}

		l.emit(FloatLit, text, pos)

		return nil
	}

	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		return ErrInvalidNumber.
			Detailf("%s exceeds the 64-bit integer range", text).
			At(pos)
	}

	l.emit(IntLit, text, pos)

	return nil
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

func (l *Lexer) quoted(pos Position) error {
	quote := l.src[l.pos]
	l.advance()

	var sb strings.Builder

	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return ErrUnterminatedString.At(pos)
		}

		c := l.src[l.pos]

		switch {
		case c == quote:
			l.advance()
			l.emit(StringLit, sb.String(), pos)

			return nil

		case c == '\\':
			next := l.peekByte(1)
			if next == 0 || next == '\n' {
				return ErrUnterminatedString.At(pos)
			}

			l.advance()

			if dec, ok := escapes[next]; ok {
				sb.WriteByte(dec)
				l.advance()
			} else {
				sb.WriteByte('\\')
			}

		default:
			sb.WriteRune(l.advance())
		}
	}
}

// operators lists operator and punctuation spellings, longest first.
var operators = []struct {
	text string
	kind Kind
}{
	{"//=", DoubleSlashEq},
	{"**=", DoubleStarEq},
	{"//", DoubleSlash},
	{"**", DoubleStar},
	{"==", EqEq},
	{"!=", NotEq},
	{"<=", LessEq},
	{">=", GreaterEq},
	{"+=", PlusEq},
	{"-=", MinusEq},
	{"*=", StarEq},
	{"/=", SlashEq},
	{"%=", PercentEq},
	{"+", Plus},
	{"-", Minus},
	{"*", Star},
	{"/", Slash},
	{"%", Percent},
	{"<", Less},
	{">", Greater},
	{"=", Equals},
	{"(", LParen},
	{")", RParen},
	{":", Colon},
	{",", Comma},
}

func (l *Lexer) operator(pos Position) error {
	rest := l.src[l.pos:]

	for _, op := range operators {
		if !strings.HasPrefix(rest, op.text) {
			continue
		}

		for range op.text {
			l.advance()
		}

		switch op.kind {
		case LParen:
			l.depth++
		case RParen:
			if l.depth > 0 {
				l.depth--
			}
		}

		l.emit(op.kind, op.text, pos)

		return nil
	}

	r, _ := utf8.DecodeRuneInString(rest)

	return ErrUnexpectedChar.Detailf("%q", r).At(pos)
}
