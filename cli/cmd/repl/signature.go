package repl

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/minipy/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument list contains the cursor.
type functionCall struct {
	name     string
	argIndex int // 0-based index of the argument under the cursor
	inCall   bool
}

// detectFunctionCall reports whether the cursor is inside the argument list
// of a call to a named function, and if so which argument it is in.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	if inString(input, cursor) {
		return functionCall{}
	}

	// Find the unmatched '(' nearest to the left of the cursor.
	open := -1
	depth := 0

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		if inString(input, i) {
			continue
		}

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	name, start, _ := wordBounds(input, open)
	if name == "" || start+len(name) != open {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for i, r := range input[open+1 : cursor] {
		if inString(input, open+1+i) {
			continue
		}

		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// paramNames returns the names shown for fn's parameters. A variadic builtin
// has a single "..." parameter.
func paramNames(fn *lang.Function) []string {
	if !fn.IsBuiltin() {
		return fn.Params
	}

	if fn.Arity() < 0 {
		return []string{"..."}
	}

	names := make([]string, fn.Arity())
	for i := range names {
		names[i] = "arg" + strconv.Itoa(i+1)
	}

	return names
}

// getSignature returns the signature and parameter names of the function
// bound to name in env, or the empty string if name is not a function.
func getSignature(env *lang.Env, name string) (signature string, params []string) {
	v, ok := env.Get(name)
	if !ok {
		return "", nil
	}

	fn, ok := v.AsFunction()
	if !ok {
		return "", nil
	}

	return fn.Signature(), paramNames(fn)
}

// renderSignatureHint renders a signature of the form "name(p1, p2)" with the
// parameter at currentArgIdx highlighted. A "..." parameter is highlighted
// for every index at or beyond its own.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.IndexByte(signature, '(')
	if openParen < 0 || !strings.HasSuffix(signature, ")") {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(signature[:openParen]))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if currentArgIdx == i || (variadic && currentArgIdx > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
