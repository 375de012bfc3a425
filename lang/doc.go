// Package lang implements MiniPython, a small dynamically-typed scripting
// language with Python's indentation-based block structure.
//
// Source text flows through three stages:
//
//	Lexer → Parser → Interpreter
//
// The [Lexer] produces tokens on demand, including the Indent and Dedent
// tokens that delimit blocks. The parser builds an immutable syntax tree
// rooted at a [Program]. The [Interpreter] walks that tree against a chain of
// [Env] scopes.
//
// # Grammar
//
// Informal EBNF:
//
//	program    → (NEWLINE | statement)* EOF
//	statement  → if | while | def | simple NEWLINE
//	simple     → 'return' expr? | 'assert' expr (',' expr)?
//	           | 'break' | 'continue' | 'pass'
//	           | IDENT ('=' IDENT)* '=' expr
//	           | IDENT augop expr
//	           | expr
//	block      → ':' NEWLINE INDENT statement+ DEDENT | ':' simple NEWLINE
//	if         → 'if' expr block ('elif' expr block)* ('else' block)?
//	while      → 'while' expr block
//	def        → 'def' IDENT '(' (IDENT (',' IDENT)*)? ')' block
//
// Operators, loosest first: or, and, not, comparisons, + -, * / // %, unary
// + -, and **. Comparisons do not chain: a < b < c means (a < b) < c. The
// power operator is right-associative and binds tighter than a unary minus
// on its left, so -2 ** 2 is -4.
//
// # Values
//
// A [Value] is one of None, bool, int, float, str or function. Ints are
// 64-bit and wrap on overflow. Arithmetic mixing an int and a float yields a
// float, "/" always yields a float, and "//" and "%" floor toward negative
// infinity. Bools are not numbers.
//
// # Scoping
//
// Each function call runs in a new scope enclosed by the scope the function
// was defined in. Assigning to a name rebinds it in the nearest scope that
// already defines it, or defines it in the current scope otherwise. The
// search never reaches the builtins, so assigning to print shadows it. Blocks
// of if and while statements do not introduce scopes.
//
// # Limits
//
// Function calls nest at most [DefaultMaxDepth] deep unless [WithMaxDepth]
// says otherwise, and never more than [MaxDepthLimit]. Expressions and blocks
// nest at most 1000 levels in source text. Exceeding a limit is an error
// ([ErrStackOverflow] or [ErrTooDeep]) rather than a crash of the host.
//
// # Example
//
//	def fib(n):
//	    if n < 2:
//	        return n
//	    return fib(n - 1) + fib(n - 2)
//
//	assert fib(10) == 55, "fib is broken"
//	print("fib(20) =", fib(20))
//
// # Errors
//
// Every error is a [*Error] that matches its specific sentinel and one of
// [ErrLex], [ErrParse] or [ErrRuntime] with [errors.Is]. Errors carry the
// source position where they occurred; [FormatError] renders them with the
// offending line.
package lang
