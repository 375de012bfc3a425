package lang

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ardnew/minipy/log"
)

// maxFrames bounds the nesting of expression evaluations and blocks across
// all active calls, keeping deep expressions inside deep recursion within the
// goroutine stack.
const maxFrames = 1 << 17

// flow tells a statement's caller how control leaves it.
type flow uint8

const (
	flowNext flow = iota
	flowReturn
	flowBreak
	flowContinue
)

// Interpreter evaluates programs against a persistent global scope.
//
// Globals defined by one call to [Interpreter.Exec] remain visible to the
// next. An Interpreter is not safe for concurrent use; separate interpreters
// may run concurrently.
type Interpreter struct {
	builtins *Env
	globals  *Env
	print    PrintFunc
	maxDepth int
	depth    int
	frames   int
	logger   log.Logger
}

// New returns an Interpreter whose global scope holds the builtins and any
// globals given with [WithGlobals].
func New(opts ...Option) *Interpreter {
	cfg := makeConfig(opts...)

	in := &Interpreter{
		builtins: NewEnv(nil),
		print:    cfg.print,
		maxDepth: cfg.maxDepth,
		logger:   cfg.logger,
	}

	in.builtins.Define("print", NewBuiltin("print", -1, in.builtinPrint))
	in.builtins.sealed = true
	in.globals = NewEnv(in.builtins)

	for name, v := range cfg.globals {
		in.globals.Define(name, v)
	}

	return in
}

// Run parses and evaluates src in a new interpreter. It returns the value of
// the final statement if that statement is an expression, and None
// otherwise.
func Run(ctx context.Context, src string, opts ...Option) (Value, error) {
	return New(opts...).Exec(ctx, src)
}

// Builtins returns the names of the builtin functions.
func Builtins() []string {
	return New(WithPrint(func(context.Context, ...Value) error { return nil })).
		builtins.Local()
}

// Globals returns the global scope.
func (in *Interpreter) Globals() *Env { return in.globals }

// Exec parses src, using the parse cache, and evaluates it.
func (in *Interpreter) Exec(ctx context.Context, src string) (Value, error) {
	prog, err := parseCached(ctx, src, in.logger)
	if err != nil {
		return None(), err
	}

	return in.Eval(ctx, prog)
}

// Eval evaluates a parsed program in the global scope.
func (in *Interpreter) Eval(ctx context.Context, prog *Program) (Value, error) {
	start := time.Now()
	stmts := prog.Statements()
	result := None()

	for i, s := range stmts {
		if es, ok := s.(*ExprStatement); ok && i == len(stmts)-1 {
			v, err := in.eval(ctx, es.Expr, in.globals)
			if err != nil {
				return None(), err
			}

			result = v

			break
		}

		if _, _, err := in.exec(ctx, s, in.globals); err != nil {
			return None(), err
		}
	}

	in.logger.TraceContext(ctx, "exec complete",
		slog.Int("statements", len(stmts)),
		slog.Duration("elapsed", time.Since(start)),
		slog.Any("result", result),
	)

	return result, nil
}

// Call invokes the global function name with args.
func (in *Interpreter) Call(
	ctx context.Context,
	name string,
	args ...Value,
) (Value, error) {
	v, ok := in.globals.Get(name)
	if !ok {
		return None(), ErrUndefinedName.Detailf("name %q is not defined", name)
	}

	fn, ok := v.AsFunction()
	if !ok {
		return None(), ErrNotCallable.
			Detailf("'%s' object is not callable", v.Type())
	}

	return in.apply(ctx, fn, args, Position{})
}

// located attaches pos to err if err does not already carry a position.
func located(err error, pos Position) error {
	var e *Error
	if errors.As(err, &e) {
		return e.At(pos)
	}

	return ErrRuntime.Wrap(err).At(pos)
}

// poll reports cancellation of ctx as an interruption.
func poll(ctx context.Context, pos Position) error {
	if ctx.Err() == nil {
		return nil
	}

	return ErrInterrupted.Wrap(context.Cause(ctx)).At(pos)
}

// enter reserves a frame for a nested evaluation at pos. The caller releases
// it by decrementing in.frames.
func (in *Interpreter) enter(pos Position) error {
	if in.frames >= maxFrames {
		return ErrStackOverflow.
			Detailf("more than %d nested evaluations", maxFrames).
			At(pos)
	}

	in.frames++

	return nil
}

func (in *Interpreter) execBlock(
	ctx context.Context,
	b *Block,
	env *Env,
) (flow, Value, error) {
	if err := in.enter(b.At); err != nil {
		return flowNext, None(), err
	}

	defer func() { in.frames-- }()

	for _, s := range b.Statements {
		f, v, err := in.exec(ctx, s, env)
		if err != nil || f != flowNext {
			return f, v, err
		}
	}

	return flowNext, None(), nil
}

func (in *Interpreter) exec(
	ctx context.Context,
	s Stmt,
	env *Env,
) (flow, Value, error) {
	switch n := s.(type) {
	case *ExprStatement:
		_, err := in.eval(ctx, n.Expr, env)

		return flowNext, None(), err

	case *Assign:
		v, err := in.eval(ctx, n.Value, env)
		if err != nil {
			return flowNext, None(), err
		}

		for _, name := range n.Targets {
			env.Set(name, v)
		}

	case *CompoundAssign:
		cur, ok := env.Get(n.Name)
		if !ok {
			return flowNext, None(), ErrUndefinedName.
				Detailf("name %q is not defined", n.Name).
				At(n.At)
		}

		rhs, err := in.eval(ctx, n.Value, env)
		if err != nil {
			return flowNext, None(), err
		}

		v, err := binary(n.Op, cur, rhs)
		if err != nil {
			return flowNext, None(), located(err, n.At)
		}

		env.Set(n.Name, v)

	case *If:
		for _, clause := range n.Clauses {
			cond, err := in.eval(ctx, clause.Cond, env)
			if err != nil {
				return flowNext, None(), err
			}

			if cond.Truthy() {
				return in.execBlock(ctx, clause.Body, env)
			}
		}

		if n.Else != nil {
			return in.execBlock(ctx, n.Else, env)
		}

	case *While:
		return in.loop(ctx, n, env)

	case *FunctionDef:
		env.Define(n.Name, Func(&Function{
			Name:   n.Name,
			Params: n.Params,
			Body:   n.Body,
			Env:    env,
		}))

	case *Return:
		if n.Value == nil {
			return flowReturn, None(), nil
		}

		v, err := in.eval(ctx, n.Value, env)
		if err != nil {
			return flowNext, None(), err
		}

		return flowReturn, v, nil

	case *Assert:
		cond, err := in.eval(ctx, n.Cond, env)
		if err != nil || cond.Truthy() {
			return flowNext, None(), err
		}

		fail := ErrAssertionFailed
		if n.Msg != nil {
			msg, err := in.eval(ctx, n.Msg, env)
			if err != nil {
				return flowNext, None(), err
			}

			fail = fail.Detailf("%s", msg.String())
		}

		return flowNext, None(), fail.At(n.At)

	case *Break:
		return flowBreak, None(), nil

	case *Continue:
		return flowContinue, None(), nil

	case *Pass:

	case *Block:
		return in.execBlock(ctx, n, env)

	default:
		return flowNext, None(), ErrRuntime.
			Detailf("unknown statement %T", s).
			At(s.Pos())
	}

	return flowNext, None(), nil
}

func (in *Interpreter) loop(
	ctx context.Context,
	n *While,
	env *Env,
) (flow, Value, error) {
	for {
		if err := poll(ctx, n.At); err != nil {
			return flowNext, None(), err
		}

		cond, err := in.eval(ctx, n.Cond, env)
		if err != nil {
			return flowNext, None(), err
		}

		if !cond.Truthy() {
			return flowNext, None(), nil
		}

		f, v, err := in.execBlock(ctx, n.Body, env)
		if err != nil {
			return flowNext, None(), err
		}

		switch f {
		case flowBreak:
			return flowNext, None(), nil
		case flowReturn:
			return f, v, nil
		}
	}
}

func (in *Interpreter) eval(ctx context.Context, e Expr, env *Env) (Value, error) {
	if err := in.enter(e.Pos()); err != nil {
		return None(), err
	}

	defer func() { in.frames-- }()

	switch n := e.(type) {
	case *Literal:
		return n.Value, nil

	case *Variable:
		if v, ok := env.Get(n.Name); ok {
			return v, nil
		}

		return None(), ErrUndefinedName.
			Detailf("name %q is not defined", n.Name).
			At(n.At)

	case *BinaryOp:
		l, err := in.eval(ctx, n.Left, env)
		if err != nil {
			return None(), err
		}

		switch n.Op {
		case OpAnd:
			if !l.Truthy() {
				return l, nil
			}

			return in.eval(ctx, n.Right, env)

		case OpOr:
			if l.Truthy() {
				return l, nil
			}

			return in.eval(ctx, n.Right, env)
		}

		r, err := in.eval(ctx, n.Right, env)
		if err != nil {
			return None(), err
		}

		v, err := binary(n.Op, l, r)
		if err != nil {
			return None(), located(err, n.At)
		}

		return v, nil

	case *UnaryOp:
		operand, err := in.eval(ctx, n.Operand, env)
		if err != nil {
			return None(), err
		}

		v, err := unary(n.Op, operand)
		if err != nil {
			return None(), located(err, n.At)
		}

		return v, nil

	case *Call:
		return in.call(ctx, n, env)

	default:
		return None(), ErrRuntime.
			Detailf("unknown expression %T", e).
			At(e.Pos())
	}
}

func (in *Interpreter) call(ctx context.Context, n *Call, env *Env) (Value, error) {
	callee, err := in.eval(ctx, n.Callee, env)
	if err != nil {
		return None(), err
	}

	fn, ok := callee.AsFunction()
	if !ok {
		return None(), ErrNotCallable.
			Detailf("'%s' object is not callable", callee.Type()).
			At(n.At)
	}

	args := make([]Value, len(n.Args))

	for i, arg := range n.Args {
		if args[i], err = in.eval(ctx, arg, env); err != nil {
			return None(), err
		}
	}

	return in.apply(ctx, fn, args, n.At)
}

// apply calls fn with already evaluated arguments.
func (in *Interpreter) apply(
	ctx context.Context,
	fn *Function,
	args []Value,
	pos Position,
) (Value, error) {
	if err := poll(ctx, pos); err != nil {
		return None(), err
	}

	if arity := fn.Arity(); arity >= 0 && arity != len(args) {
		return None(), ErrArityMismatch.
			Detailf("%s() takes %d arguments but %d were given",
				fn.Name, arity, len(args)).
			At(pos)
	}

	if in.depth >= in.maxDepth {
		return None(), ErrStackOverflow.
			Detailf("more than %d nested calls", in.maxDepth).
			At(pos)
	}

	in.depth++
	defer func() { in.depth-- }()

	if in.logger.EnabledAt(ctx, log.LevelTrace) {
		in.logger.TraceContext(ctx, "call enter",
			slog.String("function", fn.Name),
			slog.Int("args", len(args)),
			slog.Int("depth", in.depth),
		)
	}

	if fn.IsBuiltin() {
		v, err := fn.builtin(ctx, args)
		if err != nil {
			return None(), located(err, pos)
		}

		return v, nil
	}

	local := NewEnv(fn.Env)
	for i, param := range fn.Params {
		local.Define(param, args[i])
	}

	f, v, err := in.execBlock(ctx, fn.Body, local)
	if err != nil {
		return None(), err
	}

	if f == flowReturn {
		return v, nil
	}

	return None(), nil
}

func (in *Interpreter) builtinPrint(ctx context.Context, args []Value) (Value, error) {
	if err := in.print(ctx, args...); err != nil {
		return None(), ErrRuntime.Detailf("print failed").Wrap(err)
	}

	return None(), nil
}
