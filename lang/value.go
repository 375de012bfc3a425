package lang

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Type is the runtime type tag of a [Value].
type Type uint8

const (
	TypeNone Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeFunction
)

// String returns the name a script would see for t.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "NoneType"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	case TypeFunction:
		return "function"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is an immutable interpreter value. The zero Value is None.
type Value struct {
	typ Type
	i   int64 // int payload, or 0/1 for bool
	f   float64
	s   string
	fn  *Function
}

// None returns the None value.
func None() Value { return Value{} }

// Int returns an int value.
func Int(i int64) Value { return Value{typ: TypeInt, i: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{typ: TypeFloat, f: f} }

// String returns a str value.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// Bool returns a bool value.
func Bool(b bool) Value {
	v := Value{typ: TypeBool}
	if b {
		v.i = 1
	}

	return v
}

// Func returns a function value.
func Func(fn *Function) Value {
	if fn == nil {
		return None()
	}

	return Value{typ: TypeFunction, fn: fn}
}

// Type returns the type tag of v.
func (v Value) Type() Type { return v.typ }

// IsNone reports whether v is None.
func (v Value) IsNone() bool { return v.typ == TypeNone }

// AsInt returns the payload of an int value.
func (v Value) AsInt() (int64, bool) { return v.i, v.typ == TypeInt }

// AsFloat returns the payload of a float value.
func (v Value) AsFloat() (float64, bool) { return v.f, v.typ == TypeFloat }

// AsBool returns the payload of a bool value.
func (v Value) AsBool() (bool, bool) { return v.i != 0, v.typ == TypeBool }

// AsString returns the payload of a str value.
func (v Value) AsString() (string, bool) { return v.s, v.typ == TypeString }

// AsFunction returns the payload of a function value.
func (v Value) AsFunction() (*Function, bool) { return v.fn, v.typ == TypeFunction }

// Number returns v as a float64 if it is an int or a float.
func (v Value) Number() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.i), true
	case TypeFloat:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) isNumber() bool { return v.typ == TypeInt || v.typ == TypeFloat }

// Truthy reports whether v counts as true in a condition. Zero numbers, the
// empty string, None and False are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeNone:
		return false
	case TypeBool, TypeInt:
		return v.i != 0
	case TypeFloat:
		return v.f != 0
	case TypeString:
		return v.s != ""
	default:
		return true
	}
}

// Equal reports whether v == o. Ints and floats compare by numeric value;
// other values are equal only when their types match and their payloads are
// equal. Functions compare by identity.
func (v Value) Equal(o Value) bool {
	if v.isNumber() && o.isNumber() {
		if v.typ == TypeInt && o.typ == TypeInt {
			return v.i == o.i
		}

		a, _ := v.Number()
		b, _ := o.Number()

		return a == b
	}

	if v.typ != o.typ {
		return false
	}

	switch v.typ {
	case TypeNone:
		return true
	case TypeBool:
		return v.i == o.i
	case TypeString:
		return v.s == o.s
	case TypeFunction:
		return v.fn == o.fn
	default:
		return false
	}
}

// String returns the form print writes for v.
func (v Value) String() string {
	switch v.typ {
	case TypeNone:
		return "None"
	case TypeBool:
		if v.i != 0 {
			return "True"
		}

		return "False"
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return formatFloat(v.f)
	case TypeString:
		return v.s
	case TypeFunction:
		return "<function " + v.fn.Name + ">"
	default:
		return "<" + v.typ.String() + ">"
	}
}

// Repr returns the form the REPL echoes for v. It differs from [Value.String]
// only for strings, which are quoted.
func (v Value) Repr() string {
	if v.typ != TypeString {
		return v.String()
	}

	return quote(v.s)
}

// LogValue implements slog.LogValuer.
func (v Value) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", v.typ.String()),
		slog.String("value", v.Repr()),
	)
}

// Native converts v to a plain Go value: nil, bool, int64, float64, string,
// or *Function.
func (v Value) Native() any {
	switch v.typ {
	case TypeBool:
		return v.i != 0
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeString:
		return v.s
	case TypeFunction:
		return v.fn
	default:
		return nil
	}
}

// FromNative converts a Go value to a Value. Supported inputs are nil, bool,
// every integer and float kind, string, *Function and Value itself.
func FromNative(x any) (Value, error) {
	switch n := x.(type) {
	case nil:
		return None(), nil
	case Value:
		return n, nil
	case *Function:
		return Func(n), nil
	case bool:
		return Bool(n), nil
	case string:
		return String(n), nil
	case int:
		return Int(int64(n)), nil
	case int8:
		return Int(int64(n)), nil
	case int16:
		return Int(int64(n)), nil
	case int32:
		return Int(int64(n)), nil
	case int64:
		return Int(n), nil
	case uint:
		return fromUint(uint64(n))
	case uint8:
		return Int(int64(n)), nil
	case uint16:
		return Int(int64(n)), nil
	case uint32:
		return Int(int64(n)), nil
	case uint64:
		return fromUint(n)
	case float32:
		return Float(float64(n)), nil
	case float64:
		return Float(n), nil
	default:
		return None(), ErrTypeMismatch.Detailf("cannot convert %T to a value", x)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return None(), ErrTypeMismatch.
			Detailf("%d exceeds the 64-bit integer range", u)
	}

	return Int(int64(u)), nil
}

// formatFloat renders f the way Python's repr does for the common cases:
// a trailing ".0" for integral values, and exponent notation for very large
// or very small magnitudes.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	if abs := math.Abs(f); abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}

// quote renders s as a string literal. Single quotes are preferred; double
// quotes are used when s contains a single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}

	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte(q)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case q:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}

	sb.WriteByte(q)

	return sb.String()
}

// BuiltinFunc is the Go implementation of a builtin function.
type BuiltinFunc func(ctx context.Context, args []Value) (Value, error)

// Function is a callable value: either a user function closing over the
// environment it was defined in, or a builtin implemented in Go.
type Function struct {
	Name   string
	Params []string
	Body   *Block
	Env    *Env

	arity   int
	builtin BuiltinFunc
}

// NewBuiltin returns a function value implemented by fn. An arity of -1
// accepts any number of arguments.
func NewBuiltin(name string, arity int, fn BuiltinFunc) Value {
	return Func(&Function{Name: name, arity: arity, builtin: fn})
}

// IsBuiltin reports whether f is implemented in Go.
func (f *Function) IsBuiltin() bool { return f.builtin != nil }

// Arity returns the number of parameters f accepts, or -1 if it is variadic.
func (f *Function) Arity() int {
	if f.builtin != nil {
		return f.arity
	}

	return len(f.Params)
}

// Signature returns f's name and parameters as they would appear in a call,
// for example "add(a, b)" or "print(...)".
func (f *Function) Signature() string {
	if f.builtin != nil && f.arity < 0 {
		return f.Name + "(...)"
	}

	params := f.Params
	if f.builtin != nil {
		params = make([]string, f.arity)
		for i := range params {
			params[i] = "arg" + strconv.Itoa(i+1)
		}
	}

	return f.Name + "(" + strings.Join(params, ", ") + ")"
}
