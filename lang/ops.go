package lang

import (
	"cmp"
	"math"
	"strings"
)

// maxRepeat bounds the length of a string built by repetition.
const maxRepeat = 1 << 30

func mismatch(op Op, l, r Value) *Error {
	return ErrTypeMismatch.Detailf(
		"unsupported operand types for %s: '%s' and '%s'",
		op, l.Type(), r.Type(),
	)
}

// binary applies a non-short-circuit binary operator.
func binary(op Op, l, r Value) (Value, error) {
	switch op {
	case OpEq:
		return Bool(l.Equal(r)), nil

	case OpNotEq:
		return Bool(!l.Equal(r)), nil

	case OpLess, OpGreater, OpLessEq, OpGreaterEq:
		return compare(op, l, r)

	case OpAdd:
		if l.typ == TypeString && r.typ == TypeString {
			return String(l.s + r.s), nil
		}

	case OpMul:
		switch {
		case l.typ == TypeString && r.typ == TypeInt:
			return repeat(l.s, r.i)
		case l.typ == TypeInt && r.typ == TypeString:
			return repeat(r.s, l.i)
		}
	}

	if !l.isNumber() || !r.isNumber() {
		return None(), mismatch(op, l, r)
	}

	if l.typ == TypeInt && r.typ == TypeInt {
		return intArith(op, l.i, r.i)
	}

	a, _ := l.Number()
	b, _ := r.Number()

	return floatArith(op, a, b)
}

func repeat(s string, n int64) (Value, error) {
	if n <= 0 || s == "" {
		return String(""), nil
	}

	if n > maxRepeat/int64(len(s)) {
		return None(), ErrTooLarge.Detailf("repeated string is too long")
	}

	return String(strings.Repeat(s, int(n))), nil
}

func intArith(op Op, a, b int64) (Value, error) {
	switch op {
	case OpAdd:
		return Int(a + b), nil

	case OpSub:
		return Int(a - b), nil

	case OpMul:
		return Int(a * b), nil

	case OpDiv:
		if b == 0 {
			return None(), ErrDivisionByZero.Detailf("%d %s 0", a, op)
		}

		return Float(float64(a) / float64(b)), nil

	case OpFloorDiv:
		if b == 0 {
			return None(), ErrDivisionByZero.Detailf("%d %s 0", a, op)
		}

		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}

		return Int(q), nil

	case OpMod:
		if b == 0 {
			return None(), ErrDivisionByZero.Detailf("%d %s 0", a, op)
		}

		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}

		return Int(m), nil

	case OpPow:
		if b >= 0 {
			return Int(ipow(a, b)), nil
		}

		if a == 0 {
			return None(), ErrDivisionByZero.
				Detailf("0 cannot be raised to a negative power")
		}

		return Float(math.Pow(float64(a), float64(b))), nil
	}

	return None(), mismatch(op, Int(a), Int(b))
}

// ipow computes a**b by repeated squaring, wrapping on overflow.
func ipow(a, b int64) int64 {
	result := int64(1)

	for b > 0 {
		if b&1 == 1 {
			result *= a
		}

		a *= a
		b >>= 1
	}

	return result
}

func floatArith(op Op, a, b float64) (Value, error) {
	switch op {
	case OpAdd:
		return Float(a + b), nil

	case OpSub:
		return Float(a - b), nil

	case OpMul:
		return Float(a * b), nil

	case OpDiv:
		if b == 0 {
			return None(), ErrDivisionByZero.Detailf("%s %s 0.0", formatFloat(a), op)
		}

		return Float(a / b), nil

	case OpFloorDiv:
		if b == 0 {
			return None(), ErrDivisionByZero.Detailf("%s %s 0.0", formatFloat(a), op)
		}

		return Float(math.Floor(a / b)), nil

	case OpMod:
		if b == 0 {
			return None(), ErrDivisionByZero.Detailf("%s %s 0.0", formatFloat(a), op)
		}

		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}

		return Float(m), nil

	case OpPow:
		if a == 0 && b < 0 {
			return None(), ErrDivisionByZero.
				Detailf("0.0 cannot be raised to a negative power")
		}

		return Float(math.Pow(a, b)), nil
	}

	return None(), mismatch(op, Float(a), Float(b))
}

func compare(op Op, l, r Value) (Value, error) {
	switch {
	case l.typ == TypeInt && r.typ == TypeInt:
		return Bool(ordered(op, l.i, r.i)), nil

	case l.isNumber() && r.isNumber():
		a, _ := l.Number()
		b, _ := r.Number()

		return Bool(ordered(op, a, b)), nil

	case l.typ == TypeString && r.typ == TypeString:
		return Bool(ordered(op, l.s, r.s)), nil
	}

	return None(), ErrTypeMismatch.Detailf(
		"'%s' not supported between instances of '%s' and '%s'",
		op, l.Type(), r.Type(),
	)
}

// ordered evaluates an ordering operator. Any comparison involving NaN is
// false.
func ordered[T cmp.Ordered](op Op, a, b T) bool {
	switch op {
	case OpLess:
		return a < b
	case OpGreater:
		return a > b
	case OpLessEq:
		return a <= b
	case OpGreaterEq:
		return a >= b
	default:
		return false
	}
}

// unary applies a unary operator.
func unary(op Op, v Value) (Value, error) {
	switch op {
	case OpNot:
		return Bool(!v.Truthy()), nil

	case OpNeg:
		switch v.typ {
		case TypeInt:
			return Int(-v.i), nil
		case TypeFloat:
			return Float(-v.f), nil
		}

	case OpPos:
		if v.isNumber() {
			return v, nil
		}
	}

	return None(), ErrTypeMismatch.Detailf(
		"bad operand type for unary %s: '%s'", op, v.Type(),
	)
}
