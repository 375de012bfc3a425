package lang

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
)

func TestValue_String(t *testing.T) {
	fn := &Function{Name: "f"}

	tests := []struct {
		value Value
		str   string
		repr  string
	}{
		{None(), "None", "None"},
		{Bool(true), "True", "True"},
		{Bool(false), "False", "False"},
		{Int(-42), "-42", "-42"},
		{Float(5), "5.0", "5.0"},
		{Float(2.5), "2.5", "2.5"},
		{Float(-0.0001), "-0.0001", "-0.0001"},
		{Float(0.00001), "1e-05", "1e-05"},
		{Float(1e16), "1e+16", "1e+16"},
		{Float(123456789012345.0), "123456789012345.0", "123456789012345.0"},
		{Float(math.Inf(1)), "inf", "inf"},
		{Float(math.Inf(-1)), "-inf", "-inf"},
		{Float(math.NaN()), "nan", "nan"},
		{String("hi"), "hi", "'hi'"},
		{String("it's"), "it's", `"it's"`},
		{String(`say "it's"`), `say "it's"`, `'say "it\'s"'`},
		{String("a\nb\\"), "a\nb\\", `'a\nb\\'`},
		{Func(fn), "<function f>", "<function f>"},
	}

	for _, tt := range tests {
		t.Run(tt.repr, func(t *testing.T) {
			if got := tt.value.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}

			if got := tt.value.Repr(); got != tt.repr {
				t.Errorf("Repr() = %q, want %q", got, tt.repr)
			}
		})
	}
}

func TestValue_Truthy(t *testing.T) {
	falsy := []Value{None(), Bool(false), Int(0), Float(0), String("")}
	truthy := []Value{
		Bool(true), Int(-1), Float(0.1), String("0"), String(" "),
		Func(&Function{Name: "f"}),
	}

	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%s is truthy, want falsy", v.Repr())
		}
	}

	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%s is falsy, want truthy", v.Repr())
		}
	}
}

func TestValue_Equal(t *testing.T) {
	f, g := &Function{Name: "f"}, &Function{Name: "f"}

	tests := []struct {
		a, b Value
		want bool
	}{
		{Int(1), Float(1), true},
		{Float(0.5), Int(0), false},
		{Bool(true), Int(1), false},
		{Bool(false), Bool(false), true},
		{None(), None(), true},
		{None(), Bool(false), false},
		{String(""), None(), false},
		{String("a"), String("a"), true},
		{Func(f), Func(f), true},
		{Func(f), Func(g), false},
		{Float(math.NaN()), Float(math.NaN()), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s == %s: got %v, want %v", tt.a.Repr(), tt.b.Repr(), got, tt.want)
		}

		if got := tt.b.Equal(tt.a); got != tt.want {
			t.Errorf("%s == %s: got %v, want %v", tt.b.Repr(), tt.a.Repr(), got, tt.want)
		}
	}
}

func TestValue_Zero(t *testing.T) {
	var v Value

	if !v.IsNone() || v.Type() != TypeNone {
		t.Errorf("zero Value has type %s, want NoneType", v.Type())
	}
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		in   any
		want Value
	}{
		{nil, None()},
		{true, Bool(true)},
		{7, Int(7)},
		{int8(-3), Int(-3)},
		{uint16(9), Int(9)},
		{uint64(math.MaxInt64), Int(math.MaxInt64)},
		{float32(0.5), Float(0.5)},
		{"s", String("s")},
		{Int(3), Int(3)},
	}

	for _, tt := range tests {
		got, err := FromNative(tt.in)
		if err != nil {
			t.Errorf("FromNative(%#v): %v", tt.in, err)

			continue
		}

		if got.Type() != tt.want.Type() || !got.Equal(tt.want) {
			t.Errorf("FromNative(%#v) = %s, want %s", tt.in, got.Repr(), tt.want.Repr())
		}

		if back, err := FromNative(got.Native()); err != nil || !back.Equal(got) {
			t.Errorf("FromNative(%s.Native()) = %v, %v", got.Repr(), back, err)
		}
	}

	for _, bad := range []any{uint64(math.MaxUint64), []int{1}, struct{}{}} {
		if _, err := FromNative(bad); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("FromNative(%#v) error = %v, want type mismatch", bad, err)
		}
	}
}

func TestFunction_Signature(t *testing.T) {
	user := &Function{Name: "add", Params: []string{"a", "b"}}
	if got := user.Signature(); got != "add(a, b)" {
		t.Errorf("Signature() = %q", got)
	}

	if user.Arity() != 2 || user.IsBuiltin() {
		t.Errorf("user function arity = %d, builtin = %v", user.Arity(), user.IsBuiltin())
	}

	noop := func(context.Context, []Value) (Value, error) { return None(), nil }

	variadic, _ := NewBuiltin("print", -1, noop).AsFunction()
	if got := variadic.Signature(); got != "print(...)" {
		t.Errorf("Signature() = %q", got)
	}

	fixed, _ := NewBuiltin("pair", 2, noop).AsFunction()
	if got := fixed.Signature(); got != "pair(arg1, arg2)" {
		t.Errorf("Signature() = %q", got)
	}
}

func TestEnv(t *testing.T) {
	global := NewEnv(nil)
	global.Define("x", Int(1))
	global.Define("y", Int(2))

	local := NewEnv(global)
	local.Define("y", Int(20))

	if v, ok := local.Get("x"); !ok || !v.Equal(Int(1)) {
		t.Errorf("local x = %v, %v; want 1 from the parent", v, ok)
	}

	if v, _ := local.Get("y"); !v.Equal(Int(20)) {
		t.Errorf("local y = %s, want shadowing 20", v.Repr())
	}

	if _, ok := local.Get("z"); ok {
		t.Error("z should be undefined")
	}

	// Set rebinds in the defining scope and otherwise defines locally.
	local.Set("x", Int(10))
	local.Set("z", Int(30))

	if v, _ := global.Get("x"); !v.Equal(Int(10)) {
		t.Errorf("global x = %s, want 10", v.Repr())
	}

	if _, ok := global.Get("z"); ok {
		t.Error("z leaked into the parent scope")
	}

	if got, want := local.Local(), []string{"y", "z"}; !slices.Equal(got, want) {
		t.Errorf("Local() = %v, want %v", got, want)
	}

	if got, want := local.Names(), []string{"x", "y", "z"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	if local.Parent() != global || global.Parent() != nil {
		t.Error("Parent() does not reflect the scope chain")
	}
}
