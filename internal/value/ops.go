package value

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xirelogy/go-mumei/internal/token"
)

var (
	ErrDivisionByZero = errors.New("Division by zero")
	ErrModuloByZero   = errors.New("Modulo by zero")
	ErrStringRepeat   = errors.New("String multiplication requires non-negative integer")
	ErrStringTooLong  = fmt.Errorf("String multiplication result exceeds %d bytes", MaxRepeatBytes)
)

// MaxRepeatBytes bounds the length of a string produced by multiplication.
const MaxRepeatBytes = 64 << 20

// Binary applies a binary operator token to a and b. Logical and/or are
// handled by the evaluators since they short-circuit.
func Binary(op token.Type, a, b Value) (Value, error) {
	switch op {
	case token.Plus:
		return Add(a, b)
	case token.Minus:
		return Sub(a, b)
	case token.Star:
		return Mul(a, b)
	case token.Slash:
		return Div(a, b)
	case token.Percent:
		return Mod(a, b)
	case token.Power:
		return Pow(a, b)
	case token.FloorDiv:
		return FloorDiv(a, b)
	case token.Equal:
		return Bool(Equal(a, b)), nil
	case token.NotEqual:
		return Bool(!Equal(a, b)), nil
	case token.Less:
		return Less(a, b)
	case token.Greater:
		return Greater(a, b)
	case token.LessEqual:
		return LessEqual(a, b)
	case token.GreaterEqual:
		return GreaterEqual(a, b)
	case token.ShiftLeft:
		return Shift(a, b, true)
	case token.ShiftRight:
		return Shift(a, b, false)
	default:
		return Null(), fmt.Errorf("Unknown operator %s", op)
	}
}

func Add(a, b Value) (Value, error) {
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return Number(a.Num + b.Num), nil
	case a.Kind == KindString && b.Kind == KindString:
		return String(a.Str + b.Str), nil
	case a.Kind == KindString:
		return String(a.Str + b.String()), nil
	case b.Kind == KindString:
		return String(a.String() + b.Str), nil
	}
	return Null(), fmt.Errorf("Cannot add %s and %s", a.TypeName(), b.TypeName())
}

func Sub(a, b Value) (Value, error) {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		return Number(a.Num - b.Num), nil
	}
	return Null(), fmt.Errorf("Cannot subtract %s from %s", b.TypeName(), a.TypeName())
}

func Mul(a, b Value) (Value, error) {
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return Number(a.Num * b.Num), nil
	case a.Kind == KindString && b.Kind == KindNumber:
		return repeat(a.Str, b.Num)
	case a.Kind == KindNumber && b.Kind == KindString:
		return repeat(b.Str, a.Num)
	}
	return Null(), fmt.Errorf("Cannot multiply %s and %s", a.TypeName(), b.TypeName())
}

func repeat(s string, n float64) (Value, error) {
	if n < 0 || n != math.Trunc(n) {
		return Null(), ErrStringRepeat
	}
	if s == "" {
		return String(""), nil
	}
	if float64(len(s))*n > MaxRepeatBytes {
		return Null(), ErrStringTooLong
	}
	return String(strings.Repeat(s, int(n))), nil
}

func Div(a, b Value) (Value, error) {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		if b.Num == 0 {
			return Null(), ErrDivisionByZero
		}
		return Number(a.Num / b.Num), nil
	}
	return Null(), fmt.Errorf("Cannot divide %s by %s", a.TypeName(), b.TypeName())
}

func FloorDiv(a, b Value) (Value, error) {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		if b.Num == 0 {
			return Null(), ErrDivisionByZero
		}
		return Number(math.Floor(a.Num / b.Num)), nil
	}
	return Null(), fmt.Errorf("Cannot divide %s by %s", a.TypeName(), b.TypeName())
}

func Mod(a, b Value) (Value, error) {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		if b.Num == 0 {
			return Null(), ErrModuloByZero
		}
		return Number(math.Mod(a.Num, b.Num)), nil
	}
	return Null(), fmt.Errorf("Cannot modulo %s by %s", a.TypeName(), b.TypeName())
}

func Pow(a, b Value) (Value, error) {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		return Number(math.Pow(a.Num, b.Num)), nil
	}
	return Null(), fmt.Errorf("Cannot raise %s to power of %s", a.TypeName(), b.TypeName())
}

func Less(a, b Value) (Value, error) {
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return Bool(a.Num < b.Num), nil
	case a.Kind == KindString && b.Kind == KindString:
		return Bool(a.Str < b.Str), nil
	}
	return Null(), compareError(a, b)
}

func Greater(a, b Value) (Value, error) {
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return Bool(a.Num > b.Num), nil
	case a.Kind == KindString && b.Kind == KindString:
		return Bool(a.Str > b.Str), nil
	}
	return Null(), compareError(a, b)
}

// LessEqual is computed as not-greater.
func LessEqual(a, b Value) (Value, error) {
	v, err := Greater(a, b)
	if err != nil {
		return Null(), err
	}
	return Bool(!v.B), nil
}

// GreaterEqual is computed as not-less.
func GreaterEqual(a, b Value) (Value, error) {
	v, err := Less(a, b)
	if err != nil {
		return Null(), err
	}
	return Bool(!v.B), nil
}

// Shift applies << (left) or >> to integral operands.
func Shift(a, b Value, left bool) (Value, error) {
	if a.Kind != KindNumber || b.Kind != KindNumber ||
		a.Num != math.Trunc(a.Num) || b.Num != math.Trunc(b.Num) || b.Num < 0 {
		return Null(), fmt.Errorf("Cannot shift %s by %s", a.TypeName(), b.TypeName())
	}
	n, by := int64(a.Num), uint(b.Num)
	if left {
		return Number(float64(n << by)), nil
	}
	return Number(float64(n >> by)), nil
}

func compareError(a, b Value) error {
	return fmt.Errorf("Cannot compare %s and %s", a.TypeName(), b.TypeName())
}

func Negate(v Value) (Value, error) {
	if v.Kind == KindNumber {
		return Number(-v.Num), nil
	}
	return Null(), fmt.Errorf("Cannot negate %s", v.TypeName())
}

func Not(v Value) Value {
	return Bool(!Truthy(v))
}

// Index reads container[index] for lists, strings, dictionaries and
// instances.
func Index(container, index Value) (Value, error) {
	switch container.Kind {
	case KindList:
		i, err := listIndex(index, len(container.List.Items))
		if err != nil {
			return Null(), err
		}
		return container.List.Items[i], nil
	case KindString:
		runes := []rune(container.Str)
		i, err := listIndex(index, len(runes))
		if err != nil {
			return Null(), err
		}
		return String(string(runes[i])), nil
	case KindDict:
		key := index.String()
		v, ok := container.Dict.Get(key)
		if !ok {
			return Null(), fmt.Errorf("Key '%s' not found", key)
		}
		return v, nil
	case KindInstance:
		return Member(container, index.String())
	}
	return Null(), fmt.Errorf("Cannot index %s", container.TypeName())
}

// SetIndex writes container[index] = v. Assigning one past the end of a list
// is an error; use push() to grow lists.
func SetIndex(container, index, v Value) error {
	switch container.Kind {
	case KindList:
		i, err := listIndex(index, len(container.List.Items))
		if err != nil {
			return err
		}
		container.List.Items[i] = v
		return nil
	case KindDict:
		container.Dict.Set(index.String(), v)
		return nil
	case KindInstance:
		container.Inst.Fields.Set(index.String(), v)
		return nil
	}
	return fmt.Errorf("Cannot set index on %s", container.TypeName())
}

func listIndex(index Value, length int) (int, error) {
	if index.Kind != KindNumber || index.Num < 0 || index.Num != math.Trunc(index.Num) {
		return 0, errors.New("List index must be non-negative integer")
	}
	if index.Num >= float64(length) {
		return 0, fmt.Errorf("Index %s out of range", index.String())
	}
	return int(index.Num), nil
}

// Member reads obj.name from a dictionary or an instance. Instance lookups
// fall back to class methods, bound to the instance by the caller.
func Member(obj Value, name string) (Value, error) {
	switch obj.Kind {
	case KindDict:
		if v, ok := obj.Dict.Get(name); ok {
			return v, nil
		}
	case KindInstance:
		if v, ok := obj.Inst.Fields.Get(name); ok {
			return v, nil
		}
		if fn, ok := obj.Inst.Class.FindMethod(name); ok {
			return FunctionVal(fn), nil
		}
	default:
		return Null(), fmt.Errorf("Cannot get property from %s", obj.TypeName())
	}
	return Null(), fmt.Errorf("Property '%s' not found", name)
}

// SetMember writes obj.name = v.
func SetMember(obj Value, name string, v Value) error {
	switch obj.Kind {
	case KindDict:
		obj.Dict.Set(name, v)
		return nil
	case KindInstance:
		obj.Inst.Fields.Set(name, v)
		return nil
	}
	return fmt.Errorf("Cannot set property on %s", obj.TypeName())
}

// Slice returns container[start:end] for lists and strings. Missing bounds
// are passed as Null; negative bounds count from the end and out-of-range
// bounds are clamped.
func Slice(container, start, end Value) (Value, error) {
	var length int
	switch container.Kind {
	case KindList:
		length = len(container.List.Items)
	case KindString:
		length = len([]rune(container.Str))
	default:
		return Null(), fmt.Errorf("Cannot slice %s", container.TypeName())
	}
	lo, err := sliceBound(start, 0, length)
	if err != nil {
		return Null(), err
	}
	hi, err := sliceBound(end, length, length)
	if err != nil {
		return Null(), err
	}
	if hi < lo {
		hi = lo
	}
	if container.Kind == KindString {
		return String(string([]rune(container.Str)[lo:hi])), nil
	}
	items := make([]Value, hi-lo)
	copy(items, container.List.Items[lo:hi])
	return NewList(items), nil
}

func sliceBound(v Value, def, length int) (int, error) {
	if v.Kind == KindNull {
		return def, nil
	}
	if v.Kind != KindNumber || v.Num != math.Trunc(v.Num) {
		return 0, errors.New("Slice bounds must be integers")
	}
	i := int(v.Num)
	if i < 0 {
		i += length
	}
	return max(0, min(i, length)), nil
}

// Iterate returns the elements a for loop visits: list items, the
// characters of a string or the keys of a dictionary.
func Iterate(v Value) ([]Value, error) {
	switch v.Kind {
	case KindList:
		out := make([]Value, len(v.List.Items))
		copy(out, v.List.Items)
		return out, nil
	case KindString:
		var out []Value
		for _, r := range v.Str {
			out = append(out, String(string(r)))
		}
		return out, nil
	case KindDict:
		keys := v.Dict.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return out, nil
	}
	return nil, fmt.Errorf("Cannot iterate over %s", v.TypeName())
}
