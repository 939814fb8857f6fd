package mathlib

import (
	"errors"
	"fmt"
	"math"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

func init() {
	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
	}
	for name, fn := range unary {
		runtime.Register(runtime.Spec{Name: name, Arity: 1, Handler: numeric1(fn)})
	}
	runtime.Register(runtime.Spec{Name: "sqrt", Arity: 1, Handler: runSqrt})
	runtime.Register(runtime.Spec{Name: "min", Arity: 2, Handler: numeric2(math.Min)})
	runtime.Register(runtime.Spec{Name: "max", Arity: 2, Handler: numeric2(math.Max)})

	runtime.RegisterConstant("PI", value.Number(math.Pi))
	runtime.RegisterConstant("E", value.Number(math.E))
}

func asNumber(v value.Value) (float64, error) {
	if v.Kind != value.KindNumber {
		return 0, fmt.Errorf("Expected number, got %s", v.TypeName())
	}
	return v.Num, nil
}

func numeric1(fn func(float64) float64) value.NativeFunc {
	return func(_ value.Host, args []value.Value) (value.Value, error) {
		n, err := asNumber(args[0])
		if err != nil {
			return value.Null(), err
		}
		return value.Number(fn(n)), nil
	}
}

func numeric2(fn func(float64, float64) float64) value.NativeFunc {
	return func(_ value.Host, args []value.Value) (value.Value, error) {
		a, err := asNumber(args[0])
		if err != nil {
			return value.Null(), err
		}
		b, err := asNumber(args[1])
		if err != nil {
			return value.Null(), err
		}
		return value.Number(fn(a, b)), nil
	}
}

func runSqrt(_ value.Host, args []value.Value) (value.Value, error) {
	n, err := asNumber(args[0])
	if err != nil {
		return value.Null(), err
	}
	if n < 0 {
		return value.Null(), errors.New("Cannot take square root of negative number")
	}
	return value.Number(math.Sqrt(n)), nil
}
