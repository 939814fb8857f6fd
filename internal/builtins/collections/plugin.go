package collections

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

// maxRange bounds range() so a typo cannot allocate the whole heap.
const maxRange = 10_000_000

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

func init() {
	runtime.Register(runtime.Spec{Name: "len", Arity: 1, Handler: runLen})
	runtime.Register(runtime.Spec{Name: "push", Arity: 2, Handler: runPush})
	runtime.Register(runtime.Spec{Name: "pop", Arity: 1, Handler: runPop})
	runtime.Register(runtime.Spec{Name: "keys", Arity: 1, Handler: runKeys})
	runtime.Register(runtime.Spec{Name: "values", Arity: 1, Handler: runValues})
	runtime.Register(runtime.Spec{Name: "range", Arity: 2, Handler: runRange})
	runtime.Register(runtime.Spec{Name: "copy", Arity: 1, Handler: runCopy})
}

func runLen(_ value.Host, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindString:
		return value.Number(float64(utf8.RuneCountInString(v.Str))), nil
	case value.KindList:
		return value.Number(float64(len(v.List.Items))), nil
	case value.KindDict:
		return value.Number(float64(v.Dict.Len())), nil
	}
	return value.Null(), fmt.Errorf("%s has no length", v.TypeName())
}

func runPush(_ value.Host, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindList {
		return value.Null(), fmt.Errorf("Cannot push to %s", args[0].TypeName())
	}
	l := args[0].List
	l.Items = append(l.Items, args[1])
	return value.Null(), nil
}

func runPop(_ value.Host, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindList {
		return value.Null(), fmt.Errorf("Cannot pop from %s", args[0].TypeName())
	}
	l := args[0].List
	if len(l.Items) == 0 {
		return value.Null(), errors.New("Cannot pop from empty list")
	}
	last := l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
	return last, nil
}

func runKeys(_ value.Host, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindDict {
		return value.Null(), fmt.Errorf("Cannot get keys from %s", args[0].TypeName())
	}
	keys := args[0].Dict.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return value.NewList(out), nil
}

func runValues(_ value.Host, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindDict {
		return value.Null(), fmt.Errorf("Cannot get values from %s", args[0].TypeName())
	}
	d := args[0].Dict
	keys := d.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i], _ = d.Get(k)
	}
	return value.NewList(out), nil
}

// runRange returns [start, end) truncated to integers.
func runRange(_ value.Host, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[1].Kind != value.KindNumber {
		return value.Null(), fmt.Errorf("Expected number, got %s", nonNumber(args).TypeName())
	}
	lo, hi := math.Trunc(args[0].Num), math.Trunc(args[1].Num)
	span := hi - lo
	if !(span <= maxRange) {
		return value.Null(), fmt.Errorf("range() of %s elements exceeds the limit of %d", value.FormatNumber(span), maxRange)
	}
	if span <= 0 {
		return value.NewList([]value.Value{}), nil
	}
	if math.Abs(lo) > maxExactInt || math.Abs(hi) > maxExactInt {
		return value.Null(), fmt.Errorf("range() bounds must lie within ±%d", int64(maxExactInt))
	}
	start, end := int64(lo), int64(hi)
	out := []value.Value{}
	for i := start; i < end; i++ {
		out = append(out, value.Number(float64(i)))
	}
	return value.NewList(out), nil
}

func runCopy(_ value.Host, args []value.Value) (value.Value, error) {
	return value.Duplicate(args[0]), nil
}

func nonNumber(args []value.Value) value.Value {
	for _, a := range args {
		if a.Kind != value.KindNumber {
			return a
		}
	}
	return value.Null()
}
