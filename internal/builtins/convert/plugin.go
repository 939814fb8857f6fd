package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

func init() {
	runtime.Register(runtime.Spec{Name: "str", Arity: 1, Handler: runStr})
	runtime.Register(runtime.Spec{Name: "num", Arity: 1, Handler: runNum})
	runtime.Register(runtime.Spec{Name: "bool", Arity: 1, Handler: runBool})
	runtime.Register(runtime.Spec{Name: "type", Arity: 1, Handler: runType})
}

func runStr(_ value.Host, args []value.Value) (value.Value, error) {
	return value.String(args[0].String()), nil
}

func runNum(_ value.Host, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindNumber:
		return v, nil
	case value.KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return value.Null(), fmt.Errorf("Cannot convert '%s' to number", v.Str)
		}
		return value.Number(n), nil
	case value.KindBool:
		if v.B {
			return value.Number(1), nil
		}
		return value.Number(0), nil
	}
	return value.Null(), fmt.Errorf("Cannot convert %s to number", v.TypeName())
}

func runBool(_ value.Host, args []value.Value) (value.Value, error) {
	return value.Bool(value.Truthy(args[0])), nil
}

func runType(_ value.Host, args []value.Value) (value.Value, error) {
	return value.String(args[0].TypeName()), nil
}
