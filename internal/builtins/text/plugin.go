package text

import (
	"fmt"
	"strings"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

func init() {
	runtime.Register(runtime.Spec{Name: "upper", Arity: 1, Handler: runUpper})
	runtime.Register(runtime.Spec{Name: "lower", Arity: 1, Handler: runLower})
	runtime.Register(runtime.Spec{Name: "split", Arity: 2, Handler: runSplit})
	runtime.Register(runtime.Spec{Name: "join", Arity: 2, Handler: runJoin})
}

func asString(v value.Value) (string, error) {
	if v.Kind != value.KindString {
		return "", fmt.Errorf("Expected string, got %s", v.TypeName())
	}
	return v.Str, nil
}

func runUpper(_ value.Host, args []value.Value) (value.Value, error) {
	s, err := asString(args[0])
	if err != nil {
		return value.Null(), err
	}
	return value.String(strings.ToUpper(s)), nil
}

func runLower(_ value.Host, args []value.Value) (value.Value, error) {
	s, err := asString(args[0])
	if err != nil {
		return value.Null(), err
	}
	return value.String(strings.ToLower(s)), nil
}

func runSplit(_ value.Host, args []value.Value) (value.Value, error) {
	s, err := asString(args[0])
	if err != nil {
		return value.Null(), err
	}
	sep, err := asString(args[1])
	if err != nil {
		return value.Null(), err
	}
	parts := strings.Split(s, sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.NewList(out), nil
}

func runJoin(_ value.Host, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindList {
		return value.Null(), fmt.Errorf("Expected list, got %s", args[0].TypeName())
	}
	sep, err := asString(args[1])
	if err != nil {
		return value.Null(), err
	}
	parts := make([]string, len(args[0].List.Items))
	for i, item := range args[0].List.Items {
		parts[i] = item.String()
	}
	return value.String(strings.Join(parts, sep)), nil
}
