package check

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

// Name is the builtin the assert statement lowers to.
const Name = "assert"

func init() {
	runtime.Register(runtime.Spec{Name: Name, Arity: -1, Handler: runAssert})
}

func runAssert(_ value.Host, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Null(), fmt.Errorf("assert() takes 2 arguments, got %d", len(args))
	}
	if value.Truthy(args[0]) {
		return value.Null(), nil
	}
	if len(args) == 1 {
		return value.Null(), errors.New("Assertion failed")
	}
	return value.Null(), fmt.Errorf("Assertion failed: %s", args[1].String())
}
