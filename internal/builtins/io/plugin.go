package io

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

func init() {
	runtime.Register(runtime.Spec{Name: "print", Arity: 1, Handler: runPrint})
	runtime.Register(runtime.Spec{Name: "println", Arity: 1, Handler: runPrintln})
	runtime.Register(runtime.Spec{Name: "input", Arity: -1, Handler: runInput})
}

func runPrint(host value.Host, args []value.Value) (value.Value, error) {
	fmt.Fprint(host.Stdout(), args[0].String())
	return value.Null(), nil
}

func runPrintln(host value.Host, args []value.Value) (value.Value, error) {
	fmt.Fprintln(host.Stdout(), args[0].String())
	return value.Null(), nil
}

// runInput reads one line, printing an optional prompt first.
func runInput(host value.Host, args []value.Value) (value.Value, error) {
	if len(args) > 1 {
		return value.Null(), fmt.Errorf("input() takes at most 1 argument, got %d", len(args))
	}
	if len(args) == 1 {
		fmt.Fprint(host.Stdout(), args[0].String())
	}
	line, err := bufio.NewReader(host.Stdin()).ReadString('\n')
	if err != nil && line == "" {
		return value.Null(), fmt.Errorf("Input error: %v", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return value.String(line), nil
}
