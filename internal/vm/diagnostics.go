package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xirelogy/go-mumei/internal/bytecode"
)

var (
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrInstructionLimit = errors.New("instruction limit exceeded")
	// ErrNotNumericOnly is returned by the numeric fast path and the JIT
	// for bytecode outside the numeric instruction set.
	ErrNotNumericOnly = errors.New("bytecode is not numeric-only")
)

// TraceInfo describes a single instruction dispatch.
type TraceInfo struct {
	PC         int
	Op         byte
	Line       int
	StackDepth int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// RuntimeError carries the instruction and source line of a VM failure.
type RuntimeError struct {
	Message  string
	PC       int
	Op       byte
	Line     int
	Function string
	Cause    error
}

func (e *RuntimeError) Error() string {
	locParts := []string{}
	if e.Line > 0 {
		locParts = append(locParts, fmt.Sprintf("line %d", e.Line))
	}
	if e.Function != "" {
		locParts = append(locParts, fmt.Sprintf("in %s", e.Function))
	}
	loc := strings.Join(locParts, " ")
	if loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// Unwrap exposes the original error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

func (vm *VM) errorf(format string, args ...interface{}) error {
	return vm.newRuntimeError(fmt.Sprintf(format, args...), nil)
}

// wrapError attaches the failing instruction to err. Errors that already
// carry a location pass through.
func (vm *VM) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return err
	}
	return vm.newRuntimeError(err.Error(), err)
}

func (vm *VM) newRuntimeError(msg string, cause error) *RuntimeError {
	err := &RuntimeError{
		Message: msg,
		PC:      vm.lastPC,
		Cause:   cause,
	}
	if vm.code != nil && vm.lastPC >= 0 && vm.lastPC < vm.code.Len() {
		err.Op = vm.code.Instructions[vm.lastPC].Op
		err.Line = vm.code.LineFor(vm.lastPC)
	}
	if n := len(vm.frames); n > 0 {
		err.Function = vm.frames[n-1].fn.Name
	}
	return err
}

func (vm *VM) trace(pc int, op byte) {
	if vm.traceHook == nil {
		return
	}
	vm.traceHook(TraceInfo{
		PC:         pc,
		Op:         op,
		Line:       vm.code.LineFor(pc),
		StackDepth: len(vm.stack),
	})
}

// corrupt panics on bytecode that violates the compiler's invariants.
func corrupt(bc *bytecode.ByteCode, format string, args ...interface{}) {
	panic(fmt.Sprintf("vm: corrupt bytecode (%d instructions, %d constants): %s",
		bc.Len(), len(bc.Constants), fmt.Sprintf(format, args...)))
}
