package interpreter

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/token"
	"github.com/xirelogy/go-mumei/internal/value"
)

// ErrMaxDepth is the cause of a RuntimeError raised when calls nest deeper
// than the configured limit.
var ErrMaxDepth = errors.New("Maximum recursion depth exceeded")

// RuntimeError carries the source position of an evaluation failure.
type RuntimeError struct {
	Message  string
	Pos      token.Position
	Function string
	Cause    error
}

func (e *RuntimeError) Error() string {
	loc := ""
	if e.Pos.Line > 0 {
		loc = fmt.Sprintf("line %d:%d", e.Pos.Line, e.Pos.Column)
	}
	if e.Function != "" {
		if loc != "" {
			loc += " "
		}
		loc += "in " + e.Function
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// Unwrap exposes the original error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// ThrowError is raised by a throw statement. Value is delivered unchanged
// to a catch clause.
type ThrowError struct {
	Value value.Value
	Pos   token.Position
}

func (e *ThrowError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d:%d: uncaught %s", e.Pos.Line, e.Pos.Column, e.Value.String())
	}
	return "uncaught " + e.Value.String()
}

// wrap attaches the position of node to a plain error. Errors that already
// carry a position pass through.
func (in *Interpreter) wrap(node ast.Node, err error) error {
	if err == nil {
		return nil
	}
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return err
	}
	var terr *ThrowError
	if errors.As(err, &terr) {
		return err
	}
	return &RuntimeError{Message: err.Error(), Pos: node.Pos(), Function: in.function(), Cause: err}
}

func (in *Interpreter) errorf(node ast.Node, format string, args ...interface{}) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Pos: node.Pos(), Function: in.function()}
}

// caught converts an error raised in a try body into the value bound by
// the catch clause.
func caught(err error) value.Value {
	var terr *ThrowError
	if errors.As(err, &terr) {
		return terr.Value
	}
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return value.String(rerr.Message)
	}
	return value.String(err.Error())
}
