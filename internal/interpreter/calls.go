package interpreter

import (
	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/value"
)

const initMethod = "init"

func (in *Interpreter) newFunction(name string, params []ast.Param, body *ast.BlockStmt, async, generator bool) *value.Function {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return &value.Function{
		Name:      name,
		Params:    names,
		Body:      body.Statements,
		Closure:   in.env,
		Async:     async,
		Generator: generator,
	}
}

// bind returns a copy of method whose closure defines this.
func bind(method *value.Function, this value.Value) *value.Function {
	scope := value.NewEnvironment(method.Closure)
	_ = scope.Define("this", this)
	bound := *method
	bound.Closure = scope
	return &bound
}

func (in *Interpreter) evalCall(e *ast.CallExpr) (value.Value, error) {
	callee, err := in.eval(e.Callee)
	if err != nil {
		return value.Null(), err
	}
	args, err := in.evalList(e.Arguments)
	if err != nil {
		return value.Null(), err
	}
	return in.call(e, callee, args)
}

func (in *Interpreter) call(node ast.Node, callee value.Value, args []value.Value) (value.Value, error) {
	switch callee.Kind {
	case value.KindFunction:
		return in.callFunction(node, callee.Func, args)
	case value.KindNative:
		v, err := callee.Native.Call(in, args)
		return v, in.wrap(node, err)
	case value.KindClass:
		return in.instantiate(node, callee.Class, args)
	}
	return value.Null(), in.errorf(node, "Cannot call %s", callee.TypeName())
}

// callFunction binds args in a scope parented at the closure. Generators
// return the list of values they yielded.
func (in *Interpreter) callFunction(node ast.Node, fn *value.Function, args []value.Value) (value.Value, error) {
	if len(args) != len(fn.Params) {
		plural := "s"
		if len(fn.Params) == 1 {
			plural = ""
		}
		return value.Null(), in.errorf(node, "%s() takes %d argument%s, got %d", fn.Name, len(fn.Params), plural, len(args))
	}
	if len(in.calls) >= in.maxDepth {
		return value.Null(), &RuntimeError{Message: ErrMaxDepth.Error(), Pos: node.Pos(), Function: in.function(), Cause: ErrMaxDepth}
	}
	scope := value.NewEnvironment(fn.Closure)
	for i, name := range fn.Params {
		if err := scope.Define(name, args[i]); err != nil {
			return value.Null(), in.wrap(node, err)
		}
	}

	in.calls = append(in.calls, fn.Name)
	if fn.Generator {
		in.yields = append(in.yields, []value.Value{})
	}
	c, err := in.execStatements(fn.Body, scope)
	in.calls = in.calls[:len(in.calls)-1]
	if fn.Generator {
		yielded := in.yields[len(in.yields)-1]
		in.yields = in.yields[:len(in.yields)-1]
		if err != nil {
			return value.Null(), err
		}
		return value.NewList(yielded), nil
	}
	if err != nil {
		return value.Null(), err
	}
	return c.value, nil
}

// instantiate creates an instance and runs its init method, if any.
func (in *Interpreter) instantiate(node ast.Node, cls *value.Class, args []value.Value) (value.Value, error) {
	inst := value.InstanceVal(value.NewInstance(cls))
	init, ok := cls.FindMethod(initMethod)
	if !ok {
		if len(args) > 0 {
			return value.Null(), in.errorf(node, "%s() takes 0 arguments, got %d", cls.Name, len(args))
		}
		return inst, nil
	}
	if _, err := in.callFunction(node, bind(init, inst), args); err != nil {
		return value.Null(), err
	}
	return inst, nil
}
