package interpreter

import (
	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/token"
	"github.com/xirelogy/go-mumei/internal/value"
)

func (in *Interpreter) eval(expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return value.Number(e.Value), nil
	case *ast.StringLiteral:
		return value.String(e.Value), nil
	case *ast.BoolLiteral:
		return value.Bool(e.Value), nil
	case *ast.NullLiteral:
		return value.Null(), nil
	case *ast.Identifier:
		v, err := in.env.Get(e.Name)
		return v, in.wrap(e, err)
	case *ast.ListLiteral:
		items, err := in.evalList(e.Elements)
		if err != nil {
			return value.Null(), err
		}
		return value.NewList(items), nil
	case *ast.DictLiteral:
		return in.evalDict(e)
	case *ast.BinaryExpr:
		return in.evalBinary(e)
	case *ast.UnaryExpr:
		right, err := in.eval(e.Right)
		if err != nil {
			return value.Null(), err
		}
		if e.Operator == token.Not {
			return value.Not(right), nil
		}
		v, err := value.Negate(right)
		return v, in.wrap(e, err)
	case *ast.AssignExpr:
		v, err := in.eval(e.Value)
		if err != nil {
			return value.Null(), err
		}
		return v, in.assign(e.Target, v)
	case *ast.CompoundAssignExpr:
		return in.evalCompoundAssign(e)
	case *ast.CallExpr:
		return in.evalCall(e)
	case *ast.IndexExpr:
		left, err := in.eval(e.Left)
		if err != nil {
			return value.Null(), err
		}
		index, err := in.eval(e.Index)
		if err != nil {
			return value.Null(), err
		}
		v, err := value.Index(left, index)
		return v, in.wrap(e, err)
	case *ast.MemberExpr:
		left, err := in.eval(e.Left)
		if err != nil {
			return value.Null(), err
		}
		return in.member(e, left, e.Property)
	case *ast.SliceExpr:
		return in.evalSlice(e)
	case *ast.FuncExpr:
		return value.FunctionVal(in.newFunction("<lambda>", e.Params, e.Body, e.Async, e.Generator)), nil
	case *ast.ListComprehension:
		return in.evalListComprehension(e)
	case *ast.DictComprehension:
		return in.evalDictComprehension(e)
	case *ast.TernaryExpr:
		cond, err := in.eval(e.Condition)
		if err != nil {
			return value.Null(), err
		}
		if value.Truthy(cond) {
			return in.eval(e.Then)
		}
		return in.eval(e.Else)
	case *ast.AwaitExpr:
		// Async functions run to completion when called, so await only
		// yields its operand.
		return in.eval(e.Value)
	case *ast.NewExpr:
		cls, err := in.env.Get(e.Class)
		if err != nil {
			return value.Null(), in.wrap(e, err)
		}
		if cls.Kind != value.KindClass {
			return value.Null(), in.errorf(e, "'%s' is not a class", e.Class)
		}
		args, err := in.evalList(e.Arguments)
		if err != nil {
			return value.Null(), err
		}
		return in.instantiate(e, cls.Class, args)
	}
	return value.Null(), in.errorf(expr, "Unsupported expression %T", expr)
}

func (in *Interpreter) evalList(exprs []ast.Expression) ([]value.Value, error) {
	out := make([]value.Value, 0, len(exprs))
	for _, expr := range exprs {
		v, err := in.eval(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalDict stringifies keys, so {1: "a"} and {"1": "a"} are the same
// dictionary.
func (in *Interpreter) evalDict(e *ast.DictLiteral) (value.Value, error) {
	d := value.NewDictStore()
	for _, entry := range e.Entries {
		k, err := in.eval(entry.Key)
		if err != nil {
			return value.Null(), err
		}
		v, err := in.eval(entry.Value)
		if err != nil {
			return value.Null(), err
		}
		d.Set(k.String(), v)
	}
	return value.NewDict(d), nil
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpr) (value.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return value.Null(), err
	}
	switch e.Operator {
	case token.And:
		if !value.Truthy(left) {
			return left, nil
		}
		return in.eval(e.Right)
	case token.Or:
		if value.Truthy(left) {
			return left, nil
		}
		return in.eval(e.Right)
	}
	right, err := in.eval(e.Right)
	if err != nil {
		return value.Null(), err
	}
	v, err := value.Binary(e.Operator, left, right)
	return v, in.wrap(e, err)
}

func (in *Interpreter) assign(target ast.Expression, v value.Value) error {
	switch t := target.(type) {
	case *ast.Identifier:
		return in.wrap(t, in.env.Assign(t.Name, v))
	case *ast.IndexExpr:
		left, err := in.eval(t.Left)
		if err != nil {
			return err
		}
		index, err := in.eval(t.Index)
		if err != nil {
			return err
		}
		return in.wrap(t, value.SetIndex(left, index, v))
	case *ast.MemberExpr:
		left, err := in.eval(t.Left)
		if err != nil {
			return err
		}
		return in.wrap(t, value.SetMember(left, t.Property, v))
	}
	return in.errorf(target, "Invalid assignment target")
}

// evalCompoundAssign evaluates the container and index of the target once.
func (in *Interpreter) evalCompoundAssign(e *ast.CompoundAssignExpr) (value.Value, error) {
	var (
		current value.Value
		store   func(value.Value) error
		err     error
	)
	switch t := e.Target.(type) {
	case *ast.Identifier:
		current, err = in.env.Get(t.Name)
		store = func(v value.Value) error { return in.env.Assign(t.Name, v) }
	case *ast.IndexExpr:
		var left, index value.Value
		if left, err = in.eval(t.Left); err != nil {
			return value.Null(), err
		}
		if index, err = in.eval(t.Index); err != nil {
			return value.Null(), err
		}
		current, err = value.Index(left, index)
		store = func(v value.Value) error { return value.SetIndex(left, index, v) }
	case *ast.MemberExpr:
		var left value.Value
		if left, err = in.eval(t.Left); err != nil {
			return value.Null(), err
		}
		current, err = value.Member(left, t.Property)
		store = func(v value.Value) error { return value.SetMember(left, t.Property, v) }
	default:
		return value.Null(), in.errorf(e, "Invalid assignment target")
	}
	if err != nil {
		return value.Null(), in.wrap(e, err)
	}
	operand, err := in.eval(e.Value)
	if err != nil {
		return value.Null(), err
	}
	result, err := value.Binary(e.Operator, current, operand)
	if err != nil {
		return value.Null(), in.wrap(e, err)
	}
	return result, in.wrap(e, store(result))
}

// member reads obj.name. Methods found on an instance's class come back
// bound to the instance.
func (in *Interpreter) member(node ast.Node, obj value.Value, name string) (value.Value, error) {
	if obj.Kind == value.KindInstance && !obj.Inst.Fields.Has(name) {
		if fn, ok := obj.Inst.Class.FindMethod(name); ok {
			return value.FunctionVal(bind(fn, obj)), nil
		}
	}
	v, err := value.Member(obj, name)
	return v, in.wrap(node, err)
}

func (in *Interpreter) evalSlice(e *ast.SliceExpr) (value.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return value.Null(), err
	}
	start, end := value.Null(), value.Null()
	if e.Start != nil {
		if start, err = in.eval(e.Start); err != nil {
			return value.Null(), err
		}
	}
	if e.End != nil {
		if end, err = in.eval(e.End); err != nil {
			return value.Null(), err
		}
	}
	v, err := value.Slice(left, start, end)
	return v, in.wrap(e, err)
}

// comprehend calls fn once per element of iterable that passes cond, with
// the loop variable bound in a scope of its own.
func (in *Interpreter) comprehend(node ast.Node, name string, iterable, cond ast.Expression, fn func() error) error {
	src, err := in.eval(iterable)
	if err != nil {
		return err
	}
	items, err := value.Iterate(src)
	if err != nil {
		return in.wrap(node, err)
	}
	prev := in.env
	defer func() { in.env = prev }()
	for _, item := range items {
		in.env = value.NewEnvironment(prev)
		if err := in.env.Define(name, item); err != nil {
			return in.wrap(node, err)
		}
		if cond != nil {
			ok, err := in.eval(cond)
			if err != nil {
				return err
			}
			if !value.Truthy(ok) {
				continue
			}
		}
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) evalListComprehension(e *ast.ListComprehension) (value.Value, error) {
	out := []value.Value{}
	err := in.comprehend(e, e.Var, e.Iterable, e.Condition, func() error {
		v, err := in.eval(e.Element)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return value.Null(), err
	}
	return value.NewList(out), nil
}

func (in *Interpreter) evalDictComprehension(e *ast.DictComprehension) (value.Value, error) {
	d := value.NewDictStore()
	err := in.comprehend(e, e.Var, e.Iterable, e.Condition, func() error {
		k, err := in.eval(e.Key)
		if err != nil {
			return err
		}
		v, err := in.eval(e.Value)
		if err != nil {
			return err
		}
		d.Set(k.String(), v)
		return nil
	})
	if err != nil {
		return value.Null(), err
	}
	return value.NewDict(d), nil
}
