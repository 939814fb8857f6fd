package interpreter

import (
	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/builtins/check"
	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

// execStatements runs stmts in env. The completion carries the value of
// the last statement executed.
func (in *Interpreter) execStatements(stmts []ast.Statement, env *value.Environment) (completion, error) {
	prev := in.env
	in.env = env
	defer func() { in.env = prev }()

	last := value.Null()
	for _, stmt := range stmts {
		c, err := in.exec(stmt)
		if err != nil {
			return completion{}, err
		}
		if c.kind != normal {
			return c, nil
		}
		last = c.value
	}
	return done(last), nil
}

func (in *Interpreter) execBlock(block *ast.BlockStmt) (completion, error) {
	if block == nil {
		return done(value.Null()), nil
	}
	return in.execStatements(block.Statements, value.NewEnvironment(in.env))
}

func (in *Interpreter) exec(stmt ast.Statement) (completion, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v, err := in.eval(s.Expression)
		return done(v), err
	case *ast.VarDecl:
		return in.execVarDecl(s)
	case *ast.FuncDecl:
		fn := in.newFunction(s.Name, s.Params, s.Body, s.Async, s.Generator)
		return done(value.Null()), in.wrap(s, in.env.Define(s.Name, value.FunctionVal(fn)))
	case *ast.ClassDecl:
		return in.execClass(s)
	case *ast.ReturnStmt:
		v := value.Null()
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value); err != nil {
				return completion{}, err
			}
		}
		return completion{kind: returned, value: v}, nil
	case *ast.YieldStmt:
		return in.execYield(s)
	case *ast.IfStmt:
		return in.execIf(s)
	case *ast.WhileStmt:
		return in.execWhile(s)
	case *ast.ForStmt:
		return in.execFor(s)
	case *ast.BreakStmt:
		return completion{kind: broke}, nil
	case *ast.ContinueStmt:
		return completion{kind: continued}, nil
	case *ast.PassStmt:
		return done(value.Null()), nil
	case *ast.TryStmt:
		return in.execTry(s)
	case *ast.ThrowStmt:
		v, err := in.eval(s.Value)
		if err != nil {
			return completion{}, err
		}
		return completion{}, &ThrowError{Value: v, Pos: s.Pos()}
	case *ast.ImportStmt:
		return done(value.Null()), in.execImport(s)
	case *ast.AssertStmt:
		return in.execAssert(s)
	case *ast.MatchStmt:
		return in.execMatch(s)
	}
	return completion{}, in.errorf(stmt, "Unsupported statement %T", stmt)
}

func (in *Interpreter) execVarDecl(s *ast.VarDecl) (completion, error) {
	v := value.Null()
	if s.Value != nil {
		var err error
		if v, err = in.eval(s.Value); err != nil {
			return completion{}, err
		}
	}
	var err error
	if s.Const {
		err = in.env.DefineConst(s.Name, v)
	} else {
		err = in.env.Define(s.Name, v)
	}
	return done(value.Null()), in.wrap(s, err)
}

func (in *Interpreter) execClass(s *ast.ClassDecl) (completion, error) {
	cls := &value.Class{Name: s.Name, Methods: map[string]*value.Function{}}
	if s.Parent != "" {
		parent, err := in.env.Get(s.Parent)
		if err != nil {
			return completion{}, in.wrap(s, err)
		}
		if parent.Kind != value.KindClass {
			return completion{}, in.errorf(s, "'%s' is not a class", s.Parent)
		}
		cls.Parent = parent.Class
	}
	for _, m := range s.Methods {
		cls.Methods[m.Name] = in.newFunction(m.Name, m.Params, m.Body, m.Async, m.Generator)
	}
	return done(value.Null()), in.wrap(s, in.env.Define(s.Name, value.ClassVal(cls)))
}

func (in *Interpreter) execYield(s *ast.YieldStmt) (completion, error) {
	if len(in.yields) == 0 {
		return completion{}, in.errorf(s, "yield outside of a generator")
	}
	v := value.Null()
	if s.Value != nil {
		var err error
		if v, err = in.eval(s.Value); err != nil {
			return completion{}, err
		}
	}
	top := len(in.yields) - 1
	in.yields[top] = append(in.yields[top], v)
	return done(value.Null()), nil
}

func (in *Interpreter) execIf(s *ast.IfStmt) (completion, error) {
	cond, err := in.eval(s.Condition)
	if err != nil {
		return completion{}, err
	}
	if value.Truthy(cond) {
		return in.execBlock(s.Conseq)
	}
	for _, clause := range s.ElseIfs {
		cond, err := in.eval(clause.Condition)
		if err != nil {
			return completion{}, err
		}
		if value.Truthy(cond) {
			return in.execBlock(clause.Conseq)
		}
	}
	return in.execBlock(s.Alt)
}

func (in *Interpreter) execWhile(s *ast.WhileStmt) (completion, error) {
	last := value.Null()
	for {
		cond, err := in.eval(s.Condition)
		if err != nil {
			return completion{}, err
		}
		if !value.Truthy(cond) {
			return done(last), nil
		}
		c, err := in.execBlock(s.Body)
		if err != nil {
			return completion{}, err
		}
		switch c.kind {
		case broke:
			return done(last), nil
		case returned:
			return c, nil
		case normal:
			last = c.value
		}
	}
}

func (in *Interpreter) execFor(s *ast.ForStmt) (completion, error) {
	iterable, err := in.eval(s.Iterable)
	if err != nil {
		return completion{}, err
	}
	items, err := value.Iterate(iterable)
	if err != nil {
		return completion{}, in.wrap(s.Iterable, err)
	}
	last := value.Null()
	for _, item := range items {
		scope := value.NewEnvironment(in.env)
		if err := scope.Define(s.Var, item); err != nil {
			return completion{}, in.wrap(s, err)
		}
		c, err := in.execStatements(s.Body.Statements, scope)
		if err != nil {
			return completion{}, err
		}
		switch c.kind {
		case broke:
			return done(last), nil
		case returned:
			return c, nil
		case normal:
			last = c.value
		}
	}
	return done(last), nil
}

// execTry runs the catch clause only when the body fails and the finally
// clause always. A failure or jump out of finally replaces the outcome of
// the body.
func (in *Interpreter) execTry(s *ast.TryStmt) (completion, error) {
	c, err := in.execBlock(s.Body)
	if err != nil && s.Catch != nil {
		scope := value.NewEnvironment(in.env)
		if s.CatchVar != "" {
			if derr := scope.Define(s.CatchVar, caught(err)); derr != nil {
				return completion{}, in.wrap(s, derr)
			}
		}
		c, err = in.execStatements(s.Catch.Statements, scope)
	}
	if s.Finally != nil {
		fc, ferr := in.execBlock(s.Finally)
		if ferr != nil {
			return completion{}, ferr
		}
		if fc.kind != normal {
			return fc, nil
		}
	}
	return c, err
}

func (in *Interpreter) execAssert(s *ast.AssertStmt) (completion, error) {
	cond, err := in.eval(s.Condition)
	if err != nil {
		return completion{}, err
	}
	args := []value.Value{cond}
	if s.Message != nil {
		msg, err := in.eval(s.Message)
		if err != nil {
			return completion{}, err
		}
		args = append(args, msg)
	}
	spec, _ := runtime.LookupByName(check.Name)
	_, err = spec.Handler(in, args)
	return done(value.Null()), in.wrap(s, err)
}

func (in *Interpreter) execMatch(s *ast.MatchStmt) (completion, error) {
	subject, err := in.eval(s.Subject)
	if err != nil {
		return completion{}, err
	}
	for _, mc := range s.Cases {
		for _, expr := range mc.Values {
			v, err := in.eval(expr)
			if err != nil {
				return completion{}, err
			}
			if value.Equal(subject, v) {
				return in.execBlock(mc.Body)
			}
		}
	}
	return in.execBlock(s.Default)
}
