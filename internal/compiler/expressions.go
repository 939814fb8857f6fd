package compiler

import (
	"fmt"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/token"
	"github.com/xirelogy/go-mumei/internal/value"
)

var binaryOps = map[token.Type]byte{
	token.Plus:         OP_ADD,
	token.Minus:        OP_SUB,
	token.Star:         OP_MUL,
	token.Slash:        OP_DIV,
	token.Percent:      OP_MOD,
	token.Power:        OP_POW,
	token.FloorDiv:     OP_FLOORDIV,
	token.Equal:        OP_EQ,
	token.NotEqual:     OP_NEQ,
	token.Less:         OP_LT,
	token.LessEqual:    OP_LTE,
	token.Greater:      OP_GT,
	token.GreaterEqual: OP_GTE,
	token.ShiftLeft:    OP_SHL,
	token.ShiftRight:   OP_SHR,
}

func (c *compiler) compileExpr(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emitConst(value.Number(e.Value))
	case *ast.StringLiteral:
		c.emitConst(value.String(e.Value))
	case *ast.BoolLiteral:
		c.emitConst(value.Bool(e.Value))
	case *ast.NullLiteral:
		c.emitConst(value.Null())
	case *ast.Identifier:
		c.emitName(OP_GET_GLOBAL, e.Name)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emit(OP_ARRAY, len(e.Elements))
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			if err := c.compileExpr(entry.Key); err != nil {
				return err
			}
			if err := c.compileExpr(entry.Value); err != nil {
				return err
			}
		}
		c.emit(OP_OBJECT, len(e.Entries))
	case *ast.BinaryExpr:
		return c.compileBinary(e)
	case *ast.UnaryExpr:
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		switch e.Operator {
		case token.Minus:
			c.emit(OP_NEG, 0)
		case token.Not:
			c.emit(OP_NOT, 0)
		default:
			return &Error{Message: fmt.Sprintf("unknown unary operator %s", e.Operator), Pos: e.Pos()}
		}
	case *ast.AssignExpr:
		return c.compileAssign(e)
	case *ast.CompoundAssignExpr:
		return c.compileCompoundAssign(e)
	case *ast.CallExpr:
		return c.compileCall(e)
	case *ast.IndexExpr:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.emit(OP_INDEX_GET, 0)
	case *ast.MemberExpr:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		c.emitName(OP_GET_PROP, e.Property)
	case *ast.SliceExpr:
		for _, part := range []ast.Expression{e.Left, e.Start, e.End} {
			if part == nil {
				c.emitConst(value.Null())
				continue
			}
			if err := c.compileExpr(part); err != nil {
				return err
			}
		}
		c.emit(OP_SLICE, 0)
	case *ast.FuncExpr:
		return c.compileFunction(e, "<lambda>", e.Params, e.Body, e.Async, e.Generator)
	case *ast.TernaryExpr:
		if err := c.compileExpr(e.Condition); err != nil {
			return err
		}
		alt := c.emit(OP_JUMP_IF_FALSE, 0)
		if err := c.compileExpr(e.Then); err != nil {
			return err
		}
		end := c.emit(OP_JUMP, 0)
		c.patch(alt)
		if err := c.compileExpr(e.Else); err != nil {
			return err
		}
		c.patch(end)
	case *ast.AwaitExpr:
		return c.compileExpr(e.Value)
	default:
		return unsupported(expr, describe(expr))
	}
	return nil
}

func (c *compiler) compileBinary(e *ast.BinaryExpr) error {
	if e.Operator == token.And || e.Operator == token.Or {
		return c.compileLogical(e)
	}
	op, ok := binaryOps[e.Operator]
	if !ok {
		return &Error{Message: fmt.Sprintf("unknown operator %s", e.Operator), Pos: e.Pos()}
	}
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	c.emit(op, 0)
	return nil
}

// compileLogical leaves the deciding operand on the stack, so `a or b`
// yields a itself when it is truthy.
func (c *compiler) compileLogical(e *ast.BinaryExpr) error {
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	c.emit(OP_DUP, 0)
	jump := OP_JUMP_IF_FALSE
	if e.Operator == token.Or {
		jump = OP_JUMP_IF_TRUE
	}
	end := c.emit(jump, 0)
	c.emit(OP_POP, 0)
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	c.patch(end)
	return nil
}

func (c *compiler) compileAssign(e *ast.AssignExpr) error {
	switch t := e.Target.(type) {
	case *ast.Identifier:
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emit(OP_DUP, 0)
		c.emitName(OP_SET_GLOBAL, t.Name)
	case *ast.IndexExpr:
		if err := c.compileExpr(t.Left); err != nil {
			return err
		}
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emit(OP_INDEX_SET, 0)
	case *ast.MemberExpr:
		if err := c.compileExpr(t.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emitName(OP_SET_PROP, t.Property)
	default:
		return &Error{Message: "invalid assignment target", Pos: e.Pos()}
	}
	return nil
}

// compileCompoundAssign evaluates the target's container and index once,
// duplicating them for the read.
func (c *compiler) compileCompoundAssign(e *ast.CompoundAssignExpr) error {
	op, ok := binaryOps[e.Operator]
	if !ok {
		return &Error{Message: fmt.Sprintf("unknown operator %s", e.Operator), Pos: e.Pos()}
	}
	switch t := e.Target.(type) {
	case *ast.Identifier:
		c.emitName(OP_GET_GLOBAL, t.Name)
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emit(op, 0)
		c.emit(OP_DUP, 0)
		c.emitName(OP_SET_GLOBAL, t.Name)
	case *ast.IndexExpr:
		if err := c.compileExpr(t.Left); err != nil {
			return err
		}
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		c.emit(OP_DUP2, 0)
		c.emit(OP_INDEX_GET, 0)
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emit(op, 0)
		c.emit(OP_INDEX_SET, 0)
	case *ast.MemberExpr:
		if err := c.compileExpr(t.Left); err != nil {
			return err
		}
		c.emit(OP_DUP, 0)
		c.emitName(OP_GET_PROP, t.Property)
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emit(op, 0)
		c.emitName(OP_SET_PROP, t.Property)
	default:
		return &Error{Message: "invalid assignment target", Pos: e.Pos()}
	}
	return nil
}

func (c *compiler) compileCall(e *ast.CallExpr) error {
	if name, ok := builtinName(e.Callee); ok && name == printBuiltin && len(e.Arguments) == 1 {
		if err := c.compileExpr(e.Arguments[0]); err != nil {
			return err
		}
		c.emit(OP_PRINT, 0)
		return nil
	}
	if err := c.compileExpr(e.Callee); err != nil {
		return err
	}
	for _, arg := range e.Arguments {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.emit(OP_CALL, len(e.Arguments))
	return nil
}
