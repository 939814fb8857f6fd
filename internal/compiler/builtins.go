package compiler

import (
	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/builtins/check"
	"github.com/xirelogy/go-mumei/internal/runtime"
)

// printBuiltin is lowered to OP_PRINT when called with one argument.
const printBuiltin = "println"

func builtinName(expr ast.Expression) (string, bool) {
	if ident, ok := expr.(*ast.Identifier); ok {
		if _, exists := runtime.LookupByName(ident.Name); exists {
			return ident.Name, true
		}
	}
	return "", false
}

// compileAssert lowers `assert cond, msg` to a call of the assert builtin.
func (c *compiler) compileAssert(s *ast.AssertStmt) error {
	c.emitName(OP_GET_GLOBAL, check.Name)
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	argc := 1
	if s.Message != nil {
		if err := c.compileExpr(s.Message); err != nil {
			return err
		}
		argc++
	}
	c.emit(OP_CALL, argc)
	c.emit(OP_POP, 0)
	return nil
}
