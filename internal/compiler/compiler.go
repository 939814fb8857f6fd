// Package compiler lowers a syntax tree to the linear instruction stream
// executed by the VM. Variables live in one flat global table; function
// parameters are bound by the VM on call and restored on return.
package compiler

import (
	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/bytecode"
	"github.com/xirelogy/go-mumei/internal/value"
)

// Compile translates prog into bytecode that ends with OP_HALT. The value
// of the last top-level statement is left on the stack for OP_HALT.
func Compile(prog *ast.Program) (*ByteCode, error) {
	c := &compiler{
		bc:    bytecode.New(),
		scope: newScope(nil, ""),
	}
	if err := c.compileStatements(prog.Statements, true); err != nil {
		return nil, err
	}
	c.emit(OP_HALT, 0)
	return c.bc, nil
}

type compiler struct {
	bc    *ByteCode
	scope *scope
	line  int
}

// compileStatements compiles stmts. With keep set, exactly one value is
// left on the stack: the last statement's, or null.
func (c *compiler) compileStatements(stmts []ast.Statement, keep bool) error {
	if len(stmts) == 0 {
		if keep {
			c.emitConst(value.Null())
		}
		return nil
	}
	for i, stmt := range stmts {
		if err := c.compileStatement(stmt, keep && i == len(stmts)-1); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileBlock(block *ast.BlockStmt, keep bool) error {
	if block == nil {
		if keep {
			c.emitConst(value.Null())
		}
		return nil
	}
	return c.compileStatements(block.Statements, keep)
}

func (c *compiler) compileStatement(stmt ast.Statement, keep bool) error {
	c.setLine(stmt.Pos().Line)
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpr(s.Expression); err != nil {
			return err
		}
		if !keep {
			c.emit(OP_POP, 0)
		}
		return nil
	case *ast.IfStmt:
		return c.compileIf(s, keep)
	case *ast.ReturnStmt:
		if s.Value != nil {
			if err := c.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			c.emitConst(value.Null())
		}
		c.emit(OP_RETURN, 0)
		return nil
	case *ast.BreakStmt:
		l := c.scope.innermost()
		if l == nil {
			return &Error{Message: "break outside of a loop", Pos: s.Pos()}
		}
		l.breaks = append(l.breaks, c.emit(OP_JUMP, 0))
		return nil
	case *ast.ContinueStmt:
		l := c.scope.innermost()
		if l == nil {
			return &Error{Message: "continue outside of a loop", Pos: s.Pos()}
		}
		c.emit(OP_JUMP, l.continueTarget)
		return nil
	}

	var err error
	switch s := stmt.(type) {
	case *ast.VarDecl:
		err = c.compileVarDecl(s)
	case *ast.FuncDecl:
		if err = c.compileFunction(s, s.Name, s.Params, s.Body, s.Async, s.Generator); err == nil {
			c.emitName(OP_DEFINE_GLOBAL, s.Name)
		}
	case *ast.WhileStmt:
		err = c.compileWhile(s)
	case *ast.ForStmt:
		err = c.compileFor(s)
	case *ast.PassStmt:
	case *ast.AssertStmt:
		err = c.compileAssert(s)
	default:
		return unsupported(stmt, describe(stmt))
	}
	if err != nil {
		return err
	}
	if keep {
		c.emitConst(value.Null())
	}
	return nil
}

func (c *compiler) compileVarDecl(s *ast.VarDecl) error {
	if s.Value != nil {
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
	} else {
		c.emitConst(value.Null())
	}
	if s.Const {
		c.emitName(OP_DEFINE_CONST, s.Name)
	} else {
		c.emitName(OP_DEFINE_GLOBAL, s.Name)
	}
	return nil
}

// compileIf emits one conditional jump per condition, patched to the next
// clause, and one jump per branch, patched to the end of the statement.
func (c *compiler) compileIf(s *ast.IfStmt, keep bool) error {
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	next := c.emit(OP_JUMP_IF_FALSE, 0)
	if err := c.compileBlock(s.Conseq, keep); err != nil {
		return err
	}
	ends := []int{c.emit(OP_JUMP, 0)}
	c.patch(next)

	for _, clause := range s.ElseIfs {
		c.setLine(clause.Pos.Line)
		if err := c.compileExpr(clause.Condition); err != nil {
			return err
		}
		next := c.emit(OP_JUMP_IF_FALSE, 0)
		if err := c.compileBlock(clause.Conseq, keep); err != nil {
			return err
		}
		ends = append(ends, c.emit(OP_JUMP, 0))
		c.patch(next)
	}

	if err := c.compileBlock(s.Alt, keep); err != nil {
		return err
	}
	for _, pos := range ends {
		c.patch(pos)
	}
	return nil
}

func (c *compiler) compileWhile(s *ast.WhileStmt) error {
	head := c.bc.Len()
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	exit := c.emit(OP_JUMP_IF_FALSE, 0)
	l := c.scope.pushLoop(head, false)
	if err := c.compileBlock(s.Body, false); err != nil {
		return err
	}
	c.scope.popLoop()
	c.emit(OP_JUMP, head)
	c.patch(exit)
	for _, pos := range l.breaks {
		c.patch(pos)
	}
	return nil
}

// compileFor keeps the iterated items and a cursor on the stack:
//
//	<iterable> ITER_PREP
//	head: ITER_NEXT exit; DEFINE_GLOBAL var; <body>; JUMP head
//	breaks: POP; POP
//	exit:
func (c *compiler) compileFor(s *ast.ForStmt) error {
	if err := c.compileExpr(s.Iterable); err != nil {
		return err
	}
	c.emit(OP_ITER_PREP, 0)
	head := c.emit(OP_ITER_NEXT, 0)
	c.emitName(OP_DEFINE_GLOBAL, s.Var)
	l := c.scope.pushLoop(head, true)
	if err := c.compileBlock(s.Body, false); err != nil {
		return err
	}
	c.scope.popLoop()
	c.emit(OP_JUMP, head)
	if len(l.breaks) > 0 {
		for _, pos := range l.breaks {
			c.patch(pos)
		}
		c.emit(OP_POP, 0)
		c.emit(OP_POP, 0)
	}
	c.patch(head)
	return nil
}

// compileFunction emits the body inline behind a jump and pushes the
// function value. The body returns the value of its last statement unless
// it returns earlier.
func (c *compiler) compileFunction(node ast.Node, name string, params []ast.Param, body *ast.BlockStmt, async, generator bool) error {
	if generator {
		return unsupported(node, "generator function")
	}
	fn := &value.Function{Name: name, Async: async}
	for _, p := range params {
		fn.Params = append(fn.Params, p.Name)
	}
	c.emitConst(value.FunctionVal(fn))
	skip := c.emit(OP_JUMP, 0)
	fn.Entry = c.bc.Len()

	c.scope = newScope(c.scope, name)
	err := c.compileBlock(body, true)
	c.scope = c.scope.enclosing
	if err != nil {
		return err
	}
	c.emit(OP_RETURN, 0)
	c.patch(skip)
	return nil
}

func (c *compiler) emit(op byte, arg int) int {
	return c.bc.Emit(op, arg, c.line)
}

func (c *compiler) emitConst(v value.Value) {
	c.emit(OP_CONST, c.bc.AddConstant(v))
}

func (c *compiler) emitName(op byte, name string) {
	c.emit(op, c.bc.AddConstant(value.String(name)))
}

// patch points the jump at pos to the next instruction.
func (c *compiler) patch(pos int) {
	c.bc.Patch(pos, c.bc.Len())
}

func (c *compiler) setLine(line int) {
	if line > 0 {
		c.line = line
	}
}
