package compiler

import (
	"fmt"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/token"
)

// Error reports a construct the bytecode compiler cannot translate.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

func unsupported(node ast.Node, what string) error {
	return &Error{Message: what + " is not supported by the bytecode compiler", Pos: node.Pos()}
}

// describe names a node kind for error messages.
func describe(node ast.Node) string {
	switch n := node.(type) {
	case *ast.ClassDecl:
		return "class declaration"
	case *ast.TryStmt:
		return "try statement"
	case *ast.ThrowStmt:
		return "throw statement"
	case *ast.ImportStmt:
		return "import statement"
	case *ast.MatchStmt:
		return "match statement"
	case *ast.YieldStmt:
		return "yield"
	case *ast.ListComprehension:
		return "list comprehension"
	case *ast.DictComprehension:
		return "dictionary comprehension"
	case *ast.NewExpr:
		return "new expression"
	default:
		return fmt.Sprintf("%T", n)
	}
}
