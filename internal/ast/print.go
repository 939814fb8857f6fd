package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-mumei/internal/token"
)

var operatorText = map[token.Type]string{
	token.Plus:         "+",
	token.Minus:        "-",
	token.Star:         "*",
	token.Slash:        "/",
	token.Percent:      "%",
	token.Power:        "**",
	token.FloorDiv:     "//",
	token.Equal:        "==",
	token.NotEqual:     "!=",
	token.Less:         "<",
	token.LessEqual:    "<=",
	token.Greater:      ">",
	token.GreaterEqual: ">=",
	token.ShiftLeft:    "<<",
	token.ShiftRight:   ">>",
	token.And:          "and",
	token.Or:           "or",
	token.Not:          "not",
}

// OperatorText returns the source spelling of an operator token type.
func OperatorText(t token.Type) string {
	if s, ok := operatorText[t]; ok {
		return s
	}
	return string(t)
}

// ExprString renders an expression on one line with every binary, unary,
// assignment and ternary node parenthesized.
func ExprString(e Expression) string {
	switch n := e.(type) {
	case nil:
		return ""
	case *Identifier:
		return n.Name
	case *NumberLiteral:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *StringLiteral:
		return strconv.Quote(n.Value)
	case *BoolLiteral:
		return strconv.FormatBool(n.Value)
	case *NullLiteral:
		return "null"
	case *ListLiteral:
		return "[" + joinExprs(n.Elements) + "]"
	case *DictLiteral:
		parts := make([]string, len(n.Entries))
		for i, entry := range n.Entries {
			parts[i] = ExprString(entry.Key) + ": " + ExprString(entry.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *BinaryExpr:
		return "(" + ExprString(n.Left) + " " + OperatorText(n.Operator) + " " + ExprString(n.Right) + ")"
	case *UnaryExpr:
		if n.Operator == token.Not {
			return "(not " + ExprString(n.Right) + ")"
		}
		return "(" + OperatorText(n.Operator) + ExprString(n.Right) + ")"
	case *AssignExpr:
		return "(" + ExprString(n.Target) + " = " + ExprString(n.Value) + ")"
	case *CompoundAssignExpr:
		return "(" + ExprString(n.Target) + " " + OperatorText(n.Operator) + "= " + ExprString(n.Value) + ")"
	case *CallExpr:
		return ExprString(n.Callee) + "(" + joinExprs(n.Arguments) + ")"
	case *IndexExpr:
		return ExprString(n.Left) + "[" + ExprString(n.Index) + "]"
	case *MemberExpr:
		return ExprString(n.Left) + "." + n.Property
	case *SliceExpr:
		return ExprString(n.Left) + "[" + ExprString(n.Start) + ":" + ExprString(n.End) + "]"
	case *FuncExpr:
		return "fun (" + paramNames(n.Params) + ") {...}"
	case *ListComprehension:
		s := "[" + ExprString(n.Element) + " for " + n.Var + " in " + ExprString(n.Iterable)
		if n.Condition != nil {
			s += " if " + ExprString(n.Condition)
		}
		return s + "]"
	case *DictComprehension:
		s := "{" + ExprString(n.Key) + ": " + ExprString(n.Value) + " for " + n.Var + " in " + ExprString(n.Iterable)
		if n.Condition != nil {
			s += " if " + ExprString(n.Condition)
		}
		return s + "}"
	case *TernaryExpr:
		return "(" + ExprString(n.Condition) + " ? " + ExprString(n.Then) + " : " + ExprString(n.Else) + ")"
	case *AwaitExpr:
		return "(await " + ExprString(n.Value) + ")"
	case *NewExpr:
		return "new " + n.Class + "(" + joinExprs(n.Arguments) + ")"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func joinExprs(list []Expression) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func paramNames(params []Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// Fprint writes an indented tree view of node to w. The output is meant for
// people, not for parsing back.
func Fprint(w io.Writer, node Node) error {
	pr := &printer{w: w}
	pr.node(node, 0)
	return pr.err
}

type printer struct {
	w   io.Writer
	err error
}

func (pr *printer) line(depth int, format string, args ...any) {
	if pr.err != nil {
		return
	}
	_, pr.err = fmt.Fprintf(pr.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (pr *printer) block(label string, b *BlockStmt, depth int) {
	if b == nil {
		return
	}
	pr.line(depth, "%s", label)
	for _, s := range b.Statements {
		pr.node(s, depth+1)
	}
}

func (pr *printer) node(node Node, depth int) {
	switch n := node.(type) {
	case *Program:
		pr.line(depth, "Program")
		for _, s := range n.Statements {
			pr.node(s, depth+1)
		}
	case *BlockStmt:
		pr.block("Block", n, depth)
	case *ExprStmt:
		pr.line(depth, "Expr %s", ExprString(n.Expression))
	case *VarDecl:
		kind := "let"
		if n.Const {
			kind = "const"
		}
		pr.line(depth, "VarDecl %s %s = %s", kind, n.Name, ExprString(n.Value))
	case *FuncDecl:
		prefix := ""
		if n.Async {
			prefix = "async "
		}
		pr.line(depth, "%sFuncDecl %s(%s)", prefix, n.Name, paramNames(n.Params))
		pr.block("Body", n.Body, depth+1)
	case *ClassDecl:
		if n.Parent != "" {
			pr.line(depth, "ClassDecl %s : %s", n.Name, n.Parent)
		} else {
			pr.line(depth, "ClassDecl %s", n.Name)
		}
		for _, m := range n.Methods {
			pr.node(m, depth+1)
		}
	case *ReturnStmt:
		pr.line(depth, "Return %s", ExprString(n.Value))
	case *YieldStmt:
		pr.line(depth, "Yield %s", ExprString(n.Value))
	case *IfStmt:
		pr.line(depth, "If %s", ExprString(n.Condition))
		pr.block("Then", n.Conseq, depth+1)
		for _, clause := range n.ElseIfs {
			pr.line(depth+1, "Elif %s", ExprString(clause.Condition))
			pr.block("Then", clause.Conseq, depth+2)
		}
		pr.block("Else", n.Alt, depth+1)
	case *WhileStmt:
		pr.line(depth, "While %s", ExprString(n.Condition))
		pr.block("Body", n.Body, depth+1)
	case *ForStmt:
		pr.line(depth, "For %s in %s", n.Var, ExprString(n.Iterable))
		pr.block("Body", n.Body, depth+1)
	case *BreakStmt:
		pr.line(depth, "Break")
	case *ContinueStmt:
		pr.line(depth, "Continue")
	case *PassStmt:
		pr.line(depth, "Pass")
	case *TryStmt:
		pr.line(depth, "Try")
		pr.block("Body", n.Body, depth+1)
		if n.Catch != nil {
			pr.block("Catch "+n.CatchVar, n.Catch, depth+1)
		}
		pr.block("Finally", n.Finally, depth+1)
	case *ThrowStmt:
		pr.line(depth, "Throw %s", ExprString(n.Value))
	case *ImportStmt:
		switch {
		case len(n.Names) > 0:
			names := make([]string, len(n.Names))
			for i, name := range n.Names {
				names[i] = name.Name
				if name.Alias != "" {
					names[i] += " as " + name.Alias
				}
			}
			pr.line(depth, "Import %s: %s", n.Module, strings.Join(names, ", "))
		case n.Alias != "":
			pr.line(depth, "Import %s as %s", n.Module, n.Alias)
		default:
			pr.line(depth, "Import %s", n.Module)
		}
	case *AssertStmt:
		pr.line(depth, "Assert %s", ExprString(n.Condition))
	case *MatchStmt:
		pr.line(depth, "Match %s", ExprString(n.Subject))
		for _, c := range n.Cases {
			pr.block("Case "+joinExprs(c.Values), c.Body, depth+1)
		}
		pr.block("Default", n.Default, depth+1)
	case Expression:
		pr.line(depth, "%s", ExprString(n))
	default:
		pr.line(depth, "<%T>", node)
	}
}
