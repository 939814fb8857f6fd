package ast

import (
	"strings"
	"testing"

	"github.com/xirelogy/go-mumei/internal/token"
)

func TestFprintTree(t *testing.T) {
	prog := &Program{Statements: []Statement{
		&VarDecl{Name: "x", Value: &NumberLiteral{Value: 10}},
		&WhileStmt{
			Condition: &BinaryExpr{Left: &Identifier{Name: "x"}, Operator: token.Greater, Right: &NumberLiteral{Value: 0}},
			Body: &BlockStmt{Statements: []Statement{
				&ExprStmt{Expression: &CompoundAssignExpr{Target: &Identifier{Name: "x"}, Operator: token.Minus, Value: &NumberLiteral{Value: 1}}},
			}},
		},
	}}

	var sb strings.Builder
	if err := Fprint(&sb, prog); err != nil {
		t.Fatalf("fprint: %v", err)
	}
	want := `Program
  VarDecl let x = 10
  While (x > 0)
    Body
      Expr (x -= 1)
`
	if sb.String() != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestExprStringLiterals(t *testing.T) {
	tests := []struct {
		expr Expression
		want string
	}{
		{&NumberLiteral{Value: 2.5}, "2.5"},
		{&StringLiteral{Value: "a\"b"}, `"a\"b"`},
		{&ListLiteral{Elements: []Expression{&BoolLiteral{Value: true}, &NullLiteral{}}}, "[true, null]"},
		{&DictLiteral{Entries: []DictEntry{{Key: &StringLiteral{Value: "k"}, Value: &NumberLiteral{Value: 1}}}}, `{"k": 1}`},
		{&UnaryExpr{Operator: token.Not, Right: &Identifier{Name: "ok"}}, "(not ok)"},
		{&SliceExpr{Left: &Identifier{Name: "s"}, End: &NumberLiteral{Value: 2}}, "s[:2]"},
	}
	for _, tt := range tests {
		if got := ExprString(tt.expr); got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}
