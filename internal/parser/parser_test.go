package parser

import (
	"errors"
	"testing"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/token"
)

func mustParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return prog
}

func exprOf(t *testing.T, stmt ast.Statement) ast.Expression {
	t.Helper()
	es, ok := stmt.(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", stmt)
	}
	return es.Expression
}

func TestParseVarDeclAndExpr(t *testing.T) {
	prog := mustParse(t, "let x = 10\nconst y = x + 2\nx")
	if len(prog.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	if !ok || decl.Name != "x" || decl.Const {
		t.Fatalf("unexpected first statement %#v", prog.Statements[0])
	}
	c, ok := prog.Statements[1].(*ast.VarDecl)
	if !ok || !c.Const {
		t.Fatalf("expected const decl, got %#v", prog.Statements[1])
	}
	if _, ok := c.Value.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected BinaryExpr value, got %T", c.Value)
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"a or b and c", "(a or (b and c))"},
		{"a == b < c", "(a == (b < c))"},
		{"-2 ** 2", "(-(2 ** 2))"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"not a == b", "((not a) == b)"},
		{"a = b = 3", "(a = (b = 3))"},
		{"x += 1 + 2", "(x += (1 + 2))"},
		{"c ? 1 : d ? 2 : 3", "(c ? 1 : (d ? 2 : 3))"},
		{"a.b(1)[2]", "a.b(1)[2]"},
		{"10 // 3 % 2", "((10 // 3) % 2)"},
	}
	for _, tt := range tests {
		prog := mustParse(t, tt.input)
		got := ast.ExprString(exprOf(t, prog.Statements[0]))
		if got != tt.want {
			t.Fatalf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestParseIfElifElse(t *testing.T) {
	input := `if (x > 1) {
    1
} elif x == 1 {
    2
}
else {
    3
}`
	prog := mustParse(t, input)
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Statements[0])
	}
	cond, ok := stmt.Condition.(*ast.BinaryExpr)
	if !ok || cond.Operator != token.Greater {
		t.Fatalf("unexpected condition %#v", stmt.Condition)
	}
	if len(stmt.ElseIfs) != 1 || stmt.Alt == nil {
		t.Fatalf("expected one elif and an else")
	}
}

func TestParseForAndWhile(t *testing.T) {
	input := `for (item in items) {
    if item { break }
    continue
}
for c in "abc" { pass }
while i < 3 { i += 1 }`
	prog := mustParse(t, input)
	if len(prog.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Statements))
	}
	f, ok := prog.Statements[0].(*ast.ForStmt)
	if !ok || f.Var != "item" {
		t.Fatalf("unexpected for statement %#v", prog.Statements[0])
	}
	if len(f.Body.Statements) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(f.Body.Statements))
	}
	if _, ok := prog.Statements[2].(*ast.WhileStmt); !ok {
		t.Fatalf("expected WhileStmt, got %T", prog.Statements[2])
	}
}

func TestParseFunctions(t *testing.T) {
	input := `fun add(a, b) {
    return a + b
}
async fun fetch() { return 1 }
fun gen(n) { yield n }
let sq = fun (x) => x * x
let f = fun (x) {
    return x
}`
	prog := mustParse(t, input)
	fn, ok := prog.Statements[0].(*ast.FuncDecl)
	if !ok || fn.Name != "add" || len(fn.Params) != 2 || fn.Generator {
		t.Fatalf("unexpected func %#v", prog.Statements[0])
	}
	if a := prog.Statements[1].(*ast.FuncDecl); !a.Async {
		t.Fatalf("expected async function")
	}
	if g := prog.Statements[2].(*ast.FuncDecl); !g.Generator {
		t.Fatalf("expected generator function")
	}
	sq := prog.Statements[3].(*ast.VarDecl).Value.(*ast.FuncExpr)
	if len(sq.Body.Statements) != 1 {
		t.Fatalf("arrow body should hold one statement")
	}
	if _, ok := sq.Body.Statements[0].(*ast.ReturnStmt); !ok {
		t.Fatalf("arrow body should be a return, got %T", sq.Body.Statements[0])
	}
}

func TestParseLambdaArgumentSpanningLines(t *testing.T) {
	input := `apply(fun (x) {
    let y = x * 2
    return y
}, 3)`
	prog := mustParse(t, input)
	call, ok := exprOf(t, prog.Statements[0]).(*ast.CallExpr)
	if !ok || len(call.Arguments) != 2 {
		t.Fatalf("expected call with 2 args")
	}
	fn := call.Arguments[0].(*ast.FuncExpr)
	if len(fn.Body.Statements) != 2 {
		t.Fatalf("expected 2 lambda statements, got %d", len(fn.Body.Statements))
	}
}

func TestParseCollections(t *testing.T) {
	prog := mustParse(t, `[1, 2, 3,][1]
{"x": 42, "y": [1]}.x
{
    "a": 1,
    "b": 2
}
[x * 2 for x in xs if x > 1]
{k: k * k for k in range(0, 3)}
s[1:3]
s[:2]
s[1:]`)
	if len(prog.Statements) != 8 {
		t.Fatalf("expected 8 statements, got %d", len(prog.Statements))
	}
	idx := exprOf(t, prog.Statements[0]).(*ast.IndexExpr)
	if l := idx.Left.(*ast.ListLiteral); len(l.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(l.Elements))
	}
	member := exprOf(t, prog.Statements[1]).(*ast.MemberExpr)
	if member.Property != "x" {
		t.Fatalf("expected property x, got %s", member.Property)
	}
	if d := exprOf(t, prog.Statements[2]).(*ast.DictLiteral); len(d.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(d.Entries))
	}
	lc := exprOf(t, prog.Statements[3]).(*ast.ListComprehension)
	if lc.Var != "x" || lc.Condition == nil {
		t.Fatalf("unexpected list comprehension %#v", lc)
	}
	if dc := exprOf(t, prog.Statements[4]).(*ast.DictComprehension); dc.Var != "k" {
		t.Fatalf("unexpected dict comprehension %#v", dc)
	}
	s1 := exprOf(t, prog.Statements[5]).(*ast.SliceExpr)
	if s1.Start == nil || s1.End == nil {
		t.Fatalf("expected both slice bounds")
	}
	if s2 := exprOf(t, prog.Statements[6]).(*ast.SliceExpr); s2.Start != nil || s2.End == nil {
		t.Fatalf("unexpected slice bounds %#v", s2)
	}
	if s3 := exprOf(t, prog.Statements[7]).(*ast.SliceExpr); s3.Start == nil || s3.End != nil {
		t.Fatalf("unexpected slice bounds %#v", s3)
	}
}

func TestParseClassTryImportMatch(t *testing.T) {
	input := `class Dog : Animal {
    fun init(name) { this.name = name }
    fun speak() => "woof"
}
let d = new Dog("rex")
try {
    throw "bad"
} catch (e) {
    print(e)
} finally {
    pass
}
import math as m
from util import a, b as c
assert x > 0, "positive"
match x {
    case 1, 2 { "low" }
    default { "high" }
}`
	prog := mustParse(t, input)
	cls := prog.Statements[0].(*ast.ClassDecl)
	if cls.Name != "Dog" || cls.Parent != "Animal" || len(cls.Methods) != 2 {
		t.Fatalf("unexpected class %#v", cls)
	}
	if n := prog.Statements[1].(*ast.VarDecl).Value.(*ast.NewExpr); n.Class != "Dog" || len(n.Arguments) != 1 {
		t.Fatalf("unexpected new expression %#v", n)
	}
	try := prog.Statements[2].(*ast.TryStmt)
	if try.CatchVar != "e" || try.Catch == nil || try.Finally == nil {
		t.Fatalf("unexpected try %#v", try)
	}
	imp := prog.Statements[3].(*ast.ImportStmt)
	if imp.Module != "math" || imp.Alias != "m" {
		t.Fatalf("unexpected import %#v", imp)
	}
	from := prog.Statements[4].(*ast.ImportStmt)
	if from.Module != "util" || len(from.Names) != 2 || from.Names[1].Alias != "c" {
		t.Fatalf("unexpected from-import %#v", from)
	}
	if a := prog.Statements[5].(*ast.AssertStmt); a.Message == nil {
		t.Fatalf("expected assert message")
	}
	m := prog.Statements[6].(*ast.MatchStmt)
	if len(m.Cases) != 1 || len(m.Cases[0].Values) != 2 || m.Default == nil {
		t.Fatalf("unexpected match %#v", m)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"let = 5", UnexpectedToken},
		{"f(1, 2", UnexpectedEOF},
		{"f(1,)", UnexpectedToken},
		{"if x { 1", UnexpectedEOF},
		{"1 + 2 = 3", InvalidSyntax},
		{"break", InvalidSyntax},
		{"yield 1", InvalidSyntax},
		{"try { 1 }", UnexpectedEOF},
		{"const x", InvalidSyntax},
		{"let x = 1 2", UnexpectedToken},
		{"fun f(a, a) { }", InvalidSyntax},
		{"[1, 2", UnexpectedEOF},
		{"x.", UnexpectedToken},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil {
			t.Fatalf("%q: expected error", tt.input)
		}
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected *Error, got %T (%v)", tt.input, err, err)
		}
		if perr.Kind != tt.kind {
			t.Fatalf("%q: expected kind %v, got %v (%v)", tt.input, tt.kind, perr.Kind, perr)
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("let x = 1\nlet 5 = x")
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "2:5: expected variable name, got number 5"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
