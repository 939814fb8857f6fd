package ast

import "github.com/xirelogy/go-mumei/internal/token"

// Node represents any AST node.
type Node interface {
	Pos() token.Position
	Span() token.Span
}

// Statement is an executable node.
type Statement interface {
	Node
	stmtNode()
}

// Expression produces a value.
type Expression interface {
	Node
	exprNode()
}

// Program is the root node.
type Program struct {
	Statements []Statement
	NodeSpan   token.Span
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) == 0 {
		return token.Position{}
	}
	return p.Statements[0].Pos()
}
func (p *Program) Span() token.Span { return p.NodeSpan }

// Statements

type BlockStmt struct {
	LBrace     token.Position
	Statements []Statement
	BlockSpan  token.Span
}

func (b *BlockStmt) Pos() token.Position { return b.LBrace }
func (b *BlockStmt) Span() token.Span    { return b.BlockSpan }
func (b *BlockStmt) stmtNode()           {}

type ExprStmt struct {
	Expression Expression
	Start      token.Position
	StmtSpan   token.Span
}

func (e *ExprStmt) Pos() token.Position { return e.Start }
func (e *ExprStmt) Span() token.Span    { return e.StmtSpan }
func (e *ExprStmt) stmtNode()           {}

// VarDecl is a let or const declaration.
type VarDecl struct {
	Name  string
	Value Expression
	Const bool
	PosT  token.Position
	Sp    token.Span
}

func (v *VarDecl) Pos() token.Position { return v.PosT }
func (v *VarDecl) Span() token.Span    { return v.Sp }
func (v *VarDecl) stmtNode()           {}

type Param struct {
	Name string
	Pos  token.Position
	Sp   token.Span
}

// FuncDecl declares a named function. Generator is set when the body
// contains a yield statement outside nested functions.
type FuncDecl struct {
	Name      string
	Params    []Param
	Body      *BlockStmt
	Async     bool
	Generator bool
	PosT      token.Position
	Sp        token.Span
}

func (f *FuncDecl) Pos() token.Position { return f.PosT }
func (f *FuncDecl) Span() token.Span    { return f.Sp }
func (f *FuncDecl) stmtNode()           {}

type ClassDecl struct {
	Name    string
	Parent  string // empty when the class has no parent
	Methods []*FuncDecl
	PosT    token.Position
	Sp      token.Span
}

func (c *ClassDecl) Pos() token.Position { return c.PosT }
func (c *ClassDecl) Span() token.Span    { return c.Sp }
func (c *ClassDecl) stmtNode()           {}

type ReturnStmt struct {
	Return   token.Position
	Value    Expression
	StmtSpan token.Span
}

func (r *ReturnStmt) Pos() token.Position { return r.Return }
func (r *ReturnStmt) Span() token.Span    { return r.StmtSpan }
func (r *ReturnStmt) stmtNode()           {}

type YieldStmt struct {
	PosT  token.Position
	Value Expression
	Sp    token.Span
}

func (y *YieldStmt) Pos() token.Position { return y.PosT }
func (y *YieldStmt) Span() token.Span    { return y.Sp }
func (y *YieldStmt) stmtNode()           {}

type IfStmt struct {
	IfPos     token.Position
	Condition Expression
	Conseq    *BlockStmt
	ElseIfs   []ElseIfClause
	Alt       *BlockStmt
	IfSpan    token.Span
}

func (i *IfStmt) Pos() token.Position { return i.IfPos }
func (i *IfStmt) Span() token.Span    { return i.IfSpan }
func (i *IfStmt) stmtNode()           {}

type ElseIfClause struct {
	Condition Expression
	Conseq    *BlockStmt
	Pos       token.Position
	Span      token.Span
}

type WhileStmt struct {
	WhilePos  token.Position
	Condition Expression
	Body      *BlockStmt
	NodeSpan  token.Span
}

func (w *WhileStmt) Pos() token.Position { return w.WhilePos }
func (w *WhileStmt) Span() token.Span    { return w.NodeSpan }
func (w *WhileStmt) stmtNode()           {}

type ForStmt struct {
	ForPos   token.Position
	Var      string
	Iterable Expression
	Body     *BlockStmt
	NodeSpan token.Span
}

func (f *ForStmt) Pos() token.Position { return f.ForPos }
func (f *ForStmt) Span() token.Span    { return f.NodeSpan }
func (f *ForStmt) stmtNode()           {}

type BreakStmt struct {
	PosT token.Position
	Sp   token.Span
}

func (b *BreakStmt) Pos() token.Position { return b.PosT }
func (b *BreakStmt) Span() token.Span    { return b.Sp }
func (b *BreakStmt) stmtNode()           {}

type ContinueStmt struct {
	PosT token.Position
	Sp   token.Span
}

func (c *ContinueStmt) Pos() token.Position { return c.PosT }
func (c *ContinueStmt) Span() token.Span    { return c.Sp }
func (c *ContinueStmt) stmtNode()           {}

type PassStmt struct {
	PosT token.Position
	Sp   token.Span
}

func (p *PassStmt) Pos() token.Position { return p.PosT }
func (p *PassStmt) Span() token.Span    { return p.Sp }
func (p *PassStmt) stmtNode()           {}

// TryStmt holds try/catch/finally. Catch or Finally may be nil, not both.
type TryStmt struct {
	PosT     token.Position
	Body     *BlockStmt
	CatchVar string
	Catch    *BlockStmt
	Finally  *BlockStmt
	Sp       token.Span
}

func (t *TryStmt) Pos() token.Position { return t.PosT }
func (t *TryStmt) Span() token.Span    { return t.Sp }
func (t *TryStmt) stmtNode()           {}

type ThrowStmt struct {
	PosT  token.Position
	Value Expression
	Sp    token.Span
}

func (t *ThrowStmt) Pos() token.Position { return t.PosT }
func (t *ThrowStmt) Span() token.Span    { return t.Sp }
func (t *ThrowStmt) stmtNode()           {}

// ImportStmt covers `import m`, `import m as a` and `from m import x, y as z`.
// Names is empty for the first two forms.
type ImportStmt struct {
	PosT   token.Position
	Module string
	Alias  string
	Names  []ImportName
	Sp     token.Span
}

type ImportName struct {
	Name  string
	Alias string
}

func (i *ImportStmt) Pos() token.Position { return i.PosT }
func (i *ImportStmt) Span() token.Span    { return i.Sp }
func (i *ImportStmt) stmtNode()           {}

type AssertStmt struct {
	PosT      token.Position
	Condition Expression
	Message   Expression
	Sp        token.Span
}

func (a *AssertStmt) Pos() token.Position { return a.PosT }
func (a *AssertStmt) Span() token.Span    { return a.Sp }
func (a *AssertStmt) stmtNode()           {}

type MatchStmt struct {
	PosT    token.Position
	Subject Expression
	Cases   []MatchCase
	Default *BlockStmt
	Sp      token.Span
}

type MatchCase struct {
	Values []Expression
	Body   *BlockStmt
	Pos    token.Position
}

func (m *MatchStmt) Pos() token.Position { return m.PosT }
func (m *MatchStmt) Span() token.Span    { return m.Sp }
func (m *MatchStmt) stmtNode()           {}

// Expressions

type Identifier struct {
	Name string
	PosT token.Position
	Sp   token.Span
}

func (i *Identifier) Pos() token.Position { return i.PosT }
func (i *Identifier) Span() token.Span    { return i.Sp }
func (i *Identifier) exprNode()           {}

type NumberLiteral struct {
	Value float64
	PosT  token.Position
	Sp    token.Span
}

func (n *NumberLiteral) Pos() token.Position { return n.PosT }
func (n *NumberLiteral) Span() token.Span    { return n.Sp }
func (n *NumberLiteral) exprNode()           {}

type StringLiteral struct {
	Value string
	PosT  token.Position
	Sp    token.Span
}

func (s *StringLiteral) Pos() token.Position { return s.PosT }
func (s *StringLiteral) Span() token.Span    { return s.Sp }
func (s *StringLiteral) exprNode()           {}

type BoolLiteral struct {
	Value bool
	PosT  token.Position
	Sp    token.Span
}

func (b *BoolLiteral) Pos() token.Position { return b.PosT }
func (b *BoolLiteral) Span() token.Span    { return b.Sp }
func (b *BoolLiteral) exprNode()           {}

type NullLiteral struct {
	PosT token.Position
	Sp   token.Span
}

func (n *NullLiteral) Pos() token.Position { return n.PosT }
func (n *NullLiteral) Span() token.Span    { return n.Sp }
func (n *NullLiteral) exprNode()           {}

type ListLiteral struct {
	Elements []Expression
	PosT     token.Position
	Sp       token.Span
}

func (l *ListLiteral) Pos() token.Position { return l.PosT }
func (l *ListLiteral) Span() token.Span    { return l.Sp }
func (l *ListLiteral) exprNode()           {}

// DictLiteral keys are arbitrary expressions, stringified at runtime.
type DictLiteral struct {
	Entries []DictEntry
	PosT    token.Position
	Sp      token.Span
}

type DictEntry struct {
	Key   Expression
	Value Expression
}

func (d *DictLiteral) Pos() token.Position { return d.PosT }
func (d *DictLiteral) Span() token.Span    { return d.Sp }
func (d *DictLiteral) exprNode()           {}

type BinaryExpr struct {
	Left     Expression
	Operator token.Type
	Right    Expression
	PosT     token.Position
	Sp       token.Span
}

func (b *BinaryExpr) Pos() token.Position { return b.PosT }
func (b *BinaryExpr) Span() token.Span    { return b.Sp }
func (b *BinaryExpr) exprNode()           {}

type UnaryExpr struct {
	Operator token.Type
	Right    Expression
	PosT     token.Position
	Sp       token.Span
}

func (u *UnaryExpr) Pos() token.Position { return u.PosT }
func (u *UnaryExpr) Span() token.Span    { return u.Sp }
func (u *UnaryExpr) exprNode()           {}

type AssignExpr struct {
	Target Expression
	Value  Expression
	PosT   token.Position
	Sp     token.Span
}

func (a *AssignExpr) Pos() token.Position { return a.PosT }
func (a *AssignExpr) Span() token.Span    { return a.Sp }
func (a *AssignExpr) exprNode()           {}

// CompoundAssignExpr is `target op= value`; Operator is the binary operator
// (Plus for +=, Power for **=, ...).
type CompoundAssignExpr struct {
	Target   Expression
	Operator token.Type
	Value    Expression
	PosT     token.Position
	Sp       token.Span
}

func (c *CompoundAssignExpr) Pos() token.Position { return c.PosT }
func (c *CompoundAssignExpr) Span() token.Span    { return c.Sp }
func (c *CompoundAssignExpr) exprNode()           {}

type CallExpr struct {
	Callee    Expression
	Arguments []Expression
	PosT      token.Position
	Sp        token.Span
}

func (c *CallExpr) Pos() token.Position { return c.PosT }
func (c *CallExpr) Span() token.Span    { return c.Sp }
func (c *CallExpr) exprNode()           {}

type IndexExpr struct {
	Left  Expression
	Index Expression
	PosT  token.Position
	Sp    token.Span
}

func (i *IndexExpr) Pos() token.Position { return i.PosT }
func (i *IndexExpr) Span() token.Span    { return i.Sp }
func (i *IndexExpr) exprNode()           {}

type MemberExpr struct {
	Left     Expression
	Property string
	PosT     token.Position
	Sp       token.Span
}

func (m *MemberExpr) Pos() token.Position { return m.PosT }
func (m *MemberExpr) Span() token.Span    { return m.Sp }
func (m *MemberExpr) exprNode()           {}

// SliceExpr is `left[start:end]`; either bound may be nil.
type SliceExpr struct {
	Left  Expression
	Start Expression
	End   Expression
	PosT  token.Position
	Sp    token.Span
}

func (s *SliceExpr) Pos() token.Position { return s.PosT }
func (s *SliceExpr) Span() token.Span    { return s.Sp }
func (s *SliceExpr) exprNode()           {}

// FuncExpr is an anonymous function (lambda).
type FuncExpr struct {
	Params    []Param
	Body      *BlockStmt
	Async     bool
	Generator bool
	PosT      token.Position
	Sp        token.Span
}

func (f *FuncExpr) Pos() token.Position { return f.PosT }
func (f *FuncExpr) Span() token.Span    { return f.Sp }
func (f *FuncExpr) exprNode()           {}

type ListComprehension struct {
	Element   Expression
	Var       string
	Iterable  Expression
	Condition Expression
	PosT      token.Position
	Sp        token.Span
}

func (l *ListComprehension) Pos() token.Position { return l.PosT }
func (l *ListComprehension) Span() token.Span    { return l.Sp }
func (l *ListComprehension) exprNode()           {}

type DictComprehension struct {
	Key       Expression
	Value     Expression
	Var       string
	Iterable  Expression
	Condition Expression
	PosT      token.Position
	Sp        token.Span
}

func (d *DictComprehension) Pos() token.Position { return d.PosT }
func (d *DictComprehension) Span() token.Span    { return d.Sp }
func (d *DictComprehension) exprNode()           {}

type TernaryExpr struct {
	Condition Expression
	Then      Expression
	Else      Expression
	PosT      token.Position
	Sp        token.Span
}

func (t *TernaryExpr) Pos() token.Position { return t.PosT }
func (t *TernaryExpr) Span() token.Span    { return t.Sp }
func (t *TernaryExpr) exprNode()           {}

type AwaitExpr struct {
	Value Expression
	PosT  token.Position
	Sp    token.Span
}

func (a *AwaitExpr) Pos() token.Position { return a.PosT }
func (a *AwaitExpr) Span() token.Span    { return a.Sp }
func (a *AwaitExpr) exprNode()           {}

type NewExpr struct {
	Class     string
	Arguments []Expression
	PosT      token.Position
	Sp        token.Span
}

func (n *NewExpr) Pos() token.Position { return n.PosT }
func (n *NewExpr) Span() token.Span    { return n.Sp }
func (n *NewExpr) exprNode()           {}
