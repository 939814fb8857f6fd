package parser

import (
	"strings"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/lexer"
	"github.com/xirelogy/go-mumei/internal/token"
)

// Parser turns a token sequence into an AST. Indent and Dedent tokens are
// dropped up front: blocks are brace-delimited and layout is only advisory.
type Parser struct {
	tokens    []token.Token
	pos       int
	curToken  token.Token
	peekToken token.Token
	prevToken token.Token
	errors    []*Error

	loopDepth int
	yields    []bool // one entry per enclosing function body
}

// New creates a parser over toks, which should end with an EOF token.
func New(toks []token.Token) *Parser {
	p := &Parser{}
	for _, tok := range toks {
		if tok.Type == token.Indent || tok.Type == token.Dedent {
			continue
		}
		p.tokens = append(p.tokens, tok)
	}
	if len(p.tokens) == 0 || p.tokens[len(p.tokens)-1].Type != token.EOF {
		var pos token.Position
		if len(p.tokens) > 0 {
			pos = p.tokens[len(p.tokens)-1].Pos
		}
		p.tokens = append(p.tokens, token.Token{Type: token.EOF, Pos: pos})
	}
	p.pos = -1
	p.nextToken()
	return p
}

// Parse lexes and parses source in one step.
func Parse(source string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return New(toks).ParseProgram()
}

// Errors returns the syntax errors recorded so far.
func (p *Parser) Errors() []*Error {
	return p.errors
}

// ParseProgram parses the whole token stream. Parsing stops at the first
// syntax error, which is returned as a *Error.
func (p *Parser) ParseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog, err = nil, p.errors[0]
		}
	}()

	prog = &ast.Program{}
	p.skipNewlines()
	for p.curToken.Type != token.EOF {
		prog.Statements = append(prog.Statements, p.parseStatement())
		p.skipNewlines()
	}
	if len(prog.Statements) > 0 {
		prog.NodeSpan = token.Span{Start: prog.Statements[0].Span().Start, End: prog.Statements[len(prog.Statements)-1].Span().End}
	}
	return prog, nil
}

func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.pos++
	p.curToken = p.at(p.pos)
	p.peekToken = p.at(p.pos + 1)
}

func (p *Parser) at(i int) token.Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.Let, token.Const:
		return p.parseVarDecl()
	case token.Fun:
		if p.peekToken.Type == token.Ident {
			return p.parseFuncDecl()
		}
	case token.Async:
		if p.peekToken.Type == token.Fun && p.at(p.pos+2).Type == token.Ident {
			return p.parseFuncDecl()
		}
	case token.Class:
		return p.parseClassDecl()
	case token.Return:
		return p.parseReturn()
	case token.Yield:
		return p.parseYield()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Break:
		if p.loopDepth == 0 {
			p.invalid(p.curToken.Pos, "'break' outside loop")
		}
		stmt := &ast.BreakStmt{PosT: p.curToken.Pos, Sp: token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}}
		p.endStatement()
		return stmt
	case token.Continue:
		if p.loopDepth == 0 {
			p.invalid(p.curToken.Pos, "'continue' outside loop")
		}
		stmt := &ast.ContinueStmt{PosT: p.curToken.Pos, Sp: token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}}
		p.endStatement()
		return stmt
	case token.Pass:
		stmt := &ast.PassStmt{PosT: p.curToken.Pos, Sp: token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}}
		p.endStatement()
		return stmt
	case token.Try:
		return p.parseTry()
	case token.Throw:
		return p.parseThrow()
	case token.Import:
		return p.parseImport()
	case token.From:
		return p.parseFromImport()
	case token.Assert:
		return p.parseAssert()
	case token.Match:
		return p.parseMatch()
	}
	return p.parseExprStatement()
}

func (p *Parser) parseExprStatement() ast.Statement {
	stmt := &ast.ExprStmt{Start: p.curToken.Pos}
	stmt.Expression = p.parseExpression(lowest)
	stmt.StmtSpan = token.Span{Start: stmt.Start, End: stmt.Expression.Span().End}
	p.endStatement()
	return stmt
}

func (p *Parser) parseVarDecl() ast.Statement {
	decl := &ast.VarDecl{PosT: p.curToken.Pos, Const: p.curToken.Type == token.Const}
	p.nextToken()
	name := p.expectIdent("variable name")
	decl.Name = name.Literal
	end := name.Pos
	if p.curToken.Type == token.Assign {
		p.nextToken()
		decl.Value = p.parseExpression(lowest)
		end = decl.Value.Span().End
		p.endStatement()
	} else {
		if decl.Const {
			p.invalid(name.Pos, "const '%s' requires an initializer", decl.Name)
		}
		p.checkEndOfStatement()
	}
	decl.Sp = token.Span{Start: decl.PosT, End: end}
	return decl
}

func (p *Parser) parseFuncDecl() ast.Statement {
	decl := &ast.FuncDecl{PosT: p.curToken.Pos}
	if p.curToken.Type == token.Async {
		decl.Async = true
		p.nextToken()
	}
	p.nextToken() // past 'fun'
	decl.Name = p.expectIdent("function name").Literal
	if p.curToken.Type != token.LParen {
		p.unexpected("'('")
	}
	decl.Params = p.parseParamList()
	p.nextToken() // past ')'
	if p.curToken.Type == token.FatArrow {
		decl.Body = p.parseArrowBody()
		decl.Sp = token.Span{Start: decl.PosT, End: decl.Body.Span().End}
		p.endStatement()
		return decl
	}
	p.skipNewlines()
	decl.Body, decl.Generator = p.parseFunctionBody()
	decl.Sp = token.Span{Start: decl.PosT, End: decl.Body.Span().End}
	p.nextToken() // past '}'
	return decl
}

func (p *Parser) parseClassDecl() ast.Statement {
	decl := &ast.ClassDecl{PosT: p.curToken.Pos}
	p.nextToken()
	decl.Name = p.expectIdent("class name").Literal
	if p.curToken.Type == token.Colon || p.curToken.Type == token.Extends {
		p.nextToken()
		decl.Parent = p.expectIdent("parent class name").Literal
	}
	p.skipNewlines()
	if p.curToken.Type != token.LBrace {
		p.unexpected("'{'")
	}
	p.nextToken()
	p.skipNewlines()
	for p.curToken.Type != token.RBrace {
		switch {
		case p.curToken.Type == token.Fun && p.peekToken.Type == token.Ident,
			p.curToken.Type == token.Async && p.peekToken.Type == token.Fun:
			decl.Methods = append(decl.Methods, p.parseFuncDecl().(*ast.FuncDecl))
		default:
			p.unexpected("method declaration")
		}
		p.skipNewlines()
	}
	decl.Sp = token.Span{Start: decl.PosT, End: p.curToken.Pos}
	p.nextToken()
	return decl
}

func (p *Parser) parseReturn() ast.Statement {
	ret := &ast.ReturnStmt{Return: p.curToken.Pos}
	end := ret.Return
	if !p.peekEndsStatement() {
		p.nextToken()
		ret.Value = p.parseExpression(lowest)
		end = ret.Value.Span().End
	}
	ret.StmtSpan = token.Span{Start: ret.Return, End: end}
	p.endStatement()
	return ret
}

func (p *Parser) parseYield() ast.Statement {
	stmt := &ast.YieldStmt{PosT: p.curToken.Pos}
	if len(p.yields) == 0 {
		p.invalid(stmt.PosT, "'yield' outside function")
	}
	p.yields[len(p.yields)-1] = true
	end := stmt.PosT
	if !p.peekEndsStatement() {
		p.nextToken()
		stmt.Value = p.parseExpression(lowest)
		end = stmt.Value.Span().End
	}
	stmt.Sp = token.Span{Start: stmt.PosT, End: end}
	p.endStatement()
	return stmt
}

func (p *Parser) parseIf() ast.Statement {
	stmt := &ast.IfStmt{IfPos: p.curToken.Pos}
	p.nextToken()
	stmt.Condition = p.parseExpression(lowest)
	p.nextToken()
	p.skipNewlines()
	stmt.Conseq = p.parseBlock()
	end := stmt.Conseq.Span().End

	for p.nextSignificant() == token.Elif {
		p.skipNewlines()
		clause := ast.ElseIfClause{Pos: p.curToken.Pos}
		p.nextToken()
		clause.Condition = p.parseExpression(lowest)
		p.nextToken()
		p.skipNewlines()
		clause.Conseq = p.parseBlock()
		clause.Span = token.Span{Start: clause.Pos, End: clause.Conseq.Span().End}
		end = clause.Span.End
		stmt.ElseIfs = append(stmt.ElseIfs, clause)
	}

	if p.nextSignificant() == token.Else {
		p.skipNewlines()
		p.nextToken()
		p.skipNewlines()
		// `else if` reads as `elif`
		if p.curToken.Type == token.If {
			nested := p.parseIf().(*ast.IfStmt)
			stmt.Alt = &ast.BlockStmt{LBrace: nested.IfPos, Statements: []ast.Statement{nested}, BlockSpan: nested.IfSpan}
		} else {
			stmt.Alt = p.parseBlock()
		}
		end = stmt.Alt.Span().End
	}
	stmt.IfSpan = token.Span{Start: stmt.IfPos, End: end}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	stmt := &ast.WhileStmt{WhilePos: p.curToken.Pos}
	p.nextToken()
	stmt.Condition = p.parseExpression(lowest)
	p.nextToken()
	p.skipNewlines()
	p.loopDepth++
	stmt.Body = p.parseBlock()
	p.loopDepth--
	stmt.NodeSpan = token.Span{Start: stmt.WhilePos, End: stmt.Body.Span().End}
	return stmt
}

func (p *Parser) parseFor() ast.Statement {
	stmt := &ast.ForStmt{ForPos: p.curToken.Pos}
	p.nextToken()
	paren := p.curToken.Type == token.LParen && p.peekToken.Type == token.Ident && p.at(p.pos+2).Type == token.In
	if paren {
		p.nextToken()
	}
	stmt.Var = p.expectIdent("loop variable").Literal
	if p.curToken.Type != token.In {
		p.unexpected("'in'")
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(lowest)
	p.nextToken()
	if paren {
		if p.curToken.Type != token.RParen {
			p.unexpected("')'")
		}
		p.nextToken()
	}
	p.skipNewlines()
	p.loopDepth++
	stmt.Body = p.parseBlock()
	p.loopDepth--
	stmt.NodeSpan = token.Span{Start: stmt.ForPos, End: stmt.Body.Span().End}
	return stmt
}

func (p *Parser) parseTry() ast.Statement {
	stmt := &ast.TryStmt{PosT: p.curToken.Pos}
	p.nextToken()
	p.skipNewlines()
	stmt.Body = p.parseBlock()
	end := stmt.Body.Span().End

	if p.nextSignificant() == token.Catch {
		p.skipNewlines()
		p.nextToken()
		switch p.curToken.Type {
		case token.LParen:
			p.nextToken()
			stmt.CatchVar = p.expectIdent("catch variable").Literal
			if p.curToken.Type != token.RParen {
				p.unexpected("')'")
			}
			p.nextToken()
		case token.Ident:
			stmt.CatchVar = p.expectIdent("catch variable").Literal
		}
		p.skipNewlines()
		stmt.Catch = p.parseBlock()
		end = stmt.Catch.Span().End
	}
	if p.nextSignificant() == token.Finally {
		p.skipNewlines()
		p.nextToken()
		p.skipNewlines()
		stmt.Finally = p.parseBlock()
		end = stmt.Finally.Span().End
	}
	if stmt.Catch == nil && stmt.Finally == nil {
		p.skipNewlines()
		p.unexpected("'catch' or 'finally'")
	}
	stmt.Sp = token.Span{Start: stmt.PosT, End: end}
	return stmt
}

func (p *Parser) parseThrow() ast.Statement {
	stmt := &ast.ThrowStmt{PosT: p.curToken.Pos}
	p.nextToken()
	stmt.Value = p.parseExpression(lowest)
	stmt.Sp = token.Span{Start: stmt.PosT, End: stmt.Value.Span().End}
	p.endStatement()
	return stmt
}

func (p *Parser) parseImport() ast.Statement {
	stmt := &ast.ImportStmt{PosT: p.curToken.Pos}
	p.nextToken()
	stmt.Module = p.parseModuleName()
	if p.curToken.Type == token.As {
		p.nextToken()
		stmt.Alias = p.expectIdent("import alias").Literal
	}
	stmt.Sp = token.Span{Start: stmt.PosT, End: p.prevToken.Pos}
	p.checkEndOfStatement()
	return stmt
}

func (p *Parser) parseFromImport() ast.Statement {
	stmt := &ast.ImportStmt{PosT: p.curToken.Pos}
	p.nextToken()
	stmt.Module = p.parseModuleName()
	if p.curToken.Type != token.Import {
		p.unexpected("'import'")
	}
	p.nextToken()
	for {
		name := ast.ImportName{Name: p.expectIdent("imported name").Literal}
		if p.curToken.Type == token.As {
			p.nextToken()
			name.Alias = p.expectIdent("import alias").Literal
		}
		stmt.Names = append(stmt.Names, name)
		if p.curToken.Type != token.Comma {
			break
		}
		p.nextToken()
	}
	stmt.Sp = token.Span{Start: stmt.PosT, End: p.prevToken.Pos}
	p.checkEndOfStatement()
	return stmt
}

// parseModuleName reads `a`, `a.b.c` or a string literal, leaving curToken
// past the name.
func (p *Parser) parseModuleName() string {
	if p.curToken.Type == token.String {
		name := p.curToken.Literal
		p.nextToken()
		return name
	}
	parts := []string{p.expectIdent("module name").Literal}
	for p.curToken.Type == token.Dot {
		p.nextToken()
		parts = append(parts, p.expectIdent("module name").Literal)
	}
	return strings.Join(parts, ".")
}

func (p *Parser) parseAssert() ast.Statement {
	stmt := &ast.AssertStmt{PosT: p.curToken.Pos}
	p.nextToken()
	if p.curToken.Type == token.LParen && p.parenHasTopLevelComma() {
		// assert(cond, msg)
		p.nextToken()
		stmt.Condition = p.parseExpression(lowest)
		p.expectPeek(token.Comma, "','")
		p.nextToken()
		stmt.Message = p.parseExpression(lowest)
		p.expectPeek(token.RParen, "')'")
		stmt.Sp = token.Span{Start: stmt.PosT, End: p.curToken.Pos}
		p.endStatement()
		return stmt
	}
	stmt.Condition = p.parseExpression(lowest)
	end := stmt.Condition.Span().End
	if p.peekToken.Type == token.Comma {
		p.nextToken()
		p.nextToken()
		stmt.Message = p.parseExpression(lowest)
		end = stmt.Message.Span().End
	}
	stmt.Sp = token.Span{Start: stmt.PosT, End: end}
	p.endStatement()
	return stmt
}

func (p *Parser) parseMatch() ast.Statement {
	stmt := &ast.MatchStmt{PosT: p.curToken.Pos}
	p.nextToken()
	stmt.Subject = p.parseExpression(lowest)
	p.nextToken()
	p.skipNewlines()
	if p.curToken.Type != token.LBrace {
		p.unexpected("'{'")
	}
	p.nextToken()
	p.skipNewlines()
	for p.curToken.Type != token.RBrace {
		switch p.curToken.Type {
		case token.Case:
			mc := ast.MatchCase{Pos: p.curToken.Pos}
			p.nextToken()
			mc.Values = append(mc.Values, p.parseExpression(lowest))
			for p.peekToken.Type == token.Comma {
				p.nextToken()
				p.nextToken()
				mc.Values = append(mc.Values, p.parseExpression(lowest))
			}
			p.nextToken()
			p.skipNewlines()
			mc.Body = p.parseBlock()
			stmt.Cases = append(stmt.Cases, mc)
		case token.Default:
			if stmt.Default != nil {
				p.invalid(p.curToken.Pos, "duplicate 'default' in match")
			}
			p.nextToken()
			p.skipNewlines()
			stmt.Default = p.parseBlock()
		default:
			p.unexpected("'case' or 'default'")
		}
		p.skipNewlines()
	}
	stmt.Sp = token.Span{Start: stmt.PosT, End: p.curToken.Pos}
	p.nextToken()
	return stmt
}

// parseBlock parses `{ ... }` and leaves curToken past the closing brace.
func (p *Parser) parseBlock() *ast.BlockStmt {
	block := p.parseBlockBody()
	p.nextToken()
	return block
}

// parseBlockBody parses `{ ... }` and leaves curToken on the closing brace.
func (p *Parser) parseBlockBody() *ast.BlockStmt {
	if p.curToken.Type != token.LBrace {
		p.unexpected("'{'")
	}
	block := &ast.BlockStmt{LBrace: p.curToken.Pos}
	p.nextToken()
	p.skipNewlines()
	for p.curToken.Type != token.RBrace {
		if p.curToken.Type == token.EOF {
			p.unexpected("'}'")
		}
		block.Statements = append(block.Statements, p.parseStatement())
		p.skipNewlines()
	}
	block.BlockSpan = token.Span{Start: block.LBrace, End: p.curToken.Pos}
	return block
}

// parseFunctionBody parses a function block, resetting loop context and
// reporting whether the body yields.
func (p *Parser) parseFunctionBody() (*ast.BlockStmt, bool) {
	savedLoop := p.loopDepth
	p.loopDepth = 0
	p.yields = append(p.yields, false)
	body := p.parseBlockBody()
	gen := p.yields[len(p.yields)-1]
	p.yields = p.yields[:len(p.yields)-1]
	p.loopDepth = savedLoop
	return body, gen
}

// parseArrowBody parses `=> expr` into a block holding one return. curToken
// ends on the last token of the expression.
func (p *Parser) parseArrowBody() *ast.BlockStmt {
	arrow := p.curToken.Pos
	p.nextToken()
	savedLoop := p.loopDepth
	p.loopDepth = 0
	value := p.parseExpression(lowest)
	p.loopDepth = savedLoop
	sp := token.Span{Start: arrow, End: value.Span().End}
	ret := &ast.ReturnStmt{Return: arrow, Value: value, StmtSpan: sp}
	return &ast.BlockStmt{LBrace: arrow, Statements: []ast.Statement{ret}, BlockSpan: sp}
}

// parseParamList expects curToken on '(' and leaves it on ')'.
func (p *Parser) parseParamList() []ast.Param {
	params := []ast.Param{}
	seen := map[string]bool{}
	p.nextToken()
	if p.curToken.Type == token.RParen {
		return params
	}
	for {
		if p.curToken.Type != token.Ident {
			p.unexpected("parameter name")
		}
		name := p.curToken
		if seen[name.Literal] {
			p.invalid(name.Pos, "duplicate parameter '%s'", name.Literal)
		}
		seen[name.Literal] = true
		params = append(params, ast.Param{Name: name.Literal, Pos: name.Pos, Sp: token.Span{Start: name.Pos, End: name.Pos}})
		p.nextToken()
		switch p.curToken.Type {
		case token.Comma:
			p.nextToken()
		case token.RParen:
			return params
		default:
			p.unexpected("',' or ')'")
		}
	}
}

// expectIdent consumes an identifier and returns it.
func (p *Parser) expectIdent(what string) token.Token {
	if p.curToken.Type != token.Ident {
		p.unexpected(what)
	}
	tok := p.curToken
	p.nextToken()
	return tok
}

// expectPeek advances onto the peek token when it has type t.
func (p *Parser) expectPeek(t token.Type, what string) {
	if p.peekToken.Type != t {
		p.unexpectedAt(p.peekToken, what)
	}
	p.nextToken()
}

// endStatement steps past the last token of a statement and checks that
// nothing else follows on the same line.
func (p *Parser) endStatement() {
	p.nextToken()
	p.checkEndOfStatement()
}

func (p *Parser) checkEndOfStatement() {
	if !p.atStatementBoundary() {
		p.unexpected("end of statement")
	}
}

func (p *Parser) atStatementBoundary() bool {
	switch p.curToken.Type {
	case token.Newline, token.Semicolon, token.RBrace, token.EOF:
		return true
	}
	// newlines inside parentheses are not tokens, so a line change also ends
	// a statement (lambda bodies passed as arguments)
	return p.curToken.Pos.Line > p.prevToken.Pos.Line
}

func (p *Parser) peekEndsStatement() bool {
	switch p.peekToken.Type {
	case token.Newline, token.Semicolon, token.RBrace, token.EOF:
		return true
	}
	return p.peekToken.Pos.Line > p.curToken.Pos.Line
}

// parenHasTopLevelComma reports whether the parenthesised group starting at
// curToken contains a comma outside any nested bracket.
func (p *Parser) parenHasTopLevelComma() bool {
	depth := 0
	for i := p.pos; ; i++ {
		switch p.at(i).Type {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
		case token.RParen, token.RBracket, token.RBrace:
			depth--
			if depth == 0 {
				return false
			}
		case token.Comma:
			if depth == 1 {
				return true
			}
		case token.EOF:
			return false
		}
	}
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == token.Newline || p.curToken.Type == token.Semicolon {
		p.nextToken()
	}
}

// nextSignificant returns the type of the first token at or after curToken
// that is not a newline, without consuming anything.
func (p *Parser) nextSignificant() token.Type {
	for i := p.pos; ; i++ {
		tok := p.at(i)
		if tok.Type != token.Newline && tok.Type != token.Semicolon {
			return tok.Type
		}
	}
}
