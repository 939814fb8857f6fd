package parser

import (
	"strconv"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/token"
)

const (
	lowest = iota + 1
	assignPrecedence
	ternaryPrecedence
	orPrecedence
	andPrecedence
	equalPrecedence
	lessGreaterPrecedence
	shiftPrecedence
	sumPrecedence
	productPrecedence
	prefixPrecedence
	powerPrecedence
	callPrecedence
)

var precedences = map[token.Type]int{
	token.Assign:         assignPrecedence,
	token.PlusAssign:     assignPrecedence,
	token.MinusAssign:    assignPrecedence,
	token.StarAssign:     assignPrecedence,
	token.SlashAssign:    assignPrecedence,
	token.PercentAssign:  assignPrecedence,
	token.PowerAssign:    assignPrecedence,
	token.FloorDivAssign: assignPrecedence,
	token.Question:       ternaryPrecedence,
	token.Or:             orPrecedence,
	token.And:            andPrecedence,
	token.Equal:          equalPrecedence,
	token.NotEqual:       equalPrecedence,
	token.Less:           lessGreaterPrecedence,
	token.LessEqual:      lessGreaterPrecedence,
	token.Greater:        lessGreaterPrecedence,
	token.GreaterEqual:   lessGreaterPrecedence,
	token.ShiftLeft:      shiftPrecedence,
	token.ShiftRight:     shiftPrecedence,
	token.Plus:           sumPrecedence,
	token.Minus:          sumPrecedence,
	token.Star:           productPrecedence,
	token.Slash:          productPrecedence,
	token.Percent:        productPrecedence,
	token.FloorDiv:       productPrecedence,
	token.Power:          powerPrecedence,
	token.LParen:         callPrecedence,
	token.LBracket:       callPrecedence,
	token.Dot:            callPrecedence,
}

// compoundOps maps compound assignment tokens to their binary operator.
var compoundOps = map[token.Type]token.Type{
	token.PlusAssign:     token.Plus,
	token.MinusAssign:    token.Minus,
	token.StarAssign:     token.Star,
	token.SlashAssign:    token.Slash,
	token.PercentAssign:  token.Percent,
	token.PowerAssign:    token.Power,
	token.FloorDivAssign: token.FloorDiv,
}

// parseExpression starts on the first token of an expression and leaves
// curToken on its last token.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefix()

	for precedence < p.peekPrecedence() {
		p.nextToken()
		switch op := p.curToken.Type; op {
		case token.Assign:
			left = p.parseAssignExpression(left)
		case token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign,
			token.PercentAssign, token.PowerAssign, token.FloorDivAssign:
			left = p.parseCompoundAssign(left)
		case token.Question:
			left = p.parseTernary(left)
		case token.LParen:
			left = p.parseCallExpression(left)
		case token.Dot:
			left = p.parseMemberExpression(left)
		case token.LBracket:
			left = p.parseIndexExpression(left)
		default:
			left = p.parseInfixExpression(left)
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.curToken
	sp := token.Span{Start: tok.Pos, End: tok.Pos}
	switch tok.Type {
	case token.Ident:
		return &ast.Identifier{Name: tok.Literal, PosT: tok.Pos, Sp: sp}
	case token.This:
		return &ast.Identifier{Name: "this", PosT: tok.Pos, Sp: sp}
	case token.Number:
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.invalid(tok.Pos, "invalid number %q", tok.Literal)
		}
		return &ast.NumberLiteral{Value: n, PosT: tok.Pos, Sp: sp}
	case token.String:
		return &ast.StringLiteral{Value: tok.Literal, PosT: tok.Pos, Sp: sp}
	case token.True:
		return &ast.BoolLiteral{Value: true, PosT: tok.Pos, Sp: sp}
	case token.False:
		return &ast.BoolLiteral{Value: false, PosT: tok.Pos, Sp: sp}
	case token.Null:
		return &ast.NullLiteral{PosT: tok.Pos, Sp: sp}
	case token.Fun:
		return p.parseFuncExpr(tok.Pos, false)
	case token.Async:
		if p.peekToken.Type != token.Fun {
			p.unexpectedAt(p.peekToken, "'fun'")
		}
		p.nextToken()
		return p.parseFuncExpr(tok.Pos, true)
	case token.LParen:
		p.nextToken()
		inner := p.parseExpression(lowest)
		p.expectPeek(token.RParen, "')'")
		return inner
	case token.LBracket:
		return p.parseListLiteral()
	case token.LBrace:
		return p.parseDictLiteral()
	case token.Minus, token.Not:
		return p.parsePrefixExpression()
	case token.Await:
		expr := &ast.AwaitExpr{PosT: tok.Pos}
		p.nextToken()
		expr.Value = p.parseExpression(prefixPrecedence)
		expr.Sp = token.Span{Start: tok.Pos, End: expr.Value.Span().End}
		return expr
	case token.New:
		return p.parseNewExpression()
	}
	p.unexpected("expression")
	return nil
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.UnaryExpr{
		Operator: p.curToken.Type,
		PosT:     p.curToken.Pos,
	}
	p.nextToken()
	expr.Right = p.parseExpression(prefixPrecedence)
	expr.Sp = token.Span{Start: expr.PosT, End: expr.Right.Span().End}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.BinaryExpr{
		Left:     left,
		Operator: p.curToken.Type,
		PosT:     p.curToken.Pos,
	}
	precedence := p.curPrecedence()
	if expr.Operator == token.Power {
		precedence-- // right associative
	}
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	expr.Sp = token.Span{Start: left.Span().Start, End: expr.Right.Span().End}
	return expr
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	p.checkAssignTarget(left)
	expr := &ast.AssignExpr{Target: left, PosT: p.curToken.Pos}
	p.nextToken()
	expr.Value = p.parseExpression(assignPrecedence - 1)
	expr.Sp = token.Span{Start: left.Span().Start, End: expr.Value.Span().End}
	return expr
}

func (p *Parser) parseCompoundAssign(left ast.Expression) ast.Expression {
	p.checkAssignTarget(left)
	expr := &ast.CompoundAssignExpr{Target: left, Operator: compoundOps[p.curToken.Type], PosT: p.curToken.Pos}
	p.nextToken()
	expr.Value = p.parseExpression(assignPrecedence - 1)
	expr.Sp = token.Span{Start: left.Span().Start, End: expr.Value.Span().End}
	return expr
}

func (p *Parser) checkAssignTarget(target ast.Expression) {
	switch t := target.(type) {
	case *ast.Identifier:
		if t.Name == "this" {
			p.invalid(p.curToken.Pos, "cannot assign to 'this'")
		}
	case *ast.IndexExpr, *ast.MemberExpr:
	default:
		p.invalid(p.curToken.Pos, "invalid assignment target")
	}
}

func (p *Parser) parseTernary(cond ast.Expression) ast.Expression {
	expr := &ast.TernaryExpr{Condition: cond, PosT: p.curToken.Pos}
	p.nextToken()
	expr.Then = p.parseExpression(lowest)
	p.expectPeek(token.Colon, "':'")
	p.nextToken()
	expr.Else = p.parseExpression(ternaryPrecedence - 1)
	expr.Sp = token.Span{Start: cond.Span().Start, End: expr.Else.Span().End}
	return expr
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	expr := &ast.CallExpr{
		Callee: callee,
		PosT:   p.curToken.Pos,
	}
	expr.Arguments = p.parseExpressionList(token.RParen, "')'")
	expr.Sp = token.Span{Start: callee.Span().Start, End: p.curToken.Pos}
	return expr
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	if p.peekToken.Type != token.Ident && !token.IsKeyword(p.peekToken.Type) {
		p.unexpectedAt(p.peekToken, "property name")
	}
	p.nextToken()
	return &ast.MemberExpr{
		Left:     left,
		Property: p.curToken.Literal,
		PosT:     pos,
		Sp:       token.Span{Start: left.Span().Start, End: p.curToken.Pos},
	}
}

// parseIndexExpression handles both `x[i]` and slices `x[a:b]`.
func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	p.nextToken()
	if p.curToken.Type == token.Colon {
		return p.finishSlice(left, nil, pos)
	}
	index := p.parseExpression(lowest)
	if p.peekToken.Type == token.Colon {
		p.nextToken()
		return p.finishSlice(left, index, pos)
	}
	p.expectPeek(token.RBracket, "']'")
	return &ast.IndexExpr{
		Left:  left,
		Index: index,
		PosT:  pos,
		Sp:    token.Span{Start: left.Span().Start, End: p.curToken.Pos},
	}
}

// finishSlice starts on ':' and ends on ']'.
func (p *Parser) finishSlice(left, start ast.Expression, pos token.Position) ast.Expression {
	expr := &ast.SliceExpr{Left: left, Start: start, PosT: pos}
	p.nextToken()
	if p.curToken.Type != token.RBracket {
		expr.End = p.parseExpression(lowest)
		p.expectPeek(token.RBracket, "']'")
	}
	expr.Sp = token.Span{Start: left.Span().Start, End: p.curToken.Pos}
	return expr
}

func (p *Parser) parseListLiteral() ast.Expression {
	startPos := p.curToken.Pos
	p.nextToken()
	if p.curToken.Type == token.RBracket {
		return &ast.ListLiteral{Elements: []ast.Expression{}, PosT: startPos, Sp: token.Span{Start: startPos, End: p.curToken.Pos}}
	}

	first := p.parseExpression(lowest)
	if p.peekToken.Type == token.For {
		p.nextToken()
		comp := &ast.ListComprehension{Element: first, PosT: startPos}
		comp.Var, comp.Iterable, comp.Condition = p.parseForClause()
		p.expectPeek(token.RBracket, "']'")
		comp.Sp = token.Span{Start: startPos, End: p.curToken.Pos}
		return comp
	}

	elements := []ast.Expression{first}
	for p.peekToken.Type == token.Comma {
		p.nextToken()
		if p.peekToken.Type == token.RBracket {
			break
		}
		p.nextToken()
		elements = append(elements, p.parseExpression(lowest))
	}
	p.expectPeek(token.RBracket, "',' or ']'")
	return &ast.ListLiteral{Elements: elements, PosT: startPos, Sp: token.Span{Start: startPos, End: p.curToken.Pos}}
}

// parseDictLiteral parses `{k: v, ...}` and `{k: v for x in it if c}`. Braces
// do not suppress newlines in the lexer, so they are skipped here.
func (p *Parser) parseDictLiteral() ast.Expression {
	startPos := p.curToken.Pos
	dict := &ast.DictLiteral{Entries: []ast.DictEntry{}, PosT: startPos}
	p.nextToken()
	p.skipNewlines()
	for p.curToken.Type != token.RBrace {
		key := p.parseExpression(lowest)
		p.expectPeek(token.Colon, "':'")
		p.nextToken()
		p.skipNewlines()
		val := p.parseExpression(lowest)
		p.nextToken()
		p.skipNewlines()

		if len(dict.Entries) == 0 && p.curToken.Type == token.For {
			comp := &ast.DictComprehension{Key: key, Value: val, PosT: startPos}
			comp.Var, comp.Iterable, comp.Condition = p.parseForClause()
			p.nextToken()
			p.skipNewlines()
			if p.curToken.Type != token.RBrace {
				p.unexpected("'}'")
			}
			comp.Sp = token.Span{Start: startPos, End: p.curToken.Pos}
			return comp
		}

		dict.Entries = append(dict.Entries, ast.DictEntry{Key: key, Value: val})
		if p.curToken.Type == token.Comma {
			p.nextToken()
			p.skipNewlines()
			continue
		}
		if p.curToken.Type != token.RBrace {
			p.unexpected("',' or '}'")
		}
	}
	dict.Sp = token.Span{Start: startPos, End: p.curToken.Pos}
	return dict
}

// parseForClause parses `for v in iterable [if cond]` starting on 'for' and
// ending on the clause's last token.
func (p *Parser) parseForClause() (string, ast.Expression, ast.Expression) {
	p.nextToken()
	name := p.expectIdent("loop variable").Literal
	if p.curToken.Type != token.In {
		p.unexpected("'in'")
	}
	p.nextToken()
	iterable := p.parseExpression(lowest)
	var cond ast.Expression
	if p.peekToken.Type == token.If {
		p.nextToken()
		p.nextToken()
		cond = p.parseExpression(lowest)
	}
	return name, iterable, cond
}

// parseExpressionList starts on the opening delimiter and ends on end.
func (p *Parser) parseExpressionList(end token.Type, what string) []ast.Expression {
	list := []ast.Expression{}
	p.nextToken()
	if p.curToken.Type == end {
		return list
	}
	for {
		list = append(list, p.parseExpression(lowest))
		p.nextToken()
		switch p.curToken.Type {
		case token.Comma:
			p.nextToken()
			if p.curToken.Type == end {
				p.unexpected("expression")
			}
		case end:
			return list
		default:
			p.unexpected("',' or " + what)
		}
	}
}

func (p *Parser) parseFuncExpr(start token.Position, async bool) ast.Expression {
	fn := &ast.FuncExpr{Async: async, PosT: start}
	if p.peekToken.Type != token.LParen {
		p.unexpectedAt(p.peekToken, "'('")
	}
	p.nextToken()
	fn.Params = p.parseParamList()
	p.nextToken() // past ')'
	if p.curToken.Type == token.FatArrow {
		fn.Body = p.parseArrowBody()
	} else {
		p.skipNewlines()
		fn.Body, fn.Generator = p.parseFunctionBody()
	}
	fn.Sp = token.Span{Start: start, End: fn.Body.Span().End}
	return fn
}

func (p *Parser) parseNewExpression() ast.Expression {
	expr := &ast.NewExpr{PosT: p.curToken.Pos}
	p.nextToken()
	expr.Class = p.expectIdent("class name").Literal
	if p.curToken.Type != token.LParen {
		p.unexpected("'('")
	}
	expr.Arguments = p.parseExpressionList(token.RParen, "')'")
	expr.Sp = token.Span{Start: expr.PosT, End: p.curToken.Pos}
	return expr
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowest
}
