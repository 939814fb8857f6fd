package parser

import (
	"fmt"

	"github.com/xirelogy/go-mumei/internal/token"
)

// ErrorKind classifies syntax failures.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	UnexpectedEOF
	InvalidSyntax
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case UnexpectedEOF:
		return "unexpected end of input"
	case InvalidSyntax:
		return "invalid syntax"
	default:
		return "syntax error"
	}
}

// Error is a syntax error. Expected and Got are set for UnexpectedToken and
// UnexpectedEOF; Message carries the detail for InvalidSyntax.
type Error struct {
	Kind     ErrorKind
	Expected string
	Got      string
	Message  string
	Pos      token.Position
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnexpectedEOF:
		return fmt.Sprintf("%d:%d: unexpected end of input, expected %s", e.Pos.Line, e.Pos.Column, e.Expected)
	case UnexpectedToken:
		return fmt.Sprintf("%d:%d: expected %s, got %s", e.Pos.Line, e.Pos.Column, e.Expected, e.Got)
	default:
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
}

// bailout unwinds the parser after the first error.
type bailout struct{}

func (p *Parser) fail(err *Error) {
	p.errors = append(p.errors, err)
	panic(bailout{})
}

// unexpected reports that the current token is not what the grammar needs.
func (p *Parser) unexpected(expected string) {
	p.unexpectedAt(p.curToken, expected)
}

func (p *Parser) unexpectedAt(tok token.Token, expected string) {
	kind := UnexpectedToken
	if tok.Type == token.EOF {
		kind = UnexpectedEOF
	}
	p.fail(&Error{Kind: kind, Expected: expected, Got: describe(tok), Pos: tok.Pos})
}

func (p *Parser) invalid(pos token.Position, format string, args ...any) {
	p.fail(&Error{Kind: InvalidSyntax, Message: fmt.Sprintf(format, args...), Pos: pos})
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.Newline:
		return "newline"
	case token.Ident:
		return fmt.Sprintf("identifier '%s'", tok.Literal)
	case token.Number:
		return "number " + tok.Literal
	case token.String:
		return fmt.Sprintf("string %q", tok.Literal)
	default:
		return fmt.Sprintf("'%s'", tok.Literal)
	}
}
