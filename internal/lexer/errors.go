package lexer

import (
	"fmt"

	"github.com/xirelogy/go-mumei/internal/token"
)

// ErrorKind classifies lexical failures.
type ErrorKind int

const (
	UnexpectedChar ErrorKind = iota
	UnterminatedString
	InvalidNumber
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedChar:
		return "unexpected character"
	case UnterminatedString:
		return "unterminated string"
	case InvalidNumber:
		return "invalid number"
	default:
		return "lex error"
	}
}

// Error is a lexical error with its source position.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func (l *Lexer) errorf(kind ErrorKind, format string, args ...any) *Error {
	return l.errorAt(token.Position{Offset: l.pos, Line: l.line, Column: l.column}, kind, format, args...)
}

func (l *Lexer) errorAt(pos token.Position, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}
