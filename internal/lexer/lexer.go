package lexer

import (
	"strings"

	"github.com/xirelogy/go-mumei/internal/token"
)

const tabWidth = 4

// Lexer converts source text into a stream of tokens.
type Lexer struct {
	input        string
	pos          int  // current position in bytes
	readPos      int  // next read position
	ch           byte // current char
	line         int
	column       int
	parenDepth   int
	bracketDepth int

	indents      []int
	pending      []token.Token
	atLineStart  bool
	lineHasToken bool
	done         bool
}

// New creates a lexer for the provided source text.
func New(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		column:      0,
		indents:     []int{0},
		atLineStart: true,
	}
	l.readChar()
	return l
}

// Tokenize lexes the whole input, returning the tokens up to and including EOF.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var out []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out, nil
		}
	}
}

// NextToken returns the next token from the input. Once EOF has been returned
// every further call returns EOF again.
func (l *Lexer) NextToken() (token.Token, error) {
	for {
		if len(l.pending) > 0 {
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok, nil
		}
		if l.done {
			return l.makeToken(token.EOF, ""), nil
		}

		if l.atLineStart {
			l.atLineStart = false
			if l.parenDepth == 0 && l.bracketDepth == 0 {
				l.measureIndent()
				continue
			}
		}

		l.skipWhitespace()

		if l.ch == '#' {
			l.skipLineComment()
			continue
		}

		if l.ch == '\n' {
			tok := l.makeToken(token.Newline, "")
			emit := l.lineHasToken && l.parenDepth == 0 && l.bracketDepth == 0
			l.readChar()
			l.atLineStart = true
			if emit {
				l.lineHasToken = false
				return tok, nil
			}
			continue
		}

		if l.atEOF() {
			l.finish()
			continue
		}

		tok, err := l.scanToken()
		if err != nil {
			return token.Token{}, err
		}
		l.lineHasToken = true
		return tok, nil
	}
}

// measureIndent reads the leading whitespace of a line and queues Indent or
// Dedent tokens. Blank and comment-only lines leave the stack untouched.
func (l *Lexer) measureIndent() {
	start := l.makeToken(token.Indent, "")
	width := 0
	for l.ch == ' ' || l.ch == '\t' {
		if l.ch == '\t' {
			width += tabWidth
		} else {
			width++
		}
		l.readChar()
	}
	if l.ch == '\n' || l.ch == '\r' || l.ch == '#' || l.atEOF() {
		return
	}

	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		start.Type = token.Indent
		l.pending = append(l.pending, start)
	case width < top:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			start.Type = token.Dedent
			l.pending = append(l.pending, start)
		}
		if l.indents[len(l.indents)-1] < width {
			l.indents = append(l.indents, width)
			start.Type = token.Indent
			l.pending = append(l.pending, start)
		}
	}
}

// finish queues the trailing newline, the remaining dedents and EOF.
func (l *Lexer) finish() {
	l.done = true
	if l.lineHasToken && l.parenDepth == 0 && l.bracketDepth == 0 {
		l.lineHasToken = false
		l.pending = append(l.pending, l.makeToken(token.Newline, ""))
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, l.makeToken(token.Dedent, ""))
	}
	l.pending = append(l.pending, l.makeToken(token.EOF, ""))
}

func (l *Lexer) scanToken() (token.Token, error) {
	switch l.ch {
	case '=':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(token.Equal), nil
		case '>':
			return l.twoCharToken(token.FatArrow), nil
		}
		return l.oneCharToken(token.Assign), nil
	case ':':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.Define), nil
		}
		return l.oneCharToken(token.Colon), nil
	case '+':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.PlusAssign), nil
		}
		return l.oneCharToken(token.Plus), nil
	case '-':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(token.MinusAssign), nil
		case '>':
			return l.twoCharToken(token.Arrow), nil
		}
		return l.oneCharToken(token.Minus), nil
	case '*':
		if l.peekChar() == '*' {
			tok := l.makeToken(token.Power, "**")
			l.readChar()
			l.readChar()
			if l.ch == '=' {
				tok.Type = token.PowerAssign
				tok.Literal = "**="
				l.readChar()
			}
			return tok, nil
		}
		if l.peekChar() == '=' {
			return l.twoCharToken(token.StarAssign), nil
		}
		return l.oneCharToken(token.Star), nil
	case '/':
		if l.peekChar() == '/' {
			tok := l.makeToken(token.FloorDiv, "//")
			l.readChar()
			l.readChar()
			if l.ch == '=' {
				tok.Type = token.FloorDivAssign
				tok.Literal = "//="
				l.readChar()
			}
			return tok, nil
		}
		if l.peekChar() == '=' {
			return l.twoCharToken(token.SlashAssign), nil
		}
		return l.oneCharToken(token.Slash), nil
	case '%':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.PercentAssign), nil
		}
		return l.oneCharToken(token.Percent), nil
	case '!':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.NotEqual), nil
		}
		return token.Token{}, l.errorf(UnexpectedChar, "unexpected character '!' (use 'not')")
	case '<':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(token.LessEqual), nil
		case '<':
			return l.twoCharToken(token.ShiftLeft), nil
		}
		return l.oneCharToken(token.Less), nil
	case '>':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(token.GreaterEqual), nil
		case '>':
			return l.twoCharToken(token.ShiftRight), nil
		}
		return l.oneCharToken(token.Greater), nil
	case '?':
		return l.oneCharToken(token.Question), nil
	case '.':
		return l.oneCharToken(token.Dot), nil
	case ',':
		return l.oneCharToken(token.Comma), nil
	case ';':
		return l.oneCharToken(token.Semicolon), nil
	case '(':
		l.parenDepth++
		return l.oneCharToken(token.LParen), nil
	case ')':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
		return l.oneCharToken(token.RParen), nil
	case '[':
		l.bracketDepth++
		return l.oneCharToken(token.LBracket), nil
	case ']':
		if l.bracketDepth > 0 {
			l.bracketDepth--
		}
		return l.oneCharToken(token.RBracket), nil
	case '{':
		return l.oneCharToken(token.LBrace), nil
	case '}':
		return l.oneCharToken(token.RBrace), nil
	case '"', '\'':
		return l.readString()
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(), nil
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		return token.Token{}, l.errorf(UnexpectedChar, "unexpected character %q", l.ch)
	}
}

func (l *Lexer) oneCharToken(t token.Type) token.Token {
	tok := l.makeToken(t, string(l.ch))
	l.readChar()
	return tok
}

func (l *Lexer) twoCharToken(t token.Type) token.Token {
	tok := l.makeToken(t, l.input[l.pos:l.pos+2])
	l.readChar()
	l.readChar()
	return tok
}

func (l *Lexer) makeToken(t token.Type, lit string) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Pos: token.Position{
			Offset: l.pos,
			Line:   l.line,
			Column: l.column,
		},
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEOF() && l.ch != '\n' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() token.Token {
	start := l.makeToken(token.Ident, "")
	var sb strings.Builder
	for isLetter(l.ch) || isDigit(l.ch) {
		sb.WriteByte(l.ch)
		l.readChar()
	}
	lit := sb.String()
	start.Type = token.LookupIdent(lit)
	start.Literal = lit
	return start
}

func (l *Lexer) readNumber() (token.Token, error) {
	start := l.makeToken(token.Number, "")
	var sb strings.Builder
	for isDigit(l.ch) {
		sb.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		sb.WriteByte(l.ch)
		l.readChar()
		for isDigit(l.ch) {
			sb.WriteByte(l.ch)
			l.readChar()
		}
		if l.ch == '.' && isDigit(l.peekChar()) {
			return token.Token{}, l.errorAt(start.Pos, InvalidNumber, "invalid number %q", sb.String()+".")
		}
	}
	if isLetter(l.ch) {
		return token.Token{}, l.errorAt(start.Pos, InvalidNumber, "invalid number %q", sb.String()+string(l.ch))
	}
	start.Literal = sb.String()
	return start, nil
}

func (l *Lexer) readString() (token.Token, error) {
	start := l.makeToken(token.String, "")
	quote := l.ch
	var sb strings.Builder

	for {
		l.readChar()
		if l.atEOF() {
			return token.Token{}, l.errorAt(start.Pos, UnterminatedString, "unterminated string")
		}
		if l.ch == quote {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				return token.Token{}, l.errorAt(start.Pos, UnterminatedString, "unterminated string")
			}
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte(l.ch)
			}
			continue
		}
		sb.WriteByte(l.ch)
	}

	start.Literal = sb.String()
	return start, nil
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// atEOF reports whether the whole input has been consumed. A NUL byte in
// the input is an ordinary character.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.pos = l.readPos
		l.ch = 0
		l.column++
		return
	}

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++
	l.column++
}
