package token

// Type identifies the category of a token.
type Type string

// Token carries the lexical item along with its source position.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

// Position describes a byte offset and 1-based line/column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Span represents an inclusive start and end position for a node.
type Span struct {
	Start Position
	End   Position
}

const (
	EOF     Type = "EOF"
	Newline Type = "NEWLINE"
	Indent  Type = "INDENT"
	Dedent  Type = "DEDENT"

	// identifiers and literals
	Ident  Type = "IDENT"
	Number Type = "NUMBER"
	String Type = "STRING"

	// keywords
	Let      Type = "LET"
	Const    Type = "CONST"
	Fun      Type = "FUN"
	Async    Type = "ASYNC"
	Return   Type = "RETURN"
	Yield    Type = "YIELD"
	If       Type = "IF"
	Elif     Type = "ELIF"
	Else     Type = "ELSE"
	While    Type = "WHILE"
	For      Type = "FOR"
	In       Type = "IN"
	Break    Type = "BREAK"
	Continue Type = "CONTINUE"
	Pass     Type = "PASS"
	Try      Type = "TRY"
	Catch    Type = "CATCH"
	Finally  Type = "FINALLY"
	Throw    Type = "THROW"
	Import   Type = "IMPORT"
	From     Type = "FROM"
	As       Type = "AS"
	Class    Type = "CLASS"
	Extends  Type = "EXTENDS"
	New      Type = "NEW"
	This     Type = "THIS"
	Super    Type = "SUPER"
	Static   Type = "STATIC"
	Match    Type = "MATCH"
	Case     Type = "CASE"
	Default  Type = "DEFAULT"
	With     Type = "WITH"
	Await    Type = "AWAIT"
	True     Type = "TRUE"
	False    Type = "FALSE"
	Null     Type = "NULL"
	And      Type = "AND"
	Or       Type = "OR"
	Not      Type = "NOT"
	Assert   Type = "ASSERT"
	Enum     Type = "ENUM"
	Property Type = "PROPERTY"

	// operators
	Assign         Type = "ASSIGN"         // =
	Define         Type = "DEFINE"         // :=
	Plus           Type = "PLUS"           // +
	Minus          Type = "MINUS"          // -
	Star           Type = "STAR"           // *
	Slash          Type = "SLASH"          // /
	Percent        Type = "PERCENT"        // %
	Power          Type = "POWER"          // **
	FloorDiv       Type = "FLOORDIV"       // //
	PlusAssign     Type = "PLUSASSIGN"     // +=
	MinusAssign    Type = "MINUSASSIGN"    // -=
	StarAssign     Type = "STARASSIGN"     // *=
	SlashAssign    Type = "SLASHASSIGN"    // /=
	PercentAssign  Type = "PERCENTASSIGN"  // %=
	PowerAssign    Type = "POWERASSIGN"    // **=
	FloorDivAssign Type = "FLOORDIVASSIGN" // //=
	Equal          Type = "EQUAL"          // ==
	NotEqual       Type = "NOTEQUAL"       // !=
	Less           Type = "LESS"           // <
	LessEqual      Type = "LESSEQUAL"      // <=
	Greater        Type = "GREATER"        // >
	GreaterEqual   Type = "GREATEREQUAL"   // >=
	ShiftLeft      Type = "SHIFTLEFT"      // <<
	ShiftRight     Type = "SHIFTRIGHT"     // >>
	Arrow          Type = "ARROW"          // ->
	FatArrow       Type = "FATARROW"       // =>
	Question       Type = "QUESTION"       // ?

	// delimiters
	Comma     Type = "COMMA"
	Colon     Type = "COLON"
	Semicolon Type = "SEMICOLON"
	Dot       Type = "DOT"
	LParen    Type = "LPAREN"
	RParen    Type = "RPAREN"
	LBrace    Type = "LBRACE"
	RBrace    Type = "RBRACE"
	LBracket  Type = "LBRACKET"
	RBracket  Type = "RBRACKET"
)

var keywords = map[string]Type{
	"let":      Let,
	"const":    Const,
	"fun":      Fun,
	"async":    Async,
	"return":   Return,
	"yield":    Yield,
	"if":       If,
	"elif":     Elif,
	"else":     Else,
	"while":    While,
	"for":      For,
	"in":       In,
	"break":    Break,
	"continue": Continue,
	"pass":     Pass,
	"try":      Try,
	"catch":    Catch,
	"finally":  Finally,
	"throw":    Throw,
	"import":   Import,
	"from":     From,
	"as":       As,
	"class":    Class,
	"extends":  Extends,
	"new":      New,
	"this":     This,
	"super":    Super,
	"static":   Static,
	"match":    Match,
	"case":     Case,
	"default":  Default,
	"with":     With,
	"await":    Await,
	"true":     True,
	"false":    False,
	"null":     Null,
	"and":      And,
	"or":       Or,
	"not":      Not,
	"assert":   Assert,
	"enum":     Enum,
	"property": Property,
}

// LookupIdent returns the keyword token type or Ident.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return Ident
}

// IsKeyword reports whether t is one of the reserved words.
func IsKeyword(t Type) bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}
