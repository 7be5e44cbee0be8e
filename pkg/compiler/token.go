package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	INTEGER    // decimal integer literal
	DECIMAL    // decimal literal with a fractional part, e.g. 2.5
	CHARACTER  // character literal 'c', lexeme keeps the quotes

	// Keywords
	INT    // "int"
	FLOAT  // "float"
	CHAR   // "char"
	VOID   // "void"
	IF     // "if"
	ELSE   // "else"
	RETURN // "return"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,

	// Arithmetic operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	// Logical operators
	AND_LOGICAL // &&
	OR_LOGICAL  // ||
	NOT         // !

	// Assignment / comparison  (order matters: ASSIGN before EQUALS)
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:         "EOF",
	IDENTIFIER:  "IDENTIFIER",
	INTEGER:     "INTEGER",
	DECIMAL:     "DECIMAL",
	CHARACTER:   "CHARACTER",
	INT:         "INT",
	FLOAT:       "FLOAT",
	CHAR:        "CHAR",
	VOID:        "VOID",
	IF:          "IF",
	ELSE:        "ELSE",
	RETURN:      "RETURN",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	SEMICOLON:   "SEMICOLON",
	COMMA:       "COMMA",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	PERCENT:     "PERCENT",
	AND_LOGICAL: "AND_LOGICAL",
	OR_LOGICAL:  "OR_LOGICAL",
	NOT:         "NOT",
	ASSIGN:      "ASSIGN",
	EQUALS:      "EQUALS",
	NOT_EQ:      "NOT_EQ",
	LESS:        "LESS",
	GREATER:     "GREATER",
	LESS_EQ:     "LESS_EQ",
	GREATER_EQ:  "GREATER_EQ",
}

// operatorText is the source spelling of every operator token. Lowering
// passes it through to the IR unchanged.
var operatorText = map[TokenType]string{
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	SLASH:       "/",
	PERCENT:     "%",
	AND_LOGICAL: "&&",
	OR_LOGICAL:  "||",
	NOT:         "!",
	EQUALS:      "==",
	NOT_EQ:      "!=",
	LESS:        "<",
	GREATER:     ">",
	LESS_EQ:     "<=",
	GREATER_EQ:  ">=",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Symbol returns the source spelling of an operator token.
func (tt TokenType) Symbol() string {
	if s, ok := operatorText[tt]; ok {
		return s
	}
	return tt.String()
}

// IsType reports whether tt names a type keyword.
func (tt TokenType) IsType() bool {
	return tt == INT || tt == FLOAT || tt == CHAR || tt == VOID
}

// TypeName returns the keyword text of a type token ("int", "void", ...).
func (tt TokenType) TypeName() string {
	switch tt {
	case INT:
		return "int"
	case FLOAT:
		return "float"
	case CHAR:
		return "char"
	case VOID:
		return "void"
	}
	return tt.String()
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Col    int    // 1-based column of the first rune
}

func (t Token) String() string {
	return fmt.Sprintf("%-11s %-14q  line %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
