package engine

import "fmt"

type TokenType int

const (
	TokenEOF          TokenType = iota
	TokenUnknown                // unrecognised character
	TokenIdentifier             // IDENTIFIER
	TokenNumber                 // 42, 3.14, 2.5f
	TokenString                 // "text"
	TokenChar                   // 'c'
	TokenInterpolated           // $"text {expr}"
	TokenTrue                   // true
	TokenFalse                  // false
	TokenNull                   // null
	TokenNew                    // new
	TokenThrow                  // throw
	TokenLParen                 // (
	TokenRParen                 // )
	TokenComma                  // ,
	TokenDot                    // .
	TokenQuestion               // ?
	TokenColon                  // :
	TokenPlus                   // +
	TokenMinus                  // -
	TokenMultiply               // *
	TokenSlash                  // /
	TokenModulo                 // %
	TokenLess                   // <
	TokenGreater                // >
	TokenLessEqual              // <=
	TokenGreaterEqual           // >=
	TokenEqual                  // ==
	TokenNotEqual               // !=
	TokenAnd                    // &&
	TokenOr                     // ||
	TokenNot                    // !
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenUnknown:      "UNKNOWN",
	TokenIdentifier:   "IDENTIFIER",
	TokenNumber:       "NUMBER",
	TokenString:       "STRING",
	TokenChar:         "CHAR",
	TokenInterpolated: "INTERPOLATED",
	TokenTrue:         "TRUE",
	TokenFalse:        "FALSE",
	TokenNull:         "NULL",
	TokenNew:          "NEW",
	TokenThrow:        "THROW",
	TokenLParen:       "LPAREN",
	TokenRParen:       "RPAREN",
	TokenComma:        "COMMA",
	TokenDot:          "DOT",
	TokenQuestion:     "QUESTION",
	TokenColon:        "COLON",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenMultiply:     "MULTIPLY",
	TokenSlash:        "SLASH",
	TokenModulo:       "MODULO",
	TokenLess:         "LESS",
	TokenGreater:      "GREATER",
	TokenLessEqual:    "LESS_EQUAL",
	TokenGreaterEqual: "GREATER_EQUAL",
	TokenEqual:        "EQUAL",
	TokenNotEqual:     "NOT_EQUAL",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
	"new":   TokenNew,
	"throw": TokenThrow,
}

// Token is one lexical unit of an expression. Column is the 0-based byte
// offset inside the expression text.
type Token struct {
	Type   TokenType
	Value  string
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Value, t.Column)
}
