package engine

import (
	"fmt"
	"strings"

	"sharpbox/errors"
)

var singleCharTokens = map[byte]TokenType{
	'(': TokenLParen, ')': TokenRParen, ',': TokenComma, '.': TokenDot,
	'?': TokenQuestion, ':': TokenColon, '+': TokenPlus, '-': TokenMinus,
	'*': TokenMultiply, '/': TokenSlash, '%': TokenModulo, '<': TokenLess,
	'>': TokenGreater, '!': TokenNot,
}

// Lexer turns one expression into tokens. It works on bytes; identifiers
// and operators are ASCII and string contents are copied through untouched.
type Lexer struct {
	input    string
	position int
}

// NewLexer creates a lexer over an expression
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize reads every token up to and including EOF
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) current() byte {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

func (l *Lexer) peekChar() byte {
	if l.position+1 >= len(l.input) {
		return 0
	}
	return l.input[l.position+1]
}

func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) {
		switch l.input[l.position] {
		case ' ', '\t', '\r', '\n':
			l.position++
		default:
			return
		}
	}
}

// NextToken returns the next token or an unparsable-expression error
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	start := l.position
	c := l.current()

	if c == 0 {
		return Token{Type: TokenEOF, Column: start}, nil
	}

	switch {
	case c == '$' && l.peekChar() == '"':
		return l.readInterpolated()
	case c == '@' && l.peekChar() == '"':
		l.position++
		return l.readVerbatim(start)
	case c == '"':
		return l.readString()
	case c == '\'':
		return l.readChar()
	case isDigit(c) || (c == '.' && isDigit(l.peekChar())):
		return l.readNumber(), nil
	case isIdentStart(c) || c == '@':
		return l.readIdentifier(), nil
	}

	two := ""
	if l.position+1 < len(l.input) {
		two = l.input[l.position : l.position+2]
	}
	switch two {
	case "<=":
		return l.emit(TokenLessEqual, two), nil
	case ">=":
		return l.emit(TokenGreaterEqual, two), nil
	case "==":
		return l.emit(TokenEqual, two), nil
	case "!=":
		return l.emit(TokenNotEqual, two), nil
	case "&&":
		return l.emit(TokenAnd, two), nil
	case "||":
		return l.emit(TokenOr, two), nil
	}

	if tokenType, ok := singleCharTokens[c]; ok {
		return l.emit(tokenType, string(c)), nil
	}

	return Token{}, unparsable(fmt.Sprintf("unexpected character %q at column %d", c, start))
}

func (l *Lexer) emit(tokenType TokenType, value string) Token {
	tok := Token{Type: tokenType, Value: value, Column: l.position}
	l.position += len(value)
	return tok
}

func (l *Lexer) readIdentifier() Token {
	start := l.position
	if l.current() == '@' {
		l.position++
	}
	for l.position < len(l.input) && isIdentPart(l.input[l.position]) {
		l.position++
	}
	word := strings.TrimPrefix(l.input[start:l.position], "@")
	if tokenType, ok := keywords[word]; ok {
		return Token{Type: tokenType, Value: word, Column: start}
	}
	return Token{Type: TokenIdentifier, Value: word, Column: start}
}

// readNumber accepts integer and decimal literals with an optional type
// suffix (f, d, m, L). The suffix is dropped but a float suffix makes the
// literal a floating value.
func (l *Lexer) readNumber() Token {
	start := l.position
	seenDot := false
	for l.position < len(l.input) {
		c := l.input[l.position]
		if c == '.' && !seenDot && isDigit(l.peekChar()) {
			seenDot = true
		} else if !isDigit(c) && c != '_' {
			break
		}
		l.position++
	}
	value := strings.ReplaceAll(l.input[start:l.position], "_", "")

	switch l.current() {
	case 'f', 'F', 'd', 'D', 'm', 'M':
		l.position++
		if !seenDot {
			value += ".0"
		}
	case 'L', 'l', 'u', 'U':
		l.position++
	}
	return Token{Type: TokenNumber, Value: value, Column: start}
}

func (l *Lexer) readString() (Token, error) {
	start := l.position
	l.position++ // opening quote

	var b strings.Builder
	for {
		c := l.current()
		switch c {
		case 0:
			return Token{}, unparsable(fmt.Sprintf("unterminated string starting at column %d", start))
		case '"':
			l.position++
			return Token{Type: TokenString, Value: b.String(), Column: start}, nil
		case '\\':
			l.position++
			b.WriteString(unescape(l.current()))
			l.position++
		default:
			b.WriteByte(c)
			l.position++
		}
	}
}

func (l *Lexer) readVerbatim(start int) (Token, error) {
	l.position++ // opening quote
	var b strings.Builder
	for {
		c := l.current()
		switch {
		case c == 0:
			return Token{}, unparsable(fmt.Sprintf("unterminated string starting at column %d", start))
		case c == '"' && l.peekChar() == '"':
			b.WriteByte('"')
			l.position += 2
		case c == '"':
			l.position++
			return Token{Type: TokenString, Value: b.String(), Column: start}, nil
		default:
			b.WriteByte(c)
			l.position++
		}
	}
}

func (l *Lexer) readChar() (Token, error) {
	start := l.position
	l.position++ // opening quote

	value := ""
	if l.current() == '\\' {
		l.position++
		value = unescape(l.current())
		l.position++
	} else if l.current() != 0 {
		value = string(l.current())
		l.position++
	}

	if l.current() != '\'' {
		return Token{}, unparsable(fmt.Sprintf("malformed character literal at column %d", start))
	}
	l.position++
	return Token{Type: TokenChar, Value: value, Column: start}, nil
}

// readInterpolated captures the raw body of $"..." including nested
// placeholders. Placeholders are resolved later by the evaluator.
func (l *Lexer) readInterpolated() (Token, error) {
	start := l.position
	end, ok := scanInterpolated(l.input, start+2)
	if !ok {
		return Token{}, unparsable(fmt.Sprintf("unterminated interpolated string at column %d", start))
	}
	l.position = end + 1
	return Token{Type: TokenInterpolated, Value: l.input[start+2 : end], Column: start}, nil
}

// scanInterpolated returns the index of the quote closing an interpolated
// string whose body starts at pos. Quotes inside placeholders belong to
// nested literals and are skipped.
func scanInterpolated(s string, pos int) (int, bool) {
	depth := 0
	for i := pos; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && depth == 0:
			i++
		case c == '{':
			if depth == 0 && i+1 < len(s) && s[i+1] == '{' {
				i++
				continue
			}
			depth++
		case c == '}':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == '}' {
					i++
				}
				continue
			}
			depth--
		case c == '"' && depth == 0:
			return i, true
		case c == '"':
			end, ok := skipLiteral(s, i)
			if !ok {
				return 0, false
			}
			i = end
		}
	}
	return 0, false
}

// skipLiteral skips a string literal starting at the quote at pos, handling
// a leading $ for nested interpolation. It returns the closing quote index.
func skipLiteral(s string, pos int) (int, bool) {
	if pos > 0 && s[pos-1] == '$' {
		return scanInterpolated(s, pos+1)
	}
	for i := pos + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i, true
		}
	}
	return 0, false
}

func unescape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case 0:
		return ""
	default:
		return string(c)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func unparsable(message string) *errors.ExecutionError {
	return errors.NewRuntimeError(errors.CodeUnparsable, message)
}
