package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxParseDepth bounds parser recursion for pathological input such as
// thousands of nested parentheses.
const maxParseDepth = 200

// getOperatorPrecedence returns the binding power of a binary operator
// (higher binds tighter); 0 means the token is not a binary operator.
func getOperatorPrecedence(tokenType TokenType) int {
	switch tokenType {
	case TokenOr:
		return 1
	case TokenAnd:
		return 2
	case TokenEqual, TokenNotEqual:
		return 3
	case TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		return 4
	case TokenPlus, TokenMinus:
		return 5
	case TokenMultiply, TokenSlash, TokenModulo:
		return 6
	default:
		return 0
	}
}

// Parser is a precedence-climbing parser over a token slice
type Parser struct {
	tokens []Token
	pos    int
	depth  int
}

// ParseExpression parses a complete expression; trailing tokens are an error
func ParseExpression(input string) (Expr, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, unparsable(fmt.Sprintf("unexpected %s %q at column %d", tok.Type, tok.Value, tok.Column))
	}
	return expr, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tokenType TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tokenType {
		return tok, unparsable(fmt.Sprintf("expected %s but found %s %q at column %d", tokenType, tok.Type, tok.Value, tok.Column))
	}
	p.advance()
	return tok, nil
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxParseDepth {
		return unparsable("expression nests too deeply")
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

// parseExpression handles the ternary, the loosest-binding form
func (p *Parser) parseExpression() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenQuestion {
		return cond, nil
	}
	p.advance()

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	otherwise, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &TernaryExpr{Condition: cond, Then: then, Else: otherwise}, nil
}

func (p *Parser) parseBinary(minPrecedence int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		operator := p.current().Type
		precedence := getOperatorPrecedence(operator)
		if precedence == 0 || precedence < minPrecedence {
			return left, nil
		}
		p.advance()

		// All binary operators are left-associative
		right, err := p.parseBinary(precedence + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Operator: operator, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	switch p.current().Type {
	case TokenNot, TokenMinus, TokenPlus:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		operator := p.advance().Type
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operator: operator, Operand: operand}, nil
	case TokenThrow:
		p.advance()
		if _, err := p.expect(TokenNew); err != nil {
			return nil, err
		}
		typeName, args, err := p.parseConstruction()
		if err != nil {
			return nil, err
		}
		return &ThrowExpr{TypeName: typeName, Args: args}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case TokenDot:
			p.advance()
			name, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{Target: expr, Name: name.Value}
		case TokenLParen:
			if !isCallable(expr) {
				return expr, nil
			}
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func isCallable(expr Expr) bool {
	switch expr.(type) {
	case *IdentifierExpr, *MemberExpr:
		return true
	}
	return false
}

func (p *Parser) parseArguments() ([]Expr, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var args []Expr
	if p.current().Type == TokenRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.advance().Type {
		case TokenComma:
			continue
		case TokenRParen:
			return args, nil
		default:
			return nil, unparsable("expected , or ) in argument list")
		}
	}
}

// parseConstruction reads `T(args)` after `new`; the argument list is
// optional for object initialiser-free forms like `new T`.
func (p *Parser) parseConstruction() (string, []Expr, error) {
	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return "", nil, err
	}
	typeName := name.Value
	for p.current().Type == TokenDot {
		p.advance()
		part, err := p.expect(TokenIdentifier)
		if err != nil {
			return "", nil, err
		}
		typeName += "." + part.Value
	}
	if p.current().Type != TokenLParen {
		return typeName, nil, nil
	}
	args, err := p.parseArguments()
	return typeName, args, err
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.advance()

	switch tok.Type {
	case TokenNumber:
		return numberLiteral(tok)
	case TokenString:
		return &LiteralExpr{Value: TextValue(tok.Value)}, nil
	case TokenChar:
		r, _ := utf8.DecodeRuneInString(tok.Value)
		if tok.Value == "" {
			r = 0
		}
		return &LiteralExpr{Value: CharValue(r)}, nil
	case TokenInterpolated:
		return &InterpolatedExpr{Body: tok.Value}, nil
	case TokenTrue:
		return &LiteralExpr{Value: BoolValue(true)}, nil
	case TokenFalse:
		return &LiteralExpr{Value: BoolValue(false)}, nil
	case TokenNull:
		return &LiteralExpr{Value: Value{kind: KindRecord}}, nil
	case TokenIdentifier:
		return &IdentifierExpr{Name: tok.Value}, nil
	case TokenNew:
		typeName, args, err := p.parseConstruction()
		if err != nil {
			return nil, err
		}
		return &NewExpr{TypeName: typeName, Args: args}, nil
	case TokenLParen:
		if cast, ok := p.tryCast(); ok {
			return cast()
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if tok.Type == TokenEOF {
		return nil, unparsable("unexpected end of expression")
	}
	return nil, unparsable(fmt.Sprintf("unexpected %s %q at column %d", tok.Type, tok.Value, tok.Column))
}

// castTypes are the primitive names accepted in a cast such as (int)x
var castTypes = map[string]bool{
	"int": true, "long": true, "short": true, "byte": true,
	"double": true, "float": true, "decimal": true,
	"char": true, "string": true, "bool": true,
}

// tryCast recognises `(type)operand` right after an opening parenthesis and
// rewrites it as a call to the matching conversion.
func (p *Parser) tryCast() (func() (Expr, error), bool) {
	typeTok := p.current()
	if typeTok.Type != TokenIdentifier || !castTypes[typeTok.Value] {
		return nil, false
	}
	if p.pos+1 >= len(p.tokens) || p.tokens[p.pos+1].Type != TokenRParen {
		return nil, false
	}
	return func() (Expr, error) {
		p.pos += 2
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &CallExpr{Callee: &IdentifierExpr{Name: "(" + typeTok.Value + ")"}, Args: []Expr{operand}}, nil
	}, true
}

func numberLiteral(tok Token) (Expr, error) {
	if strings.Contains(tok.Value, ".") {
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, unparsable(fmt.Sprintf("invalid number %q", tok.Value))
		}
		return &LiteralExpr{Value: FloatValue(f)}, nil
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return nil, unparsable(fmt.Sprintf("invalid number %q", tok.Value))
	}
	return &LiteralExpr{Value: IntValue(n)}, nil
}
