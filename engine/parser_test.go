package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/errors"
)

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestTokenize(t *testing.T) {
	t.Run("operators and literals", func(t *testing.T) {
		tokens, err := Tokenize(`a <= 3.5 && "x" != 'c'`)
		require.NoError(t, err)
		assert.Equal(t, []TokenType{
			TokenIdentifier, TokenLessEqual, TokenNumber, TokenAnd,
			TokenString, TokenNotEqual, TokenChar, TokenEOF,
		}, tokenTypes(tokens))
		assert.Equal(t, "3.5", tokens[2].Value)
		assert.Equal(t, "x", tokens[4].Value)
		assert.Equal(t, "c", tokens[6].Value)
	})

	t.Run("keywords", func(t *testing.T) {
		tokens, err := Tokenize("true false null new throw")
		require.NoError(t, err)
		assert.Equal(t, []TokenType{TokenTrue, TokenFalse, TokenNull, TokenNew, TokenThrow, TokenEOF}, tokenTypes(tokens))
	})

	t.Run("numeric suffixes", func(t *testing.T) {
		tokens, err := Tokenize("2f 10L 1_000")
		require.NoError(t, err)
		assert.Equal(t, "2.0", tokens[0].Value)
		assert.Equal(t, "10", tokens[1].Value)
		assert.Equal(t, "1000", tokens[2].Value)
	})

	t.Run("string escapes", func(t *testing.T) {
		tokens, err := Tokenize(`"a\tb\"c"`)
		require.NoError(t, err)
		assert.Equal(t, "a\tb\"c", tokens[0].Value)
	})

	t.Run("verbatim string", func(t *testing.T) {
		tokens, err := Tokenize(`@"C:\dir ""q"""`)
		require.NoError(t, err)
		assert.Equal(t, TokenString, tokens[0].Type)
		assert.Equal(t, `C:\dir "q"`, tokens[0].Value)
	})

	t.Run("interpolated string keeps its raw body", func(t *testing.T) {
		tokens, err := Tokenize(`$"Hi {name} {$"{x}"}"`)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.Equal(t, TokenInterpolated, tokens[0].Type)
		assert.Equal(t, `Hi {name} {$"{x}"}`, tokens[0].Value)
	})

	t.Run("unterminated string", func(t *testing.T) {
		_, err := Tokenize(`"abc`)
		require.Error(t, err)
		assert.True(t, errors.IsRecoverable(err))
	})

	t.Run("unexpected character", func(t *testing.T) {
		_, err := Tokenize("a # b")
		require.Error(t, err)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeUnparsable, execErr.Code)
	})
}

func TestParseExpression(t *testing.T) {
	t.Run("precedence", func(t *testing.T) {
		node, err := ParseExpression("1 + 2 * 3")
		require.NoError(t, err)
		bin, ok := node.(*BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, TokenPlus, bin.Operator)
		right, ok := bin.Right.(*BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, TokenMultiply, right.Operator)
	})

	t.Run("ternary", func(t *testing.T) {
		node, err := ParseExpression(`x > 1 ? "big" : "small"`)
		require.NoError(t, err)
		_, ok := node.(*TernaryExpr)
		assert.True(t, ok)
	})

	t.Run("member call", func(t *testing.T) {
		node, err := ParseExpression("Math.Max(1, 2)")
		require.NoError(t, err)
		call, ok := node.(*CallExpr)
		require.True(t, ok)
		name, ok := qualifiedName(call.Callee)
		require.True(t, ok)
		assert.Equal(t, "Math.Max", name)
		assert.Len(t, call.Args, 2)
	})

	t.Run("cast", func(t *testing.T) {
		node, err := ParseExpression("(int)3.7")
		require.NoError(t, err)
		call, ok := node.(*CallExpr)
		require.True(t, ok)
		assert.Equal(t, &IdentifierExpr{Name: "(int)"}, call.Callee)
	})

	t.Run("parenthesised expression is not a cast", func(t *testing.T) {
		node, err := ParseExpression("(a)")
		require.NoError(t, err)
		assert.Equal(t, &IdentifierExpr{Name: "a"}, node)
	})

	t.Run("construction", func(t *testing.T) {
		node, err := ParseExpression(`new Exception("boom")`)
		require.NoError(t, err)
		n, ok := node.(*NewExpr)
		require.True(t, ok)
		assert.Equal(t, "Exception", n.TypeName)
		assert.Len(t, n.Args, 1)
	})

	t.Run("throw expression", func(t *testing.T) {
		node, err := ParseExpression(`throw new InvalidOperationException()`)
		require.NoError(t, err)
		n, ok := node.(*ThrowExpr)
		require.True(t, ok)
		assert.Equal(t, "InvalidOperationException", n.TypeName)
	})

	t.Run("trailing tokens are unparsable", func(t *testing.T) {
		_, err := ParseExpression("a b")
		require.Error(t, err)
		assert.True(t, errors.IsRecoverable(err))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseExpression("")
		require.Error(t, err)
	})
}
