package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/errors"
)

// nestedInterpolation wraps x in the given number of interpolated strings
func nestedInterpolation(levels int) string {
	expr := "x"
	for i := 0; i < levels; i++ {
		expr = `$"{` + expr + `}"`
	}
	return expr
}

func TestResolveValue(t *testing.T) {
	x, _ := newTestExecution(t, Environment{
		"name":  TextValue("Bob"),
		"count": IntValue(3),
		"pi":    FloatValue(3.14159),
		"ok":    BoolValue(true),
	})

	tests := []struct {
		name string
		expr string
		want Value
	}{
		{"string literal", `"hi"`, TextValue("hi")},
		{"int literal", "42", IntValue(42)},
		{"float literal", "2.5", FloatValue(2.5)},
		{"char literal", "'c'", CharValue('c')},
		{"variable", "count", IntValue(3)},
		{"precedence", "1 + 2 * 3", IntValue(7)},
		{"integer division", "7 / 2", IntValue(3)},
		{"float division", "7 / 2.0", FloatValue(3.5)},
		{"modulo", "count % 2", IntValue(1)},
		{"concatenation", `"n=" + count`, TextValue("n=3")},
		{"comparison", "count >= 3", BoolValue(true)},
		{"logical", "ok && count < 2", BoolValue(false)},
		{"negation", "!ok", BoolValue(false)},
		{"ternary", `count > 1 ? "many" : "one"`, TextValue("many")},
		{"static constant", "int.MaxValue", IntValue(2147483647)},
		{"static call", "Math.Max(count, 8)", IntValue(8)},
		{"string length", "name.Length", IntValue(3)},
		{"string method", "name.ToUpper()", TextValue("BOB")},
		{"cast", "(int)pi", IntValue(3)},
		{"unknown name falls back to concatenation", `"Hello " + who`, TextValue("Hello ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.resolveValue(tt.expr, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveValueErrors(t *testing.T) {
	x, _ := newTestExecution(t, Environment{"name": TextValue("Bob")})

	t.Run("divide by zero is not recoverable", func(t *testing.T) {
		_, err := x.resolveValue("1 / 0", 0)
		require.Error(t, err)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeDivideByZero, execErr.Code)
		assert.Equal(t, "Runtime Error: Attempted to divide by zero.", execErr.ConsoleText())
	})

	t.Run("operator mismatch", func(t *testing.T) {
		_, err := x.resolveValue(`name - 1`, 0)
		require.Error(t, err)
		execErr, _ := errors.AsExecutionError(err)
		assert.Equal(t, errors.CodeOperatorMismatch, execErr.Code)
	})

	t.Run("ternary condition must be bool", func(t *testing.T) {
		_, err := x.resolveValue(`name ? 1 : 2`, 0)
		require.Error(t, err)
		execErr, _ := errors.AsExecutionError(err)
		assert.Equal(t, errors.CodeTypeConversion, execErr.Code)
	})

	t.Run("strict resolution reports unknown names", func(t *testing.T) {
		_, err := x.resolve("missing", 0, false)
		require.Error(t, err)
		execErr, _ := errors.AsExecutionError(err)
		assert.Equal(t, errors.CodeUnknownName, execErr.Code)
		assert.Contains(t, execErr.ConsoleText(), "Error CS0103")
	})

	t.Run("thrown exception", func(t *testing.T) {
		_, err := x.resolveValue(`throw new InvalidOperationException("nope")`, 0)
		require.Error(t, err)
		execErr, _ := errors.AsExecutionError(err)
		assert.Equal(t, errors.CodeThrown, execErr.Code)
		assert.Equal(t, "Runtime Error: nope", execErr.ConsoleText())
	})
}

func TestInterpolation(t *testing.T) {
	x, _ := newTestExecution(t, Environment{
		"name":  TextValue("Bob"),
		"price": FloatValue(1234.5),
		"x":     IntValue(1),
	})

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"placeholder", `$"Hi {name}!"`, "Hi Bob!"},
		{"expression placeholder", `$"{x + 1} items"`, "2 items"},
		{"fixed format", `$"{price:F1}"`, "1234.5"},
		{"number format", `$"{price:N2}"`, "1,234.50"},
		{"escaped braces", `$"{{literal}}"`, "{literal}"},
		{"unknown placeholder kept verbatim", `$"value: {missing}"`, "value: {missing}"},
		{"parenthesised ternary", `$"{(x > 0 ? "pos" : "neg")}"`, "pos"},
		{"nested literal", `$"{$"<{name}>"}"`, "<Bob>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.resolveDisplay(tt.expr, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("failing placeholder aborts", func(t *testing.T) {
		_, err := x.resolveDisplay(`$"{x / 0}"`, 0)
		require.Error(t, err)
	})
}

func TestInterpolationDepth(t *testing.T) {
	x, _ := newTestExecution(t, Environment{"x": IntValue(1)})

	t.Run("nine levels resolve", func(t *testing.T) {
		got, err := x.resolveDisplay(nestedInterpolation(9), 0)
		require.NoError(t, err)
		assert.Equal(t, "1", got)
	})

	t.Run("ten levels are too complex", func(t *testing.T) {
		_, err := x.resolveDisplay(nestedInterpolation(10), 0)
		require.Error(t, err)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeExpressionTooDeep, execErr.Code)
		assert.True(t, strings.HasPrefix(execErr.ConsoleText(), "Runtime Error: Expression too complex"))
	})
}

func TestConcatFallback(t *testing.T) {
	x, _ := newTestExecution(t, Environment{"a": TextValue("A")})
	assert.Equal(t, "A-1", x.concatFallback(`a + "-" + 1 + unknown`))
}

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t, []string{`"a,b"`, " f(1, 2)", " x"}, splitTopLevel(`"a,b", f(1, 2), x`, ','))
	assert.Equal(t, []string{"single"}, splitTopLevel("single", ','))
}
