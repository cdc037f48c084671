package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/errors"
	"sharpbox/shared"
)

func TestRunMainProgram(t *testing.T) {
	outcome, rec := runProgram(t, `using System;

namespace Demo
{
    class Program
    {
        static void Main(string[] args)
        {
            int total = 0;
            for (int i = 1; i <= 3; i++)
            {
                total += i * 2;
            }
            Console.WriteLine($"Total: {total}");
        }
    }
}`)

	assert.Equal(t, OutcomeSucceeded, outcome.Kind)
	assert.Nil(t, outcome.Err)
	assert.Equal(t, []string{MessageBuildStarted, "Total: 12", MessageBuildSucceeded}, rec.contents())
	assert.Equal(t, 3, outcome.Messages)

	first, last := rec.messages[0], rec.last()
	assert.Equal(t, shared.KindSystem, first.Kind)
	assert.Equal(t, "msg-1", first.ID)
	assert.Equal(t, shared.KindSuccess, last.Kind)
	assert.Equal(t, shared.KindInfo, rec.messages[1].Kind)
}

func TestRunBuildFailure(t *testing.T) {
	outcome, rec := runProgram(t, "int x = 5\nConsole.WriteLine(x);")

	assert.Equal(t, OutcomeBuildFailed, outcome.Kind)
	require.NotNil(t, outcome.Err)
	assert.Equal(t, errors.CodeSemicolonExpected, outcome.Err.Code)
	assert.Equal(t, []string{"Error CS1002: ; expected at line 1", MessageBuildFailed}, rec.contents())
	assert.Equal(t, shared.KindError, rec.messages[0].Kind)
	assert.Equal(t, 1, rec.messages[0].Line)
	assert.NotEmpty(t, rec.messages[0].Suggestion)
}

func TestRunMissingEntryPoint(t *testing.T) {
	outcome, rec := runProgram(t, "class Program\n{\n}")

	assert.Equal(t, OutcomeBuildFailed, outcome.Kind)
	assert.Equal(t, []string{
		MessageBuildStarted,
		"Error CS5001: Program does not contain a static 'Main' method suitable for an entry point",
		MessageBuildFailed,
	}, rec.contents())
}

func TestRunEmptyMain(t *testing.T) {
	outcome, rec := runProgram(t, `class Program
{
    static void Main(string[] args)
    {
    }
}`)

	assert.Equal(t, OutcomeBuildFailed, outcome.Kind)
	require.NotNil(t, outcome.Err)
	assert.Equal(t, errors.CodeMissingEntryPoint, outcome.Err.Code)
	assert.Equal(t, 3, outcome.Err.Line)
	assert.Equal(t, []string{
		MessageBuildStarted,
		"Error CS5001: Program does not contain a static 'Main' method suitable for an entry point",
		MessageBuildFailed,
	}, rec.contents())
}

func TestRunTopLevelWithClass(t *testing.T) {
	outcome, rec := runProgram(t, "Console.WriteLine(\"hi\");\nclass Helper\n{\n}")

	assert.Equal(t, OutcomeSucceeded, outcome.Kind)
	assert.Equal(t, []string{"hi"}, rec.programOutput())
}

func TestRunTypeErrorStopsExecution(t *testing.T) {
	outcome, rec := runProgram(t, `Console.WriteLine("before");
int x = "hello";
Console.WriteLine("after");`)

	assert.Equal(t, OutcomeRuntimeFailed, outcome.Kind)
	require.NotNil(t, outcome.Err)
	assert.Equal(t, 2, outcome.Err.Line)
	assert.Equal(t, []string{
		MessageBuildStarted,
		"before",
		"Error CS0029: Cannot implicitly convert type 'string' to 'int'",
	}, rec.contents())
	assert.Equal(t, 2, rec.last().Line)
}

func TestRunErrorLineInsideBlock(t *testing.T) {
	outcome, rec := runProgram(t, `int a = 0;
if (a == 0)
{
    int b = 10 / a;
}`)

	require.NotNil(t, outcome.Err)
	assert.Equal(t, 4, outcome.Err.Line)
	assert.Equal(t, "Runtime Error: Attempted to divide by zero.", rec.last().Content)
}

func TestRunErrorSuggestions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"type conversion", `int y = "a";`, errors.CodeTypeConversion},
		{"divide by zero", "int a = 0;\nint b = 3 / a;", errors.CodeDivideByZero},
		{"unknown name", "if (missing > 1)\n{\n}", errors.CodeUnknownName},
		{"non-exhaustive switch", "int x = 2;\nstring r = x switch { 1 => \"a\" };", errors.CodeNonExhaustiveSwitch},
		{"thrown exception", "int x = 9;\nint y = x switch { 1 => 10, _ => throw new ArgumentException(\"bad x\") };", errors.CodeThrown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, rec := runProgram(t, tt.source)
			assert.Equal(t, OutcomeRuntimeFailed, outcome.Kind)
			require.NotNil(t, outcome.Err)
			assert.Equal(t, tt.code, outcome.Err.Code)
			assert.Equal(t, shared.KindError, rec.last().Kind)
			assert.NotEmpty(t, rec.last().Suggestion)
		})
	}

	t.Run("unknown name names the variable", func(t *testing.T) {
		_, rec := runProgram(t, "if (missing > 1)\n{\n}")
		assert.Contains(t, rec.last().Suggestion, "'missing'")
	})

	t.Run("expression too complex", func(t *testing.T) {
		x, _ := newTestExecution(t, Environment{"x": IntValue(1)})
		_, err := x.resolveDisplay(nestedInterpolation(10), 0)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeExpressionTooDeep, execErr.Code)
		assert.NotEmpty(t, execErr.Suggestion)
	})
}

func TestRunConsoleOutput(t *testing.T) {
	t.Run("partial writes join one line", func(t *testing.T) {
		_, rec := runProgram(t, `Console.Write("a");
Console.Write("b");
Console.WriteLine("c");
Console.Write("tail");`)
		assert.Equal(t, []string{"abc", "tail"}, rec.programOutput())
	})

	t.Run("embedded newlines split messages", func(t *testing.T) {
		_, rec := runProgram(t, `Console.WriteLine("x\ny");`)
		assert.Equal(t, []string{"x", "y"}, rec.programOutput())
	})

	t.Run("composite formatting", func(t *testing.T) {
		_, rec := runProgram(t, `Console.WriteLine("{0} + {1} = {2}", 1, 2, 1 + 2);
Console.WriteLine("[{0,4}] [{1:F2}]", 7, 1.5);`)
		assert.Equal(t, []string{"1 + 2 = 3", "[   7] [1.50]"}, rec.programOutput())
	})

	t.Run("several statements on one line", func(t *testing.T) {
		_, rec := runProgram(t, `int a = 1; int b = 2; Console.WriteLine(a + b);`)
		assert.Equal(t, []string{"3"}, rec.programOutput())
	})
}

func TestRunInput(t *testing.T) {
	t.Run("output is flushed before input is requested", func(t *testing.T) {
		rec := &recorder{}
		var seen []string
		provider := func(ctx context.Context) (string, error) {
			seen = rec.contents()
			return "Ada\n", nil
		}

		outcome, err := newTestEngine().Run(context.Background(), `Console.Write("Name: ");
string name = Console.ReadLine();
Console.WriteLine($"Hello, {name}!");`, rec.handle, provider)

		require.NoError(t, err)
		assert.Equal(t, OutcomeSucceeded, outcome.Kind)
		assert.Equal(t, []string{MessageBuildStarted, "Name: "}, seen)
		assert.Equal(t, []string{"Name: ", "Hello, Ada!"}, rec.programOutput())
	})

	t.Run("typed reads", func(t *testing.T) {
		_, rec := runProgram(t, `int age = Convert.ToInt32(Console.ReadLine());
double d = double.Parse(Console.ReadLine());
char c = Console.ReadKey().KeyChar;
Console.WriteLine(age + 1);
Console.WriteLine(d * 2);
Console.WriteLine(c);`, "42abc", "2.5", "yes")
		assert.Equal(t, []string{"43", "5", "y"}, rec.programOutput())
	})

	t.Run("end of input reads empty", func(t *testing.T) {
		_, rec := runProgram(t, `string s = Console.ReadLine();
Console.WriteLine("[" + s + "]");`)
		assert.Equal(t, []string{"[]"}, rec.programOutput())
	})

	t.Run("empty input reads a null char", func(t *testing.T) {
		outcome, rec := runProgram(t, `char c = Console.ReadKey().KeyChar;
Console.WriteLine("[" + c + "]");`, "")
		assert.Equal(t, OutcomeSucceeded, outcome.Kind)
		assert.Equal(t, []string{"[]"}, rec.programOutput())
	})
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	provider := func(ctx context.Context) (string, error) {
		cancel()
		return "", ctx.Err()
	}

	outcome, err := newTestEngine().Run(ctx, `Console.WriteLine("start");
string s = Console.ReadLine();
Console.WriteLine("never");`, rec.handle, provider)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAbandoned, outcome.Kind)
	assert.Equal(t, []string{MessageBuildStarted, "start"}, rec.contents())
}

func TestRunIsRepeatable(t *testing.T) {
	source := `int n = 3;
while (n > 0)
{
    Console.WriteLine(n);
    n--;
}`
	e := newTestEngine()
	first, second := &recorder{}, &recorder{}

	_, err := e.Run(context.Background(), source, first.handle, nil)
	require.NoError(t, err)
	_, err = e.Run(context.Background(), source, second.handle, nil)
	require.NoError(t, err)

	assert.Equal(t, first.contents(), second.contents())
	assert.Equal(t, []string{"3", "2", "1"}, second.programOutput())
}

func TestRunStatements(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"return ends the program", "Console.WriteLine(\"a\");\nreturn;\nConsole.WriteLine(\"b\");", []string{"a"}},
		{"unknown calls are ignored", "Console.Beep();\nConsole.Clear();\nConsole.WriteLine(\"ok\");", []string{"ok"}},
		{"compound assignment keeps int", "int x = 7;\nx /= 2;\nx *= 1.5;\nConsole.WriteLine(x);", []string{"4"}},
		{"increment and decrement", "int x = 1;\nx++;\n++x;\nx--;\nConsole.WriteLine(x);", []string{"2"}},
		{"char arithmetic", "char c = 'a';\nc++;\nConsole.WriteLine(c);", []string{"b"}},
		{"implicit widening", "double d = 3;\nConsole.WriteLine(d / 2);", []string{"1.5"}},
		{"uninitialised declaration", "int n;\nstring s;\nConsole.WriteLine(n + \"|\" + s + \"|\");", []string{"0||"}},
		{"var infers from value", "var s = \"hi\";\nvar n = 2;\nConsole.WriteLine(s + n);", []string{"hi2"}},
		{"record fields", "var p = new Point();\np.X = 3;\nConsole.WriteLine(p.X);", []string{"3"}},
		{"string methods", "string s = \"  Hello \";\nConsole.WriteLine(s.Trim().ToUpper() + s.Trim().Length);", []string{"HELLO5"}},
		{"math", "Console.WriteLine(Math.Round(2.5));\nConsole.WriteLine(Math.Pow(2, 10));", []string{"2", "1024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, rec := runProgram(t, tt.source)
			require.Nil(t, outcome.Err)
			assert.Equal(t, tt.want, rec.programOutput())
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "build_failed", OutcomeBuildFailed.String())
	assert.Equal(t, "succeeded", OutcomeSucceeded.String())
	assert.Equal(t, "runtime_failed", OutcomeRuntimeFailed.String())
	assert.Equal(t, "abandoned", OutcomeAbandoned.String())
}

func TestLimitsDefaults(t *testing.T) {
	assert.Equal(t, DefaultLimits(), NewEngine().Limits())

	limits := NewEngineWithConfig(Config{Limits: Limits{OutputYield: -1}}).Limits()
	assert.Equal(t, DefaultMaxLoopIterations, limits.MaxLoopIterations)
	assert.Equal(t, DefaultMaxExpressionDepth, limits.MaxExpressionDepth)
	assert.Zero(t, limits.OutputYield)
	assert.Zero(t, limits.InputFlushDelay)
}
