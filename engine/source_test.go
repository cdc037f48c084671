package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/errors"
)

func lineTexts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Text
	}
	return out
}

func TestStripComments(t *testing.T) {
	t.Run("line comment", func(t *testing.T) {
		assert.Equal(t, "int x = 1; \ny", stripComments("int x = 1; // one\ny"))
	})

	t.Run("block comment keeps line breaks", func(t *testing.T) {
		assert.Equal(t, "a \n b", stripComments("a /* x\ny */ b"))
	})

	t.Run("markers inside literals survive", func(t *testing.T) {
		src := `string url = "http://x/*y*/";`
		assert.Equal(t, src, stripComments(src))
	})

	t.Run("verbatim string", func(t *testing.T) {
		src := `string p = @"C:\""//"" x";`
		assert.Equal(t, src, stripComments(src))
	})
}

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain statement", "int x = 1;", []string{"int x = 1;"}},
		{"closing brace before else", "} else {", []string{"}", "else {"}},
		{"closing brace before else if", "} else if (x > 1) {", []string{"}", "else if (x > 1) {"}},
		{"braceless body", "if (a) b = 1;", []string{"if (a)", "b = 1;"}},
		{"inline block", "for (int i = 0; i < 3; i++) { sum += i; }", []string{"for (int i = 0; i < 3; i++) {", "sum += i;", "}"}},
		{"several statements", "a = 1; b = 2;", []string{"a = 1;", "b = 2;"}},
		{"semicolon inside a literal", `Console.WriteLine("a; b");`, []string{`Console.WriteLine("a; b");`}},
		{"case label with statements", `case 1: Console.WriteLine("one"); break;`, []string{"case 1:", `Console.WriteLine("one");`, "break;"}},
		{"bare case label", "case 2:", []string{"case 2:"}},
		{"while with empty body", "while (x < 3);", []string{"while (x < 3);"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := normalizeLine(7, tt.text)
			assert.Equal(t, tt.want, lineTexts(lines))
			for _, line := range lines {
				assert.Equal(t, 7, line.Number)
			}
		})
	}
}

func TestMaskLiterals(t *testing.T) {
	assert.Equal(t, `s = "_________" + '_';`, maskLiterals(`s = "a \"b\" c" + 'x';`))
	assert.Equal(t, `string s = "________________";`, maskLiterals(`string s = "turn switch {on}";`))
}

func TestMatchingBrace(t *testing.T) {
	assert.Equal(t, 10, matchingBrace(`{ a("}"); } x`))
	assert.Equal(t, 9, matchingBrace("{ { a; } }"))
	assert.Equal(t, -1, matchingBrace("{ open"))
}

func TestValidate(t *testing.T) {
	t.Run("accepts structural lines", func(t *testing.T) {
		lines := splitLines(`using System;
class Program
{
    static void Main()
    {
        int x = 2;
        switch (x)
        {
            case 1:
                break;
            default:
                Console.WriteLine("other");
                break;
        }
        string r = x switch
        {
            1 => "one",
            _ => "many"
        };
        if (x > 1)
            Console.WriteLine(r);
    }
}`)
		assert.Nil(t, Validate(lines))
	})

	t.Run("reports the first missing semicolon", func(t *testing.T) {
		diag := Validate([]string{"int x = 1;", "", "Console.WriteLine(x)", "int y = 2"})
		require.NotNil(t, diag)
		assert.Equal(t, errors.CodeSemicolonExpected, diag.Code)
		assert.Equal(t, 3, diag.Line)
		assert.Equal(t, "Error CS1002: ; expected at line 3", diag.ConsoleText())
		assert.Contains(t, diag.Suggestion, "line 3")
	})

	t.Run("multi-line argument lists", func(t *testing.T) {
		assert.Nil(t, Validate([]string{`Console.WriteLine("{0} {1}",`, "a,", "b);"}))
	})

	t.Run("lambda without semicolon", func(t *testing.T) {
		diag := Validate([]string{"int a = 1;", "Func<int,int> f = x => x + 1"})
		require.NotNil(t, diag)
		assert.Equal(t, 2, diag.Line)
	})

	t.Run("lambda broken after the arrow", func(t *testing.T) {
		assert.Nil(t, Validate([]string{"Func<int,int> f = x =>", "x + 1;"}))
	})

	t.Run("arms on the header line", func(t *testing.T) {
		assert.Nil(t, Validate([]string{"string r = x switch {", `1 => "one",`, `_ => "many"`, "};"}))
	})

	t.Run("statement after a switch expression", func(t *testing.T) {
		diag := Validate([]string{"string r = x switch", "{", `_ => "many"`, "};", "Func<int,int> g = v => v"})
		require.NotNil(t, diag)
		assert.Equal(t, 5, diag.Line)
	})
}

func TestExtractEntryPoint(t *testing.T) {
	t.Run("main method body", func(t *testing.T) {
		lines := splitLines(`using System;
namespace Demo
{
    class Program
    {
        static void Main(string[] args)
        {
            int x = 1;
            if (x > 0) { Console.WriteLine("pos"); }
        }
    }
}`)
		program, diag := ExtractEntryPoint(lines)
		require.Nil(t, diag)
		assert.True(t, program.EntryPoint)
		assert.Equal(t, []Line{
			{Number: 8, Text: "int x = 1;"},
			{Number: 9, Text: "if (x > 0) {"},
			{Number: 9, Text: `Console.WriteLine("pos");`},
			{Number: 9, Text: "}"},
		}, program.Lines)
		assert.Len(t, program.Statements(), 3)
	})

	t.Run("single-line main", func(t *testing.T) {
		program, diag := ExtractEntryPoint([]string{
			"class P {",
			`static void Main() { Console.WriteLine("hi"); }`,
			"}",
		})
		require.Nil(t, diag)
		assert.Equal(t, []string{`Console.WriteLine("hi");`}, lineTexts(program.Lines))
	})

	t.Run("top-level statements", func(t *testing.T) {
		program, diag := ExtractEntryPoint([]string{
			"using System;",
			`Console.WriteLine("a");`,
			"",
			"int y = 2;",
		})
		require.Nil(t, diag)
		assert.False(t, program.EntryPoint)
		assert.Equal(t, []Line{
			{Number: 2, Text: `Console.WriteLine("a");`},
			{Number: 4, Text: "int y = 2;"},
		}, program.Lines)
	})

	t.Run("namespace braces are dropped", func(t *testing.T) {
		program, diag := ExtractEntryPoint([]string{
			"namespace Demo",
			"{",
			"if (true)",
			"{",
			"int a = 1;",
			"}",
			"}",
		})
		require.Nil(t, diag)
		assert.Equal(t, []string{"if (true)", "{", "int a = 1;", "}"}, lineTexts(program.Lines))
	})

	t.Run("class without main", func(t *testing.T) {
		_, diag := ExtractEntryPoint([]string{"class Foo", "{", "void Bar() { }", "}"})
		require.NotNil(t, diag)
		assert.Equal(t, errors.CodeMissingEntryPoint, diag.Code)
		assert.Equal(t, 1, diag.Line)
		assert.Equal(t,
			"Error CS5001: Program does not contain a static 'Main' method suitable for an entry point",
			diag.ConsoleText())
	})

	t.Run("empty main", func(t *testing.T) {
		_, diag := ExtractEntryPoint([]string{"class P", "{", "static void Main()", "{", "}", "}"})
		require.NotNil(t, diag)
		assert.Equal(t, errors.CodeMissingEntryPoint, diag.Code)
		assert.Equal(t, 3, diag.Line)
	})

	t.Run("top-level statements beside a class", func(t *testing.T) {
		program, diag := ExtractEntryPoint([]string{
			`Console.WriteLine("hi");`,
			"class Helper",
			"{",
			"int Twice(int n) { return n * 2; }",
			"}",
			"public record Point(int X, int Y) { }",
			"int z = 3;",
		})
		require.Nil(t, diag)
		assert.Equal(t, []Line{
			{Number: 1, Text: `Console.WriteLine("hi");`},
			{Number: 7, Text: "int z = 3;"},
		}, program.Lines)
	})

	t.Run("unclosed main", func(t *testing.T) {
		_, diag := ExtractEntryPoint([]string{"class P", "{", "static void Main()", "{", "int x = 1;"})
		require.NotNil(t, diag)
		assert.Equal(t, errors.CodeMissingEntryPoint, diag.Code)
		assert.Equal(t, 3, diag.Line)
	})
}
