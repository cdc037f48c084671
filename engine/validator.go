package engine

import (
	"fmt"
	"regexp"
	"strings"

	"sharpbox/errors"
)

var switchOpenPattern = regexp.MustCompile(`\bswitch\s*\{$`)

// structuralKeywords open declarations or control constructs; lines starting
// with them never need a terminator.
var structuralKeywords = []string{
	"using", "namespace", "class", "struct", "public", "private", "protected", "internal",
	"static", "if", "else", "for", "foreach", "while", "do", "break", "continue",
	"switch", "case", "default",
}

// Validate runs the terminator check over comment-free source lines. It
// stops at the first statement line without a trailing semicolon.
func Validate(lines []string) *errors.ExecutionError {
	inArms := false
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		bare := withoutLiterals(line)
		switch {
		case line == "":
			continue
		case isSwitchHeader(line, bare):
			inArms = true
			continue
		case inArms && strings.HasPrefix(line, "}"):
			inArms = false
		case inArms && strings.Contains(bare, "=>"):
			continue
		}
		if isStructural(line) || isContinuation(line) {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			return semicolonExpected(i + 1)
		}
	}
	return nil
}

func semicolonExpected(lineNumber int) *errors.ExecutionError {
	return errors.NewSyntaxError(errors.CodeSemicolonExpected,
		fmt.Sprintf("; expected at line %d", lineNumber), lineNumber).
		WithSuggestion(fmt.Sprintf("Add a semicolon (;) at the end of line %d.", lineNumber))
}

func isStructural(line string) bool {
	if strings.HasSuffix(line, "{") || strings.HasSuffix(line, "}") {
		return true
	}
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
		return true
	}
	for _, keyword := range structuralKeywords {
		if hasKeywordPrefix(line, keyword) {
			return true
		}
	}
	return false
}

// isContinuation matches lines that belong to a statement spanning several
// lines, such as argument lists and lambdas broken after the arrow.
func isContinuation(line string) bool {
	return strings.HasSuffix(line, ",") || strings.HasSuffix(line, "=>")
}

// isSwitchHeader matches the line that opens a multi-line switch expression,
// `x switch` or `x switch {`. Switch statements start with the keyword and
// are not headers.
func isSwitchHeader(line, bare string) bool {
	if hasKeywordPrefix(line, "switch") {
		return false
	}
	return bare == "switch" || strings.HasSuffix(bare, " switch") || switchOpenPattern.MatchString(bare)
}

// withoutLiterals drops the contents of string and char literals
func withoutLiterals(line string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
				b.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// maskLiterals blanks the contents of string and char literals with '_',
// keeping every byte offset of line intact.
func maskLiterals(line string) string {
	b := []byte(line)
	var quote byte
	for i := 0; i < len(b); i++ {
		switch {
		case quote != 0:
			if b[i] == quote {
				quote = 0
				continue
			}
			if b[i] == '\\' && i+1 < len(b) {
				b[i] = '_'
				i++
			}
			b[i] = '_'
		case b[i] == '"' || b[i] == '\'':
			quote = b[i]
		}
	}
	return string(b)
}
