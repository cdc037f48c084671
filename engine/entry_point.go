package engine

import (
	"regexp"
	"strings"

	"sharpbox/errors"
)

var (
	entryPattern = regexp.MustCompile(`static\s+(?:async\s+)?(?:void|int|Task(?:<int>)?)\s+Main\s*\(`)
	classPattern = regexp.MustCompile(`^(?:(?:public|private|internal|protected|static|sealed|abstract|partial)\s+)*(?:class|struct|record)\s+\w+`)
)

// ExtractEntryPoint selects the statements to run. With a Main method the
// body between its outermost braces is used; without one every line except
// using directives, namespace scaffolding and class declarations runs as a
// top-level statement. An empty Main body, an unclosed Main, or a file whose
// classes leave no top-level statement is rejected with CS5001.
func ExtractEntryPoint(lines []string) (*Program, *errors.ExecutionError) {
	for i, raw := range lines {
		if !entryPattern.MatchString(raw) {
			continue
		}
		program, ok := extractMain(lines, i)
		if !ok || len(program.Statements()) == 0 {
			return nil, missingEntryPoint(i + 1)
		}
		return program, nil
	}

	program, classLine := extractTopLevel(lines)
	if classLine > 0 && len(program.Statements()) == 0 {
		return nil, missingEntryPoint(classLine)
	}
	return program, nil
}

func missingEntryPoint(line int) *errors.ExecutionError {
	return errors.NewSyntaxError(errors.CodeMissingEntryPoint,
		"Program does not contain a static 'Main' method suitable for an entry point", line).
		WithSuggestion("Define the entry point as: static void Main(string[] args) { ... }")
}

// extractMain collects the lines inside Main's braces. It reports false when
// the body is never closed.
func extractMain(lines []string, signature int) (*Program, bool) {
	program := &Program{EntryPoint: true}
	depth := 0
	opened := false

	for j := signature; j < len(lines); j++ {
		text := strings.TrimSpace(lines[j])
		wasOpen := opened
		closes := false

		depth = scanBraces(text, depth, func(_, d int, open bool) bool {
			if open {
				opened = true
			} else if opened && d == 0 {
				closes = true
				return false
			}
			return true
		})

		switch {
		case !wasOpen && opened && closes:
			// Single-line body: static void Main() { ... }
			inner := text[strings.Index(text, "{")+1 : strings.LastIndex(text, "}")]
			program.Lines = append(program.Lines, normalizeLine(j+1, inner)...)
		case wasOpen && !closes && text != "":
			program.Lines = append(program.Lines, normalizeLine(j+1, text)...)
		}

		if closes {
			return program, true
		}
	}

	return nil, false
}

// extractTopLevel keeps every statement line, dropping using directives,
// namespace headers and the braces that belong to namespaces. Class
// declarations are dropped together with their bodies. It also returns the
// line of the first class declaration, zero when there is none.
func extractTopLevel(lines []string) (*Program, int) {
	program := &Program{}
	var scopes []bool // true for braces opened by a namespace
	pendingNamespace := false
	classLine := 0
	inClass := false
	classDepth := 0
	classOpened := false

	for i, raw := range lines {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		if !inClass && classPattern.MatchString(text) {
			if classLine == 0 {
				classLine = i + 1
			}
			inClass, classDepth, classOpened = true, 0, false
		}
		if inClass {
			classDepth = scanBraces(text, classDepth, func(_, _ int, open bool) bool {
				if open {
					classOpened = true
				}
				return true
			})
			if (classOpened && classDepth <= 0) || (!classOpened && strings.HasSuffix(text, ";")) {
				inClass = false
			}
			pendingNamespace = false
			continue
		}

		if hasKeywordPrefix(text, "using") && strings.HasSuffix(text, ";") {
			continue
		}

		if hasKeywordPrefix(text, "namespace") {
			if strings.HasSuffix(text, "{") {
				scopes = append(scopes, true)
			} else if !strings.HasSuffix(text, ";") {
				pendingNamespace = true
			}
			continue
		}

		switch text {
		case "{":
			scopes = append(scopes, pendingNamespace)
			if !pendingNamespace {
				program.Lines = append(program.Lines, Line{Number: i + 1, Text: text})
			}
			pendingNamespace = false
			continue
		case "}":
			namespaceBrace := false
			if len(scopes) > 0 {
				namespaceBrace = scopes[len(scopes)-1]
				scopes = scopes[:len(scopes)-1]
			}
			if !namespaceBrace {
				program.Lines = append(program.Lines, Line{Number: i + 1, Text: text})
			}
			continue
		}

		pendingNamespace = false
		scanBraces(text, 0, func(_, _ int, open bool) bool {
			if open {
				scopes = append(scopes, false)
			} else if len(scopes) > 0 {
				scopes = scopes[:len(scopes)-1]
			}
			return true
		})
		program.Lines = append(program.Lines, normalizeLine(i+1, text)...)
	}

	return program, classLine
}
