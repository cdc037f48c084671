package engine

import (
	"strings"
)

// Line is one executable source line. Number is the 1-based line in the
// original program and survives every pass.
type Line struct {
	Number int
	Text   string
}

// IsBrace reports whether the line is a bare block delimiter
func (l Line) IsBrace() bool {
	return l.Text == "{" || l.Text == "}"
}

// Program is the line arena handed to the executor. Bare braces stay in the
// arena as block delimiters but never execute.
type Program struct {
	Lines []Line
	// EntryPoint is true when the lines came from a Main method rather than
	// top-level statements.
	EntryPoint bool
}

// Statements returns the executable lines, without block delimiters
func (p *Program) Statements() []Line {
	out := make([]Line, 0, len(p.Lines))
	for _, line := range p.Lines {
		if !line.IsBrace() {
			out = append(out, line)
		}
	}
	return out
}

func (p *Program) all() span {
	return span{lo: 0, hi: len(p.Lines)}
}

// span is a half-open index range into a Program's lines
type span struct {
	lo, hi int
}

func (s span) empty() bool { return s.lo >= s.hi }

// stripComments blanks out // and /* */ comments. Newlines inside block
// comments are kept so line numbers do not shift, and comment markers inside
// string or char literals are left alone.
func stripComments(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	const (
		stateCode = iota
		stateString
		stateVerbatim
		stateChar
		stateLineComment
		stateBlockComment
	)

	state := stateCode
	for i := 0; i < len(src); i++ {
		c := src[i]
		var next byte
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case c == '/' && next == '/':
				state = stateLineComment
				i++
				continue
			case c == '/' && next == '*':
				state = stateBlockComment
				i++
				continue
			case c == '@' && next == '"':
				state = stateVerbatim
				out.WriteByte(c)
				out.WriteByte(next)
				i++
				continue
			case c == '"':
				state = stateString
			case c == '\'':
				state = stateChar
			}
			out.WriteByte(c)

		case stateString, stateChar:
			out.WriteByte(c)
			closing := byte('"')
			if state == stateChar {
				closing = '\''
			}
			switch {
			case c == '\\' && next != 0 && next != '\n':
				out.WriteByte(next)
				i++
			case c == closing || c == '\n':
				state = stateCode
			}

		case stateVerbatim:
			out.WriteByte(c)
			if c == '"' {
				if next == '"' {
					out.WriteByte(next)
					i++
				} else {
					state = stateCode
				}
			}

		case stateLineComment:
			if c == '\n' {
				out.WriteByte(c)
				state = stateCode
			}

		case stateBlockComment:
			if c == '\n' {
				out.WriteByte(c)
			} else if c == '*' && next == '/' {
				state = stateCode
				i++
			}
		}
	}

	return out.String()
}

// splitLines splits source text into raw lines, tolerating CRLF input
func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.Split(src, "\n")
}

// scanBraces scans a line for braces outside string and char literals.
// visit is called for every brace with its offset and the running depth
// after it; returning false stops the scan.
func scanBraces(text string, depth int, visit func(pos, depth int, open bool) bool) int {
	inString, inChar := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inString || inChar:
			if c == '\\' {
				i++
			} else if (inString && c == '"') || (inChar && c == '\'') {
				inString, inChar = false, false
			}
		case c == '"':
			inString = true
		case c == '\'':
			inChar = true
		case c == '{':
			depth++
			if !visit(i, depth, true) {
				return depth
			}
		case c == '}':
			depth--
			if !visit(i, depth, false) {
				return depth
			}
		}
	}
	return depth
}

// normalizeLine turns one trimmed source line into arena lines. A leading
// `}` is split from a keyword that follows it (`} else {`), control headers
// are separated from bodies written on the same line and several statements
// sharing a line become one line each. Every produced line keeps number.
func normalizeLine(number int, text string) []Line {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if len(text) > 1 && text[0] == '}' {
		if rest := strings.TrimSpace(text[1:]); isIdentStart(rest[0]) {
			return append([]Line{{Number: number, Text: "}"}}, normalizeLine(number, rest)...)
		}
	}

	if label, rest, ok := splitCaseLabel(text); ok && rest != "" {
		return append([]Line{{Number: number, Text: label}}, normalizeLine(number, rest)...)
	}

	keyword := controlKeyword(text)
	if keyword == "" {
		return splitStatements(number, text)
	}

	head, rest := splitControlHeader(text, keyword)
	switch {
	case rest == "" || rest == "{" || rest == ";":
		return []Line{{Number: number, Text: text}}
	case rest[0] == '{':
		lines := []Line{{Number: number, Text: head + " {"}}
		closing := matchingBrace(rest)
		if closing < 0 {
			return append(lines, splitStatements(number, rest[1:])...)
		}
		lines = append(lines, splitStatements(number, rest[1:closing])...)
		lines = append(lines, Line{Number: number, Text: "}"})
		return append(lines, normalizeLine(number, rest[closing+1:])...)
	default:
		return append([]Line{{Number: number, Text: head}}, normalizeLine(number, rest)...)
	}
}

// splitStatements splits text on semicolons outside literals, parentheses
// and braces.
func splitStatements(number int, text string) []Line {
	pieces := splitTopLevel(text, ';')
	if len(pieces) == 1 || (len(pieces) == 2 && strings.TrimSpace(pieces[1]) == "") {
		return []Line{{Number: number, Text: strings.TrimSpace(text)}}
	}

	var lines []Line
	for i, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if i < len(pieces)-1 {
			piece += ";"
		}
		if controlKeyword(piece) != "" || len(pieces) > 2 {
			lines = append(lines, normalizeLine(number, piece)...)
			continue
		}
		lines = append(lines, Line{Number: number, Text: piece})
	}
	return lines
}

// splitCaseLabel separates `case X:` or `default:` from a statement that
// follows it on the same line.
func splitCaseLabel(text string) (string, string, bool) {
	if !hasKeywordPrefix(text, "case") && !hasKeywordPrefix(text, "default") {
		return "", "", false
	}
	parts := splitTopLevel(text, ':')
	if len(parts) < 2 {
		return "", "", false
	}
	label := strings.TrimSpace(parts[0]) + ":"
	return label, strings.TrimSpace(text[len(parts[0])+1:]), true
}

var controlKeywords = []string{"if", "else", "for", "foreach", "while", "do", "switch"}

func controlKeyword(text string) string {
	for _, keyword := range controlKeywords {
		if hasKeywordPrefix(text, keyword) {
			return keyword
		}
	}
	return ""
}

// splitControlHeader separates `if (cond)`, `else if (cond)`, `else`, `do`
// or a loop header from whatever follows it on the line.
func splitControlHeader(text, keyword string) (string, string) {
	switch keyword {
	case "else":
		rest := strings.TrimSpace(text[len("else"):])
		if hasKeywordPrefix(rest, "if") {
			head, tail := splitControlHeader(rest, "if")
			return "else " + head, tail
		}
		return "else", rest
	case "do":
		return "do", strings.TrimSpace(text[len("do"):])
	}

	open := strings.IndexByte(text, '(')
	if open < 0 {
		return text, ""
	}
	closing := matchingParen(text, open)
	if closing < 0 {
		return text, ""
	}
	return text[:closing+1], strings.TrimSpace(text[closing+1:])
}

// matchingParen returns the index of the parenthesis closing the one at
// open, skipping string and char literals, or -1.
func matchingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '"':
			end, ok := skipLiteral(text, i)
			if !ok {
				return -1
			}
			i = end
		case '\'':
			if j := strings.IndexByte(text[i+1:], '\''); j >= 0 {
				i += j + 1
			}
		}
	}
	return -1
}

// matchingBrace returns the index of the brace closing the one text starts
// with, or -1.
func matchingBrace(text string) int {
	closing := -1
	scanBraces(text, 0, func(pos, depth int, open bool) bool {
		if !open && depth == 0 {
			closing = pos
			return false
		}
		return true
	})
	return closing
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// hasKeywordPrefix reports whether text starts with keyword as a whole word
func hasKeywordPrefix(text, keyword string) bool {
	if !strings.HasPrefix(text, keyword) {
		return false
	}
	return len(text) == len(keyword) || !isIdentPart(text[len(keyword)])
}
