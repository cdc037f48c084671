package engine

import (
	"regexp"
	"strings"

	"sharpbox/errors"
	"sharpbox/logging"
)

var (
	forPattern = regexp.MustCompile(`^for\s*\(\s*(?:(?:([A-Za-z_]\w*)\s+)?([A-Za-z_]\w*)\s*=\s*([^;]*))?;\s*([^;]*);\s*(.*)\)\s*\{?$`)
	// switchExpressionPattern matches `<type> name = <scrutinee> switch` with
	// the arm block either following on the same line or on the next lines.
	switchExpressionPattern = regexp.MustCompile(`^(?:([A-Za-z_][\w.<>\[\]?]*)\s+)?([A-Za-z_]\w*)\s*=\s*(.+?)\s+switch\s*(\{.*)?$`)
	doWhileTailPattern      = regexp.MustCompile(`^while\s*\((.*)\)\s*;$`)
	designationPattern      = regexp.MustCompile(`^([A-Za-z_]\w*)\s+([A-Za-z_]\w*)$`)
)

// executeIf evaluates the condition, runs the body when it holds and opens
// a new branch chain for the lines that follow.
func (x *execution) executeIf(i, limit int, chain *branchChain) (int, Signal, error) {
	body, last := x.blockBody(i, limit)
	cond, err := x.condition(headerCondition(x.program.Lines[i].Text))
	if err != nil {
		return i, SignalNormal, err
	}

	*chain = branchChain{taken: cond}
	if !cond {
		return last, SignalNormal, nil
	}
	signal, err := x.executeRange(body)
	return last, signal, err
}

// executeElse handles `else` and `else if`. A branch already taken earlier in
// the chain skips the body.
func (x *execution) executeElse(i, limit int, chain *branchChain) (int, Signal, error) {
	body, last := x.blockBody(i, limit)
	if chain.taken {
		return last, SignalNormal, nil
	}

	rest := strings.TrimSpace(x.program.Lines[i].Text[len("else"):])
	if hasKeywordPrefix(rest, "if") {
		cond, err := x.condition(headerCondition(rest))
		if err != nil {
			return i, SignalNormal, err
		}
		*chain = branchChain{taken: cond}
		if !cond {
			return last, SignalNormal, nil
		}
	} else {
		*chain = branchChain{}
	}

	signal, err := x.executeRange(body)
	return last, signal, err
}

// headerCondition returns the text between the first parenthesis of a
// control header and its match.
func headerCondition(header string) string {
	open := strings.IndexByte(header, '(')
	if open < 0 {
		return ""
	}
	closing := matchingParen(header, open)
	if closing < 0 {
		return header[open+1:]
	}
	return header[open+1 : closing]
}

// condition evaluates a boolean expression. Unknown names are reported
// rather than falling back to text.
func (x *execution) condition(expr string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	v, err := x.resolve(expr, 0, false)
	if err != nil {
		return false, err
	}
	if v.Kind() != KindBool {
		return false, errors.NewTypeError(v.TypeName(), "bool")
	}
	return v.Bool(), nil
}

// executeFor runs `for (init; cond; step)`. The header may declare the loop
// variable, reuse an existing one or omit any of the three clauses.
func (x *execution) executeFor(i, limit int) (int, Signal, error) {
	body, last := x.blockBody(i, limit)
	match := forPattern.FindStringSubmatch(x.program.Lines[i].Text)
	if match == nil {
		x.logger.Debug("unsupported for header, skipping loop", logging.IntField("line", x.line.Number))
		return last, SignalNormal, nil
	}
	typeName, name, init, cond, step := match[1], match[2], match[3], match[4], match[5]

	if name != "" {
		var err error
		if _, exists := x.env[name]; typeName != "" || !exists {
			if typeName == "" {
				typeName = "var"
			}
			err = x.executeDeclaration(typeName, name, init, true)
		} else {
			err = x.executeAssignment(name, init)
		}
		if err != nil {
			return i, SignalNormal, err
		}
	}

	signal, err := x.loop(cond, body, true, func() error {
		for _, part := range splitTopLevel(step, ',') {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			if _, err := x.executeStatement(part + ";"); err != nil {
				return err
			}
		}
		return nil
	})
	return last, signal, err
}

// executeWhile runs `while (cond)`
func (x *execution) executeWhile(i, limit int) (int, Signal, error) {
	header := x.program.Lines[i].Text
	body, last := x.blockBody(i, limit)
	if strings.HasSuffix(header, ";") {
		body, last = span{}, i
	}
	signal, err := x.loop(headerCondition(header), body, true, nil)
	return last, signal, err
}

// executeDoWhile runs `do { ... } while (cond);`. The while line after the
// body belongs to the loop.
func (x *execution) executeDoWhile(i, limit int) (int, Signal, error) {
	body, last := x.blockBody(i, limit)
	if last+1 >= limit {
		signal, err := x.executeRange(body)
		return last, loopExit(signal), err
	}
	tail := doWhileTailPattern.FindStringSubmatch(x.program.Lines[last+1].Text)
	if tail == nil {
		signal, err := x.executeRange(body)
		return last, loopExit(signal), err
	}
	signal, err := x.loop(tail[1], body, false, nil)
	return last + 1, signal, err
}

// loop drives every loop form. checkFirst is false for do-while. After
// MaxLoopIterations iterations the loop is left with a warning.
func (x *execution) loop(cond string, body span, checkFirst bool, step func() error) (Signal, error) {
	header := x.line
	for iteration := 0; ; iteration++ {
		if checkFirst || iteration > 0 {
			ok, err := x.condition(cond)
			if err != nil {
				return SignalNormal, err
			}
			if !ok {
				return SignalNormal, nil
			}
		}

		if iteration >= x.limits.MaxLoopIterations {
			x.line = header
			x.logger.Warn("loop iteration cap reached", logging.IntField("line", x.line.Number))
			x.warn("Loop stopped after %d iterations.", x.limits.MaxLoopIterations)
			return SignalNormal, nil
		}

		signal, err := x.executeRange(body)
		if err != nil {
			return SignalNormal, err
		}
		switch signal {
		case SignalBreak:
			return SignalNormal, nil
		case SignalReturn:
			return SignalReturn, nil
		}

		if step != nil {
			if err := step(); err != nil {
				return SignalNormal, err
			}
		}
	}
}

func loopExit(signal Signal) Signal {
	if signal == SignalReturn {
		return SignalReturn
	}
	return SignalNormal
}

// executeSwitchStatement runs a `switch (subject) { case ...: }` block from
// the first matching label, or default, until a break.
func (x *execution) executeSwitchStatement(i, limit int) (int, Signal, error) {
	body, last := x.blockBody(i, limit)
	subject, err := x.resolveValue(headerCondition(x.program.Lines[i].Text), 0)
	if err != nil {
		return i, SignalNormal, err
	}

	start, fallback := -1, -1
	depth := 0
	for j := body.lo; j < body.hi && start < 0; j++ {
		text := x.program.Lines[j].Text
		if depth == 0 {
			switch {
			case text == "default:":
				fallback = j
			case hasKeywordPrefix(text, "case") && strings.HasSuffix(text, ":"):
				pattern := strings.TrimSuffix(strings.TrimSpace(text[len("case"):]), ":")
				matched, err := x.matchPattern(pattern, subject)
				if err != nil {
					return i, SignalNormal, err
				}
				if matched {
					start = j
				}
			}
		}
		depth = scanBraces(text, depth, func(_, _ int, _ bool) bool { return true })
	}
	if start < 0 {
		start = fallback
	}
	if start < 0 {
		return last, SignalNormal, nil
	}

	signal, err := x.executeRange(span{lo: start + 1, hi: body.hi})
	if signal == SignalBreak {
		signal = SignalNormal
	}
	return last, signal, err
}

// switchExpressionEnd returns the line holding the brace that closes the
// arm block opened at or after line i.
func (x *execution) switchExpressionEnd(i, limit int) int {
	return min(closingLine(x.program.Lines, i, limit), limit-1)
}

// matchSwitchExpression applies switchExpressionPattern to text with its
// literals masked and returns the submatches taken from text itself.
func matchSwitchExpression(text string) []string {
	loc := switchExpressionPattern.FindStringSubmatchIndex(maskLiterals(text))
	if loc == nil {
		return nil
	}
	match := make([]string, len(loc)/2)
	for k := range match {
		if loc[2*k] >= 0 {
			match[k] = text[loc[2*k]:loc[2*k+1]]
		}
	}
	return match
}

// executeSwitchExpression evaluates `<type> name = subject switch { arms };`
// and stores the value of the first matching arm.
func (x *execution) executeSwitchExpression(i, limit int, match []string) (int, Signal, error) {
	typeName, name, scrutinee := match[1], match[2], match[3]
	end := x.switchExpressionEnd(i, limit)

	var b strings.Builder
	for j := i; j <= end; j++ {
		b.WriteString(x.program.Lines[j].Text)
		b.WriteByte('\n')
	}
	full := b.String()

	// The arm block starts at the first brace after the switch keyword
	headerEnd := len(x.program.Lines[i].Text) - len(match[4])
	open := strings.IndexByte(full[headerEnd:], '{')
	if open < 0 {
		return end, SignalNormal, unparsable("switch expression has no arms")
	}
	open += headerEnd
	closing := matchingBrace(full[open:])
	if closing < 0 {
		return end, SignalNormal, unparsable("switch expression arms are not closed")
	}
	arms := full[open+1 : open+closing]

	subject, err := x.resolveValue(scrutinee, 0)
	if err != nil {
		return i, SignalNormal, err
	}
	result, err := x.matchArms(arms, subject)
	if err != nil {
		return i, SignalNormal, err
	}

	if typeName != "" {
		err = x.storeDeclared(typeName, name, result)
	} else {
		err = x.storeAssigned(name, result)
	}
	return end, SignalNormal, err
}

// matchArms returns the value of the first arm whose pattern matches
func (x *execution) matchArms(arms string, subject Value) (Value, error) {
	for _, arm := range splitTopLevel(arms, ',') {
		arm = strings.TrimSpace(arm)
		if arm == "" {
			continue
		}
		arrow := indexOutsideLiterals(arm, "=>")
		if arrow < 0 {
			return Value{}, unparsable("switch arm without =>: " + arm)
		}
		matched, err := x.matchPattern(arm[:arrow], subject)
		if err != nil {
			return Value{}, err
		}
		if matched {
			return x.resolveValue(arm[arrow+2:], 0)
		}
	}
	return Value{}, errors.NewControlError(errors.CodeNonExhaustiveSwitch,
		"Non-exhaustive switch expression failed to match its input.")
}

// matchPattern tests subject against a pattern: discard `_`, constants,
// relational patterns, `null`, type patterns, designations such as `var n`,
// `not`, `and`, `or`, parentheses and a trailing `when` guard.
func (x *execution) matchPattern(pattern string, subject Value) (bool, error) {
	pattern = strings.TrimSpace(pattern)

	if parts := splitWord(pattern, "when"); len(parts) == 2 {
		matched, err := x.matchPattern(parts[0], subject)
		if err != nil || !matched {
			return false, err
		}
		return x.condition(parts[1])
	}
	if parts := splitWord(pattern, "or"); len(parts) > 1 {
		for _, part := range parts {
			if matched, err := x.matchPattern(part, subject); err != nil || matched {
				return matched, err
			}
		}
		return false, nil
	}
	if parts := splitWord(pattern, "and"); len(parts) > 1 {
		for _, part := range parts {
			if matched, err := x.matchPattern(part, subject); err != nil || !matched {
				return false, err
			}
		}
		return true, nil
	}
	if hasKeywordPrefix(pattern, "not") {
		matched, err := x.matchPattern(pattern[len("not"):], subject)
		return !matched, err
	}
	if strings.HasPrefix(pattern, "(") && matchingParen(pattern, 0) == len(pattern)-1 {
		return x.matchPattern(pattern[1:len(pattern)-1], subject)
	}

	switch pattern {
	case "_", "var _":
		return true, nil
	case "null":
		return isNull(subject), nil
	}
	if _, ok := typePatterns[pattern]; ok {
		return hasType(subject, pattern), nil
	}
	if m := designationPattern.FindStringSubmatch(pattern); m != nil {
		if m[1] != "var" && !hasType(subject, m[1]) {
			return false, nil
		}
		x.env[m[2]] = subject
		return true, nil
	}

	for _, op := range []struct {
		symbol string
		token  TokenType
	}{{"<=", TokenLessEqual}, {">=", TokenGreaterEqual}, {"<", TokenLess}, {">", TokenGreater}} {
		if !strings.HasPrefix(pattern, op.symbol) {
			continue
		}
		bound, err := x.resolveValue(pattern[len(op.symbol):], 0)
		if err != nil {
			return false, err
		}
		result, err := executeComparison(op.token, subject, bound)
		if err != nil {
			return false, nil
		}
		return result.Bool(), nil
	}

	constant, err := x.resolveValue(pattern, 0)
	if err != nil {
		return false, err
	}
	return subject.Equal(constant), nil
}

var typePatterns = map[string]Kind{
	"int": KindInt, "long": KindInt, "double": KindFloat, "float": KindFloat, "decimal": KindFloat,
	"string": KindText, "bool": KindBool, "char": KindChar,
}

// hasType reports whether subject is of the named primitive or record type
func hasType(subject Value, typeName string) bool {
	if kind, ok := typePatterns[typeName]; ok {
		return subject.Kind() == kind
	}
	return subject.Kind() == KindRecord && subject.Record() != nil && subject.TypeName() == typeName
}

// splitWord splits text around a whole-word keyword outside literals and
// parentheses.
func splitWord(text, word string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if end, ok := skipLiteral(text, i); ok {
				i = end
			}
		case c == '\'':
			if j := strings.IndexByte(text[i+1:], '\''); j >= 0 {
				i += j + 1
			}
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && strings.HasPrefix(text[i:], word) &&
			(i == 0 || !isIdentPart(text[i-1])) && hasKeywordPrefix(text[i:], word):
			parts = append(parts, text[start:i])
			start = i + len(word)
			i = start - 1
		}
	}
	return append(parts, text[start:])
}

// indexOutsideLiterals finds sep outside string and char literals
func indexOutsideLiterals(text, sep string) int {
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '"':
			if end, ok := skipLiteral(text, i); ok {
				i = end
			}
		case c == '\'':
			if j := strings.IndexByte(text[i+1:], '\''); j >= 0 {
				i += j + 1
			}
		case strings.HasPrefix(text[i:], sep):
			return i
		}
	}
	return -1
}
