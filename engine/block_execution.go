package engine

import (
	"strings"

	"sharpbox/errors"
	"sharpbox/logging"
)

// branchChain tracks an if / else if / else chain within one range
type branchChain struct {
	taken bool
}

// executeRange runs the statements of a span in order. A break, continue
// or return signal stops the range and is handed to the caller.
func (x *execution) executeRange(s span) (Signal, error) {
	var chain branchChain

	for i := s.lo; i < s.hi; i++ {
		if x.ctx.Err() != nil {
			return SignalNormal, errRunAbandoned
		}

		line := x.program.Lines[i]
		if line.IsBrace() || line.Text == "" {
			continue
		}
		x.line = line

		last, signal, err := x.executeLine(i, s.hi, &chain)
		if err != nil {
			if execErr, ok := errors.AsExecutionError(err); ok && err != errRunAbandoned {
				execErr.WithLine(line.Number)
			}
			return SignalNormal, err
		}
		if signal != SignalNormal {
			return signal, nil
		}
		i = last
	}
	return SignalNormal, nil
}

// executeLine dispatches the line at index i. It returns the index of the
// last line it consumed, which is past i for block statements.
func (x *execution) executeLine(i, limit int, chain *branchChain) (int, Signal, error) {
	text := x.program.Lines[i].Text
	x.logger.Debug("executing line", logging.IntField("line", x.line.Number), logging.StringField("text", text))

	switch {
	case text == "break;":
		return i, SignalBreak, nil
	case text == "continue;":
		return i, SignalContinue, nil
	case hasKeywordPrefix(text, "return"):
		if expr := strings.TrimSuffix(strings.TrimSpace(text[len("return"):]), ";"); expr != "" {
			if _, err := x.resolveValue(expr, 0); err != nil {
				return i, SignalNormal, err
			}
		}
		return i, SignalReturn, nil
	case hasKeywordPrefix(text, "if"):
		return x.executeIf(i, limit, chain)
	case hasKeywordPrefix(text, "else"):
		return x.executeElse(i, limit, chain)
	}

	*chain = branchChain{}

	if match := matchSwitchExpression(text); match != nil {
		return x.executeSwitchExpression(i, limit, match)
	}

	switch {
	case hasKeywordPrefix(text, "for"):
		return x.executeFor(i, limit)
	case hasKeywordPrefix(text, "while"):
		return x.executeWhile(i, limit)
	case hasKeywordPrefix(text, "do"):
		return x.executeDoWhile(i, limit)
	case hasKeywordPrefix(text, "switch"):
		return x.executeSwitchStatement(i, limit)
	case hasKeywordPrefix(text, "foreach"):
		_, last := x.blockBody(i, limit)
		x.logger.Debug("foreach is not supported, skipping its body", logging.IntField("line", x.line.Number))
		return last, SignalNormal, nil
	}

	handled, err := x.executeStatement(text)
	if err != nil {
		return i, SignalNormal, err
	}
	if !handled {
		x.logger.Debug("ignoring unrecognised line", logging.IntField("line", x.line.Number), logging.StringField("text", text))
	}
	return i, SignalNormal, nil
}

// executeStatement runs a simple statement. It reports false for lines it
// does not recognise.
func (x *execution) executeStatement(text string) (bool, error) {
	if match := consoleWritePattern.FindStringSubmatch(text); match != nil {
		return true, x.executeConsoleWrite(match)
	}
	if match := declarationPattern.FindStringSubmatch(text); match != nil && !statementKeywords[match[1]] {
		return true, x.executeDeclaration(match[1], match[2], match[4], match[3] != "")
	}
	if match := memberAssignmentPattern.FindStringSubmatch(text); match != nil {
		return true, x.executeMemberAssignment(match[1], match[2], match[3])
	}
	if match := assignmentPattern.FindStringSubmatch(text); match != nil {
		return true, x.executeAssignment(match[1], match[2])
	}
	if match := compoundAssignmentPattern.FindStringSubmatch(text); match != nil {
		return true, x.executeCompoundAssignment(match[1], match[2], match[3])
	}
	if match := incDecPattern.FindStringSubmatch(text); match != nil {
		name, op := match[1], match[2]
		if name == "" {
			name, op = match[4], match[3]
		}
		return true, x.executeIncDec(name, op)
	}
	return x.executeExpressionStatement(text)
}

// executeExpressionStatement evaluates a bare call or throw such as
// `Console.ReadLine();` for its effect. Calls to unknown methods are
// ignored.
func (x *execution) executeExpressionStatement(text string) (bool, error) {
	if !strings.HasSuffix(text, ";") {
		return false, nil
	}
	expr := strings.TrimSpace(strings.TrimSuffix(text, ";"))
	node, err := ParseExpression(expr)
	if err != nil {
		return false, nil
	}
	switch node.(type) {
	case *CallExpr, *ThrowExpr:
	default:
		return false, nil
	}

	if _, err := x.eval(node, 0); err != nil {
		if errors.IsRecoverable(err) {
			x.logger.Debug("ignoring call", logging.StringField("expr", expr), logging.ErrorField("reason", err))
			return true, nil
		}
		return true, err
	}
	return true, nil
}

// blockBody applies the block-skip rule to the control line at index i: a
// brace on the line opens the block, otherwise a brace on the next line
// does, otherwise the block is the next statement alone. It returns the
// body span and the index of the last line belonging to the block.
func (x *execution) blockBody(i, limit int) (span, int) {
	lines := x.program.Lines
	if opensBlock(lines[i].Text) {
		end := closingLine(lines, i, limit)
		return span{lo: i + 1, hi: end}, min(end, limit-1)
	}
	if i+1 < limit && strings.HasPrefix(lines[i+1].Text, "{") {
		end := closingLine(lines, i+1, limit)
		return span{lo: i + 2, hi: end}, min(end, limit-1)
	}
	if i+1 >= limit {
		return span{lo: limit, hi: limit}, i
	}
	last := x.statementEnd(i+1, limit)
	return span{lo: i + 1, hi: last + 1}, last
}

// statementEnd returns the last line of the statement starting at i,
// following nested braceless control statements.
func (x *execution) statementEnd(i, limit int) int {
	text := x.program.Lines[i].Text
	switch controlKeyword(text) {
	case "if", "for", "foreach", "while", "switch":
		if !strings.HasSuffix(text, ";") {
			_, last := x.blockBody(i, limit)
			return last
		}
	case "else", "do":
		_, last := x.blockBody(i, limit)
		return last
	}
	if matchSwitchExpression(text) != nil {
		return x.switchExpressionEnd(i, limit)
	}
	return i
}

// opensBlock reports whether a brace opens on the line outside literals
func opensBlock(text string) bool {
	opened := false
	scanBraces(text, 0, func(_, _ int, open bool) bool {
		opened = open
		return !open
	})
	return opened
}

// closingLine returns the index of the line whose brace brings the depth
// counted from start back to zero, or limit when the block never closes.
func closingLine(lines []Line, start, limit int) int {
	depth := 0
	for j := start; j < limit; j++ {
		closed := false
		depth = scanBraces(lines[j].Text, depth, func(_, d int, open bool) bool {
			if !open && d == 0 {
				closed = true
				return false
			}
			return true
		})
		if closed {
			return j
		}
	}
	return limit
}
