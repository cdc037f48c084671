package engine

import (
	"fmt"
	"strings"

	"sharpbox/errors"
	"sharpbox/logging"
)

// resolveValue evaluates an expression to a typed value. Resolution tries,
// in order: a single literal, a whole interpolated string, a bare variable,
// the expression grammar, and finally plain `+` concatenation for text the
// grammar cannot handle. depth counts nested interpolation levels.
func (x *execution) resolveValue(expr string, depth int) (Value, error) {
	return x.resolve(expr, depth, true)
}

// resolveDisplay evaluates an expression and renders it as console text
func (x *execution) resolveDisplay(expr string, depth int) (string, error) {
	v, err := x.resolve(expr, depth, true)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (x *execution) resolve(expr string, depth int, fallback bool) (Value, error) {
	if depth >= x.limits.MaxExpressionDepth {
		return Value{}, errors.NewControlError(errors.CodeExpressionTooDeep,
			fmt.Sprintf("Expression too complex (nesting deeper than %d levels)", x.limits.MaxExpressionDepth))
	}

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return TextValue(""), nil
	}

	if tokens, err := Tokenize(expr); err == nil && len(tokens) == 2 {
		switch tok := tokens[0]; tok.Type {
		case TokenString, TokenChar, TokenNumber, TokenTrue, TokenFalse:
			node, err := ParseExpression(expr)
			if err == nil {
				return node.(*LiteralExpr).Value, nil
			}
		case TokenInterpolated:
			text, err := x.interpolate(tok.Value, depth)
			return TextValue(text), err
		case TokenIdentifier:
			if v, ok := x.env[tok.Value]; ok {
				return v, nil
			}
		}
	}

	node, err := ParseExpression(expr)
	if err == nil {
		var v Value
		v, err = x.eval(node, depth)
		if err == nil {
			return v, nil
		}
	}
	if !fallback || !errors.IsRecoverable(err) {
		return Value{}, err
	}

	x.logger.Debug("expression fell back to concatenation", logging.StringField("expr", expr), logging.ErrorField("reason", err))
	return TextValue(x.concatFallback(expr)), nil
}

// eval walks a parsed expression tree
func (x *execution) eval(node Expr, depth int) (Value, error) {
	switch n := node.(type) {
	case *LiteralExpr:
		return n.Value, nil

	case *InterpolatedExpr:
		text, err := x.interpolate(n.Body, depth)
		return TextValue(text), err

	case *IdentifierExpr:
		if v, ok := x.env[n.Name]; ok {
			return v, nil
		}
		return Value{}, unknownName(n.Name)

	case *MemberExpr:
		return x.evalMember(n, depth)

	case *CallExpr:
		return x.evalCall(n, depth)

	case *UnaryExpr:
		operand, err := x.eval(n.Operand, depth)
		if err != nil {
			return Value{}, err
		}
		return applyUnary(n.Operator, operand)

	case *BinaryExpr:
		left, err := x.eval(n.Left, depth)
		if err != nil {
			return Value{}, err
		}
		if n.Operator == TokenAnd || n.Operator == TokenOr {
			if left.Kind() != KindBool {
				return Value{}, errors.NewOperatorError(operatorSymbols[n.Operator], left.TypeName(), "bool")
			}
			if (n.Operator == TokenAnd && !left.Bool()) || (n.Operator == TokenOr && left.Bool()) {
				return left, nil
			}
		}
		right, err := x.eval(n.Right, depth)
		if err != nil {
			return Value{}, err
		}
		return applyBinary(n.Operator, left, right)

	case *TernaryExpr:
		cond, err := x.eval(n.Condition, depth)
		if err != nil {
			return Value{}, err
		}
		if cond.Kind() != KindBool {
			return Value{}, errors.NewTypeError(cond.TypeName(), "bool")
		}
		if cond.Bool() {
			return x.eval(n.Then, depth)
		}
		return x.eval(n.Else, depth)

	case *NewExpr:
		if _, err := x.evalArgs(n.Args, depth); err != nil {
			return Value{}, err
		}
		return RecordValue(n.TypeName), nil

	case *ThrowExpr:
		args, err := x.evalArgs(n.Args, depth)
		if err != nil {
			return Value{}, err
		}
		return Value{}, thrownException(n.TypeName, args)
	}

	return Value{}, unparsable(fmt.Sprintf("unsupported expression %T", node))
}

func (x *execution) evalArgs(args []Expr, depth int) ([]Value, error) {
	values := make([]Value, len(args))
	for i, arg := range args {
		v, err := x.eval(arg, depth)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (x *execution) evalMember(n *MemberExpr, depth int) (Value, error) {
	// Type-qualified constants win unless the base name is a variable
	if name, ok := qualifiedName(n); ok && !x.isVariableRoot(n) {
		if v, found := staticMembers[name]; found {
			return v, nil
		}
		if _, found := staticBuiltins[name]; found {
			return Value{}, unparsable(name + " is a method and must be called")
		}
	}

	target, err := x.eval(n.Target, depth)
	if err != nil {
		return Value{}, err
	}
	return memberOf(target, n.Name)
}

func (x *execution) evalCall(n *CallExpr, depth int) (Value, error) {
	args, err := x.evalArgs(n.Args, depth)
	if err != nil {
		return Value{}, err
	}

	if name, ok := qualifiedName(n.Callee); ok && !x.isVariableRoot(n.Callee) {
		if fn, found := staticBuiltins[name]; found {
			return fn(x, args)
		}
		if strings.HasPrefix(name, "(") {
			return castValue(strings.Trim(name, "()"), args[0])
		}
	}

	member, ok := n.Callee.(*MemberExpr)
	if !ok {
		name, _ := qualifiedName(n.Callee)
		return Value{}, unknownName(name)
	}
	target, err := x.eval(member.Target, depth)
	if err != nil {
		return Value{}, err
	}
	return callMethod(target, member.Name, args)
}

// isVariableRoot reports whether the leftmost identifier of a member chain
// names a program variable.
func (x *execution) isVariableRoot(expr Expr) bool {
	for {
		switch e := expr.(type) {
		case *IdentifierExpr:
			_, ok := x.env[e.Name]
			return ok
		case *MemberExpr:
			expr = e.Target
		default:
			return false
		}
	}
}

// interpolate expands the placeholders of an interpolated string body.
// Placeholders that name unknown variables or do not parse are kept
// verbatim; any other failure aborts.
func (x *execution) interpolate(body string, depth int) (string, error) {
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		var next byte
		if i+1 < len(body) {
			next = body[i+1]
		}

		switch {
		case c == '{' && next == '{':
			b.WriteByte('{')
			i++
		case c == '}' && next == '}':
			b.WriteByte('}')
			i++
		case c == '\\' && next != 0:
			b.WriteString(unescape(next))
			i++
		case c == '{':
			end := matchPlaceholder(body, i)
			if end < 0 {
				b.WriteString(body[i:])
				return b.String(), nil
			}
			inner := body[i+1 : end]
			expr, format := splitFormat(inner)
			v, err := x.resolve(expr, depth+1, false)
			switch {
			case err == nil:
				b.WriteString(formatValue(v, format))
			case errors.IsRecoverable(err):
				b.WriteString(body[i : end+1])
			default:
				return "", err
			}
			i = end
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// matchPlaceholder returns the index of the brace closing the placeholder
// opened at start, or -1.
func matchPlaceholder(body string, start int) int {
	depth := 0
	for i := start; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		case '"':
			end, ok := skipLiteral(body, i)
			if !ok {
				return -1
			}
			i = end
		case '\'':
			if j := strings.IndexByte(body[i+1:], '\''); j >= 0 {
				i += j + 1
			}
		}
	}
	return -1
}

// splitFormat separates `expr:format` at the first colon outside
// parentheses and literals. A ternary must be parenthesised to survive.
func splitFormat(inner string) (string, string) {
	parens := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			parens++
		case ')':
			parens--
		case '"':
			if end, ok := skipLiteral(inner, i); ok {
				i = end
			}
		case ':':
			if parens == 0 {
				return inner[:i], strings.TrimSpace(inner[i+1:])
			}
		}
	}
	return inner, ""
}

// concatFallback joins the `+` separated parts of expr, keeping quoted text
// and known variables and dropping anything unresolvable.
func (x *execution) concatFallback(expr string) string {
	var b strings.Builder
	for _, part := range splitTopLevel(expr, '+') {
		part = strings.TrimSpace(part)
		switch {
		case len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"':
			b.WriteString(part[1 : len(part)-1])
		case isIntegerLiteral(part):
			b.WriteString(part)
		default:
			if v, ok := x.env[part]; ok {
				b.WriteString(v.String())
			}
		}
	}
	return b.String()
}

// splitTopLevel splits text on sep outside quotes and parentheses
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	parens, start := 0, 0
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '{' || c == '[':
			parens++
		case c == ')' || c == '}' || c == ']':
			parens--
		case c == sep && parens == 0:
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	return append(parts, text[start:])
}

func isIntegerLiteral(text string) bool {
	text = strings.TrimPrefix(text, "-")
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) {
			return false
		}
	}
	return true
}

func isIdentifier(text string) bool {
	if text == "" || !isIdentStart(text[0]) {
		return false
	}
	for i := 1; i < len(text); i++ {
		if !isIdentPart(text[i]) {
			return false
		}
	}
	return true
}

func unknownName(name string) *errors.ExecutionError {
	return errors.NewRuntimeError(errors.CodeUnknownName,
		fmt.Sprintf("The name '%s' does not exist in the current context", name)).
		WithSuggestion(fmt.Sprintf("Declare '%s' before using it and check the spelling.", name))
}

// thrownException turns `throw new T(msg)` into a runtime error carrying msg
func thrownException(typeName string, args []Value) *errors.ExecutionError {
	message := ""
	if len(args) > 0 {
		message = args[0].String()
	}
	if message == "" {
		message = defaultExceptionMessages[typeName]
	}
	if message == "" {
		message = fmt.Sprintf("Exception of type '%s' was thrown.", typeName)
	}
	return errors.NewRuntimeError(errors.CodeThrown, message).WithContext("exception", typeName)
}

var defaultExceptionMessages = map[string]string{
	"DivideByZeroException":     "Attempted to divide by zero.",
	"InvalidOperationException": "Operation is not valid due to the current state of the object.",
	"ArgumentException":         "Value does not fall within the expected range.",
	"FormatException":           "Input string was not in a correct format.",
	"NotImplementedException":   "The method or operation is not implemented.",
}
