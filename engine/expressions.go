package engine

import (
	"math"

	"sharpbox/errors"
)

var operatorSymbols = map[TokenType]string{
	TokenPlus: "+", TokenMinus: "-", TokenMultiply: "*", TokenSlash: "/", TokenModulo: "%",
	TokenLess: "<", TokenLessEqual: "<=", TokenGreater: ">", TokenGreaterEqual: ">=",
	TokenEqual: "==", TokenNotEqual: "!=", TokenAnd: "&&", TokenOr: "||", TokenNot: "!",
}

// applyBinary evaluates a non-short-circuit binary operator
func applyBinary(operator TokenType, left, right Value) (Value, error) {
	switch operator {
	case TokenPlus:
		return executeArithmeticAdd(left, right)
	case TokenMinus, TokenMultiply, TokenSlash, TokenModulo:
		return executeArithmetic(operator, left, right)
	case TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		return executeComparison(operator, left, right)
	case TokenEqual:
		return BoolValue(left.Equal(right)), nil
	case TokenNotEqual:
		return BoolValue(!left.Equal(right)), nil
	case TokenAnd, TokenOr:
		if left.Kind() != KindBool || right.Kind() != KindBool {
			return Value{}, operandMismatch(operator, left, right)
		}
		if operator == TokenAnd {
			return BoolValue(left.Bool() && right.Bool()), nil
		}
		return BoolValue(left.Bool() || right.Bool()), nil
	}
	return Value{}, unparsable("unsupported operator " + operator.String())
}

// executeArithmeticAdd concatenates as soon as either side is a string and
// adds numerically otherwise.
func executeArithmeticAdd(left, right Value) (Value, error) {
	if left.Kind() == KindText || right.Kind() == KindText {
		return TextValue(left.String() + right.String()), nil
	}
	return executeArithmetic(TokenPlus, left, right)
}

func executeArithmetic(operator TokenType, left, right Value) (Value, error) {
	l, r, ok := numericOperands(left, right)
	if !ok {
		return Value{}, operandMismatch(operator, left, right)
	}

	if l.Kind() == KindInt && r.Kind() == KindInt {
		a, b := l.Int(), r.Int()
		switch operator {
		case TokenPlus:
			return IntValue(a + b), nil
		case TokenMinus:
			return IntValue(a - b), nil
		case TokenMultiply:
			return IntValue(a * b), nil
		case TokenSlash:
			if b == 0 {
				return Value{}, divideByZero()
			}
			return IntValue(a / b), nil
		case TokenModulo:
			if b == 0 {
				return Value{}, divideByZero()
			}
			return IntValue(a % b), nil
		}
	}

	a, b := l.Float(), r.Float()
	switch operator {
	case TokenPlus:
		return FloatValue(a + b), nil
	case TokenMinus:
		return FloatValue(a - b), nil
	case TokenMultiply:
		return FloatValue(a * b), nil
	case TokenSlash:
		if b == 0 {
			return Value{}, divideByZero()
		}
		return FloatValue(a / b), nil
	case TokenModulo:
		if b == 0 {
			return Value{}, divideByZero()
		}
		return FloatValue(math.Mod(a, b)), nil
	}
	return Value{}, operandMismatch(operator, left, right)
}

func executeComparison(operator TokenType, left, right Value) (Value, error) {
	l, r, ok := numericOperands(left, right)
	if !ok {
		return Value{}, operandMismatch(operator, left, right)
	}

	var result bool
	if l.Kind() == KindInt && r.Kind() == KindInt {
		a, b := l.Int(), r.Int()
		switch operator {
		case TokenLess:
			result = a < b
		case TokenLessEqual:
			result = a <= b
		case TokenGreater:
			result = a > b
		case TokenGreaterEqual:
			result = a >= b
		}
		return BoolValue(result), nil
	}

	a, b := l.Float(), r.Float()
	switch operator {
	case TokenLess:
		result = a < b
	case TokenLessEqual:
		result = a <= b
	case TokenGreater:
		result = a > b
	case TokenGreaterEqual:
		result = a >= b
	}
	return BoolValue(result), nil
}

// numericOperands widens chars to their code points; any other non-numeric
// operand makes the pair unusable.
func numericOperands(left, right Value) (Value, Value, bool) {
	widen := func(v Value) (Value, bool) {
		switch v.Kind() {
		case KindInt, KindFloat:
			return v, true
		case KindChar:
			return IntValue(int64(v.Char())), true
		}
		return v, false
	}
	l, lok := widen(left)
	r, rok := widen(right)
	return l, r, lok && rok
}

// applyUnary evaluates a prefix operator
func applyUnary(operator TokenType, operand Value) (Value, error) {
	switch operator {
	case TokenNot:
		if operand.Kind() != KindBool {
			return Value{}, errors.NewOperatorError("!", operand.TypeName(), operand.TypeName())
		}
		return BoolValue(!operand.Bool()), nil
	case TokenMinus:
		switch operand.Kind() {
		case KindInt:
			return IntValue(-operand.Int()), nil
		case KindFloat:
			return FloatValue(-operand.Float()), nil
		case KindChar:
			return IntValue(-int64(operand.Char())), nil
		}
	case TokenPlus:
		if operand.IsNumeric() {
			return operand, nil
		}
		if operand.Kind() == KindChar {
			return IntValue(int64(operand.Char())), nil
		}
	}
	symbol := operatorSymbols[operator]
	return Value{}, errors.NewOperatorError(symbol, operand.TypeName(), operand.TypeName())
}

func operandMismatch(operator TokenType, left, right Value) *errors.ExecutionError {
	return errors.NewOperatorError(operatorSymbols[operator], left.TypeName(), right.TypeName())
}

func divideByZero() *errors.ExecutionError {
	return errors.NewArithmeticError(errors.CodeDivideByZero, "Attempted to divide by zero.")
}
