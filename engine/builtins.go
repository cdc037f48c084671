package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"sharpbox/errors"
)

type builtinFunc func(x *execution, args []Value) (Value, error)

// staticMembers are the type-qualified constants programs may reference
var staticMembers = map[string]Value{
	"Math.PI":             FloatValue(math.Pi),
	"Math.E":              FloatValue(math.E),
	"int.MaxValue":        IntValue(math.MaxInt32),
	"int.MinValue":        IntValue(math.MinInt32),
	"long.MaxValue":       IntValue(math.MaxInt64),
	"long.MinValue":       IntValue(math.MinInt64),
	"double.MaxValue":     FloatValue(math.MaxFloat64),
	"string.Empty":        TextValue(""),
	"String.Empty":        TextValue(""),
	"Environment.NewLine": TextValue("\n"),
}

// staticBuiltins maps type-qualified method names to their implementation
var staticBuiltins = map[string]builtinFunc{
	"Console.ReadLine": func(x *execution, args []Value) (Value, error) {
		if err := arity("Console.ReadLine", args, 0); err != nil {
			return Value{}, err
		}
		text, err := x.readLine()
		return TextValue(text), err
	},
	"Console.Clear": func(x *execution, args []Value) (Value, error) {
		return Value{}, arity("Console.Clear", args, 0)
	},
	"Console.ReadKey": func(x *execution, args []Value) (Value, error) {
		text, err := x.readLine()
		if err != nil {
			return Value{}, err
		}
		return keyInfo(text), nil
	},

	"Math.Abs": numericUnary("Math.Abs", func(v Value) Value {
		if v.Kind() == KindInt {
			if v.Int() < 0 {
				return IntValue(-v.Int())
			}
			return v
		}
		return FloatValue(math.Abs(v.Float()))
	}),
	"Math.Max":      numericPair("Math.Max", func(a, b int64) int64 { return max(a, b) }, math.Max),
	"Math.Min":      numericPair("Math.Min", func(a, b int64) int64 { return min(a, b) }, math.Min),
	"Math.Sqrt":     floatUnary("Math.Sqrt", math.Sqrt),
	"Math.Floor":    floatUnary("Math.Floor", math.Floor),
	"Math.Ceiling":  floatUnary("Math.Ceiling", math.Ceil),
	"Math.Truncate": floatUnary("Math.Truncate", math.Trunc),
	"Math.Pow": func(x *execution, args []Value) (Value, error) {
		if err := arity("Math.Pow", args, 2); err != nil {
			return Value{}, err
		}
		a, b, ok := numericOperands(args[0], args[1])
		if !ok {
			return Value{}, argumentType("Math.Pow", args)
		}
		return FloatValue(math.Pow(a.Float(), b.Float())), nil
	},
	"Math.Round": func(x *execution, args []Value) (Value, error) {
		if err := arity("Math.Round", args, 1, 2); err != nil {
			return Value{}, err
		}
		if !args[0].IsNumeric() {
			return Value{}, argumentType("Math.Round", args)
		}
		if len(args) == 1 {
			return FloatValue(math.RoundToEven(args[0].Float())), nil
		}
		scale := math.Pow(10, float64(args[1].Int()))
		return FloatValue(math.RoundToEven(args[0].Float()*scale) / scale), nil
	},

	"Convert.ToInt32":   toInt,
	"Convert.ToInt64":   toInt,
	"Convert.ToDouble":  toFloat,
	"Convert.ToDecimal": toFloat,
	"Convert.ToString": func(x *execution, args []Value) (Value, error) {
		if err := arity("Convert.ToString", args, 1); err != nil {
			return Value{}, err
		}
		return TextValue(args[0].String()), nil
	},
	"Convert.ToBoolean": func(x *execution, args []Value) (Value, error) {
		if err := arity("Convert.ToBoolean", args, 1); err != nil {
			return Value{}, err
		}
		switch v := args[0]; v.Kind() {
		case KindBool:
			return v, nil
		case KindInt, KindFloat:
			return BoolValue(v.Float() != 0), nil
		default:
			return BoolValue(strings.EqualFold(strings.TrimSpace(v.String()), "true")), nil
		}
	},
	"int.Parse":     parseInt,
	"long.Parse":    parseInt,
	"double.Parse":  parseFloat,
	"float.Parse":   parseFloat,
	"decimal.Parse": parseFloat,

	"string.IsNullOrEmpty": func(x *execution, args []Value) (Value, error) {
		if err := arity("string.IsNullOrEmpty", args, 1); err != nil {
			return Value{}, err
		}
		return BoolValue(args[0].String() == "" || isNull(args[0])), nil
	},
	"string.IsNullOrWhiteSpace": func(x *execution, args []Value) (Value, error) {
		if err := arity("string.IsNullOrWhiteSpace", args, 1); err != nil {
			return Value{}, err
		}
		return BoolValue(strings.TrimSpace(args[0].String()) == "" || isNull(args[0])), nil
	},
	"string.Format": func(x *execution, args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{}, argumentCount("string.Format", 0)
		}
		text, err := formatComposite(args[0].String(), args[1:])
		return TextValue(text), err
	},
	"string.Concat": func(x *execution, args []Value) (Value, error) {
		var b strings.Builder
		for _, arg := range args {
			b.WriteString(arg.String())
		}
		return TextValue(b.String()), nil
	},

	"char.IsDigit":  charPredicate("char.IsDigit", unicode.IsDigit),
	"char.IsLetter": charPredicate("char.IsLetter", unicode.IsLetter),
	"char.IsUpper":  charPredicate("char.IsUpper", unicode.IsUpper),
	"char.IsLower":  charPredicate("char.IsLower", unicode.IsLower),
	"char.ToUpper":  charMapping("char.ToUpper", unicode.ToUpper),
	"char.ToLower":  charMapping("char.ToLower", unicode.ToLower),
}

func init() {
	for name, fn := range staticBuiltins {
		if strings.HasPrefix(name, "string.") {
			staticBuiltins["String."+strings.TrimPrefix(name, "string.")] = fn
		}
	}
}

// keyInfo builds the ConsoleKeyInfo record returned by Console.ReadKey
func keyInfo(text string) Value {
	key := RecordValue("ConsoleKeyInfo")
	r, _ := utf8.DecodeRuneInString(text)
	if text == "" {
		r = '\r'
	}
	key.Record().Fields["KeyChar"] = CharValue(r)
	key.Record().Fields["Key"] = TextValue(strings.ToUpper(string(r)))
	return key
}

func toInt(x *execution, args []Value) (Value, error) {
	if err := arity("Convert.ToInt32", args, 1); err != nil {
		return Value{}, err
	}
	switch v := args[0]; v.Kind() {
	case KindInt:
		return v, nil
	case KindFloat:
		return IntValue(int64(math.RoundToEven(v.Float()))), nil
	case KindChar:
		return IntValue(int64(v.Char())), nil
	case KindBool:
		if v.Bool() {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	default:
		return IntValue(parseIntLoose(v.String())), nil
	}
}

func toFloat(x *execution, args []Value) (Value, error) {
	if err := arity("Convert.ToDouble", args, 1); err != nil {
		return Value{}, err
	}
	switch v := args[0]; v.Kind() {
	case KindInt, KindFloat, KindChar:
		return FloatValue(v.Float()), nil
	case KindBool:
		if v.Bool() {
			return FloatValue(1), nil
		}
		return FloatValue(0), nil
	default:
		return FloatValue(parseFloatLoose(v.String())), nil
	}
}

func parseInt(x *execution, args []Value) (Value, error) {
	if err := arity("int.Parse", args, 1); err != nil {
		return Value{}, err
	}
	return IntValue(parseIntLoose(args[0].String())), nil
}

func parseFloat(x *execution, args []Value) (Value, error) {
	if err := arity("double.Parse", args, 1); err != nil {
		return Value{}, err
	}
	return FloatValue(parseFloatLoose(args[0].String())), nil
}

func numericUnary(name string, fn func(Value) Value) builtinFunc {
	return func(x *execution, args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		if !args[0].IsNumeric() {
			return Value{}, argumentType(name, args)
		}
		return fn(args[0]), nil
	}
}

func floatUnary(name string, fn func(float64) float64) builtinFunc {
	return numericUnary(name, func(v Value) Value { return FloatValue(fn(v.Float())) })
}

// numericPair keeps integer results when both operands are integers
func numericPair(name string, ints func(a, b int64) int64, floats func(a, b float64) float64) builtinFunc {
	return func(x *execution, args []Value) (Value, error) {
		if err := arity(name, args, 2); err != nil {
			return Value{}, err
		}
		a, b, ok := numericOperands(args[0], args[1])
		if !ok {
			return Value{}, argumentType(name, args)
		}
		if a.Kind() == KindInt && b.Kind() == KindInt {
			return IntValue(ints(a.Int(), b.Int())), nil
		}
		return FloatValue(floats(a.Float(), b.Float())), nil
	}
}

func charPredicate(name string, fn func(rune) bool) builtinFunc {
	return func(x *execution, args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		if args[0].Kind() != KindChar {
			return Value{}, argumentType(name, args)
		}
		return BoolValue(fn(args[0].Char())), nil
	}
}

func charMapping(name string, fn func(rune) rune) builtinFunc {
	return func(x *execution, args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		if args[0].Kind() != KindChar {
			return Value{}, argumentType(name, args)
		}
		return CharValue(fn(args[0].Char())), nil
	}
}

func arity(name string, args []Value, accepted ...int) error {
	for _, n := range accepted {
		if len(args) == n {
			return nil
		}
	}
	return argumentCount(name, len(args))
}

func argumentCount(name string, n int) *errors.ExecutionError {
	method := name[strings.LastIndexByte(name, '.')+1:]
	return errors.NewRuntimeError(errors.CodeArgumentCount,
		fmt.Sprintf("No overload for method '%s' takes %d arguments", method, n))
}

func argumentType(name string, args []Value) *errors.ExecutionError {
	from := "void"
	if len(args) > 0 {
		from = args[0].TypeName()
	}
	return errors.NewTypeError(from, "double").WithContext("method", name)
}

func isNull(v Value) bool {
	return v.Kind() == KindRecord && v.Record() == nil
}

// memberOf reads a property of a value
func memberOf(target Value, name string) (Value, error) {
	switch target.Kind() {
	case KindText:
		if name == "Length" {
			return IntValue(int64(utf8.RuneCountInString(target.Text()))), nil
		}
	case KindRecord:
		if rec := target.Record(); rec != nil {
			if v, ok := rec.Fields[name]; ok {
				return v, nil
			}
		}
	}
	return Value{}, missingMember(target, name)
}

// callMethod invokes an instance method on a value
func callMethod(target Value, name string, args []Value) (Value, error) {
	switch name {
	case "ToString":
		if err := arity(name, args, 0, 1); err != nil {
			return Value{}, err
		}
		if len(args) == 1 {
			return TextValue(formatValue(target, args[0].String())), nil
		}
		return TextValue(target.String()), nil
	case "Equals":
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		return BoolValue(target.Equal(args[0])), nil
	case "GetType":
		return TextValue(target.TypeName()), nil
	}

	if target.Kind() != KindText {
		return Value{}, missingMember(target, name)
	}
	text := target.Text()

	switch name {
	case "ToUpper", "ToLower", "Trim", "TrimStart", "TrimEnd":
		if err := arity(name, args, 0); err != nil {
			return Value{}, err
		}
		return TextValue(textTransforms[name](text)), nil
	case "Contains", "StartsWith", "EndsWith":
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		return BoolValue(textPredicates[name](text, args[0].String())), nil
	case "IndexOf":
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		idx := strings.Index(text, args[0].String())
		if idx > 0 {
			idx = utf8.RuneCountInString(text[:idx])
		}
		return IntValue(int64(idx)), nil
	case "Replace":
		if err := arity(name, args, 2); err != nil {
			return Value{}, err
		}
		return TextValue(strings.ReplaceAll(text, args[0].String(), args[1].String())), nil
	case "Substring":
		if err := arity(name, args, 1, 2); err != nil {
			return Value{}, err
		}
		return substring(text, args)
	case "PadLeft", "PadRight":
		if err := arity(name, args, 1, 2); err != nil {
			return Value{}, err
		}
		pad := " "
		if len(args) == 2 {
			pad = args[1].String()
		}
		missing := int(args[0].Int()) - utf8.RuneCountInString(text)
		if missing <= 0 || pad == "" {
			return target, nil
		}
		fill := strings.Repeat(pad[:1], missing)
		if name == "PadLeft" {
			return TextValue(fill + text), nil
		}
		return TextValue(text + fill), nil
	}
	return Value{}, missingMember(target, name)
}

var textTransforms = map[string]func(string) string{
	"ToUpper":   strings.ToUpper,
	"ToLower":   strings.ToLower,
	"Trim":      strings.TrimSpace,
	"TrimStart": func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) },
	"TrimEnd":   func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) },
}

var textPredicates = map[string]func(s, sub string) bool{
	"Contains":   strings.Contains,
	"StartsWith": strings.HasPrefix,
	"EndsWith":   strings.HasSuffix,
}

func substring(text string, args []Value) (Value, error) {
	runes := []rune(text)
	start := int(args[0].Int())
	end := len(runes)
	if len(args) == 2 {
		end = start + int(args[1].Int())
	}
	if start < 0 || start > len(runes) || end < start || end > len(runes) {
		return Value{}, errors.NewRuntimeError(errors.CodeThrown,
			"Index and length must refer to a location within the string.").
			WithContext("exception", "ArgumentOutOfRangeException")
	}
	return TextValue(string(runes[start:end])), nil
}

func missingMember(target Value, name string) *errors.ExecutionError {
	return errors.NewRuntimeError(errors.CodeMissingMember,
		fmt.Sprintf("'%s' does not contain a definition for '%s'", target.TypeName(), name))
}

// castValue applies an explicit (type) conversion
func castValue(typeName string, v Value) (Value, error) {
	switch typeName {
	case "int", "long", "short", "byte":
		switch v.Kind() {
		case KindInt:
			return v, nil
		case KindFloat:
			return IntValue(int64(v.Float())), nil
		case KindChar:
			return IntValue(int64(v.Char())), nil
		}
	case "double", "float", "decimal":
		if v.IsNumeric() || v.Kind() == KindChar {
			return FloatValue(v.Float()), nil
		}
	case "char":
		switch v.Kind() {
		case KindChar:
			return v, nil
		case KindInt:
			return CharValue(rune(v.Int())), nil
		}
	case "string":
		if v.Kind() == KindText || isNull(v) {
			return v, nil
		}
	case "bool":
		if v.Kind() == KindBool {
			return v, nil
		}
	}
	return Value{}, errors.NewRuntimeError(errors.CodeInvalidCast,
		fmt.Sprintf("Cannot convert type '%s' to '%s'", v.TypeName(), typeName))
}

// formatValue applies a standard numeric format string such as F2, N0 or
// D3. Unknown formats and non-numeric values fall back to the plain text.
func formatValue(v Value, format string) string {
	if format == "" || !(v.IsNumeric() || v.Kind() == KindChar) {
		return v.String()
	}

	spec := unicode.ToUpper(rune(format[0]))
	precision := -1
	if len(format) > 1 {
		n, err := strconv.Atoi(format[1:])
		if err != nil {
			return customFormat(v, format)
		}
		precision = n
	}
	orDefault := func(n int) int {
		if precision < 0 {
			return n
		}
		return precision
	}

	switch spec {
	case 'F':
		return strconv.FormatFloat(v.Float(), 'f', orDefault(2), 64)
	case 'N':
		return groupThousands(strconv.FormatFloat(v.Float(), 'f', orDefault(2), 64))
	case 'C':
		text := groupThousands(strconv.FormatFloat(math.Abs(v.Float()), 'f', orDefault(2), 64))
		if v.Float() < 0 {
			return "-$" + text
		}
		return "$" + text
	case 'P':
		return strconv.FormatFloat(v.Float()*100, 'f', orDefault(2), 64) + "%"
	case 'E':
		return strconv.FormatFloat(v.Float(), 'E', orDefault(6), 64)
	case 'D':
		if v.Kind() != KindInt {
			return v.String()
		}
		n := v.Int()
		sign := ""
		if n < 0 {
			sign, n = "-", -n
		}
		digits := strconv.FormatInt(n, 10)
		if pad := orDefault(0) - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
		return sign + digits
	case 'X':
		if v.Kind() != KindInt {
			return v.String()
		}
		hex := strconv.FormatInt(v.Int(), 16)
		if format[0] == 'X' {
			hex = strings.ToUpper(hex)
		}
		if pad := orDefault(0) - len(hex); pad > 0 {
			hex = strings.Repeat("0", pad) + hex
		}
		return hex
	}
	return customFormat(v, format)
}

// customFormat understands the common "0.00" / "#.##" picture formats by
// counting the digits after the decimal point.
func customFormat(v Value, format string) string {
	if strings.Trim(format, "0#.,") != "" {
		return v.String()
	}
	decimals := 0
	if dot := strings.IndexByte(format, '.'); dot >= 0 {
		decimals = len(format) - dot - 1
	}
	text := strconv.FormatFloat(v.Float(), 'f', decimals, 64)
	if strings.Contains(format, ",") {
		text = groupThousands(text)
	}
	return text
}

func groupThousands(text string) string {
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	whole, frac := text, ""
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		whole, frac = text[:dot], text[dot:]
	}
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}

// formatComposite expands "{0}", "{1,5}" and "{0:F2}" items against args
func formatComposite(format string, args []Value) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return "", formatError()
			}
			item := format[i+1 : i+end]
			i += end

			spec := ""
			if colon := strings.IndexByte(item, ':'); colon >= 0 {
				item, spec = item[:colon], item[colon+1:]
			}
			align := 0
			if comma := strings.IndexByte(item, ','); comma >= 0 {
				n, err := strconv.Atoi(strings.TrimSpace(item[comma+1:]))
				if err != nil {
					return "", formatError()
				}
				item, align = item[:comma], n
			}
			index, err := strconv.Atoi(strings.TrimSpace(item))
			if err != nil || index < 0 || index >= len(args) {
				return "", formatError()
			}

			text := formatValue(args[index], spec)
			if pad := abs(align) - utf8.RuneCountInString(text); pad > 0 {
				if align > 0 {
					text = strings.Repeat(" ", pad) + text
				} else {
					text += strings.Repeat(" ", pad)
				}
			}
			b.WriteString(text)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func formatError() *errors.ExecutionError {
	return errors.NewRuntimeError(errors.CodeThrown,
		"Index (zero based) must be greater than or equal to zero and less than the size of the argument list.").
		WithContext("exception", "FormatException")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
