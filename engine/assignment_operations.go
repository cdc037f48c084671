package engine

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"sharpbox/errors"
	"sharpbox/logging"
)

var (
	declarationPattern        = regexp.MustCompile(`^(?:const\s+)?([A-Za-z_][\w.]*(?:<[^>]*>)?(?:\[\])?\??)\s+([A-Za-z_]\w*)\s*(=\s*(.+?))?\s*;$`)
	assignmentPattern         = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*([^=].*);$`)
	memberAssignmentPattern   = regexp.MustCompile(`^([A-Za-z_]\w*)\.([A-Za-z_]\w*)\s*=\s*([^=].*);$`)
	compoundAssignmentPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*([+\-*/%])=\s*(.+);$`)
	incDecPattern             = regexp.MustCompile(`^(?:([A-Za-z_]\w*)(\+\+|--)|(\+\+|--)([A-Za-z_]\w*))\s*;$`)

	readCallPattern    = regexp.MustCompile(`^Console\.(ReadLine|ReadKey)\s*\(\s*(?:true|false)?\s*\)(\.KeyChar)?$`)
	wrappedReadPattern = regexp.MustCompile(`^(Convert\.To(?:Int32|Int64|Double|Decimal|Single)|(?:int|long|double|float|decimal)\.Parse)\s*\(\s*(Console\.(?:ReadLine|ReadKey)\s*\(\s*(?:true|false)?\s*\)(?:\.KeyChar)?)\s*\)$`)
)

// statementKeywords start statements that look like declarations
var statementKeywords = map[string]bool{
	"return": true, "throw": true, "await": true, "goto": true, "yield": true,
	"using": true, "new": true, "case": true, "else": true, "namespace": true, "class": true,
}

var (
	intTypes   = map[string]bool{"int": true, "long": true, "short": true, "byte": true, "uint": true, "ulong": true}
	floatTypes = map[string]bool{"double": true, "float": true, "decimal": true}
)

// readForm describes an initialiser that reads console input directly
type readForm struct {
	wrapper string
	method  string
	keyChar bool
}

func matchReadForm(expr string) (readForm, bool) {
	expr = strings.TrimSpace(expr)
	var form readForm
	if m := wrappedReadPattern.FindStringSubmatch(expr); m != nil {
		form.wrapper = m[1]
		expr = m[2]
	}
	m := readCallPattern.FindStringSubmatch(expr)
	if m == nil {
		return readForm{}, false
	}
	form.method, form.keyChar = m[1], m[2] != ""
	return form, true
}

// readTyped performs the read and parses the text by the target type.
// Numeric parses never fail; text without a leading number reads as 0.
func (x *execution) readTyped(typeName string, form readForm) (Value, error) {
	text, err := x.readLine()
	if err != nil {
		return Value{}, err
	}

	switch {
	case strings.HasSuffix(form.wrapper, "Int32"), strings.HasSuffix(form.wrapper, "Int64"),
		form.wrapper == "int.Parse", form.wrapper == "long.Parse":
		return IntValue(parseIntLoose(text)), nil
	case form.wrapper != "":
		return FloatValue(parseFloatLoose(text)), nil
	case intTypes[typeName]:
		return IntValue(parseIntLoose(text)), nil
	case floatTypes[typeName]:
		return FloatValue(parseFloatLoose(text)), nil
	case typeName == "char" || form.keyChar:
		if text == "" {
			return CharValue(0), nil
		}
		r, _ := utf8.DecodeRuneInString(text)
		return CharValue(r), nil
	case form.method == "ReadKey":
		return keyInfo(text), nil
	}
	return TextValue(text), nil
}

// executeDeclaration handles `<type> name = expr;` and `<type> name;`
func (x *execution) executeDeclaration(typeName, name, expr string, hasInit bool) error {
	if !hasInit {
		x.env[name] = zeroValue(typeName)
		return nil
	}

	if form, ok := matchReadForm(expr); ok {
		v, err := x.readTyped(typeName, form)
		if err != nil {
			return err
		}
		x.env[name] = v
		return nil
	}

	v, err := x.resolveValue(expr, 0)
	if err != nil {
		return err
	}
	return x.storeDeclared(typeName, name, v)
}

// storeDeclared coerces v to the declared type and binds it
func (x *execution) storeDeclared(typeName, name string, v Value) error {
	coerced, err := coerce(typeName, v)
	if err != nil {
		return err
	}
	x.env[name] = coerced
	x.logger.Debug("declared variable", logging.StringField("name", name), logging.StringField("type", coerced.TypeName()))
	return nil
}

// executeAssignment handles `name = expr;` for an existing variable.
// Assignments to unknown names are ignored.
func (x *execution) executeAssignment(name, expr string) error {
	current, ok := x.env[name]
	if !ok {
		x.logger.Debug("assignment to undeclared variable ignored", logging.StringField("name", name))
		return nil
	}

	if form, ok := matchReadForm(expr); ok {
		v, err := x.readTyped(current.kindTypeName(), form)
		if err != nil {
			return err
		}
		x.env[name] = v
		return nil
	}

	v, err := x.resolveValue(expr, 0)
	if err != nil {
		return err
	}
	return x.storeAssigned(name, v)
}

// storeAssigned keeps numeric variables numeric
func (x *execution) storeAssigned(name string, v Value) error {
	current, ok := x.env[name]
	if !ok {
		return nil
	}
	if current.IsNumeric() {
		coerced, err := coerce(current.kindTypeName(), v)
		if err != nil {
			return err
		}
		v = coerced
	}
	x.env[name] = v
	return nil
}

// executeMemberAssignment sets a field on a record variable
func (x *execution) executeMemberAssignment(object, field, expr string) error {
	target, ok := x.env[object]
	if !ok || target.Kind() != KindRecord || target.Record() == nil {
		x.logger.Debug("member assignment on non-record ignored", logging.StringField("name", object))
		return nil
	}
	v, err := x.resolveValue(expr, 0)
	if err != nil {
		return err
	}
	target.Record().Fields[field] = v
	return nil
}

var compoundOperators = map[string]TokenType{
	"+": TokenPlus, "-": TokenMinus, "*": TokenMultiply, "/": TokenSlash, "%": TokenModulo,
}

// executeCompoundAssignment handles `name op= expr;`. Like the language's
// implicit cast on compound assignment, an int variable stays int.
func (x *execution) executeCompoundAssignment(name, op, expr string) error {
	current, ok := x.env[name]
	if !ok {
		return nil
	}
	operand, err := x.resolveValue(expr, 0)
	if err != nil {
		return err
	}
	result, err := applyBinary(compoundOperators[op], current, operand)
	if err != nil {
		return err
	}

	switch {
	case current.Kind() == KindInt && result.Kind() == KindFloat:
		result = IntValue(int64(result.Float()))
	case current.Kind() == KindChar && result.Kind() == KindInt:
		result = CharValue(rune(result.Int()))
	}
	x.env[name] = result
	return nil
}

// executeIncDec applies ++ or --. Non-numeric variables are left alone.
func (x *execution) executeIncDec(name, op string) error {
	current, ok := x.env[name]
	if !ok {
		return nil
	}
	delta := int64(1)
	if op == "--" {
		delta = -1
	}
	switch current.Kind() {
	case KindInt:
		x.env[name] = IntValue(current.Int() + delta)
	case KindFloat:
		x.env[name] = FloatValue(current.Float() + float64(delta))
	case KindChar:
		x.env[name] = CharValue(current.Char() + rune(delta))
	}
	return nil
}

// coerce converts v for storage in a variable of the named type. Integer
// targets reject text and bool; floating targets accept numeric text.
// Every other type keeps the value as it is.
func coerce(typeName string, v Value) (Value, error) {
	switch {
	case intTypes[typeName]:
		switch v.Kind() {
		case KindInt:
			return v, nil
		case KindFloat:
			return IntValue(int64(v.Float())), nil
		case KindChar:
			return IntValue(int64(v.Char())), nil
		}
		return Value{}, errors.NewTypeError(v.TypeName(), typeName)

	case floatTypes[typeName]:
		switch v.Kind() {
		case KindInt, KindFloat, KindChar:
			return FloatValue(v.Float()), nil
		case KindText:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64); err == nil {
				return FloatValue(f), nil
			}
		}
		return Value{}, errors.NewTypeError(v.TypeName(), typeName)
	}
	return v, nil
}

// zeroValue is the value of a declaration without initialiser
func zeroValue(typeName string) Value {
	switch {
	case intTypes[typeName]:
		return IntValue(0)
	case floatTypes[typeName]:
		return FloatValue(0)
	case typeName == "bool":
		return BoolValue(false)
	case typeName == "char":
		return CharValue(0)
	case typeName == "string":
		return TextValue("")
	}
	return Value{kind: KindRecord}
}

// kindTypeName maps a runtime kind back to the declaration type used when
// re-reading into an existing variable.
func (v Value) kindTypeName() string {
	switch v.kind {
	case KindInt:
		return "int"
	case KindFloat:
		return "double"
	case KindChar:
		return "char"
	case KindBool:
		return "bool"
	case KindRecord:
		return "object"
	}
	return "string"
}
