package engine

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the runtime type of a Value
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
	KindChar
	KindRecord
)

// String returns the source-language name of the kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "double"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindRecord:
		return "object"
	default:
		return "string"
	}
}

// Record is the placeholder produced by `new T(...)`. Only its fields are
// tracked; there are no methods.
type Record struct {
	TypeName string
	Fields   map[string]Value
}

// Value is a tagged union of everything a program variable can hold
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	r    rune
	rec  *Record
}

// IntValue creates an integer value
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

// FloatValue creates a floating point value
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// BoolValue creates a boolean value
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// TextValue creates a string value
func TextValue(v string) Value { return Value{kind: KindText, s: v} }

// CharValue creates a char value
func CharValue(v rune) Value { return Value{kind: KindChar, r: v} }

// RecordValue creates a record placeholder of the given type
func RecordValue(typeName string) Value {
	return Value{kind: KindRecord, rec: &Record{TypeName: typeName, Fields: make(map[string]Value)}}
}

// Kind returns the runtime kind
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload
func (v Value) Int() int64 { return v.i }

// Float returns the numeric payload as float64 for ints, floats and chars
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindChar:
		return float64(v.r)
	default:
		return v.f
	}
}

// Bool returns the boolean payload
func (v Value) Bool() bool { return v.b }

// Text returns the string payload
func (v Value) Text() string { return v.s }

// Char returns the char payload
func (v Value) Char() rune { return v.r }

// Record returns the record payload, nil for other kinds
func (v Value) Record() *Record { return v.rec }

// IsNumeric reports whether arithmetic applies to the value
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// IsStringLike reports whether the value behaves as text in comparisons
func (v Value) IsStringLike() bool {
	return v.kind == KindText || v.kind == KindChar
}

// TypeName returns the name used in conversion diagnostics
func (v Value) TypeName() string {
	if v.kind == KindRecord && v.rec != nil {
		return v.rec.TypeName
	}
	return v.kind.String()
}

// String renders the value the way the console shows it
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindChar:
		if v.r == 0 {
			return ""
		}
		return string(v.r)
	case KindRecord:
		if v.rec == nil {
			return "null"
		}
		return v.rec.TypeName
	default:
		return v.s
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e15 || abs < 1e-5) {
		return strconv.FormatFloat(f, 'E', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal compares two values with the loose equality the language uses:
// numbers compare numerically, chars and strings compare as text.
func (v Value) Equal(other Value) bool {
	switch {
	case v.IsNumeric() && other.IsNumeric():
		if v.kind == KindInt && other.kind == KindInt {
			return v.i == other.i
		}
		return v.Float() == other.Float()
	case v.IsStringLike() && other.IsStringLike():
		return v.String() == other.String()
	case v.kind == KindChar && other.IsNumeric():
		return float64(v.r) == other.Float()
	case v.IsNumeric() && other.kind == KindChar:
		return v.Float() == float64(other.r)
	case v.kind == KindBool && other.kind == KindBool:
		return v.b == other.b
	case v.kind == KindRecord && other.kind == KindRecord:
		return v.rec == other.rec
	}
	return false
}

// parseIntLoose parses the leading integer of text, returning 0 when there is
// none. "42abc" gives 42 and "3.9" gives 3.
func parseIntLoose(text string) int64 {
	text = strings.TrimSpace(text)
	end := 0
	if end < len(text) && (text[end] == '-' || text[end] == '+') {
		end++
	}
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(text[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseFloatLoose parses the leading decimal number of text, returning 0 when
// there is none.
func parseFloatLoose(text string) float64 {
	text = strings.TrimSpace(text)
	end := 0
	if end < len(text) && (text[end] == '-' || text[end] == '+') {
		end++
	}
	seenDot := false
	for end < len(text) {
		c := text[end]
		if c == '.' && !seenDot {
			seenDot = true
		} else if c < '0' || c > '9' {
			break
		}
		end++
	}
	f, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
