package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeSyntax       ErrorType = "SYNTAX"
	ErrorTypeTypeCoercion ErrorType = "TYPE"
	ErrorTypeControl      ErrorType = "CONTROL"
	ErrorTypeArithmetic   ErrorType = "ARITHMETIC"
	ErrorTypeRuntime      ErrorType = "RUNTIME"
	ErrorTypeSystem       ErrorType = "SYSTEM"
	ErrorTypeUser         ErrorType = "USER"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// Diagnostic codes shared with the console. Codes starting with "CS" are shown
// in compiler form ("Error CS0029: ..."), everything else as a runtime error.
const (
	CodeSemicolonExpected = "CS1002"
	CodeMissingEntryPoint = "CS5001"
	CodeTypeConversion    = "CS0029"
	CodeUnknownName       = "CS0103"
	CodeOperatorMismatch  = "CS0019"
	CodeInvalidCast       = "CS0030"
	CodeMissingMember     = "CS1061"
	CodeArgumentCount     = "CS1501"

	CodeDivideByZero        = "DIVIDE_BY_ZERO"
	CodeExpressionTooDeep   = "EXPRESSION_TOO_COMPLEX"
	CodeNonExhaustiveSwitch = "NON_EXHAUSTIVE_SWITCH"
	CodeUnparsable          = "UNPARSABLE_EXPRESSION"
	CodeInvalidOperand      = "INVALID_OPERAND"
	CodeThrown              = "UNHANDLED_EXCEPTION"
	CodeUnknown             = "UNKNOWN_ERROR"
)

// ExecutionError represents a structured error with detailed information
type ExecutionError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Line       int                    `json:"line,omitempty"`
	Col        int                    `json:"col,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	StackTrace string                 `json:"stack_trace,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Severity   ErrorSeverity          `json:"severity"`
	Type       ErrorType              `json:"type"`
	Cause      error                  `json:"-"`
	Wrapped    []error                `json:"-"`
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	var builder strings.Builder

	// Format: [TYPE][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))

	if e.Line > 0 && e.Col > 0 {
		builder.WriteString(fmt.Sprintf(" line %d col %d", e.Line, e.Col))
	} else if e.Line > 0 {
		builder.WriteString(fmt.Sprintf(" line %d col 0", e.Line))
	}

	return builder.String()
}

// ConsoleText renders the error the way the sandbox console shows it.
func (e *ExecutionError) ConsoleText() string {
	if strings.HasPrefix(e.Message, "Error") {
		return e.Message
	}
	if e.IsCompilerDiagnostic() {
		return fmt.Sprintf("Error %s: %s", e.Code, e.Message)
	}
	return "Runtime Error: " + e.Message
}

// IsCompilerDiagnostic reports whether the code is a compiler-style CSxxxx code.
func (e *ExecutionError) IsCompilerDiagnostic() bool {
	return len(e.Code) == 6 && strings.HasPrefix(e.Code, "CS")
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *ExecutionError) Is(target error) bool {
	if other, ok := target.(*ExecutionError); ok {
		return e.Code == other.Code && e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ExecutionError) WithContext(key string, value interface{}) *ExecutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the severity level for the error
func (e *ExecutionError) WithSeverity(severity ErrorSeverity) *ExecutionError {
	e.Severity = severity
	return e
}

// WithType sets the error type
func (e *ExecutionError) WithType(errorType ErrorType) *ExecutionError {
	e.Type = errorType
	return e
}

// WithPosition sets the line and column for the error
func (e *ExecutionError) WithPosition(line, col int) *ExecutionError {
	e.Line = line
	e.Col = col
	return e
}

// WithLine sets the line only when none is recorded yet, so the innermost
// statement that failed keeps ownership of the position.
func (e *ExecutionError) WithLine(line int) *ExecutionError {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

// WithSuggestion attaches a hint for fixing the problem
func (e *ExecutionError) WithSuggestion(suggestion string) *ExecutionError {
	e.Suggestion = suggestion
	return e
}

// WithStackTrace captures and adds stack trace information
func (e *ExecutionError) WithStackTrace() *ExecutionError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// Wrap wraps another error
func (e *ExecutionError) Wrap(err error) *ExecutionError {
	e.Cause = err
	if e.Wrapped == nil {
		e.Wrapped = make([]error, 0)
	}
	e.Wrapped = append(e.Wrapped, err)
	return e
}

// defaultSuggestions holds the hint attached to every error of a code.
// WithSuggestion replaces it when the caller knows better.
var defaultSuggestions = map[string]string{
	CodeSemicolonExpected:   "Add a semicolon (;) at the end of the statement.",
	CodeMissingEntryPoint:   "Define the entry point as: static void Main(string[] args) { ... }",
	CodeTypeConversion:      "Use an explicit conversion such as int.Parse or Convert.ToInt32.",
	CodeUnknownName:         "Declare the variable before using it and check the spelling.",
	CodeOperatorMismatch:    "Convert the operands to compatible types before applying the operator.",
	CodeInvalidCast:         "Check the value's type before casting it.",
	CodeMissingMember:       "Check the member name and the type it is called on.",
	CodeArgumentCount:       "Check the number of arguments passed to the method.",
	CodeDivideByZero:        "Check that the divisor is not zero before dividing.",
	CodeExpressionTooDeep:   "Split the expression into smaller parts using intermediate variables.",
	CodeNonExhaustiveSwitch: "Add a discard arm (_ => ...) to handle every remaining value.",
	CodeUnparsable:          "Check the expression for unbalanced parentheses or missing operands.",
	CodeInvalidOperand:      "Check the operand types of the expression.",
	CodeThrown:              "Fix the condition that throws the exception.",
}

// SuggestionFor returns the default hint for code, empty when there is none
func SuggestionFor(code string) string {
	return defaultSuggestions[code]
}

func newError(errorType ErrorType, severity ErrorSeverity, code, message string) *ExecutionError {
	return &ExecutionError{
		Code:       code,
		Message:    message,
		Suggestion: defaultSuggestions[code],
		Timestamp:  time.Now(),
		Severity:   severity,
		Type:       errorType,
		Context:    make(map[string]interface{}),
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(code, message string) *ExecutionError {
	return newError(ErrorTypeSystem, SeverityError, code, message)
}

// NewSyntaxError creates a compile-time diagnostic anchored at a source line
func NewSyntaxError(code, message string, line int) *ExecutionError {
	e := newError(ErrorTypeSyntax, SeverityError, code, message)
	e.Line = line
	return e
}

// NewTypeError creates an implicit conversion error
func NewTypeError(from, to string) *ExecutionError {
	return newError(ErrorTypeTypeCoercion, SeverityError, CodeTypeConversion,
		fmt.Sprintf("Cannot implicitly convert type '%s' to '%s'", from, to))
}

// NewOperatorError reports an operator applied to operands it does not support
func NewOperatorError(operator, left, right string) *ExecutionError {
	return newError(ErrorTypeTypeCoercion, SeverityError, CodeOperatorMismatch,
		fmt.Sprintf("Operator '%s' cannot be applied to operands of type '%s' and '%s'", operator, left, right))
}

// NewControlError creates an error raised by a control construct
func NewControlError(code, message string) *ExecutionError {
	return newError(ErrorTypeControl, SeverityError, code, message)
}

// NewArithmeticError creates an arithmetic error
func NewArithmeticError(code, message string) *ExecutionError {
	return newError(ErrorTypeArithmetic, SeverityError, code, message)
}

// NewRuntimeError creates a new runtime error
func NewRuntimeError(code, message string) *ExecutionError {
	return newError(ErrorTypeRuntime, SeverityError, code, message)
}

// NewSystemError creates a new system error
func NewSystemError(code, message string) *ExecutionError {
	return newError(ErrorTypeSystem, SeverityFatal, code, message)
}

// NewUserError reports a mistake in console usage, such as an unknown command
func NewUserError(code, message string) *ExecutionError {
	return newError(ErrorTypeUser, SeverityWarning, code, message)
}

// WrapError wraps an existing error into an ExecutionError
func WrapError(err error, code, message string) *ExecutionError {
	execErr := NewExecutionError(code, message)
	_ = execErr.Wrap(err)
	return execErr
}

// IsExecutionError checks if an error is an ExecutionError
func IsExecutionError(err error) bool {
	_, ok := err.(*ExecutionError)
	return ok
}

// AsExecutionError converts an error to ExecutionError if possible
func AsExecutionError(err error) (*ExecutionError, bool) {
	if execErr, ok := err.(*ExecutionError); ok {
		return execErr, true
	}
	return nil, false
}

// IsRecoverable reports whether an evaluation failure may fall back to plain
// text concatenation instead of aborting the run.
func IsRecoverable(err error) bool {
	execErr, ok := AsExecutionError(err)
	if !ok {
		return false
	}
	return execErr.Code == CodeUnparsable || execErr.Code == CodeUnknownName
}

// GetErrorChain returns the chain of errors
func GetErrorChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		if execErr, ok := err.(*ExecutionError); ok {
			chain = append(chain, execErr.Wrapped...)
		}
		err = unwrapError(err)
	}
	return chain
}

func unwrapError(err error) error {
	if wrapper, ok := err.(interface{ Unwrap() error }); ok {
		return wrapper.Unwrap()
	}
	return nil
}
