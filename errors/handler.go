package errors

import (
	"context"
)

// ErrorOption is a function that modifies an ExecutionError
type ErrorOption func(*ExecutionError)

// WithSeverityOption sets the severity level for the error
func WithSeverityOption(severity ErrorSeverity) ErrorOption {
	return func(e *ExecutionError) {
		e.Severity = severity
	}
}

// WithTypeOption sets the error type
func WithTypeOption(errorType ErrorType) ErrorOption {
	return func(e *ExecutionError) {
		e.Type = errorType
	}
}

// WithLineOption records the source line
func WithLineOption(line int) ErrorOption {
	return func(e *ExecutionError) {
		e.Line = line
	}
}

// WithContextOption adds context information to the error
func WithContextOption(key string, value interface{}) ErrorOption {
	return func(e *ExecutionError) {
		if e.Context == nil {
			e.Context = make(map[string]interface{})
		}
		e.Context[key] = value
	}
}

// ContextKey is the type of context values copied into wrapped errors.
type ContextKey string

// RunIDKey carries the run identifier of the current execution.
const RunIDKey ContextKey = "run_id"

// ErrorHandler defines the interface for handling errors
type ErrorHandler interface {
	// Handle normalises any error into an *ExecutionError
	Handle(ctx context.Context, err error) *ExecutionError

	// Wrap wraps an error with additional context
	Wrap(ctx context.Context, err error, code, message string, options ...ErrorOption) *ExecutionError
}

// DefaultErrorHandler is the default implementation of ErrorHandler
type DefaultErrorHandler struct {
	captureStack bool
}

// NewDefaultErrorHandler creates a new default error handler
func NewDefaultErrorHandler() *DefaultErrorHandler {
	return &DefaultErrorHandler{}
}

// NewDebugErrorHandler creates a handler that records stack traces for
// errors it has to convert.
func NewDebugErrorHandler() *DefaultErrorHandler {
	return &DefaultErrorHandler{captureStack: true}
}

// Handle processes an error and returns an ExecutionError
func (h *DefaultErrorHandler) Handle(ctx context.Context, err error) *ExecutionError {
	if err == nil {
		return nil
	}

	if execErr, ok := err.(*ExecutionError); ok {
		return execErr
	}

	// Anything else surfaced during a run is a generic runtime failure
	execErr := NewRuntimeError(CodeUnknown, err.Error())
	_ = execErr.Wrap(err)
	if h.captureStack {
		_ = execErr.WithStackTrace()
	}
	copyContext(ctx, execErr)

	return execErr
}

// Wrap wraps an error with additional context
func (h *DefaultErrorHandler) Wrap(ctx context.Context, err error, code, message string, options ...ErrorOption) *ExecutionError {
	if err == nil {
		return nil
	}

	execErr := NewExecutionError(code, message)
	_ = execErr.Wrap(err)

	for _, option := range options {
		option(execErr)
	}
	copyContext(ctx, execErr)

	return execErr
}

func copyContext(ctx context.Context, execErr *ExecutionError) {
	if ctx == nil {
		return
	}
	if runID := ctx.Value(RunIDKey); runID != nil {
		_ = execErr.WithContext(string(RunIDKey), runID)
	}
}
