package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/shared"
)

// Fixed console texts
const (
	MessageBuildStarted   = "Build started..."
	MessageBuildFailed    = "Build failed."
	MessageBuildSucceeded = "Build succeeded. 0 Errors, 0 Warnings."
)

// OutcomeKind classifies how a run ended
type OutcomeKind int

const (
	OutcomeBuildFailed OutcomeKind = iota
	OutcomeSucceeded
	OutcomeRuntimeFailed
	// OutcomeAbandoned means the run's context was cancelled, typically
	// because a newer run replaced it. No final message is emitted.
	OutcomeAbandoned
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBuildFailed:
		return "build_failed"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRuntimeFailed:
		return "runtime_failed"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Outcome is the result of one run
type Outcome struct {
	Kind OutcomeKind
	// Err is the diagnostic or runtime error for failed runs
	Err *errors.ExecutionError
	// Messages counts the console messages emitted
	Messages int
}

// Signal is the non-local exit reported by a statement range
type Signal int

const (
	SignalNormal Signal = iota
	SignalBreak
	SignalContinue
	SignalReturn
)

// Environment maps variable names to values for one run
type Environment map[string]Value

// errRunAbandoned unwinds the executor when the run's context is done
var errRunAbandoned = errors.NewSystemError("RUN_ABANDONED", "run abandoned")

// Engine runs programs. It holds no per-run state and may be shared; each
// Run call gets a fresh environment, output buffer and input bridge.
type Engine struct {
	limits       Limits
	logger       logging.Logger
	errorHandler errors.ErrorHandler
	newID        IDGenerator
	now          Clock
	runs         atomic.Int64
}

// Limits returns the effective run limits
func (e *Engine) Limits() Limits {
	return e.limits
}

// Run interprets source and reports the session through onMessage. It
// returns once the program finishes, fails or ctx is cancelled. Program
// failures are reported in the Outcome; the error is non-nil only when the
// run was abandoned.
func (e *Engine) Run(ctx context.Context, source string, onMessage MessageHandler, onInput InputProvider) (Outcome, error) {
	if ctx.Value(errors.RunIDKey) == nil {
		ctx = context.WithValue(ctx, errors.RunIDKey, e.runs.Add(1))
	}
	logger := e.logger.WithContext(ctx)
	started := time.Now()

	var outcome Outcome
	emit := func(kind shared.MessageKind, content string, line int, suggestion string) {
		if ctx.Err() != nil {
			return
		}
		outcome.Messages++
		if onMessage != nil {
			onMessage(shared.Message{
				ID:         e.newID(),
				Kind:       kind,
				Content:    content,
				Timestamp:  e.now(),
				Line:       line,
				Suggestion: suggestion,
			})
		}
	}
	fail := func(kind OutcomeKind, err *errors.ExecutionError) (Outcome, error) {
		emit(shared.KindError, err.ConsoleText(), err.Line, err.Suggestion)
		if kind == OutcomeBuildFailed {
			emit(shared.KindSystem, MessageBuildFailed, 0, "")
		}
		logger.ErrorExecution(err, logging.StringField("outcome", kind.String()))
		outcome.Kind, outcome.Err = kind, err
		return outcome, nil
	}

	lines := splitLines(stripComments(source))
	logger.Info("run started", logging.IntField("lines", len(lines)))

	if diag := Validate(lines); diag != nil {
		return fail(OutcomeBuildFailed, diag)
	}
	emit(shared.KindSystem, MessageBuildStarted, 0, "")

	program, diag := ExtractEntryPoint(lines)
	if diag != nil {
		return fail(OutcomeBuildFailed, diag)
	}
	logger.Debug("entry point extracted",
		logging.BoolField("main", program.EntryPoint),
		logging.IntField("statements", len(program.Statements())))

	x := e.newExecution(ctx, program, logger, emit, onInput)
	_, err := x.executeRange(program.all())
	x.out.flush()

	if err != nil && (err == errRunAbandoned || ctx.Err() != nil) {
		logger.Info("run abandoned", logging.DurationField("elapsed", time.Since(started)))
		outcome.Kind = OutcomeAbandoned
		return outcome, context.Cause(ctx)
	}
	if err != nil {
		execErr := e.errorHandler.Handle(ctx, err)
		return fail(OutcomeRuntimeFailed, execErr)
	}

	emit(shared.KindSuccess, MessageBuildSucceeded, 0, "")
	logger.Info("run finished",
		logging.DurationField("elapsed", time.Since(started)),
		logging.IntField("messages", outcome.Messages))
	outcome.Kind = OutcomeSucceeded
	return outcome, nil
}

// execution is the state of a single run
type execution struct {
	ctx     context.Context
	program *Program
	env     Environment
	limits  Limits
	logger  logging.Logger
	out     *outputBuffer
	input   *inputBridge
	emit    func(kind shared.MessageKind, content string, line int, suggestion string)
	line    Line
}

func (e *Engine) newExecution(ctx context.Context, program *Program, logger logging.Logger,
	emit func(shared.MessageKind, string, int, string), onInput InputProvider) *execution {
	x := &execution{
		ctx:     ctx,
		program: program,
		env:     make(Environment),
		limits:  e.limits,
		logger:  logger,
		emit:    emit,
	}
	x.out = newOutputBuffer(func(text string) {
		emit(shared.KindInfo, text, 0, "")
	})
	x.input = newInputBridge(onInput, e.limits.InputFlushDelay, x.out.flush)
	return x
}

// pause sleeps for d unless the run is cancelled first
func (x *execution) pause(d time.Duration) error {
	if d <= 0 {
		if x.ctx.Err() != nil {
			return errRunAbandoned
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-x.ctx.Done():
		return errRunAbandoned
	case <-timer.C:
		return nil
	}
}

// warn emits a warning message anchored at the current line
func (x *execution) warn(format string, args ...interface{}) {
	x.out.flush()
	x.emit(shared.KindWarning, fmt.Sprintf(format, args...), x.line.Number, "")
}
