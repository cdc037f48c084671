package engine

import (
	"context"
	"time"

	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/shared"

	"github.com/google/uuid"
)

// Defaults for the run limits
const (
	DefaultMaxLoopIterations  = 1000
	DefaultMaxExpressionDepth = 10
	DefaultOutputYield        = 10 * time.Millisecond
	DefaultInputFlushDelay    = 50 * time.Millisecond
)

// MessageHandler receives console messages synchronously and in order
type MessageHandler func(msg shared.Message)

// InputProvider supplies the next line of user input. It should block until
// input arrives or ctx is done.
type InputProvider func(ctx context.Context) (string, error)

// IDGenerator produces message identifiers
type IDGenerator func() string

// Clock returns the timestamp stamped on messages
type Clock func() time.Time

// UUIDGenerator is the default IDGenerator
func UUIDGenerator() string {
	return uuid.NewString()
}

// Limits are the circuit breakers of a run
type Limits struct {
	MaxLoopIterations  int
	MaxExpressionDepth int
	// OutputYield is the pause after each Console.Write/WriteLine call
	OutputYield time.Duration
	// InputFlushDelay is the pause between flushing output and asking for input
	InputFlushDelay time.Duration
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MaxLoopIterations:  DefaultMaxLoopIterations,
		MaxExpressionDepth: DefaultMaxExpressionDepth,
		OutputYield:        DefaultOutputYield,
		InputFlushDelay:    DefaultInputFlushDelay,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxLoopIterations <= 0 {
		l.MaxLoopIterations = d.MaxLoopIterations
	}
	if l.MaxExpressionDepth <= 0 {
		l.MaxExpressionDepth = d.MaxExpressionDepth
	}
	if l.OutputYield < 0 {
		l.OutputYield = 0
	}
	if l.InputFlushDelay < 0 {
		l.InputFlushDelay = 0
	}
	return l
}

// Config contains configuration for the engine. Zero fields take defaults.
type Config struct {
	Limits       Limits
	Logger       logging.Logger
	ErrorHandler errors.ErrorHandler
	IDGenerator  IDGenerator
	Clock        Clock
}

// NewEngine creates an engine with default configuration
func NewEngine() *Engine {
	return NewEngineWithConfig(Config{Limits: DefaultLimits()})
}

// NewEngineWithConfig creates an engine, filling unset dependencies
func NewEngineWithConfig(config Config) *Engine {
	if config.Logger == nil {
		config.Logger = logging.NewNullLogger()
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = errors.NewDefaultErrorHandler()
	}
	if config.IDGenerator == nil {
		config.IDGenerator = UUIDGenerator
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Engine{
		limits:       config.Limits.withDefaults(),
		logger:       config.Logger.WithComponent("engine"),
		errorHandler: config.ErrorHandler,
		newID:        config.IDGenerator,
		now:          config.Clock,
	}
}
