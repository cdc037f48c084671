package container

import (
	"fmt"
	"sync/atomic"

	"github.com/samber/do"

	"sharpbox/engine"
	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/serialization"
	"sharpbox/session"
)

// Options are the settings the container builds services from
type Options struct {
	Limits  engine.Limits
	Logging logging.Options
	// EventBuffer is the capacity of the session event channel
	EventBuffer int
	// TranscriptFormat names the default transcript serializer
	TranscriptFormat string
	// Debug captures stack traces on wrapped errors
	Debug bool
}

// Container wraps the do.Injector with typed accessors for the services
// of one process.
type Container struct {
	*do.Injector

	loggerBuilt    atomic.Bool
	sessionStarted atomic.Bool
}

// New creates a container and registers every service provider. Services
// are built lazily on first use.
func New(opts Options) *Container {
	c := &Container{Injector: do.New()}

	do.ProvideValue(c.Injector, opts)

	do.Provide(c.Injector, func(i *do.Injector) (logging.Logger, error) {
		opts := do.MustInvoke[Options](i)
		logger, err := logging.New(opts.Logging)
		if err != nil {
			return nil, errors.WrapError(err, "LOGGER_SETUP", "failed to create logger")
		}
		c.loggerBuilt.Store(true)
		return logger, nil
	})

	do.Provide(c.Injector, func(i *do.Injector) (errors.ErrorHandler, error) {
		if do.MustInvoke[Options](i).Debug {
			return errors.NewDebugErrorHandler(), nil
		}
		return errors.NewDefaultErrorHandler(), nil
	})

	do.Provide(c.Injector, func(i *do.Injector) (*engine.Engine, error) {
		opts := do.MustInvoke[Options](i)
		logger, err := do.Invoke[logging.Logger](i)
		if err != nil {
			return nil, err
		}
		return engine.NewEngineWithConfig(engine.Config{
			Limits:       opts.Limits,
			Logger:       logger,
			ErrorHandler: do.MustInvoke[errors.ErrorHandler](i),
		}), nil
	})

	do.Provide(c.Injector, func(i *do.Injector) (*session.Session, error) {
		runner, err := do.Invoke[*engine.Engine](i)
		if err != nil {
			return nil, err
		}
		c.sessionStarted.Store(true)
		return session.New(runner, do.MustInvoke[logging.Logger](i), do.MustInvoke[Options](i).EventBuffer), nil
	})

	do.Provide(c.Injector, func(i *do.Injector) (*serialization.SerializerRegistry, error) {
		registry := serialization.NewDefaultSerializerRegistry()
		if format := do.MustInvoke[Options](i).TranscriptFormat; format != "" {
			if err := registry.SetDefaultSerializer(format); err != nil {
				return nil, errors.NewSystemError("INVALID_CONFIG", fmt.Sprintf("unknown transcript format %q", format))
			}
		}
		return registry, nil
	})

	return c
}

// Logger returns the process logger
func (c *Container) Logger() (logging.Logger, error) {
	return do.Invoke[logging.Logger](c.Injector)
}

// Engine returns the shared interpreter engine
func (c *Container) Engine() (*engine.Engine, error) {
	return do.Invoke[*engine.Engine](c.Injector)
}

// Session returns the interactive session
func (c *Container) Session() (*session.Session, error) {
	return do.Invoke[*session.Session](c.Injector)
}

// Serializers returns the transcript serializer registry
func (c *Container) Serializers() (*serialization.SerializerRegistry, error) {
	return do.Invoke[*serialization.SerializerRegistry](c.Injector)
}

// Validate checks that the container has been initialised
func (c *Container) Validate() error {
	if c.Injector == nil {
		return fmt.Errorf("container is not initialized")
	}
	return nil
}

// Shutdown stops the session, if one was built, and closes the logger
func (c *Container) Shutdown() error {
	if c.sessionStarted.Load() {
		if s, err := c.Session(); err == nil {
			s.Shutdown()
		}
	}
	if !c.loggerBuilt.Load() {
		return c.Injector.Shutdown()
	}
	if logger, err := c.Logger(); err == nil {
		if closer, ok := logger.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				return err
			}
		}
	}
	return c.Injector.Shutdown()
}
