package logging

import (
	"os"
	"time"
)

// Options describes a logger in configuration terms
type Options struct {
	Level  string
	Format string
	// File, when set, receives log output instead of stderr.
	File string

	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// rotates reports whether any rotation limit is configured
func (o Options) rotates() bool {
	return o.MaxSizeMB > 0 || o.MaxAgeDays > 0
}

// New builds a logger from options. Without a file the logger writes to stderr.
func New(opts Options) (*DefaultLogger, error) {
	var writer Writer
	switch {
	case opts.File == "":
		writer = NewConsoleWriterWithFile(os.Stderr)
	case opts.rotates():
		rotating, err := NewRotatingFileWriter(opts.File, RotationPolicy{
			MaxSize:    int64(opts.MaxSizeMB) * 1024 * 1024,
			MaxAge:     time.Duration(opts.MaxAgeDays) * 24 * time.Hour,
			MaxBackups: opts.MaxBackups,
			Compress:   opts.Compress,
		})
		if err != nil {
			return nil, err
		}
		writer = rotating
	default:
		file, err := NewFileWriter(opts.File)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:     ParseLevel(opts.Level),
		Formatter: NewFormatter(opts.Format),
		Writer:    writer,
	}), nil
}
