// Package watch re-runs a program file whenever it is saved.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/session"
)

// DefaultDebounce is the quiet period after the last change before a run
const DefaultDebounce = 1500 * time.Millisecond

// Starter launches a run of source. *session.Session satisfies it.
type Starter interface {
	Start(source string) (session.RunID, error)
}

// Watcher starts a run of one file after it changes
type Watcher struct {
	path       string
	starter    Starter
	logger     logging.Logger
	debounce   time.Duration
	runOnStart bool
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last change
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithRunOnStart starts a run as soon as the watcher is running
func WithRunOnStart(enabled bool) Option {
	return func(w *Watcher) {
		w.runOnStart = enabled
	}
}

// New creates a watcher for the program file at path
func New(path string, starter Starter, logger logging.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	w := &Watcher{
		path:     abs,
		starter:  starter,
		logger:   logger.WithComponent("watch"),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. The parent directory is watched rather
// than the file so that editors which save by renaming are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, "WATCH_FAILED", "failed to create file watcher")
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return errors.WrapError(err, "WATCH_FAILED", "failed to watch "+filepath.Dir(w.path))
	}
	w.logger.Info("watching for changes", logging.StringField("path", w.path))

	if w.runOnStart {
		w.trigger()
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", logging.StringField("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.ErrorField("error", err))

		case <-timer.C:
			w.trigger()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// trigger reads the file and starts a run of its content
func (w *Watcher) trigger() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("cannot read program", logging.ErrorField("error", err))
		return
	}

	id, err := w.starter.Start(string(data))
	if err != nil {
		w.logger.Error("cannot start run", logging.ErrorField("error", err))
		return
	}
	w.logger.Debug("run started", logging.Int64Field("run_id", int64(id)))
}
