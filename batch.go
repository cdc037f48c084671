package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/project"
	"sharpbox/serialization"
	"sharpbox/session"
	"sharpbox/shared"
	"sharpbox/watch"
)

// BatchOptions selects what batch mode runs and where its output goes
type BatchOptions struct {
	// File is a single program file
	File string
	// Project is a project directory or .zip archive, used when File is empty
	Project string
	// Transcript receives the messages of every finished run
	Transcript string
	Watch      bool
	Verbose    bool
	Colors     bool
}

// batchRunner runs programs without the console. Program input is read
// from a scanner one line per Console.ReadLine.
type batchRunner struct {
	session     *session.Session
	serializers *serialization.SerializerRegistry
	logger      logging.Logger
	input       *bufio.Scanner
	out         io.Writer
	opts        BatchOptions

	inputExhausted bool
}

func newBatchRunner(sess *session.Session, serializers *serialization.SerializerRegistry, logger logging.Logger,
	in io.Reader, out io.Writer, opts BatchOptions) *batchRunner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &batchRunner{
		session:     sess,
		serializers: serializers,
		logger:      logger.WithComponent("batch"),
		input:       bufio.NewScanner(in),
		out:         out,
		opts:        opts,
	}
}

// loadBatchSource returns the program named by opts
func loadBatchSource(opts BatchOptions) (string, error) {
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return "", errors.WrapError(err, "LOAD_FAILED", fmt.Sprintf("failed to read %s", opts.File))
		}
		return string(data), nil
	}

	info, err := os.Stat(opts.Project)
	if err != nil {
		return "", errors.WrapError(err, "LOAD_FAILED", fmt.Sprintf("failed to open project %s", opts.Project))
	}
	var p *project.Project
	if info.IsDir() {
		p, err = project.LoadDir(opts.Project)
	} else if strings.EqualFold(filepath.Ext(opts.Project), ".zip") {
		p, err = project.LoadZip(opts.Project)
	} else {
		return "", errors.NewUserError("USAGE", fmt.Sprintf("%s is neither a directory nor a .zip archive", opts.Project))
	}
	if err != nil {
		return "", err
	}
	return p.ActiveSource()
}

// Run executes source once and returns an error unless it succeeded
func (b *batchRunner) Run(ctx context.Context, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := b.session.Start(source)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = b.session.Cancel(id)
			return ctx.Err()
		case event, ok := <-b.session.Events():
			if !ok {
				return errors.NewSystemError("SESSION_CLOSED", "session closed before the run finished")
			}
			if event.RunID != id || !b.handle(event) {
				continue
			}
			return b.result(id)
		}
	}
}

// Watch re-runs path every time it is saved until ctx is done
func (b *batchRunner) Watch(ctx context.Context, path string, opts ...watch.Option) error {
	watcher := watch.New(path, b.session, b.logger, append(opts, watch.WithRunOnStart(true))...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Run(ctx)
	}()

	fmt.Fprintln(b.out, shared.Dim(fmt.Sprintf("Watching %s, press Ctrl+C to stop", path), b.opts.Colors))
	for {
		select {
		case err := <-errCh:
			return err
		case event, ok := <-b.session.Events():
			if !ok {
				return <-errCh
			}
			if b.handle(event) {
				if err := b.result(event.RunID); err != nil {
					b.logger.Debug("watched run failed", logging.ErrorField("error", err))
				}
				fmt.Fprintln(b.out, shared.Dim("--- waiting for changes ---", b.opts.Colors))
			}
		}
	}
}

// handle prints one event and answers input requests. It reports true
// when the event finishes its run.
func (b *batchRunner) handle(event session.Event) bool {
	switch event.Kind {
	case session.EventMessage:
		if b.opts.Verbose {
			fmt.Fprintln(b.out, shared.FormatMessageLine(event.Message))
		} else {
			fmt.Fprintln(b.out, shared.FormatMessageForDisplay(event.Message, b.opts.Colors))
		}
	case session.EventInputRequested:
		if b.input.Scan() {
			b.session.SubmitInput(event.RunID, b.input.Text())
			return false
		}
		b.inputExhausted = true
		b.logger.Warn("input exhausted", logging.Int64Field("run_id", int64(event.RunID)))
		if err := b.session.Cancel(event.RunID); err != nil {
			b.logger.Debug("cancel failed", logging.ErrorField("error", err))
		}
	case session.EventFinished:
		return true
	}
	return false
}

// result writes the transcript of a finished run and converts its
// status into an error
func (b *batchRunner) result(id session.RunID) error {
	run, err := b.session.Get(id)
	if err != nil {
		return err
	}

	if b.opts.Transcript != "" {
		if err := b.serializers.WriteTranscript(b.opts.Transcript, run.Transcript()); err != nil {
			return err
		}
		b.logger.Info("transcript written", logging.StringField("path", b.opts.Transcript))
	}

	switch run.Status() {
	case session.StatusSucceeded:
		return nil
	case session.StatusAbandoned:
		if b.inputExhausted {
			b.inputExhausted = false
			return errors.NewUserError("INPUT_EXHAUSTED", "the program asked for input after the end of stdin")
		}
		return errors.NewRuntimeError("RUN_ABANDONED", "the run was abandoned")
	default:
		return errors.NewRuntimeError("RUN_FAILED", fmt.Sprintf("run finished with status %s", run.Status()))
	}
}
