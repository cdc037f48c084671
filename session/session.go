package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sharpbox/engine"
	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/shared"
)

// Runner executes one program. *engine.Engine satisfies it.
type Runner interface {
	Run(ctx context.Context, source string, onMessage engine.MessageHandler, onInput engine.InputProvider) (engine.Outcome, error)
}

// EventKind classifies a session event
type EventKind string

const (
	EventMessage        EventKind = "message"
	EventInputRequested EventKind = "input_requested"
	EventFinished       EventKind = "finished"
)

// Event is a notification about a run
type Event struct {
	RunID   RunID
	Kind    EventKind
	Message shared.Message
	// Token identifies the input request of an EventInputRequested
	Token  int64
	Status RunStatus
}

// DefaultEventBuffer is the capacity of the event channel
const DefaultEventBuffer = 256

// Session owns the current run. Starting a run abandons the previous one,
// so at most one run is active and at most one input request is pending.
type Session struct {
	runner     Runner
	logger     logging.Logger
	runs       map[RunID]*Run
	current    *Run
	nextID     RunID
	notifyChan chan Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
}

// New creates a session that executes programs with runner
func New(runner Runner, logger logging.Logger, eventBuffer int) *Session {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if eventBuffer <= 0 {
		eventBuffer = DefaultEventBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		runner:     runner,
		logger:     logger.WithComponent("session"),
		runs:       make(map[RunID]*Run),
		nextID:     1,
		notifyChan: make(chan Event, eventBuffer),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start abandons the current run, if any, and starts source in the
// background.
func (s *Session) Start(source string) (RunID, error) {
	select {
	case <-s.ctx.Done():
		return 0, errors.NewSystemError("SESSION_CLOSED", "session is shutting down")
	default:
	}

	s.mu.Lock()
	if s.current != nil {
		s.current.cancel()
		s.logger.Debug("abandoning previous run", logging.Int64Field("run_id", int64(s.current.ID)))
	}

	id := s.nextID
	s.nextID++
	ctx, cancel := context.WithCancel(context.WithValue(s.ctx, errors.RunIDKey, int64(id)))
	run := newRun(id, source, cancel)
	s.runs[id] = run
	s.current = run
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(ctx, run)

	return id, nil
}

// execute drives a run and reports its lifecycle as events
func (s *Session) execute(ctx context.Context, run *Run) {
	defer s.wg.Done()
	defer run.cancel()

	onMessage := func(msg shared.Message) {
		if ctx.Err() != nil {
			return
		}
		run.addMessage(msg)
		s.notify(Event{RunID: run.ID, Kind: EventMessage, Message: msg})
	}

	onInput := func(ctx context.Context) (string, error) {
		token := run.awaitInput()
		defer run.resume()
		s.notify(Event{RunID: run.ID, Kind: EventInputRequested, Token: token, Status: StatusAwaitingInput})

		select {
		case text := <-run.input:
			return text, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	outcome, err := s.runner.Run(ctx, run.Source, onMessage, onInput)
	run.finish(outcome, err)

	s.logger.Info("run finished",
		logging.Int64Field("run_id", int64(run.ID)),
		logging.StringField("status", string(run.Status())),
		logging.DurationField("duration", run.Duration()))

	s.notify(Event{RunID: run.ID, Kind: EventFinished, Status: run.Status()})
}

func (s *Session) notify(event Event) {
	select {
	case s.notifyChan <- event:
	case <-s.ctx.Done():
		// Session is shutting down
	}
}

// SubmitInput resolves the pending input request of run id. Input for a
// run that is no longer current, or that is not waiting, is dropped and
// reported as false.
func (s *Session) SubmitInput(id RunID, text string) bool {
	s.mu.RLock()
	run := s.current
	s.mu.RUnlock()

	if run == nil || run.ID != id {
		s.logger.Debug("dropping input for stale run", logging.Int64Field("run_id", int64(id)))
		return false
	}
	return run.offer(text)
}

// Current returns the most recently started run, or nil
func (s *Session) Current() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns a specific run
func (s *Session) Get(id RunID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("run with ID %d not found", id)
	}
	return run, nil
}

// List returns all runs in start order
func (s *Session) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*Run, 0, len(s.runs))
	for id := RunID(1); id < s.nextID; id++ {
		if run, ok := s.runs[id]; ok {
			runs = append(runs, run)
		}
	}
	return runs
}

// Events returns the channel of run notifications
func (s *Session) Events() <-chan Event {
	return s.notifyChan
}

// Cancel abandons a running run by ID
func (s *Session) Cancel(id RunID) error {
	run, err := s.Get(id)
	if err != nil {
		return err
	}
	if run.Status().IsFinal() {
		return fmt.Errorf("run %d is not running (status: %s)", id, run.Status())
	}
	run.cancel()
	return nil
}

// Clean removes finished runs that ended before olderThan ago. The current
// run is kept.
func (s *Session) Clean(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for id, run := range s.runs {
		if run == s.current || !run.Status().IsFinal() {
			continue
		}
		run.mu.RLock()
		ended := run.EndTime
		run.mu.RUnlock()
		if ended.Before(cutoff) {
			delete(s.runs, id)
			removed++
		}
	}

	return removed
}

// Shutdown abandons the current run, waits for it to unwind and closes
// the event channel.
func (s *Session) Shutdown() {
	s.cancel()
	s.wg.Wait()
	close(s.notifyChan)
}
