package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sharpbox/engine"
	"sharpbox/shared"
)

// RunID is a unique identifier for a run within a session
type RunID int64

// RunStatus represents the current status of a run
type RunStatus string

const (
	StatusRunning       RunStatus = "running"
	StatusAwaitingInput RunStatus = "awaiting_input"
	StatusSucceeded     RunStatus = "succeeded"
	StatusBuildFailed   RunStatus = "build_failed"
	StatusRuntimeFailed RunStatus = "runtime_failed"
	StatusAbandoned     RunStatus = "abandoned"
)

// IsFinal reports whether the status ends a run
func (s RunStatus) IsFinal() bool {
	return s != StatusRunning && s != StatusAwaitingInput
}

// statusFor maps an engine outcome onto the run status
func statusFor(kind engine.OutcomeKind) RunStatus {
	switch kind {
	case engine.OutcomeSucceeded:
		return StatusSucceeded
	case engine.OutcomeBuildFailed:
		return StatusBuildFailed
	case engine.OutcomeRuntimeFailed:
		return StatusRuntimeFailed
	default:
		return StatusAbandoned
	}
}

// Run is one execution of a program
type Run struct {
	ID        RunID
	Source    string
	StartTime time.Time
	EndTime   time.Time

	status   RunStatus
	messages []shared.Message
	outcome  engine.Outcome
	err      error

	// token identifies the pending input request; zero when none is open
	token  int64
	input  chan string
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.RWMutex
}

func newRun(id RunID, source string, cancel context.CancelFunc) *Run {
	return &Run{
		ID:        id,
		Source:    source,
		StartTime: time.Now(),
		status:    StatusRunning,
		input:     make(chan string, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Status returns the current status of the run
func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Messages returns a copy of the messages emitted so far
func (r *Run) Messages() []shared.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]shared.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Outcome returns the engine outcome; valid once Done is closed
func (r *Run) Outcome() engine.Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// Err returns the error that ended an abandoned run, if any
func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Done is closed when the run has finished
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Duration returns the duration of the run
func (r *Run) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

func (r *Run) addMessage(msg shared.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// awaitInput opens a new input request and returns its token
func (r *Run) awaitInput() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token++
	r.status = StatusAwaitingInput
	return r.token
}

// resume closes the pending input request
func (r *Run) resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusAwaitingInput {
		r.status = StatusRunning
	}
}

// offer hands text to the pending input request. It reports false when
// no request is open.
func (r *Run) offer(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusAwaitingInput {
		return false
	}
	select {
	case r.input <- text:
		return true
	default:
		return false
	}
}

func (r *Run) finish(outcome engine.Outcome, err error) {
	r.mu.Lock()
	r.outcome = outcome
	r.err = err
	r.status = statusFor(outcome.Kind)
	r.EndTime = time.Now()
	r.mu.Unlock()
	close(r.done)
}

// Transcript returns the run's messages in their persisted form
func (r *Run) Transcript() shared.Transcript {
	r.mu.RLock()
	defer r.mu.RUnlock()
	messages := make([]shared.Message, len(r.messages))
	copy(messages, r.messages)
	return shared.Transcript{
		RunID:    int64(r.ID),
		Source:   r.Source,
		Started:  r.StartTime,
		Messages: messages,
	}
}

// ToMap returns a map representation of the run for serialization
func (r *Run) ToMap() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := map[string]interface{}{
		"id":         r.ID,
		"status":     r.status,
		"messages":   len(r.messages),
		"start_time": r.StartTime.Format(time.RFC3339),
	}

	if !r.EndTime.IsZero() {
		result["end_time"] = r.EndTime.Format(time.RFC3339)
		result["duration"] = r.EndTime.Sub(r.StartTime).String()
	}

	if r.outcome.Err != nil {
		result["error"] = r.outcome.Err.ConsoleText()
	}

	return result
}

// String returns a string representation of the run
func (r *Run) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	duration := "running"
	if !r.EndTime.IsZero() {
		duration = r.EndTime.Sub(r.StartTime).String()
	}

	return fmt.Sprintf("Run[%d] %s - %d messages (%s)", r.ID, r.status, len(r.messages), duration)
}
