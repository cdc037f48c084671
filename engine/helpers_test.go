package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sharpbox/logging"
	"sharpbox/shared"
)

// recorder collects the messages of a run
type recorder struct {
	mu       sync.Mutex
	messages []shared.Message
}

func (r *recorder) handle(msg shared.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) contents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	for i, msg := range r.messages {
		out[i] = msg.Content
	}
	return out
}

// programOutput drops the build banners and returns the console lines only
func (r *recorder) programOutput() []string {
	var out []string
	for _, content := range r.contents() {
		switch content {
		case MessageBuildStarted, MessageBuildSucceeded, MessageBuildFailed:
			continue
		}
		out = append(out, content)
	}
	return out
}

func (r *recorder) last() shared.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return shared.Message{}
	}
	return r.messages[len(r.messages)-1]
}

// scriptedInput answers input requests from lines in order, then reports EOF
func scriptedInput(lines ...string) InputProvider {
	var mu sync.Mutex
	return func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("msg-%d", n)
	}
}

func newTestEngine() *Engine {
	return NewEngineWithConfig(Config{
		Limits:      Limits{OutputYield: 0, InputFlushDelay: 0},
		Logger:      logging.NewNullLogger(),
		IDGenerator: sequentialIDs(),
		Clock:       func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) },
	})
}

// runProgram runs source to completion on a fresh engine
func runProgram(t *testing.T, source string, input ...string) (Outcome, *recorder) {
	t.Helper()
	rec := &recorder{}
	outcome, err := newTestEngine().Run(context.Background(), source, rec.handle, scriptedInput(input...))
	require.NoError(t, err)
	return outcome, rec
}

// newTestExecution returns an execution over an empty program for
// exercising the evaluator directly.
func newTestExecution(t *testing.T, env Environment) (*execution, *recorder) {
	t.Helper()
	e := newTestEngine()
	rec := &recorder{}
	emit := func(kind shared.MessageKind, content string, line int, suggestion string) {
		rec.handle(shared.Message{Kind: kind, Content: content, Line: line, Suggestion: suggestion})
	}
	x := e.newExecution(context.Background(), &Program{}, logging.NewNullLogger(), emit, scriptedInput())
	for name, v := range env {
		x.env[name] = v
	}
	return x, rec
}

// replaceVerb substitutes the %s placeholder of a program template
func replaceVerb(source, value string) string {
	return strings.Replace(source, "%s", value, 1)
}
