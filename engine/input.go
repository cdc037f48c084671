package engine

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"sharpbox/errors"
)

// InputState is the state of a run's input bridge
type InputState int

const (
	StateRunning InputState = iota
	StateAwaitingInput
)

func (s InputState) String() string {
	if s == StateAwaitingInput {
		return "awaiting_input"
	}
	return "running"
}

// inputBridge suspends the executor while the host collects a line of input.
// Only one request is outstanding at a time; token identifies it.
type inputBridge struct {
	provider   InputProvider
	flushDelay time.Duration
	flush      func()
	state      InputState
	token      int64
}

func newInputBridge(provider InputProvider, flushDelay time.Duration, flush func()) *inputBridge {
	return &inputBridge{provider: provider, flushDelay: flushDelay, flush: flush}
}

// request flushes pending output, waits for it to be shown and then blocks
// on the provider. End of input reads as an empty line.
func (b *inputBridge) request(ctx context.Context) (string, error) {
	b.flush()
	if b.flushDelay > 0 {
		timer := time.NewTimer(b.flushDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errRunAbandoned
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return "", errRunAbandoned
	}
	if b.provider == nil {
		return "", nil
	}

	b.token++
	b.state = StateAwaitingInput
	text, err := b.provider(ctx)
	b.state = StateRunning

	switch {
	case ctx.Err() != nil:
		return "", errRunAbandoned
	case stderrors.Is(err, io.EOF):
		return "", nil
	case err != nil:
		return "", errors.WrapError(err, "INPUT_FAILED", "Failed to read input: "+err.Error())
	}
	return strings.TrimRight(text, "\r\n"), nil
}

// readLine is the evaluator's entry into the bridge
func (x *execution) readLine() (string, error) {
	x.logger.Debug("awaiting input")
	return x.input.request(x.ctx)
}
