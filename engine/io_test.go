package engine

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/errors"
)

func TestOutputBuffer(t *testing.T) {
	var emitted []string
	out := newOutputBuffer(func(text string) { emitted = append(emitted, text) })

	out.write("Hello", false)
	out.write(", ", false)
	assert.Empty(t, emitted)

	out.write("world", true)
	assert.Equal(t, []string{"Hello, world"}, emitted)

	out.write(`one\ntwo`, false)
	assert.Equal(t, []string{"Hello, world", "one"}, emitted)

	out.flush()
	out.flush()
	assert.Equal(t, []string{"Hello, world", "one", "two"}, emitted)

	out.write("", true)
	assert.Equal(t, []string{"Hello, world", "one", "two", ""}, emitted)
}

func TestInputBridge(t *testing.T) {
	t.Run("flushes and tracks state", func(t *testing.T) {
		flushed := 0
		var bridge *inputBridge
		var state InputState
		bridge = newInputBridge(func(ctx context.Context) (string, error) {
			state = bridge.state
			return "answer\r\n", nil
		}, 0, func() { flushed++ })

		text, err := bridge.request(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "answer", text)
		assert.Equal(t, 1, flushed)
		assert.Equal(t, StateAwaitingInput, state)
		assert.Equal(t, StateRunning, bridge.state)
		assert.Equal(t, int64(1), bridge.token)
	})

	t.Run("no provider reads empty", func(t *testing.T) {
		bridge := newInputBridge(nil, 0, func() {})
		text, err := bridge.request(context.Background())
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("eof reads empty", func(t *testing.T) {
		bridge := newInputBridge(func(ctx context.Context) (string, error) {
			return "", io.EOF
		}, 0, func() {})
		text, err := bridge.request(context.Background())
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("provider failure", func(t *testing.T) {
		bridge := newInputBridge(func(ctx context.Context) (string, error) {
			return "", stderrors.New("terminal closed")
		}, 0, func() {})
		_, err := bridge.request(context.Background())
		require.Error(t, err)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, "INPUT_FAILED", execErr.Code)
	})

	t.Run("cancelled during flush delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		bridge := newInputBridge(func(ctx context.Context) (string, error) {
			called = true
			return "", nil
		}, time.Hour, func() {})

		_, err := bridge.request(ctx)
		assert.Equal(t, errRunAbandoned, err)
		assert.False(t, called)
	})
}

func TestInputStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "awaiting_input", StateAwaitingInput.String())
}

func TestValueRendering(t *testing.T) {
	assert.Equal(t, "3", IntValue(3).String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "null", Value{kind: KindRecord}.String())
	assert.Equal(t, "Point", RecordValue("Point").String())
	assert.True(t, IntValue(2).Equal(FloatValue(2)))
	assert.True(t, CharValue('a').Equal(TextValue("a")))
	assert.Equal(t, int64(42), parseIntLoose(" 42abc"))
	assert.Equal(t, int64(0), parseIntLoose("abc"))
	assert.Equal(t, 3.5, parseFloatLoose("3.5kg"))
}
