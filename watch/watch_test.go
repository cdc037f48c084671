package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/session"
)

// recordingStarter captures the sources it is asked to run
type recordingStarter struct {
	mu      sync.Mutex
	sources chan string
	next    session.RunID
}

func newRecordingStarter() *recordingStarter {
	return &recordingStarter{sources: make(chan string, 16)}
}

func (r *recordingStarter) Start(source string) (session.RunID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.sources <- source
	return r.next, nil
}

func (r *recordingStarter) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-r.sources:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no run started", "want %q", want)
	}
}

func TestWatcherRunsOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Program.cs")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	starter := newRecordingStarter()
	w := New(file, starter, nil, WithDebounce(20*time.Millisecond), WithRunOnStart(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	starter.expect(t, "v1")

	require.NoError(t, os.WriteFile(file, []byte("v2"), 0644))
	starter.expect(t, "v2")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "watcher did not stop")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Program.cs")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	starter := newRecordingStarter()
	w := New(file, starter, nil, WithDebounce(10*time.Millisecond), WithRunOnStart(true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	starter.expect(t, "v1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case got := <-starter.sources:
		assert.Failf(t, "unexpected run", "source %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "Program.cs"), newRecordingStarter(), nil)
	err := w.Run(context.Background())
	assert.Error(t, err)
}
