package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/engine"
	"sharpbox/logging"
	"sharpbox/project"
	"sharpbox/session"
)

func newTestREPL(t *testing.T) *REPL {
	t.Helper()
	runner := engine.NewEngineWithConfig(engine.Config{
		Limits: engine.Limits{OutputYield: 0, InputFlushDelay: 0},
		Logger: logging.NewNullLogger(),
	})
	s := session.New(runner, logging.NewNullLogger(), 0)
	t.Cleanup(s.Shutdown)

	return NewREPLWithConfig(REPLConfig{Session: s})
}

// runScript feeds lines to the console and returns everything it printed
func runScript(t *testing.T, r *REPL, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	reader := NewSimpleInputReader(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	require.NoError(t, r.RunWith(reader))
	return out.String()
}

func TestREPLRunWithInput(t *testing.T) {
	r := newTestREPL(t)

	out := runScript(t, r,
		`Console.Write("Name: ");`,
		`string name = Console.ReadLine();`,
		`Console.WriteLine($"Hello, {name}!");`,
		":run",
		"Ada",
		":quit",
	)

	assert.Contains(t, out, engine.MessageBuildStarted)
	assert.Contains(t, out, "Name: ")
	assert.Contains(t, out, "Hello, Ada!")
	assert.Contains(t, out, engine.MessageBuildSucceeded)
	assert.Contains(t, out, "Goodbye!")
	assert.False(t, r.IsRunning())
	assert.False(t, r.IsAwaitingInput())
	assert.Equal(t, 3, r.GetBuffer().GetLineCount(), "running keeps the buffer")
}

func TestREPLBuildFailure(t *testing.T) {
	r := newTestREPL(t)

	out := runScript(t, r, "int x = 5", ":run")

	assert.Contains(t, out, "CS1002")
	assert.NotContains(t, out, engine.MessageBuildSucceeded)
}

func TestREPLBufferCommands(t *testing.T) {
	t.Run("list and undo", func(t *testing.T) {
		r := newTestREPL(t)
		out := runScript(t, r, "", "int a = 1;", "int b = 2;", ":undo", ":list")

		assert.Contains(t, out, "Removed: int b = 2;")
		assert.Contains(t, out, "  1: int a = 1;")
		assert.Equal(t, []string{"int a = 1;"}, r.GetBuffer().GetLines(), "leading blank lines are skipped")
	})

	t.Run("reset", func(t *testing.T) {
		r := newTestREPL(t)
		out := runScript(t, r, "int a = 1;", ":reset", ":list")

		assert.Contains(t, out, "Buffer cleared")
		assert.Contains(t, out, "The buffer is empty")
	})

	t.Run("run empty buffer", func(t *testing.T) {
		r := newTestREPL(t)
		out := runScript(t, r, ":run")
		assert.Contains(t, out, "Error: the buffer is empty")
	})

	t.Run("unknown command", func(t *testing.T) {
		r := newTestREPL(t)
		out := runScript(t, r, ":frobnicate")
		assert.Contains(t, out, "unknown command :frobnicate")
	})
}

func TestREPLSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	transcript := filepath.Join(dir, "run.yaml")

	r := newTestREPL(t)
	out := runScript(t, r,
		`Console.WriteLine("saved");`,
		":save "+transcript,
		":run",
		":save "+transcript,
		":runs",
	)

	assert.Contains(t, out, "nothing to save")
	assert.Contains(t, out, "Saved run 1")
	assert.Contains(t, out, "Run[1] succeeded")

	data, err := os.ReadFile(transcript)
	require.NoError(t, err)
	assert.Contains(t, string(data), "content: saved")

	source := filepath.Join(dir, "hello.cs")
	require.NoError(t, os.WriteFile(source, []byte("Console.WriteLine(\"from file\");\r\n"), 0644))

	r = newTestREPL(t)
	out = runScript(t, r, ":load "+source, ":run")
	assert.Contains(t, out, "Loaded "+source+" (1 lines)")
	assert.Contains(t, out, "from file")
}

func TestREPLExportAndLoadProject(t *testing.T) {
	dir := t.TempDir()

	r := newTestREPL(t)
	out := runScript(t, r, `Console.WriteLine("exported");`, ":export "+dir)
	assert.Contains(t, out, "Exported")

	archive := filepath.Join(dir, "Program.zip")
	p, err := project.LoadZip(archive)
	require.NoError(t, err)
	source, err := p.ActiveSource()
	require.NoError(t, err)
	assert.Equal(t, `Console.WriteLine("exported");`, source)

	r = newTestREPL(t)
	out = runScript(t, r, ":load "+archive, ":run")
	assert.Contains(t, out, "Loaded project Program, active file Program.cs")
	assert.Contains(t, out, "exported")
}

func TestREPLStopPendingInput(t *testing.T) {
	r := newTestREPL(t)

	out := runScript(t, r,
		`string s = Console.ReadLine();`,
		`Console.WriteLine("never");`,
		":run",
		":stop",
		":runs",
	)

	assert.NotContains(t, out, "never")
	assert.Contains(t, out, "program stopped")
	assert.Contains(t, out, "Run[1] abandoned")
}

func TestREPLEndOfInputAbandonsRun(t *testing.T) {
	r := newTestREPL(t)

	runScript(t, r, `string s = Console.ReadLine();`, ":run")

	assert.False(t, r.IsAwaitingInput())
	run := r.session.Current()
	require.NotNil(t, run)
	<-run.Done()
	assert.Equal(t, session.StatusAbandoned, run.Status())
}
