package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sharpbox/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel, formatter Formatter) (*DefaultLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLoggerWithConfig(LoggerConfig{
		Level:     level,
		Formatter: formatter,
		Writer:    NewStreamWriter(buf),
	})
	return logger, buf
}

func TestLogger_Levels(t *testing.T) {
	t.Run("entries below the level are dropped", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelWarning, NewTextFormatter())
		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("parse level names", func(t *testing.T) {
		assert.Equal(t, LevelDebug, ParseLevel("debug"))
		assert.Equal(t, LevelWarning, ParseLevel("WARN"))
		assert.Equal(t, LevelError, ParseLevel("error"))
		assert.Equal(t, LevelInfo, ParseLevel("bogus"))
	})
}

func TestLogger_Fields(t *testing.T) {
	t.Run("text output carries component run and sorted fields", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelDebug, &TextFormatter{})
		ctx := context.WithValue(context.Background(), errors.RunIDKey, int64(7))

		logger.WithComponent("engine").WithContext(ctx).
			Debug("dispatch", StringField("kind", "if"), IntField("line", 4), BoolField("taken", true))

		out := buf.String()
		assert.Contains(t, out, "[DEBUG] [engine] [run 7] dispatch (at line 4)")
		assert.Contains(t, out, "[kind=if, taken=true]")
	})

	t.Run("json output is one object per line", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelInfo, NewJSONFormatter())
		logger.WithFields(StringField("source", "demo.cs")).Info("run finished")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
		assert.Equal(t, "INFO", decoded["level"])
		assert.Equal(t, "run finished", decoded["message"])
		assert.Equal(t, "demo.cs", decoded["fields"].(map[string]interface{})["source"])
	})

	t.Run("derived loggers do not leak fields into the parent", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelInfo, &TextFormatter{})
		_ = logger.WithFields(StringField("child", "yes"))
		logger.Info("parent")

		assert.NotContains(t, buf.String(), "child")
	})
}

func TestLogger_ErrorExecution(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, &TextFormatter{})
	logger.ErrorExecution(errors.NewTypeError("string", "int").WithLine(3))

	out := buf.String()
	assert.Contains(t, out, "Cannot implicitly convert type 'string' to 'int' (at line 3)")
	assert.Contains(t, out, "error_code=CS0029")
	assert.Contains(t, out, "error_type=TYPE")
}

func TestNew_FileAndRotation(t *testing.T) {
	t.Run("plain file writer", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sharpbox.log")
		logger, err := New(Options{Level: "info", Format: "text", File: path})
		require.NoError(t, err)

		logger.Info("to file")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})

	t.Run("rotation keeps a bounded number of backups", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rot.log")
		w, err := NewRotatingFileWriter(path, RotationPolicy{MaxSize: 10, MaxBackups: 2})
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			require.NoError(t, w.Write([]byte("0123456789\n")))
		}
		require.NoError(t, w.Close())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		backups := 0
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "rot.log.") {
				backups++
			}
		}
		assert.LessOrEqual(t, backups, 2)
		assert.GreaterOrEqual(t, backups, 1)
	})
}
