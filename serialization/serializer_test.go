package serialization

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/shared"
)

func sampleTranscript() shared.Transcript {
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return shared.Transcript{
		RunID:   3,
		Source:  "int x = 5\n",
		Started: started,
		Messages: []shared.Message{
			{ID: "m1", Kind: shared.KindError, Content: "Error CS1002: ; expected at line 1", Timestamp: started, Line: 1, Suggestion: "Add a semicolon"},
			{ID: "m2", Kind: shared.KindSystem, Content: "Build failed.", Timestamp: started},
		},
	}
}

func assertSameTranscript(t *testing.T, want, got shared.Transcript) {
	t.Helper()
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Source, got.Source)
	assert.True(t, want.Started.Equal(got.Started))
	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		assert.Equal(t, want.Messages[i].ID, got.Messages[i].ID)
		assert.Equal(t, want.Messages[i].Kind, got.Messages[i].Kind)
		assert.Equal(t, want.Messages[i].Content, got.Messages[i].Content)
		assert.Equal(t, want.Messages[i].Line, got.Messages[i].Line)
		assert.Equal(t, want.Messages[i].Suggestion, got.Messages[i].Suggestion)
	}
}

func TestSerializers(t *testing.T) {
	for _, serializer := range []TranscriptSerializer{NewJSONSerializer(), NewYAMLSerializer()} {
		t.Run(serializer.GetName(), func(t *testing.T) {
			data, err := serializer.Serialize(sampleTranscript())
			require.NoError(t, err)
			assert.Contains(t, string(data), "Build failed.")
			assert.Contains(t, string(data), DocumentVersion)

			got, err := serializer.Deserialize(data)
			require.NoError(t, err)
			assertSameTranscript(t, sampleTranscript(), got)

			_, err = serializer.Deserialize(nil)
			var serr *SerializationError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, "deserialize", serr.Operation)
		})
	}
}

func TestJSONWireFormat(t *testing.T) {
	data, err := NewJSONSerializer().Serialize(sampleTranscript())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"type": "error"`)
	assert.Contains(t, text, `"run_id": 3`)
	assert.Contains(t, text, `"line": 1`)
	assert.Contains(t, text, `"format": "json"`)
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := NewJSONSerializer().Deserialize([]byte(`{"version":"2.0.0","messages":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")

	_, err = NewYAMLSerializer().Deserialize([]byte("version: 2.0.0\nmessages: []\n"))
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	registry := NewDefaultSerializerRegistry()
	assert.Equal(t, []string{"json", "yaml"}, registry.ListSerializers())
	assert.True(t, registry.IsFormatSupported("yaml"))
	assert.False(t, registry.IsFormatSupported("msgpack"))

	t.Run("duplicate registration", func(t *testing.T) {
		assert.Error(t, registry.RegisterSerializer(NewJSONSerializer()))
	})

	t.Run("for path", func(t *testing.T) {
		for path, want := range map[string]string{
			"out.json":   "json",
			"out.YML":    "yaml",
			"out.yaml":   "yaml",
			"transcript": "json",
		} {
			serializer, err := registry.ForPath(path)
			require.NoError(t, err)
			assert.Equal(t, want, serializer.GetName(), path)
		}
	})

	t.Run("default", func(t *testing.T) {
		assert.Error(t, registry.SetDefaultSerializer("xml"))
		serializer, err := registry.GetDefaultSerializer()
		require.NoError(t, err)
		assert.Equal(t, "json", serializer.GetName())
	})

	t.Run("convert", func(t *testing.T) {
		data, err := NewJSONSerializer().Serialize(sampleTranscript())
		require.NoError(t, err)

		converted, err := registry.ConvertFormat(data, "json", "yaml")
		require.NoError(t, err)
		got, err := NewYAMLSerializer().Deserialize(converted)
		require.NoError(t, err)
		assertSameTranscript(t, sampleTranscript(), got)

		_, err = registry.ConvertFormat(data, "json", "xml")
		assert.Error(t, err)
	})
}

func TestWriteReadTranscript(t *testing.T) {
	registry := NewDefaultSerializerRegistry()
	dir := t.TempDir()

	for _, name := range []string{"run.json", "run.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, registry.WriteTranscript(path, sampleTranscript()))

		got, err := registry.ReadTranscript(path)
		require.NoError(t, err)
		assertSameTranscript(t, sampleTranscript(), got)
	}

	_, err := registry.ReadTranscript(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
