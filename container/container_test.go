package container

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharpbox/engine"
	"sharpbox/logging"
)

func testOptions() Options {
	return Options{
		Limits:      engine.Limits{MaxLoopIterations: 50},
		Logging:     logging.Options{Level: "error", Format: "text"},
		EventBuffer: 8,
	}
}

func TestContainerResolvesServices(t *testing.T) {
	c := New(testOptions())
	require.NoError(t, c.Validate())

	logger, err := c.Logger()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelError, logger.GetLevel())

	eng, err := c.Engine()
	require.NoError(t, err)
	assert.Equal(t, 50, eng.Limits().MaxLoopIterations)
	assert.Equal(t, engine.DefaultMaxExpressionDepth, eng.Limits().MaxExpressionDepth)

	again, err := c.Engine()
	require.NoError(t, err)
	assert.Same(t, eng, again, "services are singletons")

	registry, err := c.Serializers()
	require.NoError(t, err)
	serializer, err := registry.GetDefaultSerializer()
	require.NoError(t, err)
	assert.Equal(t, "json", serializer.GetName())

	require.NoError(t, c.Shutdown())
}

func TestContainerSession(t *testing.T) {
	c := New(testOptions())

	s, err := c.Session()
	require.NoError(t, err)

	id, err := s.Start(`Console.WriteLine("wired");`)
	require.NoError(t, err)
	run, err := s.Get(id)
	require.NoError(t, err)

	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		require.FailNow(t, "run did not finish")
	}
	assert.Equal(t, "succeeded", string(run.Status()))

	require.NoError(t, c.Shutdown())
	_, err = s.Start(`Console.WriteLine("late");`)
	assert.Error(t, err, "shutdown closes the session")
}

func TestContainerTranscriptFormat(t *testing.T) {
	opts := testOptions()
	opts.TranscriptFormat = "yaml"
	c := New(opts)
	registry, err := c.Serializers()
	require.NoError(t, err)
	serializer, err := registry.GetDefaultSerializer()
	require.NoError(t, err)
	assert.Equal(t, "yaml", serializer.GetName())

	opts.TranscriptFormat = "xml"
	_, err = New(opts).Serializers()
	assert.Error(t, err)
}
