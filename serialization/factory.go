package serialization

import (
	"fmt"
	"os"

	"sharpbox/shared"
)

// NewDefaultSerializerRegistry creates a serializer registry with JSON and
// YAML registered and JSON as the default.
func NewDefaultSerializerRegistry() *SerializerRegistry {
	registry := NewSerializerRegistry()
	// Names are distinct, registration cannot fail
	_ = registry.RegisterSerializer(NewJSONSerializer())
	_ = registry.RegisterSerializer(NewYAMLSerializer())
	_ = registry.SetDefaultSerializer("json")
	return registry
}

// WriteTranscript encodes transcript with the serializer matching path and
// writes it to disk.
func (sr *SerializerRegistry) WriteTranscript(path string, transcript shared.Transcript) error {
	serializer, err := sr.ForPath(path)
	if err != nil {
		return err
	}

	data, err := serializer.Serialize(transcript)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript %s: %w", path, err)
	}
	return nil
}

// ReadTranscript loads a transcript written by WriteTranscript
func (sr *SerializerRegistry) ReadTranscript(path string) (shared.Transcript, error) {
	serializer, err := sr.ForPath(path)
	if err != nil {
		return shared.Transcript{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return shared.Transcript{}, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}

	return serializer.Deserialize(data)
}
