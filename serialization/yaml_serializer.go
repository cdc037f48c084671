package serialization

import (
	"gopkg.in/yaml.v3"

	"sharpbox/shared"
)

// YAMLSerializer implements TranscriptSerializer for YAML format
type YAMLSerializer struct {
	version string
}

// NewYAMLSerializer creates a new YAML serializer
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{version: DocumentVersion}
}

// Serialize converts a transcript to YAML bytes
func (ys *YAMLSerializer) Serialize(transcript shared.Transcript) ([]byte, error) {
	data, err := yaml.Marshal(document{Version: ys.version, Format: ys.GetName(), Transcript: transcript})
	if err != nil {
		return nil, NewSerializationError("yaml", "serialize", err.Error())
	}
	return data, nil
}

// Deserialize converts YAML bytes back to a transcript
func (ys *YAMLSerializer) Deserialize(data []byte) (shared.Transcript, error) {
	if len(data) == 0 {
		return shared.Transcript{}, NewSerializationError("yaml", "deserialize", "data is empty")
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return shared.Transcript{}, NewSerializationError("yaml", "deserialize", err.Error())
	}
	if !ys.SupportsVersion(doc.Version) {
		return shared.Transcript{}, NewSerializationError("yaml", "deserialize", "unsupported version").
			WithContext("version", doc.Version)
	}

	return doc.Transcript, nil
}

// GetName returns the name of the serializer
func (ys *YAMLSerializer) GetName() string {
	return "yaml"
}

// GetVersion returns the version of the serializer
func (ys *YAMLSerializer) GetVersion() string {
	return ys.version
}

// SupportsVersion checks if the serializer supports a specific version
func (ys *YAMLSerializer) SupportsVersion(version string) bool {
	return supportsMajor(version)
}

// Extensions lists the file extensions handled by the serializer
func (ys *YAMLSerializer) Extensions() []string {
	return []string{".yaml", ".yml"}
}
