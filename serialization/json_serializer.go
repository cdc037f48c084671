package serialization

import (
	"encoding/json"

	"sharpbox/shared"
)

// JSONSerializer implements TranscriptSerializer for JSON format
type JSONSerializer struct {
	version string
	indent  bool
}

// NewJSONSerializer creates a new JSON serializer that writes indented output
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{
		version: DocumentVersion,
		indent:  true,
	}
}

// Serialize converts a transcript to JSON bytes
func (js *JSONSerializer) Serialize(transcript shared.Transcript) ([]byte, error) {
	doc := document{Version: js.version, Format: js.GetName(), Transcript: transcript}

	var (
		data []byte
		err  error
	)
	if js.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, NewSerializationError("json", "serialize", err.Error())
	}

	return append(data, '\n'), nil
}

// Deserialize converts JSON bytes back to a transcript
func (js *JSONSerializer) Deserialize(data []byte) (shared.Transcript, error) {
	if len(data) == 0 {
		return shared.Transcript{}, NewSerializationError("json", "deserialize", "data is empty")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return shared.Transcript{}, NewSerializationError("json", "deserialize", err.Error())
	}
	if !js.SupportsVersion(doc.Version) {
		return shared.Transcript{}, NewSerializationError("json", "deserialize", "unsupported version").
			WithContext("version", doc.Version)
	}

	return doc.Transcript, nil
}

// GetName returns the name of the serializer
func (js *JSONSerializer) GetName() string {
	return "json"
}

// GetVersion returns the version of the serializer
func (js *JSONSerializer) GetVersion() string {
	return js.version
}

// SupportsVersion checks if the serializer supports a specific version
func (js *JSONSerializer) SupportsVersion(version string) bool {
	return supportsMajor(version)
}

// Extensions lists the file extensions handled by the serializer
func (js *JSONSerializer) Extensions() []string {
	return []string{".json"}
}
