package serialization

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"sharpbox/shared"
)

// TranscriptSerializer encodes and decodes run transcripts
type TranscriptSerializer interface {
	// Serialize converts a transcript to bytes
	Serialize(transcript shared.Transcript) ([]byte, error)

	// Deserialize converts bytes back to a transcript
	Deserialize(data []byte) (shared.Transcript, error)

	// GetName returns the name of the serializer
	GetName() string

	// GetVersion returns the document version the serializer writes
	GetVersion() string

	// SupportsVersion checks if the serializer can read a document version
	SupportsVersion(version string) bool

	// Extensions lists the file extensions handled by the serializer
	Extensions() []string
}

// DocumentVersion is the version stamped on written transcripts
const DocumentVersion = "1.0.0"

// document is the on-disk form of a transcript
type document struct {
	Version           string `json:"version" yaml:"version"`
	Format            string `json:"format" yaml:"format"`
	shared.Transcript `yaml:",inline"`
}

func supportsMajor(version string) bool {
	return version == DocumentVersion || strings.HasPrefix(version, "1.")
}

// SerializationError represents an error that occurred during serialization
type SerializationError struct {
	Operation string
	Message   string
	Format    string
	Context   map[string]interface{}
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("[%s serialization error] %s", e.Format, e.Message)
}

// NewSerializationError creates a new serialization error
func NewSerializationError(format, operation, message string) *SerializationError {
	return &SerializationError{
		Format:    format,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *SerializationError) WithContext(key string, value interface{}) *SerializationError {
	e.Context[key] = value
	return e
}

// SerializerRegistry manages multiple serializers
type SerializerRegistry struct {
	serializers       map[string]TranscriptSerializer
	defaultSerializer string
}

// NewSerializerRegistry creates a new serializer registry
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{
		serializers:       make(map[string]TranscriptSerializer),
		defaultSerializer: "json",
	}
}

// RegisterSerializer registers a serializer
func (sr *SerializerRegistry) RegisterSerializer(serializer TranscriptSerializer) error {
	name := serializer.GetName()
	if _, exists := sr.serializers[name]; exists {
		return fmt.Errorf("serializer '%s' is already registered", name)
	}

	sr.serializers[name] = serializer
	return nil
}

// GetSerializer returns a serializer by name
func (sr *SerializerRegistry) GetSerializer(name string) (TranscriptSerializer, error) {
	serializer, exists := sr.serializers[name]
	if !exists {
		return nil, fmt.Errorf("serializer '%s' not found", name)
	}
	return serializer, nil
}

// GetDefaultSerializer returns the default serializer
func (sr *SerializerRegistry) GetDefaultSerializer() (TranscriptSerializer, error) {
	if sr.defaultSerializer == "" {
		return nil, errors.New("no default serializer configured")
	}
	return sr.GetSerializer(sr.defaultSerializer)
}

// SetDefaultSerializer sets the default serializer
func (sr *SerializerRegistry) SetDefaultSerializer(name string) error {
	if _, exists := sr.serializers[name]; !exists {
		return fmt.Errorf("serializer '%s' not found", name)
	}

	sr.defaultSerializer = name
	return nil
}

// ListSerializers returns the sorted names of all registered serializers
func (sr *SerializerRegistry) ListSerializers() []string {
	names := make([]string, 0, len(sr.serializers))
	for name := range sr.serializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForPath picks a serializer from the file extension of path, falling back
// to the default serializer for unknown extensions.
func (sr *SerializerRegistry) ForPath(path string) (TranscriptSerializer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, name := range sr.ListSerializers() {
		serializer := sr.serializers[name]
		for _, candidate := range serializer.Extensions() {
			if candidate == ext {
				return serializer, nil
			}
		}
	}
	return sr.GetDefaultSerializer()
}

// ConvertFormat converts a serialized transcript from one format to another
func (sr *SerializerRegistry) ConvertFormat(data []byte, fromFormat, toFormat string) ([]byte, error) {
	fromSerializer, err := sr.GetSerializer(fromFormat)
	if err != nil {
		return nil, err
	}

	transcript, err := fromSerializer.Deserialize(data)
	if err != nil {
		return nil, err
	}

	toSerializer, err := sr.GetSerializer(toFormat)
	if err != nil {
		return nil, err
	}

	return toSerializer.Serialize(transcript)
}

// IsFormatSupported checks if a format is supported
func (sr *SerializerRegistry) IsFormatSupported(format string) bool {
	_, exists := sr.serializers[format]
	return exists
}
