package shared

import "time"

// MessageKind classifies a console message
type MessageKind string

const (
	KindInfo    MessageKind = "info"
	KindError   MessageKind = "error"
	KindWarning MessageKind = "warning"
	KindSuccess MessageKind = "success"
	KindSystem  MessageKind = "system"
)

// Message is one entry of the simulated console session
type Message struct {
	ID         string      `json:"id" yaml:"id"`
	Kind       MessageKind `json:"type" yaml:"type"`
	Content    string      `json:"content" yaml:"content"`
	Timestamp  time.Time   `json:"timestamp" yaml:"timestamp"`
	Line       int         `json:"line,omitempty" yaml:"line,omitempty"`
	Suggestion string      `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// HasLine reports whether the message points at a source line
func (m Message) HasLine() bool {
	return m.Line > 0
}

// Transcript is the ordered message stream of one run
type Transcript struct {
	RunID    int64     `json:"run_id" yaml:"run_id"`
	Source   string    `json:"source,omitempty" yaml:"source,omitempty"`
	Started  time.Time `json:"started" yaml:"started"`
	Messages []Message `json:"messages" yaml:"messages"`
}
