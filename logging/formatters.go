package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// NewFormatter returns the formatter registered under name ("json", "text" or
// "console"). Unknown names fall back to text.
func NewFormatter(name string) Formatter {
	switch strings.ToLower(name) {
	case "json":
		return NewJSONFormatter()
	case "console":
		return NewConsoleFormatter()
	default:
		return NewTextFormatter()
	}
}

// JSONFormatter formats log entries as JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as one JSON object per line
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})

	output["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Caller != "" {
		output["caller"] = entry.Caller
	}
	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if entry.RunID != "" {
		output["run_id"] = entry.RunID
	}
	if entry.Error != nil {
		output["error"] = entry.Error.Error()
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	IncludeTimestamp bool
	IncludeCaller    bool
	ColorOutput      bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeCaller:    true,
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.IncludeTimestamp {
		fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	level := entry.Level.String()
	if f.ColorOutput {
		level = colorizeLevel(level, entry.Level)
	}
	fmt.Fprintf(&b, "[%s] ", level)

	if entry.Component != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Component)
	}
	if entry.RunID != "" {
		fmt.Fprintf(&b, "[run %s] ", entry.RunID)
	}

	b.WriteString(entry.Message)

	if line, ok := entry.Fields["line"].(int); ok {
		fmt.Fprintf(&b, " (at line %d)", line)
	}
	if f.IncludeCaller && entry.Caller != "" {
		fmt.Fprintf(&b, " (caller: %s)", entry.Caller)
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " (error: %s)", entry.Error.Error())
	}
	if fields := formatFields(entry.Fields); fields != "" {
		b.WriteString(" ")
		b.WriteString(fields)
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

// formatFields renders fields in key order, skipping the line field which the
// text layout already shows.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "line" {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%v", key, fields[key])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func colorizeLevel(level string, logLevel LogLevel) string {
	switch logLevel {
	case LevelDebug:
		return fmt.Sprintf("\x1b[36m%s\x1b[0m", level)
	case LevelInfo:
		return fmt.Sprintf("\x1b[32m%s\x1b[0m", level)
	case LevelWarning:
		return fmt.Sprintf("\x1b[33m%s\x1b[0m", level)
	case LevelError:
		return fmt.Sprintf("\x1b[31m%s\x1b[0m", level)
	default:
		return level
	}
}

// ConsoleFormatter formats log entries for console output with colors
type ConsoleFormatter struct {
	*TextFormatter
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{
		TextFormatter: &TextFormatter{IncludeTimestamp: true, ColorOutput: true},
	}
}

// GetName returns the name of the formatter
func (f *ConsoleFormatter) GetName() string {
	return "console"
}
