package repl

import (
	"strings"
)

// MultiLineBuffer holds the program being typed into the console
type MultiLineBuffer struct {
	lines []string
}

// NewMultiLineBuffer creates a new buffer
func NewMultiLineBuffer() *MultiLineBuffer {
	return &MultiLineBuffer{
		lines: []string{},
	}
}

// AddLine appends a line to the buffer
func (b *MultiLineBuffer) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// GetContent returns the buffer content as a single string
func (b *MultiLineBuffer) GetContent() string {
	return strings.Join(b.lines, "\n")
}

// SetContent replaces the buffer with the lines of text
func (b *MultiLineBuffer) SetContent(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		b.Clear()
		return
	}
	b.lines = strings.Split(text, "\n")
}

// Clear empties the buffer
func (b *MultiLineBuffer) Clear() {
	b.lines = []string{}
}

// IsEmpty returns true if the buffer is empty
func (b *MultiLineBuffer) IsEmpty() bool {
	return len(b.lines) == 0
}

// GetLineCount returns the number of lines in the buffer
func (b *MultiLineBuffer) GetLineCount() int {
	return len(b.lines)
}

// GetLines returns all lines in the buffer
func (b *MultiLineBuffer) GetLines() []string {
	return b.lines
}

// RemoveLastLine removes and returns the last line from the buffer
func (b *MultiLineBuffer) RemoveLastLine() string {
	if len(b.lines) == 0 {
		return ""
	}

	lastIndex := len(b.lines) - 1
	lastLine := b.lines[lastIndex]
	b.lines = b.lines[:lastIndex]
	return lastLine
}
