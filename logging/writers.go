package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleWriter writes log entries to a terminal stream
type ConsoleWriter struct {
	mu     sync.Mutex
	writer *os.File
}

// NewConsoleWriterWithFile creates a new console writer with a specific file
func NewConsoleWriterWithFile(file *os.File) *ConsoleWriter {
	return &ConsoleWriter{writer: file}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.writer.Write(data)
	return err
}

// Flush is a no-op for terminals; Sync fails on pipes and ttys.
func (w *ConsoleWriter) Flush() error {
	return nil
}

// Close never closes stdout/stderr
func (w *ConsoleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == os.Stdout || w.writer == os.Stderr {
		return nil
	}
	return w.writer.Close()
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter appends log entries to a file
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileWriter creates a new file writer
func NewFileWriter(filePath string) (*FileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileWriter{file: file, filePath: filePath}, nil
}

// Write writes data to the file
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.file.Write(data)
	return err
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return "file:" + w.filePath
}

// StreamWriter adapts any io.Writer. Tests use it with a bytes.Buffer.
type StreamWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStreamWriter wraps an io.Writer
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// Write writes data to the stream
func (w *StreamWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.out.Write(data)
	return err
}

// Flush does nothing
func (w *StreamWriter) Flush() error { return nil }

// Close does nothing
func (w *StreamWriter) Close() error { return nil }

// GetName returns the name of the writer
func (w *StreamWriter) GetName() string {
	if _, ok := w.out.(*bytes.Buffer); ok {
		return "buffer"
	}
	return "stream"
}

// MultiWriter fans entries out to several writers
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new multi writer
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes data to all writers
func (w *MultiWriter) Write(data []byte) error {
	return w.each("write", func(writer Writer) error { return writer.Write(data) })
}

// Flush flushes all writers
func (w *MultiWriter) Flush() error {
	return w.each("flush", Writer.Flush)
}

// Close closes all writers
func (w *MultiWriter) Close() error {
	return w.each("close", Writer.Close)
}

func (w *MultiWriter) each(op string, fn func(Writer) error) error {
	var errs []error
	for _, writer := range w.writers {
		if err := fn(writer); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", writer.GetName(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer %s errors: %v", op, errs)
	}
	return nil
}

// GetName returns the name of the writer
func (w *MultiWriter) GetName() string {
	return "multi"
}

// NullWriter is a writer that discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

// Write discards the data
func (w *NullWriter) Write(data []byte) error { return nil }

// Flush does nothing
func (w *NullWriter) Flush() error { return nil }

// Close does nothing
func (w *NullWriter) Close() error { return nil }

// GetName returns the name of the writer
func (w *NullWriter) GetName() string {
	return "null"
}
