package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotationPolicy decides when a log file is rolled over and how many old
// files survive.
type RotationPolicy struct {
	MaxSize    int64
	MaxAge     time.Duration
	MaxBackups int
	Compress   bool
}

// RotatingFileWriter appends to a file and rolls it over according to a policy
type RotatingFileWriter struct {
	mu        sync.Mutex
	file      *os.File
	filePath  string
	size      int64
	openedAt  time.Time
	policy    RotationPolicy
	timestamp func() time.Time
}

// NewRotatingFileWriter creates a new rotating file writer
func NewRotatingFileWriter(filePath string, policy RotationPolicy) (*RotatingFileWriter, error) {
	w := &RotatingFileWriter{filePath: filePath, policy: policy, timestamp: time.Now}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = file
	w.size = info.Size()
	w.openedAt = w.timestamp()
	return nil
}

// Write writes data, rotating first when the policy requires it
func (w *RotatingFileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.due(len(data)) {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
	}

	n, err := w.file.Write(data)
	w.size += int64(n)
	return err
}

func (w *RotatingFileWriter) due(incoming int) bool {
	if w.policy.MaxSize > 0 && w.size > 0 && w.size+int64(incoming) > w.policy.MaxSize {
		return true
	}
	return w.policy.MaxAge > 0 && w.timestamp().Sub(w.openedAt) > w.policy.MaxAge
}

func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	backup := fmt.Sprintf("%s.%s", w.filePath, w.timestamp().Format("20060102-150405.000"))
	if err := os.Rename(w.filePath, backup); err != nil {
		return err
	}
	if w.policy.Compress {
		if err := gzipFile(backup); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compress log backup: %v\n", err)
		}
	}
	if err := w.prune(); err != nil {
		return err
	}
	return w.open()
}

// prune removes the oldest backups beyond MaxBackups
func (w *RotatingFileWriter) prune() error {
	if w.policy.MaxBackups <= 0 {
		return nil
	}

	dir := filepath.Dir(w.filePath)
	prefix := filepath.Base(w.filePath) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, entry.Name())
		}
	}
	// Backup names embed a sortable timestamp, newest last.
	sort.Strings(backups)

	for len(backups) > w.policy.MaxBackups {
		if err := os.Remove(filepath.Join(dir, backups[0])); err != nil {
			return err
		}
		backups = backups[1:]
	}
	return nil
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// Flush flushes the file writer
func (w *RotatingFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *RotatingFileWriter) GetName() string {
	return "rotating:" + w.filePath
}
