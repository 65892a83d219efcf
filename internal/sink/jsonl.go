// Package sink persists finished documents.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"osmclean/internal/models"
)

// JSONLWriter writes one JSON document per line.
type JSONLWriter struct {
	buf   *bufio.Writer
	enc   *json.Encoder
	file  *os.File
	path  string
	count int
}

// NewJSONLWriter creates a writer over w. Call Flush or Close when done.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	return &JSONLWriter{buf: buf, enc: enc}
}

// Create prepares path, and its parent directories, for writing.
// Documents go to a temporary file next to path; Close moves it into place
// and Abort removes it, so path never holds a partial run.
func Create(path string) (*JSONLWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.partial")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	if err := f.Chmod(0644); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return nil, fmt.Errorf("failed to set output permissions: %w", err)
	}

	w := NewJSONLWriter(f)
	w.file = f
	w.path = path

	return w, nil
}

// Write encodes doc followed by a newline.
func (w *JSONLWriter) Write(doc *models.Document) error {
	if err := w.enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document %d: %w", doc.ID, err)
	}

	w.count++

	return nil
}

// Count returns the number of documents written.
func (w *JSONLWriter) Count() int {
	return w.count
}

// Flush writes buffered data to the underlying writer.
func (w *JSONLWriter) Flush() error {
	return w.buf.Flush()
}

// Close flushes, and for a writer from Create moves the finished file to its path.
func (w *JSONLWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.Abort()

		return err
	}

	if w.file == nil {
		return nil
	}

	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.file.Name())

		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Rename(w.file.Name(), w.path); err != nil {
		_ = os.Remove(w.file.Name())

		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// Abort drops everything written so far. The destination path is left untouched.
func (w *JSONLWriter) Abort() {
	if w.file == nil {
		return
	}

	_ = w.file.Close()
	_ = os.Remove(w.file.Name())
}
