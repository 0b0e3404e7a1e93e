package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/samber/oops"
)

// Load decodes the JSON document stored at path into v.
// A missing file is not an error and leaves v untouched.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return oops.In("storage").With("path", path).Wrapf(err, "failed to read file")
	}

	if err = json.Unmarshal(data, v); err != nil {
		return oops.In("storage").With("path", path).Wrapf(err, "failed to parse file")
	}

	return nil
}

// Writer owns a single durable file. Notify requests are coalesced and
// served by Run, so at most one write per file is in flight and every write
// carries the newest snapshot.
type Writer struct {
	path     string
	snapshot func() any

	notify chan struct{}
	mu     sync.Mutex
}

func NewWriter(path string, snapshot func() any) *Writer {
	return &Writer{
		path:     path,
		snapshot: snapshot,
		notify:   make(chan struct{}, 1),
	}
}

// Notify schedules a write without blocking.
func (w *Writer) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.notify:
			if err := w.Flush(); err != nil {
				slog.Error("Failed to persist file",
					"path", w.path,
					"error", err,
				)
			}
		}
	}
}

// Flush writes the current snapshot synchronously.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.MarshalIndent(w.snapshot(), "", "  ")
	if err != nil {
		return oops.In("storage").With("path", w.path).Wrapf(err, "failed to marshal snapshot")
	}

	return writeAtomic(w.path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return oops.In("storage").With("path", path).Wrapf(err, "failed to create directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return oops.In("storage").With("path", path).Wrapf(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if err = tmp.Chmod(0644); err != nil {
		tmp.Close()
		return oops.In("storage").With("path", path).Wrapf(err, "failed to chmod temp file")
	}

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return oops.In("storage").With("path", path).Wrapf(err, "failed to write temp file")
	}

	if err = tmp.Close(); err != nil {
		return oops.In("storage").With("path", path).Wrapf(err, "failed to close temp file")
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return oops.In("storage").With("path", path).Wrapf(err, "failed to replace file")
	}

	return nil
}
