// Package filestore keeps the project slot in a single JSON file and watches
// it for writes made by other processes.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/forestops/procdash/internal/repository"
)

// Slot stores the payload in one file. Writes go to a temporary file in the
// same directory and are renamed over the target, so readers never observe
// a partial payload.
type Slot struct {
	path string

	mu sync.Mutex
	// written is the hash of this process's last write; handled is the
	// hash of the last content the watcher accounted for.
	written string
	handled string
}

// NewSlot creates a slot backed by path. The parent directory is created on
// first write.
func NewSlot(path string) *Slot {
	return &Slot{path: path}
}

// Path returns the backing file path.
func (s *Slot) Path() string {
	return s.path
}

// Read returns the file content, or repository.ErrNotFound when the file
// does not exist.
func (s *Slot) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}

// Write atomically replaces the file content.
func (s *Slot) Write(_ context.Context, payload []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Recorded before the rename so the watcher never sees an unknown hash
	// for our own write.
	s.markWritten(payload)
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *Slot) markWritten(data []byte) {
	h := contentHash(data)
	s.mu.Lock()
	s.written = h
	s.mu.Unlock()
}

// seen reports whether data is this process's last write or content the
// watcher already handled, and records it as handled otherwise. Reads never
// count: another process's write stays unseen until the watcher reports it.
func (s *Slot) seen(data []byte) bool {
	h := contentHash(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == s.written || h == s.handled {
		s.handled = h
		return true
	}
	s.handled = h
	return false
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
