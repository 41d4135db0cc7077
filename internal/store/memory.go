package store

import (
	"context"
	"sync"

	"github.com/forestops/procdash/internal/repository"
)

// MemorySlot keeps the payload in memory. It backs tests and the export
// command's dry runs.
type MemorySlot struct {
	mu      sync.Mutex
	payload []byte
	written bool
	// WriteErr, when set, fails every write.
	WriteErr error
}

// NewMemorySlot creates a slot holding payload; nil means never written.
func NewMemorySlot(payload []byte) *MemorySlot {
	return &MemorySlot{payload: payload, written: payload != nil}
}

func (m *MemorySlot) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.written {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), m.payload...), nil
}

func (m *MemorySlot) Write(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.payload = append([]byte(nil), payload...)
	m.written = true
	return nil
}
