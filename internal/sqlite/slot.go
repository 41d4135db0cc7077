package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forestops/procdash/internal/repository"
)

// SlotRepository stores one named payload in the slots table. It implements
// store.Slot.
type SlotRepository struct {
	db   *DB
	name string
	now  func() time.Time
}

// NewSlotRepository creates a SlotRepository for the slot called name
func NewSlotRepository(db *DB, name string) *SlotRepository {
	return &SlotRepository{db: db, name: name, now: time.Now}
}

// Name returns the slot name
func (r *SlotRepository) Name() string {
	return r.name
}

// Read returns the slot payload
func (r *SlotRepository) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM slots WHERE name = ?`, r.name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", r.name, err)
	}
	return []byte(payload), nil
}

// Write replaces the slot payload
func (r *SlotRepository) Write(ctx context.Context, payload []byte) error {
	query := `
		INSERT INTO slots (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, r.name, string(payload), r.now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", r.name, err)
	}
	return nil
}

// UpdatedAt returns when the slot was last written
func (r *SlotRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var updated time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT updated_at FROM slots WHERE name = ?`, r.name,
	).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, repository.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read slot %s: %w", r.name, err)
	}
	return updated, nil
}
