package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forestops/procdash/internal/domain/unlock"
	"github.com/forestops/procdash/internal/repository"
)

// UnlockWindowRepository implements unlock.WindowStore for SQLite
type UnlockWindowRepository struct {
	db  *DB
	now func() time.Time
}

// NewUnlockWindowRepository creates a new UnlockWindowRepository
func NewUnlockWindowRepository(db *DB) *UnlockWindowRepository {
	return &UnlockWindowRepository{db: db, now: time.Now}
}

// Get retrieves the window for a session and record key. Expired windows are
// returned as-is; callers compare against their own clock.
func (r *UnlockWindowRepository) Get(ctx context.Context, sessionID, recordKey string) (*unlock.UnlockWindow, error) {
	query := `
		SELECT session_id, record_key, expires_at
		FROM unlock_windows
		WHERE session_id = ? AND record_key = ?
	`

	var w unlock.UnlockWindow
	var expiresAt int64
	err := r.db.QueryRowContext(ctx, query, sessionID, recordKey).Scan(
		&w.SessionID,
		&w.RecordKey,
		&expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unlock window: %w", err)
	}
	w.ExpiresAt = time.UnixMilli(expiresAt).UTC()

	return &w, nil
}

// Put stores a window, replacing any previous one for the same key, and
// sweeps windows that have already expired.
func (r *UnlockWindowRepository) Put(ctx context.Context, w *unlock.UnlockWindow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM unlock_windows WHERE expires_at <= ?`, r.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to sweep unlock windows: %w", err)
	}

	query := `
		INSERT INTO unlock_windows (session_id, record_key, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id, record_key) DO UPDATE SET
			expires_at = excluded.expires_at
	`
	if _, err := tx.ExecContext(ctx, query, w.SessionID, w.RecordKey, w.ExpiresAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to put unlock window: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unlock window: %w", err)
	}
	return nil
}

// Count returns the number of stored windows, expired or not
func (r *UnlockWindowRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM unlock_windows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unlock windows: %w", err)
	}
	return n, nil
}
