package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forestops/procdash/internal/repository"
)

// Service grants and evaluates unlock windows for protected planned dates.
type Service struct {
	windows  WindowStore
	verifier Verifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new unlock service.
func NewService(windows WindowStore, verifier Verifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{windows: windows, verifier: verifier, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// State returns the protection state of a record for a session.
func (s *Service) State(ctx context.Context, sessionID, recordID string, createdAt *time.Time) (State, error) {
	now := s.now()
	if createdAt == nil || now.Sub(*createdAt) < LockAfter {
		return StateUnprotected, nil
	}

	var until time.Time
	if sessionID != "" {
		w, err := s.windows.Get(ctx, sessionID, RecordKey(recordID))
		switch {
		case err == nil:
			until = w.ExpiresAt
		case errors.Is(err, repository.ErrNotFound):
		default:
			return "", fmt.Errorf("getting unlock window: %w", err)
		}
	}
	return Evaluate(createdAt, until, now), nil
}

// Unlock opens a window for the record when code is correct. A wrong code
// returns ErrInvalidCode and may be retried without limit.
func (s *Service) Unlock(ctx context.Context, sessionID, recordID, code string) (*UnlockWindow, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if s.verifier == nil || !s.verifier.Verify(code) {
		s.logger.Warn("unlock rejected", "session_id", sessionID, "record", RecordKey(recordID))
		return nil, ErrInvalidCode
	}

	w := &UnlockWindow{
		SessionID: sessionID,
		RecordKey: RecordKey(recordID),
		ExpiresAt: s.now().Add(Window),
	}
	if err := s.windows.Put(ctx, w); err != nil {
		return nil, fmt.Errorf("saving unlock window: %w", err)
	}
	s.logger.Info("planned dates unlocked", "session_id", sessionID, "record", w.RecordKey, "expires_at", w.ExpiresAt)
	return w, nil
}
