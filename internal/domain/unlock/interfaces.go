package unlock

import "context"

// WindowStore persists session-scoped unlock windows. Get returns
// repository.ErrNotFound when no window exists.
type WindowStore interface {
	Get(ctx context.Context, sessionID, recordKey string) (*UnlockWindow, error)
	Put(ctx context.Context, w *UnlockWindow) error
}

// Verifier checks a supplied admin code.
type Verifier interface {
	Verify(code string) bool
}
