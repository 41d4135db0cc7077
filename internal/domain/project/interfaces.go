package project

import (
	"context"
	"time"

	"github.com/forestops/procdash/internal/domain/unlock"
)

// Repository provides persistence for the project list. Load never fails:
// missing or corrupt content reads as an empty list.
type Repository interface {
	Load(ctx context.Context) []Project
	Save(ctx context.Context, projects []Project) error
}

// Gate reports the protection state of a record's planned dates.
type Gate interface {
	State(ctx context.Context, sessionID, recordID string, createdAt *time.Time) (unlock.State, error)
}
