package mocks

import (
	"context"
	"time"

	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
	"github.com/stretchr/testify/mock"
)

// Gate is a mock for project.Gate.
type Gate struct {
	mock.Mock
}

func (m *Gate) State(ctx context.Context, sessionID, recordID string, createdAt *time.Time) (unlock.State, error) {
	args := m.Called(ctx, sessionID, recordID, createdAt)
	return args.Get(0).(unlock.State), args.Error(1)
}

// WindowStore is a mock for unlock.WindowStore.
type WindowStore struct {
	mock.Mock
}

func (m *WindowStore) Get(ctx context.Context, sessionID, recordKey string) (*unlock.UnlockWindow, error) {
	args := m.Called(ctx, sessionID, recordKey)
	if w, ok := args.Get(0).(*unlock.UnlockWindow); ok {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WindowStore) Put(ctx context.Context, w *unlock.UnlockWindow) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

// MemoryRepository is an in-memory project.Repository for service tests.
type MemoryRepository struct {
	Projects []project.Project
	Saves    int
	SaveErr  error
}

func (r *MemoryRepository) Load(_ context.Context) []project.Project {
	out := make([]project.Project, len(r.Projects))
	for i, p := range r.Projects {
		out[i] = p.Clone()
	}
	return out
}

func (r *MemoryRepository) Save(_ context.Context, projects []project.Project) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.Saves++
	r.Projects = projects
	return nil
}
