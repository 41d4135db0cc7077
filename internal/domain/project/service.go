package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/forestops/procdash/internal/domain/unlock"
)

// Service handles project create, edit and lookup.
type Service struct {
	repo   Repository
	gate   Gate
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewService creates a new project service.
func NewService(repo Repository, gate Gate, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, gate: gate, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List returns every stored project.
func (s *Service) List(ctx context.Context) []Project {
	return s.repo.Load(ctx)
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	projects := s.repo.Load(ctx)
	idx := indexOf(projects, id)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}
	proj := projects[idx]
	return &proj, nil
}

// PlanDatesState returns the protection state of a project's planned dates
// for a session. An empty id refers to a record that was not saved yet.
func (s *Service) PlanDatesState(ctx context.Context, sessionID, id string) (unlock.State, error) {
	if id == "" || id == unlock.NewRecordKey {
		return unlock.StateUnprotected, nil
	}
	proj, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.gate.State(ctx, sessionID, proj.ID, proj.CreatedAt)
}

// Create validates and stores a new project.
func (s *Service) Create(ctx context.Context, form Form) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var proj Project
	proj.Apply(form)
	s.prepare(&proj, now)
	if err := Validate(&proj); err != nil {
		return nil, err
	}

	created := now.UTC()
	proj.ID = NewID(now)
	proj.CreatedAt = &created
	proj.UpdatedAt = &created
	if proj.ProjStatus == "" {
		proj.ProjStatus = StatusInProgress
	}

	projects := s.repo.Load(ctx)
	projects = append(projects, proj)
	if err := s.repo.Save(ctx, projects); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project created", "id", proj.ID, "activity", proj.Activity)
	return &proj, nil
}

// Update merges submitted fields over a stored project and saves it.
// Planned dates of a locked record cannot change.
func (s *Service) Update(ctx context.Context, sessionID, id string, form Form) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.repo.Load(ctx)
	idx := indexOf(projects, id)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}
	stored := projects[idx]

	if changesPlanDates(stored, form) {
		state, err := s.gate.State(ctx, sessionID, stored.ID, stored.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("checking plan date protection: %w", err)
		}
		if state == unlock.StateLocked {
			return nil, ErrPlanDatesLocked
		}
	}

	now := s.now()
	merged := stored.Clone()
	merged.Apply(form)
	s.prepare(&merged, now)
	if err := Validate(&merged); err != nil {
		return nil, err
	}

	updated := now.UTC()
	if merged.CreatedAt == nil {
		merged.CreatedAt = &updated
	}
	merged.UpdatedAt = &updated
	if merged.ProjStatus == "" {
		merged.ProjStatus = StatusInProgress
	}

	projects[idx] = merged
	if err := s.repo.Save(ctx, projects); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project updated", "id", merged.ID, "fields", len(form))
	return &merged, nil
}

func (s *Service) prepare(p *Project, now time.Time) {
	ClearHiddenSections(p)
	p.CurrentSuppliers = NormalizeSuppliers(p.SuppliersCount, p.CurrentSuppliers)
	DeriveTotals(p)
	DeriveTaskStatus(p, now)
}

func changesPlanDates(stored Project, form Form) bool {
	for _, name := range []string{"planStart", "planEnd"} {
		value, ok := form[name]
		if ok && strings.TrimSpace(value) != strings.TrimSpace(stored.Field(name)) {
			return true
		}
	}
	return false
}

func indexOf(projects []Project, id string) int {
	if id == "" {
		return -1
	}
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}
