// Package store keeps the project list as one serialized JSON array in a
// named slot and announces every save.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/notify"
	"github.com/forestops/procdash/internal/repository"
)

// DefaultSlot is the slot name the project list is stored under.
const DefaultSlot = "forest_ops_projects_v1"

// Slot holds one serialized payload. Read returns repository.ErrNotFound
// when nothing has been written yet.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}

// Observer is told about slot reads and writes.
type Observer interface {
	ObserveLoad(records int, err error)
	ObserveSave(records int, err error)
}

// Store loads and saves the full project list.
type Store struct {
	slot     Slot
	bus      *notify.Bus
	logger   *slog.Logger
	observer Observer
	mu       sync.Mutex
}

// New creates a store over slot. A nil bus gets a private one.
func New(slot Slot, bus *notify.Bus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = notify.NewBus(logger)
	}
	return &Store{slot: slot, bus: bus, logger: logger}
}

// SetObserver installs an observer for load and save outcomes.
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// Bus returns the bus change signals are delivered on.
func (s *Store) Bus() *notify.Bus {
	return s.bus
}

// Load returns every stored project. Missing or unreadable content yields an
// empty list; the failure is logged, not returned.
func (s *Store) Load(ctx context.Context) []project.Project {
	projects, err := s.load(ctx)
	if s.observer != nil {
		s.observer.ObserveLoad(len(projects), err)
	}
	if err != nil {
		s.logger.Warn("project slot unreadable, using empty list", "error", err)
		return []project.Project{}
	}
	return projects
}

func (s *Store) load(ctx context.Context) ([]project.Project, error) {
	data, err := s.slot.Read(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return []project.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []project.Project{}, nil
	}

	var projects []project.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parse slot: %w", err)
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return projects, nil
}

// Save replaces the stored list with projects in one slot write. Subscribers
// are notified whether or not the write succeeded.
func (s *Store) Save(ctx context.Context, projects []project.Project) error {
	s.mu.Lock()
	err := s.save(ctx, projects)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveSave(len(projects), err)
	}
	if err != nil {
		s.logger.Warn("project slot write failed", "error", err, "records", len(projects))
	} else {
		s.logger.Debug("project slot saved", "records", len(projects))
	}
	s.bus.Notify(ctx)
	return err
}

func (s *Store) save(ctx context.Context, projects []project.Project) error {
	if projects == nil {
		projects = []project.Project{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("serialize projects: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

// Subscribe returns a channel signalled after every save, and its cancel
// function.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	return s.bus.Subscribe()
}

// OnChange calls fn after every save until the returned cancel is called.
func (s *Store) OnChange(fn func()) func() {
	ch, cancel := s.bus.Subscribe()
	go func() {
		for range ch {
			fn()
		}
	}()
	return cancel
}

// EnsureSeed saves the demo project when the store is empty. It reports
// whether a seed was written.
func (s *Store) EnsureSeed(ctx context.Context, now time.Time) (bool, error) {
	if len(s.Load(ctx)) > 0 {
		return false, nil
	}
	if err := s.Save(ctx, []project.Project{DemoProject(now)}); err != nil {
		return false, err
	}
	s.logger.Info("seeded demo project")
	return true, nil
}

// DemoProject is the record written to an empty store on first run.
func DemoProject(now time.Time) project.Project {
	ts := now.UTC()
	return project.Project{
		ID:         project.NewID(now),
		CreatedAt:  &ts,
		UpdatedAt:  &ts,
		Year:       "2025",
		Area:       "שטח רכש מנהלי",
		Dept:       "מחלקה 1",
		Domain:     "תחום א",
		Buyer:      "מוריה",
		Division:   "חטיבה 1",
		Unit:       "יחידה 3",
		Supervisor: "—",
		Activity:   project.ActivityExtension,
		Kind:       project.KindNewProject,
		Subject:    "בדיקה הנדסית למערכות",
		ProjStatus: project.StatusInProgress,
		PlanStart:  "2025-01-10",
		PlanEnd:    "2025-03-30",
		Task:       "איסוף דרישות",
		TaskOwner:  "עדן",
		TaskDue:    "2025-03-15",
		TaskStatus: project.TaskInProgress,
	}
}
