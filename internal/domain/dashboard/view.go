package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/progress"
	"github.com/forestops/procdash/internal/domain/project"
)

// Source supplies the unfiltered project list and change signals.
type Source interface {
	Load(ctx context.Context) []project.Project
	Subscribe() (<-chan struct{}, func())
}

// Ring dimensions of the dashboard progress card.
const (
	RingSize   = 140
	RingStroke = 10
)

// Snapshot is everything one dashboard render needs.
type Snapshot struct {
	Filters filter.Filters `json:"filters"`
	// Unmatched lists selections whose value is not among Options.
	Unmatched []filter.Field        `json:"unmatched,omitempty"`
	Options   filter.Options        `json:"options"`
	Projects  []project.Project     `json:"projects"`
	KPIs      KPIs                  `json:"kpis"`
	Progress  progress.Result       `json:"progress"`
	Ring      progress.RingGeometry `json:"ring"`
	Charts    Charts                `json:"charts"`
}

// View keeps the unfiltered snapshot and its filter options. Filters are
// always applied to that snapshot, never to a previously filtered list.
type View struct {
	source Source
	logger *slog.Logger

	mu       sync.RWMutex
	projects []project.Project
	options  filter.Options
	reloads  int
}

// NewView creates a view and performs the initial load.
func NewView(ctx context.Context, source Source, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	v := &View{source: source, logger: logger}
	v.Reload(ctx)
	return v
}

// Reload re-pulls the snapshot from the source and rebuilds the options.
func (v *View) Reload(ctx context.Context) {
	projects := v.source.Load(ctx)
	options := filter.BuildOptions(projects)

	v.mu.Lock()
	v.projects = projects
	v.options = options
	v.reloads++
	v.mu.Unlock()

	v.logger.Debug("dashboard snapshot reloaded", "projects", len(projects))
}

// Run reloads on every change signal until ctx is done.
func (v *View) Run(ctx context.Context) {
	changes, cancel := v.source.Subscribe()
	defer cancel()
	v.Follow(ctx, changes)
}

// Follow reloads on every signal from changes until ctx is done or changes
// is closed.
func (v *View) Follow(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			v.Reload(ctx)
		}
	}
}

// Reloads reports how many times the snapshot has been loaded.
func (v *View) Reloads() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reloads
}

// Options returns the current filter options.
func (v *View) Options() filter.Options {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.options
}

// Filtered applies filters to the snapshot.
func (v *View) Filtered(filters filter.Filters) []project.Project {
	v.mu.RLock()
	projects := v.projects
	v.mu.RUnlock()
	return filter.Apply(projects, filters)
}

// Snapshot renders the dashboard for filters.
func (v *View) Snapshot(filters filter.Filters) Snapshot {
	list := v.Filtered(filters)
	options := v.Options()
	prog := progress.Calculate(list)
	return Snapshot{
		Filters:   filters,
		Unmatched: options.Unmatched(filters),
		Options:   options,
		Projects:  list,
		KPIs:      ComputeKPIs(list),
		Progress:  prog,
		Ring:      progress.Ring(prog.OverallPercent, RingSize, RingStroke),
		Charts:    BuildCharts(list),
	}
}
