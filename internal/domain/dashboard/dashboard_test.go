package dashboard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/forestops/procdash/internal/domain/dashboard"
	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/notify"
	"github.com/stretchr/testify/require"
)

func TestComputeKPIs(t *testing.T) {
	list := []project.Project{
		{ProjStatus: project.StatusCompleted},
		{ProjStatus: project.StatusInProgress},
		{ProjStatus: project.StatusInProgress},
		{ProjStatus: project.StatusNotStarted},
		{ProjStatus: project.StatusCancelled},
		{ProjStatus: project.StatusFrozen},
		{ProjStatus: "other"},
	}
	k := dashboard.ComputeKPIs(list)
	require.Equal(t, dashboard.KPIs{
		Total: 7, Done: 1, InProgress: 2, NotStarted: 1,
		Cancelled: 1, Frozen: 1, InProgressPercent: 29,
	}, k)
	require.Zero(t, dashboard.ComputeKPIs(nil).InProgressPercent)
}

func TestVolumeByActivity(t *testing.T) {
	s := dashboard.VolumeByActivity([]project.Project{
		{Activity: project.ActivityCompetition, EstimatePeriodic: "1,000"},
		{Activity: project.ActivityTender, EstimatePeriodic: "500"},
		{Activity: project.ActivityCompetition, EstimatePeriodic: "abc"},
		{EstimatePeriodic: "20"},
	})
	require.Equal(t, []string{project.ActivityCompetition, project.ActivityTender, project.Unknown}, s.Labels)
	require.Equal(t, []float64{1000, 500, 20}, s.Values)
	require.Len(t, s.Colors, 3)
}

func TestProjectsByStatus(t *testing.T) {
	s := dashboard.ProjectsByStatus([]project.Project{
		{ProjStatus: project.StatusCompleted},
		{ProjStatus: "x"},
		{ProjStatus: project.StatusCompleted},
		{},
	})
	require.Equal(t, []string{project.StatusCompleted, "x", project.Unknown}, s.Labels)
	require.Equal(t, []float64{2, 1, 1}, s.Values)
	require.Equal(t, []string{"#d6f95c", dashboard.UnknownColor, dashboard.UnknownColor}, s.Colors)
}

func TestMonthlyCompletions(t *testing.T) {
	s := dashboard.MonthlyCompletions([]project.Project{
		{ProjStatus: project.StatusCompleted, ActualEnd: "2025-03-14"},
		{ProjStatus: project.StatusFrozen, ActualEnd: "2025-01-02"},
		{ProjStatus: project.StatusCancelled, ActualEnd: "2025-03-01"},
		{ProjStatus: project.StatusInProgress, ActualEnd: "2025-02-01"},
		{ProjStatus: project.StatusCompleted, ActualEnd: "soon"},
		{ProjStatus: project.StatusCompleted},
	})
	require.Equal(t, []string{"ינואר 2025", "מרץ 2025"}, s.Labels)
	require.Equal(t, []float64{1, 2}, s.Values)

	empty := dashboard.MonthlyCompletions(nil)
	require.Empty(t, empty.Labels)
	require.NotNil(t, empty.Values)
}

func TestFormatCurrency(t *testing.T) {
	require.Equal(t, "0 ₪", dashboard.FormatCurrency(""))
	require.Equal(t, "0 ₪", dashboard.FormatCurrency("abc"))
	require.Equal(t, "1,235 ₪", dashboard.FormatCurrency("1234.5"))
	require.Equal(t, "1,000,000 ₪", dashboard.FormatCurrency("1,000,000"))
	require.Equal(t, "12 ₪", dashboard.FormatCurrency(" 12 "))
	require.Equal(t, "0 ₪", dashboard.FormatAmount(0.4))
	require.Equal(t, "12,345,678 ₪", dashboard.FormatAmount(12345677.6))
}

type fakeSource struct {
	mu       sync.Mutex
	projects []project.Project
	bus      *notify.Bus
}

func (s *fakeSource) Load(context.Context) []project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]project.Project(nil), s.projects...)
}

func (s *fakeSource) Subscribe() (<-chan struct{}, func()) { return s.bus.Subscribe() }

func (s *fakeSource) set(list []project.Project) {
	s.mu.Lock()
	s.projects = list
	s.mu.Unlock()
	s.bus.Notify(context.Background())
}

func TestView_SnapshotAppliesFiltersToFullList(t *testing.T) {
	src := &fakeSource{bus: notify.NewBus(nil), projects: []project.Project{
		{ID: "1", Year: "2025", Area: "A", ProjStatus: project.StatusCompleted},
		{ID: "2", Year: "2025", Area: "B", ProjStatus: project.StatusInProgress},
		{ID: "3", Year: "2024", Area: "A", ProjStatus: project.StatusInProgress},
	}}
	v := dashboard.NewView(context.Background(), src, nil)

	snap := v.Snapshot(filter.Filters{filter.FieldYear: "2025"})
	require.Len(t, snap.Projects, 2)
	require.Equal(t, 2, snap.KPIs.Total)
	require.Equal(t, 50, snap.Progress.OverallPercent)
	require.Equal(t, []string{"2025", "2024"}, snap.Options[filter.FieldYear])
	require.Equal(t, 140.0, snap.Ring.Size)
	require.Equal(t, 10.0, snap.Ring.Stroke)
	require.Equal(t, 60.0, snap.Ring.Radius)

	snap = v.Snapshot(filter.Filters{filter.FieldArea: "A"})
	require.Len(t, snap.Projects, 2)
}

func TestView_RunReloadsAndKeepsSelections(t *testing.T) {
	src := &fakeSource{bus: notify.NewBus(nil), projects: []project.Project{
		{ID: "1", Year: "2025"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v := dashboard.NewView(ctx, src, nil)
	go v.Run(ctx)
	require.Eventually(t, func() bool { return src.bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	selection := filter.Filters{filter.FieldYear: "2025"}
	src.set([]project.Project{{ID: "1", Year: "2025"}, {ID: "2", Year: "2025"}})
	require.Eventually(t, func() bool { return len(v.Snapshot(selection).Projects) == 2 }, time.Second, 5*time.Millisecond)

	src.set([]project.Project{{ID: "3", Year: "2026"}})
	require.Eventually(t, func() bool {
		snap := v.Snapshot(selection)
		return len(snap.Projects) == 0 && len(snap.Unmatched) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []filter.Field{filter.FieldYear}, v.Snapshot(selection).Unmatched)
	require.Len(t, v.Snapshot(nil).Projects, 1)
}
