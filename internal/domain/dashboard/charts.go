package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/forestops/procdash/internal/domain/progress"
	"github.com/forestops/procdash/internal/domain/project"
)

// Chart kinds.
const (
	KindBar      = "bar"
	KindDoughnut = "doughnut"
	KindLine     = "line"
)

// UnknownColor is used for statuses without an assigned color.
const UnknownColor = "#6b7280"

// StatusColors maps each status to its KPI tile color.
var StatusColors = map[string]string{
	project.StatusCompleted:  "#d6f95c",
	project.StatusInProgress: "#3fe1f6",
	project.StatusNotStarted: "#22c55e",
	project.StatusCancelled:  "#94a3b8",
	project.StatusFrozen:     "#60a5fa",
	project.Unknown:          UnknownColor,
}

var hebrewMonths = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// Series is one chart dataset.
type Series struct {
	Kind   string    `json:"kind"`
	Label  string    `json:"label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors,omitempty"`
}

// Charts holds the three dashboard datasets.
type Charts struct {
	VolumeByActivity   Series `json:"volumeByActivity"`
	ProjectsByStatus   Series `json:"projectsByStatus"`
	MonthlyCompletions Series `json:"monthlyCompletions"`
}

// BuildCharts computes every chart dataset for projects.
func BuildCharts(projects []project.Project) Charts {
	return Charts{
		VolumeByActivity:   VolumeByActivity(projects),
		ProjectsByStatus:   ProjectsByStatus(projects),
		MonthlyCompletions: MonthlyCompletions(projects),
	}
}

// groups accumulates values per key in first-seen order.
type groups struct {
	keys   []string
	values map[string]float64
}

func (g *groups) add(key string, v float64) {
	if g.values == nil {
		g.values = make(map[string]float64)
	}
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] += v
}

func (g *groups) series() ([]string, []float64) {
	labels := make([]string, 0, len(g.keys))
	values := make([]float64, 0, len(g.keys))
	for _, k := range g.keys {
		labels = append(labels, k)
		values = append(values, g.values[k])
	}
	return labels, values
}

func orUnknown(s string) string {
	if s == "" {
		return project.Unknown
	}
	return s
}

// VolumeByActivity sums the periodic estimate per activity.
func VolumeByActivity(projects []project.Project) Series {
	var g groups
	for i := range projects {
		v, _ := project.ParseNumber(projects[i].EstimatePeriodic)
		g.add(orUnknown(projects[i].Activity), v)
	}
	labels, values := g.series()
	colors := make([]string, len(labels))
	for i := range labels {
		colors[i] = progress.Palette[i%len(progress.Palette)]
	}
	return Series{Kind: KindBar, Label: "היקף כספי", Labels: labels, Values: values, Colors: colors}
}

// ProjectsByStatus counts projects per status.
func ProjectsByStatus(projects []project.Project) Series {
	var g groups
	for i := range projects {
		g.add(orUnknown(projects[i].ProjStatus), 1)
	}
	labels, values := g.series()
	colors := make([]string, len(labels))
	for i, status := range labels {
		colors[i] = UnknownColor
		if c, ok := StatusColors[status]; ok {
			colors[i] = c
		}
	}
	return Series{Kind: KindDoughnut, Label: "מספר פרויקטים", Labels: labels, Values: values, Colors: colors}
}

// MonthlyCompletions counts resolved projects per month of their actual end
// date, in chronological order. Projects without a readable end date are
// skipped.
func MonthlyCompletions(projects []project.Project) Series {
	counts := make(map[string]float64)
	for i := range projects {
		p := &projects[i]
		if !project.IsResolved(p.ProjStatus) {
			continue
		}
		end, ok := parseDate(p.ActualEnd)
		if !ok {
			continue
		}
		counts[end.Format("2006-01")]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := Series{Kind: KindLine, Label: "פרויקטים שהושלמו", Labels: []string{}, Values: []float64{}}
	for _, k := range keys {
		s.Labels = append(s.Labels, monthLabel(k))
		s.Values = append(s.Values, counts[k])
	}
	return s
}

func monthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", hebrewMonths[t.Month()-1], t.Year())
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(project.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
