// Package progress aggregates completion progress per procurement activity.
package progress

import (
	"math"

	"github.com/forestops/procdash/internal/domain/project"
)

// Palette colors activity rows by position.
var Palette = []string{
	"#b8ff7a", "#6ee7ff", "#a78bfa", "#60a5fa",
	"#fbbf24", "#34d399", "#f472b6", "#94a3b8",
}

// Row is the progress of one activity.
type Row struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Done    int    `json:"done"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

// Result is the overall progress plus one row per activity.
type Result struct {
	Total          int   `json:"total"`
	Completed      int   `json:"completed"`
	OverallPercent int   `json:"overallPercent"`
	Rows           []Row `json:"rows"`
}

type counter struct {
	total, done int
}

// Calculate aggregates progress over projects. Rows list every canonical
// activity first, then activities outside the canonical set in first-seen
// order. A blank activity is counted under project.Unknown.
func Calculate(projects []project.Project) Result {
	counters := make(map[string]*counter)
	var seen []string
	completed := 0
	for i := range projects {
		name := projects[i].Activity
		if name == "" {
			name = project.Unknown
		}
		c, ok := counters[name]
		if !ok {
			c = &counter{}
			counters[name] = c
			seen = append(seen, name)
		}
		c.total++
		if project.IsResolved(projects[i].ProjStatus) {
			c.done++
			completed++
		}
	}

	rows := make([]Row, 0, len(project.Activities)+len(seen))
	canonical := make(map[string]bool, len(project.Activities))
	for idx, name := range project.Activities {
		canonical[name] = true
		rows = append(rows, newRow(name, counters[name], Palette[idx%len(Palette)]))
	}
	for _, name := range seen {
		if canonical[name] {
			continue
		}
		rows = append(rows, newRow(name, counters[name], Palette[len(rows)%len(Palette)]))
	}

	return Result{
		Total:          len(projects),
		Completed:      completed,
		OverallPercent: Percent(completed, len(projects)),
		Rows:           rows,
	}
}

func newRow(name string, c *counter, color string) Row {
	if c == nil {
		c = &counter{}
	}
	return Row{
		Name:    name,
		Total:   c.total,
		Done:    c.done,
		Percent: Percent(c.done, c.total),
		Color:   color,
	}
}

// Percent returns round(100*part/total), or 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}
