// Package dashboard builds the KPI tiles, chart datasets and table snapshot
// shown for a filtered project list.
package dashboard

import (
	"github.com/forestops/procdash/internal/domain/progress"
	"github.com/forestops/procdash/internal/domain/project"
)

// KPIs are the status counters shown above the table.
type KPIs struct {
	Total             int `json:"total"`
	Done              int `json:"done"`
	InProgress        int `json:"inProgress"`
	NotStarted        int `json:"notStarted"`
	Cancelled         int `json:"cancelled"`
	Frozen            int `json:"frozen"`
	InProgressPercent int `json:"inProgressPercent"`
}

// ComputeKPIs counts projects per status. Done counts completed projects
// only; the progress bar percentage follows the in-progress share.
func ComputeKPIs(projects []project.Project) KPIs {
	k := KPIs{Total: len(projects)}
	for i := range projects {
		switch projects[i].ProjStatus {
		case project.StatusCompleted:
			k.Done++
		case project.StatusInProgress:
			k.InProgress++
		case project.StatusNotStarted:
			k.NotStarted++
		case project.StatusCancelled:
			k.Cancelled++
		case project.StatusFrozen:
			k.Frozen++
		}
	}
	k.InProgressPercent = progress.Percent(k.InProgress, k.Total)
	return k
}
