package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
)

// localSession keys unlock windows when no session can be resolved.
const localSession = "local"

type filtersInput struct {
	Filters map[string]string `json:"filters,omitempty" jsonschema:"exact-match selections keyed by year, area, dept, unit, buyer, activity, status or task"`
}

type projectIDInput struct {
	ID        string `json:"id" jsonschema:"project id"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session that owns unlock windows"`
}

type saveProjectInput struct {
	ID        string         `json:"id,omitempty" jsonschema:"existing project id; omit to create"`
	Fields    map[string]any `json:"fields" jsonschema:"project fields to set"`
	SessionID string         `json:"session_id,omitempty" jsonschema:"session that owns unlock windows"`
}

type unlockInput struct {
	ID        string `json:"id,omitempty" jsonschema:"project id; omit or use new for an unsaved record"`
	Code      string `json:"code" jsonschema:"admin code"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session that owns unlock windows"`
}

type noInput struct{}

// ProjectList is the result of list_projects.
type ProjectList struct {
	Projects  []project.Project `json:"projects"`
	Filters   filter.Filters    `json:"filters"`
	Unmatched []filter.Field    `json:"unmatched,omitempty"`
	Total     int               `json:"total"`
}

// Protection is the result of get_protection and unlock_plan_dates.
type Protection struct {
	ID        string       `json:"id"`
	State     unlock.State `json:"state"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

type toolHandlers struct {
	services Services
	logger   *slog.Logger
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	h := &toolHandlers{services: services, logger: logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List procurement projects, optionally filtered by exact value. A value no record has matches nothing and is reported in unmatched.",
	}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one project with all of its fields.",
	}, h.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "save_project",
		Description: "Create a project (no id) or update one. Requires planStart and planEnd; planned dates of records older than 24h need an unlock.",
	}, h.saveProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_dashboard",
		Description: "KPIs, per-activity progress and chart series for the project set filtered by exact value. Selections no record has are reported in unmatched.",
	}, h.getDashboard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_filter_options",
		Description: "Distinct values available for each filter dimension.",
	}, h.getFilterOptions)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_protection",
		Description: "Plan-date protection state of a project for this session.",
	}, h.getProtection)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "unlock_plan_dates",
		Description: "Open a 20 minute window to edit a protected project's planned dates.",
	}, h.unlockPlanDates)
}

// sessionFor resolves the unlock session: explicit argument, then the
// transport session, then a shared local session.
func sessionFor(ctx context.Context, req *sdkmcp.CallToolRequest, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id := getSessionID(ctx); id != "" {
		return id
	}
	if req != nil && req.Session != nil {
		if id := req.Session.ID(); id != "" {
			return id
		}
	}
	return localSession
}

func parseFilters(in map[string]string) filter.Filters {
	out := filter.Filters{}
	for _, f := range filter.Fields {
		if v, ok := in[string(f)]; ok && v != "" {
			out[f] = v
		}
	}
	return out
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func (h *toolHandlers) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in filtersInput) (*sdkmcp.CallToolResult, any, error) {
	all := h.services.Projects.List(ctx)
	active := parseFilters(in.Filters)
	list := filter.Apply(all, active)
	return jsonResult(ProjectList{
		Projects:  list,
		Filters:   active,
		Unmatched: filter.BuildOptions(all).Unmatched(active),
		Total:     len(list),
	})
}

func (h *toolHandlers) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectIDInput) (*sdkmcp.CallToolResult, any, error) {
	proj, err := h.services.Projects.Get(ctx, in.ID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return jsonResult(proj)
}

func (h *toolHandlers) saveProject(ctx context.Context, req *sdkmcp.CallToolRequest, in saveProjectInput) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(in.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode fields: %w", err)
	}
	form, err := project.ParseForm(data)
	if err != nil {
		return nil, nil, &APIError{Code: "INVALID_REQUEST", Message: "fields must be an object"}
	}

	var proj *project.Project
	if in.ID == "" {
		proj, err = h.services.Projects.Create(ctx, form)
	} else {
		proj, err = h.services.Projects.Update(ctx, sessionFor(ctx, req, in.SessionID), in.ID, form)
	}
	if err != nil {
		if MapError(err) == nil {
			h.logger.Error("save project failed", "id", in.ID, "error", err)
		}
		return nil, nil, toolError(err)
	}
	return jsonResult(proj)
}

func (h *toolHandlers) getDashboard(_ context.Context, _ *sdkmcp.CallToolRequest, in filtersInput) (*sdkmcp.CallToolResult, any, error) {
	return jsonResult(h.services.View.Snapshot(parseFilters(in.Filters)))
}

func (h *toolHandlers) getFilterOptions(_ context.Context, _ *sdkmcp.CallToolRequest, _ noInput) (*sdkmcp.CallToolResult, any, error) {
	return jsonResult(h.services.View.Options())
}

func (h *toolHandlers) getProtection(ctx context.Context, req *sdkmcp.CallToolRequest, in projectIDInput) (*sdkmcp.CallToolResult, any, error) {
	state, err := h.services.Projects.PlanDatesState(ctx, sessionFor(ctx, req, in.SessionID), in.ID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return jsonResult(Protection{ID: in.ID, State: state})
}

func (h *toolHandlers) unlockPlanDates(ctx context.Context, req *sdkmcp.CallToolRequest, in unlockInput) (*sdkmcp.CallToolResult, any, error) {
	id := in.ID
	if id == unlock.NewRecordKey {
		id = ""
	}
	if id != "" {
		if _, err := h.services.Projects.Get(ctx, id); err != nil {
			return nil, nil, toolError(err)
		}
	}

	win, err := h.services.Unlock.Unlock(ctx, sessionFor(ctx, req, in.SessionID), id, in.Code)
	if err != nil {
		if !errors.Is(err, unlock.ErrInvalidCode) {
			h.logger.Error("unlock failed", "id", id, "error", err)
		}
		return nil, nil, toolError(err)
	}
	return jsonResult(Protection{ID: win.RecordKey, State: unlock.StateUnlocked, ExpiresAt: &win.ExpiresAt})
}
