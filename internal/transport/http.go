package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/forestops/procdash/internal/domain/dashboard"
	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
)

// ProjectService creates, edits and lists projects.
type ProjectService interface {
	List(ctx context.Context) []project.Project
	Get(ctx context.Context, id string) (*project.Project, error)
	Create(ctx context.Context, form project.Form) (*project.Project, error)
	Update(ctx context.Context, sessionID, id string, form project.Form) (*project.Project, error)
	PlanDatesState(ctx context.Context, sessionID, id string) (unlock.State, error)
}

// Unlocker grants plan-date unlock windows.
type Unlocker interface {
	Unlock(ctx context.Context, sessionID, recordID, code string) (*unlock.UnlockWindow, error)
}

// DashboardView renders the dashboard over the current snapshot.
type DashboardView interface {
	Snapshot(filters filter.Filters) dashboard.Snapshot
	Options() filter.Options
}

// UnlockObserver records unlock outcomes.
type UnlockObserver interface {
	ObserveUnlock(result string)
}

// Observer records HTTP and unlock outcomes.
type Observer interface {
	RequestObserver
	UnlockObserver
}

// Config wires the HTTP server.
type Config struct {
	Projects ProjectService
	Unlock   Unlocker
	View     DashboardView
	// Events streams change notifications; omitted when nil.
	Events http.Handler
	// Metrics serves /metrics; omitted when nil.
	Metrics http.Handler
	// MCP serves the streamable MCP endpoint; omitted when nil.
	MCP      http.Handler
	Observer Observer
	Logger   *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	projects ProjectService
	unlock   Unlocker
	view     DashboardView
	observer UnlockObserver
	logger   *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ObserveMiddleware(cfg.Observer, logger))
	r.Use(SessionMiddleware)

	srv := &Server{
		projects: cfg.Projects,
		unlock:   cfg.Unlock,
		view:     cfg.View,
		observer: cfg.Observer,
		logger:   logger,
	}

	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", srv.handleListProjects)
		r.Post("/projects", srv.handleCreateProject)
		r.Get("/projects/{id}", srv.handleGetProject)
		r.Put("/projects/{id}", srv.handleUpdateProject)
		r.Get("/projects/{id}/protection", srv.handleProtection)
		r.Post("/projects/{id}/unlock", srv.handleUnlock)
		r.Get("/dashboard", srv.handleDashboard)
		r.Get("/filters", srv.handleFilters)
		r.Get("/export.xlsx", srv.handleExport)
		if cfg.Events != nil {
			r.Method(http.MethodGet, "/events", cfg.Events)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
