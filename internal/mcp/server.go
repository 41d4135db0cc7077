package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/forestops/procdash/internal/domain/dashboard"
	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context) []project.Project
	Get(ctx context.Context, id string) (*project.Project, error)
	Create(ctx context.Context, form project.Form) (*project.Project, error)
	Update(ctx context.Context, sessionID, id string, form project.Form) (*project.Project, error)
	PlanDatesState(ctx context.Context, sessionID, id string) (unlock.State, error)
}

// UnlockService defines plan-date unlock operations needed by MCP.
type UnlockService interface {
	Unlock(ctx context.Context, sessionID, recordID, code string) (*unlock.UnlockWindow, error)
}

// DashboardView defines the dashboard reads needed by MCP.
type DashboardView interface {
	Snapshot(filters filter.Filters) dashboard.Snapshot
	Options() filter.Options
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Unlock   UnlockService
	View     DashboardView
}

// Config contains server configuration.
type Config struct {
	Services      Services
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "procdash",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware(defaultSession(cfg.TransportMode)))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, logger)

	return server
}

// defaultSession is the unlock session used when a client supplies none.
// A stdio server talks to exactly one client, so one fixed session fits.
func defaultSession(mode string) string {
	if mode == "stdio" {
		return "stdio"
	}
	return ""
}
