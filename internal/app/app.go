// Package app assembles the procdash services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/forestops/procdash/internal/config"
	"github.com/forestops/procdash/internal/domain/dashboard"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
	"github.com/forestops/procdash/internal/filestore"
	"github.com/forestops/procdash/internal/mcp"
	"github.com/forestops/procdash/internal/metrics"
	"github.com/forestops/procdash/internal/notify"
	"github.com/forestops/procdash/internal/sqlite"
	"github.com/forestops/procdash/internal/sse"
	"github.com/forestops/procdash/internal/store"
	"github.com/forestops/procdash/internal/transport"
)

// Version is reported by the MCP server and the version command.
var Version = "0.1.0"

// App holds the wired services of one procdash process.
type App struct {
	Config   config.Config
	DB       *sqlite.DB
	Bus      *notify.Bus
	Store    *store.Store
	Unlock   *unlock.Service
	Projects *project.Service
	View     *dashboard.View
	Hub      *sse.Hub
	Metrics  *metrics.Metrics
	MCP      *sdkmcp.Server

	watcher *filestore.Watcher
	relay   *notify.Relay
	logger  *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New opens storage and builds every service. Background loops start with
// Start.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	if err := ensureDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	if err := db.RunMigrations(); err != nil {
		a.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	a.Bus = notify.NewBus(logger)
	if cfg.Notify.NATSURL != "" {
		relay, err := notify.NewRelay(cfg.Notify.NATSURL, cfg.Notify.Subject, a.Bus, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		a.relay = relay
	}

	var (
		slot       store.Slot
		collectors []prometheus.Collector
	)
	switch cfg.Store.Backend {
	case "file":
		if err := ensureDir(cfg.Store.FilePath); err != nil {
			a.Close()
			return nil, fmt.Errorf("prepare store path: %w", err)
		}
		fileSlot := filestore.NewSlot(cfg.Store.FilePath)
		watcher, err := filestore.NewWatcher(fileSlot, a.Bus, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("watch store file: %w", err)
		}
		a.watcher = watcher
		slot = fileSlot
	default:
		slotRepo := sqlite.NewSlotRepository(db, cfg.Store.Slot)
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "procdash",
			Name:      "slot_updated_timestamp_seconds",
			Help:      "Unix time of the last slot write, 0 before the first.",
		}, func() float64 {
			updated, err := slotRepo.UpdatedAt(context.Background())
			if err != nil {
				return 0
			}
			return float64(updated.Unix())
		}))
		slot = slotRepo
	}

	a.Metrics = metrics.New()
	a.Store = store.New(slot, a.Bus, logger)
	a.Store.SetObserver(a.Metrics)

	if cfg.Seed {
		if _, err := a.Store.EnsureSeed(ctx, time.Now()); err != nil {
			logger.Warn("seeding failed", "error", err)
		}
	}

	var verifier unlock.Verifier = unlock.PlainCode(cfg.Admin.Code)
	if cfg.Admin.CodeHash != "" {
		verifier = unlock.HashedCode(cfg.Admin.CodeHash)
	}
	windows := sqlite.NewUnlockWindowRepository(db)
	a.Unlock = unlock.NewService(windows, verifier, logger)
	a.Projects = project.NewService(a.Store, a.Unlock, logger)
	a.View = dashboard.NewView(ctx, a.Store, logger)
	a.Hub = sse.NewHub(logger)
	collectors = append(collectors,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "procdash",
			Name:      "unlock_windows",
			Help:      "Stored unlock windows, including expired ones not yet swept.",
		}, func() float64 {
			n, err := windows.Count(context.Background())
			if err != nil {
				return 0
			}
			return float64(n)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "procdash",
			Name:      "sse_clients",
			Help:      "Connected event stream clients.",
		}, func() float64 { return float64(a.Hub.Clients()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "procdash",
			Name:      "change_subscribers",
			Help:      "Subscribers of the change bus.",
		}, func() float64 { return float64(a.Bus.Subscribers()) }),
	)
	if err := a.Metrics.Register(collectors...); err != nil {
		a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	a.MCP = mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: a.Projects,
			Unlock:   a.Unlock,
			View:     a.View,
		},
		TransportMode: cfg.Transport.Mode,
		Version:       Version,
		Logger:        logger,
	})

	return a, nil
}

// SetClock replaces the clock of the time-dependent services.
func (a *App) SetClock(now func() time.Time) {
	a.Unlock.SetClock(now)
	a.Projects.SetClock(now)
}

// Start launches the view refresher, the SSE pump and the file watcher.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	// Subscribe before returning so no save after Start is missed.
	viewChanges, viewCancel := a.Store.Subscribe()
	hubChanges, hubCancel := a.Bus.Subscribe()
	a.spawn(func() {
		defer viewCancel()
		a.View.Follow(ctx, viewChanges)
	})
	a.spawn(func() {
		defer hubCancel()
		a.Hub.Pump(ctx, hubChanges)
	})
	if a.watcher != nil {
		a.spawn(func() { a.watcher.Run(ctx) })
	}
}

func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Handler returns the HTTP API with the MCP endpoint mounted at /mcp.
func (a *App) Handler() http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return a.MCP },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)
	return transport.NewServer(transport.Config{
		Projects: a.Projects,
		Unlock:   a.Unlock,
		View:     a.View,
		Events:   a.Hub,
		Metrics:  a.Metrics.Handler(),
		MCP:      mcpHandler,
		Observer: a.Metrics,
		Logger:   a.logger,
	})
}

// Close stops background loops and releases storage and connections.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	a.wg.Wait()
	if a.relay != nil {
		errs = append(errs, a.relay.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
