package testserver

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forestops/procdash/internal/app"
	"github.com/forestops/procdash/internal/config"
)

// AdminCode is the unlock code of servers built by New.
const AdminCode = "2468"

// TestServer runs the full HTTP stack over an in-memory database with a
// controllable clock.
type TestServer struct {
	Server *httptest.Server
	App    *app.App

	mu  sync.Mutex
	now time.Time
}

// New starts a server with an empty project list.
func New(t *testing.T) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Seed = false
	cfg.Admin.Code = AdminCode

	ctx := context.Background()
	a, err := app.New(ctx, cfg, nil)
	require.NoError(t, err)

	ts := &TestServer{App: a, now: time.Now().UTC().Truncate(time.Second)}
	a.SetClock(ts.Now)
	a.Start(ctx)
	ts.Server = httptest.NewServer(a.Handler())

	t.Cleanup(func() {
		ts.Server.CloseClientConnections()
		ts.Server.Close()
		_ = a.Close()
	})

	return ts
}

// Now returns the server clock.
func (ts *TestServer) Now() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.now
}

// Advance moves the server clock forward.
func (ts *TestServer) Advance(d time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.now = ts.now.Add(d)
}

// URL returns the base URL of the server.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}
