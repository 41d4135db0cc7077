package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forestops/procdash/internal/domain/dashboard"
	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
	"github.com/forestops/procdash/internal/repository"
	"github.com/forestops/procdash/internal/store"
)

type memoryWindows struct {
	mu      sync.Mutex
	windows map[string]unlock.UnlockWindow
}

func (m *memoryWindows) Get(_ context.Context, sessionID, recordKey string) (*unlock.UnlockWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[sessionID+"/"+recordKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (m *memoryWindows) Put(_ context.Context, w *unlock.UnlockWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.windows == nil {
		m.windows = make(map[string]unlock.UnlockWindow)
	}
	m.windows[w.SessionID+"/"+w.RecordKey] = *w
	return nil
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []string
	unlocks  []string
}

func (o *recordingObserver) ObserveRequest(method, route string, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, method+" "+route)
}

func (o *recordingObserver) ObserveUnlock(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unlocks = append(o.unlocks, result)
}

func (o *recordingObserver) snapshot() (requests, unlocks []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.requests...), append([]string(nil), o.unlocks...)
}

type fixture struct {
	server   *httptest.Server
	store    *store.Store
	view     *dashboard.View
	observer *recordingObserver
	now      time.Time
}

func newFixture(t *testing.T, seed string) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	var payload []byte
	if seed != "" {
		payload = []byte(seed)
	}
	f.store = store.New(store.NewMemorySlot(payload), nil, nil)
	unlockSvc := unlock.NewService(&memoryWindows{}, unlock.PlainCode("2468"), nil)
	unlockSvc.SetClock(clock)
	projectSvc := project.NewService(f.store, unlockSvc, nil)
	projectSvc.SetClock(clock)
	f.view = dashboard.NewView(context.Background(), f.store, nil)
	f.observer = &recordingObserver{}

	f.server = httptest.NewServer(NewServer(Config{
		Projects: projectSvc,
		Unlock:   unlockSvc,
		View:     f.view,
		Observer: f.observer,
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, session string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const oldRecord = `[{"id":"p_old","year":"2025","area":"A","createdAt":"2026-03-01T09:00:00Z","planStart":"2025-01-10","planEnd":"2025-03-30","projStatus":"בתהליך"}]`

func TestHTTPServer_Health(t *testing.T) {
	f := newFixture(t, "")
	resp := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(SessionHeader))
}

func TestHTTPServer_CreateAndList(t *testing.T) {
	f := newFixture(t, "")

	resp := f.do(t, http.MethodPost, "/api/projects", "s1", map[string]any{
		"year":           2026,
		"area":           "B",
		"activity":       project.ActivityTender,
		"planStart":      "2026-01-01",
		"planEnd":        "2026-02-01",
		"agreementYears": "2",
		"optionYears":    "1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[project.Project](t, resp)
	require.Equal(t, "2026", created.Year)
	require.Equal(t, "3", created.TotalYears)
	require.Equal(t, "/api/projects/"+created.ID, resp.Header.Get("Location"))

	list := decode[ProjectList](t, f.do(t, http.MethodGet, "/api/projects?year=2026", "s1", nil))
	require.Equal(t, 1, list.Total)

	list = decode[ProjectList](t, f.do(t, http.MethodGet, "/api/projects?year=1999&area=B", "s1", nil))
	require.Zero(t, list.Total, "a value no record has matches nothing")
	require.Empty(t, list.Projects)
	require.Equal(t, []filter.Field{filter.FieldYear}, list.Unmatched)
}

func TestHTTPServer_ValidationError(t *testing.T) {
	f := newFixture(t, "")
	resp := f.do(t, http.MethodPost, "/api/projects", "s1", map[string]any{"planStart": "2026-01-01"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[ErrorBody](t, resp)
	require.Equal(t, CodeValidation, body.Code)
	require.Equal(t, []string{"planEnd"}, body.Fields)

	resp = f.do(t, http.MethodPost, "/api/projects", "s1", []int{1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, CodeInvalidRequest, decode[ErrorBody](t, resp).Code)
}

func TestHTTPServer_NotFound(t *testing.T) {
	f := newFixture(t, "")
	resp := f.do(t, http.MethodGet, "/api/projects/missing", "s1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/projects/missing", "s1", map[string]any{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_ProtectedPlanDates(t *testing.T) {
	f := newFixture(t, oldRecord)

	state := decode[Protection](t, f.do(t, http.MethodGet, "/api/projects/p_old/protection", "s1", nil))
	require.Equal(t, unlock.StateLocked, state.State)

	resp := f.do(t, http.MethodPut, "/api/projects/p_old", "s1", map[string]any{"planEnd": "2025-04-30"})
	require.Equal(t, http.StatusLocked, resp.StatusCode)
	require.Equal(t, CodeLocked, decode[ErrorBody](t, resp).Code)

	resp = f.do(t, http.MethodPost, "/api/projects/p_old/unlock", "s1", map[string]any{"code": "1111"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/projects/p_old/unlock", "s1", map[string]any{"code": 2468})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	granted := decode[UnlockResponse](t, resp)
	require.True(t, granted.ExpiresAt.Equal(f.now.Add(unlock.Window)))

	resp = f.do(t, http.MethodPut, "/api/projects/p_old", "s1", map[string]any{"planEnd": "2025-04-30"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "2025-04-30", decode[project.Project](t, resp).PlanEnd)

	// Windows are scoped to the session that unlocked.
	resp = f.do(t, http.MethodPut, "/api/projects/p_old", "s2", map[string]any{"planEnd": "2025-05-30"})
	require.Equal(t, http.StatusLocked, resp.StatusCode)

	// And expire after the window.
	f.now = f.now.Add(unlock.Window)
	resp = f.do(t, http.MethodPut, "/api/projects/p_old", "s1", map[string]any{"planEnd": "2025-05-30"})
	require.Equal(t, http.StatusLocked, resp.StatusCode)

	_, unlocks := f.observer.snapshot()
	require.Equal(t, []string{"rejected", "granted"}, unlocks)
}

func TestHTTPServer_DashboardAndFilters(t *testing.T) {
	f := newFixture(t, oldRecord)

	snap := decode[dashboard.Snapshot](t, f.do(t, http.MethodGet, "/api/dashboard?area=A", "s1", nil))
	require.Equal(t, 1, snap.KPIs.Total)
	require.Equal(t, 1, snap.KPIs.InProgress)
	require.Len(t, snap.Progress.Rows, len(project.Activities)+1)

	opts := decode[map[string][]string](t, f.do(t, http.MethodGet, "/api/filters", "s1", nil))
	require.Equal(t, []string{"A"}, opts["area"])
	require.Eventually(t, func() bool {
		requests, _ := f.observer.snapshot()
		for _, r := range requests {
			if r == "GET /api/filters" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestHTTPServer_Export(t *testing.T) {
	f := newFixture(t, oldRecord)
	resp := f.do(t, http.MethodGet, "/api/export.xlsx", "s1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
}
