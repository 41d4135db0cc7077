package transport

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forestops/procdash/internal/domain/filter"
	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
	"github.com/forestops/procdash/internal/export"
)

const maxBodyBytes = 1 << 20

// ProjectList is the response of GET /api/projects.
type ProjectList struct {
	Projects []project.Project `json:"projects"`
	Filters  filter.Filters    `json:"filters"`
	// Unmatched lists selections whose value no record has.
	Unmatched []filter.Field `json:"unmatched,omitempty"`
	Total     int            `json:"total"`
}

// Protection is the plan-date protection state of one record.
type Protection struct {
	ID    string       `json:"id"`
	State unlock.State `json:"state"`
}

// UnlockResponse reports a granted unlock window.
type UnlockResponse struct {
	ID        string       `json:"id"`
	State     unlock.State `json:"state"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func sessionID(r *http.Request) string {
	id, _ := SessionIDFromContext(r.Context())
	return id
}

// filtered loads the current list and applies the query filters exactly. A
// value no record has matches nothing.
func (s *Server) filtered(r *http.Request) ([]project.Project, filter.Filters, []filter.Field) {
	all := s.projects.List(r.Context())
	active := filter.ParseQuery(r.URL.Query())
	return filter.Apply(all, active), active, filter.BuildOptions(all).Unmatched(active)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, active, unmatched := s.filtered(r)
	WriteJSON(w, http.StatusOK, ProjectList{Projects: list, Filters: active, Unmatched: unmatched, Total: len(list)})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, proj)
}

func readForm(r *http.Request) (project.Form, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return project.ParseForm(data)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		writeBadRequest(w, "request body must be a JSON object")
		return
	}
	proj, err := s.projects.Create(r.Context(), form)
	if err != nil {
		s.logFailure(r, "create project", err)
		WriteError(w, err)
		return
	}
	w.Header().Set("Location", "/api/projects/"+proj.ID)
	WriteJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		writeBadRequest(w, "request body must be a JSON object")
		return
	}
	proj, err := s.projects.Update(r.Context(), sessionID(r), chi.URLParam(r, "id"), form)
	if err != nil {
		s.logFailure(r, "update project", err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, proj)
}

func (s *Server) handleProtection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.projects.PlanDatesState(r.Context(), sessionID(r), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, Protection{ID: id, State: state})
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	// The code may arrive as a JSON string or number.
	form, err := readForm(r)
	if err != nil {
		writeBadRequest(w, "request body must be a JSON object")
		return
	}

	id := chi.URLParam(r, "id")
	if id != unlock.NewRecordKey {
		if _, err := s.projects.Get(r.Context(), id); err != nil {
			WriteError(w, err)
			return
		}
	} else {
		id = ""
	}

	win, err := s.unlock.Unlock(r.Context(), sessionID(r), id, form["code"])
	if err != nil {
		s.observeUnlock(err)
		WriteError(w, err)
		return
	}
	s.observeUnlock(nil)
	WriteJSON(w, http.StatusOK, UnlockResponse{
		ID:        win.RecordKey,
		State:     unlock.StateUnlocked,
		ExpiresAt: win.ExpiresAt,
	})
}

func (s *Server) observeUnlock(err error) {
	if s.observer == nil {
		return
	}
	switch {
	case err == nil:
		s.observer.ObserveUnlock("granted")
	case errors.Is(err, unlock.ErrInvalidCode):
		s.observer.ObserveUnlock("rejected")
	default:
		s.observer.ObserveUnlock("error")
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.view.Snapshot(filter.ParseQuery(r.URL.Query())))
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.view.Options())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	list, _, _ := s.filtered(r)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="projects.xlsx"`)
	if err := export.Write(w, list); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}

func (s *Server) logFailure(r *http.Request, op string, err error) {
	status, _ := StatusFor(err)
	attrs := []any{"op", op, "error", err, "status", status}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
		return
	}
	s.logger.Info("request rejected", append(attrs, "path", r.URL.Path)...)
}
