package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
)

// Error codes returned in ErrorBody.Code.
const (
	CodeInvalidRequest = "invalid_request"
	CodeValidation     = "validation_failed"
	CodeNotFound       = "not_found"
	CodeLocked         = "plan_dates_locked"
	CodeInvalidCode    = "invalid_code"
	CodeMissingSession = "missing_session"
	CodeInternal       = "internal"
)

// ErrorBody is the JSON payload of every error response.
type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// StatusFor maps a domain error to an HTTP status and error body.
func StatusFor(err error) (int, ErrorBody) {
	var verr *project.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorBody{Code: CodeValidation, Message: verr.Message, Fields: verr.Fields}
	case errors.Is(err, project.ErrProjectNotFound):
		return http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, project.ErrPlanDatesLocked):
		return http.StatusLocked, ErrorBody{Code: CodeLocked, Message: err.Error(), Fields: []string{"planStart", "planEnd"}}
	case errors.Is(err, unlock.ErrInvalidCode):
		return http.StatusForbidden, ErrorBody{Code: CodeInvalidCode, Message: err.Error()}
	case errors.Is(err, unlock.ErrMissingSession):
		return http.StatusBadRequest, ErrorBody{Code: CodeMissingSession, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: "internal error"}
	}
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes the error response for err.
func WriteError(w http.ResponseWriter, err error) {
	status, body := StatusFor(err)
	WriteJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Code: CodeInvalidRequest, Message: message})
}
