package mcp

import (
	"errors"
	"fmt"

	"github.com/forestops/procdash/internal/domain/project"
	"github.com/forestops/procdash/internal/domain/unlock"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	Fields       []string `json:"fields,omitempty"`
	RecoveryHint string   `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var verr *project.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{Code: "VALIDATION_FAILED", Message: verr.Message, Fields: verr.Fields, RecoveryHint: "Fix the listed fields and save again"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrPlanDatesLocked):
		return &APIError{Code: "PLAN_DATES_LOCKED", Message: "planned dates are locked", Fields: []string{"planStart", "planEnd"}, RecoveryHint: "Call unlock_plan_dates with the admin code"}
	case errors.Is(err, unlock.ErrInvalidCode):
		return &APIError{Code: "INVALID_CODE", Message: "invalid admin code"}
	case errors.Is(err, unlock.ErrMissingSession):
		return &APIError{Code: "MISSING_SESSION", Message: "session id required", RecoveryHint: "Pass session_id"}
	default:
		return nil
	}
}

// toolError converts err into the error returned from a tool handler.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
