package project

import (
	"errors"
	"strings"
)

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrMissingPlanDates indicates a planned start or end date is blank.
	ErrMissingPlanDates = errors.New("planned dates are required")
	// ErrPlanEndBeforeStart indicates the planned end precedes the planned start.
	ErrPlanEndBeforeStart = errors.New("planned end precedes planned start")
	// ErrPlanDatesLocked indicates planned dates were changed on a locked record.
	ErrPlanDatesLocked = errors.New("planned dates are locked")
)

// ValidationError describes a rejected save with a user-facing message and
// the offending fields.
type ValidationError struct {
	Err     error
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func missingDatesError(fields, labels []string) *ValidationError {
	return &ValidationError{
		Err:     ErrMissingPlanDates,
		Message: "יש להשלים: " + strings.Join(labels, ", "),
		Fields:  fields,
	}
}
