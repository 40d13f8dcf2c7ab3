package leave

import (
	"errors"
	"fmt"
)

var (
	ErrConflict         = errors.New("overlapping leave application")
	ErrAlreadyProcessed = errors.New("application already processed")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
)

// ValidationError reports a malformed request field; it is recoverable
// and rendered to the caller as a field-level failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
