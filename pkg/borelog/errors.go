package borelog

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced at the service boundary. Callers branch on
// category with errors.Is / errors.As; the service is the only layer
// that retries (and only on ErrConcurrentModification).
var (
	// ErrNotFound means the borehole or version id did not resolve
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition means a state machine rule was violated,
	// including a missing capability for the attempted transition
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification means the version-number allocation race
	// was lost after retries; the caller should retry the submission
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrReconciliationAmbiguity means the input shape could not be
	// confidently normalized and was not guessed at
	ErrReconciliationAmbiguity = errors.New("ambiguous input shape")
)

// ValidationError reports a malformed payload field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationErr(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
