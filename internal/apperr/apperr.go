// Package apperr defines the error taxonomy shared by the game engine.
//
// Validation errors are returned before any state is mutated. Conflicts
// signal that a concurrent request already applied the same effect and are
// translated into idempotent no-ops by callers. Cooldowns and daily limits
// are not errors: they are reported as typed results by the reward arbiter.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint or conditional
	// update lost a race against another request.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrUnknownGameType is returned for game types missing from the registry.
	ErrUnknownGameType = errors.New("unknown game type")
)

// ValidationError reports malformed input rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
