package registry

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a referenced agent id does not exist.
// Idempotent operations do not distinguish "already gone" from "never
// existed".
var ErrNotFound = errors.New("agent not found")

// ErrUnauthorized is returned when a heartbeat token is missing or does
// not match. The two cases are deliberately indistinguishable.
var ErrUnauthorized = errors.New("invalid heartbeat token")

// ErrConflict marks an identity collision race during registration. It
// is retried internally and only surfaces once the retry budget is
// exhausted, as a generic failure.
var ErrConflict = errors.New("agent id conflict")

// InvalidCardError carries the full list of field-level validation
// errors plus any warnings gathered before validation failed.
type InvalidCardError struct {
	Errors   []string
	Warnings []string
}

func (e *InvalidCardError) Error() string {
	return "invalid agent card: " + strings.Join(e.Errors, "; ")
}
