package emerald

import (
	"database/sql"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// ValidationError marks a missing or empty required field. It maps to a 400
// response with a human-readable message.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// AuthorizationError marks an actor lacking the role an operation requires.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

// StorageResolutionError marks a failed media upload or public-URL
// resolution. Callers must not persist any record referencing the media.
type StorageResolutionError struct {
	Key string
	Err error
}

func (e *StorageResolutionError) Error() string {
	return fmt.Sprintf("resolve media %q: %v", e.Key, e.Err)
}

func (e *StorageResolutionError) Unwrap() error {
	return e.Err
}
