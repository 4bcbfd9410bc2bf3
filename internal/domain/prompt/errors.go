package prompt

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a prompt id is not indexed.
	ErrNotFound = errors.New("prompt not found")

	// ErrAlreadyExists is returned when creating a prompt whose id is already indexed.
	ErrAlreadyExists = errors.New("prompt already exists")
)

// ValidationError reports a malformed name, id or directory. Prompts failing
// validation are never persisted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// PersistenceError wraps a filesystem failure on read, write, delete or list.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is (or wraps) a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
