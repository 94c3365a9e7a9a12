package storage

import (
	"errors"
	"fmt"
)

// ErrUnavailable is matched by every storage failure: quota, disabled storage,
// unreadable files, closed databases.
var ErrUnavailable = errors.New("storage unavailable")

var errDisabled = errors.New("storage disabled")

// Error wraps a backend failure with the operation and key involved.
type Error struct {
	Backend string // "memory", "file", "sqlite", "disabled"
	Op      string // "get", "set", "delete", "open"
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s: %s %q failed: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports every storage Error as ErrUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

func newError(backend, op, key string, err error) *Error {
	return &Error{Backend: backend, Op: op, Key: key, Err: err}
}
