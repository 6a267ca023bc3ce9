package store

import (
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks connectivity, timeout and driver failures.
	// Callers map it to a generic server error; the wrapped cause is for
	// server-side logs only.
	ErrUnavailable = errors.New("store unavailable")
)

type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.err}
}

// unavailable classifies err as ErrUnavailable. sql.ErrNoRows becomes
// ErrNotFound; nil stays nil.
func unavailable(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrNotFound):
		return ErrNotFound
	}
	return &unavailableError{op: op, err: err}
}

// Unavailable classifies a failure of another persistence backend, such as
// the Redis session store, the same way as the store's own errors.
func Unavailable(op string, err error) error {
	return unavailable(op, err)
}

// FailedOp extracts the operation name from an ErrUnavailable error so it can
// be logged without the driver message.
func FailedOp(err error) string {
	var ue *unavailableError
	if errors.As(err, &ue) {
		return ue.op
	}
	return ""
}
