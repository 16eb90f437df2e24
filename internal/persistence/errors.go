package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrClosed is returned when a database handle is used after release.
	ErrClosed = errors.New("persistence: database handle is closed")

	// ErrUnsupportedParam is returned when a bound parameter is not text,
	// number, binary, or null.
	ErrUnsupportedParam = errors.New("persistence: unsupported parameter type")
)
