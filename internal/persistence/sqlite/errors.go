package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mark1russell7/docker-sqlite/internal/persistence"
)

// ParamError reports a bound parameter whose type the engine does not accept.
type ParamError struct {
	Index int    // Zero-based parameter position
	Type  string // Go type of the rejected value
}

// Error implements the error interface
func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %d: unsupported type %s (want text, number, binary, or null)", e.Index+1, e.Type)
}

// Unwrap returns persistence.ErrUnsupportedParam
func (e *ParamError) Unwrap() error {
	return persistence.ErrUnsupportedParam
}

func newParamError(index int, value any) *ParamError {
	return &ParamError{Index: index, Type: fmt.Sprintf("%T", value)}
}

// ErrorKind maps engine and persistence errors to a stable logging label.
// It never changes the error itself; callers keep receiving the engine's
// native error text.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, persistence.ErrNotFound):
		return "not_found"
	case errors.Is(err, persistence.ErrClosed):
		return "closed"
	case errors.Is(err, persistence.ErrUnsupportedParam):
		return "invalid_param"
	}

	var engineErr *moderncsqlite.Error
	if errors.As(err, &engineErr) {
		switch engineErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return "constraint"
		case sqlite3.SQLITE_BUSY:
			return "busy"
		case sqlite3.SQLITE_LOCKED:
			return "locked"
		}
	}

	errStr := err.Error()
	switch {
	case containsAny(errStr, "constraint failed"):
		return "constraint"
	case containsAny(errStr, "database is locked", "database table is locked"):
		return "locked"
	case containsAny(errStr, "database is busy"):
		return "busy"
	case containsAny(errStr, "syntax error", "incomplete input"):
		return "syntax"
	case containsAny(errStr, "no such table", "no such column"):
		return "schema"
	}

	return "unexpected"
}

// containsAny checks if the string contains any of the given substrings
func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
