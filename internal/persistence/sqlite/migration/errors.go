package migration

import (
	"errors"
	"fmt"
)

// Migration-specific error types for different failure scenarios
var (
	// ErrMigrationFailed indicates that a migration execution failed
	ErrMigrationFailed = errors.New("migration execution failed")

	// ErrUnknownMigration indicates that the ledger references a version the
	// caller did not declare
	ErrUnknownMigration = errors.New("ledger references unknown migration")

	// ErrNoRollback indicates that a migration has no down script
	ErrNoRollback = errors.New("migration has no rollback")

	// ErrInvalidVersion indicates that a migration version is not a positive integer
	ErrInvalidVersion = errors.New("invalid migration version")

	// ErrDuplicateVersion indicates that multiple migrations have the same version
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrInvalidMigrationFile indicates that a migration file is malformed or invalid
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
)

// MigrationError wraps migration-specific errors with additional context
type MigrationError struct {
	Version     int    // Migration version that caused the error
	Description string // Description of that migration
	Operation   string // Operation being performed (apply, record, rollback, ...)
	Err         error  // Underlying error
}

// Error implements the error interface
func (e *MigrationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("migration %d (%s): %s: %v", e.Version, e.Description, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration %d: %s: %v", e.Version, e.Operation, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a new MigrationError with context
func NewMigrationError(m Migration, operation string, err error) *MigrationError {
	return &MigrationError{
		Version:     m.Version,
		Description: m.Description,
		Operation:   operation,
		Err:         err,
	}
}

// FileSystemError wraps file system related errors during migration loading
type FileSystemError struct {
	Path      string // File or directory path
	Operation string // File operation (read, scan, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// NewFileSystemError creates a new FileSystemError
func NewFileSystemError(path, operation string, err error) *FileSystemError {
	return &FileSystemError{
		Path:      path,
		Operation: operation,
		Err:       err,
	}
}
