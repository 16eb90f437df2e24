package migration

import (
	"context"
	"time"
)

// Migration represents a caller-declared schema change
type Migration struct {
	Version     int    // Positive, unique version defining application order
	Description string // Human-readable description of the migration
	Up          string // Statements that move the schema forward
	Down        string // Statements that reverse Up; empty when irreversible
	FilePath    string // Source file when loaded from disk
}

// Reversible reports whether the migration can be rolled back.
func (m Migration) Reversible() bool {
	return m.Down != ""
}

// Status provides information about the current migration state
type Status struct {
	CurrentVersion    int         // Highest applied version, 0 when none
	AppliedMigrations []int       // Applied versions, ascending
	PendingMigrations []Migration // Declared but unapplied migrations, ascending
}

// AppliedMigration represents a ledger entry
type AppliedMigration struct {
	Version     int       // Migration version
	Description string    // Description captured when applied
	AppliedAt   time.Time // When the migration was applied, UTC
}

// Runner applies and reverts migrations against a database
type Runner interface {
	// Status computes applied and pending migrations for the declared list
	Status(ctx context.Context, migrations []Migration) (*Status, error)

	// Run applies all pending migrations in ascending version order
	Run(ctx context.Context, migrations []Migration) ([]Migration, error)

	// Rollback reverts the most recently applied migration
	Rollback(ctx context.Context, migrations []Migration) (*Migration, error)

	// History returns every ledger entry in ascending version order
	History(ctx context.Context) ([]AppliedMigration, error)
}
