package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/mark1russell7/docker-sqlite/internal/persistence"
	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
)

// LedgerTable is the table recording applied migrations. Other tools may
// read it; its layout is part of the on-disk contract.
const LedgerTable = "_migrations"

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS ` + LedgerTable + ` (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`
	selectVersionsSQL = `SELECT version FROM ` + LedgerTable + ` ORDER BY version ASC`
	selectEntriesSQL  = `SELECT version, description, applied_at FROM ` + LedgerTable + ` ORDER BY version ASC`
	insertEntrySQL    = `INSERT INTO ` + LedgerTable + ` (version, description) VALUES (?, ?)`
	deleteEntrySQL    = `DELETE FROM ` + LedgerTable + ` WHERE version = ?`
)

// appliedAtLayout is the format of datetime('now').
const appliedAtLayout = "2006-01-02 15:04:05"

// Ledger reads and writes the LedgerTable table through an Executor. It is
// stateless; every method takes the executor to use so ledger writes can
// share a transaction with the migration they record.
type Ledger struct{}

// EnsureTable creates the ledger table if it doesn't exist. It never drops
// or alters an existing table.
func (Ledger) EnsureTable(ctx context.Context, e persistence.Executor) error {
	return e.ExecScript(ctx, createLedgerSQL)
}

// AppliedVersions returns every recorded version in ascending order.
func (Ledger) AppliedVersions(ctx context.Context, e persistence.Executor) ([]int, error) {
	return sqlite.Select[int](ctx, e, selectVersionsSQL)
}

type ledgerRow struct {
	Version     int    `db:"version"`
	Description string `db:"description"`
	AppliedAt   string `db:"applied_at"`
}

// Entries returns all ledger entries in ascending version order.
func (Ledger) Entries(ctx context.Context, e persistence.Executor) ([]AppliedMigration, error) {
	rows, err := sqlite.Select[ledgerRow](ctx, e, selectEntriesSQL)
	if err != nil {
		return nil, err
	}

	entries := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		appliedAt, err := time.ParseInLocation(appliedAtLayout, row.AppliedAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("ledger entry %d has malformed applied_at %q: %w", row.Version, row.AppliedAt, err)
		}
		entries = append(entries, AppliedMigration{
			Version:     row.Version,
			Description: row.Description,
			AppliedAt:   appliedAt,
		})
	}

	return entries, nil
}

// Record inserts a ledger entry for m. The engine's clock supplies applied_at.
func (Ledger) Record(ctx context.Context, e persistence.Executor, m Migration) error {
	_, err := e.Exec(ctx, insertEntrySQL, m.Version, m.Description)
	return err
}

// Remove deletes the ledger entry for version.
func (Ledger) Remove(ctx context.Context, e persistence.Executor, version int) error {
	n, err := e.Exec(ctx, deleteEntrySQL, version)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ledger entry %d: %w", version, persistence.ErrNotFound)
	}
	return nil
}
