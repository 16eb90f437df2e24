package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mark1russell7/docker-sqlite/internal/logging"
	"github.com/mark1russell7/docker-sqlite/internal/persistence"
)

// Manager plans, applies, and reverts migrations against a single database.
// It knows nothing about how the database was opened or when it is persisted.
type Manager struct {
	db            persistence.Transactor
	ledger        Ledger
	logger        *slog.Logger
	transactional bool
}

var _ Runner = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithTransactions controls whether each migration and its ledger entry run
// in one transaction. Enabled by default. An up script containing its own
// BEGIN/COMMIT fails under the default with "cannot start a transaction
// within a transaction"; disable transactions to apply such scripts.
func WithTransactions(enabled bool) Option {
	return func(m *Manager) {
		m.transactional = enabled
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager for db.
func NewManager(db persistence.Transactor, opts ...Option) *Manager {
	m := &Manager{
		db:            db,
		transactional: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status computes the migration status of the declared list. Ledger versions
// that are not declared count as applied and are never reported as pending.
func (m *Manager) Status(ctx context.Context, migrations []Migration) (*Status, error) {
	if err := Validate(migrations); err != nil {
		return nil, err
	}

	if err := m.ledger.EnsureTable(ctx, m.db); err != nil {
		return nil, err
	}

	applied, err := m.ledger.AppliedVersions(ctx, m.db)
	if err != nil {
		return nil, err
	}

	return computeStatus(applied, migrations), nil
}

// computeStatus derives status from the applied versions and the declared
// list. The pending order depends only on version numbers.
func computeStatus(applied []int, migrations []Migration) *Status {
	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}

	versions := make([]int, 0, len(appliedSet))
	for version := range appliedSet {
		versions = append(versions, version)
	}
	sort.Ints(versions)

	current := 0
	if len(versions) > 0 {
		current = versions[len(versions)-1]
	}

	pending := make([]Migration, 0, len(migrations))
	for _, migration := range migrations {
		if !appliedSet[migration.Version] {
			pending = append(pending, migration)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	return &Status{
		CurrentVersion:    current,
		AppliedMigrations: versions,
		PendingMigrations: pending,
	}
}

// Run applies every pending migration in ascending version order and returns
// the migrations applied by this call.
//
// Application stops at the first failure. Migrations applied earlier in the
// same call stay applied; the returned error is a *MigrationError naming the
// failing migration.
func (m *Manager) Run(ctx context.Context, migrations []Migration) ([]Migration, error) {
	logger := m.loggerFor(ctx, "run")
	startTime := time.Now()

	status, err := m.Status(ctx, migrations)
	if err != nil {
		return nil, err
	}

	applied := make([]Migration, 0, len(status.PendingMigrations))
	if len(status.PendingMigrations) == 0 {
		logger.Info("database is up to date", "current_version", status.CurrentVersion)
		return applied, nil
	}

	logger.Info("applying pending migrations",
		"current_version", status.CurrentVersion,
		"pending", len(status.PendingMigrations))

	for i, migration := range status.PendingMigrations {
		migrationStart := time.Now()

		if err := m.apply(ctx, migration); err != nil {
			logger.Error("migration failed",
				"version", migration.Version,
				"description", migration.Description,
				"position", i+1,
				"error", err)
			return applied, err
		}

		applied = append(applied, migration)
		logger.Info("migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"position", i+1,
			"duration", time.Since(migrationStart))
	}

	logger.Info("all pending migrations applied",
		"count", len(applied),
		"current_version", applied[len(applied)-1].Version,
		"duration", time.Since(startTime))

	return applied, nil
}

// apply runs the up script of migration and records it in the ledger.
func (m *Manager) apply(ctx context.Context, migration Migration) error {
	return m.inUnit(ctx, func(ctx context.Context, e persistence.Executor) error {
		if err := e.ExecScript(ctx, migration.Up); err != nil {
			return NewMigrationError(migration, "apply", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		if err := m.ledger.Record(ctx, e, migration); err != nil {
			return NewMigrationError(migration, "record", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		return nil
	})
}

// Rollback reverts the most recently applied migration and returns it.
// It returns nil, nil when nothing has been applied. Only one version is
// reverted per call.
func (m *Manager) Rollback(ctx context.Context, migrations []Migration) (*Migration, error) {
	logger := m.loggerFor(ctx, "rollback")

	status, err := m.Status(ctx, migrations)
	if err != nil {
		return nil, err
	}

	if status.CurrentVersion == 0 {
		logger.Info("nothing to roll back")
		return nil, nil
	}

	var target *Migration
	for i := range migrations {
		if migrations[i].Version == status.CurrentVersion {
			target = &migrations[i]
			break
		}
	}

	if target == nil {
		err := &MigrationError{Version: status.CurrentVersion, Operation: "rollback", Err: ErrUnknownMigration}
		logger.Error("rollback refused", "version", status.CurrentVersion, "error", err)
		return nil, err
	}

	if !target.Reversible() {
		err := NewMigrationError(*target, "rollback", ErrNoRollback)
		logger.Error("rollback refused", "version", target.Version, "error", err)
		return nil, err
	}

	err = m.inUnit(ctx, func(ctx context.Context, e persistence.Executor) error {
		if err := e.ExecScript(ctx, target.Down); err != nil {
			return NewMigrationError(*target, "revert", err)
		}

		if err := m.ledger.Remove(ctx, e, target.Version); err != nil {
			return NewMigrationError(*target, "unrecord", err)
		}

		return nil
	})
	if err != nil {
		logger.Error("rollback failed", "version", target.Version, "error", err)
		return nil, err
	}

	logger.Info("migration rolled back", "version", target.Version, "description", target.Description)

	rolledBack := *target
	return &rolledBack, nil
}

// History returns all ledger entries in ascending version order.
func (m *Manager) History(ctx context.Context) ([]AppliedMigration, error) {
	if err := m.ledger.EnsureTable(ctx, m.db); err != nil {
		return nil, err
	}
	return m.ledger.Entries(ctx, m.db)
}

// inUnit runs fn in a transaction, or directly when transactions are off.
func (m *Manager) inUnit(ctx context.Context, fn persistence.TxFunc) error {
	if m.transactional {
		return m.db.Transact(ctx, fn)
	}
	return fn(ctx, m.db)
}

func (m *Manager) loggerFor(ctx context.Context, operation string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = m.logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "migration", "operation", operation)
}

// Validate checks that every declared version is positive and unique.
func Validate(migrations []Migration) error {
	seen := make(map[int]string, len(migrations))
	for _, migration := range migrations {
		if migration.Version <= 0 {
			return fmt.Errorf("%w: %d (%s) must be positive", ErrInvalidVersion, migration.Version, migration.Description)
		}
		if other, ok := seen[migration.Version]; ok {
			return fmt.Errorf("%w: %d declared by both %q and %q",
				ErrDuplicateVersion, migration.Version, other, migration.Description)
		}
		seen[migration.Version] = migration.Description
	}
	return nil
}
