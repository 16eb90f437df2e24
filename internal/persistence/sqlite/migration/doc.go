// Package migration provides a sequential schema migration system for
// embedded SQLite databases.
//
// Migrations are declared by the caller as an ordered list of versions, each
// with an up script and an optional down script. The package keeps a
// _migrations ledger table recording which versions have been applied and
// when. It supports:
//
//   - Deterministic pending computation, independent of declaration order
//   - Sequential, fail-fast application with one ledger entry per migration
//   - Single-step rollback of the most recently applied version
//   - Loading migrations from {version}_{description}.up.sql/.down.sql files
//
// Versions recorded in the ledger but missing from the declared list are
// treated as applied and are never re-run or reported as pending.
//
// Example usage:
//
//	manager := migration.NewManager(db)
//	applied, err := manager.Run(ctx, migrations)
//	if err != nil {
//		log.Fatalf("Migration failed: %v", err)
//	}
package migration
