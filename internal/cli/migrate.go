package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite/migration"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long: `Display the current version with applied and pending migrations.
The database image is never written.`,
		Args: cobra.NoArgs,
		RunE: a.runStatus,
	}
}

func (a *app) runStatus(cmd *cobra.Command, _ []string) error {
	migrations, err := a.migrations()
	if err != nil {
		return err
	}

	return a.readOnly(cmd.Context(), func(ctx context.Context, db *sqlite.DB) error {
		status, err := migration.NewManager(db, migration.WithLogger(a.logger)).Status(ctx, migrations)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Current version: %d\n", status.CurrentVersion)
		fmt.Fprintf(out, "Applied: %d\n", len(status.AppliedMigrations))
		fmt.Fprintf(out, "Pending: %d\n", len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			fmt.Fprintf(out, "  %d  %s\n", m.Version, m.Description)
		}
		return nil
	})
}

func newUpCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long: `Apply every pending migration in ascending version order. Application
stops at the first failure; migrations applied before it are kept and saved.

Each migration runs in its own transaction, so a script containing its own
BEGIN/COMMIT fails with "cannot start a transaction within a transaction".
Apply such scripts with --no-transaction.`,
		Args: cobra.NoArgs,
		RunE: a.runUp,
	}
	cmd.Flags().Bool("no-transaction", false, "run each migration outside a transaction")
	return cmd
}

func (a *app) runUp(cmd *cobra.Command, _ []string) error {
	migrations, err := a.migrations()
	if err != nil {
		return err
	}

	noTx, _ := cmd.Flags().GetBool("no-transaction")
	ctx := cmd.Context()

	conn, err := sqlite.CreateConnection(ctx, a.cfg.SQLite())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			a.logger.Warn("failed to release database", "error", cerr)
		}
	}()

	manager := migration.NewManager(conn.DB,
		migration.WithLogger(a.logger),
		migration.WithTransactions(!noTx))

	applied, runErr := manager.Run(ctx, migrations)

	out := cmd.OutOrStdout()
	for _, m := range applied {
		fmt.Fprintf(out, "Applied %d  %s\n", m.Version, m.Description)
	}

	// Migrations applied before a failure stay applied, so they are saved too.
	if len(applied) > 0 {
		if err := conn.Persist(ctx); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date.")
	}
	return nil
}

func newRollbackCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Revert the most recently applied migration",
		Long: `Revert exactly one migration: the one with the highest applied version.
It must still be declared and must have a down script.`,
		Args: cobra.NoArgs,
		RunE: a.runRollback,
	}
}

func (a *app) runRollback(cmd *cobra.Command, _ []string) error {
	migrations, err := a.migrations()
	if err != nil {
		return err
	}

	return sqlite.WithConnection(cmd.Context(), a.cfg.SQLite(), func(ctx context.Context, db *sqlite.DB) error {
		reverted, err := migration.NewManager(db, migration.WithLogger(a.logger)).Rollback(ctx, migrations)
		if err != nil {
			return err
		}

		if reverted == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d  %s\n", reverted.Version, reverted.Description)
		return nil
	})
}

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List applied migrations",
		Args:  cobra.NoArgs,
		RunE:  a.runHistory,
	}
}

func (a *app) runHistory(cmd *cobra.Command, _ []string) error {
	return a.readOnly(cmd.Context(), func(ctx context.Context, db *sqlite.DB) error {
		entries, err := migration.NewManager(db, migration.WithLogger(a.logger)).History(ctx)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tDESCRIPTION\tAPPLIED AT")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.Version, e.Description, e.AppliedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}

// readOnly runs fn on a manual connection that is released without being
// persisted.
func (a *app) readOnly(ctx context.Context, fn sqlite.ConnectionFunc) error {
	conn, err := sqlite.CreateConnection(ctx, a.cfg.SQLite())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			a.logger.Warn("failed to release database", "error", cerr)
		}
	}()

	return fn(ctx, conn.DB)
}
