// Package cli implements the docker-sqlite command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mark1russell7/docker-sqlite/internal/config"
	"github.com/mark1russell7/docker-sqlite/internal/logging"
	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite/migration"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app holds state shared by the subcommands of one root command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "docker-sqlite",
		Version: Version,
		Short:   "Embedded SQLite databases persisted to a single image file",
		Long: `docker-sqlite opens a database image file, applies versioned migrations,
runs statements against it, and writes the image back after successful changes.
Use ":memory:" as the database path for a throwaway database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", config.DefaultPath, "path to configuration file")
	flags.String("db", "", "database image path, or :memory:")
	flags.String("migrations-dir", "", "path to migration files")
	flags.String("work-dir", "", "directory for private working copies")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, text)")

	root.AddCommand(
		newStatusCommand(a),
		newUpCommand(a),
		newRollbackCommand(a),
		newHistoryCommand(a),
		newQueryCommand(a),
		newExecCommand(a),
		newVersionCommand(),
	)

	return root
}

// Execute runs the command tree with args and returns the first error.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// load resolves configuration with precedence flag > env > file and
// attaches the process logger to the command context.
func (a *app) load(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := config.MergeEnv(cfg); err != nil {
		return err
	}
	mergeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.ContextWithLogger(ctx, logger))

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("migrations-dir") {
		cfg.MigrationsDir, _ = cmd.Flags().GetString("migrations-dir")
	}
	if cmd.Flags().Changed("work-dir") {
		cfg.WorkDir, _ = cmd.Flags().GetString("work-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
}

func (a *app) migrations() ([]migration.Migration, error) {
	migrations, err := migration.LoadDir(a.cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}
	return migrations, nil
}
