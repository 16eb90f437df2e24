package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mark1russell7/docker-sqlite/internal/persistence"
	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
)

func newQueryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query SQL [ARG...]",
		Short: "Run a read query and print its rows",
		Long: `Run one parameterized read query. Remaining arguments are bound to the
positional ? placeholders as text. The database image is never written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runQuery,
	}
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown output format %q", format)
	}

	return a.readOnly(cmd.Context(), func(ctx context.Context, db *sqlite.DB) error {
		result, err := db.Query(ctx, args[0], bindArgs(args[1:])...)
		if err != nil {
			a.logger.Debug("query failed", "error_kind", sqlite.ErrorKind(err), "error", err)
			return err
		}

		if format == "json" {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		return writeTable(cmd.OutOrStdout(), result)
	})
}

func newExecCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec SQL [ARG...]",
		Short: "Run a mutating statement and save the database",
		Long: `Run one parameterized statement, or with --script a raw multi-statement
script, and save the database image when it succeeds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runExec,
	}
	cmd.Flags().Bool("script", false, "run SQL as a multi-statement script without parameters")
	return cmd
}

func (a *app) runExec(cmd *cobra.Command, args []string) error {
	script, _ := cmd.Flags().GetBool("script")
	if script && len(args) > 1 {
		return fmt.Errorf("scripts take no parameters, got %d", len(args)-1)
	}

	return sqlite.WithConnection(cmd.Context(), a.cfg.SQLite(), func(ctx context.Context, db *sqlite.DB) error {
		if script {
			if err := db.ExecScript(ctx, args[0]); err != nil {
				a.logger.Debug("script failed", "error_kind", sqlite.ErrorKind(err), "error", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Script executed.")
			return nil
		}

		affected, err := db.Exec(ctx, args[0], bindArgs(args[1:])...)
		if err != nil {
			a.logger.Debug("statement failed", "error_kind", sqlite.ErrorKind(err), "error", err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", affected)
		return nil
	})
}

func bindArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func writeTable(w io.Writer, result *persistence.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, column := range result.Columns {
			cells[i] = formatValue(row[column])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", result.Len())
	return err
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("x'%x'", value)
	default:
		return fmt.Sprint(value)
	}
}

func writeJSON(w io.Writer, result *persistence.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Rows)
}
