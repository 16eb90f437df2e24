package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark1russell7/docker-sqlite/internal/persistence/sqlite"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tool and engine versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := sqlite.Engine()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "docker-sqlite %s (sqlite %s)\n", Version, info.Version)
			return nil
		},
	}
}
