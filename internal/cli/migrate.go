package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/atlekbai/metaquery/internal/db"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply metadata repository migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := rootOpts.Config.Metadata.DatabaseURL
			if url == "" {
				return errors.New("metadata.database_url is not set")
			}
			pool, err := db.NewPool(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			slog.Info("metadata repository is up to date")
			return nil
		},
	}
}
