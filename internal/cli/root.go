// Package cli implements the metaquery command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/atlekbai/metaquery/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Demo       bool // serve the bundled steel-wheels domain from in-memory SQLite

	Config *config.Config
}

// NewRootCommand creates the root command for the metaquery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "metaquery",
		Short: "Query physical data through business models",
		Long: `metaquery answers declarative queries over business models: categories
of columns mapped onto tables in Postgres, SQLite or DuckDB.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.Config = cfg
			slog.SetDefault(cfg.Log.Logger(cmd.ErrOrStderr()))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./metaquery.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.Demo, "demo", false, "load the steel-wheels sample domain into in-memory SQLite")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewModelsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
