// Package cli implements staffctl, the operator command line for the
// staffing backend.
package cli

import (
	"database/sql"
	"fmt"

	"event_staffing_backend/internal/config"
	"event_staffing_backend/internal/database"

	"github.com/spf13/cobra"
)

// RootOptions holds state shared by all commands.
type RootOptions struct {
	EnvFiles []string
	Config   *config.Config
}

// NewRootCommand creates the root command for staffctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "staffctl",
		Short: "Operate the event staffing backend",
		Long:  "Administrative tasks for the event staffing backend: schema setup, accounts, kiosk codes and time entry exports.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFiles...)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			opts.Config = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "env files to try before the process environment (default .env)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewSetKioskCodeCommand(opts))
	cmd.AddCommand(NewExportEntriesCommand(opts))

	return cmd
}

// openDB connects with the loaded configuration and applies the schema.
func (o *RootOptions) openDB() (*sql.DB, error) {
	db, err := database.InitDB(o.Config)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", o.Config.DBDriver, err)
	}
	return db, nil
}
