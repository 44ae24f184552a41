package main

import (
	"github.com/aussiebroadwan/passguard/internal/auth/app"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}

	cmd.Flags().String("database-file", app.DefaultConfig().DatabaseFile, "SQLite database file")
	return cmd
}
