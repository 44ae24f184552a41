package main

import (
	"fmt"

	"github.com/aussiebroadwan/passguard/internal/auth/app"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP identity service",
		Long: `Run the HTTP identity service until SIGINT or SIGTERM, then drain
in-flight requests within the configured grace period.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			return application.Run()
		},
	}

	app.RegisterFlags(cmd.Flags())
	return cmd
}
