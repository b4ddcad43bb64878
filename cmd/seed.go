package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropskill/dropskill/internal/config"
	"github.com/dropskill/dropskill/internal/seed"
	"github.com/dropskill/dropskill/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the admin account and product catalog",
	Long: `Seed inserts the initial admin user and the built-in product catalog.
It is idempotent: if any user already exists the command does nothing.

The admin credentials come from DROPSKILL_ADMIN_EMAIL and
DROPSKILL_ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSeed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("admin password is required: set DROPSKILL_ADMIN_PASSWORD")
	}

	logger := newLogger(cfg)

	store, err := storage.Connect(ctx, cfg.PostgresConnectionString(), logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	return seed.Run(ctx, store, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, logger)
}
