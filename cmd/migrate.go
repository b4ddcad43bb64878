package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropskill/dropskill/db"
	"github.com/dropskill/dropskill/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}
		return db.Migrate(cfg.PostgresURL(), newLogger(cfg))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
