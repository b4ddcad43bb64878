// Package cmd wires the dropskill CLI: serve, migrate, seed, version.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dropskill",
	Short: "DropSkill - dropshipping storefront platform with a built-in AI advisor",
	Long: `DropSkill is the backend for a multi-tenant dropshipping platform.
Sellers register, build storefronts from a shared supplier catalog, and get
keyword-driven product recommendations, chat guidance, and store insights.

Run 'dropskill serve' to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
