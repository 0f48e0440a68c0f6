// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sparkcoach",
	Short: "sparkcoach is the backend for the Spark Your Potential coaching platform",
	Long: `sparkcoach is the backend for the Spark Your Potential coaching platform.
It serves the client and admin REST API and runs the automation scheduler
that emails inactive clients.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
