package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/daemon"
)

func init() { //nolint: gochecknoinits
	automationsCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	rootCmd.AddCommand(automationsCmd)
}

var automationsCmd = &cobra.Command{
	Use:   "automations",
	Short: "Run one automation tick out of band and print the report",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := daemon.RunAutomations(context.Background(), &cfg)
		if err != nil {
			return err
		}

		for kind, counts := range report.Kinds {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: sent=%d skipped=%d failed=%d\n",
				kind, counts.Sent, counts.Skipped, counts.Failed)
		}

		return nil
	},
}
