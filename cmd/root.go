// Package cmd defines the CLI commands for the prospector executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/outreachkit/prospector/internal/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prospector",
		Short: "Contact email discovery pipeline",
		Long: `prospector turns noisy per-user text and link inputs into one ranked,
deliverability-checked email per person. It extracts candidate addresses from
bio text and crawled pages, merges and scores them deterministically, and
verifies the best pick with DNS and an optional SMTP handshake probe.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (yaml)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
