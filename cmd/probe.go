package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/outreachkit/prospector/internal/logging"
	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/quota"
	"github.com/outreachkit/prospector/internal/verify"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <address>",
		Short: "Check deliverability of a single email address",
		Long: `Runs DNS MX/A resolution and, when enabled in configuration, an SMTP
RCPT handshake against a single address, then prints the verification result
as JSON. No message is ever sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			metrics.Init()

			var prober verify.Prober
			if cfg.Verify.ProbeEnabled {
				prober = verify.NewSMTPProber(
					cfg.Verify.Timeout,
					cfg.Verify.Port,
					cfg.Verify.HELODomain,
					cfg.Verify.MailFrom,
				)
			}
			verifier := verify.New(verify.SystemResolver(), prober, quota.New(int64(cfg.Quota.MaxOutbound)), logger, verify.Config{
				ProbeEnabled: cfg.Verify.ProbeEnabled,
				Timeout:      cfg.Verify.Timeout,
				Port:         cfg.Verify.Port,
				HELODomain:   cfg.Verify.HELODomain,
				MailFrom:     cfg.Verify.MailFrom,
			})

			result := verifier.Verify(cmd.Context(), args[0])
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
