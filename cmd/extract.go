package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/outreachkit/prospector/internal/extract"
	"github.com/outreachkit/prospector/internal/pipeline"
)

func newExtractCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract email candidates from text without any network access",
		Long: `Extracts normalized email candidates from text passed as an argument,
read from --file, or piped on stdin, applying the configured deny lists and
obfuscation handling. Prints the candidates as JSON. Useful for tuning the
deny lists against real bios offline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			text, err := readExtractInput(args, filePath)
			if err != nil {
				return err
			}

			extractor := extract.New(extract.Config{
				DenyDomains:    cfg.Extract.DenyDomains,
				DenyLocalParts: cfg.Extract.DenyLocalParts,
				Deobfuscate:    cfg.Extract.Deobfuscate,
			})
			candidates := extractor.Extract(text, pipeline.SourceBioText, "", 0)
			if candidates == nil {
				candidates = []pipeline.RawCandidate{}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(candidates)
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "read text from file instead of argument or stdin")
	return cmd
}

func readExtractInput(args []string, filePath string) (string, error) {
	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}
