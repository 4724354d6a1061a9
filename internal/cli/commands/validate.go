package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/sink"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a walog configuration file without converting anything.

Checks:
  - YAML or TOML syntax
  - Output format, delimiter and table name
  - Orphan line policy and processing limits
  - Logging level and format
  - Webhook URLs and triggers`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Output format:  %s\n", cfg.Output.Format)
	switch cfg.Output.Format {
	case config.FormatCSV:
		fmt.Fprintf(w, "  Delimiter:      %q (CRLF: %t)\n", cfg.Output.Delimiter, cfg.Output.CRLF)
	case config.FormatSQLite, config.FormatPostgres:
		fmt.Fprintf(w, "  Table:          %s\n", cfg.Database.Table)
	}
	if cfg.Output.Path != "" {
		fmt.Fprintf(w, "  Output path:    %s\n", cfg.Output.Path)
	} else if ext := sink.Extension(cfg.Output.Format); ext != "" {
		fmt.Fprintf(w, "  Output path:    <log file>%s\n", ext)
	}
	fmt.Fprintf(w, "  Orphan lines:   %s\n", cfg.Processing.OrphanLines)
	fmt.Fprintf(w, "  Progress every: %d lines\n", cfg.Processing.ProgressInterval)
	if cfg.Processing.MaxLines > 0 {
		fmt.Fprintf(w, "  Max lines:      %d\n", cfg.Processing.MaxLines)
	}
	if cfg.Metrics.Textfile != "" {
		fmt.Fprintf(w, "  Metrics file:   %s\n", cfg.Metrics.Textfile)
	}

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Fprintf(w, "  %d. %s (trigger: %s, timeout: %s)\n", i+1, name, wh.Trigger, wh.Timeout.Std())
		}
	}

	return nil
}
