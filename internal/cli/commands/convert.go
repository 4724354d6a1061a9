package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/converter"
	"github.com/ccollicutt/walog/pkg/logging"
	"github.com/ccollicutt/walog/pkg/metrics"
	"github.com/ccollicutt/walog/pkg/output"
	"github.com/ccollicutt/walog/pkg/parser"
	"github.com/ccollicutt/walog/pkg/sink"
	"github.com/ccollicutt/walog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ConvertOptions holds command-line options for the convert command.
type ConvertOptions struct {
	ConfigFile       string
	Format           string
	DSN              string
	Table            string
	Orphans          string
	MaxLines         int
	ProgressInterval int
	Report           string
	Verbose          bool
	Quiet            bool
	MetricsFile      string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <log-file> [output-file]",
		Short: "Convert a Web Adaptor log into a table",
		Long: `Convert a Web Adaptor log into one row per record.

A line starting with a YYYY-MM-DD date followed by 'T' begins a record; any
other line continues the previous record's message. Each record is split into
date, time, zone, type, module and message, and the message is searched for
the front-end status code, back-end status code and target URL.

The output defaults to the log file's sibling with the extension replaced
(.csv, .jsonl or .db). Postgres output goes to the configured table.

Exit codes:
  0 - Conversion finished
  2 - Configuration or runtime error

Example:
  walog convert webadaptor.log
  walog convert webadaptor.log /tmp/out.csv
  walog convert -f sqlite --table requests webadaptor.log
  walog convert -c walog.yaml --report json webadaptor.log`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML or TOML)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (csv|jsonl|sqlite|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Postgres connection string")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table name for sqlite and postgres output")
	cmd.Flags().StringVar(&opts.Orphans, "orphans", "", "Lines before the first record (placeholder|skip)")
	cmd.Flags().IntVar(&opts.MaxLines, "max-lines", 0, "Stop after this many lines (0 reads everything)")
	cmd.Flags().IntVar(&opts.ProgressInterval, "progress-interval", 0, "Lines between progress messages")
	cmd.Flags().StringVar(&opts.Report, "report", "text", "Report format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include extraction counts and timing in the report")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no progress")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write run counters in Prometheus text format")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "always", "When to fire webhook (always|on_degraded|never)")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, opts *ConvertOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	// Keep stdout parseable when the report is JSON.
	notices := out
	if opts.Report == "json" {
		notices = cmd.ErrOrStderr()
	}

	cfg, err := loadConvertConfig(ctx, cmd, opts)
	if err != nil {
		return err
	}

	if _, err := os.Stat(logFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("log file not found: %s", logFile)
		}
		return fmt.Errorf("accessing log file: %w", err)
	}

	outputPath, err := resolveOutputPath(cfg, logFile, args)
	if err != nil {
		return err
	}
	target := outputPath
	if cfg.Output.Format == config.FormatPostgres {
		target = "table " + cfg.Database.Table
	}

	logger := newLogger(cfg, opts.Quiet, notices)
	m := metrics.New()

	formatter, err := output.NewFormatter(opts.Report, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	orphans, err := parser.ParseOrphanPolicy(cfg.Processing.OrphanLines)
	if err != nil {
		return err
	}

	src := parser.NewFileSource(logFile)
	defer src.Close()

	w, err := sink.Open(ctx, sink.OptionsFromConfig(cfg, outputPath))
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}

	logger.Info().
		Str(logging.FieldInputFile, logFile).
		Str(logging.FieldOutputFile, target).
		Str(logging.FieldFormat, w.Format()).
		Msg("converting")

	c := converter.New(
		converter.WithOrphanPolicy(orphans),
		converter.WithProgressInterval(cfg.Processing.ProgressInterval),
		converter.WithMaxLines(cfg.Processing.MaxLines),
		converter.WithLogger(logger),
		converter.WithMetrics(m),
	)

	result, err := c.Convert(ctx, src, w)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("converting %s: %w", logFile, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing output %s: %w", target, err)
	}
	if result.Source == "" {
		result.Source = logFile
	}

	fmt.Fprintf(notices, "File output: %s\n", target)

	report := output.NewReport(result, opts.ConfigFile, target, cfg.Output.Format)
	if err := formatter.Format(ctx, report, out); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if textfile := cfg.Metrics.Textfile; textfile != "" {
		if err := m.WriteTextfile(textfile); err != nil {
			logger.Warn().Err(err).Str("path", textfile).Msg("metrics textfile not written")
		}
	}

	// Send webhooks (errors logged but don't fail the conversion)
	if len(cfg.Webhooks) > 0 {
		webhook.NewClient().Dispatch(ctx, cfg.Webhooks, report, logger)
	}

	ExitCode = 0
	return nil
}

// loadConvertConfig loads the config file (or defaults) and applies flags
// the user set explicitly.
func loadConvertConfig(ctx context.Context, cmd *cobra.Command, opts *ConvertOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = opts.Format
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = opts.DSN
	}
	if flags.Changed("table") {
		cfg.Database.Table = opts.Table
	}
	if flags.Changed("orphans") {
		cfg.Processing.OrphanLines = opts.Orphans
	}
	if flags.Changed("max-lines") {
		cfg.Processing.MaxLines = opts.MaxLines
	}
	if flags.Changed("progress-interval") {
		cfg.Processing.ProgressInterval = opts.ProgressInterval
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = opts.MetricsFile
	}
	if Globals.LogLevel != "" {
		cfg.Logging.Level = Globals.LogLevel
	}
	if Globals.LogFormat != "" {
		cfg.Logging.Format = Globals.LogFormat
	}
	cfg.Webhooks = collectWebhooks(cfg, opts)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// resolveOutputPath picks the output file: the positional argument, then the
// configured path, then the log file's sibling. Postgres writes no file.
func resolveOutputPath(cfg *config.Config, logFile string, args []string) (string, error) {
	if cfg.Output.Format == config.FormatPostgres {
		return "", nil
	}

	path := cfg.Output.Path
	if len(args) > 1 {
		path = args[1]
	}
	if path == "" {
		return sink.DefaultOutputPath(logFile, cfg.Output.Format)
	}

	if sameFile(path, logFile) {
		return "", fmt.Errorf("output path %s would overwrite the input", path)
	}
	return path, nil
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ia, ib)
}

// newLogger builds the progress logger. Quiet runs only log warnings.
func newLogger(cfg *config.Config, quiet bool, w io.Writer) *log.Logger {
	level := cfg.Logging.Level
	if quiet {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Writer: w,
	})
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ConvertOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerAlways
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.Duration(config.DefaultWebhookTimeout),
		})
	}

	return webhooks
}
