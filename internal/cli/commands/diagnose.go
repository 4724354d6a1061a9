package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/detector"
	"github.com/ccollicutt/walog/pkg/sink"
)

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// diagnoseSampleSize is the number of log lines checked against the layout.
const diagnoseSampleSize = 50

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Check a log file and configuration before converting",
		Long: `Check everything a conversion depends on without writing any rows.

This command reports on:
- Config file syntax and values (when --config is given)
- Log file existence and readability
- How well the log matches the Web Adaptor record layout
- Output location (file directory, or database connectivity)
- Metrics textfile location
- Webhook settings (and reachability with -v)

Example:
  walog diagnose webadaptor.log
  walog diagnose -c walog.yaml -v webadaptor.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, args[0], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file to check")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, logFile string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	cfg := config.DefaultConfig()
	if opts.ConfigFile != "" {
		result := checkConfigExists(opts.ConfigFile)
		results = append(results, result)
		if result.Status == StatusError {
			return results
		}

		var parsed *config.Config
		parsed, result = checkConfigParseable(ctx, opts.ConfigFile)
		results = append(results, result)
		if result.Status == StatusError {
			return results
		}
		cfg = parsed
	}

	result := checkLogFile(logFile)
	results = append(results, result)
	if result.Status != StatusError {
		results = append(results, checkLayout(ctx, logFile, opts))
	}

	results = append(results, checkOutput(ctx, cfg, logFile))

	if cfg.Metrics.Textfile != "" {
		results = append(results, checkWritableDir("Metrics Textfile", cfg.Metrics.Textfile))
	}

	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'walog detect --write-config walog.yaml <log-file>' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = StatusError
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'walog detect --write-config walog.yaml <log-file>' to generate a starter config",
		}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "toml"):
			result.Suggests = []string{
				"Check TOML syntax - strings must be quoted and tables written as [section]",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Output format: %s", cfg.Output.Format),
		fmt.Sprintf("Orphan lines: %s", cfg.Processing.OrphanLines),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Log File: %s", path),
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = "File does not exist"
		result.Suggests = []string{"Check if the log file path is correct"}
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		result.Suggests = []string{"walog converts one file at a time"}
	case info.Size() == 0:
		result.Status = StatusWarning
		result.Message = "File is empty (0 bytes); the output will have no rows"
	default:
		f, err := os.Open(path) // #nosec G304 -- user-provided log path
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Cannot read file: %v", err)
			result.Suggests = []string{"Check file permissions"}
			return result
		}
		_ = f.Close()
		result.Status = StatusOK
		result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
	}
	return result
}

func checkLayout(ctx context.Context, logFile string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Record Layout: %s", filepath.Base(logFile)),
	}

	d := detector.New(detector.WithSampleSize(diagnoseSampleSize))
	det, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot sample file: %v", err)
		return result
	}

	switch det.Verdict() {
	case detector.VerdictNone:
		result.Status = StatusError
		result.Message = fmt.Sprintf("No record boundary in the first %d lines", det.SampledLines)
		result.Suggests = []string{
			"Records must start with a YYYY-MM-DD date followed by 'T'",
			"Every line would be folded into a single placeholder record",
		}
	case detector.VerdictPartial:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Only %d/%d records match the full layout",
			det.Strict(), det.BoundaryLines)
		result.Suggests = []string{
			"Records without [type] or (module) markers keep empty type/module columns",
			"Use 'walog detect --all " + logFile + "' to see every layout",
		}
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d/%d records match the full layout",
			det.Strict(), det.BoundaryLines)
	}

	if best := det.BestMatch(); best != nil && (opts.Verbose || result.Status != StatusOK) {
		result.Details = append(result.Details, "Sample record:", truncate(best.SampleLine, 80))
	}
	if det.LeadingOrphans > 0 {
		result.Details = append(result.Details,
			fmt.Sprintf("%d line(s) precede the first record", det.LeadingOrphans))
	}
	return result
}

func checkOutput(ctx context.Context, cfg *config.Config, logFile string) DiagnosticResult {
	switch cfg.Output.Format {
	case config.FormatPostgres:
		result := DiagnosticResult{Check: "Output: postgres"}
		db, err := sink.Connect(ctx, sink.DriverPostgres, cfg.Database.DSN)
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Cannot connect: %v", err)
			result.Suggests = []string{
				"Check database.dsn or " + config.EnvDatabaseDSN,
				"Verify the server is reachable from this host",
			}
			return result
		}
		_ = db.Close()
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Connected; rows go to table %s", cfg.Database.Table)
		return result

	default:
		path := cfg.Output.Path
		if path == "" {
			var err error
			path, err = sink.DefaultOutputPath(logFile, cfg.Output.Format)
			if err != nil {
				return DiagnosticResult{
					Check:    "Output",
					Status:   StatusError,
					Message:  err.Error(),
					Suggests: []string{"Pass an explicit output file to 'walog convert'"},
				}
			}
		}

		result := checkWritableDir(fmt.Sprintf("Output: %s", cfg.Output.Format), path)
		if result.Status == StatusOK {
			if _, err := os.Stat(path); err == nil {
				result.Status = StatusWarning
				result.Message = fmt.Sprintf("%s exists and will be replaced", path)
			}
		}
		return result
	}
}

// checkWritableDir verifies a file can be created next to path.
func checkWritableDir(check, path string) DiagnosticResult {
	result := DiagnosticResult{Check: check}

	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".walog-diagnose-*")
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot write to %s: %v", dir, err)
		result.Suggests = []string{"Check the directory exists and is writable"}
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Writable: %s", path)
	return result
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:  fmt.Sprintf("Webhook: %s", name),
			Status: StatusOK,
		}

		// Check if token looks like an unexpanded env var
		if strings.HasPrefix(wh.Token, "$") {
			result.Status = StatusWarning
			result.Message = "Token appears to be an unresolved env var"
			result.Details = []string{wh.Token}
		} else {
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout.Std()),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}
		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(ctx, wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Just do a HEAD request to check if the endpoint is reachable
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}
	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (reports are POSTed)",
			"Check authentication if using a token",
		}
	}

	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== walog Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}
		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before converting.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConversion will run but check the warnings.")
	} else {
		fmt.Fprintln(w, "\nReady to convert!")
	}
}
