package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/walog/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	TopN        int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Check whether a file looks like a Web Adaptor log",
		Long: `Sample the head of a log file and report how well it matches the Web
Adaptor record layout.

Counts lines that start a record and lines that continue one, shows which
layout sliced each record (full, without module, or degraded) and lists the
most frequent types and modules.

Optionally generates a starter config file with --write-config (YAML, or
TOML when the name ends in .toml).

Exit codes:
  0 - At least one record boundary found
  1 - No line starts a record
  2 - Runtime error

Example:
  walog detect webadaptor.log
  walog detect --sample 500 webadaptor.log
  walog detect -w walog.yaml webadaptor.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().IntVar(&opts.TopN, "top", detector.DefaultTopN, "Number of types and modules to list")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every layout, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize), detector.WithTopN(opts.TopN))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := detector.WriteStarterConfig(opts.WriteConfig, logFile, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote starter config to: %s\n", opts.WriteConfig)
	}

	if opts.Output == "json" {
		err = outputDetectJSON(out, result, logFile, opts)
	} else {
		err = outputDetectText(out, result, logFile, opts)
	}
	if err != nil {
		return err
	}

	ExitCode = 0
	if !result.HasMatch() {
		ExitCode = 1
	}
	return nil
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Web Adaptor Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Record lines: %d\n", result.BoundaryLines)
	fmt.Fprintf(w, "Continuation lines: %d\n", result.ContinuationLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No record boundary detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: records start with a YYYY-MM-DD date followed by 'T', e.g.")
		fmt.Fprintln(w, "  2024-07-22T13:45:12.3456789-04:00 [INFO] (Module) message")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Verdict: %s\n", result.Verdict())
	fmt.Fprintf(w, "Best layout: %s (%.1f%% of records)\n", best.Name, best.Confidence*100)
	fmt.Fprintf(w, "Sample record:\n  %s\n", truncate(best.SampleLine, 120))
	fmt.Fprintln(w)

	if result.LeadingOrphans > 0 {
		fmt.Fprintf(w, "WARNING: %d line(s) precede the first record.\n", result.LeadingOrphans)
		fmt.Fprintln(w, "They become a placeholder record unless --orphans skip is used.")
		fmt.Fprintln(w)
	}

	if opts.ShowAll && len(result.Layouts) > 1 {
		fmt.Fprintln(w, "--- Layouts ---")
		for _, m := range result.Layouts {
			fmt.Fprintf(w, "  %-10s %5d  (%.1f%%)\n", m.Name, m.MatchCount, m.Confidence*100)
		}
		fmt.Fprintln(w)
	}

	printValueCounts(w, "Top types", result.TopTypes)
	printValueCounts(w, "Top modules", result.TopModules)

	return nil
}

func printValueCounts(w io.Writer, title string, counts []detector.ValueCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(w, "  %5d  %s\n", c.Count, c.Value)
	}
	fmt.Fprintln(w)
}

// JSONLayout represents a layout match in JSON output.
type JSONLayout struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
}

// JSONCount is a value and its frequency in JSON output.
type JSONCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File              string       `json:"file"`
	Verdict           string       `json:"verdict"`
	SampledLines      int          `json:"sampled_lines"`
	BoundaryLines     int          `json:"boundary_lines"`
	ContinuationLines int          `json:"continuation_lines"`
	LeadingOrphans    int          `json:"leading_orphans"`
	Layouts           []JSONLayout `json:"layouts"`
	TopTypes          []JSONCount  `json:"top_types"`
	TopModules        []JSONCount  `json:"top_modules"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	doc := JSONOutput{
		File:              logFile,
		Verdict:           result.Verdict(),
		SampledLines:      result.SampledLines,
		BoundaryLines:     result.BoundaryLines,
		ContinuationLines: result.ContinuationLines,
		LeadingOrphans:    result.LeadingOrphans,
		Layouts:           make([]JSONLayout, 0),
		TopTypes:          toJSONCounts(result.TopTypes),
		TopModules:        toJSONCounts(result.TopModules),
	}

	layouts := result.Layouts
	if !opts.ShowAll && len(layouts) > 1 {
		layouts = layouts[:1] // Only show best match
	}
	for _, m := range layouts {
		doc.Layouts = append(doc.Layouts, JSONLayout{
			Name:       m.Name,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func toJSONCounts(counts []detector.ValueCount) []JSONCount {
	out := make([]JSONCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, JSONCount{Value: c.Value, Count: c.Count})
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
