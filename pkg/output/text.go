package output

import (
	"context"
	"fmt"
	"io"
)

// untypedLabel stands in for records without a [type] marker.
const untypedLabel = "(none)"

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "walog: %d records from %d lines, %d degraded\n",
		report.Summary.Records,
		report.Summary.LinesProcessed,
		report.Summary.DegradedRecords)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	s := report.Summary
	m := report.Metadata

	fmt.Fprintln(w, "=== walog Conversion Report ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Input:  %s\n", m.Source)
	fmt.Fprintf(w, "Output: %s (%s)\n", m.Output, m.Format)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Records:            %d\n", s.Records)
	fmt.Fprintf(w, "Lines processed:    %d\n", s.LinesProcessed)
	fmt.Fprintf(w, "Continuation lines: %d\n", s.ContinuationLines)
	fmt.Fprintf(w, "Orphan lines:       %d", s.OrphanLines)
	if s.SkippedLines > 0 {
		fmt.Fprintf(w, " (%d skipped)", s.SkippedLines)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Degraded records:   %d\n", s.DegradedRecords)
	if s.Truncated {
		fmt.Fprintln(w, "Stopped early: line limit reached")
	}
	fmt.Fprintln(w)

	f.formatCounts(w, "Records by type", report.Breakdown.ByType)
	f.formatCounts(w, "Front-end status codes", report.Breakdown.ByFrontStatus)
	if f.opts.Verbose {
		f.formatCounts(w, "Extracted fields", report.Breakdown.Extracted)
	}

	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %d records from %d lines\n", s.Records, s.LinesProcessed)
	if err != nil {
		return err
	}

	if f.opts.Verbose {
		if m.ConfigFile != "" {
			fmt.Fprintf(w, "Config: %s\n", m.ConfigFile)
		}
		fmt.Fprintf(w, "Duration: %s\n", m.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatCounts(w io.Writer, title string, counts []Count) {
	if len(counts) == 0 {
		return
	}

	width := 0
	for _, c := range counts {
		if n := len(label(c.Name)); n > width {
			width = n
		}
	}

	fmt.Fprintf(w, "%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(w, "  %-*s  %d\n", width, label(c.Name), c.Count)
	}
	fmt.Fprintln(w)
}

func label(name string) string {
	if name == "" {
		return untypedLabel
	}
	return name
}
