package output

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

type jsonSummary struct {
	Records           int  `json:"records"`
	LinesProcessed    int  `json:"lines_processed"`
	ContinuationLines int  `json:"continuation_lines"`
	OrphanLines       int  `json:"orphan_lines"`
	SkippedLines      int  `json:"skipped_lines"`
	DegradedRecords   int  `json:"degraded_records"`
	Truncated         bool `json:"truncated"`
}

type jsonMetadata struct {
	ConfigFile  string    `json:"config_file,omitempty"`
	Source      string    `json:"source"`
	Output      string    `json:"output"`
	Format      string    `json:"format"`
	ConvertedAt time.Time `json:"converted_at"`
	DurationMS  int64     `json:"duration_ms"`
}

type jsonReport struct {
	Summary       jsonSummary    `json:"summary"`
	ByType        map[string]int `json:"by_type"`
	ByFrontStatus map[string]int `json:"by_front_status"`
	Extracted     map[string]int `json:"extracted,omitempty"`
	Metadata      jsonMetadata   `json:"metadata"`
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	summary := jsonSummary(report.Summary)
	if f.opts.Quiet {
		return encoder.Encode(summary)
	}

	doc := jsonReport{
		Summary:       summary,
		ByType:        countMap(report.Breakdown.ByType),
		ByFrontStatus: countMap(report.Breakdown.ByFrontStatus),
		Metadata: jsonMetadata{
			ConfigFile:  report.Metadata.ConfigFile,
			Source:      report.Metadata.Source,
			Output:      report.Metadata.Output,
			Format:      report.Metadata.Format,
			ConvertedAt: report.Metadata.ConvertedAt,
			DurationMS:  report.Metadata.Duration.Milliseconds(),
		},
	}
	if f.opts.Verbose {
		doc.Extracted = countMap(report.Breakdown.Extracted)
	}

	return encoder.Encode(doc)
}

func countMap(counts []Count) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.Name] = c.Count
	}
	return m
}
