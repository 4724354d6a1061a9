// Package output renders conversion reports.
package output

import (
	"sort"
	"time"

	"github.com/ccollicutt/walog/pkg/converter"
)

// Report is the complete conversion summary.
type Report struct {
	// Summary provides aggregate counts.
	Summary Summary

	// Breakdown groups records by type, status and extracted field.
	Breakdown Breakdown

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate counts.
type Summary struct {
	// Records is the number of rows written.
	Records int

	// LinesProcessed is the number of physical lines read.
	LinesProcessed int

	// ContinuationLines were folded into the message of a previous record.
	ContinuationLines int

	// OrphanLines appeared before the first record.
	OrphanLines int

	// SkippedLines were orphans dropped by the skip policy.
	SkippedLines int

	// DegradedRecords did not match the full Web Adaptor layout.
	DegradedRecords int

	// Truncated is set when the line limit stopped the run early.
	Truncated bool
}

// Breakdown lists per-value counts, most frequent first.
type Breakdown struct {
	ByType        []Count
	ByFrontStatus []Count
	Extracted     []Count
}

// Count is one value and how many records carried it.
type Count struct {
	Name  string
	Count int
}

// Metadata provides context about the conversion run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string

	// Source is the converted log file.
	Source string

	// Output is the file path or table the rows went to.
	Output string

	// Format is the output format (csv, jsonl, sqlite, postgres).
	Format string

	// ConvertedAt is when the conversion finished.
	ConvertedAt time.Time

	// Duration is how long the conversion took.
	Duration time.Duration
}

// NewReport creates a Report from a conversion result.
func NewReport(result *converter.Result, configFile, output, format string) *Report {
	return &Report{
		Summary: Summary{
			Records:           result.Records,
			LinesProcessed:    result.Lines.Lines,
			ContinuationLines: result.Lines.Continuations,
			OrphanLines:       result.Lines.Orphans,
			SkippedLines:      result.Lines.SkippedLines,
			DegradedRecords:   result.Degraded,
			Truncated:         result.Truncated,
		},
		Breakdown: Breakdown{
			ByType:        sortedCounts(result.ByType),
			ByFrontStatus: sortedCounts(result.ByFrontStatus),
			Extracted:     sortedCounts(result.Extracted),
		},
		Metadata: Metadata{
			ConfigFile:  configFile,
			Source:      result.Source,
			Output:      output,
			Format:      format,
			ConvertedAt: result.EndTime,
			Duration:    result.Duration(),
		},
	}
}

// HasDegraded returns true if any record fell back to a partial layout.
func (r *Report) HasDegraded() bool {
	return r.Summary.DegradedRecords > 0
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		counts = append(counts, Count{Name: name, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}
