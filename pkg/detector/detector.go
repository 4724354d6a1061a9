// Package detector samples a log file and reports how well it matches the
// Web Adaptor record layout.
package detector

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ccollicutt/walog/pkg/parser"
)

// DefaultSampleSize is the number of lines read when no size is given.
const DefaultSampleSize = 100

// DefaultTopN is the number of types and modules reported.
const DefaultTopN = 5

// Verdicts returned by DetectionResult.Verdict.
const (
	VerdictWebAdaptor = "webadaptor"
	VerdictPartial    = "partial"
	VerdictNone       = "none"
)

// strictThreshold is the share of boundary lines that must match the full
// layout for a webadaptor verdict.
const strictThreshold = 0.9

// DetectionResult holds the result of sampling a log file.
type DetectionResult struct {
	SampledLines      int           // Number of lines sampled
	BoundaryLines     int           // Lines that start a record
	ContinuationLines int           // Lines folded into a previous record
	LeadingOrphans    int           // Continuation lines before the first record
	Layouts           []LayoutMatch // Layouts that matched, most boundary lines first
	TopTypes          []ValueCount  // Most frequent [type] values
	TopModules        []ValueCount  // Most frequent (module) values
}

// LayoutMatch counts boundary lines sliced by one layout.
type LayoutMatch struct {
	Name       string
	Confidence float64 // Share of boundary lines (0.0 to 1.0)
	MatchCount int
	SampleLine string
}

// ValueCount is a field value and its frequency in the sample.
type ValueCount struct {
	Value string
	Count int
}

// Detector samples log files and classifies their lines.
type Detector struct {
	sampleSize int
	topN       int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithTopN sets how many types and modules are reported (default 5).
func WithTopN(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.topN = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize: DefaultSampleSize,
		topN:       DefaultTopN,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples the head of a log file.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	src := parser.NewFileSource(path)
	defer src.Close()

	lines, err := d.sample(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("sampling %s: %w", path, err)
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines classifies the given lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{SampledLines: len(lines)}

	byLayout := make(map[string]*LayoutMatch)
	types := make(map[string]int)
	modules := make(map[string]int)

	for _, line := range lines {
		if !parser.IsBoundary(line) {
			result.ContinuationLines++
			if result.BoundaryLines == 0 {
				result.LeadingOrphans++
			}
			continue
		}
		result.BoundaryLines++

		rec := parser.ParseLine(0, line)
		m, ok := byLayout[rec.Layout]
		if !ok {
			m = &LayoutMatch{Name: rec.Layout, SampleLine: line}
			byLayout[rec.Layout] = m
		}
		m.MatchCount++

		if rec.Type != "" {
			types[rec.Type]++
		}
		if rec.Module != "" {
			modules[rec.Module]++
		}
	}

	for _, m := range byLayout {
		m.Confidence = float64(m.MatchCount) / float64(result.BoundaryLines)
		result.Layouts = append(result.Layouts, *m)
	}
	sort.Slice(result.Layouts, func(i, j int) bool {
		if result.Layouts[i].MatchCount != result.Layouts[j].MatchCount {
			return result.Layouts[i].MatchCount > result.Layouts[j].MatchCount
		}
		return layoutRank(result.Layouts[i].Name) < layoutRank(result.Layouts[j].Name)
	})

	result.TopTypes = topValues(types, d.topN)
	result.TopModules = topValues(modules, d.topN)

	return result
}

// sample reads up to sampleSize lines. Blank lines are kept; they are
// continuation lines like any other.
func (d *Detector) sample(ctx context.Context, src parser.LineSource) ([]string, error) {
	var lines []string
	for len(lines) < d.sampleSize {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line.Content)
	}
	return lines, nil
}

// BestMatch returns the layout that sliced the most boundary lines, or nil.
func (r *DetectionResult) BestMatch() *LayoutMatch {
	if len(r.Layouts) == 0 {
		return nil
	}
	return &r.Layouts[0]
}

// HasMatch returns true if at least one line starts a record.
func (r *DetectionResult) HasMatch() bool {
	return r.BoundaryLines > 0
}

// Strict returns the number of boundary lines matching the full layout.
func (r *DetectionResult) Strict() int {
	for _, m := range r.Layouts {
		if m.Name == parser.LayoutWebAdaptor {
			return m.MatchCount
		}
	}
	return 0
}

// Verdict summarises the sample: webadaptor when nearly every record matches
// the full layout, partial when records exist but many are degraded, none
// when no line starts a record.
func (r *DetectionResult) Verdict() string {
	switch {
	case !r.HasMatch():
		return VerdictNone
	case float64(r.Strict())/float64(r.BoundaryLines) >= strictThreshold:
		return VerdictWebAdaptor
	default:
		return VerdictPartial
	}
}

func layoutRank(name string) int {
	for i, l := range parser.Layouts() {
		if l.Name == name {
			return i
		}
	}
	return len(parser.Layouts())
}

func topValues(m map[string]int, n int) []ValueCount {
	values := make([]ValueCount, 0, len(m))
	for v, c := range m {
		values = append(values, ValueCount{Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})
	if len(values) > n {
		values = values[:n]
	}
	return values
}
