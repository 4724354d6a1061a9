// Package converter drives a log through the reassembler and into a record
// writer.
package converter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/phuslu/log"

	"github.com/ccollicutt/walog/pkg/logging"
	"github.com/ccollicutt/walog/pkg/metrics"
	"github.com/ccollicutt/walog/pkg/parser"
	"github.com/ccollicutt/walog/pkg/sink"
)

// DefaultProgressInterval is the number of lines between progress messages.
const DefaultProgressInterval = 1000

// Converter turns log lines into records. A Converter is reusable but not
// safe for concurrent Convert calls.
type Converter struct {
	orphans          parser.OrphanPolicy
	progressInterval int
	maxLines         int
	logger           *log.Logger
	metrics          *metrics.Metrics
}

// Option configures converter behavior.
type Option func(*Converter)

// WithOrphanPolicy sets how continuation lines before the first record are
// handled.
func WithOrphanPolicy(p parser.OrphanPolicy) Option {
	return func(c *Converter) {
		c.orphans = p
	}
}

// WithProgressInterval logs progress every n lines. Zero or less disables
// periodic progress; the final message is always logged.
func WithProgressInterval(n int) Option {
	return func(c *Converter) {
		c.progressInterval = n
	}
}

// WithMaxLines stops reading after n lines. Zero means no limit.
func WithMaxLines(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxLines = n
		}
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records counters into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) {
		c.metrics = m
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		orphans:          parser.OrphanPlaceholder,
		progressInterval: DefaultProgressInterval,
		logger:           logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result summarises one conversion.
type Result struct {
	// Source is the input name reported by the line source.
	Source string

	// Records is the number of rows written.
	Records int

	// Lines classifies every physical line read.
	Lines parser.ReassemblyStats

	// ByType counts records per log type ("" for untyped records).
	ByType map[string]int

	// ByFrontStatus counts records per front-end status code, found codes only.
	ByFrontStatus map[string]int

	// Extracted counts records with a non-empty value per enriched column.
	Extracted map[string]int

	// Degraded counts records whose first line did not match the full layout,
	// placeholder records included.
	Degraded int

	// Truncated is set when the line limit stopped the run early.
	Truncated bool

	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the conversion took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

func newResult() *Result {
	return &Result{
		ByType:        make(map[string]int),
		ByFrontStatus: make(map[string]int),
		Extracted:     make(map[string]int),
		StartTime:     time.Now(),
	}
}

// Convert reads every line from source, reassembles records and writes each
// one to w as soon as it is complete. The caller owns source and w.
func (c *Converter) Convert(ctx context.Context, source parser.LineSource, w sink.RecordWriter) (*Result, error) {
	result := newResult()
	r := parser.NewReassembler(c.orphans)

	read := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if c.maxLines > 0 && read >= c.maxLines {
			result.Truncated = true
			c.logger.Warn().Int("max_lines", c.maxLines).Msg("line limit reached")
			break
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}
		read++
		if result.Source == "" {
			result.Source = line.Source
		}

		if rec, ok := r.Feed(*line); ok {
			if err := c.emit(ctx, w, rec, result); err != nil {
				return nil, err
			}
		}

		if c.progressInterval > 0 && read%c.progressInterval == 0 {
			c.logger.Info().
				Int(logging.FieldLine, read).
				Int(logging.FieldRecords, result.Records).
				Msg("progress")
		}
	}

	if rec, ok := r.Flush(); ok {
		if err := c.emit(ctx, w, rec, result); err != nil {
			return nil, err
		}
		c.logger.Info().
			Int(logging.FieldLine, read).
			Int(logging.FieldRecords, result.Records).
			Msg("final record written")
	}

	result.Lines = r.Stats()
	result.EndTime = time.Now()
	c.observeRun(result)

	return result, nil
}

func (c *Converter) emit(ctx context.Context, w sink.RecordWriter, rec *parser.Record, result *Result) error {
	if err := w.Write(ctx, rec); err != nil {
		return fmt.Errorf("writing %s output: %w", w.Format(), err)
	}

	result.Records++
	result.ByType[rec.Type]++
	if rec.Layout != parser.LayoutWebAdaptor {
		result.Degraded++
	}

	fields := map[string]string{
		parser.ColFrontStatusCode: rec.FrontStatusCode,
		parser.ColBackStatusCode:  rec.BackStatusCode,
		parser.ColTargetHost:      rec.TargetHost,
		parser.ColTargetPath:      rec.TargetPath,
		parser.ColTargetQuery:     rec.TargetQuery,
	}
	for name, v := range fields {
		if v != "" {
			result.Extracted[name]++
			if c.metrics != nil {
				c.metrics.ExtractionsTotal.WithLabelValues(name).Inc()
			}
		}
	}
	if rec.FrontStatusCode != "" {
		result.ByFrontStatus[rec.FrontStatusCode]++
	}

	if c.metrics != nil {
		c.metrics.RecordsTotal.WithLabelValues(rec.Type).Inc()
	}

	c.logger.Debug().
		Int(logging.FieldLine, rec.LineNumber).
		Str("type", rec.Type).
		Str("layout", rec.Layout).
		Msg("record written")

	return nil
}

func (c *Converter) observeRun(result *Result) {
	if c.metrics == nil {
		return
	}
	m := c.metrics
	m.LinesTotal.WithLabelValues("boundary").Add(float64(result.Lines.Boundaries))
	m.LinesTotal.WithLabelValues("continuation").Add(float64(result.Lines.Continuations))
	m.LinesTotal.WithLabelValues("orphan").Add(float64(result.Lines.Orphans))
	m.LinesTotal.WithLabelValues("skipped").Add(float64(result.Lines.SkippedLines))
	m.RunDuration.Set(result.Duration().Seconds())
	m.LastRunTimestamp.Set(float64(result.EndTime.Unix()))
}
