// Package parser reassembles multi-line Web Adaptor log records and extracts
// structured fields from their messages.
package parser

import "strconv"

// Column names in output order. Every emitted row uses exactly this set.
const (
	ColLineNumber      = "lineNumber"
	ColDate            = "date"
	ColTime            = "time"
	ColDatetime        = "datetime"
	ColZone            = "zone"
	ColType            = "type"
	ColModule          = "module"
	ColMessage         = "message"
	ColFrontStatusCode = "frontstatuscode"
	ColBackStatusCode  = "backstatuscode"
	ColTargetHost      = "targethost"
	ColTargetPath      = "targetpath"
	ColTargetQuery     = "targetquery"
)

var columns = []string{
	ColLineNumber,
	ColDate,
	ColTime,
	ColDatetime,
	ColZone,
	ColType,
	ColModule,
	ColMessage,
	ColFrontStatusCode,
	ColBackStatusCode,
	ColTargetHost,
	ColTargetPath,
	ColTargetQuery,
}

// Columns returns the fixed column order of a Record row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// LogLine is a physical line read from a log file.
type LogLine struct {
	// Content is the line text without its line terminator.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// Record is one logical log entry, possibly spanning several physical lines.
type Record struct {
	// LineNumber is the 1-based number of the record's first physical line.
	LineNumber int `json:"lineNumber"`

	Date     string `json:"date"`
	Time     string `json:"time"`
	Datetime string `json:"datetime"`
	Zone     string `json:"zone"`
	Type     string `json:"type"`
	Module   string `json:"module"`

	// Message holds the first line's payload and every continuation line,
	// joined with single spaces.
	Message string `json:"message"`

	Enrichment

	// Layout names the line layout that sliced the first line. Empty for
	// placeholder records built from orphan continuation lines.
	Layout string `json:"-"`

	enriched bool
}

// Enrichment holds the fields derived from a record's message.
type Enrichment struct {
	FrontStatusCode string `json:"frontstatuscode"`
	BackStatusCode  string `json:"backstatuscode"`
	TargetHost      string `json:"targethost"`
	TargetPath      string `json:"targetpath"`
	TargetQuery     string `json:"targetquery"`
}

// Values returns the record's fields in Columns order.
func (r *Record) Values() []string {
	return []string{
		strconv.Itoa(r.LineNumber),
		r.Date,
		r.Time,
		r.Datetime,
		r.Zone,
		r.Type,
		r.Module,
		r.Message,
		r.FrontStatusCode,
		r.BackStatusCode,
		r.TargetHost,
		r.TargetPath,
		r.TargetQuery,
	}
}

// Enriched reports whether the extractor has run over the record's message.
func (r *Record) Enriched() bool {
	return r.enriched
}

// Enrich runs the field extractor over the record's current message.
func (r *Record) Enrich() {
	r.Enrichment = Extract(r.Message)
	r.enriched = true
}

// appendLine folds a continuation line into the message.
func (r *Record) appendLine(text string) {
	r.Message = r.Message + " " + normalizeBreaks(text)
}
