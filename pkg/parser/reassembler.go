package parser

import "fmt"

// OrphanPolicy decides what happens to continuation lines that arrive before
// any record has started.
type OrphanPolicy string

const (
	// OrphanPlaceholder starts a record holding only the line number and the
	// orphan text as its message.
	OrphanPlaceholder OrphanPolicy = "placeholder"

	// OrphanSkip drops orphan lines.
	OrphanSkip OrphanPolicy = "skip"
)

// ParseOrphanPolicy validates a policy name. Empty means OrphanPlaceholder.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(s) {
	case "", OrphanPlaceholder:
		return OrphanPlaceholder, nil
	case OrphanSkip:
		return OrphanSkip, nil
	default:
		return "", fmt.Errorf("invalid orphan policy %q (must be placeholder or skip)", s)
	}
}

// ReassemblyStats counts how physical lines were classified.
type ReassemblyStats struct {
	Lines         int `json:"lines"`
	Boundaries    int `json:"boundaries"`
	Continuations int `json:"continuations"`
	Orphans       int `json:"orphans"`
	SkippedLines  int `json:"skipped_lines"`
}

// Reassembler folds physical lines into logical records. It holds at most one
// record in progress. Not safe for concurrent use.
type Reassembler struct {
	orphans OrphanPolicy
	current *Record
	stats   ReassemblyStats
}

// NewReassembler creates a Reassembler with the given orphan policy.
func NewReassembler(orphans OrphanPolicy) *Reassembler {
	if orphans == "" {
		orphans = OrphanPlaceholder
	}
	return &Reassembler{orphans: orphans}
}

// Feed processes one physical line. When the line starts a new record, the
// previous record (if any) is enriched and returned with ok set.
func (r *Reassembler) Feed(line LogLine) (*Record, bool) {
	r.stats.Lines++

	if IsBoundary(line.Content) {
		r.stats.Boundaries++
		done, ok := r.finish()
		r.current = ParseLine(line.LineNum, line.Content)
		return done, ok
	}

	if r.current != nil {
		r.stats.Continuations++
		r.current.appendLine(line.Content)
		return nil, false
	}

	r.stats.Orphans++
	if r.orphans == OrphanSkip {
		r.stats.SkippedLines++
		return nil, false
	}
	r.current = &Record{
		LineNumber: line.LineNum,
		Message:    normalizeBreaks(line.Content),
	}
	return nil, false
}

// Flush returns the record still in progress, enriched, and resets the state.
func (r *Reassembler) Flush() (*Record, bool) {
	return r.finish()
}

// Pending reports whether a record is in progress.
func (r *Reassembler) Pending() bool {
	return r.current != nil
}

// Stats returns the line classification counts so far.
func (r *Reassembler) Stats() ReassemblyStats {
	return r.stats
}

func (r *Reassembler) finish() (*Record, bool) {
	if r.current == nil {
		return nil, false
	}
	rec := r.current
	r.current = nil
	rec.Enrich()
	return rec, true
}
