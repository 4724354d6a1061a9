// Package sink writes reassembled records to tabular outputs.
package sink

import (
	"context"
	"errors"
	"slices"

	"github.com/ccollicutt/walog/pkg/parser"
)

// ErrColumnMismatch is returned when a row does not have the header's columns.
var ErrColumnMismatch = errors.New("row columns do not match header")

// RecordWriter receives records in input order.
type RecordWriter interface {
	// Write appends one record. The first call fixes the column set.
	Write(ctx context.Context, rec *parser.Record) error

	// Close flushes buffered rows and releases resources.
	Close() error

	// Format returns the output format name (csv, jsonl, sqlite, postgres).
	Format() string
}

// header tracks the header-once policy shared by all writers.
type header struct {
	columns []string
}

// check fixes the header from the first row's columns and afterwards rejects
// rows whose column names differ from it. Every row must carry one value per
// column. It reports whether the header was fixed by this call.
//
// Records built by the parser always share parser.Columns(), so a mismatch
// means a writer was handed rows from a different schema.
func (h *header) check(columns, values []string) (bool, error) {
	if len(values) != len(columns) {
		return false, ErrColumnMismatch
	}
	if h.columns == nil {
		h.columns = slices.Clone(columns)
		return true, nil
	}
	if !slices.Equal(h.columns, columns) {
		return false, ErrColumnMismatch
	}
	return false, nil
}
