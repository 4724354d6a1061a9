package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/parser"
)

// CSVOptions controls CSV dialect.
type CSVOptions struct {
	Comma rune
	CRLF  bool
}

// CSVWriter writes records as CSV with a single header row.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	header header
}

// NewCSVWriter writes CSV to w. If w is an io.Closer it is closed by Close.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	cw := csv.NewWriter(w)
	if opts.Comma != 0 {
		cw.Comma = opts.Comma
	}
	cw.UseCRLF = opts.CRLF

	c := &CSVWriter{w: cw}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

// Format returns "csv".
func (c *CSVWriter) Format() string {
	return config.FormatCSV
}

// Write appends a row, writing the header first if needed.
func (c *CSVWriter) Write(_ context.Context, rec *parser.Record) error {
	values := rec.Values()
	first, err := c.header.check(parser.Columns(), values)
	if err != nil {
		return fmt.Errorf("record at line %d: %w", rec.LineNumber, err)
	}
	if first {
		if err := c.w.Write(c.header.columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := c.w.Write(values); err != nil {
		return fmt.Errorf("writing record at line %d: %w", rec.LineNumber, err)
	}
	return nil
}

// Close flushes the CSV writer and closes the underlying writer.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("closing csv output: %w", err)
	}
	return nil
}
