package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/parser"
)

// JSONLWriter writes one JSON object per record, keys in column order.
type JSONLWriter struct {
	enc    *json.Encoder
	closer io.Closer
	header header
}

// NewJSONLWriter writes JSON lines to w. If w is an io.Closer it is closed
// by Close.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	j := &JSONLWriter{enc: enc}
	if closer, ok := w.(io.Closer); ok {
		j.closer = closer
	}
	return j
}

// Format returns "jsonl".
func (j *JSONLWriter) Format() string {
	return config.FormatJSONL
}

// Write encodes one record.
func (j *JSONLWriter) Write(_ context.Context, rec *parser.Record) error {
	if _, err := j.header.check(parser.Columns(), rec.Values()); err != nil {
		return fmt.Errorf("record at line %d: %w", rec.LineNumber, err)
	}
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing record at line %d: %w", rec.LineNumber, err)
	}
	return nil
}

// Close closes the underlying writer.
func (j *JSONLWriter) Close() error {
	if j.closer != nil {
		if err := j.closer.Close(); err != nil {
			return fmt.Errorf("closing jsonl output: %w", err)
		}
	}
	return nil
}
