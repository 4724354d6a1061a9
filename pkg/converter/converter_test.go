package converter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ccollicutt/walog/pkg/logging"
	"github.com/ccollicutt/walog/pkg/metrics"
	"github.com/ccollicutt/walog/pkg/parser"
	"github.com/ccollicutt/walog/pkg/sink"
)

const sampleLog = `2024-07-22T13:45:12.3456789-04:00 [INFO] (Microsoft.AspNetCore.Hosting.Diagnostics) Request finished HTTP/1.1 GET https://gis.example.com/arcgis/rest/services?f=json - 200 - application/json 12.3ms
2024-07-22T13:45:12.4567890-04:00 [INFO] (System.Net.Http.HttpClient.Default.LogicalHandler) End processing HTTP request after 15.2ms - OK
2024-07-22T13:45:13.0000001-04:00 [ERROR] (Proxy) Unhandled exception
   at Proxy.Forward()
   at Proxy.Handle()
2024-07-22T13:45:14.0000001-04:00 plain line without markers`

type memoryWriter struct {
	records []*parser.Record
	failAt  int
}

func (m *memoryWriter) Write(_ context.Context, rec *parser.Record) error {
	if m.failAt > 0 && len(m.records)+1 == m.failAt {
		return errors.New("disk full")
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryWriter) Close() error  { return nil }
func (m *memoryWriter) Format() string { return "memory" }

func TestConvert_Records(t *testing.T) {
	w := &memoryWriter{}
	result, err := New().Convert(context.Background(), parser.NewStringSource(sampleLog), w)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if result.Records != 4 || len(w.records) != 4 {
		t.Fatalf("Records = %d (written %d), want 4", result.Records, len(w.records))
	}
	if result.Lines.Lines != 6 || result.Lines.Continuations != 2 {
		t.Errorf("Lines = %+v", result.Lines)
	}
	if result.ByType["INFO"] != 2 || result.ByType["ERROR"] != 1 {
		t.Errorf("ByType = %v", result.ByType)
	}
	if result.ByFrontStatus["200"] != 1 {
		t.Errorf("ByFrontStatus = %v", result.ByFrontStatus)
	}
	if result.Extracted[parser.ColBackStatusCode] != 1 || result.Extracted[parser.ColTargetHost] != 1 {
		t.Errorf("Extracted = %v", result.Extracted)
	}
	if result.Degraded != 1 {
		t.Errorf("Degraded = %d, want 1", result.Degraded)
	}
	if result.Truncated {
		t.Error("Truncated = true, want false")
	}
	if result.Duration() < 0 {
		t.Errorf("Duration() = %v", result.Duration())
	}

	for i, rec := range w.records {
		if !rec.Enriched() {
			t.Errorf("records[%d] not enriched", i)
		}
	}
	if got := w.records[1].BackStatusCode; got != " OK" {
		t.Errorf("BackStatusCode = %q, want %q", got, " OK")
	}
	if got := w.records[2].Message; got != "Unhandled exception    at Proxy.Forward()    at Proxy.Handle()" {
		t.Errorf("Message = %q", got)
	}
}

func TestConvert_LongContinuationLine(t *testing.T) {
	payload := strings.Repeat("x", 3*1024*1024)
	content := "2024-07-22T13:45:12.3456789-04:00 [ERROR] (Proxy) boom\n" +
		payload + "\n" +
		"2024-07-22T13:45:13.0000000-04:00 [INFO] (Proxy) Request finished - 200\n"

	w := &memoryWriter{}
	result, err := New().Convert(context.Background(), parser.NewStringSource(content), w)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if result.Records != 2 || len(w.records) != 2 {
		t.Fatalf("Records = %d (written %d), want 2", result.Records, len(w.records))
	}
	if want := "boom " + payload; w.records[0].Message != want {
		t.Errorf("Message length = %d, want %d", len(w.records[0].Message), len(want))
	}
	if w.records[1].FrontStatusCode != "200" {
		t.Errorf("FrontStatusCode = %q, want 200", w.records[1].FrontStatusCode)
	}
}

func TestConvert_OrphanPolicy(t *testing.T) {
	content := "orphan line\n" + sampleLog

	tests := []struct {
		name        string
		policy      parser.OrphanPolicy
		wantRecords int
	}{
		{"placeholder", parser.OrphanPlaceholder, 5},
		{"skip", parser.OrphanSkip, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &memoryWriter{}
			result, err := New(WithOrphanPolicy(tt.policy)).
				Convert(context.Background(), parser.NewStringSource(content), w)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if result.Records != tt.wantRecords {
				t.Errorf("Records = %d, want %d", result.Records, tt.wantRecords)
			}
			if result.Lines.Orphans != 1 {
				t.Errorf("Orphans = %d, want 1", result.Lines.Orphans)
			}
		})
	}
}

func TestConvert_MaxLines(t *testing.T) {
	w := &memoryWriter{}
	result, err := New(WithMaxLines(3)).Convert(context.Background(), parser.NewStringSource(sampleLog), w)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !result.Truncated {
		t.Error("Truncated = false, want true")
	}
	if result.Lines.Lines != 3 {
		t.Errorf("Lines.Lines = %d, want 3", result.Lines.Lines)
	}
	if result.Records != 3 {
		t.Errorf("Records = %d, want 3", result.Records)
	}
}

func TestConvert_ProgressLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})

	_, err := New(WithProgressInterval(2), WithLogger(logger)).
		Convert(context.Background(), parser.NewStringSource(sampleLog), &memoryWriter{})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	out := buf.String()
	if got := strings.Count(out, `"message":"progress"`); got != 3 {
		t.Errorf("progress messages = %d, want 3\n%s", got, out)
	}
	if got := strings.Count(out, `"message":"final record written"`); got != 1 {
		t.Errorf("final messages = %d, want 1\n%s", got, out)
	}
}

func TestConvert_WriterError(t *testing.T) {
	w := &memoryWriter{failAt: 2}
	_, err := New().Convert(context.Background(), parser.NewStringSource(sampleLog), w)
	if err == nil {
		t.Fatal("Convert() error = nil, want write failure")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want wrapped write failure", err)
	}
}

func TestConvert_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Convert(ctx, parser.NewStringSource(sampleLog), &memoryWriter{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

func TestConvert_Metrics(t *testing.T) {
	m := metrics.New()
	_, err := New(WithMetrics(m)).Convert(context.Background(), parser.NewStringSource(sampleLog), &memoryWriter{})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues("boundary")); got != 4 {
		t.Errorf("boundary lines = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues("continuation")); got != 2 {
		t.Errorf("continuation lines = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("INFO")); got != 2 {
		t.Errorf("INFO records = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(parser.ColFrontStatusCode)); got != 1 {
		t.Errorf("frontstatuscode extractions = %v, want 1", got)
	}
}

func convertCSV(t *testing.T, content string) string {
	t.Helper()
	var buf bytes.Buffer
	w := sink.NewCSVWriter(&buf, sink.CSVOptions{Comma: ',', CRLF: true})
	if _, err := New().Convert(context.Background(), parser.NewStringSource(content), w); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.String()
}

func TestConvert_Idempotent(t *testing.T) {
	first := convertCSV(t, sampleLog)
	second := convertCSV(t, sampleLog)
	if first != second {
		t.Errorf("re-parse differs:\n%s\n---\n%s", first, second)
	}

	lines := strings.Split(strings.TrimSuffix(first, "\r\n"), "\r\n")
	if len(lines) != 5 {
		t.Fatalf("Got %d CSV lines, want header + 4 rows", len(lines))
	}
	if lines[0] != strings.Join(parser.Columns(), ",") {
		t.Errorf("header = %q", lines[0])
	}
}
