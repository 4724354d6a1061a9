package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.LinesTotal.WithLabelValues("boundary").Add(3)
	m.RecordsTotal.WithLabelValues("INFO").Inc()

	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues("boundary")); got != 3 {
		t.Errorf("lines_total{kind=boundary} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("INFO")); got != 1 {
		t.Errorf("records_total{type=INFO} = %v, want 1", got)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.LinesTotal.WithLabelValues("boundary").Inc()
	if got := testutil.ToFloat64(b.LinesTotal.WithLabelValues("boundary")); got != 0 {
		t.Errorf("second run sees %v lines", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.LinesTotal.WithLabelValues("continuation").Add(2)
	m.RunDuration.Set(1.5)

	path := filepath.Join(t.TempDir(), "walog.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `walog_lines_total{kind="continuation"} 2`) {
		t.Errorf("textfile missing lines counter:\n%s", text)
	}
	if !strings.Contains(text, "walog_run_duration_seconds 1.5") {
		t.Errorf("textfile missing duration:\n%s", text)
	}
}

func TestMetrics_WriteTextfileBadPath(t *testing.T) {
	if err := New().WriteTextfile("/nonexistent/dir/walog.prom"); err == nil {
		t.Error("WriteTextfile() expected error")
	}
}
