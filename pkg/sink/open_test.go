package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  string
		want    string
		wantErr bool
	}{
		{"log to csv", filepath.Join("logs", "webadaptor20240722.log"), "csv", filepath.Join("logs", "webadaptor20240722.csv"), false},
		{"no extension", filepath.Join("logs", "webadaptor"), "csv", filepath.Join("logs", "webadaptor.csv"), false},
		{"jsonl", "wa.log", "jsonl", "wa.jsonl", false},
		{"sqlite", "wa.log", "sqlite", "wa.db", false},
		{"postgres has no file", "wa.log", "postgres", "", false},
		{"dotted name", "wa.2024.07.log", "csv", "wa.2024.07.csv", false},
		{"would overwrite", "wa.csv", "csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultOutputPath(tt.input, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DefaultOutputPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DefaultOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := Open(context.Background(), Options{Format: "csv", Path: path, Delimiter: ",", CRLF: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Write(context.Background(), testRecords()[0]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "lineNumber,date,time,datetime,zone,type,module,message,") {
		t.Errorf("file = %q", data)
	}
}

func TestOpen_JSONLFileFlushed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w, err := Open(context.Background(), Options{Format: "jsonl", Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, rec := range testRecords() {
		if err := w.Write(context.Background(), rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("file has %d lines, want 2", n)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown format", Options{Format: "xlsx", Path: "x"}},
		{"csv without path", Options{Format: "csv"}},
		{"sqlite without path", Options{Format: "sqlite"}},
		{"unwritable dir", Options{Format: "csv", Path: "/nonexistent/dir/out.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(ctx, tt.opts); err == nil {
				t.Error("Open() expected error")
			}
		})
	}
}

func TestExtension(t *testing.T) {
	if Extension("csv") != ".csv" || Extension("postgres") != "" {
		t.Errorf("Extension() mapping wrong")
	}
}
