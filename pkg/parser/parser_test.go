package parser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readAll(t *testing.T, src LineSource) []*LogLine {
	t.Helper()
	ctx := context.Background()
	var lines []*LogLine
	for {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestFileSource_Next(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "webadaptor.log")
	content := "2024-07-22T13:45:12.3456789-04:00 [INFO] (Proxy) first\r\n" +
		"   at continuation\r\n" +
		"2024-07-22T13:45:13.0000000-04:00 [INFO] (Proxy) second\n"
	if err := os.WriteFile(logFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(logFile)
	defer source.Close()

	lines := readAll(t, source)
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}
	if lines[1].Content != "   at continuation" {
		t.Errorf("Content = %q, want CR stripped", lines[1].Content)
	}
	if lines[2].LineNum != 3 {
		t.Errorf("LineNum = %d, want 3", lines[2].LineNum)
	}
	if lines[0].Source != logFile {
		t.Errorf("Source = %q, want %q", lines[0].Source, logFile)
	}
}

func TestFileSource_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "empty.log")
	if err := os.WriteFile(logFile, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(logFile)
	defer source.Close()

	_, err := source.Next(context.Background())
	if err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
	// Stays at EOF.
	_, err = source.Next(context.Background())
	if err != io.EOF {
		t.Errorf("second Next() error = %v, want io.EOF", err)
	}
}

func TestFileSource_FileNotFound(t *testing.T) {
	source := NewFileSource("/nonexistent/file.log")
	defer source.Close()

	_, err := source.Next(context.Background())
	if err == nil {
		t.Error("Next() expected error for missing file")
	}
}

func TestFileSource_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "test.log")
	if err := os.WriteFile(logFile, []byte("line\n"), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(logFile)
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Next(ctx)
	if err != context.Canceled {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestReaderSource_Next(t *testing.T) {
	lines := readAll(t, NewStringSource("a\nb\n\nc"))
	if len(lines) != 4 {
		t.Fatalf("Got %d lines, want 4", len(lines))
	}
	if lines[2].Content != "" {
		t.Errorf("blank line Content = %q", lines[2].Content)
	}
	if lines[3].Content != "c" || lines[3].LineNum != 4 {
		t.Errorf("last line = %+v", lines[3])
	}
}

func TestFileSource_LongLine(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "webadaptor.log")
	long := strings.Repeat("y", 2*1024*1024+17)
	content := "2024-07-22T13:45:12.3456789-04:00 [ERROR] (Proxy) boom\r\n" + long + "\r\nlast"
	if err := os.WriteFile(logFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(logFile)
	defer source.Close()

	lines := readAll(t, source)
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}
	if lines[1].Content != long {
		t.Errorf("long line length = %d, want %d", len(lines[1].Content), len(long))
	}
	if lines[2].Content != "last" || lines[2].LineNum != 3 {
		t.Errorf("unterminated last line = %+v", lines[2])
	}
}
