package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// lineReader splits input into physical lines of any length. The terminator
// ("\n" or "\r\n") is dropped; a final line without one is still returned.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next line or io.EOF.
func (l *lineReader) next() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", err
		}
		if line == "" {
			return "", io.EOF
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// FileSource implements LineSource for a single log file.
type FileSource struct {
	path string

	file    *os.File
	lines   *lineReader
	lineNum int
	done    bool
}

// NewFileSource creates a LineSource reading the given file. The file is
// opened on the first call to Next.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file this source reads.
func (s *FileSource) Path() string {
	return s.path
}

// Next returns the next line, without its terminator.
// Returns io.EOF once the file is exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.done {
		return nil, io.EOF
	}

	if s.lines == nil {
		if err := s.open(); err != nil {
			return nil, err
		}
	}

	text, err := s.lines.next()
	if err == nil {
		s.lineNum++
		return &LogLine{
			Content: text,
			Source:  s.path,
			LineNum: s.lineNum,
		}, nil
	}
	if err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	s.done = true
	if err := s.Close(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		if err != nil {
			return fmt.Errorf("closing %s: %w", s.path, err)
		}
	}
	return nil
}

func (s *FileSource) open() error {
	f, err := os.Open(s.path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", s.path, err)
	}

	s.file = f
	s.lines = newLineReader(f)
	return nil
}

// ReaderSource implements LineSource over an io.Reader. It does not own the
// reader.
type ReaderSource struct {
	name    string
	lines   *lineReader
	lineNum int
}

// NewReaderSource creates a LineSource reading lines from r. The name is
// reported as each line's Source.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, lines: newLineReader(r)}
}

// NewStringSource is a convenience for in-memory logs.
func NewStringSource(content string) *ReaderSource {
	return NewReaderSource("<memory>", strings.NewReader(content))
}

// Next returns the next line, or io.EOF.
func (s *ReaderSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	text, err := s.lines.next()
	if err == nil {
		s.lineNum++
		return &LogLine{
			Content: text,
			Source:  s.name,
			LineNum: s.lineNum,
		}, nil
	}
	if err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", s.name, err)
	}
	return nil, io.EOF
}

// Close is a no-op.
func (s *ReaderSource) Close() error {
	return nil
}
