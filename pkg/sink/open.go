package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ccollicutt/walog/pkg/config"
)

// Options selects and configures a RecordWriter.
type Options struct {
	Format    string
	Path      string // file output (csv, jsonl, sqlite)
	DSN       string // postgres connection string
	Table     string
	Delimiter string
	CRLF      bool
}

// OptionsFromConfig builds Options for the given output path.
func OptionsFromConfig(cfg *config.Config, path string) Options {
	return Options{
		Format:    cfg.Output.Format,
		Path:      path,
		DSN:       cfg.Database.DSN,
		Table:     cfg.Database.Table,
		Delimiter: cfg.Output.Delimiter,
		CRLF:      cfg.Output.CRLF,
	}
}

// Extension returns the file extension used for a format, or "" when the
// format does not write a file.
func Extension(format string) string {
	switch format {
	case config.FormatCSV:
		return ".csv"
	case config.FormatJSONL:
		return ".jsonl"
	case config.FormatSQLite:
		return ".db"
	default:
		return ""
	}
}

// DefaultOutputPath derives the output file from the input path: same
// directory and base name, extension replaced by the format's.
func DefaultOutputPath(input, format string) (string, error) {
	ext := Extension(format)
	if ext == "" {
		return "", nil
	}

	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	out := filepath.Join(filepath.Dir(input), base)

	if filepath.Clean(out) == filepath.Clean(input) {
		return "", fmt.Errorf("output path %s would overwrite the input", out)
	}
	return out, nil
}

// Open creates the writer for opts.Format. File outputs are truncated.
func Open(ctx context.Context, opts Options) (RecordWriter, error) {
	switch opts.Format {
	case config.FormatCSV:
		comma, _ := utf8.DecodeRuneInString(opts.Delimiter)
		if opts.Delimiter == "" {
			comma = ','
		}
		f, err := createFile(opts.Path)
		if err != nil {
			return nil, err
		}
		return NewCSVWriter(f, CSVOptions{Comma: comma, CRLF: opts.CRLF}), nil

	case config.FormatJSONL:
		f, err := createFile(opts.Path)
		if err != nil {
			return nil, err
		}
		return NewJSONLWriter(newBufferedFile(f)), nil

	case config.FormatSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite output requires a path")
		}
		return OpenSQL(ctx, DriverSQLite, opts.Path, opts.Table)

	case config.FormatPostgres:
		return OpenSQL(ctx, DriverPostgres, opts.DSN, opts.Table)

	default:
		return nil, fmt.Errorf("unknown output format %q (use csv, jsonl, sqlite, or postgres)", opts.Format)
	}
}

func createFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	f, err := os.Create(path) // #nosec G304 -- user-provided output path is expected
	if err != nil {
		return nil, fmt.Errorf("creating output file %s: %w", path, err)
	}
	return f, nil
}

// bufferedFile flushes its buffer before closing the file.
type bufferedFile struct {
	*bufio.Writer
	f *os.File
}

func newBufferedFile(f *os.File) *bufferedFile {
	return &bufferedFile{Writer: bufio.NewWriter(f), f: f}
}

func (b *bufferedFile) Close() error {
	ferr := b.Flush()
	cerr := b.f.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
