// Package logging builds the structured logger used for progress and
// diagnostic output.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Standard field names used across walog's log lines.
const (
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldFormat     = "format"
	FieldLine       = "line"
	FieldRecords    = "records"
	FieldDuration   = "duration"
)

// Options configures New.
type Options struct {
	// Level is a phuslu/log level name (trace, debug, info, warn, error, fatal).
	Level string

	// Format is console or json.
	Format string

	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// New returns a logger writing to opts.Writer.
func New(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	logger := &log.Logger{
		Level:      log.ParseLevel(opts.Level),
		TimeFormat: "15:04:05",
	}

	if opts.Format == "json" {
		logger.Writer = &log.IOWriter{Writer: w}
	} else {
		logger.Writer = &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: false,
			QuoteString: true,
		}
	}

	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
