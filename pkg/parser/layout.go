package parser

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the Go time layout of the date prefix that opens a record.
const DateLayout = "2006-01-02"

// TimeWidth is the fixed number of characters taken after the 'T' separator.
// Web Adaptor writes seven fractional digits, e.g. 13:45:12.3456789.
const TimeWidth = 16

// Layout is a named format for the first line of a record. Patterns use named
// groups; any of date, time, zone, type, module and message may be absent.
type Layout struct {
	Name    string
	Pattern *regexp.Regexp
}

// Layout names, most specific first.
const (
	LayoutWebAdaptor = "webadaptor"
	LayoutNoModule   = "no-module"
	LayoutDegraded   = "degraded"
)

var layouts = []*Layout{
	{
		Name: LayoutWebAdaptor,
		Pattern: regexp.MustCompile(`^(?P<date>[^T]*)T(?P<time>.{0,16})(?P<zone>.*?) \[(?P<type>.*?)\] ` +
			`(?:.*? )?\((?P<module>.*?)\)(?: (?P<message>.*))?$`),
	},
	{
		Name:    LayoutNoModule,
		Pattern: regexp.MustCompile(`^(?P<date>[^T]*)T(?P<time>.{0,16})(?P<zone>.*?) \[(?P<type>.*?)\](?: (?P<message>.*))?$`),
	},
	{
		// Always matches, so a boundary line never fails to produce a record.
		Name:    LayoutDegraded,
		Pattern: regexp.MustCompile(`^(?P<date>[^T]*)T?(?P<time>.{0,16})(?P<message>.*)$`),
	},
}

// Layouts returns the line layouts in the order they are tried.
func Layouts() []*Layout {
	out := make([]*Layout, len(layouts))
	copy(out, layouts)
	return out
}

// DatePrefix returns the text before the first 'T', or the whole line when it
// has none.
func DatePrefix(line string) string {
	if i := strings.IndexByte(line, 'T'); i >= 0 {
		return line[:i]
	}
	return line
}

// IsBoundary reports whether line starts a new record, i.e. whether its date
// prefix parses as YYYY-MM-DD.
func IsBoundary(line string) bool {
	_, err := time.Parse(DateLayout, DatePrefix(line))
	return err == nil
}

// MatchLayout returns the first layout matching line and its submatches.
func MatchLayout(line string) (*Layout, []string) {
	for _, l := range layouts {
		if m := l.Pattern.FindStringSubmatch(line); m != nil {
			return l, m
		}
	}
	return nil, nil
}

// ParseLine slices a boundary line into a new, unenriched record.
func ParseLine(lineNum int, line string) *Record {
	line = normalizeBreaks(line)
	rec := &Record{LineNumber: lineNum}

	l, m := MatchLayout(line)
	if l == nil {
		rec.Date = DatePrefix(line)
		rec.Datetime = rec.Date + " "
		return rec
	}

	group := func(name string) string {
		if i := l.Pattern.SubexpIndex(name); i >= 0 {
			return m[i]
		}
		return ""
	}

	rec.Layout = l.Name
	rec.Date = group("date")
	rec.Time = group("time")
	rec.Datetime = rec.Date + " " + rec.Time
	rec.Zone = group("zone")
	rec.Type = group("type")
	rec.Module = group("module")
	rec.Message = group("message")
	return rec
}

func normalizeBreaks(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
