package parser

import (
	"net/url"
	"regexp"
	"strings"
)

// Markers recognised inside record messages.
const (
	// BackEndPhrase opens the back-end timing line written after a proxied call.
	BackEndPhrase = "End processing HTTP request after"

	// TimingMarker closes the duration on a back-end timing line.
	TimingMarker = "ms -"

	// URLScheme starts the target URL token.
	URLScheme = "https://"
)

// frontStatusPattern matches " - ddd". A fourth digit is rejected by
// FrontStatusCode; RE2 has no lookahead, and consuming the next character
// would hide an adjacent " - ddd".
var frontStatusPattern = regexp.MustCompile(` - (\d{3})`)

// Extract derives the enriched fields from a message. It never fails; a field
// that cannot be found is left empty.
func Extract(message string) Enrichment {
	var e Enrichment

	if code, ok := FrontStatusCode(message); ok {
		e.FrontStatusCode = code
	}
	if status, ok := BackStatusCode(message); ok {
		e.BackStatusCode = status
	}
	if target, ok := TargetURL(message); ok {
		e.TargetHost = target.Host
		e.TargetPath = target.Path
		e.TargetQuery = target.Query
	}

	return e
}

// FrontStatusCode returns the status code Web Adaptor sent back to its caller.
// The message must contain exactly one " - ddd" sequence; with none or
// several the code is ambiguous and ok is false.
func FrontStatusCode(message string) (string, bool) {
	code, found := "", 0
	for _, m := range frontStatusPattern.FindAllStringSubmatchIndex(message, -1) {
		if end := m[1]; end < len(message) && isDigit(message[end]) {
			continue
		}
		code = message[m[2]:m[3]]
		found++
	}
	if found != 1 {
		return "", false
	}
	return code, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// BackStatusCode returns the outcome text reported by the back end on an
// "End processing HTTP request after ...ms - <status>" line. The text after
// the timing marker is returned verbatim, leading space included.
func BackStatusCode(message string) (string, bool) {
	if !strings.Contains(message, BackEndPhrase) {
		return "", false
	}
	i := strings.Index(message, TimingMarker)
	if i < 0 {
		return "", false
	}
	return message[i+len(TimingMarker):], true
}

// Target holds the components of a target URL.
type Target struct {
	// Host is the authority (userinfo and port included).
	Host  string
	Path  string
	Query string
}

// TargetURL finds the first https:// URL in message. The URL runs to the
// next space or the end of the message.
func TargetURL(message string) (Target, bool) {
	start := strings.Index(message, URLScheme)
	if start < 0 {
		return Target{}, false
	}

	token := message[start:]
	if end := strings.IndexByte(token, ' '); end >= 0 {
		token = token[:end]
	}

	u, err := url.Parse(token)
	if err != nil {
		return Target{}, false
	}

	host := u.Host
	if u.User != nil {
		host = u.User.String() + "@" + host
	}

	return Target{
		Host:  host,
		Path:  u.EscapedPath(),
		Query: u.RawQuery,
	}, true
}
