package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoHeader is returned when a document does not start with a
	// ---/--- delimited header block.
	ErrNoHeader = errors.New("document: missing header block")
	// ErrMissingField is returned when a required header key is absent.
	ErrMissingField = errors.New("document: missing required field")
)

var headerRe = regexp.MustCompile(`^---\r?\n([\s\S]*?)\r?\n---\r?\n([\s\S]*)$`)

// Parsed is a document split into its typed header and body.
type Parsed struct {
	Header Header
	Body   string
}

// Parse splits data into header and body. It fails closed: a document
// without the delimiter pair, a title or a date yields an error rather than
// a partially filled header.
func Parse(data string) (*Parsed, error) {
	m := headerRe.FindStringSubmatch(data)
	if m == nil {
		return nil, ErrNoHeader
	}

	fields := splitFields(m[1])
	h := Header{
		Title:       fields["title"],
		Date:        fields["date"],
		Category:    fields["category"],
		Thumbnail:   fields["thumbnail"],
		ReadingTime: fields["readingTime"],
		Tags:        parseTags(fields["tags"]),
	}
	if h.Title == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if h.Date == "" {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}

	return &Parsed{Header: h, Body: trimBody(m[2])}, nil
}

// splitFields reads "key: value" lines. The value is everything after the
// first colon, trimmed, with one pair of surrounding quotes removed.
func splitFields(block string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			continue
		}
		out[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return out
}

// parseTags reads a bracketed, comma separated list such as ["a", "b"].
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		t := unquote(strings.TrimSpace(part))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func unquote(s string) string {
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if n := len(s); n > 0 && (s[n-1] == '"' || s[n-1] == '\'') {
		s = s[:n-1]
	}
	return s
}

// trimBody removes the blank separator line after the header and the single
// trailing newline Compose appends.
func trimBody(rest string) string {
	switch {
	case strings.HasPrefix(rest, "\r\n"):
		rest = rest[2:]
	case strings.HasPrefix(rest, "\n"):
		rest = rest[1:]
	}
	return strings.TrimSuffix(rest, "\n")
}
