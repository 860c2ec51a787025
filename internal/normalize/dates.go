package normalize

import (
	"strings"
	"time"
)

// CanonicalDate is the layout every normalized date is rendered in.
const CanonicalDate = "2006-01-02"

// Date layouts seen in claim correspondence, tried in order. Day and month
// use the single-digit forms so both "9/12/2025" and "09/12/2025" parse.
var dateFormats = []string{
	"2006-01-02",
	"2/1/2006",
	"2-1-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-1-2006 15:04:05",
	"2/1/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"Jan 2, 2006 15:04:05",
}

// Reduced set retried on the leading token once a time suffix is dropped.
var dateOnlyFormats = []string{
	"2-1-2006",
	"2/1/2006",
	"2006-01-02",
}

// NormalizeDate renders raw as YYYY-MM-DD when it matches a known layout.
// Unrecognised input is returned unchanged, so callers must treat the result
// as best effort rather than guaranteed canonical.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	if t, ok := parseDate(s, dateFormats); ok {
		return t.Format(CanonicalDate)
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		if t, ok := parseDate(s[:i], dateOnlyFormats); ok {
			return t.Format(CanonicalDate)
		}
	}
	return raw
}

// NormalizeDatePtr applies NormalizeDate to an optional value.
func NormalizeDatePtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := NormalizeDate(*v)
	return &s
}

// ParseDate attempts to parse a date string in the known layouts.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	t, ok := parseDate(strings.TrimSpace(s), dateFormats)
	if !ok {
		return nil
	}
	return &t
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
