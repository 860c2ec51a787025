package normalize

import (
	"regexp"
	"strings"
)

var placeholderTokens = map[string]bool{
	"none":    true,
	"n/a":     true,
	"null":    true,
	"unknown": true,
	"":        true,
}

// CleanPlaceholder returns nil for the empty-value tokens extraction sources
// emit ("none", "n/a", "null", "unknown", blank), compared case-insensitively
// after trimming. Anything else passes through untouched.
func CleanPlaceholder(v *string) *string {
	if v == nil {
		return nil
	}
	if placeholderTokens[strings.ToLower(strings.TrimSpace(*v))] {
		return nil
	}
	return v
}

// IsPlaceholder reports whether s is one of the empty-value tokens.
func IsPlaceholder(s string) bool {
	return placeholderTokens[strings.ToLower(strings.TrimSpace(s))]
}

type substitution struct {
	re   *regexp.Regexp
	with string
}

// Applied in order, each to the output of the previous one.
var patientNameNoise = []substitution{
	{regexp.MustCompile(`(?i)^details\s+patient\s+name\s+`), ""},
	{regexp.MustCompile(`(?i)^details\s+`), ""},
	{regexp.MustCompile(`(?i)^patient\s+name\s*[:\-]?\s*`), ""},
	{regexp.MustCompile(`(?i)^name\s+of\s+the\s+patient\s*[:\-]?\s*`), ""},
	{regexp.MustCompile(`(?i)\s+insured\s+empl$`), ""},
	{regexp.MustCompile(`(?i)\s+policy\s+no.*$`), ""},
	{regexp.MustCompile(`(?i)\s+main\s+member.*$`), ""},
	{regexp.MustCompile(`(?i)\s+insured$`), ""},
	{regexp.MustCompile(`(?i)\s+primary\s+member$`), ""},
	{regexp.MustCompile(`(?i)\s+beneficiary.*$`), ""},
	{regexp.MustCompile(`(?i)\s+patient$`), ""},
	{regexp.MustCompile(`(?i)hospital\s+payment\s*/\s*bulk\s+claim.*`), ""},
	{regexp.MustCompile(`(?i)summary\s+of\s+claims.*`), ""},
}

// CleanPatientName strips labels, suffixes and boilerplate that extraction
// tends to glue onto a patient name.
func CleanPatientName(name string) string {
	cleaned := strings.TrimSpace(name)
	for _, sub := range patientNameNoise {
		cleaned = sub.re.ReplaceAllString(cleaned, sub.with)
	}
	return strings.TrimSpace(cleaned)
}

// noisyNameMarkers flag a stored patient name as known noise that a later
// message may replace even without supplying a new name.
var noisyNameMarkers = []string{"hospital payment", "details", "insured"}

// IsNoisyPatientName reports whether a stored name looks like extraction noise.
func IsNoisyPatientName(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range noisyNameMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
