package normalize

import (
	"strings"
	"unicode/utf8"
)

// Low-information tokens (mostly table headers) that extraction mistakes for
// claim numbers.
var garbageClaimNumbers = map[string]bool{
	"erence":   true,
	"gross":    true,
	"claim no": true,
	"ref no":   true,
	"remarks":  true,
	"bill":     true,
	"invoice":  true,
	"none":     true,
	"unknown":  true,
	"null":     true,
	"details":  true,
	"sl no":    true,
	"status":   true,
}

const minClaimNumberLen = 4

// IsGarbageClaimNumber reports whether v is a denylisted token or shorter
// than four characters.
func IsGarbageClaimNumber(v string) bool {
	val := strings.ToLower(strings.TrimSpace(v))
	if garbageClaimNumbers[val] {
		return true
	}
	return utf8.RuneCountInString(val) < minClaimNumberLen
}

// CleanClaimNumber trims a claim number and rejects garbage values.
// Returns nil for nil or rejected input.
func CleanClaimNumber(v *string) *string {
	if v == nil {
		return nil
	}
	if IsGarbageClaimNumber(*v) {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
