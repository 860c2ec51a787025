package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidPatientName reports whether an extracted patient name is plausible:
// at least two characters, at least one letter, not just digits and
// punctuation.
func ValidPatientName(name string) bool {
	s := strings.TrimSpace(name)
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
