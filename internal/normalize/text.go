package normalize

import "strings"

// OptStr returns nil for an empty (after trimming) string.
func OptStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// DerefStr returns the pointed-to string, or "" for nil.
func DerefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
