package model

import "strings"

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
