package normalize

import "testing"

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-12-09", "2025-12-09"},
		{"09/12/2025", "2025-12-09"},
		{"9/12/2025", "2025-12-09"},
		{"09-12-2025", "2025-12-09"},
		{"09 Dec 2025", "2025-12-09"},
		{"09 December 2025", "2025-12-09"},
		{"Dec 09, 2025", "2025-12-09"},
		{"03-12-2025 00:00:00", "2025-12-03"},
		{"03/12/2025 00:00:00", "2025-12-03"},
		{"2025-12-03 00:00:00", "2025-12-03"},
		{"03-12-2025 10:30", "2025-12-03"},
		{"  09/12/2025  ", "2025-12-09"},
		{"garbage", "garbage"},
		{"31/02/2025", "31/02/2025"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDatePtr(t *testing.T) {
	if NormalizeDatePtr(nil) != nil {
		t.Error("nil input should stay nil")
	}
	in := "09 Dec 2025"
	if got := NormalizeDatePtr(&in); got == nil || *got != "2025-12-09" {
		t.Errorf("NormalizeDatePtr: got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	if ParseDate("not a date") != nil {
		t.Error("expected nil for unparseable input")
	}
	d := ParseDate("2025-01-15")
	if d == nil || d.Year() != 2025 || d.Month() != 1 || d.Day() != 15 {
		t.Errorf("ParseDate: got %v", d)
	}
}
