package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestCleanPlaceholder(t *testing.T) {
	for _, in := range []string{"none", "None", " N/A ", "null", "UNKNOWN", "", "   "} {
		assert.Nil(t, CleanPlaceholder(strp(in)), "input %q", in)
	}
	assert.Nil(t, CleanPlaceholder(nil))
	got := CleanPlaceholder(strp("Star Health"))
	if assert.NotNil(t, got) {
		assert.Equal(t, "Star Health", *got)
	}
}

func TestCleanPatientName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Details Patient Name Rajesh Kumar Insured Empl", "Rajesh Kumar"},
		{"Patient Name: Anita Desai", "Anita Desai"},
		{"Name of the patient - K Suguna", "K Suguna"},
		{"Ravi Shankar Policy No 12345/2025", "Ravi Shankar"},
		{"Meena Iyer Main Member Suresh Iyer", "Meena Iyer"},
		{"John Doe Insured", "John Doe"},
		{"Baby of Sarah Primary Member", "Baby of Sarah"},
		{"Lakshmi Beneficiary ID 99", "Lakshmi"},
		{"Arun Patient", "Arun"},
		{" Hospital Payment / Bulk Claim", ""},
		{"Summary of Claims for November", ""},
		{"Plain Name", "Plain Name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanPatientName(tt.in), "input %q", tt.in)
	}
}

func TestIsNoisyPatientName(t *testing.T) {
	assert.True(t, IsNoisyPatientName(" Hospital Payment / Bulk Claim"))
	assert.True(t, IsNoisyPatientName("Details Patient Name X"))
	assert.True(t, IsNoisyPatientName("Ravi Insured"))
	assert.False(t, IsNoisyPatientName("Ravi Kumar"))
}
