package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinancial(t *testing.T) {
	s := "Rs. 2,500"
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 1234.5, 1234.5},
		{"int", 42, 42},
		{"negative float clamps", -10.0, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"plain string", "1500", 1500},
		{"grouped rupees", "1,20,000.50", 120000.5},
		{"currency prefix", "INR 9,000", 9000},
		{"string pointer", &s, 2500},
		{"none word", "None", 0},
		{"double dot", "1.2.3", 0},
		{"json number", json.Number("77.25"), 77.25},
		{"json number exponent", json.Number("1.2e5"), 120000},
		{"json number negative clamps", json.Number("-500"), 0},
		{"json number malformed", json.Number("12abc"), 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Financial(tt.in))
		})
	}
}

func TestFinancial_NonNegativeAndIdempotent(t *testing.T) {
	inputs := []any{nil, -5.5, 0.0, 3.14, "abc", "-700", "1,000", json.Number("-1"), json.Number("2.5E3"), math.Inf(-1), int64(99)}
	for _, in := range inputs {
		once := Financial(in)
		assert.GreaterOrEqual(t, once, 0.0, "input %v", in)
		assert.Equal(t, once, Financial(once), "input %v", in)
	}
}
