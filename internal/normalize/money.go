package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
)

var (
	currencyTokens = regexp.MustCompile(`(?i)\b(?:rs|inr|usd)\.?`)
	nonAmountChars = regexp.MustCompile(`[^\d.]`)
)

// Financial coerces a currency-like value into a non-negative float64.
// Strings lose currency tokens and then every character other than digits
// and dots before parsing ("Rs. 1,20,000.50" becomes 120000.5). Numbers,
// json.Number included, are taken as is. Nil, unparsable, negative and
// non-finite values become 0. Financial(Financial(v)) == Financial(v).
func Financial(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		return FinancialString(x)
	case *string:
		if x == nil {
			return 0
		}
		return FinancialString(*x)
	case bool:
		return 0
	default:
		return 0
	}
	return clampAmount(f)
}

// FinancialString parses a currency-like string; see Financial.
func FinancialString(s string) float64 {
	cleaned := nonAmountChars.ReplaceAllString(currencyTokens.ReplaceAllString(s, ""), "")
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return clampAmount(f)
}

func clampAmount(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
