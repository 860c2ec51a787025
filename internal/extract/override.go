package extract

import (
	"strings"

	"github.com/gyeh/claimledger/internal/model"
)

// Phrases that mark a payment or settlement document.
var paymentAdviceKeywords = []string{
	"payment advice",
	"net payable",
	"utr number",
	"utr no",
	"neft",
	"rtgs",
	"amount disbursed",
	"payment made",
	"transaction reference",
	"remittance advice",
	"payment processed",
	"amount paid",
	"eft",
	"electronic fund transfer",
	"payment reference",
	"paid to hospital",
	"successfully settled",
}

// IsPaymentAdvice reports whether text reads like a payment advice: any
// keyword appears, or both "payment" and "advice" appear anywhere.
func IsPaymentAdvice(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range paymentAdviceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return strings.Contains(lower, "payment") && strings.Contains(lower, "advice")
}

// ApplyPaymentAdviceOverride forces the draft to Settled when text is a
// payment advice, regardless of what extraction decided.
func ApplyPaymentAdviceOverride(d *model.ClaimDraft, text string) *model.ClaimDraft {
	if d == nil || text == "" {
		return d
	}
	if IsPaymentAdvice(text) {
		d.Status = model.StatusSettled
	}
	return d
}
