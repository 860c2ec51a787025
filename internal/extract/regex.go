package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

// RegexStrategyName labels drafts produced by the deterministic fallback.
const RegexStrategyName = "regex"

var (
	rePatientName = regexp.MustCompile(`(?i)(?:Patient|Insured|Member)\s*(?:Name)?\s*[:\-\s]+\s*([A-Za-z .]{3,50})(?:\s|$)`)
	reHospitalID  = regexp.MustCompile(`(?i)(?:UHID|MRN|Reg|Hosp)\s*(?:No|Number|ID)?\s*[:\-\s]+\s*([A-Za-z0-9\-/]+)`)
	reClaimNumber = regexp.MustCompile(`(?i)(?:Claim (?:Intimation )?(?:Number|No\.?|Id)|Claim #|CCN#?|Claim Ref)\s*[:\-]?\s*([A-Za-z0-9\-_/]+)`)
	reInsurer     = regexp.MustCompile(`(?i)(?:Insurance(?: Company| Co\.?| Corp\.?)?|Insurer|Payer)\s*[:\-]\s*([^\n\r]+)`)

	reApproved = amountPattern(`Approved|Payable|Eligible|Admissible|Settled for`, `INR|Rs\.?`)
	reSettled  = amountPattern(`Settled(?: for)?|Paid|Net Payable|Disbursed`, `INR|Rs\.?`)
	reRejected = amountPattern(`Rejected|Non-Payable|Deducted|Disallowed`, `INR|Rs\.?`)
	reTotal    = regexp.MustCompile(`(?i)(?:Total|Bill|Invoice|Claimed|Gross|Net)\s*(?:Bill|Amount|Total|Sum|amount of|payable)?(?:\s*\(INR\))?\s*[:\-]?\s*(?:INR|Rs\.?|\$)?\s*([0-9,]+(?:\.\d+)?)`)
)

func amountPattern(labels, currency string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + labels + `)\s*(?:Amount|Amt|Sum)?(?:\s*\(INR\))?\s*[:\-]?\s*(?:` + currency + `)?\s*([0-9,]+(?:\.\d+)?)`)
}

const dateValue = `(\d{4}[-/]\d{2}[-/]\d{2}|\d{2}[-/]\d{2}[-/]\d{4}|\d{1,2}\s+[A-Za-z]{3}\s+\d{4})`

func datePatterns(labels ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(labels))
	for i, l := range labels {
		out[i] = regexp.MustCompile(fmt.Sprintf(`(?i)%s\s*[:\-\s]+\s*%s`, l, dateValue))
	}
	return out
}

// Date labels in priority order; the first label present wins.
var (
	settlementDatePatterns = datePatterns(
		`Settlement\s*Date`,
		`Payment\s*Date`,
		`EFT\s*Date`,
		`Payment\s+Processed\s*(?:Date|On)`,
		`Discharge\s*Date`,
	)
	claimDatePatterns = datePatterns(
		`Admission\s*Date`,
		`Date\s+of\s+Admission(?:\s*\(DOA\))?`,
		`DOA(?:\s*Date)?`,
		`Hospitali[sz]ation\s*Date`,
		`Claim\s+Submission\s*Date`,
	)
)

// statusTier maps keyword phrases onto a status. Tiers are checked in order
// and the first tier with any phrase in the text decides.
type statusTier struct {
	status   model.ClaimStatus
	keywords []string
}

var statusTiers = []statusTier{
	{model.StatusSettled, []string{
		"payment settled", "settlement processed", "payment made", "amount disbursed", "paid out",
		"eft processed", "settled", "payment advice", "net payable", "utr number", "utr no", "neft",
	}},
	{model.StatusApproved, []string{"claim approved", "approval granted", "approved for", "sanctioned", "authorized"}},
	{model.StatusRejected, []string{
		"claim rejected", "claim denied", "rejected due to", "declined", "repudiated", "disallowed", "not approved",
	}},
	{model.StatusQueried, []string{
		"query raised", "pending documents", "clarification needed", "additional information", "deficiency",
		"query", "document required",
	}},
	{model.StatusApproved, []string{"approved"}},
	{model.StatusRejected, []string{"rejected"}},
}

// DetectStatus classifies text by keyword tier, defaulting to Pending.
func DetectStatus(text string) model.ClaimStatus {
	lower := strings.ToLower(text)
	for _, tier := range statusTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.status
			}
		}
	}
	return model.StatusPending
}

// RegexExtract is the deterministic fallback. It never fails; fields it
// cannot find are left empty and amounts default to zero.
func RegexExtract(text string) *model.ClaimDraft {
	d := &model.ClaimDraft{
		PatientName:       findString(rePatientName, text),
		HospitalID:        findString(reHospitalID, text),
		ClaimNumber:       findString(reClaimNumber, text),
		InsurerName:       findString(reInsurer, text),
		AdministratorName: ResolveAdministrator(text),
		Status:            DetectStatus(text),
		SettlementDate:    findFirst(settlementDatePatterns, text),
		ClaimDate:         findFirst(claimDatePatterns, text),
	}
	d.Approved = findAmount(reApproved, text)
	d.Settled = findAmount(reSettled, text)
	d.Rejected = findAmount(reRejected, text)
	d.TotalBill = findAmount(reTotal, text)
	d.Claim = d.TotalBill
	return d
}

func findString(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return normalize.OptStr(strings.ReplaceAll(strings.TrimSpace(m[1]), ",", ""))
}

func findFirst(patterns []*regexp.Regexp, text string) *string {
	for _, re := range patterns {
		if v := findString(re, text); v != nil {
			return v
		}
	}
	return nil
}

func findAmount(re *regexp.Regexp, text string) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return normalize.FinancialString(m[1])
}
