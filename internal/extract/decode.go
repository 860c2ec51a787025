package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

// Field aliases accepted from model output, preferred key first. Older
// prompts used the legacy names.
var (
	keysPatientName   = []string{"patient_name"}
	keysHospitalID    = []string{"hospital_id", "uhid_mrn", "uhid", "mrn"}
	keysInsurer       = []string{"insurer_name", "insurance_company", "insurer"}
	keysAdministrator = []string{"administrator_name", "tpa_name", "tpa"}
	keysClaimNumber   = []string{"claim_number", "claim_no"}
	keysStatus        = []string{"claim_status", "status"}
	keysType          = []string{"claim_type", "type"}
	keysClaimDate     = []string{"claim_date"}
	keysSettlement    = []string{"settlement_date"}
	keysRemarks       = []string{"remarks"}
	keysFollowUp      = []string{"follow_up_date", "tat_followup_date"}
	keysCoverage      = []string{"coverage_percent", "insurance_coverage_percent"}
)

var amountKeys = map[string]func(a *model.Amounts) *float64{
	"total_bill_amount":      func(a *model.Amounts) *float64 { return &a.TotalBill },
	"claim_amount":           func(a *model.Amounts) *float64 { return &a.Claim },
	"approved_amount":        func(a *model.Amounts) *float64 { return &a.Approved },
	"settled_amount":         func(a *model.Amounts) *float64 { return &a.Settled },
	"rejected_amount":        func(a *model.Amounts) *float64 { return &a.Rejected },
	"patient_payable_amount": func(a *model.Amounts) *float64 { return &a.PatientPayable },
	"balance_amount":         func(a *model.Amounts) *float64 { return &a.Balance },
	"outstanding_amount":     func(a *model.Amounts) *float64 { return &a.Outstanding },
}

// DecodeDraft parses a JSON object produced by a model into a draft. Unknown
// keys are ignored, amounts may be numbers or formatted strings, and an
// unrecognised status or type is left unset.
func DecodeDraft(data []byte) (*model.ClaimDraft, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding draft json: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decoding draft json: %w", ErrInvalidDraft)
	}

	d := &model.ClaimDraft{
		PatientName:       pickString(raw, keysPatientName),
		HospitalID:        pickString(raw, keysHospitalID),
		InsurerName:       pickString(raw, keysInsurer),
		AdministratorName: pickString(raw, keysAdministrator),
		ClaimNumber:       pickString(raw, keysClaimNumber),
		ClaimDate:         pickString(raw, keysClaimDate),
		SettlementDate:    pickString(raw, keysSettlement),
		Remarks:           pickString(raw, keysRemarks),
		FollowUpDate:      pickString(raw, keysFollowUp),
	}
	if s := pickString(raw, keysStatus); s != nil {
		if st, ok := model.ParseStatus(*s); ok {
			d.Status = st
		}
	}
	if s := pickString(raw, keysType); s != nil {
		if ct, ok := model.ParseType(*s); ok {
			d.Type = ct
		}
	}
	for key, field := range amountKeys {
		if v, ok := raw[key]; ok {
			*field(&d.Amounts) = normalize.Financial(v)
		}
	}
	for _, key := range keysCoverage {
		if v, ok := raw[key]; ok && v != nil {
			d.CoveragePercent = normalize.Financial(v)
			break
		}
	}
	return d, nil
}

func pickString(raw map[string]any, keys []string) *string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s := scalarString(v); s != "" {
			return &s
		}
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := scalarString(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

// RepairLocalJSON reconstructs a JSON object from a completion that continues
// an opened brace: the brace is restored, code fences are dropped and the
// text is cut after the last closing brace.
func RepairLocalJSON(completion string) string {
	s := strings.ReplaceAll(completion, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	if end := strings.LastIndex(s, "}"); end != -1 {
		return s[:end+1]
	}
	return s + "}"
}
