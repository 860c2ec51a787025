package model

import "time"

// ClaimStatus is the adjudication state of a claim.
type ClaimStatus string

const (
	StatusApproved      ClaimStatus = "Approved"
	StatusSettled       ClaimStatus = "Settled"
	StatusRejected      ClaimStatus = "Rejected"
	StatusPending       ClaimStatus = "Pending"
	StatusQueried       ClaimStatus = "Queried"
	StatusPreAuthorized ClaimStatus = "PreAuthorized"
)

// AllStatuses lists the recognised claim statuses in canonical order.
var AllStatuses = []ClaimStatus{
	StatusApproved,
	StatusSettled,
	StatusRejected,
	StatusPending,
	StatusQueried,
	StatusPreAuthorized,
}

// ParseStatus maps free text onto a ClaimStatus, case-insensitively.
// Returns ok=false for anything outside the enum.
func ParseStatus(s string) (ClaimStatus, bool) {
	for _, st := range AllStatuses {
		if equalFold(string(st), s) {
			return st, true
		}
	}
	switch lower(s) {
	case "pre-authorized", "preauthorised", "pre-authorised", "pre auth", "preauth":
		return StatusPreAuthorized, true
	}
	return "", false
}

// ClaimType classifies how a claim is paid.
type ClaimType string

const (
	TypeCashless      ClaimType = "Cashless"
	TypeReimbursement ClaimType = "Reimbursement"
	TypeEmergency     ClaimType = "Emergency"
	TypePlanned       ClaimType = "Planned"
	TypeGeneral       ClaimType = "General"
)

var allTypes = []ClaimType{TypeCashless, TypeReimbursement, TypeEmergency, TypePlanned, TypeGeneral}

// ParseType maps free text onto a ClaimType, case-insensitively.
func ParseType(s string) (ClaimType, bool) {
	for _, ct := range allTypes {
		if equalFold(string(ct), s) {
			return ct, true
		}
	}
	return "", false
}

// Amounts is the financial set carried by drafts and records.
// After reconciliation every field is a non-negative number.
type Amounts struct {
	TotalBill       float64 `json:"total_bill_amount"`
	Claim           float64 `json:"claim_amount"`
	Approved        float64 `json:"approved_amount"`
	Settled         float64 `json:"settled_amount"`
	Rejected        float64 `json:"rejected_amount"`
	PatientPayable  float64 `json:"patient_payable_amount"`
	Balance         float64 `json:"balance_amount"`
	Outstanding     float64 `json:"outstanding_amount"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// Fields returns pointers to every amount paired with its column name,
// in a stable order. Callers use it to apply one rule to all amounts.
func (a *Amounts) Fields() []AmountField {
	return []AmountField{
		{"total_bill_amount", &a.TotalBill},
		{"claim_amount", &a.Claim},
		{"approved_amount", &a.Approved},
		{"settled_amount", &a.Settled},
		{"rejected_amount", &a.Rejected},
		{"patient_payable_amount", &a.PatientPayable},
		{"balance_amount", &a.Balance},
		{"outstanding_amount", &a.Outstanding},
		{"coverage_percent", &a.CoveragePercent},
	}
}

// AmountField names one amount inside an Amounts value.
type AmountField struct {
	Name  string
	Value *float64
}

// ClaimDraft is a transient extraction result that has not been persisted.
// Nil string pointers mean "no value".
type ClaimDraft struct {
	PatientName       *string     `json:"patient_name"`
	HospitalID        *string     `json:"hospital_id"`
	InsurerName       *string     `json:"insurer_name"`
	AdministratorName *string     `json:"administrator_name"`
	ClaimNumber       *string     `json:"claim_number"`
	Status            ClaimStatus `json:"claim_status,omitempty"`
	Type              ClaimType   `json:"claim_type,omitempty"`
	ClaimDate         *string     `json:"claim_date"`
	SettlementDate    *string     `json:"settlement_date"`
	Remarks           *string     `json:"remarks"`
	FollowUpDate      *string     `json:"follow_up_date"`
	Amounts

	// Source names the extraction strategy that produced the draft.
	Source string `json:"-"`
}

// ClaimRecord is the persisted ledger entry for one real-world claim.
type ClaimRecord struct {
	ID                int64
	MessageID         string
	MessageDate       time.Time
	PatientName       *string
	HospitalID        *string
	InsurerName       *string
	AdministratorName *string
	ClaimNumber       *string
	Status            ClaimStatus
	Type              ClaimType
	ClaimDate         *string
	SettlementDate    *string
	Remarks           *string
	FollowUpDate      *string
	Amounts
	ProcessedAt time.Time
}

// ClaimColumns returns the claims table columns in COPY order.
func ClaimColumns() []string {
	return []string{
		"message_id",
		"message_date",
		"patient_name",
		"hospital_id",
		"insurer_name",
		"administrator_name",
		"claim_number",
		"claim_status",
		"claim_type",
		"claim_date",
		"settlement_date",
		"remarks",
		"follow_up_date",
		"total_bill_amount",
		"claim_amount",
		"approved_amount",
		"settled_amount",
		"rejected_amount",
		"patient_payable_amount",
		"balance_amount",
		"outstanding_amount",
		"coverage_percent",
		"processed_at",
	}
}

// CopyValues returns the record's values in ClaimColumns order.
func (r *ClaimRecord) CopyValues() []any {
	return []any{
		r.MessageID,
		r.MessageDate,
		r.PatientName,
		r.HospitalID,
		r.InsurerName,
		r.AdministratorName,
		r.ClaimNumber,
		string(r.Status),
		string(r.Type),
		r.ClaimDate,
		r.SettlementDate,
		r.Remarks,
		r.FollowUpDate,
		r.TotalBill,
		r.Claim,
		r.Approved,
		r.Settled,
		r.Rejected,
		r.PatientPayable,
		r.Balance,
		r.Outstanding,
		r.CoveragePercent,
		r.ProcessedAt,
	}
}
