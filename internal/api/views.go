package api

import (
	"time"

	"github.com/gyeh/claimledger/internal/model"
)

// ClaimView is the JSON shape of a claim record.
type ClaimView struct {
	ID                int64             `json:"id"`
	MessageID         string            `json:"message_id"`
	MessageDate       time.Time         `json:"message_date"`
	PatientName       *string           `json:"patient_name"`
	HospitalID        *string           `json:"hospital_id"`
	InsurerName       *string           `json:"insurer_name"`
	AdministratorName *string           `json:"administrator_name"`
	ClaimNumber       *string           `json:"claim_number"`
	Status            model.ClaimStatus `json:"claim_status"`
	Type              model.ClaimType   `json:"claim_type"`
	ClaimDate         *string           `json:"claim_date"`
	SettlementDate    *string           `json:"settlement_date"`
	Remarks           *string           `json:"remarks"`
	FollowUpDate      *string           `json:"follow_up_date"`
	model.Amounts
	ProcessedAt time.Time `json:"processed_at"`
}

// NewClaimView converts a record for output.
func NewClaimView(r *model.ClaimRecord) ClaimView {
	return ClaimView{
		ID:                r.ID,
		MessageID:         r.MessageID,
		MessageDate:       r.MessageDate,
		PatientName:       r.PatientName,
		HospitalID:        r.HospitalID,
		InsurerName:       r.InsurerName,
		AdministratorName: r.AdministratorName,
		ClaimNumber:       r.ClaimNumber,
		Status:            r.Status,
		Type:              r.Type,
		ClaimDate:         r.ClaimDate,
		SettlementDate:    r.SettlementDate,
		Remarks:           r.Remarks,
		FollowUpDate:      r.FollowUpDate,
		Amounts:           r.Amounts,
		ProcessedAt:       r.ProcessedAt,
	}
}

// HistoryView is the JSON shape of a claim history entry.
type HistoryView struct {
	MessageID      string    `json:"message_id"`
	MessageDate    time.Time `json:"message_date"`
	AmountReceived float64   `json:"amount_received"`
	SettledSoFar   float64   `json:"settled_so_far"`
	Status         string    `json:"status"`
	Remarks        string    `json:"remarks"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewHistoryView converts a history entry for output.
func NewHistoryView(h *model.ClaimHistoryEntry) HistoryView {
	return HistoryView{
		MessageID:      h.MessageID,
		MessageDate:    h.MessageDate,
		AmountReceived: h.AmountReceived,
		SettledSoFar:   h.SettledSoFar,
		Status:         h.Status,
		Remarks:        h.Remarks,
		CreatedAt:      h.CreatedAt,
	}
}

// LogView is the JSON shape of a processing log entry.
type LogView struct {
	RunID     string          `json:"run_id"`
	MessageID string          `json:"message_id"`
	Subject   string          `json:"subject"`
	Status    model.LogStatus `json:"status"`
	Error     *string         `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewLogView converts a log entry for output.
func NewLogView(l *model.ProcessingLogEntry) LogView {
	return LogView{
		RunID:     l.RunID.String(),
		MessageID: l.MessageID,
		Subject:   l.Subject,
		Status:    l.Status,
		Error:     l.Error,
		Timestamp: l.Timestamp,
	}
}
