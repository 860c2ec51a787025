package model

import "time"

// ClaimParquetRow mirrors the Parquet schema of a ledger snapshot.
// Timestamps are stored as Unix milliseconds.
type ClaimParquetRow struct {
	MessageID         string  `parquet:"message_id"`
	MessageDateMillis int64   `parquet:"message_date_ms"`
	PatientName       *string `parquet:"patient_name,optional"`
	HospitalID        *string `parquet:"hospital_id,optional"`
	InsurerName       *string `parquet:"insurer_name,optional"`
	AdministratorName *string `parquet:"administrator_name,optional"`
	ClaimNumber       *string `parquet:"claim_number,optional"`
	ClaimStatus       string  `parquet:"claim_status"`
	ClaimType         string  `parquet:"claim_type"`
	ClaimDate         *string `parquet:"claim_date,optional"`
	SettlementDate    *string `parquet:"settlement_date,optional"`
	Remarks           *string `parquet:"remarks,optional"`
	FollowUpDate      *string `parquet:"follow_up_date,optional"`

	TotalBillAmount      float64 `parquet:"total_bill_amount"`
	ClaimAmount          float64 `parquet:"claim_amount"`
	ApprovedAmount       float64 `parquet:"approved_amount"`
	SettledAmount        float64 `parquet:"settled_amount"`
	RejectedAmount       float64 `parquet:"rejected_amount"`
	PatientPayableAmount float64 `parquet:"patient_payable_amount"`
	BalanceAmount        float64 `parquet:"balance_amount"`
	OutstandingAmount    float64 `parquet:"outstanding_amount"`
	CoveragePercent      float64 `parquet:"coverage_percent"`

	ProcessedAtMillis int64 `parquet:"processed_at_ms"`
}

// RequiredParquetColumns must be present in any snapshot being restored.
var RequiredParquetColumns = []string{"message_id", "message_date_ms", "claim_status", "total_bill_amount"}

// ToParquetRow flattens a record for snapshot export.
func (r *ClaimRecord) ToParquetRow() ClaimParquetRow {
	return ClaimParquetRow{
		MessageID:            r.MessageID,
		MessageDateMillis:    r.MessageDate.UnixMilli(),
		PatientName:          r.PatientName,
		HospitalID:           r.HospitalID,
		InsurerName:          r.InsurerName,
		AdministratorName:    r.AdministratorName,
		ClaimNumber:          r.ClaimNumber,
		ClaimStatus:          string(r.Status),
		ClaimType:            string(r.Type),
		ClaimDate:            r.ClaimDate,
		SettlementDate:       r.SettlementDate,
		Remarks:              r.Remarks,
		FollowUpDate:         r.FollowUpDate,
		TotalBillAmount:      r.TotalBill,
		ClaimAmount:          r.Claim,
		ApprovedAmount:       r.Approved,
		SettledAmount:        r.Settled,
		RejectedAmount:       r.Rejected,
		PatientPayableAmount: r.PatientPayable,
		BalanceAmount:        r.Balance,
		OutstandingAmount:    r.Outstanding,
		CoveragePercent:      r.CoveragePercent,
		ProcessedAtMillis:    r.ProcessedAt.UnixMilli(),
	}
}

// Record rebuilds a ClaimRecord from a snapshot row.
func (p *ClaimParquetRow) Record() *ClaimRecord {
	return &ClaimRecord{
		MessageID:         p.MessageID,
		MessageDate:       time.UnixMilli(p.MessageDateMillis).UTC(),
		PatientName:       p.PatientName,
		HospitalID:        p.HospitalID,
		InsurerName:       p.InsurerName,
		AdministratorName: p.AdministratorName,
		ClaimNumber:       p.ClaimNumber,
		Status:            ClaimStatus(p.ClaimStatus),
		Type:              ClaimType(p.ClaimType),
		ClaimDate:         p.ClaimDate,
		SettlementDate:    p.SettlementDate,
		Remarks:           p.Remarks,
		FollowUpDate:      p.FollowUpDate,
		Amounts: Amounts{
			TotalBill:       p.TotalBillAmount,
			Claim:           p.ClaimAmount,
			Approved:        p.ApprovedAmount,
			Settled:         p.SettledAmount,
			Rejected:        p.RejectedAmount,
			PatientPayable:  p.PatientPayableAmount,
			Balance:         p.BalanceAmount,
			Outstanding:     p.OutstandingAmount,
			CoveragePercent: p.CoveragePercent,
		},
		ProcessedAt: time.UnixMilli(p.ProcessedAtMillis).UTC(),
	}
}
