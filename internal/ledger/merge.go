package ledger

import (
	"strings"
	"time"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

// PlaceholderPatientName is stored for claims identified only by number.
const PlaceholderPatientName = "Hospital Payment / Bulk Claim"

// IsJunk reports whether a stored record is a placeholder with nothing worth
// keeping: placeholder name, no claim number and no money recorded.
func IsJunk(r *model.ClaimRecord) bool {
	if r.PatientName == nil || !strings.Contains(strings.ToLower(*r.PatientName), strings.ToLower(PlaceholderPatientName)) {
		return false
	}
	if r.ClaimNumber != nil && *r.ClaimNumber != "" {
		return false
	}
	return r.Settled == 0 && r.TotalBill == 0
}

// newRecord builds the record stored for a draft that matched nothing.
func newRecord(d *model.ClaimDraft, messageID string, messageDate, now time.Time) *model.ClaimRecord {
	r := &model.ClaimRecord{
		MessageID:         messageID,
		MessageDate:       messageDate,
		PatientName:       d.PatientName,
		HospitalID:        d.HospitalID,
		InsurerName:       d.InsurerName,
		AdministratorName: firstNonNil(d.AdministratorName, d.InsurerName),
		ClaimNumber:       d.ClaimNumber,
		Status:            d.Status,
		Type:              d.Type,
		ClaimDate:         d.ClaimDate,
		SettlementDate:    d.SettlementDate,
		Remarks:           d.Remarks,
		FollowUpDate:      d.FollowUpDate,
		Amounts:           d.Amounts,
		ProcessedAt:       now,
	}
	if r.PatientName == nil && r.ClaimNumber != nil {
		name := PlaceholderPatientName
		r.PatientName = &name
	}
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	if r.Type == "" {
		r.Type = model.TypeGeneral
	}
	return r
}

// mergeInto applies d to existing without ever regressing a known value to
// an absent one.
func mergeInto(existing *model.ClaimRecord, d *model.ClaimDraft, messageID string, messageDate, now time.Time) {
	existing.MessageID = messageID
	existing.MessageDate = messageDate
	existing.ProcessedAt = now

	switch {
	case d.PatientName != nil:
		existing.PatientName = d.PatientName
	case existing.PatientName != nil && normalize.IsNoisyPatientName(*existing.PatientName):
		existing.PatientName = normalize.OptStr(normalize.CleanPatientName(*existing.PatientName))
	}

	switch {
	case d.ClaimNumber != nil && !normalize.IsGarbageClaimNumber(*d.ClaimNumber):
		existing.ClaimNumber = d.ClaimNumber
	case existing.ClaimNumber != nil && normalize.IsGarbageClaimNumber(*existing.ClaimNumber):
		existing.ClaimNumber = nil
	}

	existing.HospitalID = firstNonNil(d.HospitalID, existing.HospitalID)
	existing.InsurerName = firstNonNil(d.InsurerName, existing.InsurerName)
	existing.AdministratorName = firstNonNil(d.AdministratorName, existing.AdministratorName, existing.InsurerName)

	if d.Status != "" {
		existing.Status = d.Status
	}
	if d.Type != "" {
		existing.Type = d.Type
	}
	existing.ClaimDate = firstNonNil(d.ClaimDate, existing.ClaimDate)
	existing.SettlementDate = firstNonNil(d.SettlementDate, existing.SettlementDate)
	existing.Remarks = firstNonNil(d.Remarks, existing.Remarks)
	existing.FollowUpDate = firstNonNil(d.FollowUpDate, existing.FollowUpDate)

	// A zero amount means "not reported"; it never replaces a stored value.
	incoming := d.Amounts
	src := incoming.Fields()
	for i, dst := range existing.Amounts.Fields() {
		if v := *src[i].Value; v != 0 {
			*dst.Value = v
		}
	}
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
