// Package reconcile enforces the accounting relationships between the
// amounts of a claim draft. Every function here is pure over its argument.
package reconcile

import (
	"math"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

// rejectedTolerance is how far an extracted rejected amount may drift from
// total_bill - approved before it is recomputed.
const rejectedTolerance = 1.0

// Draft sanitizes d and applies the mandatory accounting formulas in place.
// It returns d for chaining. A nil draft is returned unchanged.
func Draft(d *model.ClaimDraft) *model.ClaimDraft {
	if d == nil {
		return nil
	}
	coerceAmounts(&d.Amounts)
	sanitizeText(d)
	normalizeDates(d)
	backfillGross(&d.Amounts)
	applyFormulas(d)
	return d
}

func coerceAmounts(a *model.Amounts) {
	for _, f := range a.Fields() {
		*f.Value = normalize.Financial(*f.Value)
	}
}

func sanitizeText(d *model.ClaimDraft) {
	d.ClaimNumber = normalize.CleanClaimNumber(normalize.CleanPlaceholder(d.ClaimNumber))

	d.PatientName = normalize.CleanPlaceholder(d.PatientName)
	if d.PatientName != nil {
		d.PatientName = normalize.OptStr(normalize.CleanPatientName(*d.PatientName))
	}

	d.HospitalID = trimmed(normalize.CleanPlaceholder(d.HospitalID))
	d.InsurerName = trimmed(normalize.CleanPlaceholder(d.InsurerName))
	d.AdministratorName = trimmed(normalize.CleanPlaceholder(d.AdministratorName))
	d.Remarks = trimmed(normalize.CleanPlaceholder(d.Remarks))
}

func normalizeDates(d *model.ClaimDraft) {
	d.ClaimDate = normalize.NormalizeDatePtr(normalize.CleanPlaceholder(d.ClaimDate))
	d.SettlementDate = normalize.NormalizeDatePtr(normalize.CleanPlaceholder(d.SettlementDate))
	d.FollowUpDate = normalize.NormalizeDatePtr(normalize.CleanPlaceholder(d.FollowUpDate))
}

// backfillGross fills the gross figures from each other: a missing total
// bill falls back to the claimed amount and then to the settled amount, and a
// missing claimed amount defaults to the total bill.
func backfillGross(a *model.Amounts) {
	if a.TotalBill == 0 {
		switch {
		case a.Claim > 0:
			a.TotalBill = a.Claim
		case a.Settled > 0:
			a.TotalBill = a.Settled
		}
	}
	if a.Claim == 0 {
		a.Claim = a.TotalBill
	}
}

func applyFormulas(d *model.ClaimDraft) {
	a := &d.Amounts
	total, approved := a.TotalBill, a.Approved

	calculatedRejected := math.Max(0, total-approved)
	if a.Rejected == 0 || math.Abs(a.Rejected-calculatedRejected) > rejectedTolerance {
		a.Rejected = calculatedRejected
	}
	a.PatientPayable = math.Max(0, total-approved)

	status := d.Status
	if status == "" {
		status = model.StatusPending
	}

	switch status {
	case model.StatusPending:
		a.Approved = 0
		a.Settled = 0
		a.Rejected = 0
		a.PatientPayable = 0
		a.Balance = total
	case model.StatusSettled:
		a.Balance = 0
		a.PatientPayable = math.Max(0, total-a.Settled)
	default:
		// Approved, Rejected, Queried and PreAuthorized all owe the
		// approved figure less what has already been paid.
		a.Balance = math.Max(0, a.Approved-a.Settled)
	}

	a.Outstanding = a.Balance
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	return normalize.OptStr(*v)
}
