package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/claimledger/internal/model"
)

func strp(s string) *string { return &s }

func TestDraft_Pending(t *testing.T) {
	d := &model.ClaimDraft{
		Status:  model.StatusPending,
		Amounts: model.Amounts{TotalBill: 10000, Approved: 8000, Settled: 100, Rejected: 50, PatientPayable: 70},
	}
	Draft(d)

	assert.Equal(t, 0.0, d.Approved)
	assert.Equal(t, 0.0, d.Settled)
	assert.Equal(t, 0.0, d.Rejected)
	assert.Equal(t, 0.0, d.PatientPayable)
	assert.Equal(t, 10000.0, d.Balance)
	assert.Equal(t, 10000.0, d.Outstanding)
}

func TestDraft_Settled(t *testing.T) {
	d := &model.ClaimDraft{
		Status:  model.StatusSettled,
		Amounts: model.Amounts{TotalBill: 10000, Settled: 9000, Balance: 400},
	}
	Draft(d)

	assert.Equal(t, 0.0, d.Balance)
	assert.Equal(t, 1000.0, d.PatientPayable)
	assert.Equal(t, 0.0, d.Outstanding)
	assert.Equal(t, 10000.0, d.Claim)
}

func TestDraft_Approved(t *testing.T) {
	d := &model.ClaimDraft{
		Status:  model.StatusApproved,
		Amounts: model.Amounts{TotalBill: 10000, Approved: 8000, Settled: 3000},
	}
	Draft(d)

	assert.Equal(t, 5000.0, d.Balance)
	assert.Equal(t, 5000.0, d.Outstanding)
	assert.Equal(t, 2000.0, d.Rejected)
	assert.Equal(t, 2000.0, d.PatientPayable)
}

func TestDraft_OtherStatusesOweApprovedLessSettled(t *testing.T) {
	for _, st := range []model.ClaimStatus{model.StatusRejected, model.StatusQueried, model.StatusPreAuthorized} {
		d := &model.ClaimDraft{
			Status:  st,
			Amounts: model.Amounts{TotalBill: 5000, Approved: 1000, Settled: 1500},
		}
		Draft(d)
		assert.Equal(t, 0.0, d.Balance, "status %s", st)
		assert.Equal(t, 4000.0, d.Rejected, "status %s", st)
	}
}

func TestDraft_EmptyStatusTreatedAsPending(t *testing.T) {
	d := &model.ClaimDraft{Amounts: model.Amounts{TotalBill: 700, Approved: 300}}
	Draft(d)
	assert.Equal(t, 700.0, d.Balance)
	assert.Equal(t, 0.0, d.Approved)
}

func TestDraft_RejectedTolerance(t *testing.T) {
	within := &model.ClaimDraft{
		Status:  model.StatusApproved,
		Amounts: model.Amounts{TotalBill: 1000, Approved: 800, Rejected: 200.6},
	}
	Draft(within)
	assert.Equal(t, 200.6, within.Rejected, "drift within tolerance is kept")

	beyond := &model.ClaimDraft{
		Status:  model.StatusApproved,
		Amounts: model.Amounts{TotalBill: 1000, Approved: 800, Rejected: 50},
	}
	Draft(beyond)
	assert.Equal(t, 200.0, beyond.Rejected)
}

func TestDraft_BackfillGross(t *testing.T) {
	fromClaim := &model.ClaimDraft{Status: model.StatusSettled, Amounts: model.Amounts{Claim: 4000, Settled: 3500}}
	Draft(fromClaim)
	assert.Equal(t, 4000.0, fromClaim.TotalBill)
	assert.Equal(t, 500.0, fromClaim.PatientPayable)

	fromSettled := &model.ClaimDraft{Status: model.StatusSettled, Amounts: model.Amounts{Settled: 3500}}
	Draft(fromSettled)
	assert.Equal(t, 3500.0, fromSettled.TotalBill)
	assert.Equal(t, 3500.0, fromSettled.Claim)
	assert.Equal(t, 0.0, fromSettled.PatientPayable)
}

func TestDraft_NegativeAmountsClamped(t *testing.T) {
	d := &model.ClaimDraft{
		Status:  model.StatusApproved,
		Amounts: model.Amounts{TotalBill: -100, Approved: -5, CoveragePercent: -20},
	}
	Draft(d)
	for _, f := range d.Amounts.Fields() {
		assert.GreaterOrEqual(t, *f.Value, 0.0, f.Name)
	}
}

func TestDraft_SanitizesText(t *testing.T) {
	d := &model.ClaimDraft{
		PatientName:       strp("Details Patient Name Rajesh Kumar Insured Empl"),
		ClaimNumber:       strp("Gross"),
		InsurerName:       strp("N/A"),
		AdministratorName: strp("  Medi Assist  "),
		HospitalID:        strp("none"),
		Remarks:           strp("unknown"),
		ClaimDate:         strp("09 Dec 2025"),
		SettlementDate:    strp("null"),
		FollowUpDate:      strp("someday"),
		Status:            model.StatusApproved,
	}
	Draft(d)

	require.NotNil(t, d.PatientName)
	assert.Equal(t, "Rajesh Kumar", *d.PatientName)
	assert.Nil(t, d.ClaimNumber)
	assert.Nil(t, d.InsurerName)
	assert.Nil(t, d.HospitalID)
	assert.Nil(t, d.Remarks)
	require.NotNil(t, d.AdministratorName)
	assert.Equal(t, "Medi Assist", *d.AdministratorName)
	require.NotNil(t, d.ClaimDate)
	assert.Equal(t, "2025-12-09", *d.ClaimDate)
	assert.Nil(t, d.SettlementDate)
	require.NotNil(t, d.FollowUpDate)
	assert.Equal(t, "someday", *d.FollowUpDate)
}

func TestDraft_PatientNameOnlyNoiseBecomesNil(t *testing.T) {
	d := &model.ClaimDraft{PatientName: strp(" Hospital Payment / Bulk Claim")}
	Draft(d)
	assert.Nil(t, d.PatientName)
}

func TestDraft_Nil(t *testing.T) {
	assert.Nil(t, Draft(nil))
}
