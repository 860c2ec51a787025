package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPrimary(srv *httptest.Server) *OpenAIBackend {
	return NewOpenAIBackend(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())
}

func TestOrchestrator_EmptyText(t *testing.T) {
	o := NewOrchestrator(zerolog.Nop())
	d, err := o.Extract(context.Background(), "  \n\t ")
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOrchestrator_PrimarySuccess(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{
		"patient_name": "Details Patient Name Asha Rao",
		"hospital_id": "UH-1001",
		"claim_number": "CLM-2025-0042",
		"claim_status": "Approved",
		"claim_type": "cashless",
		"total_bill_amount": "Rs. 1,20,000",
		"approved_amount": 100000,
		"settled_amount": 0,
		"claim_date": "05/09/2025"
	}`)
	o := NewOrchestrator(zerolog.Nop(), newPrimary(srv).Strategy())

	d, err := o.Extract(context.Background(), "Claim approval letter for Asha Rao")
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, PrimaryStrategyName, d.Source)
	assert.Equal(t, "Asha Rao", normalize.DerefStr(d.PatientName))
	assert.Equal(t, model.StatusApproved, d.Status)
	assert.Equal(t, model.TypeCashless, d.Type)
	assert.Equal(t, "2025-09-05", normalize.DerefStr(d.ClaimDate))
	assert.Equal(t, 120000.0, d.TotalBill)
	assert.Equal(t, 120000.0, d.Claim)
	assert.Equal(t, 20000.0, d.Rejected)
	assert.Equal(t, 100000.0, d.Balance)
}

func TestOrchestrator_PaymentAdviceOverridesModelStatus(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"patient_name":"Asha Rao","claim_number":"CLM-2025-0042","claim_status":"Approved","total_bill_amount":1000,"approved_amount":900,"settled_amount":900}`)
	o := NewOrchestrator(zerolog.Nop(), newPrimary(srv).Strategy())

	d, err := o.Extract(context.Background(), "Payment advice. UTR No: HDFC0001 credited")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSettled, d.Status)
	assert.Equal(t, 0.0, d.Balance)
	assert.Equal(t, 100.0, d.PatientPayable)
}

func TestOrchestrator_InvalidNameFallsThrough(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"patient_name":"12345","claim_number":"CLM-1"}`)
	o := NewOrchestrator(zerolog.Nop(), newPrimary(srv).Strategy())

	d, err := o.Extract(context.Background(), paymentAdviceText)
	require.NoError(t, err)
	assert.Equal(t, RegexStrategyName, d.Source)
	assert.Equal(t, "Rajesh Kumar", normalize.DerefStr(d.PatientName))
	assert.Equal(t, "2025-09-12", normalize.DerefStr(d.SettlementDate))
}

func TestOrchestrator_BackendErrorFallsThrough(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, "")
	primary := newPrimary(srv)

	_, err := primary.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	o := NewOrchestrator(zerolog.Nop(), primary.Strategy())
	d, err := o.Extract(context.Background(), paymentAdviceText)
	require.NoError(t, err)
	assert.Equal(t, RegexStrategyName, d.Source)
	assert.Equal(t, model.StatusSettled, d.Status)
}

func TestOrchestrator_StrategyOrder(t *testing.T) {
	var calls []string
	failing := Strategy{Name: "first", Run: func(ctx context.Context, text string) (*model.ClaimDraft, error) {
		calls = append(calls, "first")
		return nil, errors.New("boom")
	}}
	second := Strategy{Name: "second", Run: func(ctx context.Context, text string) (*model.ClaimDraft, error) {
		calls = append(calls, "second")
		return &model.ClaimDraft{PatientName: normalize.OptStr("Meera Shah"), Status: model.StatusPending, Amounts: model.Amounts{TotalBill: 500}}, nil
	}}
	never := Strategy{Name: "third", Run: func(ctx context.Context, text string) (*model.ClaimDraft, error) {
		calls = append(calls, "third")
		return nil, nil
	}}

	o := NewOrchestrator(zerolog.Nop(), failing, second, never)
	d, err := o.Extract(context.Background(), "claim letter")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, "second", d.Source)
	assert.Equal(t, 500.0, d.Balance)
}

func TestLocalModel_LazyLoadAndRepair(t *testing.T) {
	var shows, generates atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/show":
			shows.Add(1)
			_, _ = w.Write([]byte(`{"modelfile":"x"}`))
		case "/api/generate":
			generates.Add(1)
			completion := "\"patient_name\": \"Vikram Iyer\", \"claim_number\": \"CLM-88990\", \"claim_status\": \"Rejected\", \"total_bill_amount\": 7000}\nextra words"
			_ = json.NewEncoder(w).Encode(generateResponse{Response: completion})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	lm := NewLocalModel(LocalOptions{BaseURL: srv.URL}, zerolog.Nop())
	assert.False(t, lm.Loaded())

	o := NewOrchestrator(zerolog.Nop(), lm.Strategy())
	for i := 0; i < 2; i++ {
		d, err := o.Extract(context.Background(), "rejection letter")
		require.NoError(t, err)
		assert.Equal(t, LocalStrategyName, d.Source)
		assert.Equal(t, "Vikram Iyer", normalize.DerefStr(d.PatientName))
		assert.Equal(t, model.StatusRejected, d.Status)
		assert.Equal(t, 7000.0, d.Rejected)
	}
	assert.Equal(t, int32(1), shows.Load())
	assert.Equal(t, int32(2), generates.Load())
	assert.True(t, lm.Loaded())

	lm.Close()
	assert.False(t, lm.Loaded())
}

func TestLocalModel_LoadFailureNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	lm := NewLocalModel(LocalOptions{BaseURL: srv.URL}, zerolog.Nop())
	_, err := lm.Get(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	fail.Store(false)
	b, err := lm.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestDecodeDraft_LegacyAliases(t *testing.T) {
	d, err := DecodeDraft([]byte(`{
		"patient_name": "Asha Rao",
		"uhid_mrn": "UH-9",
		"insurance_company": "Star Health",
		"tpa_name": "Medi Assist",
		"claim_status": "Closed",
		"insurance_coverage_percent": "80",
		"tat_followup_date": "2025-10-01",
		"remarks": ["query on bills", "room rent"],
		"settled_amount": null
	}`))
	require.NoError(t, err)
	assert.Equal(t, "UH-9", normalize.DerefStr(d.HospitalID))
	assert.Equal(t, "Star Health", normalize.DerefStr(d.InsurerName))
	assert.Equal(t, "Medi Assist", normalize.DerefStr(d.AdministratorName))
	assert.Equal(t, model.ClaimStatus(""), d.Status)
	assert.Equal(t, 80.0, d.CoveragePercent)
	assert.Equal(t, "2025-10-01", normalize.DerefStr(d.FollowUpDate))
	assert.Equal(t, "query on bills; room rent", normalize.DerefStr(d.Remarks))
	assert.Equal(t, 0.0, d.Settled)
}

func TestDecodeDraft_NumericAmounts(t *testing.T) {
	d, err := DecodeDraft([]byte(`{
		"patient_name": "Asha Rao",
		"claim_status": "Settled",
		"total_bill_amount": 1.2e5,
		"claim_amount": "Rs. 1,20,000",
		"approved_amount": -500,
		"settled_amount": -500.0,
		"balance_amount": 2.5E3
	}`))
	require.NoError(t, err)
	assert.Equal(t, 120000.0, d.TotalBill)
	assert.Equal(t, 120000.0, d.Claim)
	assert.Equal(t, 0.0, d.Approved)
	assert.Equal(t, 0.0, d.Settled)
	assert.Equal(t, 2500.0, d.Balance)
}

func TestDecodeDraft_Invalid(t *testing.T) {
	_, err := DecodeDraft([]byte(`not json`))
	assert.Error(t, err)
	_, err = DecodeDraft([]byte(`null`))
	assert.ErrorIs(t, err, ErrInvalidDraft)
}

func TestRepairLocalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"continuation", `"a": 1} trailing`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unterminated", `"a": 1`, `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairLocalJSON(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
}
