package ledger

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gyeh/claimledger/internal/model"
)

// Memory is an in-process Ledger. Transactions are serialized and applied
// to a copy of the state that replaces the original only on success.
type Memory struct {
	mu sync.Mutex
	st *memState
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{st: &memState{}}
}

type memState struct {
	claims  []model.ClaimRecord
	history []model.ClaimHistoryEntry
	logs    []model.ProcessingLogEntry
	nextID  int64
}

func (s *memState) clone() *memState {
	return &memState{
		claims:  append([]model.ClaimRecord(nil), s.claims...),
		history: append([]model.ClaimHistoryEntry(nil), s.history...),
		logs:    append([]model.ProcessingLogEntry(nil), s.logs...),
		nextID:  s.nextID,
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memState) find(match func(r *model.ClaimRecord) bool) (*model.ClaimRecord, error) {
	for i := range s.claims {
		if match(&s.claims[i]) {
			r := s.claims[i]
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memState) FindByMessageID(_ context.Context, messageID string) (*model.ClaimRecord, error) {
	return s.find(func(r *model.ClaimRecord) bool { return r.MessageID == messageID })
}

func (s *memState) FindByClaimNumber(_ context.Context, claimNumber string) (*model.ClaimRecord, error) {
	return s.find(func(r *model.ClaimRecord) bool {
		return r.ClaimNumber != nil && *r.ClaimNumber == claimNumber
	})
}

func (s *memState) FindByPatientAndHospitalID(_ context.Context, patientName, hospitalID string) (*model.ClaimRecord, error) {
	return s.find(func(r *model.ClaimRecord) bool {
		return r.PatientName != nil && r.HospitalID != nil &&
			strings.EqualFold(*r.PatientName, patientName) && *r.HospitalID == hospitalID
	})
}

func (s *memState) Create(_ context.Context, r *model.ClaimRecord) error {
	r.ID = s.id()
	s.claims = append(s.claims, *r)
	return nil
}

func (s *memState) Update(_ context.Context, r *model.ClaimRecord) error {
	for i := range s.claims {
		if s.claims[i].ID == r.ID {
			s.claims[i] = *r
			return nil
		}
	}
	return ErrNotFound
}

func (s *memState) HistoryExists(_ context.Context, claimNumber *string, messageID string) (bool, error) {
	for _, h := range s.history {
		if h.MessageID == messageID && sameOptional(h.ClaimNumber, claimNumber) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memState) AppendHistory(ctx context.Context, h *model.ClaimHistoryEntry) error {
	if dup, _ := s.HistoryExists(ctx, h.ClaimNumber, h.MessageID); dup {
		return nil
	}
	h.ID = s.id()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	s.history = append(s.history, *h)
	return nil
}

func (s *memState) AppendLog(_ context.Context, l *model.ProcessingLogEntry) error {
	l.ID = s.id()
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	s.logs = append(s.logs, *l)
	return nil
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Store methods lock the ledger for the duration of one call.

func (m *Memory) FindByMessageID(ctx context.Context, messageID string) (*model.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.FindByMessageID(ctx, messageID)
}

func (m *Memory) FindByClaimNumber(ctx context.Context, claimNumber string) (*model.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.FindByClaimNumber(ctx, claimNumber)
}

func (m *Memory) FindByPatientAndHospitalID(ctx context.Context, patientName, hospitalID string) (*model.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.FindByPatientAndHospitalID(ctx, patientName, hospitalID)
}

func (m *Memory) Create(ctx context.Context, r *model.ClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Create(ctx, r)
}

func (m *Memory) Update(ctx context.Context, r *model.ClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Update(ctx, r)
}

func (m *Memory) HistoryExists(ctx context.Context, claimNumber *string, messageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.HistoryExists(ctx, claimNumber, messageID)
}

func (m *Memory) AppendHistory(ctx context.Context, h *model.ClaimHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.AppendHistory(ctx, h)
}

func (m *Memory) AppendLog(ctx context.Context, l *model.ProcessingLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.AppendLog(ctx, l)
}

// InTx holds the ledger lock for the whole unit of work.
func (m *Memory) InTx(ctx context.Context, fn func(s Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (m *Memory) ListClaims(_ context.Context, f ClaimFilter) ([]model.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ClaimRecord
	for _, r := range m.st.claims {
		if f.Status == "" || r.Status == f.Status {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MessageDate.Equal(out[j].MessageDate) {
			return out[i].MessageDate.After(out[j].MessageDate)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) ListHistory(_ context.Context, claimNumber string) ([]model.ClaimHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ClaimHistoryEntry
	for _, h := range m.st.history {
		if h.ClaimNumber != nil && *h.ClaimNumber == claimNumber {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MessageDate.Before(out[j].MessageDate) })
	return out, nil
}

func (m *Memory) ListLogs(_ context.Context, limit int) ([]model.ProcessingLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ProcessingLogEntry, 0, len(m.st.logs))
	for i := len(m.st.logs) - 1; i >= 0; i-- {
		out = append(out, m.st.logs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) CountLogsByStatus(_ context.Context) (map[model.LogStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.LogStatus]int64)
	for _, l := range m.st.logs {
		out[l.Status]++
	}
	return out, nil
}

func (m *Memory) LastMessageID(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.st.logs) - 1; i >= 0; i-- {
		if s := m.st.logs[i].Status; s == model.LogSuccess || s == model.LogSkipped {
			return m.st.logs[i].MessageID, nil
		}
	}
	return "", ErrNotFound
}

func (m *Memory) CleanupJunk(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.st.claims[:0]
	var removed int64
	for _, r := range m.st.claims {
		if IsJunk(&r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.st.claims = kept
	return removed, nil
}

func (m *Memory) RepairSettledBalances(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.st.claims {
		r := &m.st.claims[i]
		if r.Status != model.StatusSettled {
			continue
		}
		payable := math.Max(0, r.TotalBill-r.Settled)
		if r.Balance == 0 && r.Outstanding == 0 && r.PatientPayable == payable {
			continue
		}
		r.Balance, r.Outstanding, r.PatientPayable = 0, 0, payable
		n++
	}
	return n, nil
}

func (m *Memory) BackfillDefaults(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.st.claims {
		r := &m.st.claims[i]
		changed := false
		if r.Claim == 0 && r.TotalBill > 0 {
			r.Claim = r.TotalBill
			changed = true
		}
		if (r.AdministratorName == nil || *r.AdministratorName == "") && r.InsurerName != nil && *r.InsurerName != "" {
			r.AdministratorName = r.InsurerName
			changed = true
		}
		if changed {
			n++
		}
	}
	return n, nil
}

var _ Ledger = (*Memory)(nil)
