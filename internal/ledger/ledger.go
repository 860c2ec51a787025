// Package ledger persists claim records, their history and the per-message
// processing log, and resolves extracted drafts against what is stored.
package ledger

import (
	"context"
	"errors"

	"github.com/gyeh/claimledger/internal/model"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("ledger: not found")

// Store is the unit-of-work view the resolver reads and writes through.
type Store interface {
	FindByMessageID(ctx context.Context, messageID string) (*model.ClaimRecord, error)
	FindByClaimNumber(ctx context.Context, claimNumber string) (*model.ClaimRecord, error)
	FindByPatientAndHospitalID(ctx context.Context, patientName, hospitalID string) (*model.ClaimRecord, error)
	Create(ctx context.Context, r *model.ClaimRecord) error
	Update(ctx context.Context, r *model.ClaimRecord) error
	HistoryExists(ctx context.Context, claimNumber *string, messageID string) (bool, error)
	AppendHistory(ctx context.Context, h *model.ClaimHistoryEntry) error
	AppendLog(ctx context.Context, l *model.ProcessingLogEntry) error
}

// ClaimFilter narrows ListClaims. Zero values mean "any" and "no limit".
type ClaimFilter struct {
	Status model.ClaimStatus
	Limit  int
}

// Ledger is a Store that also runs atomic units of work, answers read
// queries and performs maintenance.
type Ledger interface {
	Store

	// InTx runs fn against a transactional view. Nothing fn wrote is kept
	// when it returns an error.
	InTx(ctx context.Context, fn func(s Store) error) error

	ListClaims(ctx context.Context, f ClaimFilter) ([]model.ClaimRecord, error)
	ListHistory(ctx context.Context, claimNumber string) ([]model.ClaimHistoryEntry, error)
	ListLogs(ctx context.Context, limit int) ([]model.ProcessingLogEntry, error)
	CountLogsByStatus(ctx context.Context) (map[model.LogStatus]int64, error)
	LastMessageID(ctx context.Context) (string, error)

	CleanupJunk(ctx context.Context) (int64, error)
	RepairSettledBalances(ctx context.Context) (int64, error)
	BackfillDefaults(ctx context.Context) (int64, error)
}
