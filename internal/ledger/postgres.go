package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/claimledger/internal/db"
	"github.com/gyeh/claimledger/internal/model"
	embedsql "github.com/gyeh/claimledger/internal/sql"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Ledger backed by the claims, claim_history and
// processing_logs tables.
type Postgres struct {
	pgStore
	pool *pgxpool.Pool
}

// NewPostgres wraps a pool. Migrations must already be applied.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pgStore: pgStore{q: pool}, pool: pool}
}

// InTx runs fn on a connection-scoped transaction checked out of the pool.
func (p *Postgres) InTx(ctx context.Context, fn func(s Store) error) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&pgStore{q: tx})
	})
}

type pgStore struct {
	q querier
}

func scanClaim(row pgx.Row) (*model.ClaimRecord, error) {
	var (
		r           model.ClaimRecord
		status, typ string
	)
	err := row.Scan(
		&r.ID, &r.MessageID, &r.MessageDate, &r.PatientName, &r.HospitalID, &r.InsurerName,
		&r.AdministratorName, &r.ClaimNumber, &status, &typ, &r.ClaimDate,
		&r.SettlementDate, &r.Remarks, &r.FollowUpDate, &r.TotalBill, &r.Claim,
		&r.Approved, &r.Settled, &r.Rejected, &r.PatientPayable,
		&r.Balance, &r.Outstanding, &r.CoveragePercent, &r.ProcessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status = model.ClaimStatus(status)
	r.Type = model.ClaimType(typ)
	return &r, nil
}

func (s *pgStore) FindByMessageID(ctx context.Context, messageID string) (*model.ClaimRecord, error) {
	r, err := scanClaim(s.q.QueryRow(ctx, embedsql.FindByMessageID, messageID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find claim by message id: %w", err)
	}
	return r, err
}

func (s *pgStore) FindByClaimNumber(ctx context.Context, claimNumber string) (*model.ClaimRecord, error) {
	r, err := scanClaim(s.q.QueryRow(ctx, embedsql.FindByClaimNumber, claimNumber))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find claim by number: %w", err)
	}
	return r, err
}

func (s *pgStore) FindByPatientAndHospitalID(ctx context.Context, patientName, hospitalID string) (*model.ClaimRecord, error) {
	r, err := scanClaim(s.q.QueryRow(ctx, embedsql.FindByPatientHospital, patientName, hospitalID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find claim by patient and hospital id: %w", err)
	}
	return r, err
}

func (s *pgStore) Create(ctx context.Context, r *model.ClaimRecord) error {
	if err := s.q.QueryRow(ctx, embedsql.InsertClaim, r.CopyValues()...).Scan(&r.ID); err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *pgStore) Update(ctx context.Context, r *model.ClaimRecord) error {
	args := append([]any{r.ID}, r.CopyValues()...)
	tag, err := s.q.Exec(ctx, embedsql.UpdateClaim, args...)
	if err != nil {
		return fmt.Errorf("update claim %d: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update claim %d: %w", r.ID, ErrNotFound)
	}
	return nil
}

func (s *pgStore) HistoryExists(ctx context.Context, claimNumber *string, messageID string) (bool, error) {
	var exists bool
	if err := s.q.QueryRow(ctx, embedsql.HistoryExists, claimNumber, messageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check history: %w", err)
	}
	return exists, nil
}

func (s *pgStore) AppendHistory(ctx context.Context, h *model.ClaimHistoryEntry) error {
	err := s.q.QueryRow(ctx, embedsql.InsertHistory,
		h.ClaimNumber, h.MessageID, h.MessageDate, h.AmountReceived,
		h.SettledSoFar, h.Status, h.Remarks, h.CreatedAt,
	).Scan(&h.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already recorded for this claim and message.
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *pgStore) AppendLog(ctx context.Context, l *model.ProcessingLogEntry) error {
	err := s.q.QueryRow(ctx, embedsql.InsertLog,
		l.RunID, l.MessageID, l.Subject, string(l.Status), l.Error, l.Timestamp,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}
	return nil
}

func (p *Postgres) ListClaims(ctx context.Context, f ClaimFilter) ([]model.ClaimRecord, error) {
	rows, err := p.pool.Query(ctx, embedsql.ListClaims, string(f.Status), int64(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []model.ClaimRecord
	for rows.Next() {
		r, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *Postgres) ListHistory(ctx context.Context, claimNumber string) ([]model.ClaimHistoryEntry, error) {
	rows, err := p.pool.Query(ctx, embedsql.ListHistory, claimNumber)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []model.ClaimHistoryEntry
	for rows.Next() {
		var h model.ClaimHistoryEntry
		if err := rows.Scan(&h.ID, &h.ClaimNumber, &h.MessageID, &h.MessageDate, &h.AmountReceived,
			&h.SettledSoFar, &h.Status, &h.Remarks, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) ListLogs(ctx context.Context, limit int) ([]model.ProcessingLogEntry, error) {
	rows, err := p.pool.Query(ctx, embedsql.ListLogs, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var out []model.ProcessingLogEntry
	for rows.Next() {
		var (
			l      model.ProcessingLogEntry
			status string
		)
		if err := rows.Scan(&l.ID, &l.RunID, &l.MessageID, &l.Subject, &status, &l.Error, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Status = model.LogStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *Postgres) CountLogsByStatus(ctx context.Context) (map[model.LogStatus]int64, error) {
	rows, err := p.pool.Query(ctx, embedsql.CountLogsByStatus)
	if err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}
	defer rows.Close()

	out := make(map[model.LogStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan log count: %w", err)
		}
		out[model.LogStatus(status)] = n
	}
	return out, rows.Err()
}

func (p *Postgres) LastMessageID(ctx context.Context) (string, error) {
	var id string
	err := p.pool.QueryRow(ctx, embedsql.LastMessageID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("last message id: %w", err)
	}
	return id, nil
}

func (p *Postgres) exec(ctx context.Context, name, query string) (int64, error) {
	tag, err := p.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) CleanupJunk(ctx context.Context) (int64, error) {
	return p.exec(ctx, "cleanup junk claims", embedsql.CleanupJunk)
}

func (p *Postgres) RepairSettledBalances(ctx context.Context) (int64, error) {
	return p.exec(ctx, "repair settled balances", embedsql.RepairSettledBalances)
}

func (p *Postgres) BackfillDefaults(ctx context.Context) (int64, error) {
	return p.exec(ctx, "backfill defaults", embedsql.BackfillDefaults)
}

// CountClaims returns the number of stored claims.
func (p *Postgres) CountClaims(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, embedsql.CountClaims).Scan(&n); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return n, nil
}

// RestoreClaims bulk-loads records from src into an empty claims table.
func (p *Postgres) RestoreClaims(ctx context.Context, src pgx.CopyFromSource) (int64, error) {
	n, err := p.CountClaims(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, fmt.Errorf("restore claims: table already holds %d rows", n)
	}
	copied, err := p.pool.CopyFrom(ctx, pgx.Identifier{"claims"}, model.ClaimColumns(), src)
	if err != nil {
		return 0, fmt.Errorf("copy claims: %w", err)
	}
	return copied, nil
}

var _ Ledger = (*Postgres)(nil)
