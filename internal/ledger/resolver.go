package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/model"
)

// Reasons recorded on Skipped and Failed log entries.
const (
	ReasonInsufficientIdentifiers = "insufficient identifiers"
	ReasonNewerDataExists         = "newer data exists"
	ReasonEmptyExtraction         = "extraction returned empty"
)

// MessageRef identifies the source message a draft was extracted from.
type MessageRef struct {
	RunID       uuid.UUID
	MessageID   string
	MessageDate time.Time
	Subject     string
}

// Outcome is the resolver's decision for one message.
type Outcome struct {
	Status  model.LogStatus
	Reason  string
	Created bool
	Claim   *model.ClaimRecord
}

// Resolver decides whether a draft creates, updates or is discarded against
// the ledger, and writes the record, its history and the processing log.
type Resolver struct {
	ledger Ledger
	locks  KeyedLock
	log    zerolog.Logger
	now    func() time.Time
}

// NewResolver creates a resolver. A nil lock disables per-claim locking.
func NewResolver(l Ledger, locks KeyedLock, log zerolog.Logger) *Resolver {
	if locks == nil {
		locks = NoopLock{}
	}
	return &Resolver{
		ledger: l,
		locks:  locks,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Resolve persists the outcome for one message. A nil draft is logged as
// Failed. Exactly one processing log entry is written when Resolve returns
// nil; on error nothing is written and the caller should RecordError.
func (r *Resolver) Resolve(ctx context.Context, ref MessageRef, d *model.ClaimDraft) (Outcome, error) {
	if d == nil {
		out := Outcome{Status: model.LogFailed, Reason: ReasonEmptyExtraction}
		if err := r.ledger.AppendLog(ctx, r.logEntry(ref, out.Status, out.Reason)); err != nil {
			return Outcome{}, fmt.Errorf("logging failed extraction for %s: %w", ref.MessageID, err)
		}
		return out, nil
	}

	unlock, err := LockAll(ctx, r.locks, lockKeys(d)...)
	if err != nil {
		return Outcome{}, fmt.Errorf("locking claim for %s: %w", ref.MessageID, err)
	}
	defer unlock()

	var out Outcome
	err = r.ledger.InTx(ctx, func(s Store) error {
		var err error
		out, err = r.decide(ctx, s, ref, d)
		if err != nil {
			return err
		}
		return s.AppendLog(ctx, r.logEntry(ref, out.Status, out.Reason))
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("resolving message %s: %w", ref.MessageID, err)
	}

	ev := r.log.Info()
	if out.Status != model.LogSuccess {
		ev = r.log.Warn()
	}
	ev.Str("message_id", ref.MessageID).Str("status", string(out.Status)).Str("reason", out.Reason).
		Bool("created", out.Created).Msg("message resolved")
	return out, nil
}

// RecordError logs an unexpected failure for one message.
func (r *Resolver) RecordError(ctx context.Context, ref MessageRef, cause error) error {
	detail := "unknown error"
	if cause != nil {
		detail = cause.Error()
	}
	if err := r.ledger.AppendLog(ctx, r.logEntry(ref, model.LogError, detail)); err != nil {
		return fmt.Errorf("logging error for %s: %w", ref.MessageID, err)
	}
	return nil
}

func (r *Resolver) decide(ctx context.Context, s Store, ref MessageRef, d *model.ClaimDraft) (Outcome, error) {
	existing, err := match(ctx, s, ref.MessageID, d)
	if err != nil {
		return Outcome{}, err
	}
	now := r.now()

	if existing == nil {
		if !sufficientIdentity(d) {
			return Outcome{Status: model.LogSkipped, Reason: ReasonInsufficientIdentifiers}, nil
		}
		rec := newRecord(d, ref.MessageID, ref.MessageDate, now)
		if err := s.Create(ctx, rec); err != nil {
			return Outcome{}, err
		}
		h := &model.ClaimHistoryEntry{
			ClaimNumber:    rec.ClaimNumber,
			MessageID:      ref.MessageID,
			MessageDate:    ref.MessageDate,
			AmountReceived: rec.Settled,
			SettledSoFar:   rec.Settled,
			Status:         string(rec.Status),
			Remarks:        "Initial Create",
			CreatedAt:      now,
		}
		if err := appendHistoryOnce(ctx, s, h); err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: model.LogSuccess, Created: true, Claim: rec}, nil
	}

	if ref.MessageDate.Before(existing.MessageDate) {
		return Outcome{Status: model.LogSkipped, Reason: ReasonNewerDataExists, Claim: existing}, nil
	}

	mergeInto(existing, d, ref.MessageID, ref.MessageDate, now)
	if err := s.Update(ctx, existing); err != nil {
		return Outcome{}, err
	}
	remarks := "Update: "
	if d.Remarks != nil {
		remarks += *d.Remarks
	}
	h := &model.ClaimHistoryEntry{
		ClaimNumber:    existing.ClaimNumber,
		MessageID:      ref.MessageID,
		MessageDate:    ref.MessageDate,
		AmountReceived: d.Settled,
		SettledSoFar:   existing.Settled,
		Status:         string(existing.Status),
		Remarks:        remarks,
		CreatedAt:      now,
	}
	if err := appendHistoryOnce(ctx, s, h); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: model.LogSuccess, Claim: existing}, nil
}

// match applies the lookup priority: same message, same claim number, then
// same patient name and hospital id.
func match(ctx context.Context, s Store, messageID string, d *model.ClaimDraft) (*model.ClaimRecord, error) {
	lookups := []func() (*model.ClaimRecord, error){
		func() (*model.ClaimRecord, error) { return s.FindByMessageID(ctx, messageID) },
	}
	if d.ClaimNumber != nil {
		lookups = append(lookups, func() (*model.ClaimRecord, error) {
			return s.FindByClaimNumber(ctx, *d.ClaimNumber)
		})
	}
	if d.PatientName != nil && d.HospitalID != nil {
		lookups = append(lookups, func() (*model.ClaimRecord, error) {
			return s.FindByPatientAndHospitalID(ctx, *d.PatientName, *d.HospitalID)
		})
	}
	for _, find := range lookups {
		rec, err := find()
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, nil
}

// sufficientIdentity decides whether an unmatched draft may create a record.
// Without a claim number both patient name and hospital id are required.
// With one, some patient identity is still required unless the draft is a
// settlement, which is often an anonymous bank transfer advice.
func sufficientIdentity(d *model.ClaimDraft) bool {
	if d.ClaimNumber == nil {
		return d.PatientName != nil && d.HospitalID != nil
	}
	if d.Status == model.StatusSettled {
		return true
	}
	return d.PatientName != nil || d.HospitalID != nil
}

func appendHistoryOnce(ctx context.Context, s Store, h *model.ClaimHistoryEntry) error {
	exists, err := s.HistoryExists(ctx, h.ClaimNumber, h.MessageID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.AppendHistory(ctx, h)
}

func (r *Resolver) logEntry(ref MessageRef, status model.LogStatus, detail string) *model.ProcessingLogEntry {
	e := &model.ProcessingLogEntry{
		RunID:     ref.RunID,
		MessageID: ref.MessageID,
		Subject:   ref.Subject,
		Status:    status,
		Timestamp: r.now(),
	}
	if detail != "" {
		e.Error = &detail
	}
	return e
}

// lockKeys names the identities a draft could resolve to.
func lockKeys(d *model.ClaimDraft) []string {
	var keys []string
	if d.ClaimNumber != nil {
		keys = append(keys, "claim:"+*d.ClaimNumber)
	}
	if d.PatientName != nil && d.HospitalID != nil {
		keys = append(keys, "patient:"+strings.ToLower(*d.PatientName)+"|"+*d.HospitalID)
	}
	return keys
}
