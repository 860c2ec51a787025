// Package extract turns raw claim correspondence into reconciled drafts by
// trying an ordered chain of extraction strategies.
package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
	"github.com/gyeh/claimledger/internal/reconcile"
)

var (
	// ErrEmptyText is returned when there is nothing to extract from.
	ErrEmptyText = errors.New("extract: empty text")
	// ErrInvalidDraft marks a draft that parsed but is not plausible.
	ErrInvalidDraft = errors.New("extract: draft failed validation")
	// ErrBackendUnavailable wraps transport and quota failures of a backend.
	ErrBackendUnavailable = errors.New("extract: backend unavailable")
)

// StrategyFunc extracts a draft from raw text. Any error advances the chain.
type StrategyFunc func(ctx context.Context, text string) (*model.ClaimDraft, error)

// Strategy is a named step of the extraction chain.
type Strategy struct {
	Name string
	Run  StrategyFunc
	// PaymentAdviceOverride forces Settled when the source text reads like a
	// payment advice. Set for model-backed strategies.
	PaymentAdviceOverride bool
}

// Orchestrator runs strategies in order; the first valid draft wins and the
// regex fallback is used when none succeeds.
type Orchestrator struct {
	strategies []Strategy
	log        zerolog.Logger
}

// NewOrchestrator builds an orchestrator over the given strategies.
func NewOrchestrator(log zerolog.Logger, strategies ...Strategy) *Orchestrator {
	return &Orchestrator{strategies: strategies, log: log}
}

// Extract produces a reconciled draft for text. It only fails with
// ErrEmptyText; every other failure falls through to the regex fallback.
func (o *Orchestrator) Extract(ctx context.Context, text string) (*model.ClaimDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	for _, s := range o.strategies {
		start := time.Now()
		d, err := s.Run(ctx, text)
		if err == nil && !ValidateDraft(d) {
			err = ErrInvalidDraft
		}
		if err != nil {
			o.log.Warn().Err(err).Str("strategy", s.Name).Dur("duration", time.Since(start)).Msg("extraction strategy failed, trying next")
			continue
		}
		if s.PaymentAdviceOverride {
			ApplyPaymentAdviceOverride(d, text)
		}
		d.Source = s.Name
		o.log.Debug().Str("strategy", s.Name).Dur("duration", time.Since(start)).Msg("extraction succeeded")
		return reconcile.Draft(d), nil
	}

	o.log.Info().Msg("no structured extraction succeeded, using regex fallback")
	d := RegexExtract(text)
	d.Source = RegexStrategyName
	return reconcile.Draft(d), nil
}

// ValidateDraft reports whether a draft is usable output. A patient name,
// when present, must look like a name rather than a number or code.
func ValidateDraft(d *model.ClaimDraft) bool {
	if d == nil {
		return false
	}
	if d.PatientName == nil || strings.TrimSpace(*d.PatientName) == "" {
		return true
	}
	return normalize.ValidPatientName(*d.PatientName)
}

// truncate bounds text to limit runes before it goes to a size-limited backend.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
