package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/extract"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/model"
)

// DraftExtractor turns combined message text into a reconciled draft.
type DraftExtractor interface {
	Extract(ctx context.Context, text string) (*model.ClaimDraft, error)
}

// MessageResolver persists one message's outcome.
type MessageResolver interface {
	Resolve(ctx context.Context, ref ledger.MessageRef, d *model.ClaimDraft) (ledger.Outcome, error)
	RecordError(ctx context.Context, ref ledger.MessageRef, cause error) error
}

// Processor handles a single message end to end.
type Processor struct {
	attachments model.AttachmentReader
	extractor   DraftExtractor
	resolver    MessageResolver
	log         zerolog.Logger
}

// NewProcessor wires a processor. attachments may be nil to ignore
// attachments entirely.
func NewProcessor(attachments model.AttachmentReader, ex DraftExtractor, res MessageResolver, log zerolog.Logger) *Processor {
	return &Processor{attachments: attachments, extractor: ex, resolver: res, log: log}
}

// Draft builds the combined text for msg and extracts it. A nil draft with
// a nil error means there was nothing to extract.
func (p *Processor) Draft(ctx context.Context, msg *model.Message) (*model.ClaimDraft, error) {
	d, err := p.extractor.Extract(ctx, msg.CombinedText(p.attachments))
	if errors.Is(err, extract.ErrEmptyText) {
		return nil, nil
	}
	return d, err
}

// Process extracts and resolves msg, returning the status that was logged.
// Errors and panics are recorded as Error entries; the returned error is
// non-nil only when that record itself could not be written.
func (p *Processor) Process(ctx context.Context, runID uuid.UUID, msg *model.Message) (status model.LogStatus, err error) {
	start := time.Now()
	ref := ledger.MessageRef{
		RunID:       runID,
		MessageID:   msg.ID,
		MessageDate: msg.Date,
		Subject:     msg.Subject,
	}
	log := p.log.With().Str("message_id", msg.ID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("message processing panicked")
			status, err = p.fail(ctx, ref, fmt.Errorf("panic: %v", r))
		}
	}()

	d, err := p.Draft(ctx, msg)
	if err != nil {
		return p.fail(ctx, ref, fmt.Errorf("extract: %w", err))
	}
	out, err := p.resolver.Resolve(ctx, ref, d)
	if err != nil {
		return p.fail(ctx, ref, err)
	}

	ev := log.Debug()
	if d != nil {
		ev = ev.Str("strategy", d.Source)
	}
	ev.Str("status", string(out.Status)).Dur("duration", time.Since(start)).Msg("message processed")
	return out.Status, nil
}

func (p *Processor) fail(ctx context.Context, ref ledger.MessageRef, cause error) (model.LogStatus, error) {
	p.log.Error().Err(cause).Str("message_id", ref.MessageID).Msg("message processing failed")
	if err := p.resolver.RecordError(ctx, ref, cause); err != nil {
		return model.LogError, err
	}
	return model.LogError, nil
}
