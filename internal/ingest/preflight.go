package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/model"
)

// MessageSource yields the messages to sync.
type MessageSource interface {
	Messages(ctx context.Context) ([]model.Message, error)
}

// PreflightResult holds the context resolved before processing starts.
type PreflightResult struct {
	// RunID tags every processing log entry written by this run.
	RunID uuid.UUID
	// Messages are the messages to process, oldest first.
	Messages []model.Message
}

// Preflight lists the source messages and assigns the run id.
func Preflight(ctx context.Context, log zerolog.Logger, src MessageSource) (*PreflightResult, error) {
	start := time.Now()

	msgs, err := src.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	pf := &PreflightResult{RunID: uuid.New(), Messages: msgs}
	log.Info().
		Str("run_id", pf.RunID.String()).
		Int("messages", len(msgs)).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")
	return pf, nil
}
