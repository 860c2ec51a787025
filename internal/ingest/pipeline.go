// Package ingest runs a sync: list messages, extract each one into a draft,
// resolve it against the ledger and tally the outcomes.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/model"
)

// Phases reported by PipelineError.
const (
	PhaseSource   = "source"
	PhaseProcess  = "process"
	PhaseMaintain = "maintain"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options tune a sync run.
type Options struct {
	Workers int
	// Maintain runs the ledger maintenance pass after processing.
	Maintain bool
}

// Run executes a sync: preflight → process → maintain. Per-message failures
// are recorded in the processing log and never abort the run.
func Run(ctx context.Context, log zerolog.Logger, src MessageSource, proc *Processor, l ledger.Ledger, opts Options) (*model.SyncSummary, error) {
	totalStart := time.Now()

	// Phase 1: Preflight
	pf, err := Preflight(ctx, log, src)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseSource, Err: err}
	}
	log = log.With().Str("run_id", pf.RunID.String()).Logger()

	// Phase 2: Process
	summary := &model.SyncSummary{RunID: pf.RunID.String(), Messages: int64(len(pf.Messages))}
	if err := process(ctx, log, proc, pf, opts.Workers, summary); err != nil {
		return nil, &PipelineError{Phase: PhaseProcess, Err: err}
	}

	// Phase 3: Maintain
	if opts.Maintain {
		if _, err := Maintain(ctx, l, log); err != nil {
			return nil, &PipelineError{Phase: PhaseMaintain, Err: err}
		}
	}

	summary.Duration = time.Since(totalStart)
	log.Info().
		Int64("messages", summary.Messages).
		Int64("succeeded", summary.Succeeded).
		Int64("skipped", summary.Skipped).
		Int64("failed", summary.Failed).
		Int64("errored", summary.Errored).
		Str("total_duration", summary.Duration.String()).
		Msg("sync complete")

	return summary, nil
}

func process(ctx context.Context, log zerolog.Logger, proc *Processor, pf *PreflightResult, workers int, summary *model.SyncSummary) error {
	start := time.Now()
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pf.Messages {
		msg := &pf.Messages[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			status, err := proc.Process(gctx, pf.RunID, msg)
			if err != nil {
				log.Error().Err(err).Str("message_id", msg.ID).Msg("could not record message outcome")
			}
			mu.Lock()
			summary.Record(status)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info().
		Int("workers", workers).
		Dur("duration", time.Since(start)).
		Msg("processing complete")
	return nil
}
