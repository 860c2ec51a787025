package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/ledger"
)

// MaintenanceResult counts the rows touched by each maintenance step.
type MaintenanceResult struct {
	JunkDeleted    int64
	BalancesFixed  int64
	DefaultsFilled int64
}

// Maintain deletes placeholder junk rows, repairs settled balances and
// backfills defaults, in that order.
func Maintain(ctx context.Context, l ledger.Ledger, log zerolog.Logger) (*MaintenanceResult, error) {
	start := time.Now()
	var res MaintenanceResult
	var err error

	if res.JunkDeleted, err = l.CleanupJunk(ctx); err != nil {
		return nil, fmt.Errorf("cleanup junk: %w", err)
	}
	if res.BalancesFixed, err = l.RepairSettledBalances(ctx); err != nil {
		return nil, fmt.Errorf("repair settled balances: %w", err)
	}
	if res.DefaultsFilled, err = l.BackfillDefaults(ctx); err != nil {
		return nil, fmt.Errorf("backfill defaults: %w", err)
	}

	log.Info().
		Int64("junk_deleted", res.JunkDeleted).
		Int64("balances_fixed", res.BalancesFixed).
		Int64("defaults_filled", res.DefaultsFilled).
		Dur("duration", time.Since(start)).
		Msg("ledger maintenance complete")
	return &res, nil
}
