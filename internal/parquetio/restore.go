package parquetio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/db"
	"github.com/gyeh/claimledger/internal/model"
)

const readBatchSize = 1024

// CopyLoader bulk-loads claim records from a COPY source.
type CopyLoader func(ctx context.Context, src pgx.CopyFromSource) (int64, error)

// RestoreResult holds metrics from a restore.
type RestoreResult struct {
	RowsRead     int64
	RowsLoaded   int64
	RowsRejected int64
	Duration     time.Duration
}

// Restore streams a snapshot into load through a channel-backed
// CopyFromSource. Invalid rows are logged and skipped.
func Restore(ctx context.Context, path string, load CopyLoader, log zerolog.Logger) (*RestoreResult, error) {
	start := time.Now()

	reader, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	ch := make(chan *model.ClaimRecord, readBatchSize)
	errCh := make(chan error, 1)
	// Unblocks the producer if the loader stops consuming early.
	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var rowsRead, rowsRejected int64

	// Producer goroutine: read snapshot → validate → push to channel
	go func() {
		defer close(ch)
		buf := make([]model.ClaimParquetRow, readBatchSize)
		for {
			n, readErr := reader.Read(buf)
			for i := 0; i < n; i++ {
				rowsRead++
				if err := ValidateRow(&buf[i]); err != nil {
					rowsRejected++
					log.Warn().Err(err).Int64("row", rowsRead).Msg("row rejected")
					continue
				}
				select {
				case ch <- buf[i].Record():
				case <-loadCtx.Done():
					errCh <- loadCtx.Err()
					return
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errCh <- fmt.Errorf("read snapshot at row %d: %w", rowsRead, readErr)
				return
			}
		}
		errCh <- nil
	}()

	loaded, err := load(loadCtx, db.NewChannelSource(loadCtx, ch))
	cancel()

	prodErr := <-errCh
	if err != nil {
		return nil, fmt.Errorf("restore load: %w", err)
	}
	if prodErr != nil {
		return nil, fmt.Errorf("restore producer: %w", prodErr)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_loaded", loaded).
		Int64("rows_rejected", rowsRejected).
		Str("duration", dur.String()).
		Msg("restore complete")

	return &RestoreResult{
		RowsRead:     rowsRead,
		RowsLoaded:   loaded,
		RowsRejected: rowsRejected,
		Duration:     dur,
	}, nil
}
