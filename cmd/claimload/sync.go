package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimledger/internal/config"
	"github.com/gyeh/claimledger/internal/exitcode"
	"github.com/gyeh/claimledger/internal/ingest"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/logging"
	"github.com/gyeh/claimledger/internal/mailsource"
)

var (
	syncSince    string
	syncMaintain bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extract and reconcile every message in a directory of .eml files",
	RunE:  runSync,
}

func init() {
	f := syncCmd.Flags()
	f.StringVar(&cfg.Dir, "dir", "", "Directory of .eml messages (required)")
	f.StringVar(&syncSince, "since", "14d", "Skip messages older than this window, e.g. 14d or 36h; 0 for all")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Messages processed concurrently")
	f.BoolVar(&syncMaintain, "maintain", false, "Run ledger maintenance after processing")
	_ = syncCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	since, err := config.ParseSince(syncSince)
	if err != nil {
		log.Error().Err(err).Msg("invalid --since")
		os.Exit(exitcode.UsageError)
	}
	cfg.Since = since
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool := connect(ctx, log)
	defer pool.Close()

	locks, closeLocks := newLocks(ctx, log)
	defer closeLocks()
	orch, release := newOrchestrator(log)
	defer release()

	store := ledger.NewPostgres(pool)
	resolver := ledger.NewResolver(store, locks, log.With().Str("component", "resolver").Logger())
	proc := ingest.NewProcessor(newTextExtractor(log), orch, resolver, log)

	var cutoff time.Time
	if cfg.Since > 0 {
		cutoff = time.Now().Add(-cfg.Since)
	}
	src := mailsource.New(cfg.Dir, cutoff, log)

	summary, err := ingest.Run(ctx, log, src, proc, store, ingest.Options{Workers: cfg.Workers, Maintain: syncMaintain})
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("sync failed")
			switch pe.Phase {
			case ingest.PhaseSource:
				os.Exit(exitcode.SourceError)
			default:
				os.Exit(exitcode.ProcessError)
			}
		}
		log.Error().Err(err).Msg("sync failed")
		os.Exit(exitcode.ProcessError)
	}

	fmt.Printf("Sync complete: %d messages, %d succeeded, %d skipped, %d failed, %d errored (%.1fs)\n",
		summary.Messages, summary.Succeeded, summary.Skipped, summary.Failed, summary.Errored, summary.Duration.Seconds())
	if summary.Errored > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
