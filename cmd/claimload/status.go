package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimledger/internal/exitcode"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/logging"
	"github.com/gyeh/claimledger/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show claim and processing log counts (no writes)",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	pool := connect(ctx, log)
	defer pool.Close()
	store := ledger.NewPostgres(pool)

	claims, err := store.CountClaims(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count claims")
		os.Exit(exitcode.ProcessError)
	}
	counts, err := store.CountLogsByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count processing logs")
		os.Exit(exitcode.ProcessError)
	}
	last, err := store.LastMessageID(ctx)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		log.Error().Err(err).Msg("failed to read last message")
		os.Exit(exitcode.ProcessError)
	}

	fmt.Println("=== Ledger Status ===")
	fmt.Printf("Claims:            %d\n", claims)
	if last != "" {
		fmt.Printf("Last message:      %s\n", last)
	}
	fmt.Println("Processing log:")
	var total int64
	for _, st := range []model.LogStatus{model.LogSuccess, model.LogSkipped, model.LogFailed, model.LogError} {
		fmt.Printf("  %-10s %d\n", st, counts[st])
		total += counts[st]
	}
	fmt.Printf("  %-10s %d\n", "total", total)
	return nil
}
