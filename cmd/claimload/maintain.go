package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimledger/internal/exitcode"
	"github.com/gyeh/claimledger/internal/ingest"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/logging"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Delete placeholder junk rows, repair settled balances and backfill defaults",
	RunE:  runMaintain,
}

func init() {
	rootCmd.AddCommand(maintainCmd)
}

func runMaintain(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	pool := connect(ctx, log)
	defer pool.Close()

	res, err := ingest.Maintain(ctx, ledger.NewPostgres(pool), log)
	if err != nil {
		log.Error().Err(err).Msg("maintenance failed")
		os.Exit(exitcode.ProcessError)
	}

	fmt.Printf("Maintenance complete: %d junk rows deleted, %d balances repaired, %d rows backfilled\n",
		res.JunkDeleted, res.BalancesFixed, res.DefaultsFilled)
	return nil
}
