package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimledger/internal/api"
	"github.com/gyeh/claimledger/internal/exitcode"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only HTTP view of the claim ledger",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := connect(ctx, log)
	defer pool.Close()

	srv := api.NewServer(ledger.NewPostgres(pool), log.With().Str("component", "api").Logger())
	if err := srv.Serve(ctx, serveAddr); err != nil {
		log.Error().Err(err).Msg("api server failed")
		os.Exit(exitcode.ProcessError)
	}
	return nil
}
