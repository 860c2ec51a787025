package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/claimledger/internal/exitcode"
	"github.com/gyeh/claimledger/internal/ingest"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/logging"
	"github.com/gyeh/claimledger/internal/mailsource"
	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

var extractFile string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract one message and print the reconciled draft",
	Long:  "Extracts a single .eml or text file. With --dry-run the draft is printed and nothing is written; otherwise it is also resolved against the ledger.",
	RunE:  runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFile, "file", "", "Path to an .eml or text file (required)")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Print the draft without touching the database")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}

// draftOutput is the printed form of an extraction.
type draftOutput struct {
	MessageID string            `json:"message_id"`
	Subject   string            `json:"subject"`
	Strategy  string            `json:"strategy,omitempty"`
	Draft     *model.ClaimDraft `json:"draft"`
	Outcome   *outcomeOutput    `json:"outcome,omitempty"`
}

type outcomeOutput struct {
	Status  model.LogStatus `json:"status"`
	Reason  string          `json:"reason,omitempty"`
	Created bool            `json:"created"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	msg, err := readMessage(extractFile)
	if err != nil {
		log.Error().Err(err).Str("file", extractFile).Msg("failed to read message")
		os.Exit(exitcode.SourceError)
	}

	orch, release := newOrchestrator(log)
	defer release()

	var (
		l     ledger.Ledger = ledger.NewMemory()
		locks ledger.KeyedLock
	)
	if !cfg.DryRun {
		pool := connect(ctx, log)
		defer pool.Close()
		l = ledger.NewPostgres(pool)
		var closeLocks func()
		locks, closeLocks = newLocks(ctx, log)
		defer closeLocks()
	}
	resolver := ledger.NewResolver(l, locks, log)
	proc := ingest.NewProcessor(newTextExtractor(log), orch, resolver, log)

	draft, err := proc.Draft(ctx, msg)
	if err != nil {
		log.Error().Err(err).Msg("extraction failed")
		os.Exit(exitcode.ProcessError)
	}
	out := draftOutput{MessageID: msg.ID, Subject: msg.Subject, Draft: draft}
	if draft != nil {
		out.Strategy = draft.Source
	}

	if !cfg.DryRun {
		ref := ledger.MessageRef{RunID: uuid.New(), MessageID: msg.ID, MessageDate: msg.Date, Subject: msg.Subject}
		res, err := resolver.Resolve(ctx, ref, draft)
		if err != nil {
			log.Error().Err(err).Msg("resolve failed")
			os.Exit(exitcode.ProcessError)
		}
		out.Outcome = &outcomeOutput{Status: res.Status, Reason: res.Reason, Created: res.Created}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// readMessage parses .eml files as mail and treats anything else as a
// message whose body is the file's text.
func readMessage(path string) (*model.Message, error) {
	if strings.EqualFold(filepath.Ext(path), ".eml") {
		return mailsource.ReadFile(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	id := normalize.FileMessageID(path, data)
	if !isText(path) {
		return &model.Message{
			ID:          id,
			Date:        info.ModTime().UTC(),
			Subject:     filepath.Base(path),
			Attachments: []model.Attachment{{Name: filepath.Base(path), Data: data}},
		}, nil
	}
	return &model.Message{
		ID:      id,
		Date:    info.ModTime().UTC(),
		Subject: filepath.Base(path),
		Body:    string(data),
	}, nil
}

func isText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".csv", "":
		return true
	}
	return false
}
