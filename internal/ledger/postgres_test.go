package ledger_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/db"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/model"
)

const (
	testPort     = 15433
	testDB       = "claimtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stderr, "SKIP: postgres integration tests disabled by -short")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30*time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

// setupDB returns a pool on a freshly migrated schema.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, table := range []string{"claims", "claim_history", "processing_logs", "schema_migrations"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}
	if _, err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func str(s string) *string { return &s }

func TestApplyMigrations_Idempotent(t *testing.T) {
	pool := setupDB(t)
	n, err := db.ApplyMigrations(context.Background(), pool, zerolog.Nop())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Errorf("second run applied %d migrations, want 0", n)
	}
}

func TestPostgres_ResolveLifecycle(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := ledger.NewPostgres(pool)
	r := ledger.NewResolver(store, ledger.NewMemoryLock(), zerolog.Nop())
	run := uuid.New()
	base := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	out, err := r.Resolve(ctx, ledger.MessageRef{RunID: run, MessageID: "<a@mail>", MessageDate: base, Subject: "approval"},
		&model.ClaimDraft{
			PatientName: str("Asha Rao"), HospitalID: str("UH-1"), ClaimNumber: str("ABC1"),
			Status: model.StatusApproved, Amounts: model.Amounts{TotalBill: 1000, Approved: 800, Settled: 500, Balance: 300},
		})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !out.Created {
		t.Fatal("expected a new record")
	}

	// Zero settled amount in a later message must not erase the stored one.
	out, err = r.Resolve(ctx, ledger.MessageRef{RunID: run, MessageID: "<b@mail>", MessageDate: base.Add(time.Hour), Subject: "follow-up"},
		&model.ClaimDraft{ClaimNumber: str("ABC1"), Status: model.StatusSettled})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if out.Status != model.LogSuccess {
		t.Fatalf("second resolve status = %s", out.Status)
	}

	rec, err := store.FindByClaimNumber(ctx, "ABC1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.Settled != 500 {
		t.Errorf("settled = %v, want 500", rec.Settled)
	}
	if rec.Status != model.StatusSettled || rec.MessageID != "<b@mail>" {
		t.Errorf("unexpected record after merge: status=%s message=%s", rec.Status, rec.MessageID)
	}

	// Older message is skipped.
	out, err = r.Resolve(ctx, ledger.MessageRef{RunID: run, MessageID: "<c@mail>", MessageDate: base.Add(-time.Hour), Subject: "old"},
		&model.ClaimDraft{ClaimNumber: str("ABC1"), Status: model.StatusRejected})
	if err != nil {
		t.Fatalf("stale resolve: %v", err)
	}
	if out.Reason != ledger.ReasonNewerDataExists {
		t.Errorf("reason = %q", out.Reason)
	}

	// Replay of the second message adds no history.
	if _, err := r.Resolve(ctx, ledger.MessageRef{RunID: run, MessageID: "<b@mail>", MessageDate: base.Add(time.Hour)},
		&model.ClaimDraft{ClaimNumber: str("ABC1"), Status: model.StatusSettled}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	hist, err := store.ListHistory(ctx, "ABC1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Errorf("history entries = %d, want 2", len(hist))
	}

	counts, err := store.CountLogsByStatus(ctx)
	if err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if counts[model.LogSuccess] != 3 || counts[model.LogSkipped] != 1 {
		t.Errorf("log counts = %v", counts)
	}
	last, err := store.LastMessageID(ctx)
	if err != nil || last != "<b@mail>" {
		t.Errorf("last message id = %q, %v", last, err)
	}
}

func TestPostgres_HistoryUniquePerClaimAndMessage(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := ledger.NewPostgres(pool)
	at := time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)

	entry := func(claim *string) *model.ClaimHistoryEntry {
		return &model.ClaimHistoryEntry{
			ClaimNumber: claim, MessageID: "<dup@mail>", MessageDate: at,
			AmountReceived: 500, SettledSoFar: 500, Status: string(model.StatusSettled), CreatedAt: at,
		}
	}
	// Two writers that both passed the existence check.
	for i := 0; i < 2; i++ {
		err := store.InTx(ctx, func(s ledger.Store) error {
			if err := s.AppendHistory(ctx, entry(str("ABC9"))); err != nil {
				return err
			}
			return s.AppendHistory(ctx, entry(nil))
		})
		if err != nil {
			t.Fatalf("append round %d: %v", i, err)
		}
	}

	hist, err := store.ListHistory(ctx, "ABC9")
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("history for ABC9 = %d entries, want 1", len(hist))
	}

	var anonymous int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM claim_history WHERE claim_number IS NULL`).Scan(&anonymous); err != nil {
		t.Fatalf("count: %v", err)
	}
	if anonymous != 1 {
		t.Errorf("history without claim number = %d entries, want 1", anonymous)
	}
}

func TestPostgres_FindByPatientCaseInsensitive(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := ledger.NewPostgres(pool)

	if err := store.Create(ctx, &model.ClaimRecord{
		MessageID: "m1", MessageDate: time.Now().UTC(), PatientName: str("Asha Rao"), HospitalID: str("UH-9"),
		Status: model.StatusPending, Type: model.TypeGeneral, ProcessedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := store.FindByPatientAndHospitalID(ctx, "asha rao", "UH-9")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.MessageID != "m1" {
		t.Errorf("matched %s", rec.MessageID)
	}
	if _, err := store.FindByPatientAndHospitalID(ctx, "asha rao", "UH-10"); err != ledger.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_Maintenance(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := ledger.NewPostgres(pool)
	now := time.Now().UTC()

	records := []*model.ClaimRecord{
		{MessageID: "junk", PatientName: str(ledger.PlaceholderPatientName)},
		{MessageID: "settled", Status: model.StatusSettled, Amounts: model.Amounts{TotalBill: 1000, Claim: 1000, Settled: 800, Balance: 200, Outstanding: 200}},
		{MessageID: "backfill", Status: model.StatusPending, InsurerName: str("Star Health"), Amounts: model.Amounts{TotalBill: 500}},
	}
	for _, r := range records {
		r.MessageDate, r.ProcessedAt = now, now
		if r.Type == "" {
			r.Type = model.TypeGeneral
		}
		if r.Status == "" {
			r.Status = model.StatusPending
		}
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", r.MessageID, err)
		}
	}

	if n, err := store.CleanupJunk(ctx); err != nil || n != 1 {
		t.Errorf("cleanup = %d, %v", n, err)
	}
	if n, err := store.RepairSettledBalances(ctx); err != nil || n != 1 {
		t.Errorf("repair = %d, %v", n, err)
	}
	if n, err := store.BackfillDefaults(ctx); err != nil || n != 1 {
		t.Errorf("backfill = %d, %v", n, err)
	}

	settled, err := store.ListClaims(ctx, ledger.ClaimFilter{Status: model.StatusSettled})
	if err != nil || len(settled) != 1 {
		t.Fatalf("list settled = %d, %v", len(settled), err)
	}
	if settled[0].Balance != 0 || settled[0].PatientPayable != 200 {
		t.Errorf("settled not repaired: %+v", settled[0].Amounts)
	}

	all, err := store.ListClaims(ctx, ledger.ClaimFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("list all = %d, %v", len(all), err)
	}
}

func TestPostgres_RestoreClaims(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := ledger.NewPostgres(pool)

	ch := make(chan *model.ClaimRecord, 2)
	now := time.Now().UTC().Truncate(time.Millisecond)
	ch <- &model.ClaimRecord{MessageID: "r1", MessageDate: now, ClaimNumber: str("CLM1"), Status: model.StatusSettled, Type: model.TypeCashless, ProcessedAt: now}
	ch <- &model.ClaimRecord{MessageID: "r2", MessageDate: now, ClaimNumber: str("CLM2"), Status: model.StatusPending, Type: model.TypeGeneral, ProcessedAt: now}
	close(ch)

	n, err := store.RestoreClaims(ctx, db.NewChannelSource(ctx, ch))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if n != 2 {
		t.Errorf("restored %d rows, want 2", n)
	}

	again := make(chan *model.ClaimRecord)
	close(again)
	if _, err := store.RestoreClaims(ctx, db.NewChannelSource(ctx, again)); err == nil {
		t.Error("expected restore into non-empty table to fail")
	}
}
