package main

import (
	"context"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/config"
	"github.com/gyeh/claimledger/internal/db"
	"github.com/gyeh/claimledger/internal/exitcode"
	"github.com/gyeh/claimledger/internal/extract"
	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/textract"
)

// connect opens the pool or exits with DBConnError.
func connect(ctx context.Context, log zerolog.Logger) *pgxpool.Pool {
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN, cfg.Workers)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return pool
}

// newOrchestrator builds the extraction chain: primary model when a key is
// configured, then the local model when enabled. The regex fallback is
// always last. The returned func releases the local model.
func newOrchestrator(log zerolog.Logger) (*extract.Orchestrator, func()) {
	var strategies []extract.Strategy
	if cfg.OpenAIKey != "" {
		primary := extract.NewOpenAIBackend(extract.OpenAIOptions{
			BaseURL:   cfg.LLMBaseURL,
			APIKey:    cfg.OpenAIKey,
			Model:     cfg.LLMModel,
			TextLimit: cfg.PrimaryTextLimit,
			Timeout:   cfg.ExtractTimeout,
		}, log.With().Str("strategy", extract.PrimaryStrategyName).Logger())
		strategies = append(strategies, primary.Strategy())
	} else {
		log.Warn().Msg("no OPENAI_API_KEY configured, skipping primary extraction")
	}

	release := func() {}
	if cfg.UseLocalLLM {
		local := extract.NewLocalModel(extract.LocalOptions{
			BaseURL:   cfg.LocalLLMURL,
			Model:     cfg.LocalLLMModel,
			TextLimit: cfg.LocalTextLimit,
			Timeout:   cfg.ExtractTimeout,
		}, log.With().Str("strategy", extract.LocalStrategyName).Logger())
		strategies = append(strategies, local.Strategy())
		release = local.Close
	}
	return extract.NewOrchestrator(log, strategies...), release
}

// newLocks builds the configured per-claim lock. The returned func closes
// any client it opened.
func newLocks(ctx context.Context, log zerolog.Logger) (ledger.KeyedLock, func()) {
	switch cfg.LockBackend {
	case config.LockNone:
		return ledger.NoopLock{}, func() {}
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connection failed")
			os.Exit(exitcode.DBConnError)
		}
		return ledger.NewRedisLock(client, "claimload:lock:", cfg.LockTTL), func() { client.Close() }
	default:
		return ledger.NewMemoryLock(), func() {}
	}
}

func newTextExtractor(log zerolog.Logger) *textract.Extractor {
	return textract.New(cfg.SkipPatterns(), log.With().Str("component", "textract").Logger())
}
