package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/claimledger/internal/config"
)

var (
	cfg        = config.Default()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:               "claimload",
	Short:             "Insurance claim correspondence → Postgres claim ledger",
	Long:              "Reads claim correspondence, extracts structured claim data and reconciles it into a Postgres claim ledger.",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
}

// envFlags maps persistent flags to the environment variables that default them.
var envFlags = map[string]string{
	"dsn":             "DATABASE_URL",
	"openai-key":      "OPENAI_API_KEY",
	"llm-base-url":    "LLM_BASE_URL",
	"llm-model":       "LLM_MODEL",
	"use-local-llm":   "USE_LOCAL_LLM",
	"local-llm-url":   "LOCAL_LLM_URL",
	"local-llm-model": "LOCAL_LLM_MODEL",
	"redis-addr":      "REDIS_ADDR",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", "", "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&configPath, "config", "", "Optional YAML file with tunables")
	pf.StringVar(&cfg.OpenAIKey, "openai-key", "", "API key for the primary extraction model (or set OPENAI_API_KEY)")
	pf.StringVar(&cfg.LLMBaseURL, "llm-base-url", "", "Base URL of an OpenAI-compatible API (or set LLM_BASE_URL)")
	pf.StringVar(&cfg.LLMModel, "llm-model", "", "Primary model name (or set LLM_MODEL)")
	pf.BoolVar(&cfg.UseLocalLLM, "use-local-llm", false, "Try the local model when the primary fails (or set USE_LOCAL_LLM)")
	pf.StringVar(&cfg.LocalLLMURL, "local-llm-url", "", "Local completion server URL (or set LOCAL_LLM_URL)")
	pf.StringVar(&cfg.LocalLLMModel, "local-llm-model", "", "Local model name (or set LOCAL_LLM_MODEL)")
	pf.StringVar(&cfg.LockBackend, "lock-backend", cfg.LockBackend, "Per-claim lock: memory, redis or none")
	pf.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for the redis lock backend (or set REDIS_ADDR)")
}

// loadEnvironment reads .env, fills unset flags from the environment and
// applies the optional YAML file.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	flags := cmd.Flags()
	for name, env := range envFlags {
		v, ok := os.LookupEnv(env)
		if !ok || v == "" || flags.Changed(name) {
			continue
		}
		if err := flags.Set(name, v); err != nil {
			return err
		}
	}

	if configPath != "" {
		return cfg.LoadFromFile(configPath)
	}
	return nil
}
