package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Lock backends for per-claim serialization.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
	LockNone   = "none"
)

// DefaultSkipAttachmentPatterns drops chat exports and inline pictures.
var DefaultSkipAttachmentPatterns = []string{"whatsapp", "image-", "img-"}

// Config holds all runtime configuration for a claimload run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"
	LogLevel  string

	Dir     string        // directory of .eml messages to sync
	Since   time.Duration // ignore messages older than this; 0 means no limit
	Workers int
	DryRun  bool

	OpenAIKey     string
	LLMBaseURL    string
	LLMModel      string
	UseLocalLLM   bool
	LocalLLMURL   string
	LocalLLMModel string

	PrimaryTextLimit       int
	LocalTextLimit         int
	ExtractTimeout         time.Duration
	SkipAttachmentPatterns []string

	LockBackend string
	RedisAddr   string
	LockTTL     time.Duration
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		LogFormat:              "text",
		LogLevel:               "info",
		Since:                  14 * 24 * time.Hour,
		Workers:                4,
		PrimaryTextLimit:       30000,
		LocalTextLimit:         8000,
		ExtractTimeout:         2 * time.Minute,
		SkipAttachmentPatterns: append([]string(nil), DefaultSkipAttachmentPatterns...),
		LockBackend:            LockMemory,
		LockTTL:                2 * time.Minute,
	}
}

// yamlConfig is the on-disk YAML structure. Absent keys leave Config as is.
type yamlConfig struct {
	Workers                *int     `yaml:"workers"`
	PrimaryTextLimit       *int     `yaml:"primary_text_limit"`
	LocalTextLimit         *int     `yaml:"local_text_limit"`
	ExtractTimeout         *string  `yaml:"extract_timeout"`
	SkipAttachmentPatterns []string `yaml:"skip_attachment_patterns"`
	LockBackend            *string  `yaml:"lock_backend"`
	LockTTL                *string  `yaml:"lock_ttl"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if yc.Workers != nil {
		c.Workers = *yc.Workers
	}
	if yc.PrimaryTextLimit != nil {
		c.PrimaryTextLimit = *yc.PrimaryTextLimit
	}
	if yc.LocalTextLimit != nil {
		c.LocalTextLimit = *yc.LocalTextLimit
	}
	if yc.ExtractTimeout != nil {
		d, err := time.ParseDuration(*yc.ExtractTimeout)
		if err != nil {
			return fmt.Errorf("extract_timeout: %w", err)
		}
		c.ExtractTimeout = d
	}
	if yc.SkipAttachmentPatterns != nil {
		c.SkipAttachmentPatterns = yc.SkipAttachmentPatterns
	}
	if yc.LockBackend != nil {
		c.LockBackend = *yc.LockBackend
	}
	if yc.LockTTL != nil {
		d, err := time.ParseDuration(*yc.LockTTL)
		if err != nil {
			return fmt.Errorf("lock_ttl: %w", err)
		}
		c.LockTTL = d
	}
	return c.validateTunables()
}

func (c *Config) validateTunables() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.PrimaryTextLimit < 1 || c.LocalTextLimit < 1 {
		return fmt.Errorf("text limits must be positive")
	}
	switch c.LockBackend {
	case LockMemory, LockNone:
	case LockRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("lock_backend redis requires --redis-addr or REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.LockBackend)
	}
	return nil
}

// SkipPatterns compiles SkipAttachmentPatterns as case-insensitive
// substrings of attachment names.
func (c *Config) SkipPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(c.SkipAttachmentPatterns))
	for _, p := range c.SkipAttachmentPatterns {
		out = append(out, regexp.MustCompile("(?i)"+regexp.QuoteMeta(p)))
	}
	return out
}

// Validate checks the source directory and tunables.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("--dir is required")
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.Dir)
	}
	return c.validateTunables()
}

// ValidateWithDSN checks both directory and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

// ParseSince parses a lookback window. Besides time.ParseDuration units it
// accepts a whole number of days such as "14d". "0" disables the window.
func ParseSince(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
