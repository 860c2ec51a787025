package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/model"
)

const (
	LocalStrategyName = "local"
	DefaultLocalURL   = "http://localhost:11434"
	DefaultLocalModel = "llama3:8b-instruct-q4_0"
)

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type showRequest struct {
	Model string `json:"model"`
}

// LocalBackend talks to a locally hosted completion server.
type LocalBackend struct {
	client *resty.Client
	model  string
}

// Generate returns the raw completion for prompt.
func (b *LocalBackend) Generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:   b.model,
			Prompt:  prompt,
			Options: generateOptions{Temperature: 0.1, NumPredict: 1024, NumCtx: 4096},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("%w: local generate: %v", ErrBackendUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: local generate status %d: %s", ErrBackendUnavailable, resp.StatusCode(), out.Error)
	}
	return out.Response, nil
}

// LocalModel owns the lazily initialised local backend. The first Get loads
// the model; a failed load is not cached so a later call retries it.
type LocalModel struct {
	baseURL   string
	model     string
	textLimit int
	timeout   time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	backend *LocalBackend
}

// LocalOptions configures a LocalModel.
type LocalOptions struct {
	BaseURL   string
	Model     string
	TextLimit int
	Timeout   time.Duration
}

// NewLocalModel returns an unloaded handle.
func NewLocalModel(opts LocalOptions, log zerolog.Logger) *LocalModel {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultLocalURL
	}
	if opts.Model == "" {
		opts.Model = DefaultLocalModel
	}
	if opts.TextLimit <= 0 {
		opts.TextLimit = DefaultLocalTextLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &LocalModel{
		baseURL:   opts.BaseURL,
		model:     opts.Model,
		textLimit: opts.TextLimit,
		timeout:   opts.Timeout,
		log:       log,
	}
}

// Get returns the loaded backend, loading it on first use.
func (m *LocalModel) Get(ctx context.Context) (*LocalBackend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend != nil {
		return m.backend, nil
	}

	client := resty.New().
		SetBaseURL(m.baseURL).
		SetTimeout(m.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	resp, err := client.R().
		SetContext(ctx).
		SetBody(showRequest{Model: m.model}).
		Post("/api/show")
	if err != nil {
		return nil, fmt.Errorf("%w: loading local model %s: %v", ErrBackendUnavailable, m.model, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: loading local model %s: status %d", ErrBackendUnavailable, m.model, resp.StatusCode())
	}

	m.log.Info().Str("model", m.model).Str("url", m.baseURL).Msg("local model loaded")
	m.backend = &LocalBackend{client: client, model: m.model}
	return m.backend, nil
}

// Loaded reports whether Get has succeeded since the last Close.
func (m *LocalModel) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend != nil
}

// Close releases the backend. A later Get loads it again.
func (m *LocalModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend == nil {
		return
	}
	m.backend.client.GetClient().CloseIdleConnections()
	m.backend = nil
}

// Extract runs the local prompt and decodes the repaired completion.
func (m *LocalModel) Extract(ctx context.Context, text string) (*model.ClaimDraft, error) {
	backend, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	completion, err := backend.Generate(ctx, BuildLocalPrompt(text, m.textLimit))
	if err != nil {
		return nil, err
	}
	return DecodeDraft([]byte(RepairLocalJSON(completion)))
}

// Strategy exposes the local model as a chain step.
func (m *LocalModel) Strategy() Strategy {
	return Strategy{Name: LocalStrategyName, Run: m.Extract, PaymentAdviceOverride: true}
}
