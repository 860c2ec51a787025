package extract

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/model"
)

const (
	PrimaryStrategyName = "primary"
	DefaultOpenAIURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel  = "gpt-4o"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint in JSON mode.
type OpenAIBackend struct {
	client    *resty.Client
	model     string
	textLimit int
	log       zerolog.Logger
}

// OpenAIOptions configures an OpenAIBackend.
type OpenAIOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	TextLimit int
	Timeout   time.Duration
}

// NewOpenAIBackend creates a backend. Empty options fall back to defaults.
func NewOpenAIBackend(opts OpenAIOptions, log zerolog.Logger) *OpenAIBackend {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenAIURL
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.TextLimit <= 0 {
		opts.TextLimit = DefaultPrimaryTextLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(opts.APIKey)

	return &OpenAIBackend{
		client:    client,
		model:     opts.Model,
		textLimit: opts.TextLimit,
		log:       log,
	}
}

// Complete sends one system+user exchange and returns the raw message content.
func (b *OpenAIBackend) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.1,
	}

	var out chatResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrBackendUnavailable, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		b.log.Warn().Int("status_code", resp.StatusCode()).Str("error", msg).Msg("chat completion rejected")
		return "", fmt.Errorf("%w: chat completion status %d: %s", ErrBackendUnavailable, resp.StatusCode(), msg)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", ErrInvalidDraft)
	}
	return out.Choices[0].Message.Content, nil
}

// Extract runs the primary prompt against text and decodes the JSON answer.
func (b *OpenAIBackend) Extract(ctx context.Context, text string) (*model.ClaimDraft, error) {
	content, err := b.Complete(ctx, systemPrompt, BuildPrompt(text, b.textLimit))
	if err != nil {
		return nil, err
	}
	return DecodeDraft([]byte(content))
}

// Strategy exposes the backend as a chain step.
func (b *OpenAIBackend) Strategy() Strategy {
	return Strategy{Name: PrimaryStrategyName, Run: b.Extract, PaymentAdviceOverride: true}
}
