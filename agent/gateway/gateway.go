// Package gateway abstracts over the configured completion providers.
// Failures never propagate to callers: every degraded path yields a short
// user-facing string so a single bad upstream call costs one reply, not a
// crash.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// Backend selects a completion provider. Unknown values resolve to the
// default provider rather than failing.
type Backend string

const (
	BackendChatGPT  Backend = "chatgpt"
	BackendDeepSeek Backend = "deepseek"
)

const systemPrompt = "You are a helpful assistant."

// ProviderConfig configures one OpenAI-compatible provider. DeepSeek speaks
// the OpenAI wire protocol, so a single SDK covers both.
type ProviderConfig struct {
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true"`
	Model   string        `envconfig:"MODEL" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

type provider struct {
	displayName string
	model       string
	timeout     time.Duration
	client      openai.Client
}

// Gateway routes completion calls to a provider by backend name.
type Gateway struct {
	providers map[Backend]*provider
	fallback  Backend
}

// New wires the ChatGPT and DeepSeek providers.
func New(chatgpt, deepseek ProviderConfig) (*Gateway, error) {
	openaiProvider, err := newProvider("ChatGPT", chatgpt, "https://api.openai.com/v1", "gpt-3.5-turbo")
	if err != nil {
		return nil, err
	}
	deepseekProvider, err := newProvider("DeepSeek", deepseek, "https://api.deepseek.com/v1", "deepseek-chat")
	if err != nil {
		return nil, err
	}

	return &Gateway{
		providers: map[Backend]*provider{
			BackendChatGPT:  openaiProvider,
			BackendDeepSeek: deepseekProvider,
		},
		fallback: BackendChatGPT,
	}, nil
}

func newProvider(displayName string, cfg ProviderConfig, defaultBaseURL, defaultModel string) (*provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s api key is required", displayName)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// No retries: a failed call degrades once instead of multiplying load.
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)

	return &provider{
		displayName: displayName,
		model:       model,
		timeout:     timeout,
		client:      client,
	}, nil
}

// ParseBackend resolves a user-supplied backend name, case-insensitively.
func ParseBackend(s string) Backend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(BackendDeepSeek):
		return BackendDeepSeek
	default:
		return BackendChatGPT
	}
}

// Complete runs one completion call against the selected backend and returns
// the trimmed top choice, or a degraded user-facing string on failure.
func (g *Gateway) Complete(ctx context.Context, prompt string, backend string) string {
	selected := ParseBackend(backend)
	p, ok := g.providers[selected]
	if !ok {
		p = g.providers[g.fallback]
	}
	return p.complete(ctx, prompt)
}

func (p *provider) complete(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return p.degrade(err)
	}
	if len(resp.Choices) == 0 {
		log.Warn().Str("provider", p.displayName).Msg("completion returned no choices")
		return fmt.Sprintf("⚠️ %s API error: empty response", p.displayName)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func (p *provider) degrade(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Str("provider", p.displayName).Msg("completion timed out")
		return fmt.Sprintf("⚠️ %s API timeout. Try again.", p.displayName)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		log.Warn().Str("provider", p.displayName).Int("status", apiErr.StatusCode).Msg("completion failed upstream")
		return fmt.Sprintf("⚠️ %s API error: %s", p.displayName, apiErr.RawJSON())
	}

	log.Warn().Err(err).Str("provider", p.displayName).Msg("completion failed")
	return fmt.Sprintf("⚠️ %s API error: %v", p.displayName, err)
}
