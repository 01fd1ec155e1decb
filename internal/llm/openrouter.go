package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// DefaultBackupModels is the fixed order in which backups are tried.
var DefaultBackupModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"google/gemma-3-27b-it:free",
	"mistralai/mistral-small-3.1-24b-instruct:free",
	"meta-llama/llama-3.3-70b-instruct:free",
	"deepseek/deepseek-chat-v3-0324:free",
	"qwen/qwen-2.5-72b-instruct:free",
	"openrouter/auto:free",
}

// OpenRouterConfig configures the backup providers.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
	Referer string // sent as HTTP-Referer
	Title   string // sent as X-Title
}

// OpenRouterProvider is one backup model reached through OpenRouter's
// OpenAI-compatible API. It cannot enforce a schema, so the chain inlines
// the schema into the system instruction and asks for a JSON object.
type OpenRouterProvider struct {
	client *openai.Client
	model  string
}

// NewOpenRouterProviders returns one provider per configured model, sharing a
// single HTTP client. It returns nil when no API key is set.
func NewOpenRouterProviders(cfg OpenRouterConfig) []*OpenRouterProvider {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultBackupModels
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}
	client := openai.NewClientWithConfig(oc)

	providers := make([]*OpenRouterProvider, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		providers = append(providers, &OpenRouterProvider{client: client, model: m})
	}
	return providers
}

func (p *OpenRouterProvider) Name() string  { return FriendlyName(p.model) }
func (p *OpenRouterProvider) Model() string { return p.model }

// Complete sends the request as a system + user chat and returns the reply text.
func (p *OpenRouterProvider) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response: %w", ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
