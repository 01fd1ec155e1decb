package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTextModel   = "gemini-2.0-flash"
	DefaultImageModel  = "gemini-2.0-flash-preview-image-generation"
	primaryDisplayName = "Gemini 2.0"
)

// GeminiClient wraps the Gemini generateContent API. It is the primary
// provider because it enforces the response schema natively.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini client. An empty apiKey yields a client
// whose every call fails with ErrMissingCredential.
func NewGeminiClient(apiKey, textModel, imageModel string) *GeminiClient {
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    GeminiBaseURL,
		textModel:  textModel,
		imageModel: imageModel,
		// Deadlines come from the caller's context.
		httpClient: &http.Client{},
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (c *GeminiClient) WithBaseURL(url string) *GeminiClient {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

// Enabled returns true if the client has an API key.
func (c *GeminiClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

func (c *GeminiClient) Name() string  { return primaryDisplayName }
func (c *GeminiClient) Model() string { return c.textModel }

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     Schema         `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
	ImageConfig        map[string]any `json:"imageConfig,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends a schema-constrained prompt and returns the response text.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Enabled() {
		return "", ErrMissingCredential
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}

	resp, err := c.generate(ctx, c.textModel, body)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response: %w", ErrInvalidResponse)
	}
	return text.String(), nil
}

// GenerateImage asks the image model for a single picture and returns it as a
// data URL.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrMissingCredential
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        map[string]any{"aspectRatio": "16:9"},
		},
	}

	resp, err := c.generate(ctx, c.imageModel, body)
	if err != nil {
		return "", err
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data, nil
		}
	}
	return "", fmt.Errorf("no image in response")
}

func (c *GeminiClient) generate(ctx context.Context, model string, body geminiRequest) (*geminiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates: %w", ErrInvalidResponse)
	}

	slog.Debug("gemini call",
		"model", model,
		"input_tokens", apiResp.UsageMetadata.PromptTokenCount,
		"output_tokens", apiResp.UsageMetadata.CandidatesTokenCount,
	)

	return &apiResp, nil
}
