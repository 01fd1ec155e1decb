package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiCompleteSendsSchema(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"mainStory\":"},{"text":"{\"headline\":\"X\"}}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("test-key", "", "").WithBaseURL(srv.URL)
	text, err := c.Complete(context.Background(), Request{
		Prompt:            "hello",
		SystemInstruction: "be brief",
		Schema:            Schema{"type": "OBJECT"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"mainStory":{"headline":"X"}}`, text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	assert.Equal(t, "OBJECT", got.GenerationConfig.ResponseSchema["type"])
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGeminiClient("k", "", "").WithBaseURL(srv.URL)
	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 429")
}

func TestGeminiNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("k", "", "").WithBaseURL(srv.URL)
	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGeminiMissingKey(t *testing.T) {
	c := NewGeminiClient("", "", "")
	assert.False(t, c.Enabled())

	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = c.GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestIllustratorReturnsDataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Busy newsroom")
		assert.Contains(t, req.Contents[0].Parts[0].Text, "press photo")
		assert.Equal(t, []string{"TEXT", "IMAGE"}, req.GenerationConfig.ResponseModalities)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"AAAA"}}]}}]}`))
	}))
	defer srv.Close()

	rl := NewRateLimiter(15, time.Minute)
	il := NewIllustrator(NewGeminiClient("k", "", "").WithBaseURL(srv.URL), rl, 0)

	url, err := il.Illustrate(context.Background(), "Busy newsroom office 1980s")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", url)
	assert.Equal(t, 14, rl.Remaining())
}

func TestIllustratorRespectsLimiter(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	require.NoError(t, rl.Allow())

	il := NewIllustrator(NewGeminiClient("k", "", ""), rl, 0)
	_, err := il.Illustrate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRateLimited)
}
