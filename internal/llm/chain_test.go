package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validIssue = `{"mainStory": {"headline": "Parliament Dissolved"}}`

type fakeProvider struct {
	name  string
	reply string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
	reqs  []Request
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return "test/" + f.name + ":free" }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func issueRequest() Request {
	return Request{
		Prompt:            "write the paper",
		SystemInstruction: "You are the Editor-in-Chief.",
		Schema:            Schema{"type": "OBJECT"},
		Marker:            "headline",
	}
}

func TestChainPrimarySuccess(t *testing.T) {
	primary := &fakeProvider{name: "gemini", reply: "```json\n" + validIssue + "\n```"}
	backup := &fakeProvider{name: "a", reply: validIssue}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute), WithBackups(backup))

	res, err := chain.Generate(context.Background(), issueRequest())
	require.NoError(t, err)
	assert.Equal(t, validIssue, res.Text)
	assert.Equal(t, PrimaryLabel, res.Provider)
	assert.Equal(t, 0, backup.callCount())

	// The primary sees the caller's instruction untouched.
	assert.Equal(t, "You are the Editor-in-Chief.", primary.reqs[0].SystemInstruction)
}

func TestChainFallsThroughToSecondBackup(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("503 unavailable")}
	a := &fakeProvider{name: "a", reply: "I cannot help with that."}
	b := &fakeProvider{name: "b", reply: validIssue}
	c := &fakeProvider{name: "c", reply: validIssue}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute), WithBackups(a, b, c))

	var labels []string
	req := issueRequest()
	req.Progress = func(label string) { labels = append(labels, label) }

	res, err := chain.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Provider)
	assert.Equal(t, "test/b:free", res.Model)
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 1, a.callCount())
	assert.Equal(t, 1, b.callCount())
	assert.Equal(t, 0, c.callCount())
	assert.Equal(t, []string{"gemini", "Backup (a)", "Backup (b)"}, labels)

	// Backups get the schema inlined into a stricter instruction.
	instr := b.reqs[0].SystemInstruction
	assert.Contains(t, instr, "You are the Editor-in-Chief.")
	assert.Contains(t, instr, "You MUST respond in valid JSON matching this structure exactly:")
	assert.Contains(t, instr, `"type": "OBJECT"`)
	assert.Contains(t, instr, "CRITICAL: Respond ONLY with the JSON object.")
}

func TestChainAllProvidersFailed(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("boom")}
	a := &fakeProvider{name: "a", reply: "{}"}
	b := &fakeProvider{name: "b", err: errors.New("last failure")}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute), WithBackups(a, b))

	_, err := chain.Generate(context.Background(), issueRequest())
	require.Error(t, err)

	var all *AllProvidersFailedError
	require.ErrorAs(t, err, &all)
	assert.Equal(t, 3, all.Attempts)
	assert.Contains(t, all.Last.Error(), "last failure")
}

// mainHeadline accepts only issues whose mainStory.headline is non-empty.
func mainHeadline(text string) error {
	var v struct {
		MainStory struct {
			Headline string `json:"headline"`
		} `json:"mainStory"`
	}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return err
	}
	if strings.TrimSpace(v.MainStory.Headline) == "" {
		return errors.New("missing main headline")
	}
	return nil
}

func TestChainAcceptRejectionFallsThrough(t *testing.T) {
	primary := &fakeProvider{name: "gemini", reply: `{"mainStory":{"headline":""},"editorial":{"headline":"x"}}`}
	a := &fakeProvider{name: "a", reply: validIssue}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute), WithBackups(a))

	req := issueRequest()
	req.Accept = mainHeadline
	res, err := chain.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Provider)
	assert.Equal(t, validIssue, res.Text)
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 1, a.callCount())
}

func TestChainAcceptRejectionIsInvalidResponse(t *testing.T) {
	primary := &fakeProvider{name: "gemini", reply: `{"mainStory":{"headline":"  "}}`}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute))

	req := issueRequest()
	req.Accept = mainHeadline
	_, err := chain.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Contains(t, err.Error(), "missing main headline")
}

func TestChainPrimaryOnlyReturnsPrimaryError(t *testing.T) {
	primary := &fakeProvider{name: "gemini", reply: `{"mainStory": {}}`}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute))

	_, err := chain.Generate(context.Background(), issueRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	var all *AllProvidersFailedError
	assert.False(t, errors.As(err, &all))
}

func TestChainTimeoutMovesOn(t *testing.T) {
	primary := &fakeProvider{name: "gemini", reply: validIssue, delay: time.Second}
	a := &fakeProvider{name: "a", reply: validIssue}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute),
		WithBackups(a), WithTimeouts(20*time.Millisecond, time.Second))

	res, err := chain.Generate(context.Background(), issueRequest())
	require.NoError(t, err)
	assert.Equal(t, "a", res.Provider)
}

func TestChainTimeoutClassified(t *testing.T) {
	primary := &fakeProvider{name: "gemini", reply: validIssue, delay: time.Second}
	chain := NewChain(primary, NewRateLimiter(15, time.Minute), WithTimeouts(20*time.Millisecond, 0))

	_, err := chain.Generate(context.Background(), issueRequest())
	assert.ErrorIs(t, err, ErrProviderTimeout)
}

func TestChainMissingCredentialIsFatal(t *testing.T) {
	a := &fakeProvider{name: "a", reply: validIssue}
	chain := NewChain(NewGeminiClient("", "", ""), NewRateLimiter(15, time.Minute), WithBackups(a))

	_, err := chain.Generate(context.Background(), issueRequest())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, a.callCount())
}

func TestChainRateLimitSurfacesWaitHint(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	require.NoError(t, rl.Allow())

	primary := &fakeProvider{name: "gemini", reply: validIssue}
	a := &fakeProvider{name: "a", reply: validIssue}
	chain := NewChain(primary, rl, WithBackups(a))

	_, err := chain.Generate(context.Background(), issueRequest())
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Greater(t, rle.Seconds(), 0)
	assert.Equal(t, 0, primary.callCount())
	assert.Equal(t, 0, a.callCount())
}

func TestChainEveryAttemptSpendsBudget(t *testing.T) {
	rl := NewRateLimiter(15, time.Minute)
	primary := &fakeProvider{name: "gemini", err: errors.New("down")}
	a := &fakeProvider{name: "a", err: errors.New("down")}
	b := &fakeProvider{name: "b", reply: validIssue}
	chain := NewChain(primary, rl, WithBackups(a, b))

	_, err := chain.Generate(context.Background(), issueRequest())
	require.NoError(t, err)
	assert.Equal(t, 12, rl.Remaining())
}

func TestFriendlyName(t *testing.T) {
	assert.Equal(t, "gemma-3-27b-it", FriendlyName("google/gemma-3-27b-it:free"))
	assert.Equal(t, "auto", FriendlyName("openrouter/auto:free"))
	assert.Equal(t, "local-model", FriendlyName("local-model"))
}
