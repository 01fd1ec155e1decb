package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/talgya/daily-decree/internal/llm"
)

// MockGenerator is a mock type for the Generator type
type MockGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	ret := _m.Called(ctx, req)

	var r0 *llm.Result
	if rf, ok := ret.Get(0).(func(context.Context, llm.Request) *llm.Result); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.Result)
	}

	return r0, ret.Error(1)
}

// NewMockGenerator creates a new instance of MockGenerator with t registered for assertions.
func NewMockGenerator(t interface {
	mock.TestingT
	Helper()
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

// MockIllustrator is a mock type for the Illustrator type
type MockIllustrator struct {
	mock.Mock
}

// Illustrate provides a mock function with given fields: ctx, visualPrompt
func (_m *MockIllustrator) Illustrate(ctx context.Context, visualPrompt string) (string, error) {
	ret := _m.Called(ctx, visualPrompt)
	return ret.String(0), ret.Error(1)
}

var (
	_ Generator   = (*MockGenerator)(nil)
	_ Illustrator = (*MockIllustrator)(nil)
)

func withMarker(marker string) any {
	return mock.MatchedBy(func(r llm.Request) bool { return r.Marker == marker })
}

func result(text string) *llm.Result {
	return &llm.Result{Text: text, Provider: llm.PrimaryLabel, Model: "gemini-2.0-flash"}
}

// cannedProvider is an llm.Provider with a fixed reply, for running a real chain.
type cannedProvider struct {
	name  string
	reply string
	calls int
}

func (p *cannedProvider) Name() string  { return p.name }
func (p *cannedProvider) Model() string { return "test/" + p.name }

func (p *cannedProvider) Complete(context.Context, llm.Request) (string, error) {
	p.calls++
	return p.reply, nil
}

// memStore is an in-memory Store.
type memStore struct {
	mu    sync.Mutex
	files map[string]*SaveFile
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string]*SaveFile)}
}

func (s *memStore) Save(_ context.Context, f *SaveFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := Encode(f)
	if err != nil {
		return err
	}
	cp, err := Decode(data)
	if err != nil {
		return err
	}
	s.files[f.Metadata.ID] = cp
	return nil
}

func (s *memStore) Load(_ context.Context, id string) (*SaveFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("no save %s", id)
	}
	return f, nil
}

func (s *memStore) List(context.Context) ([]SaveMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []SaveMetadata{}
	for _, f := range s.files {
		out = append(out, f.Metadata)
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	return nil
}
