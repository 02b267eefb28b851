package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// ErrMockUnavailable is what MockGeminiClient returns once it runs out of replies
var ErrMockUnavailable = errors.New("mock generator has no scripted reply")

// MockGeminiClient is a scripted TextGenerator. Replies are consumed in order;
// when Respond is set it takes over instead.
type MockGeminiClient struct {
	mu       sync.Mutex
	replies  []MockReply
	requests []repositories.GenerateRequest

	// Respond, if set, answers every request
	Respond func(req repositories.GenerateRequest) (string, error)
}

// MockReply is one scripted answer
type MockReply struct {
	Text string
	Err  error
}

var _ repositories.TextGenerator = (*MockGeminiClient)(nil)

// NewMockGeminiClient creates a mock that returns the given replies in order
func NewMockGeminiClient(replies ...MockReply) *MockGeminiClient {
	return &MockGeminiClient{replies: replies}
}

// Generate implements repositories.TextGenerator
func (m *MockGeminiClient) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if m.Respond != nil {
		return m.Respond(req)
	}

	if len(m.replies) == 0 {
		return "", ErrMockUnavailable
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply.Text, reply.Err
}

// Requests returns every request seen so far
func (m *MockGeminiClient) Requests() []repositories.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repositories.GenerateRequest(nil), m.requests...)
}

// MockGeminiFactory hands out generators and records which keys were used
type MockGeminiFactory struct {
	mu   sync.Mutex
	keys []string

	// NewGenerator builds the generator for a key. Defaults to a mock that
	// answers "ok" to everything.
	NewGenerator func(apiKey string) (repositories.TextGenerator, error)
}

var _ repositories.TextGeneratorFactory = (*MockGeminiFactory)(nil)

// NewTextGenerator implements repositories.TextGeneratorFactory
func (f *MockGeminiFactory) NewTextGenerator(ctx context.Context, apiKey string) (repositories.TextGenerator, error) {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	build := f.NewGenerator
	f.mu.Unlock()

	if build != nil {
		return build(apiKey)
	}
	return &MockGeminiClient{Respond: func(repositories.GenerateRequest) (string, error) {
		return "ok", nil
	}}, nil
}

// Keys returns the credentials seen so far
func (f *MockGeminiFactory) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}
