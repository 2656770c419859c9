package ai

import (
	"context"
	"sync"

	"github.com/hznxin/tripmind/core"
)

// MockClient is a deterministic core.AIClient for tests and local runs
// without provider credentials. Respond is invoked per prompt; when nil,
// every call fails with core.ErrServiceUnavailable, which exercises the
// rule-only fallback paths.
type MockClient struct {
	mu      sync.Mutex
	calls   int
	Respond func(prompt string) (string, error)
}

// GenerateResponse implements core.AIClient.
func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, options *core.AIOptions) (*core.AIResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Respond == nil {
		return nil, core.ErrServiceUnavailable
	}
	content, err := m.Respond(prompt)
	if err != nil {
		return nil, err
	}
	return &core.AIResponse{Content: content, Model: "mock"}, nil
}

// Calls reports how many times the client was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ core.AIClient = (*MockClient)(nil)
