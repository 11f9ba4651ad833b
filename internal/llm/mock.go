package llm

import (
	"context"
	"sync"
)

// Mock answers every prompt with a fixed reply (or an echo of the prompt when
// Reply is empty) and records the prompts it saw.
type Mock struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// NewMock returns an echoing mock client.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", serviceError("mock", err)
	}
	if m.Err != nil {
		return "", serviceError("mock", m.Err)
	}
	if m.Reply == "" {
		return prompt, nil
	}
	return m.Reply, nil
}

// Prompts returns the prompts received so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
