package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/draftkit/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default canned behavior.
	GenerateFunc func(ctx context.Context, prompt ai.Prompt) (string, error)

	// Responses, when non-empty, are returned one by one in order.
	// After the slice is exhausted the last entry keeps being returned.
	Responses []string

	callCount int
	prompts   []ai.Prompt
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns the injected behavior, queued responses, or a canned
// completion that echoes the prompt shape.
func (m *MockGenerator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	if len(m.Responses) > 0 {
		idx := m.callCount - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], nil
	}

	if prompt.JSONMode {
		return `{"intent": "other", "confidence": 0.5}`, nil
	}
	return fmt.Sprintf("<p>Mock reply to: %s</p>", prompt.User), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Prompts returns every prompt passed to Generate, in call order.
func (m *MockGenerator) Prompts() []ai.Prompt {
	return m.prompts
}

// LastPrompt returns the most recent prompt, or a zero Prompt if none.
func (m *MockGenerator) LastPrompt() ai.Prompt {
	if len(m.prompts) == 0 {
		return ai.Prompt{}
	}
	return m.prompts[len(m.prompts)-1]
}

// Reset clears recorded calls and custom behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
	m.Responses = nil
}
