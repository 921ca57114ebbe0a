package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/ai/mock"
	"github.com/poiesic/draftkit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierParsesWellFormedResponse(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.Responses = []string{`{"intent": "support", "confidence": 0.92}`}
	classifier := NewClassifier(generator)

	state, err := classifier.Run(context.Background(), core.DraftState{
		MessageSummary: "I need help resetting my password",
	})
	require.NoError(t, err)

	assert.Equal(t, core.IntentSupport, state.Intent)
	assert.InDelta(t, 0.92, state.Confidence, 0.001)

	prompt := generator.LastPrompt()
	assert.True(t, prompt.JSONMode)
	assert.Contains(t, prompt.User, "I need help resetting my password")
}

func TestClassifierFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"unparseable json", `not json at all`},
		{"unknown intent label", `{"intent": "spam", "confidence": 0.9}`},
		{"empty response", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := mock.NewMockGenerator()
			generator.Responses = []string{tt.response}
			classifier := NewClassifier(generator)

			state, err := classifier.Run(context.Background(), core.DraftState{
				MessageSummary: "hello",
			})
			require.NoError(t, err)
			assert.Equal(t, core.IntentOther, state.Intent)
			assert.InDelta(t, 0.5, state.Confidence, 0.001)
		})
	}
}

func TestClassifierMissingConfidenceDefaults(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.Responses = []string{`{"intent": "cs"}`}
	classifier := NewClassifier(generator)

	state, err := classifier.Run(context.Background(), core.DraftState{MessageSummary: "billing"})
	require.NoError(t, err)
	assert.Equal(t, core.IntentCS, state.Intent)
	assert.InDelta(t, 0.5, state.Confidence, 0.001)
}

func TestClassifierClampsConfidence(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.Responses = []string{`{"intent": "exec", "confidence": 1.7}`}
	classifier := NewClassifier(generator)

	state, err := classifier.Run(context.Background(), core.DraftState{MessageSummary: "press"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, state.Confidence)
}

func TestClassifierStripsCodeFences(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.Responses = []string{"```json\n{\"intent\": \"support\", \"confidence\": 0.8}\n```"}
	classifier := NewClassifier(generator)

	state, err := classifier.Run(context.Background(), core.DraftState{MessageSummary: "help"})
	require.NoError(t, err)
	assert.Equal(t, core.IntentSupport, state.Intent)
}

func TestClassifierPropagatesGenerationFailure(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt ai.Prompt) (string, error) {
		return "", errors.New("connection refused")
	}
	classifier := NewClassifier(generator)

	_, err := classifier.Run(context.Background(), core.DraftState{MessageSummary: "help"})
	assert.ErrorIs(t, err, ErrClassification)
}
