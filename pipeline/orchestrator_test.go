package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/ai/mock"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/policy"
	badgerstore "github.com/poiesic/draftkit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	generator    *mock.MockGenerator
	putPolicy    func(*core.WorkspacePolicy)
}

func newOrchestratorFixture(t *testing.T, opts ...OrchestratorOption) *orchestratorFixture {
	t.Helper()

	policyRepo, _, checkpoints, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { policyRepo.Close(); backend.Close() })

	generator := mock.NewMockGenerator()
	allOpts := append([]OrchestratorOption{WithCheckpoints(checkpoints, true)}, opts...)
	orchestrator, err := NewOrchestrator(generator, nil, policy.NewResolver(policyRepo), allOpts...)
	require.NoError(t, err)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		generator:    generator,
		putPolicy: func(p *core.WorkspacePolicy) {
			t.Helper()
			_, err := policyRepo.PutPolicy(context.Background(), p)
			require.NoError(t, err)
		},
	}
}

func TestRunWithoutWorkspace(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.generator.Responses = []string{
		`{"intent": "support", "confidence": 0.9}`,
		"<p>You can reset your password from the login page.</p>",
	}

	result, err := fx.orchestrator.Run(context.Background(), RunInput{
		MessageSummary: "I need help resetting my password",
	})
	require.NoError(t, err)

	assert.Equal(t, core.IntentSupport, result.State.Intent)
	assert.Empty(t, result.State.ContextSnippets)
	assert.Empty(t, result.State.Violations)
	assert.Equal(t, RouteContinue, result.Route)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.ThreadID)
	assert.True(t, result.Durable)
	assert.Equal(t, 2, fx.generator.CallCount())
}

func TestRunBlockedByPolicy(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.putPolicy(&core.WorkspacePolicy{
		WorkspaceID: "ws-acme",
		ToneLevel:   3,
		Blocklist:   []string{"free trial"},
	})
	fx.generator.Responses = []string{
		`{"intent": "cs", "confidence": 0.8}`,
		"<p>Enjoy our free trial!</p>",
	}

	result, err := fx.orchestrator.Run(context.Background(), RunInput{
		MessageSummary: "what plans do you offer",
		WorkspaceID:    "ws-acme",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Blocklisted phrase detected: 'free trial'"}, result.State.Violations)
	assert.Equal(t, RouteHalt, result.Route)
}

func TestRunUsesResolvedPolicy(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.putPolicy(&core.WorkspacePolicy{
		WorkspaceID: "ws-acme",
		ToneLevel:   1,
		StyleHints:  map[string]string{"signoff": "Sincerely"},
	})
	fx.generator.Responses = []string{
		`{"intent": "exec", "confidence": 0.7}`,
		"<p>Thank you for reaching out.</p>",
	}

	result, err := fx.orchestrator.Run(context.Background(), RunInput{
		MessageSummary: "partnership inquiry",
		WorkspaceID:    "ws-acme",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.State.ToneLevel)
	drafterPrompt := fx.generator.Prompts()[1]
	assert.Contains(t, drafterPrompt.User, ToneInstruction(1))
	assert.Contains(t, drafterPrompt.User, "signoff: Sincerely")
}

func TestRunRejectsEmptySummary(t *testing.T) {
	fx := newOrchestratorFixture(t)

	_, err := fx.orchestrator.Run(context.Background(), RunInput{})
	assert.ErrorIs(t, err, core.ErrEmptySummary)
	assert.Zero(t, fx.generator.CallCount())
}

func TestRunCheckpointsFinalState(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.generator.Responses = []string{
		`{"intent": "support", "confidence": 0.9}`,
		"<p>All sorted.</p>",
	}

	result, err := fx.orchestrator.Run(context.Background(), RunInput{
		MessageSummary: "help me",
		ThreadID:       "thread-keep",
	})
	require.NoError(t, err)
	assert.Equal(t, "thread-keep", result.ThreadID)

	checkpoint, err := fx.orchestrator.GetRun(context.Background(), "thread-keep")
	require.NoError(t, err)
	assert.Equal(t, result.RunID, checkpoint.RunID)
	assert.Equal(t, core.StageDone, checkpoint.Stage)
	assert.Equal(t, "<p>All sorted.</p>", checkpoint.State.DraftHTML)
	assert.Equal(t, core.RunCompleted, checkpoint.Status())
}

func TestRunDrafterFailureCheckpointsError(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.generator.GenerateFunc = func(ctx context.Context, prompt ai.Prompt) (string, error) {
		if prompt.JSONMode {
			return `{"intent": "support", "confidence": 0.9}`, nil
		}
		return "", errors.New("model overloaded")
	}

	_, err := fx.orchestrator.Run(context.Background(), RunInput{
		MessageSummary: "help me",
		ThreadID:       "thread-fail",
	})
	require.ErrorIs(t, err, ErrDraftGeneration)

	checkpoint, getErr := fx.orchestrator.GetRun(context.Background(), "thread-fail")
	require.NoError(t, getErr)
	assert.Equal(t, core.StageDraft, checkpoint.Stage)
	assert.Equal(t, core.RunFailed, checkpoint.Status())
	assert.Contains(t, checkpoint.Error, "model overloaded")
}

func TestGetRunMissingThread(t *testing.T) {
	fx := newOrchestratorFixture(t)

	_, err := fx.orchestrator.GetRun(context.Background(), "no-such-thread")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestOrchestratorFallsBackToMemoryStore(t *testing.T) {
	policyRepo, _, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { policyRepo.Close(); backend.Close() })

	generator := mock.NewMockGenerator()
	orchestrator, err := NewOrchestrator(generator, nil, policy.NewResolver(policyRepo))
	require.NoError(t, err)
	assert.False(t, orchestrator.Durable())

	result, err := orchestrator.Run(context.Background(), RunInput{MessageSummary: "hi"})
	require.NoError(t, err)
	assert.False(t, result.Durable)

	checkpoint, err := orchestrator.GetRun(context.Background(), result.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, core.StageDone, checkpoint.Stage)
}

func TestRunReportsNonDurableStore(t *testing.T) {
	policyRepo, _, checkpoints, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { policyRepo.Close(); backend.Close() })

	generator := mock.NewMockGenerator()
	orchestrator, err := NewOrchestrator(generator, nil, policy.NewResolver(policyRepo),
		WithCheckpoints(checkpoints, false))
	require.NoError(t, err)
	assert.False(t, orchestrator.Durable())

	result, err := orchestrator.Run(context.Background(), RunInput{MessageSummary: "hi"})
	require.NoError(t, err)
	assert.False(t, result.Durable)
}

func TestNewOrchestratorValidation(t *testing.T) {
	policyRepo, _, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { policyRepo.Close(); backend.Close() })

	_, err = NewOrchestrator(nil, nil, policy.NewResolver(policyRepo))
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	_, err = NewOrchestrator(mock.NewMockGenerator(), nil, nil)
	assert.ErrorIs(t, err, ErrResolverRequired)
}
