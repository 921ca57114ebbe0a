package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/policy"
	"github.com/poiesic/draftkit/storage"
)

// RunInput is a request to generate a draft.
type RunInput struct {
	MessageSummary string `json:"message_summary"`
	WorkspaceID    string `json:"workspace_id,omitempty"`
	ThreadID       string `json:"thread_id,omitempty"`
}

// RunResult is the outcome of a completed pipeline run.
type RunResult struct {
	RunID    string          `json:"run_id"`
	ThreadID string          `json:"thread_id"`
	State    core.DraftState `json:"state"`
	Route    Route           `json:"route"`

	// Durable reports whether the run's checkpoint survives a restart.
	Durable bool `json:"durable"`
}

// Orchestrator sequences the four stages in strict order and checkpoints
// run state under the thread identifier after every stage.
type Orchestrator struct {
	classifier     *Classifier
	contextBuilder *ContextBuilder
	drafter        *Drafter
	guard          *PolicyGuard

	resolver    policy.Resolver
	checkpoints storage.CheckpointStore
	durable     bool
	logger      *slog.Logger
}

// OrchestratorOption customizes orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithCheckpoints sets the checkpoint store. durable declares whether the
// store survives a process restart; an in-memory backed store must pass
// false so RunResult.Durable reports the actual checkpoint tier. Without
// this option the orchestrator keeps run state in memory only.
func WithCheckpoints(store storage.CheckpointStore, durable bool) OrchestratorOption {
	return func(o *Orchestrator) {
		if store != nil {
			o.checkpoints = store
			o.durable = durable
		}
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates a pipeline orchestrator. The searcher may be
// nil, in which case runs proceed without knowledge-base context.
func NewOrchestrator(generator ai.Generator, searcher Searcher, resolver policy.Resolver, opts ...OrchestratorOption) (*Orchestrator, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}

	o := &Orchestrator{
		classifier:     NewClassifier(generator),
		contextBuilder: NewContextBuilder(searcher),
		drafter:        NewDrafter(generator),
		guard:          NewPolicyGuard(),
		resolver:       resolver,
		logger:         slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.checkpoints == nil {
		o.logger.Warn("no durable checkpoint store configured, run state will not survive a restart")
		o.checkpoints = storage.NewMemoryCheckpointStore()
		o.durable = false
	}

	return o, nil
}

// Durable reports whether run checkpoints survive a process restart.
func (o *Orchestrator) Durable() bool {
	return o.durable
}

// Run executes the pipeline for one input and returns the terminal state.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (RunResult, error) {
	if strings.TrimSpace(input.MessageSummary) == "" {
		return RunResult{}, core.ErrEmptySummary
	}

	threadID := input.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}
	runID := uuid.NewString()

	state := o.initialState(ctx, input)

	stages := []struct {
		name string
		run  func(context.Context, core.DraftState) (core.DraftState, error)
	}{
		{core.StageClassify, o.classifier.Run},
		{core.StageContext, o.contextBuilder.Run},
		{core.StageDraft, o.drafter.Run},
		{core.StageGuard, o.guard.Run},
	}

	for _, stage := range stages {
		next, err := stage.run(ctx, state)
		if err != nil {
			o.checkpoint(ctx, runID, threadID, stage.name, state, err)
			return RunResult{}, fmt.Errorf("stage %s: %w", stage.name, err)
		}
		state = next
		o.checkpoint(ctx, runID, threadID, stage.name, state, nil)
	}

	o.checkpoint(ctx, runID, threadID, core.StageDone, state, nil)

	route := DecideRoute(state)
	o.logger.Info("run finished",
		"run_id", runID,
		"thread_id", threadID,
		"intent", state.Intent,
		"route", route)

	return RunResult{
		RunID:    runID,
		ThreadID: threadID,
		State:    state,
		Route:    route,
		Durable:  o.durable,
	}, nil
}

// GetRun returns the last checkpointed state for a thread.
func (o *Orchestrator) GetRun(ctx context.Context, threadID string) (*core.RunCheckpoint, error) {
	checkpoint, err := o.checkpoints.LoadCheckpoint(ctx, threadID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return checkpoint, nil
}

// initialState seeds the workflow state from the input and the resolved
// workspace policy. Policy resolution never aborts a run.
func (o *Orchestrator) initialState(ctx context.Context, input RunInput) core.DraftState {
	state := core.DraftState{
		MessageSummary:  input.MessageSummary,
		WorkspaceID:     input.WorkspaceID,
		ContextSnippets: []string{},
		Violations:      []string{},
	}

	resolution, err := o.resolver.Resolve(ctx, input.WorkspaceID)
	if err != nil {
		o.logger.Warn("policy resolution failed, using stub policy",
			"workspace_id", input.WorkspaceID, "err", err)
		resolution = &policy.Resolution{
			Policy: policy.StubPolicy(input.WorkspaceID),
			Tier:   policy.TierStub,
		}
	}

	state.ToneLevel = resolution.Policy.ToneLevel
	state.StyleHints = resolution.Policy.StyleHints
	state.Blocklist = resolution.Policy.Blocklist
	o.logger.Debug("policy resolved",
		"workspace_id", input.WorkspaceID, "tier", resolution.Tier)

	return state
}

// checkpoint writes the latest run snapshot. A checkpoint write failure
// is logged but never fails the run itself.
func (o *Orchestrator) checkpoint(ctx context.Context, runID, threadID, stage string, state core.DraftState, stageErr error) {
	cp := &core.RunCheckpoint{
		RunID:    runID,
		ThreadID: threadID,
		Stage:    stage,
		State:    state,
	}
	if stageErr != nil {
		cp.Error = stageErr.Error()
	}

	if err := o.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		o.logger.Warn("checkpoint write failed",
			"run_id", runID, "thread_id", threadID, "stage", stage, "err", err)
	}
}
