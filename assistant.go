// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package draftkit

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/ai/openai"
	"github.com/poiesic/draftkit/config"
	"github.com/poiesic/draftkit/kb"
	"github.com/poiesic/draftkit/pipeline"
	"github.com/poiesic/draftkit/policy"
	"github.com/poiesic/draftkit/review"
	"github.com/poiesic/draftkit/storage"
	"github.com/poiesic/draftkit/storage/badger"
	"github.com/poiesic/draftkit/vectorindex"
)

// Assistant wires storage, the AI provider, the knowledge base, policy
// resolution, the draft pipeline, and the review service behind a single
// handle. It owns every resource it opens; Close releases all of them.
type Assistant struct {
	backend      *badger.Backend
	policyRepo   storage.PolicyRepository
	reviewRepo   storage.ReviewRepository
	checkpoints  storage.CheckpointStore
	provider     ai.Provider
	index        vectorindex.Index
	knowledge    *kb.Engine
	resolver     policy.Resolver
	orchestrator *pipeline.Orchestrator
	reviews      *review.Service
	ingestPool   *ants.Pool
	logger       *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	provider      ai.Provider
	index         vectorindex.Index
	ingestWorkers int
}

// WithProvider overrides the OpenAI-compatible provider built from the
// config. Used by tests to inject mocks.
func WithProvider(provider ai.Provider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithVectorIndex overrides the Qdrant index built from the config.
func WithVectorIndex(index vectorindex.Index) AssistantOption {
	return func(o *assistantOptions) {
		o.index = index
	}
}

// WithIngestWorkers sets the worker pool size for background ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithIngestWorkers(size int) AssistantOption {
	return func(o *assistantOptions) {
		o.ingestWorkers = size
	}
}

// NewAssistant opens storage and builds the full draft stack from cfg.
// Call Close when finished.
func NewAssistant(cfg *config.Config, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := slog.Default().With("component", "assistant")

	backend, err := badger.OpenBackend(cfg.Storage.DatabasePath, cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}

	policyRepo := badger.NewPolicyRepository(backend)
	reviewRepo := badger.NewReviewRepository(backend)
	checkpoints := badger.NewCheckpointStore(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(&ai.Config{
			EmbeddingHost:   cfg.AI.EmbeddingHost,
			GenerationHost:  cfg.AI.GenerationHost,
			EmbeddingModel:  cfg.AI.EmbeddingModel,
			GenerationModel: cfg.AI.GenerationModel,
			APIKey:          cfg.AI.APIKey,
			RequestTimeout:  time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	index := options.index
	if index == nil {
		var qdrantOpts []vectorindex.QdrantOption
		if cfg.VectorIndex.APIKey != "" {
			qdrantOpts = append(qdrantOpts, vectorindex.WithAPIKey(cfg.VectorIndex.APIKey))
		}
		index, err = vectorindex.NewQdrant(cfg.VectorIndex.URL, qdrantOpts...)
		if err != nil {
			provider.Close()
			backend.Close()
			return nil, err
		}
	}

	knowledge, err := kb.NewEngine(index, provider.Embedder(),
		kb.WithCollection(cfg.VectorIndex.Collection),
		kb.WithVectorSize(cfg.VectorIndex.VectorSize),
		kb.WithChunking(cfg.KB.ChunkSize, cfg.KB.ChunkOverlap),
		kb.WithSearchTopK(cfg.KB.SearchTopK),
	)
	if err != nil {
		index.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	resolver := policy.NewResolver(policyRepo)

	orchestrator, err := pipeline.NewOrchestrator(provider.Generator(), knowledge, resolver,
		pipeline.WithCheckpoints(checkpoints, !cfg.Storage.InMemory))
	if err != nil {
		index.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	reviews, err := review.NewService(reviewRepo, resolver)
	if err != nil {
		index.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	workers := options.ingestWorkers
	if workers < 1 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}
	ingestPool, err := ants.NewPool(workers)
	if err != nil {
		index.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:      backend,
		policyRepo:   policyRepo,
		reviewRepo:   reviewRepo,
		checkpoints:  checkpoints,
		provider:     provider,
		index:        index,
		knowledge:    knowledge,
		resolver:     resolver,
		orchestrator: orchestrator,
		reviews:      reviews,
		ingestPool:   ingestPool,
		logger:       logger,
	}, nil
}

// Draft runs the full classify/context/draft/guard pipeline for input.
func (a *Assistant) Draft(ctx context.Context, input pipeline.RunInput) (pipeline.RunResult, error) {
	return a.orchestrator.Run(ctx, input)
}

// Ingest chunks, embeds, and uploads a document synchronously.
func (a *Assistant) Ingest(ctx context.Context, text, workspaceID, source string, meta kb.DocumentMeta) (kb.UpsertStats, error) {
	return a.knowledge.UpsertDocument(ctx, text, workspaceID, source, meta)
}

// IngestAsync submits document ingestion to the background worker pool.
// Failures are logged, not returned. Returns an error only when the pool
// rejects the task.
func (a *Assistant) IngestAsync(text, workspaceID, source string, meta kb.DocumentMeta) error {
	return a.ingestPool.Submit(func() {
		if _, err := a.knowledge.UpsertDocument(context.Background(), text, workspaceID, source, meta); err != nil {
			a.logger.Error("background ingestion failed", "workspace_id", workspaceID, "source", source, "err", err)
		}
	})
}

// SearchKB searches the workspace knowledge base.
func (a *Assistant) SearchKB(ctx context.Context, query, workspaceID string, k int) ([]kb.Result, error) {
	return a.knowledge.Search(ctx, query, workspaceID, k, false)
}

// Orchestrator exposes the draft pipeline.
func (a *Assistant) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

// KnowledgeBase exposes the knowledge-base engine.
func (a *Assistant) KnowledgeBase() *kb.Engine {
	return a.knowledge
}

// Reviews exposes the review service.
func (a *Assistant) Reviews() *review.Service {
	return a.reviews
}

// Resolver exposes the policy resolver.
func (a *Assistant) Resolver() policy.Resolver {
	return a.resolver
}

// PolicyRepository exposes the workspace policy store.
func (a *Assistant) PolicyRepository() storage.PolicyRepository {
	return a.policyRepo
}

// Close releases the worker pool, the AI provider, the vector index, and
// storage, in that order.
func (a *Assistant) Close() error {
	a.ingestPool.Release()

	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector index", "err", err)
	}

	if err := a.checkpoints.Close(); err != nil {
		a.logger.Error("error closing checkpoint store", "err", err)
		return err
	}
	if err := a.reviewRepo.Close(); err != nil {
		a.logger.Error("error closing review repository", "err", err)
		return err
	}
	if err := a.policyRepo.Close(); err != nil {
		a.logger.Error("error closing policy repository", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
