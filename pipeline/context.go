package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/kb"
)

// DefaultContextTopK is the number of knowledge-base hits retrieved per run.
const DefaultContextTopK = 5

// Searcher is the retrieval surface the context builder depends on.
// *kb.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, query, workspaceID string, k int, includeVectors bool) ([]kb.Result, error)
}

// ContextBuilder retrieves supporting knowledge-base snippets for a run.
//
// Retrieval is an advisory enrichment: any failure degrades to an empty
// snippet list and never aborts the pipeline. Runs without a workspace
// skip retrieval entirely.
type ContextBuilder struct {
	searcher Searcher
	topK     int
	logger   *slog.Logger
}

// NewContextBuilder creates a context builder stage. A nil searcher is
// allowed and behaves as if retrieval always returned nothing.
func NewContextBuilder(searcher Searcher) *ContextBuilder {
	return &ContextBuilder{
		searcher: searcher,
		topK:     DefaultContextTopK,
		logger:   slog.Default().With("component", "context_builder"),
	}
}

// Run populates the state's context snippets.
func (b *ContextBuilder) Run(ctx context.Context, state core.DraftState) (core.DraftState, error) {
	state.ContextSnippets = []string{}

	if state.WorkspaceID == "" || b.searcher == nil {
		return state, nil
	}

	results, err := b.searcher.Search(ctx, state.MessageSummary, state.WorkspaceID, b.topK, false)
	if err != nil {
		b.logger.Warn("context retrieval failed, continuing without context",
			"workspace_id", state.WorkspaceID, "err", err)
		return state, nil
	}

	snippets := make([]string, 0, len(results))
	for _, result := range results {
		snippets = append(snippets, formatSnippet(result))
	}
	state.ContextSnippets = snippets
	return state, nil
}

// formatSnippet renders one hit as a single line of source, optional
// title, and content.
func formatSnippet(result kb.Result) string {
	if result.Title != "" {
		return fmt.Sprintf("[%s] %s: %s", result.Source, result.Title, result.Content)
	}
	return fmt.Sprintf("[%s] %s", result.Source, result.Content)
}
