package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/draftkit/ai/mock"
	"github.com/poiesic/draftkit/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *vectorindex.Memory) {
	t.Helper()

	index := vectorindex.NewMemory()
	embedder := mock.NewMockEmbedder()

	engine, err := NewEngine(index, embedder,
		WithVectorSize(384),
		WithChunking(50, 10),
	)
	require.NoError(t, err)
	return engine, index
}

func TestNewEngine(t *testing.T) {
	t.Run("nil index", func(t *testing.T) {
		_, err := NewEngine(nil, mock.NewMockEmbedder())
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEngine(vectorindex.NewMemory(), nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("defaults", func(t *testing.T) {
		engine, err := NewEngine(vectorindex.NewMemory(), mock.NewMockEmbedder())
		require.NoError(t, err)
		assert.Equal(t, DefaultCollection, engine.collection)
		assert.Equal(t, DefaultVectorSize, engine.vectorSize)
		assert.Equal(t, DefaultTopK, engine.searchTopK)
	})
}

func TestUpsertDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("empty document short-circuits without index calls", func(t *testing.T) {
		engine, index := newTestEngine(t)

		stats, err := engine.UpsertDocument(ctx, "", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)
		assert.Zero(t, stats.ChunksTotal)
		assert.Zero(t, stats.ChunksUploaded)
		assert.Zero(t, index.Count(DefaultCollection))
	})

	t.Run("single chunk document", func(t *testing.T) {
		engine, index := newTestEngine(t)

		stats, err := engine.UpsertDocument(ctx, "Password resets are handled from the account page.", "ws-a", "upload", DocumentMeta{Title: "Resets"})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ChunksTotal)
		assert.Equal(t, 1, stats.ChunksUploaded)
		assert.Equal(t, 0, stats.DuplicatesSkipped)
		assert.Equal(t, 1, index.Count(DefaultCollection))
	})

	t.Run("re-ingestion is idempotent", func(t *testing.T) {
		engine, index := newTestEngine(t)
		text := "Refunds are issued within five business days of approval."

		_, err := engine.UpsertDocument(ctx, text, "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)
		first := index.Count(DefaultCollection)

		_, err = engine.UpsertDocument(ctx, text, "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)
		assert.Equal(t, first, index.Count(DefaultCollection))
	})

	t.Run("transient embedding failure is retried", func(t *testing.T) {
		index := vectorindex.NewMemory()
		embedder := mock.NewMockEmbedder()
		fallback := mock.NewMockEmbedder()

		calls := 0
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("temporarily unavailable")
			}
			return fallback.EmbedTexts(ctx, texts)
		}

		engine, err := NewEngine(index, embedder, WithVectorSize(384))
		require.NoError(t, err)

		stats, err := engine.UpsertDocument(ctx, "Retryable content.", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ChunksUploaded)
		assert.Equal(t, 2, calls)
	})

	t.Run("embedding failure surfaces", func(t *testing.T) {
		index := vectorindex.NewMemory()
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("embedding service down")
		}

		engine, err := NewEngine(index, embedder, WithVectorSize(384))
		require.NoError(t, err)

		_, err = engine.UpsertDocument(ctx, "some content", "ws-a", "upload", DocumentMeta{})
		assert.ErrorContains(t, err, "embedding")
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("requires query and workspace", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		_, err := engine.Search(ctx, "", "ws-a", 5, false)
		assert.Equal(t, ErrEmptyQuery, err)

		_, err = engine.Search(ctx, "refunds", "", 5, false)
		assert.Equal(t, ErrEmptyWorkspace, err)
	})

	t.Run("workspace isolation", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		_, err := engine.UpsertDocument(ctx, "Workspace A refund policy details.", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)
		_, err = engine.UpsertDocument(ctx, "Workspace B refund policy details differ.", "ws-b", "upload", DocumentMeta{})
		require.NoError(t, err)

		results, err := engine.Search(ctx, "refund policy", "ws-a", 10, false)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, result := range results {
			assert.Equal(t, "ws-a", result.WorkspaceID)
		}
	})

	t.Run("results carry payload fields and omit vectors by default", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		_, err := engine.UpsertDocument(ctx, "Billing cycles renew monthly on the signup date.", "ws-a", "docs",
			DocumentMeta{Title: "Billing", URL: "https://kb.example.com/billing", Tags: []string{"billing"}})
		require.NoError(t, err)

		results, err := engine.Search(ctx, "billing renewal", "ws-a", 5, false)
		require.NoError(t, err)
		require.Len(t, results, 1)

		result := results[0]
		assert.Equal(t, "docs", result.Source)
		assert.Equal(t, "Billing", result.Title)
		assert.Equal(t, "https://kb.example.com/billing", result.URL)
		assert.Equal(t, []string{"billing"}, result.Tags)
		assert.NotEmpty(t, result.Content)
		assert.Empty(t, result.Vector)
	})

	t.Run("include vectors on request", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		_, err := engine.UpsertDocument(ctx, "Vector round trip check.", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)

		results, err := engine.Search(ctx, "round trip", "ws-a", 5, true)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Len(t, results[0].Vector, 384)
	})

	t.Run("k is clamped", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		_, err := engine.UpsertDocument(ctx, "Only one stored chunk.", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)

		// Out-of-range values must not fail, just clamp.
		results, err := engine.Search(ctx, "chunk", "ws-a", 0, false)
		require.NoError(t, err)
		assert.Len(t, results, 1)

		results, err = engine.Search(ctx, "chunk", "ws-a", 500, false)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("configured default applies when k is unset", func(t *testing.T) {
		engine, err := NewEngine(vectorindex.NewMemory(), mock.NewMockEmbedder(),
			WithVectorSize(384),
			WithSearchTopK(1),
		)
		require.NoError(t, err)

		_, err = engine.UpsertDocument(ctx, "First note about invoices.", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)
		_, err = engine.UpsertDocument(ctx, "Second note about invoices.", "ws-a", "upload", DocumentMeta{})
		require.NoError(t, err)

		results, err := engine.Search(ctx, "invoices", "ws-a", 0, false)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestPointID(t *testing.T) {
	hash := ContentHash("stable content")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, PointID(hash), PointID(hash))
	})

	t.Run("distinct hashes yield distinct ids", func(t *testing.T) {
		assert.NotEqual(t, PointID(hash), PointID(ContentHash("other content")))
	})

	t.Run("uuid shaped", func(t *testing.T) {
		assert.Len(t, PointID(hash), 36)
	})
}
