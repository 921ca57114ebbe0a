package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEnsureCollection(t *testing.T) {
	ctx := context.Background()
	index := NewMemory()

	require.NoError(t, index.EnsureCollection(ctx, "kb", 3))

	t.Run("idempotent with same size", func(t *testing.T) {
		assert.NoError(t, index.EnsureCollection(ctx, "kb", 3))
	})

	t.Run("size conflict rejected", func(t *testing.T) {
		assert.ErrorIs(t, index.EnsureCollection(ctx, "kb", 5), ErrDimensionMismatch)
	})
}

func TestMemoryUpsert(t *testing.T) {
	ctx := context.Background()
	index := NewMemory()
	require.NoError(t, index.EnsureCollection(ctx, "kb", 3))

	t.Run("missing collection", func(t *testing.T) {
		err := index.Upsert(ctx, "nope", []Point{{ID: "a", Vector: []float32{1, 0, 0}}})
		assert.ErrorIs(t, err, ErrCollectionNotFound)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		err := index.Upsert(ctx, "kb", []Point{{ID: "a", Vector: []float32{1, 0}}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("upsert overwrites by id", func(t *testing.T) {
		require.NoError(t, index.Upsert(ctx, "kb", []Point{
			{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]any{"v": "1"}},
		}))
		require.NoError(t, index.Upsert(ctx, "kb", []Point{
			{ID: "a", Vector: []float32{0, 1, 0}, Payload: map[string]any{"v": "2"}},
		}))
		assert.Equal(t, 1, index.Count("kb"))
	})
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()
	index := NewMemory()
	require.NoError(t, index.EnsureCollection(ctx, "kb", 3))

	require.NoError(t, index.Upsert(ctx, "kb", []Point{
		{ID: "x", Vector: []float32{1, 0, 0}, Payload: map[string]any{"workspace_id": "ws-a", "content": "x"}},
		{ID: "y", Vector: []float32{0.9, 0.1, 0}, Payload: map[string]any{"workspace_id": "ws-a", "content": "y"}},
		{ID: "z", Vector: []float32{0, 0, 1}, Payload: map[string]any{"workspace_id": "ws-b", "content": "z"}},
	}))

	t.Run("ordered by descending similarity", func(t *testing.T) {
		hits, err := index.Search(ctx, "kb", []float32{1, 0, 0}, SearchParams{Limit: 10})
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "x", hits[0].ID)
		assert.Equal(t, "y", hits[1].ID)
		assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	})

	t.Run("filter excludes other workspaces", func(t *testing.T) {
		hits, err := index.Search(ctx, "kb", []float32{1, 0, 0}, SearchParams{
			Filter: map[string]string{"workspace_id": "ws-b"},
			Limit:  10,
		})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "z", hits[0].ID)
	})

	t.Run("limit truncates", func(t *testing.T) {
		hits, err := index.Search(ctx, "kb", []float32{1, 0, 0}, SearchParams{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("vectors omitted unless requested", func(t *testing.T) {
		hits, err := index.Search(ctx, "kb", []float32{1, 0, 0}, SearchParams{Limit: 1})
		require.NoError(t, err)
		assert.Nil(t, hits[0].Vector)

		hits, err = index.Search(ctx, "kb", []float32{1, 0, 0}, SearchParams{Limit: 1, WithVectors: true})
		require.NoError(t, err)
		assert.NotNil(t, hits[0].Vector)
	})
}
