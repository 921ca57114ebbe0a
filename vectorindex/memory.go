package vectorindex

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
)

// Memory is an in-process Index used by tests and serverless runs.
// Search scores by cosine similarity over a full scan.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	vectorSize int
	points     map[string]Point
}

var _ Index = (*Memory)(nil)

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memoryCollection),
	}
}

// EnsureCollection creates the collection if missing. Idempotent.
func (m *Memory) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.collections[name]; ok {
		if existing.vectorSize != vectorSize {
			return fmt.Errorf("%w: collection %q has size %d, requested %d",
				ErrDimensionMismatch, name, existing.vectorSize, vectorSize)
		}
		return nil
	}

	m.collections[name] = &memoryCollection{
		vectorSize: vectorSize,
		points:     make(map[string]Point),
	}
	return nil
}

// Upsert inserts or overwrites points by id.
func (m *Memory) Upsert(ctx context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, collection)
	}

	for _, point := range points {
		if len(point.Vector) != coll.vectorSize {
			return fmt.Errorf("%w: point %q has %d dims, collection %q expects %d",
				ErrDimensionMismatch, point.ID, len(point.Vector), collection, coll.vectorSize)
		}
		coll.points[point.ID] = point
	}
	return nil
}

// Search scans every point, filters by exact payload match, and returns up
// to params.Limit hits ordered by descending cosine similarity.
func (m *Memory) Search(ctx context.Context, collection string, vector []float32, params SearchParams) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, collection)
	}

	var hits []Hit
	for _, point := range coll.points {
		if !matchesFilter(point.Payload, params.Filter) {
			continue
		}

		hit := Hit{
			ID:      point.ID,
			Score:   cosineSimilarity(vector, point.Vector),
			Payload: point.Payload,
		}
		if params.WithVectors {
			hit.Vector = point.Vector
		}
		hits = append(hits, hit)
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if params.Limit > 0 && len(hits) > params.Limit {
		hits = hits[:params.Limit]
	}
	return hits, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Count returns the number of points in a collection. Test helper.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return 0
	}
	return len(coll.points)
}

func matchesFilter(payload map[string]any, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := payload[key]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	minLen := min(len(a), len(b))

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
