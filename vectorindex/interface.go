// Package vectorindex provides vector storage and nearest-neighbor search
// for the knowledge base. The production implementation speaks the Qdrant
// REST API; an in-memory implementation backs tests and serverless runs.
package vectorindex

import (
	"context"
	"errors"
)

// Sentinel errors shared by index implementations.
var (
	// ErrDimensionMismatch indicates a vector whose length differs from the
	// collection dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCollectionNotFound indicates an operation against a collection that
	// was never created.
	ErrCollectionNotFound = errors.New("collection not found")
)

// Point is a unit stored in the index: a stable id, an embedding, and an
// arbitrary payload used for filtering and result hydration.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Hit is a single search result ranked by similarity score.
type Hit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector,omitempty"`
}

// SearchParams controls a nearest-neighbor query.
type SearchParams struct {
	// Filter restricts hits to points whose payload matches every key
	// exactly.
	Filter map[string]string

	// Limit caps the number of hits returned.
	Limit int

	// WithVectors includes raw vectors in hits. Off by default to keep
	// responses small.
	WithVectors bool
}

// Index stores (vector, payload) points and performs nearest-neighbor
// search with metadata filtering. Implementations must be safe for
// concurrent use.
type Index interface {
	// EnsureCollection creates the named collection with the given vector
	// dimensionality and cosine distance if it does not already exist.
	// Idempotent.
	EnsureCollection(ctx context.Context, name string, vectorSize int) error

	// Upsert inserts or overwrites points by id in one call.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to params.Limit hits ordered by descending
	// similarity score.
	Search(ctx context.Context, collection string, vector []float32, params SearchParams) ([]Hit, error)

	// Close releases resources held by the index client.
	Close() error
}
