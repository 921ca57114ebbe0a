package kb

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyQuery indicates a search with an empty query string.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyWorkspace indicates a search without a workspace filter.
	// Queries against the shared collection must always be scoped.
	ErrEmptyWorkspace = errors.New("workspace id required")
)
