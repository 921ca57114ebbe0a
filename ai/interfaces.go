package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text completions from prompts.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate invokes the model once and returns the raw completion text.
	// Callers own any parsing or normalization of the result; transport
	// failures (timeout, network, authentication) are returned as errors.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt describes a single generation request.
type Prompt struct {
	// System is an optional system instruction prepended to the request.
	System string

	// User is the user-facing prompt content.
	User string

	// JSONMode asks the model to emit a JSON object. Callers still have to
	// tolerate malformed output.
	JSONMode bool

	// Temperature controls sampling randomness. Zero means deterministic.
	Temperature float64
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
