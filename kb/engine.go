package kb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/draftkit/ai"
	"github.com/poiesic/draftkit/vectorindex"
)

const (
	// DefaultCollection is the shared logical collection for all workspaces.
	// Isolation is enforced by the workspace_id payload filter, not by
	// separate collections.
	DefaultCollection = "draftkit_kb"

	// DefaultVectorSize matches text-embedding-3-small.
	DefaultVectorSize = 1536

	// DefaultTopK is the default number of search results.
	DefaultTopK = 5
	// MinTopK and MaxTopK bound the k parameter of Search.
	MinTopK = 1
	MaxTopK = 50

	// embedBatchSize caps texts per embedding provider call.
	embedBatchSize = 100

	embedMaxAttempts = 3
	embedBaseDelay   = 500 * time.Millisecond
)

// UpsertStats summarizes one document ingestion.
type UpsertStats struct {
	ChunksTotal       int `json:"chunks_total"`
	ChunksUploaded    int `json:"chunks_uploaded"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
}

// DocumentMeta carries optional provenance fields for an ingested document.
type DocumentMeta struct {
	Title string
	URL   string
	Tags  []string
}

// Result is a single knowledge-base search hit.
type Result struct {
	ChunkID     string    `json:"chunk_id"`
	Content     string    `json:"content"`
	Score       float64   `json:"score"`
	WorkspaceID string    `json:"workspace_id"`
	Source      string    `json:"source"`
	Title       string    `json:"title,omitempty"`
	URL         string    `json:"url,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Vector      []float32 `json:"vector,omitempty"`
}

// Engine orchestrates knowledge-base ingestion (chunk, dedup, embed, upsert)
// and retrieval (embed, filtered search). The vector index is the system of
// record; the engine never caches points locally.
type Engine struct {
	index        vectorindex.Index
	embedder     ai.Embedder
	collection   string
	vectorSize   int
	chunkSize    int
	chunkOverlap int
	searchTopK   int
	logger       *slog.Logger

	mu      sync.Mutex
	ensured bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCollection overrides the target collection name.
func WithCollection(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.collection = name
		}
	}
}

// WithVectorSize sets the collection dimensionality.
func WithVectorSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.vectorSize = size
		}
	}
}

// WithChunking overrides the chunk size and overlap (token units).
func WithChunking(size, overlap int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.chunkSize = size
		}
		if overlap >= 0 && overlap < e.chunkSize {
			e.chunkOverlap = overlap
		}
	}
}

// WithSearchTopK sets the result count used when Search is called with a
// non-positive k. Values outside [MinTopK, MaxTopK] are ignored.
func WithSearchTopK(k int) Option {
	return func(e *Engine) {
		if k >= MinTopK && k <= MaxTopK {
			e.searchTopK = k
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEngine creates a knowledge-base engine.
func NewEngine(index vectorindex.Index, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		index:        index,
		embedder:     embedder,
		collection:   DefaultCollection,
		vectorSize:   DefaultVectorSize,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		searchTopK:   DefaultTopK,
		logger:       slog.Default().With("component", "kb-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// UpsertDocument chunks, deduplicates, embeds, and upserts a document.
//
// Points carry deterministic ids derived from each chunk's content hash, so
// re-ingesting identical content overwrites instead of duplicating. An empty
// post-dedup chunk set short-circuits with zero counts and no index calls.
func (e *Engine) UpsertDocument(ctx context.Context, text, workspaceID, source string, meta DocumentMeta) (UpsertStats, error) {
	e.logger.Info("chunking document", "workspace", workspaceID, "source", source)

	chunks := ChunkText(text, e.chunkSize, e.chunkOverlap)
	total := len(chunks)
	chunks = Deduplicate(chunks)

	e.logger.Info("deduplicated chunks",
		"total", total,
		"unique", len(chunks),
		"duplicates", total-len(chunks))

	if len(chunks) == 0 {
		e.logger.Warn("no chunks to upload after deduplication")
		return UpsertStats{}, nil
	}

	if err := e.ensureCollection(ctx); err != nil {
		return UpsertStats{}, err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := e.embedBatches(ctx, texts)
	if err != nil {
		return UpsertStats{}, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return UpsertStats{}, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(chunks), len(vectors))
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	points := make([]vectorindex.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = vectorindex.Point{
			ID:     PointID(chunk.ContentHash),
			Vector: vectors[i],
			Payload: map[string]any{
				"workspace_id": workspaceID,
				"source":       source,
				"title":        meta.Title,
				"url":          meta.URL,
				"tags":         meta.Tags,
				"content":      chunk.Content,
				"content_hash": chunk.ContentHash,
				"created_at":   createdAt,
			},
		}
	}

	e.logger.Info("upserting points", "count", len(points), "collection", e.collection)
	if err := e.index.Upsert(ctx, e.collection, points); err != nil {
		return UpsertStats{}, fmt.Errorf("upserting points: %w", err)
	}

	return UpsertStats{
		ChunksTotal:       total,
		ChunksUploaded:    len(chunks),
		DuplicatesSkipped: total - len(chunks),
	}, nil
}

// Search embeds the query and returns up to k hits for the workspace,
// ordered by descending similarity score as returned by the index.
// A non-positive k falls back to the configured default; values above
// MaxTopK are clamped. Vectors are omitted unless requested.
func (e *Engine) Search(ctx context.Context, query, workspaceID string, k int, includeVectors bool) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if workspaceID == "" {
		return nil, ErrEmptyWorkspace
	}

	if k < MinTopK {
		k = e.searchTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	vector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := e.index.Search(ctx, e.collection, vector, vectorindex.SearchParams{
		Filter:      map[string]string{"workspace_id": workspaceID},
		Limit:       k,
		WithVectors: includeVectors,
	})
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, hitToResult(hit, includeVectors))
	}

	e.logger.Debug("search complete", "workspace", workspaceID, "hits", len(results))
	return results, nil
}

// PointID derives the stable point id for a chunk content hash: a UUIDv5 in
// a fixed namespace, so the same content always maps to the same id.
func PointID(contentHash string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(contentHash)).String()
}

// ensureCollection lazily creates the target collection on first use.
// Failures are retried on the next call.
func (e *Engine) ensureCollection(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ensured {
		return nil
	}
	if err := e.index.EnsureCollection(ctx, e.collection, e.vectorSize); err != nil {
		return fmt.Errorf("ensuring collection %q: %w", e.collection, err)
	}
	e.ensured = true
	return nil
}

// embedBatches embeds texts in provider-sized batches, concatenating results
// in input order.
func (e *Engine) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch := texts[start:end]

		e.logger.Debug("embedding batch", "batch", start/embedBatchSize+1, "size", len(batch))

		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// embedBatch calls the embedding provider for one batch, retrying transient
// failures with exponential backoff before surfacing the last error.
func (e *Engine) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	delay := embedBaseDelay
	var lastErr error

	for attempt := 1; attempt <= embedMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vectors, err := e.embedder.EmbedTexts(ctx, batch)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		e.logger.Debug("embedding attempt failed",
			"attempt", attempt, "maxAttempts", embedMaxAttempts, "err", err)

		if attempt == embedMaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, lastErr
}

func hitToResult(hit vectorindex.Hit, includeVectors bool) Result {
	result := Result{
		ChunkID: hit.ID,
		Score:   hit.Score,
	}
	if includeVectors {
		result.Vector = hit.Vector
	}

	payload := hit.Payload
	if payload == nil {
		return result
	}

	result.Content, _ = payload["content"].(string)
	result.WorkspaceID, _ = payload["workspace_id"].(string)
	result.Source, _ = payload["source"].(string)
	result.Title, _ = payload["title"].(string)
	result.URL, _ = payload["url"].(string)

	switch tags := payload["tags"].(type) {
	case []string:
		result.Tags = tags
	case []any:
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				result.Tags = append(result.Tags, s)
			}
		}
	}

	if result.Source == "" {
		result.Source = "unknown"
	}
	return result
}
