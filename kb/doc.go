// Package kb implements the knowledge-base ingestion and retrieval engine:
// token-bounded chunking with content-hash deduplication, batched embedding,
// idempotent upserts keyed by content-derived point ids, and
// workspace-scoped nearest-neighbor search.
//
// The vector index is the system of record; chunks are discarded after
// embedding and upsert.
package kb
