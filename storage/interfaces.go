package storage

import (
	"context"

	"github.com/poiesic/draftkit/core"
)

// CheckpointStore persists pipeline run checkpoints keyed by thread.
// Implementations must be thread-safe and support concurrent access.
type CheckpointStore interface {
	// SaveCheckpoint persists the checkpoint, overwriting any previous
	// checkpoint for the same thread. Updates the UpdatedAt timestamp.
	SaveCheckpoint(ctx context.Context, checkpoint *core.RunCheckpoint) error

	// LoadCheckpoint retrieves the latest checkpoint for a thread.
	// Returns ErrNotFound if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, threadID string) (*core.RunCheckpoint, error)

	// Close closes the store and releases resources.
	Close() error
}

// PolicyRepository provides operations for managing workspace policies.
type PolicyRepository interface {
	// PutPolicy validates and stores a policy, replacing any existing
	// policy for the same workspace. Sets CreatedAt on first write and
	// UpdatedAt on every write.
	PutPolicy(ctx context.Context, policy *core.WorkspacePolicy) (*core.WorkspacePolicy, error)

	// GetPolicy retrieves the policy for a workspace.
	// Returns ErrNotFound if no policy exists.
	GetPolicy(ctx context.Context, workspaceID string) (*core.WorkspacePolicy, error)

	// ListPolicies retrieves all stored policies ordered by workspace ID.
	ListPolicies(ctx context.Context) ([]*core.WorkspacePolicy, error)

	// Close closes the repository and releases resources.
	Close() error
}

// ReviewRepository provides operations for managing draft review records.
type ReviewRepository interface {
	// AddReview stores a new review record. Generates an ID if unset and
	// populates CreatedAt and UpdatedAt.
	// Returns ErrDuplicateKey if a record with the same ID already exists.
	AddReview(ctx context.Context, record *core.ReviewRecord) (*core.ReviewRecord, error)

	// UpdateReview replaces an existing review record and bumps UpdatedAt.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateReview(ctx context.Context, record *core.ReviewRecord) (*core.ReviewRecord, error)

	// GetReview retrieves a single review record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetReview(ctx context.Context, id string) (*core.ReviewRecord, error)

	// ListReviewsByUser retrieves records owned by a user, most recent
	// first. Returns up to limit records; limit <= 0 means no limit.
	ListReviewsByUser(ctx context.Context, userID string, limit int) ([]*core.ReviewRecord, error)

	// ListReviewsByStatus retrieves records in a given status, most recent
	// first. Returns up to limit records; limit <= 0 means no limit.
	ListReviewsByStatus(ctx context.Context, status core.ReviewStatus, limit int) ([]*core.ReviewRecord, error)

	// Close closes the repository and releases resources.
	Close() error
}
