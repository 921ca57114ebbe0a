package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/storage"
)

// DefaultWorkspaceID is the shared fallback workspace consulted when a
// workspace has no stored policy of its own.
const DefaultWorkspaceID = "default"

// Tier identifies where a resolved policy came from.
type Tier string

const (
	// TierWorkspace means the workspace's own stored policy was used.
	TierWorkspace Tier = "workspace"
	// TierDefault means the shared default workspace's policy was used.
	TierDefault Tier = "default"
	// TierStub means the built-in stub table was used.
	TierStub Tier = "stub"
)

// Resolution is a resolved policy together with its provenance.
type Resolution struct {
	Policy *core.WorkspacePolicy
	Tier   Tier
}

// Resolver resolves the effective policy for a workspace with a
// three-tier fallback: the workspace's stored policy, then the stored
// policy of the default workspace, then a built-in stub table.
// Resolution never fails on a missing policy; only storage faults other
// than not-found are surfaced.
type Resolver interface {
	Resolve(ctx context.Context, workspaceID string) (*Resolution, error)
}

type resolver struct {
	repo   storage.PolicyRepository
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given repository.
func NewResolver(repo storage.PolicyRepository) Resolver {
	return &resolver{
		repo:   repo,
		logger: slog.Default().With("component", "policy_resolver"),
	}
}

func (r *resolver) Resolve(ctx context.Context, workspaceID string) (*Resolution, error) {
	if workspaceID != "" {
		policy, err := r.repo.GetPolicy(ctx, workspaceID)
		if err == nil {
			return &Resolution{Policy: policy, Tier: TierWorkspace}, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("resolving policy for %s: %w", workspaceID, err)
		}
	}

	if workspaceID != DefaultWorkspaceID {
		policy, err := r.repo.GetPolicy(ctx, DefaultWorkspaceID)
		if err == nil {
			r.logger.Debug("workspace policy missing, using default workspace",
				"workspace_id", workspaceID)
			return &Resolution{Policy: policy, Tier: TierDefault}, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("resolving default policy: %w", err)
		}
	}

	r.logger.Debug("no stored policy, using stub table", "workspace_id", workspaceID)
	return &Resolution{Policy: StubPolicy(workspaceID), Tier: TierStub}, nil
}
