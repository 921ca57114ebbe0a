package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/storage"
)

func TestPolicyBasics(t *testing.T) {
	policyRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { policyRepo.Close(); backend.Close() }()

	ctx := context.Background()

	policy := &core.WorkspacePolicy{
		WorkspaceID: "ws-acme",
		ToneLevel:   2,
		StyleHints:  map[string]string{"signoff": "Best regards"},
		Blocklist:   []string{"guarantee", "refund immediately"},
	}

	stored, err := policyRepo.PutPolicy(ctx, policy)
	if err != nil {
		t.Fatalf("Failed to put policy: %v", err)
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be populated")
	}

	retrieved, err := policyRepo.GetPolicy(ctx, "ws-acme")
	if err != nil {
		t.Fatalf("Failed to get policy: %v", err)
	}
	if retrieved.ToneLevel != 2 {
		t.Fatalf("Expected tone 2, got %d", retrieved.ToneLevel)
	}
	if len(retrieved.Blocklist) != 2 {
		t.Fatalf("Expected 2 blocklist entries, got %d", len(retrieved.Blocklist))
	}
	if retrieved.StyleHints["signoff"] != "Best regards" {
		t.Fatalf("Unexpected style hints: %v", retrieved.StyleHints)
	}
}

func TestPolicyRewritePreservesCreatedAt(t *testing.T) {
	policyRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { policyRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first, err := policyRepo.PutPolicy(ctx, &core.WorkspacePolicy{
		WorkspaceID: "ws-a",
		ToneLevel:   3,
	})
	if err != nil {
		t.Fatalf("Failed to put policy: %v", err)
	}
	createdAt := first.CreatedAt

	second, err := policyRepo.PutPolicy(ctx, &core.WorkspacePolicy{
		WorkspaceID: "ws-a",
		ToneLevel:   5,
	})
	if err != nil {
		t.Fatalf("Failed to rewrite policy: %v", err)
	}

	if !second.CreatedAt.Equal(createdAt) {
		t.Fatalf("Expected creation time %v to survive rewrite, got %v", createdAt, second.CreatedAt)
	}

	retrieved, err := policyRepo.GetPolicy(ctx, "ws-a")
	if err != nil {
		t.Fatalf("Failed to get policy: %v", err)
	}
	if retrieved.ToneLevel != 5 {
		t.Fatalf("Expected tone 5 after rewrite, got %d", retrieved.ToneLevel)
	}
}

func TestPolicyValidationRejected(t *testing.T) {
	policyRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { policyRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = policyRepo.PutPolicy(ctx, &core.WorkspacePolicy{
		WorkspaceID: "ws-bad",
		ToneLevel:   9,
	})
	if !errors.Is(err, core.ErrInvalidPolicy) {
		t.Fatalf("Expected invalid policy error, got %v", err)
	}
}

func TestPolicyNotFound(t *testing.T) {
	policyRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { policyRepo.Close(); backend.Close() }()

	_, err = policyRepo.GetPolicy(context.Background(), "ws-missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestListPolicies(t *testing.T) {
	policyRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { policyRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for _, ws := range []string{"ws-a", "ws-b", "ws-c"} {
		if _, err := policyRepo.PutPolicy(ctx, &core.WorkspacePolicy{WorkspaceID: ws, ToneLevel: 3}); err != nil {
			t.Fatalf("Failed to put policy for %s: %v", ws, err)
		}
	}

	policies, err := policyRepo.ListPolicies(ctx)
	if err != nil {
		t.Fatalf("Failed to list policies: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("Expected 3 policies, got %d", len(policies))
	}
}
