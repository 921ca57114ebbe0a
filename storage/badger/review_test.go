package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/storage"
)

func newReviewRecord(userID, threadID string) *core.ReviewRecord {
	return &core.ReviewRecord{
		UserID:         userID,
		ThreadID:       threadID,
		MessageSummary: "Customer asks about invoice totals",
		DraftHTML:      "<p>Hi, happy to help with the invoice.</p>",
		DraftVersion:   1,
		Status:         core.ReviewPending,
	}
}

func TestReviewBasics(t *testing.T) {
	_, reviewRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { reviewRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := reviewRepo.AddReview(ctx, newReviewRecord("user-1", "thread-1"))
	if err != nil {
		t.Fatalf("Failed to add review: %v", err)
	}
	if added.ID == "" {
		t.Fatal("Expected generated ID")
	}
	if added.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be populated")
	}

	retrieved, err := reviewRepo.GetReview(ctx, added.ID)
	if err != nil {
		t.Fatalf("Failed to get review: %v", err)
	}
	if retrieved.Status != core.ReviewPending {
		t.Fatalf("Expected pending, got %s", retrieved.Status)
	}
	if retrieved.DraftVersion != 1 {
		t.Fatalf("Expected version 1, got %d", retrieved.DraftVersion)
	}
}

func TestReviewUpdateMovesStatusIndex(t *testing.T) {
	_, reviewRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { reviewRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := reviewRepo.AddReview(ctx, newReviewRecord("user-1", "thread-1"))
	if err != nil {
		t.Fatalf("Failed to add review: %v", err)
	}

	now := time.Now().UTC()
	added.Status = core.ReviewApproved
	added.ReviewedAt = &now
	if _, err := reviewRepo.UpdateReview(ctx, added); err != nil {
		t.Fatalf("Failed to update review: %v", err)
	}

	pending, err := reviewRepo.ListReviewsByStatus(ctx, core.ReviewPending, 0)
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("Expected no pending reviews, got %d", len(pending))
	}

	approved, err := reviewRepo.ListReviewsByStatus(ctx, core.ReviewApproved, 0)
	if err != nil {
		t.Fatalf("Failed to list approved: %v", err)
	}
	if len(approved) != 1 {
		t.Fatalf("Expected 1 approved review, got %d", len(approved))
	}
	if approved[0].ReviewedAt == nil {
		t.Fatal("Expected ReviewedAt to be set")
	}
}

func TestReviewListByUser(t *testing.T) {
	_, reviewRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { reviewRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := reviewRepo.AddReview(ctx, newReviewRecord("user-a", "thread-a")); err != nil {
			t.Fatalf("Failed to add review: %v", err)
		}
	}
	if _, err := reviewRepo.AddReview(ctx, newReviewRecord("user-b", "thread-b")); err != nil {
		t.Fatalf("Failed to add review: %v", err)
	}

	mine, err := reviewRepo.ListReviewsByUser(ctx, "user-a", 0)
	if err != nil {
		t.Fatalf("Failed to list by user: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("Expected 3 reviews for user-a, got %d", len(mine))
	}
	for _, rec := range mine {
		if rec.UserID != "user-a" {
			t.Fatalf("Got review owned by %s", rec.UserID)
		}
	}

	limited, err := reviewRepo.ListReviewsByUser(ctx, "user-a", 2)
	if err != nil {
		t.Fatalf("Failed to list with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("Expected 2 reviews with limit, got %d", len(limited))
	}
}

func TestReviewDuplicateAndMissing(t *testing.T) {
	_, reviewRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { reviewRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := reviewRepo.AddReview(ctx, newReviewRecord("user-1", "thread-1"))
	if err != nil {
		t.Fatalf("Failed to add review: %v", err)
	}

	dup := newReviewRecord("user-1", "thread-1")
	dup.ID = added.ID
	if _, err := reviewRepo.AddReview(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected duplicate key error, got %v", err)
	}

	missing := newReviewRecord("user-1", "thread-1")
	missing.ID = "no-such-id"
	if _, err := reviewRepo.UpdateReview(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected not found on update, got %v", err)
	}

	if _, err := reviewRepo.GetReview(ctx, "no-such-id"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected not found on get, got %v", err)
	}
}

func TestReviewValidationRejected(t *testing.T) {
	_, reviewRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { reviewRepo.Close(); backend.Close() }()

	rec := newReviewRecord("user-1", "thread-1")
	rec.DraftHTML = ""
	if _, err := reviewRepo.AddReview(context.Background(), rec); !errors.Is(err, core.ErrInvalidReviewRecord) {
		t.Fatalf("Expected invalid record error, got %v", err)
	}
}
