package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/pipeline"
	"github.com/poiesic/draftkit/policy"
	"github.com/poiesic/draftkit/storage"
)

// CreateInput is a request to put a generated draft under review.
type CreateInput struct {
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email,omitempty"`

	ThreadID    string `json:"thread_id"`
	RunID       string `json:"run_id,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`

	MessageSummary string      `json:"message_summary"`
	Intent         core.Intent `json:"intent,omitempty"`
	Confidence     float64     `json:"confidence,omitempty"`

	DraftHTML  string   `json:"draft_html"`
	Violations []string `json:"violations,omitempty"`
}

// Service owns the review state machine. Every mutating operation checks
// that the requester is the record's creator.
type Service struct {
	repo     storage.ReviewRepository
	resolver policy.Resolver
	logger   *slog.Logger
}

// NewService creates a review service. The resolver is used to re-screen
// edited drafts against the workspace blocklist; it may be nil, in which
// case edits are screened against the record's stub policy.
func NewService(repo storage.ReviewRepository, resolver policy.Resolver) (*Service, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   slog.Default().With("component", "review"),
	}, nil
}

// Create stores a new pending review at draft version 1.
func (s *Service) Create(ctx context.Context, input CreateInput) (*core.ReviewRecord, error) {
	record := &core.ReviewRecord{
		UserID:         input.UserID,
		UserEmail:      input.UserEmail,
		ThreadID:       input.ThreadID,
		RunID:          input.RunID,
		WorkspaceID:    input.WorkspaceID,
		MessageSummary: input.MessageSummary,
		Intent:         input.Intent,
		Confidence:     input.Confidence,
		DraftHTML:      input.DraftHTML,
		DraftVersion:   1,
		Violations:     input.Violations,
		Status:         core.ReviewPending,
	}
	if record.Violations == nil {
		record.Violations = []string{}
	}

	return s.repo.AddReview(ctx, record)
}

// Get retrieves a record scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (*core.ReviewRecord, error) {
	record, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrNotOwner
	}
	return record, nil
}

// List retrieves the user's records, most recent first, optionally
// filtered to one status. An empty status means no filter.
func (s *Service) List(ctx context.Context, userID string, status core.ReviewStatus, limit int) ([]*core.ReviewRecord, error) {
	records, err := s.repo.ListReviewsByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	if status != "" {
		filtered := records[:0]
		for _, record := range records {
			if record.Status == status {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Approve transitions a pending or editing record to approved.
func (s *Service) Approve(ctx context.Context, userID, id, feedback string) (*core.ReviewRecord, error) {
	return s.decide(ctx, userID, id, feedback, core.ReviewApproved)
}

// Reject transitions a pending or editing record to rejected.
func (s *Service) Reject(ctx context.Context, userID, id, feedback string) (*core.ReviewRecord, error) {
	return s.decide(ctx, userID, id, feedback, core.ReviewRejected)
}

func (s *Service) decide(ctx context.Context, userID, id, feedback string, status core.ReviewStatus) (*core.ReviewRecord, error) {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if record.Terminal() {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, status, record.Status)
	}

	now := time.Now().UTC()
	record.Status = status
	record.Feedback = feedback
	record.ReviewedAt = &now

	return s.repo.UpdateReview(ctx, record)
}

// RequestEdit replaces the draft, bumps the version, and re-screens the
// edited draft against the workspace blocklist so a reviewer cannot
// smuggle a blocked phrase past the guard. Allowed from every state; an
// edit on an approved or rejected record reopens it as editing.
func (s *Service) RequestEdit(ctx context.Context, userID, id, draftHTML, editNotes string) (*core.ReviewRecord, error) {
	if draftHTML == "" {
		return nil, core.ErrEmptyDraft
	}

	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	record.DraftHTML = draftHTML
	record.DraftVersion++
	record.Status = core.ReviewEditing
	record.EditNotes = editNotes
	record.Violations = s.screen(ctx, record.WorkspaceID, draftHTML)

	return s.repo.UpdateReview(ctx, record)
}

// screen runs the blocklist check for an edited draft. Resolution
// failures degrade to the stub policy rather than blocking the edit.
func (s *Service) screen(ctx context.Context, workspaceID, draftHTML string) []string {
	var pol *core.WorkspacePolicy
	if s.resolver != nil {
		resolution, err := s.resolver.Resolve(ctx, workspaceID)
		if err != nil {
			s.logger.Warn("policy resolution failed while screening edit",
				"workspace_id", workspaceID, "err", err)
		} else {
			pol = resolution.Policy
		}
	}
	if pol == nil {
		pol = policy.StubPolicy(workspaceID)
	}

	return pipeline.ScanBlocklist(draftHTML, pol.Blocklist)
}
