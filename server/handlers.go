package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/kb"
	"github.com/poiesic/draftkit/pipeline"
	"github.com/poiesic/draftkit/review"
	"github.com/poiesic/draftkit/storage"
)

type identityKey struct{}

// identity is the caller extracted from request headers. Auth proper is
// handled upstream; these headers are trusted within the deployment.
type identity struct {
	UserID    string
	UserEmail string
}

// requireIdentity rejects requests without an X-User-ID header.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity{
			UserID:    r.Header.Get("X-User-ID"),
			UserEmail: r.Header.Get("X-User-Email"),
		}
		if id.UserID == "" {
			s.respondError(w, http.StatusUnauthorized, "X-User-ID header required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func callerIdentity(ctx context.Context) identity {
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

// draftResponse is the flattened pipeline result returned to callers.
type draftResponse struct {
	RunID      string         `json:"run_id"`
	ThreadID   string         `json:"thread_id"`
	Intent     core.Intent    `json:"intent,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	DraftHTML  string         `json:"draft_html,omitempty"`
	Violations []string       `json:"violations"`
	Route      pipeline.Route `json:"route"`
	Durable    bool           `json:"durable"`
}

func (s *Server) handleRunDraft(w http.ResponseWriter, r *http.Request) {
	var input pipeline.RunInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.orchestrator.Run(r.Context(), input)
	if err != nil {
		if errors.Is(err, core.ErrEmptySummary) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("draft run failed", "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, draftResponse{
		RunID:      result.RunID,
		ThreadID:   result.ThreadID,
		Intent:     result.State.Intent,
		Confidence: result.State.Confidence,
		DraftHTML:  result.State.DraftHTML,
		Violations: result.State.Violations,
		Route:      result.Route,
		Durable:    result.Durable,
	})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	checkpoint, err := s.orchestrator.GetRun(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("checkpoint load failed", "thread_id", threadID, "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"run_id":    checkpoint.RunID,
		"thread_id": checkpoint.ThreadID,
		"stage":     checkpoint.Stage,
		"status":    checkpoint.Status(),
		"state":     checkpoint.State,
	})
}

type upsertDocumentRequest struct {
	Text        string   `json:"text"`
	WorkspaceID string   `json:"workspace_id"`
	Source      string   `json:"source"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *Server) handleUpsertDocument(w http.ResponseWriter, r *http.Request) {
	var req upsertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WorkspaceID == "" {
		s.respondError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	stats, err := s.knowledge.UpsertDocument(r.Context(), req.Text, req.WorkspaceID, req.Source, kb.DocumentMeta{
		Title: req.Title,
		URL:   req.URL,
		Tags:  req.Tags,
	})
	if err != nil {
		s.logger.Error("document ingestion failed", "workspace_id", req.WorkspaceID, "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, stats)
}

type searchKBRequest struct {
	Query          string `json:"query"`
	WorkspaceID    string `json:"workspace_id"`
	K              int    `json:"k,omitempty"`
	IncludeVectors bool   `json:"include_vectors,omitempty"`
}

func (s *Server) handleSearchKB(w http.ResponseWriter, r *http.Request) {
	var req searchKBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.knowledge.Search(r.Context(), req.Query, req.WorkspaceID, req.K, req.IncludeVectors)
	if err != nil {
		if errors.Is(err, kb.ErrEmptyQuery) || errors.Is(err, kb.ErrEmptyWorkspace) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("kb search failed", "workspace_id", req.WorkspaceID, "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	resolution, err := s.resolver.Resolve(r.Context(), workspaceID)
	if err != nil {
		s.logger.Error("policy resolution failed", "workspace_id", workspaceID, "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"policy": resolution.Policy,
		"tier":   resolution.Tier,
	})
}

func (s *Server) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	var policy core.WorkspacePolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	policy.WorkspaceID = workspaceID

	stored, err := s.policies.PutPolicy(r.Context(), &policy)
	if err != nil {
		if errors.Is(err, core.ErrInvalidPolicy) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("policy write failed", "workspace_id", workspaceID, "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var input review.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := callerIdentity(r.Context())
	input.UserID = id.UserID
	input.UserEmail = id.UserEmail

	record, err := s.reviews.Create(r.Context(), input)
	if err != nil {
		s.respondReviewError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r.Context())

	status := core.ReviewStatus(r.URL.Query().Get("status"))
	if status != "" {
		if err := core.ValidateReviewStatus(status); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := s.reviews.List(r.Context(), id.UserID, status, limit)
	if err != nil {
		s.respondReviewError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"reviews": records})
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r.Context())

	record, err := s.reviews.Get(r.Context(), id.UserID, chi.URLParam(r, "reviewID"))
	if err != nil {
		s.respondReviewError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, record)
}

type decisionRequest struct {
	Feedback string `json:"feedback,omitempty"`
}

func (s *Server) handleApproveReview(w http.ResponseWriter, r *http.Request) {
	s.handleDecision(w, r, s.reviews.Approve)
}

func (s *Server) handleRejectReview(w http.ResponseWriter, r *http.Request) {
	s.handleDecision(w, r, s.reviews.Reject)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request, decide func(context.Context, string, string, string) (*core.ReviewRecord, error)) {
	var req decisionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := callerIdentity(r.Context())
	record, err := decide(r.Context(), id.UserID, chi.URLParam(r, "reviewID"), req.Feedback)
	if err != nil {
		s.respondReviewError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, record)
}

type requestEditRequest struct {
	DraftHTML string `json:"draft_html"`
	EditNotes string `json:"edit_notes,omitempty"`
}

func (s *Server) handleRequestEdit(w http.ResponseWriter, r *http.Request) {
	var req requestEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := callerIdentity(r.Context())
	record, err := s.reviews.RequestEdit(r.Context(), id.UserID, chi.URLParam(r, "reviewID"), req.DraftHTML, req.EditNotes)
	if err != nil {
		s.respondReviewError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondReviewError maps review service errors onto HTTP statuses.
func (s *Server) respondReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "review not found")
	case errors.Is(err, review.ErrNotOwner):
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, review.ErrInvalidTransition):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidReviewRecord), errors.Is(err, core.ErrEmptyDraft):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("review operation failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encoding failed", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
