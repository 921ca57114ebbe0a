// Package server provides the HTTP API for draftkit.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/draftkit/config"
	"github.com/poiesic/draftkit/kb"
	"github.com/poiesic/draftkit/pipeline"
	"github.com/poiesic/draftkit/policy"
	"github.com/poiesic/draftkit/review"
	"github.com/poiesic/draftkit/storage"
)

// KnowledgeBase is the ingestion/retrieval surface the API exposes.
// *kb.Engine satisfies it.
type KnowledgeBase interface {
	UpsertDocument(ctx context.Context, text, workspaceID, source string, meta kb.DocumentMeta) (kb.UpsertStats, error)
	Search(ctx context.Context, query, workspaceID string, k int, includeVectors bool) ([]kb.Result, error)
}

// Server is the HTTP server for the draftkit API.
type Server struct {
	orchestrator *pipeline.Orchestrator
	knowledge    KnowledgeBase
	policies     storage.PolicyRepository
	resolver     policy.Resolver
	reviews      *review.Service
	config       *config.ServerConfig
	logger       *slog.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	orchestrator *pipeline.Orchestrator,
	knowledge KnowledgeBase,
	policies storage.PolicyRepository,
	resolver policy.Resolver,
	reviews *review.Service,
	cfg *config.ServerConfig,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		knowledge:    knowledge,
		policies:     policies,
		resolver:     resolver,
		reviews:      reviews,
		config:       cfg,
		logger:       slog.Default().With("component", "server"),
	}
}

// Routes builds the chi router. Exposed for tests.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/v1/drafts", s.handleRunDraft)
	r.Get("/api/v1/drafts/{threadID}", s.handleGetDraft)

	r.Post("/api/v1/kb/documents", s.handleUpsertDocument)
	r.Post("/api/v1/kb/search", s.handleSearchKB)

	r.Get("/api/v1/workspaces/{workspaceID}/policy", s.handleGetPolicy)
	r.Put("/api/v1/workspaces/{workspaceID}/policy", s.handlePutPolicy)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Post("/", s.handleCreateReview)
		r.Get("/", s.handleListReviews)
		r.Get("/{reviewID}", s.handleGetReview)
		r.Post("/{reviewID}/approve", s.handleApproveReview)
		r.Post("/{reviewID}/reject", s.handleRejectReview)
		r.Post("/{reviewID}/request-edit", s.handleRequestEdit)
	})

	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler: s.Routes(),
	}
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
