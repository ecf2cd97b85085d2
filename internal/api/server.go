// Package api is the HTTP surface of the guideline knowledge base.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/guidekb/internal/config"
	"github.com/dgallion1/guidekb/internal/ingest"
	"github.com/dgallion1/guidekb/internal/judge"
	"github.com/dgallion1/guidekb/internal/pipeline"
	"github.com/dgallion1/guidekb/internal/retrieval"
	"github.com/dgallion1/guidekb/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	ingest       *ingest.Service
	retrieval    *retrieval.Service
	judge        *judge.Judge
	store        *store.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(
	orch *pipeline.Orchestrator,
	ingestSvc *ingest.Service,
	retrievalSvc *retrieval.Service,
	judgeSvc *judge.Judge,
	st *store.Client,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		orchestrator: orch,
		ingest:       ingestSvc,
		retrieval:    retrievalSvc,
		judge:        judgeSvc,
		store:        st,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/scan", s.handleScan)

		r.Post("/api/query", s.handleQuery)
		r.Post("/api/judge", s.handleJudge)

		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
