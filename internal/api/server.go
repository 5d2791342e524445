package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/wikigest/internal/config"
	"github.com/dgallion1/wikigest/internal/pipeline"
	"github.com/dgallion1/wikigest/internal/store"
)

// Server is the HTTP API server for wikigest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	// db serves the entry endpoints. Nil when no database is configured.
	db  *store.SQLiteStore
	log *slog.Logger
	cfg config.Config
}

// NewServer creates and configures the HTTP server. db may be nil.
func NewServer(orch *pipeline.Orchestrator, db *store.SQLiteStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		db:           db,
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

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/parse/html", s.handleParseHTML)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/api/entries", s.handleListEntries)
		r.Get("/api/entries/{lang}/*", s.handleGetEntry)
		r.Get("/api/search", s.handleSearch)

		r.Get("/api/adapters", s.handleAdapters)
		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
