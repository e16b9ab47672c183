package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/config"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/pipeline"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/provider"
)

// Server is the HTTP API server for the enrichment service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	llm          *provider.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. llm may be nil when
// running offline; the stats endpoint degrades accordingly.
func NewServer(orch *pipeline.Orchestrator, llm *provider.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		llm:          llm,
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
		r.Use(AuthMiddleware(s.cfg.ServiceAPIKey, s.log))

		r.Post("/api/enrich", s.handleEnrich)
		r.Get("/api/enrich/{jobID}/status", s.handleEnrichStatus)
		r.Get("/api/enrich/{jobID}/result", s.handleEnrichResult)
		r.Get("/api/stats/providers", s.handleProviderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
