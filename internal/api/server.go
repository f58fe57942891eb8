// Package api exposes the enricher over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/emailgen/internal/config"
	"github.com/sells-group/emailgen/internal/enrich"
	"github.com/sells-group/emailgen/internal/store"
)

// Version is reported by the info, health and stats endpoints.
const Version = "1.0.0"

const maxBodyBytes = 16 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	enricher *enrich.Enricher
	store    store.Store
	cfg      config.ServerConfig
	now      func() time.Time
}

// New creates a Server. st may be nil, which disables run tracking.
func New(enricher *enrich.Enricher, st store.Store, cfg config.ServerConfig) *Server {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1000
	}
	return &Server{
		enricher: enricher,
		store:    st,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Handler builds the router with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins(s.cfg.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.cfg.RequestsPerSecond > 0 {
		r.Use(newIPRateLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst).middleware)
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/generate-email", s.handleGenerateEmail)
	r.Post("/enrich-leads-batch", s.handleEnrichBatch)
	r.Post("/generate-emails-bulk", s.handleEnrichBatch)
	r.Get("/runs/{id}", s.handleGetRun)

	return r
}

func origins(configured []string) []string {
	if len(configured) == 0 {
		return []string{"*"}
	}
	return configured
}
