package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/linsched/internal/config"
	"github.com/me/linsched/internal/engine"
	"github.com/me/linsched/pkg/model"
)

// maxBodyBytes bounds solve request bodies. An 80x80 system is well under it.
const maxBodyBytes = 8 << 20

// Server is the linsched REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	engine    *engine.Engine
	gatherer  prometheus.Gatherer
	upgrader  websocket.Upgrader
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithGatherer sets the Prometheus gatherer served on /metrics. Defaults to
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, eng *engine.Engine, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		engine:    eng,
		gatherer:  prometheus.DefaultGatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusNotFound, model.NewNotFoundError("route", r.URL.Path))
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/solve", func(r chi.Router) {
			r.Post("/", s.handleSolveScenario)
			r.Post("/custom", s.handleSolveCustom)
			r.Post("/physical", s.handleSolvePhysical)
		})

		r.Get("/metrics", s.handleMetrics)

		r.Route("/logs/jobs", func(r chi.Router) {
			r.Get("/", s.handleExportJobs)
			r.Delete("/", s.handleClearJobs)
		})

		r.Get("/ws", s.handleWebSocket)
	})
}
