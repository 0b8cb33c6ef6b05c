// Package server provides the HTTP API of the advisor.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/database"
	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/metrics"
	"github.com/aristath/vitals/internal/services"
)

// RequestTimeout bounds every non-streaming request
const RequestTimeout = 60 * time.Second

// Config holds server dependencies. Metrics and CacheDB may be nil.
type Config struct {
	Log      zerolog.Logger
	Advisory *services.AdvisoryService
	EventBus *events.Bus
	Metrics  *metrics.Recorder
	CacheDB  *database.DB
	Port     int
	DevMode  bool
}

// Server is the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	port     int
	metrics  *metrics.Recorder
	advisory *services.AdvisoryService

	decisionHandlers *DecisionHandlers
	systemHandlers   *SystemHandlers
	streamHandler    *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	log := cfg.Log.With().Str("component", "server").Logger()

	s := &Server{
		router:           chi.NewRouter(),
		log:              log,
		port:             cfg.Port,
		metrics:          cfg.Metrics,
		advisory:         cfg.Advisory,
		decisionHandlers: NewDecisionHandlers(cfg.Advisory, log),
		systemHandlers:   NewSystemHandlers(cfg.Advisory, cfg.EventBus, cfg.CacheDB, log),
		streamHandler:    NewEventsStreamHandler(cfg.EventBus, cfg.Advisory.Latest(), log),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streams are long lived; other routes are bounded by RequestTimeout
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	// the stream outlives any request timeout
	s.router.Get("/api/stream", s.streamHandler.ServeHTTP)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		if !devMode {
			r.Use(middleware.Compress(5))
		}

		r.Get("/health", s.handleHealth)
		if s.metrics != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/run", s.decisionHandlers.HandleRun)
			r.Post("/decisions", s.decisionHandlers.HandleDecisions)
			r.Post("/guardrails", s.decisionHandlers.HandleGuardrails)
			r.Get("/scenarios", s.decisionHandlers.HandleScenarios)

			r.Get("/latest", s.decisionHandlers.HandleLatest)
			r.Get("/latest/plan", s.decisionHandlers.HandleLatestPlan)

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests and records them by route pattern
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, ww.Status(), duration)
		}

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", duration).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
