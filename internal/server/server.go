// Package server provides the HTTP server and routing for the advisor API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/marketadvisor/internal/di"
	"github.com/aristath/marketadvisor/internal/scheduler"
	allocationhandlers "github.com/aristath/marketadvisor/internal/modules/allocation/handlers"
	analyticshandlers "github.com/aristath/marketadvisor/internal/modules/analytics/handlers"
	markethourshandlers "github.com/aristath/marketadvisor/internal/modules/market_hours/handlers"
	portfoliohandlers "github.com/aristath/marketadvisor/internal/modules/portfolio/handlers"
	sentimenthandlers "github.com/aristath/marketadvisor/internal/modules/sentiment/handlers"
	technicalhandlers "github.com/aristath/marketadvisor/internal/modules/technical/handlers"
)

// Version is reported by /health
var Version = "dev"

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	var jobs []scheduler.Job
	if c.Jobs != nil {
		jobs = append(jobs, c.Jobs.CacheCleanup, c.Jobs.CacheMaintenance, c.Jobs.SentimentRefresh)
	}
	systemHandlers := NewSystemHandlers(cfg.Log, c.Config.CacheBackend, c.CacheDB, c.MarketDataChain, c.Scheduler, jobs...)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		container:      c,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second, // a cold market analysis fetches 15 series
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Router exposes the configured handler (tests)
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(75 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container
	tables := c.Config.Tables

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", c.Metrics.Handler())

	analyticsHandler := analyticshandlers.NewHandler(c.AnalyticsService, c.MarketOverview, s.log)
	allocationHandler := allocationhandlers.NewHandler(c.AllocationEngine, tables, s.log)
	portfolioHandler := portfoliohandlers.NewHandler(c.AnalyticsService, s.log)
	sentimentHandler := sentimenthandlers.NewHandler(c.SentimentService, s.log)
	technicalHandler := technicalhandlers.NewHandler(c.TechnicalAnalyzer, s.log)
	marketHoursHandler := markethourshandlers.NewHandler(c.MarketHoursService, s.log)

	s.router.Route("/api", func(r chi.Router) {
		// Market: /market/analysis, /market/sectors, /market/correlation,
		// /market/overview, /market/status, /market/holidays
		analyticsHandler.RegisterRoutes(r)
		marketHoursHandler.RegisterRoutes(r)

		// Portfolio: /portfolio/recommendations, /portfolio/options, /portfolio/metrics
		allocationHandler.RegisterRoutes(r)
		portfolioHandler.RegisterRoutes(r)

		sentimentHandler.RegisterRoutes(r)
		technicalHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})
	})
}

// Start starts the HTTP server; it blocks until Shutdown
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests and records their duration by route
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.container.Metrics.ObserveHTTP(r.Method, route, ww.Status(), duration)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", duration).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
