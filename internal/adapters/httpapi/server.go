// Package httpapi exposes the ledger's read-only query surface over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tradeLedger/internal/analytics"
	"tradeLedger/internal/domain"
	"tradeLedger/internal/ports"
)

// Ledger is the query surface served by the API.
type Ledger interface {
	Records(ctx context.Context) ([]domain.TransactionRecord, error)
	TradingRecords(ctx context.Context) ([]domain.TransactionRecord, error)
	ClosedPositions(ctx context.Context) ([]domain.ClosedPosition, error)
	OpenPositions(ctx context.Context) ([]domain.OpenPosition, error)
	MonthlyTotals(ctx context.Context) ([]domain.MonthlyTotal, error)
	Stats(ctx context.Context) (*analytics.PerformanceMetrics, error)
}

// Config holds server configuration
type Config struct {
	Addr   string
	Ledger Ledger
	Logger ports.Logger
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	ledger Ledger
	logger ports.Logger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		ledger: cfg.Ledger,
		logger: cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleRecords)
			r.Get("/trading", s.handleTradingRecords)
		})
		r.Route("/positions", func(r chi.Router) {
			r.Get("/closed", s.handleClosedPositions)
			r.Get("/open", s.handleOpenPositions)
		})
		r.Get("/totals", s.handleTotals)
		r.Get("/stats", s.handleStats)
	})
}

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting HTTP server", map[string]interface{}{"addr": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug(r.Context(), "HTTP request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}
