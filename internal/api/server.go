// Package api wires the HTTP surface: routing, middleware, and handlers.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greenledger/produce-costing-backend/internal/api/handlers"
	"github.com/greenledger/produce-costing-backend/internal/api/middleware"
	"github.com/greenledger/produce-costing-backend/internal/application/service"
	"github.com/greenledger/produce-costing-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config         Config
	router         chi.Router
	httpServer     *http.Server
	logger         *slog.Logger
	repo           storage.Repository
	costingService *service.CostingService
	ingestService  *service.IngestService
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, costingService *service.CostingService, ingestService *service.IngestService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:         cfg,
		router:         chi.NewRouter(),
		logger:         logger,
		repo:           repo,
		costingService: costingService,
		ingestService:  ingestService,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Products
		productsHandler := handlers.NewProductsHandler(s.repo)
		r.Get("/products", productsHandler.List)
		r.Post("/products", productsHandler.Create)
		r.Get("/products/{id}", productsHandler.Get)
		r.Put("/products/{id}", productsHandler.Update)
		r.Delete("/products/{id}", productsHandler.Delete)

		// Sales
		salesHandler := handlers.NewSalesHandler(s.repo)
		r.Get("/sales", salesHandler.List)
		r.Post("/sales", salesHandler.Create)
		r.Put("/sales/{id}", salesHandler.Update)

		// Costs
		costsHandler := handlers.NewCostsHandler(s.repo)
		r.Get("/costs", costsHandler.List)
		r.Post("/costs", costsHandler.Create)
		r.Put("/costs/{id}", costsHandler.Update)
		r.Delete("/costs/{id}", costsHandler.Delete)

		// Allocation runs and reports
		allocationsHandler := handlers.NewAllocationsHandler(s.costingService)
		r.Post("/allocate/{period}", allocationsHandler.Allocate)
		r.Get("/allocations/{period}", allocationsHandler.List)

		reportsHandler := handlers.NewReportsHandler(s.costingService)
		r.Get("/reports/{period}", reportsHandler.Get)
		r.Get("/reports/{period}/csv", reportsHandler.ExportCSV)

		// Run history
		runsHandler := handlers.NewRunsHandler(s.repo)
		r.Get("/runs", runsHandler.List)

		// Dashboard
		statsHandler := handlers.NewStatsHandler(s.costingService)
		r.Get("/dashboard/stats", statsHandler.Get)

		// Spreadsheet ingestion
		ingestHandler := handlers.NewIngestHandler(s.ingestService)
		r.Post("/ingest/sales", ingestHandler.Sales)
		r.Post("/ingest/pnl", ingestHandler.PnL)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
