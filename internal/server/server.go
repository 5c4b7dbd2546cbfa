// Package server provides the HTTP server and routing for coinfolio.
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

	"github.com/avgerinos/coinfolio/internal/clients/coingecko"
	"github.com/avgerinos/coinfolio/internal/clients/feargreed"
	"github.com/avgerinos/coinfolio/internal/config"
	"github.com/avgerinos/coinfolio/internal/database"
	"github.com/avgerinos/coinfolio/internal/modules/costs"
	costshandlers "github.com/avgerinos/coinfolio/internal/modules/costs/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/ingest"
	"github.com/avgerinos/coinfolio/internal/modules/ledger"
	ledgerhandlers "github.com/avgerinos/coinfolio/internal/modules/ledger/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/market"
	markethandlers "github.com/avgerinos/coinfolio/internal/modules/market/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/opportunities"
	opportunitieshandlers "github.com/avgerinos/coinfolio/internal/modules/opportunities/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
	portfoliohandlers "github.com/avgerinos/coinfolio/internal/modules/portfolio/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/proposals"
	proposalshandlers "github.com/avgerinos/coinfolio/internal/modules/proposals/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/reports"
	reportshandlers "github.com/avgerinos/coinfolio/internal/modules/reports/handlers"
	riskhandlers "github.com/avgerinos/coinfolio/internal/modules/risk/handlers"
	"github.com/avgerinos/coinfolio/internal/modules/snapshots"
	snapshotshandlers "github.com/avgerinos/coinfolio/internal/modules/snapshots/handlers"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Cfg         *config.Config
	PortfolioDB *database.DB
	CacheDB     *database.DB

	Ledger        *ledger.Service
	Market        *market.Service
	Portfolio     *portfolio.Service
	Costs         *costs.Service
	Proposals     *proposals.Service
	Opportunities *opportunities.Service
	Reports       *reports.Service
	Snapshots     *snapshots.Service

	CoinGecko *coingecko.Client
	FearGreed *feargreed.Client
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	deps           Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Cfg,
		deps:   cfg,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Cfg.DataDir, cfg.PortfolioDB, cfg.CacheDB)

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/system", func(r chi.Router) {
			r.Get("/info", s.systemHandlers.HandleSystemInfo)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})

		// The analyst boundary carries its own shared-key auth and is not
		// owner scoped.
		ingestHandler := ingest.NewHandler(s.cfg.IngestAPIKey,
			s.deps.Proposals, s.deps.Reports, s.deps.Market, s.log)
		ingestHandler.RegisterRoutes(r)

		// Everything below acts on behalf of an authenticated owner.
		r.Group(func(r chi.Router) {
			r.Use(s.ownerMiddleware)

			ledgerhandlers.NewHandler(s.deps.Ledger, s.log).RegisterRoutes(r)
			markethandlers.NewHandler(s.deps.Market, s.deps.CoinGecko, s.deps.FearGreed, s.log).RegisterRoutes(r)
			portfoliohandlers.NewHandler(s.deps.Portfolio, s.log).RegisterRoutes(r)
			riskhandlers.NewHandler(s.deps.Portfolio, s.log).RegisterRoutes(r)
			costshandlers.NewHandler(s.deps.Costs, s.log).RegisterRoutes(r)
			proposalshandlers.NewHandler(s.deps.Proposals, s.log).RegisterRoutes(r)
			opportunitieshandlers.NewHandler(s.deps.Opportunities, s.log).RegisterRoutes(r)
			reportshandlers.NewHandler(s.deps.Reports, s.log).RegisterRoutes(r)
			snapshotshandlers.NewHandler(s.deps.Snapshots, s.log).RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
