// Package main is the entry point for the coinfolio portfolio tracker.
// It wires configuration, databases, services and background jobs, then
// serves the HTTP API until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/avgerinos/coinfolio/internal/clients/coingecko"
	"github.com/avgerinos/coinfolio/internal/clients/feargreed"
	"github.com/avgerinos/coinfolio/internal/config"
	"github.com/avgerinos/coinfolio/internal/database"
	"github.com/avgerinos/coinfolio/internal/modules/costs"
	"github.com/avgerinos/coinfolio/internal/modules/ledger"
	"github.com/avgerinos/coinfolio/internal/modules/market"
	"github.com/avgerinos/coinfolio/internal/modules/opportunities"
	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
	"github.com/avgerinos/coinfolio/internal/modules/proposals"
	"github.com/avgerinos/coinfolio/internal/modules/reports"
	"github.com/avgerinos/coinfolio/internal/modules/snapshots"
	"github.com/avgerinos/coinfolio/internal/reliability"
	"github.com/avgerinos/coinfolio/internal/scheduler"
	"github.com/avgerinos/coinfolio/internal/server"
	"github.com/avgerinos/coinfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting coinfolio")

	// Databases: holdings and the audit trail live in portfolio.db, the
	// rebuildable price cache in cache.db.
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{portfolioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// External clients
	coinGecko := coingecko.NewClient(cfg.CoinGeckoBaseURL, log)
	fearGreed := feargreed.NewClient(cfg.FearGreedBaseURL, log)

	// Repositories and services
	ledgerService := ledger.NewService(
		portfolioDB.Conn(),
		ledger.NewHoldingRepository(portfolioDB.Conn(), log),
		ledger.NewTransactionRepository(portfolioDB.Conn(), log),
		log,
	)

	marketRepo := market.NewRepository(cacheDB.Conn(), portfolioDB.Conn(), log)
	marketService := market.NewService(marketRepo, coinGecko, cfg.PriceTTL, log)

	costsService := costs.NewService(costs.NewRepository(portfolioDB.Conn(), log), log)
	portfolioService := portfolio.NewService(ledgerService, marketService, costsService, log)

	proposalsService := proposals.NewService(proposals.NewRepository(portfolioDB.Conn(), log), log)
	opportunitiesService := opportunities.NewService(opportunities.NewRepository(portfolioDB.Conn(), log), log)
	reportsService := reports.NewService(reports.NewRepository(portfolioDB.Conn(), log), log)
	snapshotsService := snapshots.NewService(snapshots.NewRepository(portfolioDB.Conn(), log), portfolioService, log)

	// Background jobs
	sched := scheduler.New(log)

	if err := sched.AddJob("5 0 * * *", snapshots.NewSnapshotJob(snapshotsService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	if err := sched.AddJob("0 3 * * *", market.NewCleanupJob(marketRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	if err := sched.AddJob("0 4 * * 0", reliability.NewMaintenanceJob([]*database.DB{portfolioDB, cacheDB}, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize S3 client, cloud backups disabled")
		} else {
			backupService := reliability.NewBackupService(s3Client, []*database.DB{portfolioDB, cacheDB}, cfg.DataDir, log)
			if err := sched.AddJob("0 2 * * *", reliability.NewBackupJob(backupService)); err != nil {
				log.Fatal().Err(err).Msg("Failed to register backup job")
			}
			log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
		}
	} else {
		log.Debug().Msg("Backup credentials not configured, cloud backups disabled")
	}

	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Log:         log,
		Cfg:         cfg,
		PortfolioDB: portfolioDB,
		CacheDB:     cacheDB,

		Ledger:        ledgerService,
		Market:        marketService,
		Portfolio:     portfolioService,
		Costs:         costsService,
		Proposals:     proposalsService,
		Opportunities: opportunitiesService,
		Reports:       reportsService,
		Snapshots:     snapshotsService,

		CoinGecko: coinGecko,
		FearGreed: fearGreed,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	sched.Stop()

	log.Info().Msg("Shutdown complete")
}
