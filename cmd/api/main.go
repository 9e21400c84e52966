package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/api"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
	"github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres"
	companyrepo "github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/fmp"
	"github.com/clementklenam/synergyalphaapi/internal/infra/logodev"
	"github.com/clementklenam/synergyalphaapi/internal/infra/wikipedia"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/logger"
	"github.com/clementklenam/synergyalphaapi/internal/service/fetch"
	"github.com/clementklenam/synergyalphaapi/internal/service/news"
	"github.com/clementklenam/synergyalphaapi/internal/service/realtime"
	"github.com/clementklenam/synergyalphaapi/internal/service/updater"
)

const (
	serviceName    = "synergyalpha-api"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		RotationSize:   cfg.Logging.RotationSize,
		RetentionDays:  cfg.Logging.RetentionDays,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("version", serviceVersion).
		Msg("🚀 Starting SynergyAlpha API Server...")

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbPool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Repositories
	repo := companyrepo.NewRepository(dbPool)

	// Upstream provider clients
	yahooClient := yahoo.NewClient(cfg.Providers.YahooBaseURL)
	fmpClient := fmp.NewClient(cfg.Providers.FMPBaseURL, cfg.Providers.FMPAPIKey)
	logoClient := logodev.NewClient(cfg.Providers.LogoBaseURL, cfg.Providers.LogoAPIToken)
	newsClient := yahoo.NewNewsClient("")
	sp500Client := wikipedia.NewClient(cfg.Providers.WikipediaBaseURL)

	if fmpClient.Enabled() {
		log.Info().Msg("✅ FMP provider enabled")
	} else {
		log.Warn().Msg("⚠️  FMP_API_KEY not set, running on Yahoo data only")
	}

	// Services
	fetchSvc := fetch.NewService(cfg, yahooClient, fmpClient, logoClient)
	clock := market.NewUSEquityClock()
	newsSvc := news.NewService(newsClient)

	merger := updater.NewMerger(fetchSvc, clock, cfg.Updater.MinFields)
	scheduler := updater.NewScheduler(fetchSvc, clock, cfg.Updater)
	orchestrator := updater.NewOrchestrator(merger, repo, cfg.Updater)
	updaterSvc := updater.NewService(orchestrator, scheduler, repo, sp500Client, cfg.Updater)

	realtimeManager := realtime.NewManager(
		fetchSvc,
		realtime.NewCache(cfg.Realtime.CacheTTL),
		realtime.NewRegistry(),
		cfg.Realtime,
	)

	// Background loops
	updaterSvc.Start(ctx)
	realtimeManager.Start(ctx)

	// Router
	httpRouter := api.NewRouter(cfg, api.Deps{
		DBPool:   dbPool,
		Repo:     repo,
		Clock:    clock,
		News:     newsSvc,
		Updater:  updaterSvc,
		Realtime: realtimeManager,
		Version:  serviceVersion,
	})

	// CORS configuration
	allowedOrigins := gorillaHandlers.AllowedOrigins([]string{"*"})
	allowedMethods := gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	allowedHeaders := gorillaHandlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type"})

	handler := gorillaHandlers.CORS(allowedOrigins, allowedMethods, allowedHeaders)(httpRouter)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", addr).
			Msg("🎯 API Server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("🛑 Shutdown signal received, stopping server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	// Stop background loops before the pool closes
	realtimeManager.Stop()
	updaterSvc.Stop()

	log.Info().Msg("👋 SynergyAlpha API Server stopped")
}
