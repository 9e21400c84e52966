package api

import (
	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/handlers"
	"github.com/clementklenam/synergyalphaapi/internal/api/middleware"
	"github.com/clementklenam/synergyalphaapi/internal/api/routes"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
	"github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/logger"
	"github.com/clementklenam/synergyalphaapi/internal/service/news"
	"github.com/clementklenam/synergyalphaapi/internal/service/realtime"
	"github.com/clementklenam/synergyalphaapi/internal/service/updater"
)

// Deps holds the services the API routes are built on
type Deps struct {
	DBPool   *postgres.Pool
	Repo     company.Repository
	Clock    *market.Clock
	News     *news.Service
	Updater  *updater.Service
	Realtime *realtime.Manager
	Version  string
}

// NewRouter creates the HTTP router with all middleware and routes wired
func NewRouter(cfg *config.Config, deps Deps) *mux.Router {
	router := mux.NewRouter()

	// Recovery first, then request ID so logging can tag every line
	router.Use(middleware.Recovery)
	router.Use(middleware.RequestID)

	loggingCfg := middleware.LoggingConfig{
		SkipPaths: []string{"/health", "/health/ready"},
	}
	if cfg.Logging.FileEnabled {
		accessLogger := logger.NewAccessLogger(
			cfg.Logging.FilePath,
			cfg.Logging.RotationSize,
			cfg.Logging.RetentionDays,
		)
		loggingCfg.AccessLogger = &accessLogger
	}
	router.Use(middleware.Logging(loggingCfg))

	// Health checks (no /api prefix)
	healthHandler := handlers.NewHealthHandler(deps.DBPool, deps.Updater, deps.Version)
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.HandleFunc("/api/health/detailed", healthHandler.Detailed).Methods("GET")

	routes.RegisterCompanyRoutes(router, deps.Repo, deps.News)
	routes.RegisterMarketRoutes(router, deps.Repo, deps.Clock)
	routes.RegisterUpdateRoutes(router, deps.Updater)
	routes.RegisterRealtimeRoutes(router, deps.Realtime, cfg.Realtime.PingInterval)

	return router
}
