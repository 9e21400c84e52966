package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
	"github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres"
	companyrepo "github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/fmp"
	"github.com/clementklenam/synergyalphaapi/internal/infra/logodev"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/logger"
	"github.com/clementklenam/synergyalphaapi/internal/service/fetch"
	"github.com/clementklenam/synergyalphaapi/internal/service/updater"
)

var updateTimeout time.Duration

var updateCmd = &cobra.Command{
	Use:   "update [symbols...]",
	Short: "One-shot batch update",
	Long: `Fetches, merges and stores the given symbols in one batch run.
Without arguments every stored ticker is refreshed.

Examples:
  go run ./cmd/stockd update AAPL MSFT
  go run ./cmd/stockd update`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().DurationVar(&updateTimeout, "timeout", 30*time.Minute, "overall run timeout")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{
		Level:       level,
		Format:      cfg.Logging.Format,
		FileEnabled: false,
		ServiceName: "stockd-update",
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	dbPool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	repo := companyrepo.NewRepository(dbPool)

	fetchSvc := fetch.NewService(
		cfg,
		yahoo.NewClient(cfg.Providers.YahooBaseURL),
		fmp.NewClient(cfg.Providers.FMPBaseURL, cfg.Providers.FMPAPIKey),
		logodev.NewClient(cfg.Providers.LogoBaseURL, cfg.Providers.LogoAPIToken),
	)
	clock := market.NewUSEquityClock()

	merger := updater.NewMerger(fetchSvc, clock, cfg.Updater.MinFields)
	orchestrator := updater.NewOrchestrator(merger, repo, cfg.Updater)

	symbols := args
	if len(symbols) == 0 {
		symbols, err = repo.Tickers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load stored tickers: %w", err)
		}
		if len(symbols) == 0 {
			fmt.Println("Nothing to update: no symbols given and storage is empty")
			return nil
		}
	}

	fmt.Printf("🚀 Updating %d symbol(s)...\n", len(symbols))
	start := time.Now()

	result := orchestrator.Run(ctx, symbols)

	fmt.Printf("✅ Run %s finished in %s: %d succeeded, %d failed\n",
		result.RunID, time.Since(start).Round(time.Second), result.Successful, result.Failed)

	if result.Failed > 0 {
		return fmt.Errorf("%d symbol(s) failed to update", result.Failed)
	}
	return nil
}
