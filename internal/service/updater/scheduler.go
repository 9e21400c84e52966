package updater

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

// Prober is the slice of the fetch service the scheduler needs for its
// network-bound checks
type Prober interface {
	Intraday(ctx context.Context, ticker string) (*yahoo.IntradayBar, error)
	Statements(ctx context.Context, ticker string) (*company.FinancialStatements, error)
	LogoEnabled() bool
}

// Scheduler decides whether a symbol needs re-fetching. Checks run cheapest
// first: timestamp comparisons short-circuit before any network-bound drift
// or hash check fires.
type Scheduler struct {
	fetch Prober
	clock *market.Clock
	cfg   config.UpdaterConfig
	now   func() time.Time
}

// NewScheduler creates the scheduler
func NewScheduler(fetchSvc Prober, clock *market.Clock, cfg config.UpdaterConfig) *Scheduler {
	return &Scheduler{fetch: fetchSvc, clock: clock, cfg: cfg, now: time.Now}
}

// NeedsUpdate reports whether the stored record for a ticker is due for a
// refresh, with the deciding reason for logging.
func (s *Scheduler) NeedsUpdate(ctx context.Context, ticker string, stored *company.CompanyRecord) (bool, string) {
	if stored == nil {
		return true, "no stored record"
	}
	if stored.LastUpdated == nil {
		return true, "no last_updated timestamp"
	}

	now := s.now()
	status := s.clock.StatusAt(now)
	age := now.Sub(*stored.LastUpdated)
	budget := s.stalenessBudget(status)
	sameStatus := stored.MarketStatus != nil && *stored.MarketStatus == string(status)

	if sameStatus {
		if age > budget {
			return true, "staleness budget exceeded"
		}
		if status == market.StatusOpen && s.hasDrift(ctx, ticker, stored) {
			return true, "intraday drift detected"
		}
	}

	if s.hasHashMismatch(ctx, ticker, stored) {
		return true, "financial statements changed"
	}

	if !sameStatus {
		return true, "market status transition"
	}

	if stored.Image == nil && s.fetch.LogoEnabled() {
		return true, "missing logo"
	}

	return false, "fresh"
}

func (s *Scheduler) stalenessBudget(status market.Status) time.Duration {
	switch status {
	case market.StatusPreMarket:
		return s.cfg.StalePreMarket
	case market.StatusOpen:
		return s.cfg.StaleOpen
	case market.StatusAfterHours:
		return s.cfg.StaleAfterHours
	default:
		return s.cfg.StaleClosed
	}
}

// hasDrift fetches the latest 1-minute bar and compares it against the
// stored quote. Price moves beyond the price threshold or volume growth
// beyond the volume threshold force an early refresh.
func (s *Scheduler) hasDrift(ctx context.Context, ticker string, stored *company.CompanyRecord) bool {
	if stored.Quote == nil || stored.Quote.Price == nil {
		return false
	}

	bar, err := s.fetch.Intraday(ctx, ticker)
	if err != nil {
		log.Debug().Str("ticker", ticker).Err(err).Msg("Drift check fetch failed")
		return false
	}

	if priceDriftPct(*stored.Quote.Price, bar.Price).GreaterThan(decimal.NewFromFloat(s.cfg.DriftPricePct)) {
		return true
	}

	if stored.Quote.Volume != nil && *stored.Quote.Volume > 0 {
		growth := volumeGrowthPct(*stored.Quote.Volume, bar.Volume)
		if growth.GreaterThan(decimal.NewFromFloat(s.cfg.DriftVolumePct)) {
			return true
		}
	}

	return false
}

// priceDriftPct returns |new-old|/old*100
func priceDriftPct(oldPrice, newPrice float64) decimal.Decimal {
	old := decimal.NewFromFloat(oldPrice)
	if old.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(newPrice).Sub(old).Abs().Div(old).Mul(decimal.NewFromInt(100))
}

// volumeGrowthPct returns (new-old)/old*100; shrinking volume is not drift
func volumeGrowthPct(oldVolume, newVolume int64) decimal.Decimal {
	if oldVolume <= 0 || newVolume <= oldVolume {
		return decimal.Zero
	}
	old := decimal.NewFromInt(oldVolume)
	return decimal.NewFromInt(newVolume).Sub(old).Div(old).Mul(decimal.NewFromInt(100))
}

// hasHashMismatch re-fetches statements and compares digests. Missing
// statements on both sides is not a mismatch; a fetch failure is treated as
// no change rather than forcing a refresh that would fail the same way.
func (s *Scheduler) hasHashMismatch(ctx context.Context, ticker string, stored *company.CompanyRecord) bool {
	fresh, err := s.fetch.Statements(ctx, ticker)
	if err != nil {
		log.Debug().Str("ticker", ticker).Err(err).Msg("Hash check fetch failed")
		return false
	}

	freshHash := ""
	if fresh != nil && !fresh.IsEmpty() {
		hash, err := fresh.Hash()
		if err != nil {
			log.Debug().Str("ticker", ticker).Err(err).Msg("Hash computation failed")
			return false
		}
		freshHash = hash
	}
	storedHash := ""
	if stored.FinancialDataHash != nil {
		storedHash = *stored.FinancialDataHash
	}

	if freshHash == "" && storedHash == "" {
		return false
	}
	return freshHash != storedHash
}
