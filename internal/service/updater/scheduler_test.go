package updater

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// fakeProber serves canned drift and statement probes
type fakeProber struct {
	bar           *yahoo.IntradayBar
	barErr        error
	statements    *company.FinancialStatements
	statementsErr error
	logoEnabled   bool

	intradayCalls   int
	statementsCalls int
}

func (p *fakeProber) Intraday(ctx context.Context, ticker string) (*yahoo.IntradayBar, error) {
	p.intradayCalls++
	return p.bar, p.barErr
}

func (p *fakeProber) Statements(ctx context.Context, ticker string) (*company.FinancialStatements, error) {
	p.statementsCalls++
	return p.statements, p.statementsErr
}

func (p *fakeProber) LogoEnabled() bool { return p.logoEnabled }

func schedulerConfig() config.UpdaterConfig {
	return config.UpdaterConfig{
		StaleClosed:     24 * time.Hour,
		StalePreMarket:  15 * time.Minute,
		StaleOpen:       5 * time.Minute,
		StaleAfterHours: 30 * time.Minute,
		DriftPricePct:   0.1,
		DriftVolumePct:  5.0,
	}
}

// 2026-08-26 is a Wednesday; 14:00 ET is mid regular session
var openSession = time.Date(2026, 8, 26, 14, 0, 0, 0, mustLoadET())

// 23:00 ET is after the post-market close
var closedSession = time.Date(2026, 8, 26, 23, 0, 0, 0, mustLoadET())

func mustLoadET() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}

func newTestScheduler(prober *fakeProber, now time.Time) *Scheduler {
	s := NewScheduler(prober, market.NewUSEquityClock(), schedulerConfig())
	s.now = func() time.Time { return now }
	return s
}

func storedRecord(lastUpdated time.Time, status string) *company.CompanyRecord {
	image := "data:image/png;base64,abc"
	return &company.CompanyRecord{
		Ticker:       "AAPL",
		MarketStatus: &status,
		Image:        &image,
		LastUpdated:  &lastUpdated,
		Quote: &company.Quote{
			Price:  floatPtr(100.0),
			Volume: intPtr(1000000),
		},
	}
}

func TestNeedsUpdate(t *testing.T) {
	t.Run("nil record", func(t *testing.T) {
		s := newTestScheduler(&fakeProber{}, openSession)
		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", nil)
		if !needed {
			t.Errorf("expected update needed, reason=%s", reason)
		}
	})

	t.Run("missing last_updated", func(t *testing.T) {
		s := newTestScheduler(&fakeProber{}, openSession)
		needed, _ := s.NeedsUpdate(context.Background(), "AAPL", &company.CompanyRecord{Ticker: "AAPL"})
		if !needed {
			t.Error("expected update needed for record without last_updated")
		}
	})

	t.Run("staleness budget exceeded", func(t *testing.T) {
		prober := &fakeProber{}
		s := newTestScheduler(prober, openSession)
		stored := storedRecord(openSession.Add(-10*time.Minute), string(market.StatusOpen))

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if !needed || reason != "staleness budget exceeded" {
			t.Errorf("expected staleness trigger, got needed=%v reason=%s", needed, reason)
		}
		if prober.intradayCalls != 0 || prober.statementsCalls != 0 {
			t.Error("staleness check must not hit the network")
		}
	})

	t.Run("fresh record with no drift and no hash change", func(t *testing.T) {
		prober := &fakeProber{
			bar: &yahoo.IntradayBar{Price: 100.05, Volume: 1010000},
		}
		s := newTestScheduler(prober, openSession)
		stored := storedRecord(openSession.Add(-time.Minute), string(market.StatusOpen))

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if needed {
			t.Errorf("expected no update, reason=%s", reason)
		}
	})

	t.Run("price drift forces update", func(t *testing.T) {
		prober := &fakeProber{
			bar: &yahoo.IntradayBar{Price: 100.5, Volume: 1000000},
		}
		s := newTestScheduler(prober, openSession)
		stored := storedRecord(openSession.Add(-time.Minute), string(market.StatusOpen))

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if !needed || reason != "intraday drift detected" {
			t.Errorf("expected drift trigger, got needed=%v reason=%s", needed, reason)
		}
	})

	t.Run("volume drift forces update", func(t *testing.T) {
		prober := &fakeProber{
			bar: &yahoo.IntradayBar{Price: 100.0, Volume: 1100000},
		}
		s := newTestScheduler(prober, openSession)
		stored := storedRecord(openSession.Add(-time.Minute), string(market.StatusOpen))

		needed, _ := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if !needed {
			t.Error("expected volume drift to force update")
		}
	})

	t.Run("drift fetch failure is not drift", func(t *testing.T) {
		prober := &fakeProber{barErr: company.ErrRateLimited}
		s := newTestScheduler(prober, openSession)
		stored := storedRecord(openSession.Add(-time.Minute), string(market.StatusOpen))

		needed, _ := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if needed {
			t.Error("expected no update when drift probe fails")
		}
	})

	t.Run("hash mismatch forces update", func(t *testing.T) {
		fresh := &company.FinancialStatements{}
		fresh.IncomeStatement.Annual = company.StatementTable{
			"totalRevenue": {"2024-09-30": 100.0},
		}
		prober := &fakeProber{statements: fresh}
		s := newTestScheduler(prober, closedSession)
		stored := storedRecord(closedSession.Add(-time.Hour), string(market.StatusClosed))
		oldHash := "stale-digest"
		stored.FinancialDataHash = &oldHash

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if !needed || reason != "financial statements changed" {
			t.Errorf("expected hash trigger, got needed=%v reason=%s", needed, reason)
		}
	})

	t.Run("no statements on both sides is not a mismatch", func(t *testing.T) {
		prober := &fakeProber{}
		s := newTestScheduler(prober, closedSession)
		stored := storedRecord(closedSession.Add(-time.Hour), string(market.StatusClosed))

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if needed {
			t.Errorf("expected no update, reason=%s", reason)
		}
	})

	t.Run("market status transition forces update", func(t *testing.T) {
		prober := &fakeProber{}
		s := newTestScheduler(prober, closedSession)
		stored := storedRecord(closedSession.Add(-time.Minute), string(market.StatusOpen))

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if !needed || reason != "market status transition" {
			t.Errorf("expected transition trigger, got needed=%v reason=%s", needed, reason)
		}
	})

	t.Run("missing logo forces update when logo source enabled", func(t *testing.T) {
		prober := &fakeProber{logoEnabled: true}
		s := newTestScheduler(prober, closedSession)
		stored := storedRecord(closedSession.Add(-time.Minute), string(market.StatusClosed))
		stored.Image = nil

		needed, reason := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if !needed || reason != "missing logo" {
			t.Errorf("expected logo trigger, got needed=%v reason=%s", needed, reason)
		}
	})

	t.Run("missing logo ignored when logo source disabled", func(t *testing.T) {
		prober := &fakeProber{logoEnabled: false}
		s := newTestScheduler(prober, closedSession)
		stored := storedRecord(closedSession.Add(-time.Minute), string(market.StatusClosed))
		stored.Image = nil

		needed, _ := s.NeedsUpdate(context.Background(), "AAPL", stored)
		if needed {
			t.Error("expected no update when logo source is disabled")
		}
	})
}

func TestDriftPercentages(t *testing.T) {
	if got := priceDriftPct(100, 100.05); !got.LessThan(decimalFromFloat(0.1)) {
		t.Errorf("0.05%% move should be below threshold, got %s", got)
	}
	if got := priceDriftPct(100, 100.2); !got.GreaterThan(decimalFromFloat(0.1)) {
		t.Errorf("0.2%% move should exceed threshold, got %s", got)
	}
	if got := priceDriftPct(0, 50); !got.IsZero() {
		t.Errorf("zero base price should yield zero drift, got %s", got)
	}

	if got := volumeGrowthPct(1000000, 1040000); !got.LessThan(decimalFromFloat(5)) {
		t.Errorf("4%% growth should be below threshold, got %s", got)
	}
	if got := volumeGrowthPct(1000000, 1100000); !got.GreaterThan(decimalFromFloat(5)) {
		t.Errorf("10%% growth should exceed threshold, got %s", got)
	}
	if got := volumeGrowthPct(1000000, 900000); !got.IsZero() {
		t.Errorf("shrinking volume should yield zero growth, got %s", got)
	}
}
