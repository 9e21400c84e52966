package fetch

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/fmp"
	"github.com/clementklenam/synergyalphaapi/internal/infra/logodev"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

// Service gates all upstream provider traffic through one bounded worker
// pool. Every outbound call waits for a pool slot, sleeps a random jitter,
// then runs under the retry policy. Keeping the gate in one place means the
// updater, realtime poller and API handlers share the same upstream budget.
type Service struct {
	yahoo *yahoo.Client
	fmp   *fmp.Client
	logo  *logodev.Client

	slots     chan struct{}
	jitterMin time.Duration
	jitterMax time.Duration
	retry     RetryPolicy
}

// NewService creates the fetch service
func NewService(cfg *config.Config, yahooClient *yahoo.Client, fmpClient *fmp.Client, logoClient *logodev.Client) *Service {
	workers := cfg.Providers.FetchWorkers
	if workers <= 0 {
		workers = 5
	}
	return &Service{
		yahoo:     yahooClient,
		fmp:       fmpClient,
		logo:      logoClient,
		slots:     make(chan struct{}, workers),
		jitterMin: cfg.Providers.JitterMin,
		jitterMax: cfg.Providers.JitterMax,
		retry: RetryPolicy{
			Attempts: cfg.Providers.RetryAttempts,
			BaseWait: cfg.Providers.RetryBaseWait,
			MaxWait:  cfg.Providers.RetryMaxWait,
		},
	}
}

// FMPEnabled reports whether the FMP fallback source is configured
func (s *Service) FMPEnabled() bool {
	return s.fmp != nil && s.fmp.Enabled()
}

// LogoEnabled reports whether the logo source is configured
func (s *Service) LogoEnabled() bool {
	return s.logo != nil && s.logo.Enabled()
}

// Info fetches the Yahoo company snapshot
func (s *Service) Info(ctx context.Context, ticker string) (*yahoo.Info, error) {
	var info *yahoo.Info
	err := s.run(ctx, "yahoo_info", ticker, func(ctx context.Context) error {
		var err error
		info, err = s.yahoo.FetchInfo(ctx, ticker)
		return err
	})
	return info, err
}

// Statements fetches financial statements from Yahoo
func (s *Service) Statements(ctx context.Context, ticker string) (*company.FinancialStatements, error) {
	var statements *company.FinancialStatements
	err := s.run(ctx, "yahoo_statements", ticker, func(ctx context.Context) error {
		var err error
		statements, err = s.yahoo.FetchStatements(ctx, ticker)
		return err
	})
	return statements, err
}

// History fetches daily price bars and dividends from Yahoo
func (s *Service) History(ctx context.Context, ticker, period string) ([]company.PricePoint, []company.DividendPoint, error) {
	var prices []company.PricePoint
	var dividends []company.DividendPoint
	err := s.run(ctx, "yahoo_history", ticker, func(ctx context.Context) error {
		var err error
		prices, dividends, err = s.yahoo.FetchHistory(ctx, ticker, period)
		return err
	})
	return prices, dividends, err
}

// Intraday fetches the latest 1-minute bar snapshot from Yahoo
func (s *Service) Intraday(ctx context.Context, ticker string) (*yahoo.IntradayBar, error) {
	var bar *yahoo.IntradayBar
	err := s.run(ctx, "yahoo_intraday", ticker, func(ctx context.Context) error {
		var err error
		bar, err = s.yahoo.FetchIntraday(ctx, ticker)
		return err
	})
	return bar, err
}

// FMPQuote fetches the fallback quote from FMP
func (s *Service) FMPQuote(ctx context.Context, ticker string) (*fmp.Quote, error) {
	var quote *fmp.Quote
	err := s.run(ctx, "fmp_quote", ticker, func(ctx context.Context) error {
		var err error
		quote, err = s.fmp.FetchQuote(ctx, ticker)
		return err
	})
	return quote, err
}

// FMPProfile fetches the fallback profile from FMP
func (s *Service) FMPProfile(ctx context.Context, ticker string) (*fmp.Profile, error) {
	var profile *fmp.Profile
	err := s.run(ctx, "fmp_profile", ticker, func(ctx context.Context) error {
		var err error
		profile, err = s.fmp.FetchProfile(ctx, ticker)
		return err
	})
	return profile, err
}

// FMPRatios fetches fallback TTM ratios from FMP
func (s *Service) FMPRatios(ctx context.Context, ticker string) (*fmp.RatiosTTM, error) {
	var ratios *fmp.RatiosTTM
	err := s.run(ctx, "fmp_ratios", ticker, func(ctx context.Context) error {
		var err error
		ratios, err = s.fmp.FetchRatiosTTM(ctx, ticker)
		return err
	})
	return ratios, err
}

// Logo fetches the base64-encoded company logo
func (s *Service) Logo(ctx context.Context, ticker string) (string, error) {
	var image string
	err := s.run(ctx, "logo", ticker, func(ctx context.Context) error {
		var err error
		image, err = s.logo.FetchLogo(ctx, ticker)
		return err
	})
	return image, err
}

// run acquires a pool slot, applies jitter, then executes fn under the
// retry policy
func (s *Service) run(ctx context.Context, source, ticker string, fn func(context.Context) error) error {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slots }()

	if err := s.sleepJitter(ctx); err != nil {
		return err
	}

	err := s.retry.Do(ctx, fn)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().
			Str("source", source).
			Str("ticker", ticker).
			Err(err).
			Msg("Upstream fetch failed")
	}
	return err
}

// sleepJitter sleeps a random duration in [jitterMin, jitterMax] to avoid
// burst patterns against upstream rate limiters
func (s *Service) sleepJitter(ctx context.Context) error {
	if s.jitterMax <= 0 {
		return nil
	}
	span := s.jitterMax - s.jitterMin
	wait := s.jitterMin
	if span > 0 {
		wait += time.Duration(rand.Int63n(int64(span)))
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
