package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

// QuoteSource is the slice of the fetch service the poller needs
type QuoteSource interface {
	Info(ctx context.Context, ticker string) (*yahoo.Info, error)
}

// PriceUpdate is the message pushed to subscribers
type PriceUpdate struct {
	Type   string      `json:"type"`
	Ticker string      `json:"ticker"`
	Data   CachedQuote `json:"data"`
}

// Manager runs the polling loop that keeps the cache warm for subscribed
// tickers and fans updates out to their connections. Only tickers with at
// least one subscriber are polled.
type Manager struct {
	source   QuoteSource
	cache    *Cache
	registry *Registry
	cfg      config.RealtimeConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// fetching collapses concurrent on-demand fetches for the same ticker
	fetchMu  sync.Mutex
	fetching map[string]chan struct{}
}

// NewManager creates the realtime manager
func NewManager(source QuoteSource, cache *Cache, registry *Registry, cfg config.RealtimeConfig) *Manager {
	return &Manager{
		source:   source,
		cache:    cache,
		registry: registry,
		cfg:      cfg,
		fetching: make(map[string]chan struct{}),
	}
}

// Cache exposes the quote cache for snapshot endpoints
func (m *Manager) Cache() *Cache { return m.cache }

// Registry exposes the subscription registry for the websocket layer
func (m *Manager) Registry() *Registry { return m.registry }

// Start launches the polling loop
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		log.Warn().Msg("Realtime manager already started")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(loopCtx, m.done)

	log.Info().
		Dur("poll_interval", m.cfg.PollInterval).
		Msg("Realtime price manager started")
}

// Stop cancels the polling loop and waits for it to exit
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Realtime price manager stopped")
}

// GetPrice returns the cached quote when fresh, otherwise fetches on demand.
// Concurrent stale reads for the same ticker trigger exactly one upstream
// fetch.
func (m *Manager) GetPrice(ctx context.Context, ticker string) (CachedQuote, error) {
	ticker = company.NormalizeTicker(ticker)

	if quote, fresh := m.cache.Get(ticker); fresh {
		return quote, nil
	}

	m.fetchMu.Lock()
	if wait, inflight := m.fetching[ticker]; inflight {
		m.fetchMu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return CachedQuote{}, ctx.Err()
		}
		if quote, ok := m.cache.Get(ticker); ok {
			return quote, nil
		}
		return CachedQuote{}, company.ErrCompanyNotFound
	}
	wait := make(chan struct{})
	m.fetching[ticker] = wait
	m.fetchMu.Unlock()

	defer func() {
		m.fetchMu.Lock()
		delete(m.fetching, ticker)
		m.fetchMu.Unlock()
		close(wait)
	}()

	quote, err := m.fetchQuote(ctx, ticker)
	if err != nil {
		return CachedQuote{}, err
	}
	m.cache.Update(ticker, quote)

	cached, _ := m.cache.Get(ticker)
	return cached, nil
}

// loop polls every active ticker at the configured cadence. The loop never
// dies on a fault: it logs, sleeps the fault cooldown and resumes.
func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		tickers := m.registry.ActiveTickers()
		if len(tickers) == 0 {
			if !sleepCtx(ctx, m.cfg.IdleSleep) {
				return
			}
			continue
		}

		if err := m.safePoll(ctx, tickers); err != nil {
			log.Error().Err(err).
				Dur("cooldown", m.cfg.FaultCooldown).
				Msg("Realtime poll fault, backing off")
			if !sleepCtx(ctx, m.cfg.FaultCooldown) {
				return
			}
			continue
		}

		if !sleepCtx(ctx, m.cfg.PollInterval) {
			return
		}
	}
}

// safePoll contains a poll pass so a panic cannot kill the loop
func (m *Manager) safePoll(ctx context.Context, tickers []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll panic: %v", r)
		}
	}()
	m.pollTickers(ctx, tickers)
	return nil
}

// pollTickers refreshes every ticker concurrently under the fetch semaphore
// and broadcasts each result
func (m *Manager) pollTickers(ctx context.Context, tickers []string) {
	concurrency := m.cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	slots := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-slots }()

			quote, err := m.fetchQuote(ctx, ticker)
			if err != nil {
				log.Debug().Str("ticker", ticker).Err(err).Msg("Realtime poll failed")
				return
			}
			m.cache.Update(ticker, quote)

			cached, _ := m.cache.Get(ticker)
			m.registry.Broadcast(ticker, PriceUpdate{
				Type:   "price_update",
				Ticker: ticker,
				Data:   cached,
			})
		}(ticker)
	}
	wg.Wait()
}

// fetchQuote pulls the live snapshot from upstream and shapes it into a
// cacheable quote
func (m *Manager) fetchQuote(ctx context.Context, ticker string) (CachedQuote, error) {
	info, err := m.source.Info(ctx, ticker)
	if err != nil {
		return CachedQuote{}, err
	}
	if info.CurrentPrice == nil {
		return CachedQuote{}, company.ErrInvalidResponse
	}

	return CachedQuote{
		Ticker:            ticker,
		Price:             *info.CurrentPrice,
		Change:            info.RegularMarketChange,
		ChangesPercentage: info.RegularMarketChangePercent,
		Volume:            info.Volume,
		DayLow:            info.DayLow,
		DayHigh:           info.DayHigh,
		PreviousClose:     info.PreviousClose,
		MarketCap:         info.MarketCap,
		Currency:          info.Currency,
	}, nil
}

// sleepCtx sleeps for d, returning false if the context was cancelled first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
