package updater

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

// Status is the externally visible updater state
type Status struct {
	IsUpdating        bool       `json:"is_updating"`
	LastCheck         *time.Time `json:"last_check,omitempty"`
	NextCheckEstimate *time.Time `json:"next_check_estimate,omitempty"`
	Interval          string     `json:"interval"`
	PendingSymbols    int        `json:"pending_symbols"`
	LastRun           *RunResult `json:"last_run,omitempty"`
}

// SymbolSource lists the index constituents that seed the tracked symbol
// universe
type SymbolSource interface {
	Constituents(ctx context.Context) ([]string, error)
}

// Service owns the periodic update loop. Each cycle gathers the tracked
// symbol set, filters it through the scheduler and hands the survivors to
// the orchestrator. The loop never dies on a fault: it logs, sleeps the
// fault cooldown and resumes.
type Service struct {
	orchestrator *Orchestrator
	scheduler    *Scheduler
	repo         company.Repository
	universe     SymbolSource
	cfg          config.UpdaterConfig

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastCheck *time.Time
	lastRun   *RunResult
}

// NewService creates the update service. universe may be nil, in which case
// only stored tickers and configured seeds are tracked.
func NewService(orchestrator *Orchestrator, scheduler *Scheduler, repo company.Repository, universe SymbolSource, cfg config.UpdaterConfig) *Service {
	return &Service{
		orchestrator: orchestrator,
		scheduler:    scheduler,
		repo:         repo,
		universe:     universe,
		cfg:          cfg,
	}
}

// Start launches the update loop. Calling Start on a running service is a
// no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		log.Warn().Msg("Update service already started")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)

	log.Info().
		Dur("interval", s.cfg.Interval).
		Msg("Update service started")
}

// Stop cancels the loop and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Update service stopped")
}

// TriggerUpdate queues an immediate update for the given symbols (or every
// tracked symbol when empty). Fire-and-forget: the run happens on its own
// goroutine and its outcome lands in Status.
func (s *Service) TriggerUpdate(symbols []string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
		defer cancel()

		if len(symbols) == 0 {
			var err error
			symbols, err = s.trackedSymbols(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Trigger update failed to list symbols")
				return
			}
		}

		result := s.orchestrator.Run(ctx, symbols)
		if !result.Queued {
			s.recordRun(result)
		}
	}()
}

// Status returns the current updater state
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		IsUpdating:     s.orchestrator.IsRunning(),
		Interval:       s.cfg.Interval.String(),
		LastCheck:      s.lastCheck,
		LastRun:        s.lastRun,
		PendingSymbols: s.orchestrator.PendingCount(),
	}
	if s.lastCheck != nil {
		next := s.lastCheck.Add(s.cfg.Interval)
		status.NextCheckEstimate = &next
	}
	return status
}

// loop runs update cycles until cancelled
func (s *Service) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// First cycle runs immediately so a fresh deployment populates storage
	// without waiting a full interval
	for {
		if err := s.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).
				Dur("cooldown", s.cfg.FaultCooldown).
				Msg("Update cycle fault, backing off")
			if !sleepCtx(ctx, s.cfg.FaultCooldown) {
				return
			}
			continue
		}

		if !sleepCtx(ctx, s.cfg.Interval) {
			return
		}
	}
}

// runCycle executes one full check-and-update pass
func (s *Service) runCycle(ctx context.Context) error {
	now := time.Now().UTC()
	s.mu.Lock()
	s.lastCheck = &now
	s.mu.Unlock()

	symbols, err := s.trackedSymbols(ctx)
	if err != nil {
		return err
	}
	symbols = append(symbols, s.orchestrator.DrainPending()...)
	symbols = normalizeSymbols(symbols)
	if len(symbols) == 0 {
		log.Debug().Msg("No tracked symbols, skipping cycle")
		return nil
	}

	due := make([]string, 0, len(symbols))
	for _, ticker := range symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		stored, err := s.repo.GetByTicker(ctx, ticker)
		if err != nil && !company.IsNotFoundError(err) {
			log.Warn().Str("ticker", ticker).Err(err).Msg("Failed to load stored record")
			continue
		}

		needed, reason := s.scheduler.NeedsUpdate(ctx, ticker, stored)
		if needed {
			log.Debug().Str("ticker", ticker).Str("reason", reason).Msg("Symbol due for update")
			due = append(due, ticker)
		}
	}

	log.Info().
		Int("tracked", len(symbols)).
		Int("due", len(due)).
		Msg("Update cycle check complete")

	if len(due) == 0 {
		return nil
	}

	result := s.orchestrator.Run(ctx, due)
	if !result.Queued {
		s.recordRun(result)
	}
	return nil
}

// trackedSymbols is the union of stored tickers, index constituents and
// configured seeds. A constituents fetch failure shrinks the universe for
// this cycle instead of failing it.
func (s *Service) trackedSymbols(ctx context.Context) ([]string, error) {
	stored, err := s.repo.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	symbols := stored
	if s.universe != nil {
		constituents, err := s.universe.Constituents(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to fetch index constituents")
		} else {
			symbols = append(symbols, constituents...)
		}
	}
	return append(symbols, s.cfg.SeedSymbols...), nil
}

func (s *Service) recordRun(result RunResult) {
	s.mu.Lock()
	s.lastRun = &result
	s.mu.Unlock()
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
