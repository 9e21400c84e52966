package updater

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

// SymbolMerger produces one merged record per ticker
type SymbolMerger interface {
	MergeSymbol(ctx context.Context, ticker string) (*company.CompanyRecord, error)
}

// RunResult summarizes one orchestration run
type RunResult struct {
	RunID      string `json:"run_id"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Queued     bool   `json:"queued"`
}

// Orchestrator drives symbol refreshes through the merge engine in bounded
// batches. At most one run is active at a time; symbols requested while a
// run is active are queued for the next cycle instead of starting a second
// run.
type Orchestrator struct {
	merger SymbolMerger
	repo   company.Repository
	cfg    config.UpdaterConfig

	mu      sync.Mutex
	running bool
	pending []string

	// lastRequest tracks the most recent upstream request per symbol to
	// enforce the minimum inter-request gap across the process lifetime
	reqMu       sync.Mutex
	lastRequest map[string]time.Time
}

// NewOrchestrator creates the orchestrator
func NewOrchestrator(merger SymbolMerger, repo company.Repository, cfg config.UpdaterConfig) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 2
	}
	return &Orchestrator{
		merger:      merger,
		repo:        repo,
		cfg:         cfg,
		lastRequest: make(map[string]time.Time),
	}
}

// IsRunning reports whether a run is currently active
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// PendingCount returns the number of queued symbols
func (o *Orchestrator) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// DrainPending returns and clears the queued symbols
func (o *Orchestrator) DrainPending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending := o.pending
	o.pending = nil
	return pending
}

// Run processes the given symbols in batches. If a run is already active the
// symbols are appended to the pending queue and the call returns immediately
// with Queued set.
func (o *Orchestrator) Run(ctx context.Context, symbols []string) RunResult {
	symbols = normalizeSymbols(symbols)
	if len(symbols) == 0 {
		return RunResult{}
	}

	o.mu.Lock()
	if o.running {
		o.pending = append(o.pending, symbols...)
		queued := len(o.pending)
		o.mu.Unlock()
		log.Info().
			Int("symbols", len(symbols)).
			Int("pending_total", queued).
			Msg("Update already running, symbols queued")
		return RunResult{Queued: true}
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	runID := uuid.New().String()
	started := time.Now()
	log.Info().
		Str("run_id", runID).
		Int("symbols", len(symbols)).
		Int("batch_size", o.cfg.BatchSize).
		Msg("Update run started")

	result := RunResult{RunID: runID}
	for start := 0; start < len(symbols); start += o.cfg.BatchSize {
		if ctx.Err() != nil {
			log.Warn().Str("run_id", runID).Msg("Update run cancelled")
			break
		}

		end := start + o.cfg.BatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		ok, failed := o.runBatch(ctx, symbols[start:end])
		result.Successful += ok
		result.Failed += failed

		if end < len(symbols) {
			o.cooldown(ctx)
		}
	}

	log.Info().
		Str("run_id", runID).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(started)).
		Msg("Update run finished")

	return result
}

// runBatch processes one batch concurrently. Each symbol's outcome is
// recorded independently; one failure never aborts its siblings.
func (o *Orchestrator) runBatch(ctx context.Context, batch []string) (successful, failed int) {
	type outcome struct{ ok bool }
	results := make([]outcome, len(batch))

	slots := make(chan struct{}, o.cfg.BatchConcurrency)
	var wg sync.WaitGroup

	for i, ticker := range batch {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-slots }()

			if err := o.waitForGap(ctx, ticker); err != nil {
				return
			}

			results[i].ok = o.updateSymbol(ctx, ticker)
		}(i, ticker)
	}
	wg.Wait()

	for _, r := range results {
		if r.ok {
			successful++
		} else {
			failed++
		}
	}
	return successful, failed
}

// updateSymbol merges and persists one symbol
func (o *Orchestrator) updateSymbol(ctx context.Context, ticker string) bool {
	record, err := o.merger.MergeSymbol(ctx, ticker)
	if err != nil {
		log.Warn().Str("ticker", ticker).Err(err).Msg("Symbol merge failed")
		return false
	}

	if err := o.repo.Upsert(ctx, record); err != nil {
		log.Error().Str("ticker", ticker).Err(err).Msg("Symbol upsert failed")
		return false
	}

	log.Info().
		Str("ticker", ticker).
		Int("fields", record.FieldCount()).
		Msg("Symbol updated")
	return true
}

// waitForGap enforces the per-symbol minimum inter-request interval
func (o *Orchestrator) waitForGap(ctx context.Context, ticker string) error {
	if o.cfg.MinRequestGap <= 0 {
		return nil
	}

	o.reqMu.Lock()
	last, seen := o.lastRequest[ticker]
	now := time.Now()
	o.lastRequest[ticker] = now
	o.reqMu.Unlock()

	if !seen {
		return nil
	}
	wait := o.cfg.MinRequestGap - now.Sub(last)
	if wait <= 0 {
		return nil
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

// cooldown sleeps a randomized interval between batches
func (o *Orchestrator) cooldown(ctx context.Context) {
	min := o.cfg.CooldownMin
	max := o.cfg.CooldownMax
	if max <= 0 {
		return
	}
	wait := min
	if span := max - min; span > 0 {
		wait += time.Duration(rand.Int63n(int64(span)))
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		ticker := company.NormalizeTicker(s)
		if ticker == "" {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}
		out = append(out, ticker)
	}
	return out
}
