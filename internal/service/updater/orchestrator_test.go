package updater

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

// fakeMerger returns canned outcomes per ticker
type fakeMerger struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	block   chan struct{} // when set, MergeSymbol waits until closed
	minimal bool
}

func (m *fakeMerger) MergeSymbol(ctx context.Context, ticker string) (*company.CompanyRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ticker)
	m.mu.Unlock()

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.fail[ticker]; ok {
		return nil, err
	}
	now := time.Now().UTC()
	name := ticker + " Corp"
	return &company.CompanyRecord{
		Ticker:      ticker,
		Profile:     &company.Profile{Name: &name},
		LastUpdated: &now,
	}, nil
}

func (m *fakeMerger) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// memoryRepo is an in-memory company.Repository for orchestrator tests
type memoryRepo struct {
	mu      sync.Mutex
	records map[string]*company.CompanyRecord
	failFor map[string]error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*company.CompanyRecord)}
}

func (r *memoryRepo) Upsert(ctx context.Context, record *company.CompanyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[record.Ticker]; ok {
		return err
	}
	r.records[record.Ticker] = record
	return nil
}

func (r *memoryRepo) GetByTicker(ctx context.Context, ticker string) (*company.CompanyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[ticker]
	if !ok {
		return nil, company.ErrCompanyNotFound
	}
	return record, nil
}

func (r *memoryRepo) Tickers(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tickers := make([]string, 0, len(r.records))
	for ticker := range r.records {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (r *memoryRepo) Symbols(ctx context.Context) ([]company.SymbolEntry, error) {
	return nil, nil
}

func (r *memoryRepo) ListSummaries(ctx context.Context) ([]company.Summary, error) {
	return nil, nil
}

func (r *memoryRepo) Search(ctx context.Context, query string, limit int) ([]company.Summary, error) {
	return nil, nil
}

func (r *memoryRepo) Screen(ctx context.Context, filter *company.ScreenFilter, sortBy string, descending bool, limit, page int) (*company.ScreenResult, error) {
	return &company.ScreenResult{}, nil
}

func (r *memoryRepo) SectorGroups(ctx context.Context) ([]company.SectorGroup, error) {
	return nil, nil
}

func (r *memoryRepo) has(ticker string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[ticker]
	return ok
}

func testUpdaterConfig() config.UpdaterConfig {
	return config.UpdaterConfig{
		Interval:         time.Hour,
		BatchSize:        2,
		BatchConcurrency: 2,
		MinFields:        5,
	}
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("processes all symbols in batches", func(t *testing.T) {
		merger := &fakeMerger{}
		repo := newMemoryRepo()
		o := NewOrchestrator(merger, repo, testUpdaterConfig())

		result := o.Run(context.Background(), []string{"aapl", "MSFT", "googl", "AAPL"})

		if result.Successful != 3 {
			t.Errorf("expected 3 successful, got %d", result.Successful)
		}
		if result.Failed != 0 {
			t.Errorf("expected 0 failed, got %d", result.Failed)
		}
		for _, ticker := range []string{"AAPL", "MSFT", "GOOGL"} {
			if !repo.has(ticker) {
				t.Errorf("expected %s to be stored", ticker)
			}
		}
	})

	t.Run("one failure does not abort siblings", func(t *testing.T) {
		merger := &fakeMerger{fail: map[string]error{"MSFT": company.ErrInsufficientData}}
		repo := newMemoryRepo()
		o := NewOrchestrator(merger, repo, testUpdaterConfig())

		result := o.Run(context.Background(), []string{"AAPL", "MSFT", "GOOGL"})

		if result.Successful != 2 {
			t.Errorf("expected 2 successful, got %d", result.Successful)
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failed, got %d", result.Failed)
		}
		if !repo.has("AAPL") || !repo.has("GOOGL") {
			t.Error("expected siblings of the failed symbol to be stored")
		}
		if repo.has("MSFT") {
			t.Error("expected failed symbol not to be stored")
		}
	})

	t.Run("storage failure counts as failed", func(t *testing.T) {
		merger := &fakeMerger{}
		repo := newMemoryRepo()
		repo.failFor = map[string]error{"AAPL": company.ErrExternalAPI}
		o := NewOrchestrator(merger, repo, testUpdaterConfig())

		result := o.Run(context.Background(), []string{"AAPL", "MSFT"})

		if result.Successful != 1 || result.Failed != 1 {
			t.Errorf("expected 1/1, got %d/%d", result.Successful, result.Failed)
		}
	})

	t.Run("concurrent run queues symbols", func(t *testing.T) {
		block := make(chan struct{})
		merger := &fakeMerger{block: block}
		repo := newMemoryRepo()
		o := NewOrchestrator(merger, repo, testUpdaterConfig())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Run(context.Background(), []string{"AAPL"})
		}()

		// Wait for the first run to take the active flag
		deadline := time.After(2 * time.Second)
		for !o.IsRunning() {
			select {
			case <-deadline:
				t.Fatal("first run never started")
			default:
				time.Sleep(time.Millisecond)
			}
		}

		second := o.Run(context.Background(), []string{"MSFT", "GOOGL"})
		if !second.Queued {
			t.Fatal("expected second run to be queued")
		}
		if o.PendingCount() != 2 {
			t.Errorf("expected 2 pending symbols, got %d", o.PendingCount())
		}

		close(block)
		wg.Wait()

		pending := o.DrainPending()
		if len(pending) != 2 {
			t.Fatalf("expected 2 drained symbols, got %v", pending)
		}
		if o.PendingCount() != 0 {
			t.Error("expected pending queue to be empty after drain")
		}
	})

	t.Run("clears running flag after completion", func(t *testing.T) {
		merger := &fakeMerger{fail: map[string]error{"AAPL": company.ErrExternalAPI}}
		repo := newMemoryRepo()
		o := NewOrchestrator(merger, repo, testUpdaterConfig())

		o.Run(context.Background(), []string{"AAPL"})
		if o.IsRunning() {
			t.Error("expected running flag cleared after failed run")
		}

		// A new run must be accepted, not queued
		result := o.Run(context.Background(), []string{"MSFT"})
		if result.Queued {
			t.Error("expected new run to start after previous completed")
		}
	})
}

func TestNormalizeSymbols(t *testing.T) {
	got := normalizeSymbols([]string{" aapl ", "MSFT", "msft", "", "googl"})
	want := []string{"AAPL", "MSFT", "GOOGL"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
