package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

func floatPtr(f float64) *float64 { return &f }

// fakeConn records payloads; failSend makes every send fail
type fakeConn struct {
	id       string
	mu       sync.Mutex
	received []interface{}
	failSend bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("connection closed")
	}
	c.received = append(c.received, payload)
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

// fakeSource serves a fixed quote and counts calls
type fakeSource struct {
	mu    sync.Mutex
	calls int
	info  *yahoo.Info
	err   error
}

func (s *fakeSource) Info(ctx context.Context, ticker string) (*yahoo.Info, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCacheFreshness(t *testing.T) {
	cache := NewCache(5 * time.Second)
	now := time.Now()
	cache.now = func() time.Time { return now }

	if _, fresh := cache.Get("AAPL"); fresh {
		t.Error("empty cache must not report fresh")
	}

	cache.Update("AAPL", CachedQuote{Price: 150})

	quote, fresh := cache.Get("AAPL")
	if !fresh {
		t.Error("just-written entry must be fresh")
	}
	if quote.Ticker != "AAPL" || quote.Price != 150 {
		t.Errorf("unexpected quote %+v", quote)
	}

	now = now.Add(4 * time.Second)
	if _, fresh := cache.Get("AAPL"); !fresh {
		t.Error("entry younger than TTL must be fresh")
	}

	now = now.Add(2 * time.Second)
	quote, fresh = cache.Get("AAPL")
	if fresh {
		t.Error("entry older than TTL must be stale")
	}
	if quote.Price != 150 {
		t.Error("stale entry must still be returned")
	}
}

func TestRegistry(t *testing.T) {
	t.Run("active tickers track subscriptions", func(t *testing.T) {
		r := NewRegistry()
		a := &fakeConn{id: "a"}
		b := &fakeConn{id: "b"}

		r.Subscribe("AAPL", a)
		r.Subscribe("AAPL", b)
		r.Subscribe("MSFT", a)

		tickers := r.ActiveTickers()
		sort.Strings(tickers)
		if len(tickers) != 2 || tickers[0] != "AAPL" || tickers[1] != "MSFT" {
			t.Errorf("unexpected active tickers %v", tickers)
		}

		r.Unsubscribe("AAPL", a)
		if r.SubscriberCount("AAPL") != 1 {
			t.Errorf("expected 1 subscriber, got %d", r.SubscriberCount("AAPL"))
		}

		r.Unsubscribe("AAPL", b)
		r.UnsubscribeAll(a)
		if len(r.ActiveTickers()) != 0 {
			t.Errorf("expected no active tickers, got %v", r.ActiveTickers())
		}
	})

	t.Run("broadcast to zero subscribers is a no-op", func(t *testing.T) {
		r := NewRegistry()
		if delivered := r.Broadcast("AAPL", "payload"); delivered != 0 {
			t.Errorf("expected 0 deliveries, got %d", delivered)
		}
	})

	t.Run("failed send removes only the dead connection", func(t *testing.T) {
		r := NewRegistry()
		alive := &fakeConn{id: "alive"}
		dead := &fakeConn{id: "dead", failSend: true}

		r.Subscribe("AAPL", alive)
		r.Subscribe("AAPL", dead)
		r.Subscribe("MSFT", dead)

		delivered := r.Broadcast("AAPL", "payload")
		if delivered != 1 {
			t.Errorf("expected 1 delivery, got %d", delivered)
		}
		if alive.count() != 1 {
			t.Errorf("expected alive connection to receive, got %d", alive.count())
		}
		if r.SubscriberCount("AAPL") != 1 {
			t.Errorf("expected dead connection pruned, got %d subscribers", r.SubscriberCount("AAPL"))
		}
		// Dead connection is dropped everywhere, not just the broadcast ticker
		if r.SubscriberCount("MSFT") != 0 {
			t.Errorf("expected dead connection pruned from MSFT, got %d", r.SubscriberCount("MSFT"))
		}
	})
}

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		PollInterval:     10 * time.Millisecond,
		IdleSleep:        5 * time.Millisecond,
		FaultCooldown:    10 * time.Millisecond,
		FetchConcurrency: 5,
		CacheTTL:         5 * time.Second,
	}
}

func TestGetPrice(t *testing.T) {
	t.Run("fresh cache hit skips fetch", func(t *testing.T) {
		source := &fakeSource{info: &yahoo.Info{CurrentPrice: floatPtr(150)}}
		m := NewManager(source, NewCache(5*time.Second), NewRegistry(), testRealtimeConfig())

		m.cache.Update("AAPL", CachedQuote{Price: 149})

		quote, err := m.GetPrice(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if quote.Price != 149 {
			t.Errorf("expected cached price, got %v", quote.Price)
		}
		if source.callCount() != 0 {
			t.Errorf("expected no fetch, got %d", source.callCount())
		}
	})

	t.Run("stale entry triggers exactly one fetch", func(t *testing.T) {
		source := &fakeSource{info: &yahoo.Info{CurrentPrice: floatPtr(150)}}
		m := NewManager(source, NewCache(5*time.Second), NewRegistry(), testRealtimeConfig())

		quote, err := m.GetPrice(context.Background(), "aapl")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if quote.Price != 150 {
			t.Errorf("expected fetched price, got %v", quote.Price)
		}
		if source.callCount() != 1 {
			t.Errorf("expected 1 fetch, got %d", source.callCount())
		}

		// Second read within TTL must be served from cache
		if _, err := m.GetPrice(context.Background(), "AAPL"); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if source.callCount() != 1 {
			t.Errorf("expected still 1 fetch, got %d", source.callCount())
		}
	})

	t.Run("fetch error surfaces", func(t *testing.T) {
		source := &fakeSource{err: errors.New("upstream down")}
		m := NewManager(source, NewCache(5*time.Second), NewRegistry(), testRealtimeConfig())

		if _, err := m.GetPrice(context.Background(), "AAPL"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPollingLoopBroadcasts(t *testing.T) {
	source := &fakeSource{info: &yahoo.Info{
		CurrentPrice:        floatPtr(150),
		RegularMarketChange: floatPtr(1.2),
	}}
	registry := NewRegistry()
	m := NewManager(source, NewCache(5*time.Second), registry, testRealtimeConfig())

	conn := &fakeConn{id: "c1"}
	registry.Subscribe("AAPL", conn)

	m.Start(context.Background())
	defer m.Stop()

	// Two poll intervals is enough for at least two broadcasts
	deadline := time.After(2 * time.Second)
	for conn.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 broadcasts, got %d", conn.count())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	conn.mu.Lock()
	first, ok := conn.received[0].(PriceUpdate)
	conn.mu.Unlock()
	if !ok {
		t.Fatalf("unexpected payload type %T", conn.received[0])
	}
	if first.Type != "price_update" || first.Ticker != "AAPL" || first.Data.Price != 150 {
		t.Errorf("unexpected update %+v", first)
	}

	if _, fresh := m.cache.Get("AAPL"); !fresh {
		t.Error("expected cache to be warm after polling")
	}
}

func TestPollingLoopIdle(t *testing.T) {
	source := &fakeSource{info: &yahoo.Info{CurrentPrice: floatPtr(150)}}
	m := NewManager(source, NewCache(5*time.Second), NewRegistry(), testRealtimeConfig())

	m.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	if source.callCount() != 0 {
		t.Errorf("expected no fetches with no subscribers, got %d", source.callCount())
	}
}
