package realtime

import (
	"sync"
	"time"
)

// CachedQuote is the ephemeral per-ticker price snapshot. Never persisted;
// the source of truth stays upstream.
type CachedQuote struct {
	Ticker            string   `json:"ticker"`
	Price             float64  `json:"price"`
	Change            *float64 `json:"change,omitempty"`
	ChangesPercentage *float64 `json:"changesPercentage,omitempty"`
	Volume            *int64   `json:"volume,omitempty"`
	DayLow            *float64 `json:"dayLow,omitempty"`
	DayHigh           *float64 `json:"dayHigh,omitempty"`
	PreviousClose     *float64 `json:"previousClose,omitempty"`
	MarketCap         *float64 `json:"marketCap,omitempty"`
	Currency          *string  `json:"currency,omitempty"`

	CachedAt time.Time `json:"cached_at"`
}

// Cache is the in-memory quote cache. Entries are overwritten on every
// successful poll and considered fresh for the configured TTL.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]CachedQuote
	now     func() time.Time
}

// NewCache creates the cache
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]CachedQuote),
		now:     time.Now,
	}
}

// Get returns the cached quote and whether it is still fresh
func (c *Cache) Get(ticker string) (CachedQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[ticker]
	if !ok {
		return CachedQuote{}, false
	}
	return entry, c.now().Sub(entry.CachedAt) < c.ttl
}

// Update overwrites the cached quote for a ticker and stamps it
func (c *Cache) Update(ticker string, quote CachedQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	quote.Ticker = ticker
	quote.CachedAt = c.now()
	c.entries[ticker] = quote
}

// GetAll returns a copy of every cached quote keyed by ticker
func (c *Cache) GetAll() map[string]CachedQuote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make(map[string]CachedQuote, len(c.entries))
	for ticker, entry := range c.entries {
		all[ticker] = entry
	}
	return all
}
