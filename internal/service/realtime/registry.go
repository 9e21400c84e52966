package realtime

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Conn is a live client connection capable of receiving JSON payloads.
// Send returning an error marks the connection dead.
type Conn interface {
	ID() string
	Send(payload interface{}) error
}

// Registry maps tickers to their live subscriber connections. All mutations
// go through one mutex; the active-ticker set is exactly the tickers with at
// least one live connection.
type Registry struct {
	mu   sync.Mutex
	subs map[string]map[string]Conn
}

// NewRegistry creates the registry
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[string]Conn)}
}

// Subscribe registers a connection's interest in a ticker
func (r *Registry) Subscribe(ticker string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subs[ticker] == nil {
		r.subs[ticker] = make(map[string]Conn)
	}
	r.subs[ticker][conn.ID()] = conn

	log.Debug().
		Str("ticker", ticker).
		Str("conn_id", conn.ID()).
		Int("subscribers", len(r.subs[ticker])).
		Msg("Subscribed")
}

// Unsubscribe removes a connection's interest in a ticker. The ticker entry
// is pruned when its last subscriber leaves.
func (r *Registry) Unsubscribe(ticker string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(ticker, conn.ID())
}

// UnsubscribeAll removes a connection from every ticker, used on disconnect
func (r *Registry) UnsubscribeAll(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	for ticker := range r.subs {
		r.remove(ticker, id)
	}
}

// remove deletes one subscription entry; caller holds the lock
func (r *Registry) remove(ticker, connID string) {
	conns, ok := r.subs[ticker]
	if !ok {
		return
	}
	if _, ok := conns[connID]; !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.subs, ticker)
	}

	log.Debug().
		Str("ticker", ticker).
		Str("conn_id", connID).
		Msg("Unsubscribed")
}

// ActiveTickers returns the tickers with at least one subscriber
func (r *Registry) ActiveTickers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickers := make([]string, 0, len(r.subs))
	for ticker := range r.subs {
		tickers = append(tickers, ticker)
	}
	return tickers
}

// SubscriberCount returns the number of live subscribers for a ticker
func (r *Registry) SubscriberCount(ticker string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[ticker])
}

// Broadcast sends a payload to every subscriber of a ticker. A failed send
// marks that connection dead and removes it from the whole registry without
// aborting delivery to the rest.
func (r *Registry) Broadcast(ticker string, payload interface{}) int {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.subs[ticker]))
	for _, conn := range r.subs[ticker] {
		conns = append(conns, conn)
	}
	r.mu.Unlock()

	if len(conns) == 0 {
		return 0
	}

	delivered := 0
	var dead []Conn
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			log.Debug().
				Str("ticker", ticker).
				Str("conn_id", conn.ID()).
				Err(err).
				Msg("Send failed, dropping connection")
			dead = append(dead, conn)
			continue
		}
		delivered++
	}

	for _, conn := range dead {
		r.UnsubscribeAll(conn)
	}
	return delivered
}
