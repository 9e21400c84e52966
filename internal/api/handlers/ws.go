package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/service/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 512
)

// WSHandler upgrades client connections and bridges them into the
// subscription registry
type WSHandler struct {
	manager      *realtime.Manager
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(manager *realtime.Manager, pingInterval time.Duration) *WSHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &WSHandler{
		manager:      manager,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The REST layer owns origin policy; the socket accepts all
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// wsConn adapts a websocket connection to the registry's Conn interface.
// Writes are serialized by a mutex since gorilla connections allow only one
// concurrent writer.
type wsConn struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(payload)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// clientMessage is the inbound subscribe/unsubscribe action
type clientMessage struct {
	Action string `json:"action"`
	Ticker string `json:"ticker"`
}

// Serve handles GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := &wsConn{id: uuid.New().String(), conn: socket}
	registry := h.manager.Registry()

	log.Info().
		Str("conn_id", conn.id).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket client connected")

	defer func() {
		registry.UnsubscribeAll(conn)
		socket.Close()
		log.Info().Str("conn_id", conn.id).Msg("WebSocket client disconnected")
	}()

	socket.SetReadLimit(maxMessageSize)
	socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Keepalive pings
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			case <-stopPing:
				return
			}
		}
	}()

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Str("conn_id", conn.id).Err(err).Msg("WebSocket read error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			conn.Send(map[string]string{"type": "error", "message": "invalid message"})
			continue
		}

		ticker := company.NormalizeTicker(msg.Ticker)
		if ticker == "" {
			conn.Send(map[string]string{"type": "error", "message": "ticker is required"})
			continue
		}

		switch msg.Action {
		case "subscribe":
			registry.Subscribe(ticker, conn)
			conn.Send(map[string]string{"type": "subscribed", "ticker": ticker})

			// Push the current quote right away so the client does not wait
			// a full poll interval for its first update
			if quote, err := h.manager.GetPrice(r.Context(), ticker); err == nil {
				conn.Send(realtime.PriceUpdate{
					Type:   "price_update",
					Ticker: ticker,
					Data:   quote,
				})
			}
		case "unsubscribe":
			registry.Unsubscribe(ticker, conn)
			conn.Send(map[string]string{"type": "unsubscribed", "ticker": ticker})
		default:
			conn.Send(map[string]string{"type": "error", "message": "unknown action: " + msg.Action})
		}
	}
}
