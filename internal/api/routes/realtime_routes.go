package routes

import (
	"time"

	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/handlers"
	"github.com/clementklenam/synergyalphaapi/internal/service/realtime"
)

// RegisterRealtimeRoutes registers realtime quote and websocket routes
func RegisterRealtimeRoutes(router *mux.Router, manager *realtime.Manager, pingInterval time.Duration) {
	realtimeHandler := handlers.NewRealtimeHandler(manager)
	wsHandler := handlers.NewWSHandler(manager, pingInterval)

	v1 := router.PathPrefix("/api/v1/realtime").Subrouter()

	// GET /api/v1/realtime - All cached quotes
	v1.HandleFunc("", realtimeHandler.GetAll).Methods("GET")

	// GET /api/v1/realtime/active - Tickers with live subscribers
	// Registered before the {ticker} route so "active" is not captured as a ticker.
	v1.HandleFunc("/active", realtimeHandler.ActiveTickers).Methods("GET")

	// GET /api/v1/realtime/{ticker} - Single quote, cache-first
	v1.HandleFunc("/{ticker}", realtimeHandler.GetPrice).Methods("GET")

	// GET /ws - Websocket subscribe/unsubscribe stream
	router.HandleFunc("/ws", wsHandler.Serve)
}
