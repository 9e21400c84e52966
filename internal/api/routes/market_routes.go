package routes

import (
	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/handlers"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
)

// RegisterMarketRoutes registers search, screener and market status routes
func RegisterMarketRoutes(router *mux.Router, repo company.Repository, clock *market.Clock) {
	marketHandler := handlers.NewMarketHandler(repo, clock)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	// GET /api/v1/search?q=appl - Ticker/name search sorted by market cap
	v1.HandleFunc("/search", marketHandler.Search).Methods("GET")

	// POST /api/v1/screener - Declarative filter over stored documents
	v1.HandleFunc("/screener", marketHandler.Screen).Methods("POST")

	// GET /api/v1/sectors - Companies grouped by sector
	v1.HandleFunc("/sectors", marketHandler.Sectors).Methods("GET")

	// GET /api/v1/symbols - All stored tickers
	v1.HandleFunc("/symbols", marketHandler.Symbols).Methods("GET")

	// GET /api/v1/market-status - Current US market session
	v1.HandleFunc("/market-status", marketHandler.MarketStatus).Methods("GET")
}
