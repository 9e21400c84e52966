package routes

import (
	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/handlers"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/service/news"
)

// RegisterCompanyRoutes registers all company document routes
func RegisterCompanyRoutes(router *mux.Router, repo company.Repository, newsSvc *news.Service) {
	companiesHandler := handlers.NewCompaniesHandler(repo)
	newsHandler := handlers.NewNewsHandler(newsSvc)

	v1 := router.PathPrefix("/api/v1/companies").Subrouter()

	// GET /api/v1/companies - List company summaries
	v1.HandleFunc("", companiesHandler.List).Methods("GET")

	// GET /api/v1/companies/{ticker} - Full merged document
	v1.HandleFunc("/{ticker}", companiesHandler.Get).Methods("GET")

	// GET /api/v1/companies/{ticker}/profile - Profile section
	v1.HandleFunc("/{ticker}/profile", companiesHandler.GetProfile).Methods("GET")

	// GET /api/v1/companies/{ticker}/quote - Quote section
	v1.HandleFunc("/{ticker}/quote", companiesHandler.GetQuote).Methods("GET")

	// GET /api/v1/companies/{ticker}/financials - Statement tables
	v1.HandleFunc("/{ticker}/financials", companiesHandler.GetFinancials).Methods("GET")

	// GET /api/v1/companies/{ticker}/metrics - Key metrics and TTM ratios
	v1.HandleFunc("/{ticker}/metrics", companiesHandler.GetMetrics).Methods("GET")

	// GET /api/v1/companies/{ticker}/prices - Historical price series
	v1.HandleFunc("/{ticker}/prices", companiesHandler.GetPrices).Methods("GET")

	// GET /api/v1/companies/{ticker}/dividends - Dividend history
	v1.HandleFunc("/{ticker}/dividends", companiesHandler.GetDividends).Methods("GET")

	// GET /api/v1/companies/{ticker}/news - RSS headlines
	v1.HandleFunc("/{ticker}/news", newsHandler.Get).Methods("GET")
}
