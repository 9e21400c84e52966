package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/response"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

// CompaniesHandler serves company document projections
type CompaniesHandler struct {
	repo company.Repository
}

// NewCompaniesHandler creates a new CompaniesHandler
func NewCompaniesHandler(repo company.Repository) *CompaniesHandler {
	return &CompaniesHandler{repo: repo}
}

// List handles GET /api/v1/companies
func (h *CompaniesHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.repo.ListSummaries(r.Context())
	if err != nil {
		response.DatabaseError(w, r, err)
		return
	}
	response.SuccessList(w, r, summaries, len(summaries))
}

// Get handles GET /api/v1/companies/{ticker}
func (h *CompaniesHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	response.Success(w, r, record)
}

// GetProfile handles GET /api/v1/companies/{ticker}/profile
func (h *CompaniesHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	if record.Profile == nil {
		response.NotFound(w, r, "no profile data for "+record.Ticker)
		return
	}
	response.Success(w, r, record.Profile)
}

// GetQuote handles GET /api/v1/companies/{ticker}/quote
func (h *CompaniesHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	if record.Quote == nil {
		response.NotFound(w, r, "no quote data for "+record.Ticker)
		return
	}
	response.Success(w, r, record.Quote)
}

// GetFinancials handles GET /api/v1/companies/{ticker}/financials
func (h *CompaniesHandler) GetFinancials(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	if record.FinancialStatements == nil || record.FinancialStatements.IsEmpty() {
		response.NotFound(w, r, "no financial statements for "+record.Ticker)
		return
	}
	response.Success(w, r, record.FinancialStatements)
}

// GetMetrics handles GET /api/v1/companies/{ticker}/metrics
func (h *CompaniesHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	if record.KeyMetrics == nil && record.TTMRatios == nil {
		response.NotFound(w, r, "no metrics for "+record.Ticker)
		return
	}
	response.Success(w, r, map[string]interface{}{
		"key_metrics": record.KeyMetrics,
		"ttm_ratios":  record.TTMRatios,
	})
}

// GetPrices handles GET /api/v1/companies/{ticker}/prices
func (h *CompaniesHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	if len(record.StockPrices) == 0 {
		response.NotFound(w, r, "no price history for "+record.Ticker)
		return
	}
	response.SuccessList(w, r, record.StockPrices, len(record.StockPrices))
}

// GetDividends handles GET /api/v1/companies/{ticker}/dividends
func (h *CompaniesHandler) GetDividends(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r)
	if !ok {
		return
	}
	response.SuccessList(w, r, record.Dividends, len(record.Dividends))
}

// loadRecord resolves the ticker path variable and loads the document
func (h *CompaniesHandler) loadRecord(w http.ResponseWriter, r *http.Request) (*company.CompanyRecord, bool) {
	ticker := company.NormalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		response.BadRequest(w, r, "ticker is required")
		return nil, false
	}

	record, err := h.repo.GetByTicker(r.Context(), ticker)
	if err != nil {
		if company.IsNotFoundError(err) {
			response.NotFound(w, r, "company not found: "+ticker)
		} else {
			response.DatabaseError(w, r, err)
		}
		return nil, false
	}
	return record, true
}
