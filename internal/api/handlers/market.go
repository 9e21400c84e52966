package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/clementklenam/synergyalphaapi/internal/api/response"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
)

// MarketHandler serves search, screener, sector and symbol queries
type MarketHandler struct {
	repo  company.Repository
	clock *market.Clock
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(repo company.Repository, clock *market.Clock) *MarketHandler {
	return &MarketHandler{repo: repo, clock: clock}
}

// Search handles GET /api/v1/search?q=aap&limit=10
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.SuccessList(w, r, []company.Summary{}, 0)
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 50 {
			limit = val
		}
	}

	results, err := h.repo.Search(r.Context(), query, limit)
	if err != nil {
		response.DatabaseError(w, r, err)
		return
	}
	response.SuccessList(w, r, results, len(results))
}

// Symbols handles GET /api/v1/symbols
func (h *MarketHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.repo.Symbols(r.Context())
	if err != nil {
		response.DatabaseError(w, r, err)
		return
	}
	response.SuccessList(w, r, symbols, len(symbols))
}

// Sectors handles GET /api/v1/sectors
func (h *MarketHandler) Sectors(w http.ResponseWriter, r *http.Request) {
	groups, err := h.repo.SectorGroups(r.Context())
	if err != nil {
		response.DatabaseError(w, r, err)
		return
	}
	response.SuccessList(w, r, groups, len(groups))
}

// MarketStatus handles GET /api/v1/market-status
func (h *MarketHandler) MarketStatus(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, map[string]string{
		"status": string(h.clock.Now()),
	})
}

// screenRequest is the screener POST body. Filter bounds plus sorting and
// pagination.
type screenRequest struct {
	company.ScreenFilter
	SortBy     string `json:"sort_by,omitempty"`
	Descending *bool  `json:"descending,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Page       int    `json:"page,omitempty"`
}

// Screen handles POST /api/v1/screener
func (h *MarketHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		response.BadRequest(w, r, "failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			response.BadRequest(w, r, "invalid filter payload: "+err.Error())
			return
		}
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "market_cap"
	}
	descending := true
	if req.Descending != nil {
		descending = *req.Descending
	}

	result, err := h.repo.Screen(r.Context(), &req.ScreenFilter, sortBy, descending, req.Limit, req.Page)
	if err != nil {
		response.DatabaseError(w, r, err)
		return
	}

	pagination := response.NewPagination(result.Page, result.Limit, result.TotalCount)
	response.SuccessWithPagination(w, r, result.Companies, pagination)
}
