package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/response"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/service/realtime"
)

// RealtimeHandler serves realtime quote snapshots over plain HTTP
type RealtimeHandler struct {
	manager *realtime.Manager
}

// NewRealtimeHandler creates a new RealtimeHandler
func NewRealtimeHandler(manager *realtime.Manager) *RealtimeHandler {
	return &RealtimeHandler{manager: manager}
}

// GetPrice handles GET /api/v1/realtime/{ticker}. Serves the cache when
// fresh, otherwise fetches on demand.
func (h *RealtimeHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	ticker := company.NormalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		response.BadRequest(w, r, "ticker is required")
		return
	}

	quote, err := h.manager.GetPrice(r.Context(), ticker)
	if err != nil {
		if company.IsNotFoundError(err) {
			response.NotFound(w, r, "no live quote for "+ticker)
		} else {
			response.ExternalAPIError(w, r, "quote", err)
		}
		return
	}
	response.Success(w, r, quote)
}

// GetAll handles GET /api/v1/realtime. Returns every cached quote.
func (h *RealtimeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	all := h.manager.Cache().GetAll()
	response.SuccessList(w, r, all, len(all))
}

// ActiveTickers handles GET /api/v1/realtime/active
func (h *RealtimeHandler) ActiveTickers(w http.ResponseWriter, r *http.Request) {
	tickers := h.manager.Registry().ActiveTickers()
	response.SuccessList(w, r, tickers, len(tickers))
}
