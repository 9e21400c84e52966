package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/response"
	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/service/news"
)

// NewsHandler serves per-ticker news headlines
type NewsHandler struct {
	news *news.Service
}

// NewNewsHandler creates a new NewsHandler
func NewNewsHandler(newsSvc *news.Service) *NewsHandler {
	return &NewsHandler{news: newsSvc}
}

// Get handles GET /api/v1/companies/{ticker}/news
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := company.NormalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		response.BadRequest(w, r, "ticker is required")
		return
	}

	articles, err := h.news.Headlines(r.Context(), ticker)
	if err != nil {
		response.ExternalAPIError(w, r, "news", err)
		return
	}
	response.SuccessList(w, r, articles, len(articles))
}
