package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/api/middleware"
)

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Meta       Meta        `json:"meta"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	TotalCount int  `json:"total_count"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Meta represents metadata in response
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Count     int       `json:"count,omitempty"`
}

// Success sends a successful response with data
func Success(w http.ResponseWriter, r *http.Request, data interface{}) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: data,
		Meta: newMeta(r, ""),
	})
}

// SuccessWithMessage sends a successful response with data and message
func SuccessWithMessage(w http.ResponseWriter, r *http.Request, data interface{}, message string) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: data,
		Meta: newMeta(r, message),
	})
}

// SuccessList sends a successful response with list data and count
func SuccessList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	meta := newMeta(r, "")
	meta.Count = count
	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SuccessWithPagination sends a successful response with pagination
func SuccessWithPagination(w http.ResponseWriter, r *http.Request, data interface{}, pagination *Pagination) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Data:       data,
		Pagination: pagination,
		Meta:       newMeta(r, ""),
	})
}

// Accepted sends a 202 Accepted response for fire-and-forget operations
func Accepted(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, http.StatusAccepted, SuccessResponse{
		Data: map[string]string{"status": "accepted"},
		Meta: newMeta(r, message),
	})
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// NewPagination creates a new Pagination object
func NewPagination(page, limit, totalCount int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	totalPages := (totalCount + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	return &Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalCount: totalCount,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// GetPaginationParams extracts pagination parameters from query string
func GetPaginationParams(r *http.Request) (page int, limit int) {
	page = 1
	limit = 20

	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
			if limit > 100 {
				limit = 100
			}
		}
	}

	return page, limit
}

func newMeta(r *http.Request, message string) Meta {
	return Meta{
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now(),
		Message:   message,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
