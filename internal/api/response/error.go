package response

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/api/middleware"
)

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes
const (
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidParameter  = "INVALID_PARAMETER"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeExternalAPIError = "EXTERNAL_API_ERROR"
)

// Error sends an error response
func Error(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	detail := ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now(),
	}

	log.Error().
		Str("request_id", detail.RequestID).
		Str("error_code", code).
		Str("message", message).
		Int("status", statusCode).
		Msg("API error response")

	writeJSON(w, statusCode, ErrorResponse{Error: detail})
}

// ErrorWithDetails sends an error response with additional details
func ErrorWithDetails(w http.ResponseWriter, r *http.Request, statusCode int, code, message, details string) {
	detail := ErrorDetail{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now(),
	}

	log.Error().
		Str("request_id", detail.RequestID).
		Str("error_code", code).
		Str("message", message).
		Str("details", details).
		Int("status", statusCode).
		Msg("API error response")

	writeJSON(w, statusCode, ErrorResponse{Error: detail})
}

// BadRequest sends a 400 Bad Request error
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// NotFound sends a 404 Not Found error
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError sends a 500 Internal Server Error
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	details := ""
	if err != nil {
		details = err.Error()
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("Internal server error")
	}
	ErrorWithDetails(w, r, http.StatusInternalServerError, ErrCodeInternalServer, "An unexpected error occurred", details)
}

// DatabaseError sends a database error response
func DatabaseError(w http.ResponseWriter, r *http.Request, err error) {
	details := ""
	if err != nil {
		details = err.Error()
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("Database error")
	}
	ErrorWithDetails(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Database operation failed", details)
}

// ExternalAPIError sends an external API error response
func ExternalAPIError(w http.ResponseWriter, r *http.Request, serviceName string, err error) {
	message := "External service error"
	if serviceName != "" {
		message = serviceName + " service error"
	}
	details := ""
	if err != nil {
		details = err.Error()
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("service", serviceName).
			Msg("External API error")
	}
	ErrorWithDetails(w, r, http.StatusBadGateway, ErrCodeExternalAPIError, message, details)
}

// RateLimitExceeded sends a rate limit exceeded error
func RateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Rate limit exceeded")
}
