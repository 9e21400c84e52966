package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggingConfig holds configuration for logging middleware
type LoggingConfig struct {
	AccessLogger *zerolog.Logger // Optional separate access logger
	SkipPaths    []string        // Paths to skip logging (e.g., /health)
}

// statusWriter captures the response status and size
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Logging middleware logs HTTP requests and responses
func Logging(cfg LoggingConfig) func(http.Handler) http.Handler {
	logger := log.Logger
	if cfg.AccessLogger != nil {
		logger = *cfg.AccessLogger
	}

	skipMap := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipMap[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			path := r.URL.Path
			if raw := r.URL.RawQuery; raw != "" {
				path = path + "?" + raw
			}

			requestID := GetRequestID(r.Context())
			ip := clientIP(r)

			log.Debug().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", path).
				Str("ip", ip).
				Str("user_agent", r.UserAgent()).
				Msg("→ Request started")

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			statusCode := sw.status
			if statusCode == 0 {
				statusCode = http.StatusOK
			}

			event := logger.Info()
			if statusCode >= 500 {
				event = logger.Error()
			} else if statusCode >= 400 {
				event = logger.Warn()
			}

			event.
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", path).
				Int("status", statusCode).
				Int64("duration_ms", duration.Milliseconds()).
				Int("response_size", sw.size).
				Str("ip", ip).
				Str("user_agent", r.UserAgent()).
				Msg("← Request completed")

			if duration > time.Second {
				log.Warn().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", path).
					Int64("duration_ms", duration.Milliseconds()).
					Msg("⚠️  Slow request detected")
			}
		})
	}
}

// clientIP extracts the client address, honoring proxy headers
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
