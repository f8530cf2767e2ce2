package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/ledger-mf-companion/internal/logging"
)

// RequestLogger returns a middleware that logs one structured line per request.
// Server errors are logged at error level, client errors at warn.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewSilent()
	}
	sanitize := strings.NewReplacer("\n", "", "\r", "").Replace

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			event := logger.Info()
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				event = logger.Error()
			case wrapped.statusCode >= http.StatusBadRequest:
				event = logger.Warn()
			}

			event.
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", sanitize(r.Method)).
				Str("path", sanitize(r.URL.Path)).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
