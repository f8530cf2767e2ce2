package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/ndewijer/ledger-mf-companion/internal/api/response"
)

// APIKeyHeader carries the shared key on mutating requests.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey returns a middleware that rejects requests whose X-API-Key
// header does not match key. An empty key disables the check, which is how
// the service runs when it only listens on localhost next to the UI.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
