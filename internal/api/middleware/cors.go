package middleware

import (
	"github.com/go-chi/cors"
)

// NewCORS allows the ledger web UI origins (CORS_ORIGINS) to call the API.
// Browsers must be able to send X-API-Key for the session and close-fund
// routes; the service exposes no PUT or PATCH routes.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", APIKeyHeader},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           600,
	})
}
