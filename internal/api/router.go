// Package api wires the HTTP routes of the companion service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/ledger-mf-companion/internal/api/handlers"
	custommiddleware "github.com/ndewijer/ledger-mf-companion/internal/api/middleware"
	"github.com/ndewijer/ledger-mf-companion/internal/config"
	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
)

// Services groups the services the router exposes.
type Services struct {
	System    *service.SystemService
	Fund      *service.FundService
	NavUpdate *service.NavUpdateService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	requireKey := custommiddleware.RequireAPIKey(cfg.Server.APIKey)

	systemHandler := handlers.NewSystemHandler(services.System)
	fundHandler := handlers.NewFundHandler(services.Fund)
	navHandler := handlers.NewNavUpdateHandler(services.NavUpdate)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Get("/nav/{schemeCode}", navHandler.Quote)

		r.Route("/ledger/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUUIDMiddleware)

			r.Get("/funds", fundHandler.Funds)
			r.Get("/portfolio", fundHandler.Portfolio)
			r.Get("/funds/{fundId}/purchase-cost", fundHandler.PurchaseCost)
			r.With(requireKey).Delete("/funds/{fundId}", fundHandler.CloseFund)

			r.Route("/nav-update", func(r chi.Router) {
				r.Get("/", navHandler.View)

				r.Group(func(r chi.Router) {
					r.Use(requireKey)
					r.Post("/", navHandler.Open)
					r.Delete("/", navHandler.Close)
					r.Post("/begin", navHandler.Begin)
					r.Post("/stop", navHandler.Stop)
					r.Post("/select/{fundId}", navHandler.Toggle)
					r.Post("/select-all", navHandler.SelectAll)
					r.Post("/deselect-all", navHandler.DeselectAll)
					r.Post("/apply", navHandler.Apply)
				})
			})
		})
	})

	return r
}
