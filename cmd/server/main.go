package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/ledger-mf-companion/internal/api"
	"github.com/ndewijer/ledger-mf-companion/internal/config"
	"github.com/ndewijer/ledger-mf-companion/internal/ledgerapi"
	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/querycache"
	"github.com/ndewijer/ledger-mf-companion/internal/scheduler"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
	"github.com/ndewijer/ledger-mf-companion/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(cfg.Log.Level)

	// Backend client behind the query cache
	client := ledgerapi.NewClient(
		ledgerapi.WithBaseURL(cfg.Backend.URL),
		ledgerapi.WithToken(cfg.Backend.Token),
		ledgerapi.WithTimeout(cfg.Backend.Timeout),
		ledgerapi.WithLogger(logger.WithField("component", "ledgerapi")),
	)
	cached := querycache.New(client, cfg.Cache.TTL, logger.WithField("component", "querycache"))

	logger.Info().Str("backend", cfg.Backend.URL).Msg("Using ledger backend")

	// Background fetch runs end when the server shuts down.
	baseCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	// Create services
	fundService := service.NewFundService(cached, logger)
	navService := service.NewNavUpdateService(
		baseCtx,
		cached,
		cached,
		service.NavUpdateConfig{
			FetchTimeout: cfg.NavUpdate.FetchTimeout,
			FetchRate:    cfg.NavUpdate.FetchRate,
		},
		logger.WithField("component", "navupdate"),
	)
	systemService := service.NewSystemService(client, navService, map[string]bool{
		"nav_update":    true,
		"nav_scheduler": cfg.Scheduler.Enabled(),
		"api_key":       cfg.Server.APIKey != "",
	})

	// Optional NAV staleness check
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled() {
		sched, err = scheduler.New(navService, scheduler.Config{
			Schedule:   cfg.Scheduler.Schedule,
			Ledgers:    cfg.Scheduler.Ledgers,
			StaleAfter: cfg.Scheduler.StaleAfter,
			AutoApply:  cfg.Scheduler.AutoApply,
		}, logger.WithField("component", "scheduler"))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create NAV scheduler")
		}
		sched.Start()
	}

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Fund:      fundService,
		NavUpdate: navService,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("version", version.Version).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(ctx)
	}
	navService.Shutdown()
	cancelRuns()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
