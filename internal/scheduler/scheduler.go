// Package scheduler runs the periodic NAV staleness check.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
)

// NavChecker is the part of the NAV update service the scheduler drives.
type NavChecker interface {
	StaleFunds(ctx context.Context, ledgerID string, maxAge time.Duration, now time.Time) ([]model.Fund, error)
	Run(ctx context.Context, ledgerID string, applyAll bool) (service.RunReport, error)
}

// Config controls what the scheduled check does.
type Config struct {
	Schedule   string        // Standard five-field cron expression
	Ledgers    []string      // Ledgers checked on every tick
	StaleAfter time.Duration // NAV age after which a fund counts as stale
	AutoApply  bool          // Apply every changed NAV instead of only reporting it
}

// LedgerCheck is the outcome of checking one ledger.
type LedgerCheck struct {
	LedgerID string
	Stale    int
	Report   *service.RunReport
	Err      error
}

// Scheduler checks the configured ledgers for stale NAVs on a cron schedule
// and, when some are found, runs a bulk NAV update for the ledger.
type Scheduler struct {
	cron    *cron.Cron
	checker NavChecker
	cfg     Config
	logger  *logging.Logger
	now     func() time.Time
}

// New creates a scheduler. Overlapping ticks are skipped while a check is
// still running.
func New(checker NavChecker, cfg Config, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewSilent()
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		checker: checker,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, func() {
		s.CheckOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid NAV check schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Int("ledgers", len(s.cfg.Ledgers)).
		Bool("auto_apply", s.cfg.AutoApply).
		Msg("NAV scheduler: started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info().Msg("NAV scheduler: stopped")
}

// CheckOnce checks every configured ledger in order. A failure on one
// ledger is logged and does not stop the others.
func (s *Scheduler) CheckOnce(ctx context.Context) []LedgerCheck {
	start := time.Now()
	results := make([]LedgerCheck, 0, len(s.cfg.Ledgers))

	for _, ledgerID := range s.cfg.Ledgers {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.checkLedger(ctx, ledgerID))
	}

	s.logger.Info().
		Int("ledgers", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("NAV check: complete")
	return results
}

func (s *Scheduler) checkLedger(ctx context.Context, ledgerID string) LedgerCheck {
	check := LedgerCheck{LedgerID: ledgerID}

	stale, err := s.checker.StaleFunds(ctx, ledgerID, s.cfg.StaleAfter, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Str("ledger_id", ledgerID).Msg("NAV check: failed to list funds")
		check.Err = err
		return check
	}
	check.Stale = len(stale)
	if len(stale) == 0 {
		s.logger.Debug().Str("ledger_id", ledgerID).Msg("NAV check: all NAVs fresh")
		return check
	}

	report, err := s.checker.Run(ctx, ledgerID, s.cfg.AutoApply)
	if err != nil {
		s.logger.Warn().Err(err).Str("ledger_id", ledgerID).Msg("NAV check: update run failed")
		check.Err = err
		return check
	}
	check.Report = &report

	event := s.logger.Info().
		Str("ledger_id", ledgerID).
		Int("stale", len(stale)).
		Int("processed", report.Run.Processed).
		Int("failed", report.Run.Failed).
		Int("updates_found", report.Snapshot.UpdatesFound)
	if report.Applied != nil {
		event = event.
			Int("applied", len(report.Applied.UpdatedFundIDs)).
			Str("total_change", report.Applied.TotalChange.StringFixed(2))
	}
	event.Msg("NAV check: ledger checked")

	return check
}

// cronLogger adapts the structured logger to cron's logging interface.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
