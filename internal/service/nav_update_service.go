package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ndewijer/ledger-mf-companion/internal/apperrors"
	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/navupdate"
	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

// NavBackend is what NavUpdateService needs from the ledger backend.
type NavBackend interface {
	LedgerReader
	navupdate.Backend
}

// NavUpdateConfig tunes NAV fetching.
type NavUpdateConfig struct {
	// FetchTimeout bounds a single fund's NAV fetch. Zero uses navupdate.DefaultFetchTimeout.
	FetchTimeout time.Duration
	// FetchRate caps NAV fetches per second across all sessions. Zero disables pacing.
	FetchRate float64
}

// RunReport is the outcome of an unattended fetch (and optional apply) run.
type RunReport struct {
	Run      navupdate.RunResult `json:"run"`
	Snapshot navupdate.Snapshot  `json:"snapshot"`
	Applied  *model.ApplySummary `json:"applied,omitempty"`
}

// NavUpdateService drives bulk NAV update sessions, one per ledger.
//
// Fetch runs started through Begin execute in background goroutines bound to
// the service's base context rather than the caller's request, so a run
// outlives the HTTP request that started it and ends when the service shuts down.
type NavUpdateService struct {
	baseCtx     context.Context
	backend     NavBackend
	invalidator navupdate.Invalidator
	registry    *navupdate.Registry
	limiter     *rate.Limiter
	cfg         NavUpdateConfig
	logger      *logging.Logger

	mu        sync.Mutex
	summaries map[string]model.ApplySummary
	// runs holds the unregistered sessions of in-progress Run calls.
	runs map[*navupdate.Session]struct{}
}

// NewNavUpdateService creates a new NavUpdateService.
//
// Parameters:
//   - baseCtx: Lifetime of background fetch runs
//   - backend: Ledger backend used for fund lists, NAV quotes and bulk updates
//   - invalidator: Cache dropped after a successful apply; may be nil
//   - cfg: Fetch timeout and pacing
//   - logger: Structured logger; nil discards output
func NewNavUpdateService(
	baseCtx context.Context,
	backend NavBackend,
	invalidator navupdate.Invalidator,
	cfg NavUpdateConfig,
	logger *logging.Logger,
) *NavUpdateService {
	if logger == nil {
		logger = logging.NewSilent()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = navupdate.DefaultFetchTimeout
	}

	s := &NavUpdateService{
		baseCtx:     baseCtx,
		backend:     backend,
		invalidator: invalidator,
		registry:    navupdate.NewRegistry(),
		cfg:         cfg,
		logger:      logger,
		summaries:   make(map[string]model.ApplySummary),
		runs:        make(map[*navupdate.Session]struct{}),
	}
	if cfg.FetchRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.FetchRate), 1)
	}
	return s
}

// load fetches the ledger context and its funds for a new session.
func (s *NavUpdateService) load(ctx context.Context, ledgerID string) (model.LedgerContext, []model.Fund, error) {
	ledger, err := s.backend.GetLedger(ctx, ledgerID)
	if err != nil {
		return model.LedgerContext{}, nil, mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrBackendUnavailable)
	}
	funds, err := s.backend.ListFunds(ctx, ledgerID)
	if err != nil {
		return model.LedgerContext{}, nil, mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrFailedToRetrieveFunds)
	}
	return ledger, funds, nil
}

func (s *NavUpdateService) sessionOptions() []navupdate.Option {
	opts := []navupdate.Option{
		navupdate.WithFetchTimeout(s.cfg.FetchTimeout),
		navupdate.WithLogger(s.logger),
		navupdate.WithCompletion(s.recordSummary),
	}
	if s.limiter != nil {
		opts = append(opts, navupdate.WithLimiter(s.limiter))
	}
	if s.invalidator != nil {
		opts = append(opts, navupdate.WithInvalidator(s.invalidator))
	}
	return opts
}

// open loads the ledger and its funds and registers a fresh session.
func (s *NavUpdateService) open(ctx context.Context, ledgerID string) (*navupdate.Session, error) {
	ledger, funds, err := s.load(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return s.registry.Open(ledger, funds, s.backend, s.sessionOptions()...)
}

func (s *NavUpdateService) recordSummary(summary model.ApplySummary) {
	s.mu.Lock()
	s.summaries[summary.LedgerID] = summary
	s.mu.Unlock()

	s.logger.Info().
		Str("ledger_id", summary.LedgerID).
		Int("funds", len(summary.UpdatedFundIDs)).
		Str("total_change", summary.TotalChange.StringFixed(2)).
		Msg("NAV update completed")
}

// Open starts a new session for the ledger, replacing an idle one.
// Returns apperrors.ErrSessionBusy while the ledger's current session is fetching or applying.
func (s *NavUpdateService) Open(ctx context.Context, ledgerID string) (navupdate.Snapshot, error) {
	sess, err := s.open(ctx, ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	return sess.View(), nil
}

// Begin starts a background fetch run on the ledger's open session.
// Progress is observed through View.
func (s *NavUpdateService) Begin(ledgerID string) (navupdate.Snapshot, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	if _, err := sess.BeginAsync(s.baseCtx); err != nil {
		return navupdate.Snapshot{}, err
	}
	return sess.View(), nil
}

// Stop asks the ledger's running fetch to end after the in-flight fund.
func (s *NavUpdateService) Stop(ledgerID string) (navupdate.Snapshot, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	sess.Stop()
	return sess.View(), nil
}

// Toggle flips one fund's selection.
func (s *NavUpdateService) Toggle(ledgerID, fundID string) (navupdate.Snapshot, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	if _, err := sess.Toggle(fundID); err != nil {
		return navupdate.Snapshot{}, err
	}
	return sess.View(), nil
}

// SelectAll selects every actionable fund.
func (s *NavUpdateService) SelectAll(ledgerID string) (navupdate.Snapshot, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	if _, err := sess.SelectAll(); err != nil {
		return navupdate.Snapshot{}, err
	}
	return sess.View(), nil
}

// DeselectAll clears the selection.
func (s *NavUpdateService) DeselectAll(ledgerID string) (navupdate.Snapshot, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	if err := sess.DeselectAll(); err != nil {
		return navupdate.Snapshot{}, err
	}
	return sess.View(), nil
}

// Apply submits the selected funds in one bulk update. On success the
// session is closed and removed.
func (s *NavUpdateService) Apply(ctx context.Context, ledgerID string) (model.ApplySummary, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return model.ApplySummary{}, err
	}
	summary, err := sess.Apply(ctx)
	if err != nil {
		return model.ApplySummary{}, err
	}
	s.registry.Release(ledgerID, sess)
	return summary, nil
}

// View returns the ledger's session snapshot.
func (s *NavUpdateService) View(ledgerID string) (navupdate.Snapshot, error) {
	sess, err := s.registry.Get(ledgerID)
	if err != nil {
		return navupdate.Snapshot{}, err
	}
	return sess.View(), nil
}

// Close discards the ledger's session, stopping any running fetch.
func (s *NavUpdateService) Close(ledgerID string) error {
	if !s.registry.Close(ledgerID) {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// LastSummary returns the summary of the ledger's most recent successful apply.
func (s *NavUpdateService) LastSummary(ledgerID string) (model.ApplySummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[ledgerID]
	return summary, ok
}

// Run fetches every eligible fund of the ledger synchronously and, when
// applyAll is set, applies every actionable change in one bulk update.
// It is used by the CLI and the scheduler. The run uses its own session,
// which is never registered, so a session the user has open for the same
// ledger keeps its results and selection.
func (s *NavUpdateService) Run(ctx context.Context, ledgerID string, applyAll bool) (RunReport, error) {
	ledger, funds, err := s.load(ctx, ledgerID)
	if err != nil {
		return RunReport{}, err
	}
	sess := navupdate.NewSession(ledger, funds, s.backend, s.sessionOptions()...)

	s.mu.Lock()
	s.runs[sess] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.runs, sess)
		s.mu.Unlock()
		sess.Close()
	}()

	res, err := sess.Begin(ctx)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{Run: res}
	if applyAll {
		n, err := sess.SelectAll()
		if err != nil {
			return report, err
		}
		if n > 0 {
			report.Snapshot = sess.View()
			summary, err := sess.Apply(ctx)
			if err != nil {
				return report, err
			}
			report.Applied = &summary
			return report, nil
		}
	}

	report.Snapshot = sess.View()
	return report, nil
}

// Quote fetches a single live NAV without opening a session.
func (s *NavUpdateService) Quote(ctx context.Context, schemeCode string) (model.NavFetchResult, error) {
	if err := validation.ValidateSchemeCode(schemeCode); err != nil {
		return model.NavFetchResult{}, err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return model.NavFetchResult{}, err
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	result, err := s.backend.FetchNav(fetchCtx, schemeCode)
	if err != nil {
		return model.NavFetchResult{}, mapBackendError(err, apperrors.ErrNavUnavailable, apperrors.ErrNavUnavailable)
	}
	if !result.Success || !result.NavValue.Valid {
		return model.NavFetchResult{}, fmt.Errorf("%w: %s", apperrors.ErrNavUnavailable, result.ErrorMessage)
	}
	return result, nil
}

// StaleFunds returns the ledger's update-eligible funds whose NAV has not
// been updated within maxAge. Funds that were never updated count as stale.
func (s *NavUpdateService) StaleFunds(ctx context.Context, ledgerID string, maxAge time.Duration, now time.Time) ([]model.Fund, error) {
	funds, err := s.backend.ListFunds(ctx, ledgerID)
	if err != nil {
		return nil, mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrFailedToRetrieveFunds)
	}

	stale := []model.Fund{}
	for _, f := range navupdate.EligibleFunds(funds) {
		if f.LastNavUpdate == nil || now.Sub(*f.LastNavUpdate) > maxAge {
			stale = append(stale, f)
		}
	}
	return stale, nil
}

// OpenSessions returns the number of ledgers with an open session.
func (s *NavUpdateService) OpenSessions() int {
	return s.registry.Len()
}

// Shutdown closes every open session, including those of in-progress runs.
// Running fetches stop after their in-flight fund.
func (s *NavUpdateService) Shutdown() {
	s.registry.CloseAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	for sess := range s.runs {
		sess.Close()
	}
}
