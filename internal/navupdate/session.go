// Package navupdate implements the bulk NAV update workflow: a sequential,
// cooperatively cancellable fetch of live NAV quotes, a comparison against
// stored NAVs, and a single batched apply of the funds the user selected.
package navupdate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ndewijer/ledger-mf-companion/internal/apperrors"
	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// DefaultFetchTimeout bounds a single fund's NAV fetch.
const DefaultFetchTimeout = 30 * time.Second

// NavFetcher fetches one live NAV quote by scheme code.
type NavFetcher interface {
	FetchNav(ctx context.Context, schemeCode string) (model.NavFetchResult, error)
}

// NavApplier submits a batch of NAV updates for a ledger in one request.
type NavApplier interface {
	BulkUpdateNavs(ctx context.Context, ledgerID string, updates []model.NavUpdate) (model.BulkNavUpdateResult, error)
}

// Backend is the REST collaborator the session talks to.
type Backend interface {
	NavFetcher
	NavApplier
}

// Invalidator drops cached fund and transaction data for a ledger.
type Invalidator interface {
	InvalidateLedger(ledgerID string)
}

// State is the workflow state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateReviewing State = "reviewing"
	StateApplying  State = "applying"
	StateClosed    State = "closed"
)

// Progress is emitted after each fund's result is recorded.
type Progress struct {
	Processed  int                  `json:"processed"`
	Total      int                  `json:"total"`
	FundID     string               `json:"fund_id"`
	SchemeCode string               `json:"scheme_code"`
	Result     model.NavFetchResult `json:"result"`
}

// RunResult summarises a completed or stopped fetch run.
type RunResult struct {
	Processed int  `json:"processed"`
	Total     int  `json:"total"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	SessionID    string          `json:"session_id"`
	LedgerID     string          `json:"ledger_id"`
	Currency     string          `json:"currency"`
	State        State           `json:"state"`
	Processed    int             `json:"processed"`
	Total        int             `json:"total"`
	UpdatesFound int             `json:"updates_found"`
	Rows         []ComparisonRow `json:"rows"`
	Partitions   Partitions      `json:"partitions"`
	Selected     []string        `json:"selected"`
	CanApply     bool            `json:"can_apply"`
	LastRun      *RunResult      `json:"last_run,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithFetchTimeout bounds each single-fund fetch. Zero disables the bound.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.fetchTimeout = timeout
	}
}

// WithLimiter paces fetches against a rate-limited NAV provider.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(s *Session) {
		s.limiter = limiter
	}
}

// WithInvalidator sets the cache that is invalidated after a successful apply.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Session) {
		s.invalidator = inv
	}
}

// WithProgress registers an observer called synchronously after every fund.
func WithProgress(fn func(Progress)) Option {
	return func(s *Session) {
		s.onProgress = fn
	}
}

// WithCompletion registers the callback invoked once after a successful apply.
func WithCompletion(fn func(model.ApplySummary)) Option {
	return func(s *Session) {
		s.onComplete = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session is one invocation of the bulk NAV update workflow for a ledger.
//
// All session state (results, selection, progress, stop token) is owned by
// the session and guarded by its mutex. Network calls are made without
// holding the lock so that View, Stop and selection changes stay responsive
// while a fetch is in flight.
type Session struct {
	id           string
	ledger       model.LedgerContext
	backend      Backend
	invalidator  Invalidator
	limiter      *rate.Limiter
	fetchTimeout time.Duration
	onProgress   func(Progress)
	onComplete   func(model.ApplySummary)
	logger       *logging.Logger

	mu        sync.Mutex
	funds     []model.Fund
	state     State
	results   map[string]model.NavFetchResult
	selected  map[string]bool
	processed int
	stop      *StopToken
	lastRun   *RunResult
	lastErr   error
}

// NewSession opens a session over the eligible subset of funds.
// The session starts Idle with empty results and selection.
func NewSession(ledger model.LedgerContext, funds []model.Fund, backend Backend, opts ...Option) *Session {
	s := &Session{
		id:           uuid.New().String(),
		ledger:       ledger,
		backend:      backend,
		fetchTimeout: DefaultFetchTimeout,
		logger:       logging.NewSilent(),
		funds:        EligibleFunds(funds),
		state:        StateIdle,
		results:      make(map[string]model.NavFetchResult),
		selected:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("ledger_id", ledger.ID)

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Ledger returns the ledger context the session was opened for.
func (s *Session) Ledger() model.LedgerContext {
	return s.ledger
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a fetch or apply is in flight.
func (s *Session) Busy() bool {
	state := s.State()
	return state == StateFetching || state == StateApplying
}

// Begin runs a fetch over every eligible fund and blocks until the run
// completes or is stopped.
//
// Funds are processed strictly in order, one request at a time. A failed
// fetch is recorded as a failed result and the run continues. After each
// result the processed counter is incremented and the progress observer is
// notified before the stop token is checked, so a Stop issued while a
// request is in flight lets that request finish and be recorded.
//
// Returns:
//   - apperrors.ErrNoEligibleFunds when no fund can be fetched (no request is made)
//   - apperrors.ErrSessionBusy when a fetch or apply is already running
//   - apperrors.ErrSessionClosed after Close or a successful apply
func (s *Session) Begin(ctx context.Context) (RunResult, error) {
	funds, stop, err := s.prepareRun()
	if err != nil {
		return RunResult{}, err
	}
	return s.run(ctx, funds, stop), nil
}

// BeginAsync validates and starts a fetch run in a new goroutine.
// Validation errors are returned synchronously, exactly as from Begin.
// The returned channel receives the run result once and is then closed.
func (s *Session) BeginAsync(ctx context.Context) (<-chan RunResult, error) {
	funds, stop, err := s.prepareRun()
	if err != nil {
		return nil, err
	}

	done := make(chan RunResult, 1)
	go func() {
		defer close(done)
		done <- s.run(ctx, funds, stop)
	}()
	return done, nil
}

// prepareRun resets the session state and moves it to Fetching.
func (s *Session) prepareRun() ([]model.Fund, *StopToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return nil, nil, apperrors.ErrSessionClosed
	case StateFetching, StateApplying:
		return nil, nil, apperrors.ErrSessionBusy
	}
	if len(s.funds) == 0 {
		return nil, nil, apperrors.ErrNoEligibleFunds
	}

	s.results = make(map[string]model.NavFetchResult)
	s.selected = make(map[string]bool)
	s.processed = 0
	s.lastRun = nil
	s.lastErr = nil
	s.stop = NewStopToken()
	s.state = StateFetching

	return s.funds, s.stop, nil
}

func (s *Session) run(ctx context.Context, funds []model.Fund, stop *StopToken) RunResult {
	s.logger.Info().Int("funds", len(funds)).Msg("Starting NAV fetch run")

	result := RunResult{Total: len(funds)}
	for i, fund := range funds {
		fetched, reused := s.existingResult(fund.Code)
		if !reused {
			fetched = s.fetchOne(ctx, fund)
		}
		if !fetched.Success {
			result.Failed++
		}

		s.mu.Lock()
		s.results[fund.Code] = fetched
		s.processed++
		progress := Progress{
			Processed:  s.processed,
			Total:      len(funds),
			FundID:     fund.ID,
			SchemeCode: fund.Code,
			Result:     fetched,
		}
		s.mu.Unlock()
		result.Processed = progress.Processed

		if s.onProgress != nil {
			s.onProgress(progress)
		}

		if i == len(funds)-1 {
			break
		}
		if stop.Stopped() || ctx.Err() != nil {
			result.Cancelled = true
			break
		}
	}

	s.mu.Lock()
	if s.state == StateFetching {
		s.state = StateReviewing
	}
	s.stop = nil
	s.lastRun = &result
	s.mu.Unlock()

	s.logger.Info().
		Int("processed", result.Processed).
		Int("total", result.Total).
		Int("failed", result.Failed).
		Bool("cancelled", result.Cancelled).
		Msg("NAV fetch run finished")

	return result
}

// existingResult returns a result already recorded in this run for a scheme
// code shared by an earlier fund.
func (s *Session) existingResult(schemeCode string) (model.NavFetchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[schemeCode]
	return r, ok
}

// fetchOne fetches a single fund's NAV. It never returns an error: every
// failure is folded into a result with Success false.
func (s *Session) fetchOne(ctx context.Context, fund model.Fund) model.NavFetchResult {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return failedResult(fund.Code, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	result, err := s.backend.FetchNav(fetchCtx, fund.Code)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", s.fetchTimeout, err)
		}
		s.logger.Warn().Err(err).Str("scheme_code", fund.Code).Str("fund", fund.Name).Msg("NAV fetch failed")
		return failedResult(fund.Code, err)
	}

	result.SchemeCode = fund.Code
	if !result.Success {
		if result.ErrorMessage == "" {
			result.ErrorMessage = apperrors.ErrNavUnavailable.Error()
		}
		result.NavValue = decimal.NullDecimal{}
		return result
	}
	if !result.NavValue.Valid {
		return failedResult(fund.Code, apperrors.ErrNavUnavailable)
	}
	return result
}

func failedResult(schemeCode string, err error) model.NavFetchResult {
	return model.NavFetchResult{
		SchemeCode:   schemeCode,
		Success:      false,
		ErrorMessage: err.Error(),
	}
}

// Stop asks a running fetch to end at the next fund boundary.
// It reports whether a run was in progress.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return false
	}
	s.stop.Stop()
	return true
}

// Toggle flips the selection of one fund and returns whether it is now selected.
// Only actionable funds can be selected.
func (s *Session) Toggle(fundID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSelectable(); err != nil {
		return false, err
	}

	row, ok := s.rowFor(fundID)
	if !ok {
		return false, apperrors.ErrFundNotFound
	}
	if !row.Selectable() {
		return false, fmt.Errorf("%w: %s is %s", apperrors.ErrNotSelectable, row.Name, row.Status)
	}

	if s.selected[fundID] {
		delete(s.selected, fundID)
		return false, nil
	}
	s.selected[fundID] = true
	return true, nil
}

// SelectAll selects every actionable fund and returns how many are selected.
func (s *Session) SelectAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSelectable(); err != nil {
		return 0, err
	}

	s.selected = make(map[string]bool)
	for _, row := range ComputeComparisons(s.funds, s.results, nil) {
		if row.Selectable() {
			s.selected[row.FundID] = true
		}
	}
	return len(s.selected), nil
}

// DeselectAll clears the selection.
func (s *Session) DeselectAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSelectable(); err != nil {
		return err
	}
	s.selected = make(map[string]bool)
	return nil
}

// checkSelectable must be called with the lock held.
func (s *Session) checkSelectable() error {
	switch s.state {
	case StateClosed:
		return apperrors.ErrSessionClosed
	case StateApplying:
		return apperrors.ErrSessionBusy
	}
	return nil
}

// rowFor must be called with the lock held.
func (s *Session) rowFor(fundID string) (ComparisonRow, bool) {
	for _, row := range ComputeComparisons(s.funds, s.results, s.selected) {
		if row.FundID == fundID {
			return row, true
		}
	}
	return ComparisonRow{}, false
}

// Apply submits every selected, still-actionable fund as one bulk NAV update.
//
// On success the ledger's cached fund and transaction data is invalidated,
// the completion callback is invoked once with the value-change summary and
// the session is closed. On failure the session returns to Reviewing with
// its results and selection untouched so the user can retry without fetching
// again.
//
// Returns:
//   - apperrors.ErrEmptySelection when nothing actionable is selected (no request is made)
//   - apperrors.ErrSessionBusy while a fetch or another apply is running
//   - an error wrapping apperrors.ErrFailedToApplyNavUpdates when the backend rejects the batch
func (s *Session) Apply(ctx context.Context) (model.ApplySummary, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return model.ApplySummary{}, apperrors.ErrSessionClosed
	case StateFetching, StateApplying:
		s.mu.Unlock()
		return model.ApplySummary{}, apperrors.ErrSessionBusy
	}

	var (
		updates []model.NavUpdate
		applied []ComparisonRow
	)
	for _, row := range ComputeComparisons(s.funds, s.results, s.selected) {
		if !row.Selected || !row.Selectable() {
			continue
		}
		updates = append(updates, model.NavUpdate{
			MutualFundID: row.FundID,
			LatestNav:    row.FetchedNav.Decimal,
			NavDate:      row.NavDate,
		})
		applied = append(applied, row)
	}
	if len(updates) == 0 {
		s.mu.Unlock()
		return model.ApplySummary{}, apperrors.ErrEmptySelection
	}
	s.state = StateApplying
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info().Int("updates", len(updates)).Msg("Applying NAV updates")

	res, err := s.backend.BulkUpdateNavs(ctx, s.ledger.ID, updates)
	if err != nil {
		s.mu.Lock()
		s.state = StateReviewing
		s.lastErr = err
		s.mu.Unlock()

		s.logger.Error().Err(err).Msg("Bulk NAV update failed")
		return model.ApplySummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToApplyNavUpdates, err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateLedger(s.ledger.ID)
	}

	summary := buildSummary(s.ledger, applied, res)

	s.mu.Lock()
	s.state = StateClosed
	s.results = make(map[string]model.NavFetchResult)
	s.selected = make(map[string]bool)
	s.mu.Unlock()

	s.logger.Info().
		Int("updated", len(summary.UpdatedFundIDs)).
		Str("total_change", summary.TotalChange.StringFixed(2)).
		Msg("NAV updates applied")

	if s.onComplete != nil {
		s.onComplete(summary)
	}
	return summary, nil
}

func buildSummary(ledger model.LedgerContext, applied []ComparisonRow, res model.BulkNavUpdateResult) model.ApplySummary {
	summary := model.ApplySummary{
		LedgerID:       ledger.ID,
		Currency:       ledger.Currency,
		UpdatedFundIDs: res.UpdatedFunds,
		Changes:        make([]model.FundValueChange, 0, len(applied)),
	}
	if len(summary.UpdatedFundIDs) == 0 {
		summary.UpdatedFundIDs = make([]string, 0, len(applied))
		for _, row := range applied {
			summary.UpdatedFundIDs = append(summary.UpdatedFundIDs, row.FundID)
		}
	}

	for _, row := range applied {
		oldValue := row.Units.Mul(row.CurrentNav)
		summary.Changes = append(summary.Changes, model.FundValueChange{
			FundID:   row.FundID,
			Name:     row.Name,
			OldNav:   row.CurrentNav,
			NewNav:   row.FetchedNav.Decimal,
			OldValue: oldValue,
			NewValue: row.PreviewValue,
			Change:   row.ValueChange,
		})
		summary.TotalBefore = summary.TotalBefore.Add(oldValue)
		summary.TotalAfter = summary.TotalAfter.Add(row.PreviewValue)
		summary.TotalChange = summary.TotalChange.Add(row.ValueChange)
	}
	return summary
}

// View returns a snapshot of the session for rendering.
func (s *Session) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := ComputeComparisons(s.funds, s.results, s.selected)
	parts := Partition(rows)

	selected := make([]string, 0, len(s.selected))
	for _, row := range rows {
		if row.Selected {
			selected = append(selected, row.FundID)
		}
	}

	snap := Snapshot{
		SessionID:    s.id,
		LedgerID:     s.ledger.ID,
		Currency:     s.ledger.Currency,
		State:        s.state,
		Processed:    s.processed,
		Total:        len(s.funds),
		UpdatesFound: len(parts.Actionable),
		Rows:         rows,
		Partitions:   parts,
		Selected:     selected,
		CanApply:     len(selected) > 0 && (s.state == StateReviewing || s.state == StateIdle),
		LastRun:      s.lastRun,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Close stops any running fetch and discards all session state.
// A closed session rejects every further action.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		s.stop.Stop()
	}
	s.state = StateClosed
	s.results = make(map[string]model.NavFetchResult)
	s.selected = make(map[string]bool)
	s.processed = 0
}
