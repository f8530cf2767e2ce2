package testutil

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// MockBackend is an in-memory stand-in for the ledger backend client.
// It serves canned ledger data and NAV quotes instead of making HTTP calls.
type MockBackend struct {
	mu sync.Mutex

	// Ledger is returned from GetLedger for any ledger ID.
	Ledger model.LedgerContext
	// AMCs, Funds and Transactions are returned by the list methods.
	AMCs         []model.AMC
	Funds        []model.Fund
	Transactions []model.MfTransaction
	// Quotes maps scheme codes to the NAV value returned by FetchNav.
	Quotes map[string]string
	// NavDate is the as-of date attached to every quote.
	NavDate string

	// LedgerError, FundsError, TransactionsError, FetchError, ApplyError,
	// DeleteError and HealthError make the matching call fail.
	LedgerError       error
	FundsError        error
	TransactionsError error
	FetchError        error
	ApplyError        error
	DeleteError       error
	HealthError       error

	// OnFetch, when set, is called at the start of every FetchNav.
	OnFetch func(schemeCode string)

	// QueryCount tracks how many read calls reached the mock.
	QueryCount int
	// FetchCount tracks how many NAV quotes were requested.
	FetchCount int
	// Applied records every bulk update batch.
	Applied [][]model.NavUpdate
	// Deleted records every deleted fund ID.
	Deleted []string
}

// NewMockBackend creates a mock backend with an empty INR ledger.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Ledger:  model.LedgerContext{ID: MakeID(), Name: "Test Ledger", Currency: "INR"},
		Quotes:  make(map[string]string),
		NavDate: "2024-06-28",
	}
}

// WithLedger configures the ledger returned by GetLedger.
func (m *MockBackend) WithLedger(ledger model.LedgerContext) *MockBackend {
	m.Ledger = ledger
	return m
}

// WithFunds configures the funds returned by ListFunds.
func (m *MockBackend) WithFunds(funds ...model.Fund) *MockBackend {
	m.Funds = funds
	return m
}

// WithTransactions configures the transactions returned by ListTransactions.
func (m *MockBackend) WithTransactions(txns ...model.MfTransaction) *MockBackend {
	m.Transactions = txns
	return m
}

// WithQuote configures the NAV returned for a scheme code.
func (m *MockBackend) WithQuote(schemeCode, nav string) *MockBackend {
	m.Quotes[schemeCode] = nav
	return m
}

// WithApplyError configures BulkUpdateNavs to fail.
func (m *MockBackend) WithApplyError(err error) *MockBackend {
	m.ApplyError = err
	return m
}

// WithFetchError configures every FetchNav call to fail.
func (m *MockBackend) WithFetchError(err error) *MockBackend {
	m.FetchError = err
	return m
}

// Health mocks the backend health check.
func (m *MockBackend) Health(_ context.Context) error {
	return m.HealthError
}

// GetLedger returns the configured ledger with the requested ID.
func (m *MockBackend) GetLedger(_ context.Context, ledgerID string) (model.LedgerContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	if m.LedgerError != nil {
		return model.LedgerContext{}, m.LedgerError
	}
	ledger := m.Ledger
	ledger.ID = ledgerID
	return ledger, nil
}

// ListAMCs returns the configured AMCs.
func (m *MockBackend) ListAMCs(_ context.Context, _ string) ([]model.AMC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	return append([]model.AMC{}, m.AMCs...), nil
}

// ListFunds returns the configured funds.
func (m *MockBackend) ListFunds(_ context.Context, _ string) ([]model.Fund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	if m.FundsError != nil {
		return nil, m.FundsError
	}
	return append([]model.Fund{}, m.Funds...), nil
}

// ListTransactions returns the configured transactions, filtered to fundID when set.
func (m *MockBackend) ListTransactions(_ context.Context, _, fundID string) ([]model.MfTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	if m.TransactionsError != nil {
		return nil, m.TransactionsError
	}
	txns := []model.MfTransaction{}
	for _, tx := range m.Transactions {
		if fundID == "" || tx.MutualFundID == fundID {
			txns = append(txns, tx)
		}
	}
	return txns, nil
}

// DeleteFund records the deleted fund.
func (m *MockBackend) DeleteFund(_ context.Context, _, fundID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.Deleted = append(m.Deleted, fundID)
	return nil
}

// FetchNav returns the configured quote, or an unsuccessful result when the
// scheme code has none.
func (m *MockBackend) FetchNav(_ context.Context, schemeCode string) (model.NavFetchResult, error) {
	if m.OnFetch != nil {
		m.OnFetch(schemeCode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCount++
	if m.FetchError != nil {
		return model.NavFetchResult{}, m.FetchError
	}
	nav, ok := m.Quotes[schemeCode]
	if !ok {
		return model.NavFetchResult{SchemeCode: schemeCode, ErrorMessage: "scheme not found"}, nil
	}
	return model.NavFetchResult{
		SchemeCode: schemeCode,
		NavValue:   decimal.NewNullDecimal(decimal.RequireFromString(nav)),
		NavDate:    m.NavDate,
		Success:    true,
	}, nil
}

// BulkUpdateNavs records the batch and confirms every fund in it.
func (m *MockBackend) BulkUpdateNavs(_ context.Context, _ string, updates []model.NavUpdate) (model.BulkNavUpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applied = append(m.Applied, updates)
	if m.ApplyError != nil {
		return model.BulkNavUpdateResult{}, m.ApplyError
	}
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.MutualFundID)
	}
	return model.BulkNavUpdateResult{UpdatedFunds: ids}, nil
}

// ApplyCount returns the number of bulk update calls received.
func (m *MockBackend) ApplyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Applied)
}

// Fetches returns the number of NAV quotes requested.
func (m *MockBackend) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCount
}
