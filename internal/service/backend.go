package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndewijer/ledger-mf-companion/internal/ledgerapi"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// LedgerReader is the read side of the ledger backend.
type LedgerReader interface {
	GetLedger(ctx context.Context, ledgerID string) (model.LedgerContext, error)
	ListFunds(ctx context.Context, ledgerID string) ([]model.Fund, error)
	ListTransactions(ctx context.Context, ledgerID, fundID string) ([]model.MfTransaction, error)
}

// FundBackend is what FundService needs from the ledger backend.
type FundBackend interface {
	LedgerReader
	DeleteFund(ctx context.Context, ledgerID, fundID string) error
}

// HealthChecker reports whether the ledger backend is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// mapBackendError translates a backend failure into an apperrors sentinel.
// A 404 becomes notFound; any other failure is reported as fallback.
// The original error stays in the chain.
func mapBackendError(err, notFound, fallback error) error {
	if err == nil {
		return nil
	}
	var apiErr *ledgerapi.APIError
	if errors.As(err, &apiErr) && apiErr.NotFound() && notFound != nil {
		return fmt.Errorf("%w: %w", notFound, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", fallback, err)
}
