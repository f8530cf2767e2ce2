package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/ledger-mf-companion/internal/apperrors"
	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/valuation"
)

// FundService handles fund valuation and portfolio aggregation.
// All figures are computed from the backend's fund and transaction data on
// every call; nothing is stored here.
type FundService struct {
	backend FundBackend
	logger  *logging.Logger
}

// NewFundService creates a new FundService with the provided backend dependency.
func NewFundService(backend FundBackend, logger *logging.Logger) *FundService {
	if logger == nil {
		logger = logging.NewSilent()
	}
	return &FundService{
		backend: backend,
		logger:  logger,
	}
}

// LedgerContext retrieves the ledger's name and currency.
func (s *FundService) LedgerContext(ctx context.Context, ledgerID string) (model.LedgerContext, error) {
	ledger, err := s.backend.GetLedger(ctx, ledgerID)
	if err != nil {
		return model.LedgerContext{}, mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrBackendUnavailable)
	}
	return ledger, nil
}

// loadLedgerAndFunds fetches the ledger context and its funds concurrently.
func (s *FundService) loadLedgerAndFunds(ctx context.Context, ledgerID string) (model.LedgerContext, []model.Fund, error) {
	var (
		ledger model.LedgerContext
		funds  []model.Fund
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ledger, err = s.LedgerContext(gctx, ledgerID)
		return err
	})
	g.Go(func() error {
		var err error
		funds, err = s.backend.ListFunds(gctx, ledgerID)
		return mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrFailedToRetrieveFunds)
	})
	if err := g.Wait(); err != nil {
		return model.LedgerContext{}, nil, err
	}

	return ledger, funds, nil
}

// ListFundValuations retrieves the ledger's funds with their profit and loss figures.
//
// Parameters:
//   - ctx: Request context
//   - ledgerID: The ledger to list funds for
//   - filter: Optional owner, AMC, asset class and zero-unit filters
//
// Returns one FundValuation per matching fund, in backend order, or
// apperrors.ErrLedgerNotFound / apperrors.ErrFailedToRetrieveFunds.
func (s *FundService) ListFundValuations(ctx context.Context, ledgerID string, filter valuation.Filter) ([]model.FundValuation, error) {
	_, funds, err := s.loadLedgerAndFunds(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	return valuation.Valuate(valuation.FilterFunds(funds, filter)), nil
}

// PortfolioSummary aggregates the ledger's (filtered) funds into portfolio totals.
// Totals are formatted in the ledger currency for display.
//
// Parameters:
//   - ctx: Request context
//   - ledgerID: The ledger to summarise
//   - filter: Optional filters applied before aggregation
//
// Returns the summary, or apperrors.ErrLedgerNotFound / apperrors.ErrFailedToRetrieveFunds.
func (s *FundService) PortfolioSummary(ctx context.Context, ledgerID string, filter valuation.Filter) (model.PortfolioSummary, error) {
	ledger, funds, err := s.loadLedgerAndFunds(ctx, ledgerID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	totals := valuation.AggregatePortfolio(valuation.FilterFunds(funds, filter))

	return model.PortfolioSummary{
		LedgerID:           ledger.ID,
		LedgerName:         ledger.Name,
		Currency:           ledger.Currency,
		FundCount:          totals.FundCount,
		TotalInvested:      totals.Invested,
		TotalValue:         totals.CurrentValue,
		TotalRealizedGain:  totals.RealizedGain,
		TotalUnrealizedPnl: totals.UnrealizedPnl,
		TotalPnl:           totals.TotalPnl,
		PnlPercentage:      totals.Percentage,
		Display: model.SummaryDisplay{
			TotalInvested: valuation.FormatMoney(totals.Invested, ledger.Currency),
			TotalValue:    valuation.FormatMoney(totals.CurrentValue, ledger.Currency),
			TotalPnl:      valuation.FormatMoney(totals.TotalPnl, ledger.Currency),
			PnlPercentage: valuation.FormatPercent(totals.Percentage).String(),
		},
	}, nil
}

// PurchaseCosts reports the highest and lowest purchase NAV of a fund along
// with its transaction totals. The fund list and the fund's transactions are
// loaded concurrently.
//
// Returns apperrors.ErrFundNotFound when the fund is not part of the ledger.
func (s *FundService) PurchaseCosts(ctx context.Context, ledgerID, fundID string) (model.PurchaseCostSummary, error) {
	var (
		funds []model.Fund
		txns  []model.MfTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		funds, err = s.backend.ListFunds(gctx, ledgerID)
		return mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrFailedToRetrieveFunds)
	})
	g.Go(func() error {
		var err error
		txns, err = s.backend.ListTransactions(gctx, ledgerID, fundID)
		return mapBackendError(err, apperrors.ErrFundNotFound, apperrors.ErrFailedToRetrieveTransactions)
	})
	if err := g.Wait(); err != nil {
		return model.PurchaseCostSummary{}, err
	}

	fund, ok := findFund(funds, fundID)
	if !ok {
		return model.PurchaseCostSummary{}, apperrors.ErrFundNotFound
	}

	totals := valuation.SummarizeTransactions(txns)

	return model.PurchaseCostSummary{
		FundID:           fund.ID,
		FundName:         fund.Name,
		HighestCost:      valuation.HighestPurchaseCost(txns),
		LowestCost:       valuation.LowestPurchaseCost(txns),
		TransactionCount: totals.Count,
		TotalInvested:    totals.Invested,
		TotalRedeemed:    totals.Redeemed,
		TotalCharges:     totals.Charges,
		RealizedGain:     totals.RealizedGain,
		UnitsBought:      totals.UnitsBought,
		UnitsSold:        totals.UnitsSold,
	}, nil
}

// CloseFund deletes a fund from the ledger. Funds still holding units are
// rejected with apperrors.ErrFundNotClosable without contacting the backend.
func (s *FundService) CloseFund(ctx context.Context, ledgerID, fundID string) error {
	funds, err := s.backend.ListFunds(ctx, ledgerID)
	if err != nil {
		return mapBackendError(err, apperrors.ErrLedgerNotFound, apperrors.ErrFailedToRetrieveFunds)
	}

	fund, ok := findFund(funds, fundID)
	if !ok {
		return apperrors.ErrFundNotFound
	}
	if !fund.CanClose() {
		return apperrors.ErrFundNotClosable
	}

	if err := s.backend.DeleteFund(ctx, ledgerID, fundID); err != nil {
		return mapBackendError(err, apperrors.ErrFundNotFound, apperrors.ErrBackendUnavailable)
	}

	s.logger.Info().Str("ledger_id", ledgerID).Str("fund_id", fundID).Msg("Fund closed")
	return nil
}

func findFund(funds []model.Fund, fundID string) (model.Fund, bool) {
	for _, f := range funds {
		if f.ID == fundID {
			return f, true
		}
	}
	return model.Fund{}, false
}
