// Package valuation derives profit and loss figures for mutual-fund holdings.
//
// Every function in this package is pure: it takes already-fetched fund and
// transaction data and returns plain values. Nothing here performs I/O or
// returns an error; absent optional inputs are treated as zero and divisions
// by a zero cost basis yield zero.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

var hundred = decimal.NewFromInt(100)

// PnL holds the profit and loss figures for a single fund.
type PnL struct {
	Unrealized decimal.Decimal `json:"unrealized_pnl"`
	Realized   decimal.Decimal `json:"realized_pnl"`
	Total      decimal.Decimal `json:"pnl"`
	Percentage decimal.Decimal `json:"pnl_percentage"`
}

// CostBasis returns the invested-cash baseline used for unrealized P&L.
//
// The fund's total invested cash is preferred because it includes purchase
// charges. When it is absent or zero the basis falls back to
// units × average cost per unit.
func CostBasis(fund model.Fund) decimal.Decimal {
	if fund.TotalInvestedCash.Valid && !fund.TotalInvestedCash.Decimal.IsZero() {
		return fund.TotalInvestedCash.Decimal
	}
	return fund.TotalUnits.Mul(fund.AverageCostPerUnit)
}

// FundPnL calculates unrealized, realized and total P&L for a fund.
//
// Calculation:
//   - Unrealized = current value - cost basis
//   - Realized = total realized gain (0 when absent)
//   - Total = unrealized + realized
//   - Percentage = unrealized / cost basis × 100, or 0 when the cost basis is not positive
//
// The percentage is relative to unrealized P&L only; realized gains are
// already locked in and do not change the return on the current holding.
func FundPnL(fund model.Fund) PnL {
	basis := CostBasis(fund)
	unrealized := fund.CurrentValue.Sub(basis)
	realized := nullToZero(fund.TotalRealizedGain)

	return PnL{
		Unrealized: unrealized,
		Realized:   realized,
		Total:      unrealized.Add(realized),
		Percentage: percentOf(unrealized, basis),
	}
}

// Valuate pairs each fund with its P&L figures, preserving input order.
func Valuate(funds []model.Fund) []model.FundValuation {
	valuations := make([]model.FundValuation, len(funds))
	for i, f := range funds {
		pnl := FundPnL(f)
		valuations[i] = model.FundValuation{
			Fund:          f,
			UnrealizedPnl: pnl.Unrealized,
			RealizedPnl:   pnl.Realized,
			Pnl:           pnl.Total,
			PnlPercentage: pnl.Percentage,
			CostBasis:     CostBasis(f),
		}
	}
	return valuations
}

// percentOf returns part / whole × 100, defined as zero when whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func nullToZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
