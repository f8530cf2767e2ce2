package valuation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// PortfolioTotals represents aggregate figures across a set of funds.
type PortfolioTotals struct {
	Invested      decimal.Decimal `json:"total_invested"`
	CurrentValue  decimal.Decimal `json:"total_current_value"`
	RealizedGain  decimal.Decimal `json:"total_realized_gain"`
	UnrealizedPnl decimal.Decimal `json:"total_unrealized_pnl"`
	TotalPnl      decimal.Decimal `json:"total_pnl"`
	Percentage    decimal.Decimal `json:"total_pnl_percentage"`
	FundCount     int             `json:"fund_count"`
}

// AggregatePortfolio sums invested cash, current value, realized gain and
// unrealized P&L over the given funds.
//
// Invested cash per fund falls back to units × average cost exactly as in
// CostBasis, so the unrealized total always equals the sum of FundPnL
// results. The portfolio percentage is derived the same way as the per-fund
// one and is zero when nothing is invested.
func AggregatePortfolio(funds []model.Fund) PortfolioTotals {
	var totals PortfolioTotals
	for _, f := range funds {
		pnl := FundPnL(f)
		totals.Invested = totals.Invested.Add(CostBasis(f))
		totals.CurrentValue = totals.CurrentValue.Add(f.CurrentValue)
		totals.RealizedGain = totals.RealizedGain.Add(pnl.Realized)
		totals.UnrealizedPnl = totals.UnrealizedPnl.Add(pnl.Unrealized)
		totals.FundCount++
	}
	totals.TotalPnl = totals.UnrealizedPnl.Add(totals.RealizedGain)
	totals.Percentage = percentOf(totals.UnrealizedPnl, totals.Invested)
	return totals
}

// Filter narrows a fund list before display or aggregation.
// Empty string fields match everything; matching is case-insensitive.
type Filter struct {
	Owner         string
	AMCID         string
	AssetClass    string
	HideZeroUnits bool
}

// IsEmpty reports whether the filter matches every fund.
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Matches reports whether a fund passes the filter.
func (f Filter) Matches(fund model.Fund) bool {
	if f.Owner != "" && !strings.EqualFold(f.Owner, fund.Owner) {
		return false
	}
	if f.AMCID != "" && f.AMCID != fund.AMCID {
		return false
	}
	if f.AssetClass != "" && !strings.EqualFold(f.AssetClass, fund.AssetClass) {
		return false
	}
	if f.HideZeroUnits && fund.TotalUnits.IsZero() {
		return false
	}
	return true
}

// FilterFunds returns the funds matching the filter, preserving order.
func FilterFunds(funds []model.Fund, filter Filter) []model.Fund {
	if filter.IsEmpty() {
		return funds
	}
	filtered := make([]model.Fund, 0, len(funds))
	for _, f := range funds {
		if filter.Matches(f) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
