package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AMC represents an asset management company. Every fund belongs to exactly one AMC.
type AMC struct {
	ID        string    `json:"id"`
	LedgerID  string    `json:"ledger_id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fund represents one mutual-fund holding within a ledger as returned by the backend.
//
// Monetary and unit fields are decimals and decode from either JSON numbers or
// JSON strings, since the backend serialises its numeric columns as text.
// Optional numeric fields use decimal.NullDecimal; an absent value is treated
// as zero by the valuation calculator.
type Fund struct {
	ID                 string              `json:"id"`
	LedgerID           string              `json:"ledger_id"`
	AMCID              string              `json:"amc_id"`
	Name               string              `json:"name"`
	Plan               string              `json:"plan,omitempty"`
	Code               string              `json:"code,omitempty"` // Scheme code used to query live NAV quotes
	Owner              string              `json:"owner,omitempty"`
	AssetClass         string              `json:"asset_class,omitempty"`
	AssetSubClass      string              `json:"asset_sub_class,omitempty"`
	TotalUnits         decimal.Decimal     `json:"total_units"`
	AverageCostPerUnit decimal.Decimal     `json:"average_cost_per_unit"`
	LatestNav          decimal.Decimal     `json:"latest_nav"`
	LastNavUpdate      *time.Time          `json:"last_nav_update,omitempty"`
	CurrentValue       decimal.Decimal     `json:"current_value"`
	TotalInvestedCash  decimal.NullDecimal `json:"total_invested_cash"`
	TotalRealizedGain  decimal.NullDecimal `json:"total_realized_gain"`
	Xirr               decimal.NullDecimal `json:"xirr_percentage"`
}

// HasSchemeCode reports whether the fund can be priced from the NAV provider.
func (f Fund) HasSchemeCode() bool {
	return f.Code != ""
}

// CanClose reports whether the fund may be closed (deleted).
// Funds still holding units can never be closed.
func (f Fund) CanClose() bool {
	return f.TotalUnits.IsZero()
}

// PreviewValue returns the value the fund would have at the given NAV,
// using the same units × NAV formula the backend applies after an update.
func (f Fund) PreviewValue(nav decimal.Decimal) decimal.Decimal {
	return f.TotalUnits.Mul(nav)
}

// FundValuation is a fund together with its derived profit and loss figures.
type FundValuation struct {
	Fund
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnl   decimal.Decimal `json:"realized_pnl"`
	Pnl           decimal.Decimal `json:"pnl"`
	PnlPercentage decimal.Decimal `json:"pnl_percentage"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
}
