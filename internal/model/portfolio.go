package model

import "github.com/shopspring/decimal"

// PortfolioSummary represents the aggregate state of a ledger's mutual-fund holdings.
// It is derived from the fund list on every request and never stored.
// Monetary values are exact decimals; the Display fields carry the same
// values formatted in the ledger currency.
type PortfolioSummary struct {
	LedgerID           string          `json:"ledger_id"`
	LedgerName         string          `json:"ledger_name"`
	Currency           string          `json:"currency"`
	FundCount          int             `json:"fund_count"`
	TotalInvested      decimal.Decimal `json:"total_invested"`       // Cost basis summed over funds
	TotalValue         decimal.Decimal `json:"total_value"`          // Current market value
	TotalRealizedGain  decimal.Decimal `json:"total_realized_gain"`  // Gains locked in by redemptions
	TotalUnrealizedPnl decimal.Decimal `json:"total_unrealized_pnl"` // Value minus cost basis
	TotalPnl           decimal.Decimal `json:"total_pnl"`            // Realized + unrealized
	PnlPercentage      decimal.Decimal `json:"pnl_percentage"`       // Unrealized P&L over invested, 0 when nothing invested
	Display            SummaryDisplay  `json:"display"`
}

// SummaryDisplay holds the user-facing renderings of a PortfolioSummary.
type SummaryDisplay struct {
	TotalInvested string `json:"total_invested"`
	TotalValue    string `json:"total_value"`
	TotalPnl      string `json:"total_pnl"`
	PnlPercentage string `json:"pnl_percentage"`
}

// PurchaseCostSummary reports the purchase-price range and transaction totals of one fund.
// HighestCost and LowestCost are null when the fund has no buy or switch-in transactions.
type PurchaseCostSummary struct {
	FundID           string              `json:"fund_id"`
	FundName         string              `json:"fund_name"`
	HighestCost      decimal.NullDecimal `json:"highest_cost"`
	LowestCost       decimal.NullDecimal `json:"lowest_cost"`
	TransactionCount int                 `json:"transaction_count"`
	TotalInvested    decimal.Decimal     `json:"total_invested"`
	TotalRedeemed    decimal.Decimal     `json:"total_redeemed"`
	TotalCharges     decimal.Decimal     `json:"total_charges"`
	RealizedGain     decimal.Decimal     `json:"realized_gain"`
	UnitsBought      decimal.Decimal     `json:"units_bought"`
	UnitsSold        decimal.Decimal     `json:"units_sold"`
}
