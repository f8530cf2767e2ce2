package model

import "github.com/shopspring/decimal"

// NavFetchResult is the outcome of fetching one live NAV quote.
// It is never persisted; results live only for the duration of one bulk
// update session. A result with Success false carries ErrorMessage and no value.
type NavFetchResult struct {
	SchemeCode   string              `json:"scheme_code"`
	NavValue     decimal.NullDecimal `json:"nav_value"`
	NavDate      string              `json:"nav_date,omitempty"` // As-of date reported by the NAV provider
	Success      bool                `json:"success"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// NavUpdate is one entry of a bulk NAV apply request.
type NavUpdate struct {
	MutualFundID string          `json:"mutual_fund_id"`
	LatestNav    decimal.Decimal `json:"latest_nav"`
	NavDate      string          `json:"nav_date,omitempty"`
}

// BulkNavUpdateRequest is the body of the single batched apply call.
type BulkNavUpdateRequest struct {
	Updates []NavUpdate `json:"updates"`
}

// BulkNavUpdateResult is the backend's confirmation of a bulk NAV apply.
// UpdatedFunds lists the identifiers of the funds that were updated.
type BulkNavUpdateResult struct {
	UpdatedFunds []string `json:"updated_funds"`
}

// FundValueChange describes how one fund's value moved as a result of an applied NAV update.
type FundValueChange struct {
	FundID   string          `json:"fund_id"`
	Name     string          `json:"name"`
	OldNav   decimal.Decimal `json:"old_nav"`
	NewNav   decimal.Decimal `json:"new_nav"`
	OldValue decimal.Decimal `json:"old_value"`
	NewValue decimal.Decimal `json:"new_value"`
	Change   decimal.Decimal `json:"change"`
}

// ApplySummary is reported once after a successful bulk NAV apply.
// TotalChange is the sum of (new NAV - old NAV) × units over the applied funds.
type ApplySummary struct {
	LedgerID       string            `json:"ledger_id"`
	Currency       string            `json:"currency"`
	UpdatedFundIDs []string          `json:"updated_fund_ids"`
	Changes        []FundValueChange `json:"changes"`
	TotalBefore    decimal.Decimal   `json:"total_before"`
	TotalAfter     decimal.Decimal   `json:"total_after"`
	TotalChange    decimal.Decimal   `json:"total_change"`
}
