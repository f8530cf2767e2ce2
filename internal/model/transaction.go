package model

import "github.com/shopspring/decimal"

// TransactionType is the kind of a mutual-fund ledger entry.
type TransactionType string

const (
	TransactionBuy       TransactionType = "buy"
	TransactionSell      TransactionType = "sell"
	TransactionSwitchOut TransactionType = "switch_out"
	TransactionSwitchIn  TransactionType = "switch_in"
)

// IsPurchase reports whether the transaction adds units at a purchase cost.
// Switch-ins count as purchases into the target fund.
func (t TransactionType) IsPurchase() bool {
	return t == TransactionBuy || t == TransactionSwitchIn
}

// IsRedemption reports whether the transaction removes units from the fund.
func (t TransactionType) IsRedemption() bool {
	return t == TransactionSell || t == TransactionSwitchOut
}

// MfTransaction is an immutable buy, sell or switch entry against one fund.
// Switches are recorded as a switch_out on the source fund paired with a
// switch_in on TargetFundID.
type MfTransaction struct {
	ID                   string              `json:"id"`
	LedgerID             string              `json:"ledger_id"`
	MutualFundID         string              `json:"mutual_fund_id"`
	TargetFundID         string              `json:"target_fund_id,omitempty"`
	Type                 TransactionType     `json:"transaction_type"`
	Units                decimal.Decimal     `json:"units"`
	NavPerUnit           decimal.Decimal     `json:"nav_per_unit"`
	Amount               decimal.Decimal     `json:"total_amount"`
	Charges              decimal.Decimal     `json:"charges"`
	AccountID            string              `json:"account_id,omitempty"`
	TransactionDate      Date                `json:"transaction_date"`
	RealizedGain         decimal.NullDecimal `json:"realized_gain"`
	CostBasisOfUnitsSold decimal.NullDecimal `json:"cost_basis_of_units_sold"`
	Notes                string              `json:"notes,omitempty"`
}
