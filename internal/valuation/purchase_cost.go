package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// HighestPurchaseCost returns the highest NAV paid per unit across buy and
// switch_in transactions. Sells and switch-outs never count.
//
// When there is no purchase the result is invalid (Valid == false); callers
// must render a placeholder rather than zero.
func HighestPurchaseCost(transactions []model.MfTransaction) decimal.NullDecimal {
	return purchaseCost(transactions, func(candidate, current decimal.Decimal) bool {
		return candidate.GreaterThan(current)
	})
}

// LowestPurchaseCost returns the lowest NAV paid per unit across buy and
// switch_in transactions, or an invalid NullDecimal when there is none.
func LowestPurchaseCost(transactions []model.MfTransaction) decimal.NullDecimal {
	return purchaseCost(transactions, func(candidate, current decimal.Decimal) bool {
		return candidate.LessThan(current)
	})
}

func purchaseCost(transactions []model.MfTransaction, better func(candidate, current decimal.Decimal) bool) decimal.NullDecimal {
	var result decimal.NullDecimal
	for _, tx := range transactions {
		if !tx.Type.IsPurchase() {
			continue
		}
		if !result.Valid || better(tx.NavPerUnit, result.Decimal) {
			result = decimal.NullDecimal{Decimal: tx.NavPerUnit, Valid: true}
		}
	}
	return result
}

// TransactionTotals summarises a fund's transaction history.
type TransactionTotals struct {
	Invested     decimal.Decimal `json:"invested"`      // buy and switch_in amounts
	Redeemed     decimal.Decimal `json:"redeemed"`      // sell and switch_out amounts
	Charges      decimal.Decimal `json:"charges"`       // charges across all entries
	RealizedGain decimal.Decimal `json:"realized_gain"` // realized gain recorded on redemptions
	UnitsBought  decimal.Decimal `json:"units_bought"`
	UnitsSold    decimal.Decimal `json:"units_sold"`
	Count        int             `json:"count"`
}

// SummarizeTransactions totals a transaction list.
// Realized gain only counts redemptions that carry a recorded gain.
func SummarizeTransactions(transactions []model.MfTransaction) TransactionTotals {
	var totals TransactionTotals
	for _, tx := range transactions {
		totals.Count++
		totals.Charges = totals.Charges.Add(tx.Charges)

		switch {
		case tx.Type.IsPurchase():
			totals.Invested = totals.Invested.Add(tx.Amount)
			totals.UnitsBought = totals.UnitsBought.Add(tx.Units)
		case tx.Type.IsRedemption():
			totals.Redeemed = totals.Redeemed.Add(tx.Amount)
			totals.UnitsSold = totals.UnitsSold.Add(tx.Units)
			totals.RealizedGain = totals.RealizedGain.Add(nullToZero(tx.RealizedGain))
		}
	}
	return totals
}
