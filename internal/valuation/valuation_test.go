package valuation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/valuation"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func tx(typ model.TransactionType, nav string) model.MfTransaction {
	return model.MfTransaction{
		Type:            typ,
		Units:           d("1"),
		NavPerUnit:      d(nav),
		Amount:          d(nav),
		TransactionDate: model.NewDate(2024, time.January, 1),
	}
}

func TestFundPnL(t *testing.T) {
	t.Run("end to end figures", func(t *testing.T) {
		fund := model.Fund{
			TotalUnits:         d("10"),
			AverageCostPerUnit: d("100"),
			TotalInvestedCash:  nd("1000"),
			CurrentValue:       d("1200"),
			TotalRealizedGain:  nd("50"),
		}

		pnl := valuation.FundPnL(fund)

		assert.True(t, pnl.Unrealized.Equal(d("200")), "unrealized %s", pnl.Unrealized)
		assert.True(t, pnl.Realized.Equal(d("50")), "realized %s", pnl.Realized)
		assert.True(t, pnl.Total.Equal(d("250")), "total %s", pnl.Total)
		assert.True(t, pnl.Percentage.Equal(d("20")), "percentage %s", pnl.Percentage)
	})

	t.Run("unrealized is exactly current value minus invested cash", func(t *testing.T) {
		cases := []struct{ invested, current string }{
			{"1000.10", "1200.20"},
			{"0.01", "0.03"},
			{"98765.4321", "12345.6789"},
			{"333.33", "333.33"},
		}
		for _, c := range cases {
			fund := model.Fund{
				TotalUnits:         d("3"),
				AverageCostPerUnit: d("1"),
				TotalInvestedCash:  nd(c.invested),
				CurrentValue:       d(c.current),
			}
			want := d(c.current).Sub(d(c.invested))
			assert.True(t, valuation.FundPnL(fund).Unrealized.Equal(want), "invested=%s current=%s", c.invested, c.current)
		}
	})

	t.Run("falls back to units times average cost when invested cash is absent or zero", func(t *testing.T) {
		absent := model.Fund{
			TotalUnits:         d("4"),
			AverageCostPerUnit: d("25"),
			CurrentValue:       d("110"),
		}
		zero := absent
		zero.TotalInvestedCash = nd("0")

		for _, fund := range []model.Fund{absent, zero} {
			assert.True(t, valuation.CostBasis(fund).Equal(d("100")))
			pnl := valuation.FundPnL(fund)
			assert.True(t, pnl.Unrealized.Equal(d("10")))
			assert.True(t, pnl.Percentage.Equal(d("10")))
		}
	})

	t.Run("percentage is zero without cost basis", func(t *testing.T) {
		funds := []model.Fund{
			{CurrentValue: d("500")},
			{TotalUnits: d("0"), AverageCostPerUnit: d("10"), CurrentValue: d("0")},
			{TotalUnits: d("5"), AverageCostPerUnit: d("0"), TotalInvestedCash: nd("0"), CurrentValue: d("10")},
		}
		for _, fund := range funds {
			pnl := valuation.FundPnL(fund)
			assert.True(t, pnl.Percentage.IsZero(), "percentage %s", pnl.Percentage)
		}
	})

	t.Run("absent realized gain is zero", func(t *testing.T) {
		fund := model.Fund{TotalInvestedCash: nd("100"), CurrentValue: d("90")}
		pnl := valuation.FundPnL(fund)
		assert.True(t, pnl.Realized.IsZero())
		assert.True(t, pnl.Total.Equal(d("-10")))
		assert.True(t, pnl.Percentage.Equal(d("-10")))
	})
}

func TestValuate(t *testing.T) {
	funds := []model.Fund{
		{ID: "a", TotalInvestedCash: nd("100"), CurrentValue: d("150")},
		{ID: "b", TotalUnits: d("2"), AverageCostPerUnit: d("50"), CurrentValue: d("80")},
	}

	rows := valuation.Valuate(funds)

	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	assert.True(t, rows[0].UnrealizedPnl.Equal(d("50")))
	assert.Equal(t, "b", rows[1].ID)
	assert.True(t, rows[1].CostBasis.Equal(d("100")))
	assert.True(t, rows[1].PnlPercentage.Equal(d("-20")))
}

func TestPurchaseCost(t *testing.T) {
	t.Run("empty history is unavailable", func(t *testing.T) {
		assert.False(t, valuation.HighestPurchaseCost(nil).Valid)
		assert.False(t, valuation.LowestPurchaseCost([]model.MfTransaction{}).Valid)
	})

	t.Run("redemptions only is unavailable", func(t *testing.T) {
		txns := []model.MfTransaction{
			tx(model.TransactionSell, "120"),
			tx(model.TransactionSwitchOut, "90"),
		}
		assert.False(t, valuation.HighestPurchaseCost(txns).Valid)
		assert.False(t, valuation.LowestPurchaseCost(txns).Valid)
	})

	t.Run("considers buys and switch-ins only", func(t *testing.T) {
		txns := []model.MfTransaction{
			tx(model.TransactionBuy, "101.25"),
			tx(model.TransactionSell, "500"),
			tx(model.TransactionSwitchIn, "88.10"),
			tx(model.TransactionSwitchOut, "1"),
			tx(model.TransactionBuy, "110.00"),
		}

		highest := valuation.HighestPurchaseCost(txns)
		lowest := valuation.LowestPurchaseCost(txns)

		require.True(t, highest.Valid)
		require.True(t, lowest.Valid)
		assert.True(t, highest.Decimal.Equal(d("110")))
		assert.True(t, lowest.Decimal.Equal(d("88.10")))
	})
}

func TestSummarizeTransactions(t *testing.T) {
	sell := tx(model.TransactionSell, "120")
	sell.Units = d("2")
	sell.Amount = d("240")
	sell.RealizedGain = nd("40")
	buy := tx(model.TransactionBuy, "100")
	buy.Units = d("5")
	buy.Amount = d("500")
	buy.Charges = d("2.5")

	totals := valuation.SummarizeTransactions([]model.MfTransaction{buy, sell})

	assert.Equal(t, 2, totals.Count)
	assert.True(t, totals.Invested.Equal(d("500")))
	assert.True(t, totals.Redeemed.Equal(d("240")))
	assert.True(t, totals.Charges.Equal(d("2.5")))
	assert.True(t, totals.RealizedGain.Equal(d("40")))
	assert.True(t, totals.UnitsBought.Equal(d("5")))
	assert.True(t, totals.UnitsSold.Equal(d("2")))
}

func TestAggregatePortfolio(t *testing.T) {
	t.Run("sums funds and derives percentage", func(t *testing.T) {
		funds := []model.Fund{
			{TotalInvestedCash: nd("1000"), CurrentValue: d("1200"), TotalRealizedGain: nd("50")},
			{TotalUnits: d("10"), AverageCostPerUnit: d("100"), CurrentValue: d("800")},
		}

		totals := valuation.AggregatePortfolio(funds)

		assert.Equal(t, 2, totals.FundCount)
		assert.True(t, totals.Invested.Equal(d("2000")))
		assert.True(t, totals.CurrentValue.Equal(d("2000")))
		assert.True(t, totals.RealizedGain.Equal(d("50")))
		assert.True(t, totals.UnrealizedPnl.IsZero())
		assert.True(t, totals.TotalPnl.Equal(d("50")))
		assert.True(t, totals.Percentage.IsZero())
	})

	t.Run("empty portfolio has zero percentage", func(t *testing.T) {
		totals := valuation.AggregatePortfolio(nil)
		assert.Equal(t, 0, totals.FundCount)
		assert.True(t, totals.Percentage.IsZero())
	})
}

func TestFilterFunds(t *testing.T) {
	funds := []model.Fund{
		{ID: "1", Owner: "Asha", AMCID: "amc-1", AssetClass: "Equity", TotalUnits: d("1")},
		{ID: "2", Owner: "Ravi", AMCID: "amc-1", AssetClass: "Debt", TotalUnits: d("0")},
		{ID: "3", Owner: "asha", AMCID: "amc-2", AssetClass: "equity", TotalUnits: d("3")},
	}

	ids := func(fs []model.Fund) []string {
		out := []string{}
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(valuation.FilterFunds(funds, valuation.Filter{})))
	assert.Equal(t, []string{"1", "3"}, ids(valuation.FilterFunds(funds, valuation.Filter{Owner: "ASHA"})))
	assert.Equal(t, []string{"1", "2"}, ids(valuation.FilterFunds(funds, valuation.Filter{AMCID: "amc-1"})))
	assert.Equal(t, []string{"1", "3"}, ids(valuation.FilterFunds(funds, valuation.Filter{HideZeroUnits: true})))
	assert.Equal(t, []string{"3"}, ids(valuation.FilterFunds(funds, valuation.Filter{AssetClass: "Equity", AMCID: "amc-2"})))
}

func TestFormatting(t *testing.T) {
	t.Run("percent parts", func(t *testing.T) {
		assert.Equal(t, valuation.PercentParts{Sign: "+", Integer: "20", Fraction: "00"}, valuation.FormatPercent(d("20")))
		assert.Equal(t, valuation.PercentParts{Sign: "-", Integer: "12", Fraction: "35"}, valuation.FormatPercent(d("-12.345")))
		assert.Equal(t, valuation.PercentParts{Sign: "", Integer: "0", Fraction: "00"}, valuation.FormatPercent(d("0.001")))
		assert.Equal(t, "+3.14%", valuation.FormatPercent(d("3.14159")).String())
	})

	t.Run("money", func(t *testing.T) {
		assert.Equal(t, "$1,234.50", valuation.FormatMoney(d("1234.5"), "USD"))
		assert.Equal(t, "$1,234.50", valuation.FormatMoney(d("1234.499"), "usd"))
		assert.Equal(t, "1234.50 ZZZ", valuation.FormatMoney(d("1234.5"), "ZZZ"))
	})

	t.Run("same at cents", func(t *testing.T) {
		assert.True(t, valuation.SameAtCents(d("100.00"), d("100.004")))
		assert.False(t, valuation.SameAtCents(d("100.00"), d("100.01")))
		assert.False(t, valuation.SameAtCents(d("100.00"), d("100.005")))
	})

	t.Run("nav and value change", func(t *testing.T) {
		change, pct := valuation.NavChange(d("100"), d("105.5"))
		assert.True(t, change.Equal(d("5.5")))
		assert.True(t, pct.Equal(d("5.5")))

		_, pct = valuation.NavChange(decimal.Zero, d("10"))
		assert.True(t, pct.IsZero())

		assert.True(t, valuation.ValueChange(d("10"), d("100"), d("105.5")).Equal(d("55")))
	})
}
