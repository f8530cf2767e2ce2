package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// FundBuilder provides a fluent interface for creating test funds.
//
// Example usage:
//
//	// Simple creation with defaults: 10 units at NAV 100, cost 90
//	fund := testutil.NewFund().Build()
//
//	// Customized fund
//	fund := testutil.NewFund().
//	    WithSchemeCode("120503").
//	    WithUnits("25.5").
//	    WithNav("48.12").
//	    Build()
type FundBuilder struct {
	ID                 string
	LedgerID           string
	AMCID              string
	Name               string
	Code               string
	Owner              string
	AssetClass         string
	TotalUnits         decimal.Decimal
	AverageCostPerUnit decimal.Decimal
	LatestNav          decimal.Decimal
	TotalInvestedCash  decimal.NullDecimal
	TotalRealizedGain  decimal.NullDecimal
}

// NewFund creates a FundBuilder with sensible defaults.
func NewFund() *FundBuilder {
	return &FundBuilder{
		ID:                 MakeID(),
		LedgerID:           MakeID(),
		AMCID:              MakeID(),
		Name:               MakeFundName("Test Fund"),
		Code:               MakeSchemeCode(),
		Owner:              "Self",
		AssetClass:         "Equity",
		TotalUnits:         decimal.NewFromInt(10),
		AverageCostPerUnit: decimal.NewFromInt(90),
		LatestNav:          decimal.NewFromInt(100),
	}
}

// WithID sets a custom ID.
func (b *FundBuilder) WithID(id string) *FundBuilder {
	b.ID = id
	return b
}

// WithLedger sets the ledger ID.
func (b *FundBuilder) WithLedger(ledgerID string) *FundBuilder {
	b.LedgerID = ledgerID
	return b
}

// WithAMC sets the AMC ID.
func (b *FundBuilder) WithAMC(amcID string) *FundBuilder {
	b.AMCID = amcID
	return b
}

// WithName sets a custom name.
func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.Name = name
	return b
}

// WithSchemeCode sets the scheme code used for NAV lookups.
func (b *FundBuilder) WithSchemeCode(code string) *FundBuilder {
	b.Code = code
	return b
}

// WithoutSchemeCode clears the scheme code.
func (b *FundBuilder) WithoutSchemeCode() *FundBuilder {
	b.Code = ""
	return b
}

// WithOwner sets the owner.
func (b *FundBuilder) WithOwner(owner string) *FundBuilder {
	b.Owner = owner
	return b
}

// WithAssetClass sets the asset class.
func (b *FundBuilder) WithAssetClass(class string) *FundBuilder {
	b.AssetClass = class
	return b
}

// WithUnits sets the unit balance.
func (b *FundBuilder) WithUnits(units string) *FundBuilder {
	b.TotalUnits = decimal.RequireFromString(units)
	return b
}

// WithNav sets the stored NAV.
func (b *FundBuilder) WithNav(nav string) *FundBuilder {
	b.LatestNav = decimal.RequireFromString(nav)
	return b
}

// WithAverageCost sets the average cost per unit.
func (b *FundBuilder) WithAverageCost(cost string) *FundBuilder {
	b.AverageCostPerUnit = decimal.RequireFromString(cost)
	return b
}

// WithInvested sets the total invested cash.
func (b *FundBuilder) WithInvested(amount string) *FundBuilder {
	b.TotalInvestedCash = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	return b
}

// WithRealizedGain sets the total realized gain.
func (b *FundBuilder) WithRealizedGain(amount string) *FundBuilder {
	b.TotalRealizedGain = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	return b
}

// Build returns the fund. CurrentValue is derived as units × NAV.
func (b *FundBuilder) Build() model.Fund {
	return model.Fund{
		ID:                 b.ID,
		LedgerID:           b.LedgerID,
		AMCID:              b.AMCID,
		Name:               b.Name,
		Code:               b.Code,
		Owner:              b.Owner,
		AssetClass:         b.AssetClass,
		TotalUnits:         b.TotalUnits,
		AverageCostPerUnit: b.AverageCostPerUnit,
		LatestNav:          b.LatestNav,
		CurrentValue:       b.TotalUnits.Mul(b.LatestNav),
		TotalInvestedCash:  b.TotalInvestedCash,
		TotalRealizedGain:  b.TotalRealizedGain,
	}
}

// TransactionBuilder provides a fluent interface for creating test transactions.
//
// Example usage:
//
//	tx := testutil.NewTransaction(fund.ID).
//	    WithType(model.TransactionSell).
//	    WithUnits("2").
//	    WithNav("120").
//	    Build()
type TransactionBuilder struct {
	ID           string
	FundID       string
	Type         model.TransactionType
	Units        decimal.Decimal
	NavPerUnit   decimal.Decimal
	Charges      decimal.Decimal
	Date         time.Time
	RealizedGain decimal.NullDecimal
}

// NewTransaction creates a buy TransactionBuilder for the fund: 1 unit at NAV 100.
func NewTransaction(fundID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:         MakeID(),
		FundID:     fundID,
		Type:       model.TransactionBuy,
		Units:      decimal.NewFromInt(1),
		NavPerUnit: decimal.NewFromInt(100),
		Date:       time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

// WithType sets the transaction type.
func (b *TransactionBuilder) WithType(typ model.TransactionType) *TransactionBuilder {
	b.Type = typ
	return b
}

// WithUnits sets the units.
func (b *TransactionBuilder) WithUnits(units string) *TransactionBuilder {
	b.Units = decimal.RequireFromString(units)
	return b
}

// WithNav sets the NAV per unit.
func (b *TransactionBuilder) WithNav(nav string) *TransactionBuilder {
	b.NavPerUnit = decimal.RequireFromString(nav)
	return b
}

// WithCharges sets the charges.
func (b *TransactionBuilder) WithCharges(charges string) *TransactionBuilder {
	b.Charges = decimal.RequireFromString(charges)
	return b
}

// WithDate sets the transaction date.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// WithRealizedGain sets the realized gain of a redemption.
func (b *TransactionBuilder) WithRealizedGain(amount string) *TransactionBuilder {
	b.RealizedGain = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	return b
}

// Build returns the transaction. The amount is derived as units × NAV.
func (b *TransactionBuilder) Build() model.MfTransaction {
	return model.MfTransaction{
		ID:              b.ID,
		MutualFundID:    b.FundID,
		Type:            b.Type,
		Units:           b.Units,
		NavPerUnit:      b.NavPerUnit,
		Amount:          b.Units.Mul(b.NavPerUnit),
		Charges:         b.Charges,
		TransactionDate: model.Date{Time: b.Date},
		RealizedGain:    b.RealizedGain,
	}
}
