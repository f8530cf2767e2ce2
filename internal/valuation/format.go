package valuation

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places used for displayed amounts,
// NAVs and percentages.
const DisplayPlaces = 2

// Round2 rounds a value to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

// Cents returns the value scaled to hundredths and rounded to the nearest integer.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Mul(hundred).Round(0)
}

// SameAtCents reports whether two NAVs are indistinguishable once rounded to
// cents. A fetched NAV of 100.004 against a stored 100.00 is the same; 100.01 is not.
func SameAtCents(a, b decimal.Decimal) bool {
	return Cents(a).Equal(Cents(b))
}

// NavChange returns the absolute and percentage change from oldNav to newNav.
// The percentage is zero when oldNav is not positive.
func NavChange(oldNav, newNav decimal.Decimal) (change, percentage decimal.Decimal) {
	change = newNav.Sub(oldNav)
	return change, percentOf(change, oldNav)
}

// ValueChange returns (newNav - oldNav) × units, the change in a holding's
// value caused by a NAV move.
func ValueChange(units, oldNav, newNav decimal.Decimal) decimal.Decimal {
	return newNav.Sub(oldNav).Mul(units)
}

// PercentParts is a formatted percentage split for differentiated styling,
// e.g. -12.34 becomes {Sign: "-", Integer: "12", Fraction: "34"}.
type PercentParts struct {
	Sign     string `json:"sign"`
	Integer  string `json:"integer"`
	Fraction string `json:"fraction"`
}

// String joins the parts back into "<sign><integer>.<fraction>%".
func (p PercentParts) String() string {
	return fmt.Sprintf("%s%s.%s%%", p.Sign, p.Integer, p.Fraction)
}

// FormatPercent rounds a percentage to two places and splits it into sign,
// integer and fractional parts. Zero carries no sign.
func FormatPercent(p decimal.Decimal) PercentParts {
	rounded := Round2(p)
	sign := ""
	switch {
	case rounded.IsPositive():
		sign = "+"
	case rounded.IsNegative():
		sign = "-"
	}

	text := rounded.Abs().StringFixed(DisplayPlaces)
	integer, fraction, _ := strings.Cut(text, ".")
	return PercentParts{Sign: sign, Integer: integer, Fraction: fraction}
}

// FormatMoney renders an amount in the given ISO currency, e.g. "₹1,234.50".
// Unknown currency codes fall back to "<amount> <code>".
func FormatMoney(amount decimal.Decimal, currencyCode string) string {
	cur := money.GetCurrency(strings.ToUpper(currencyCode))
	if cur == nil {
		return strings.TrimSpace(amount.StringFixed(DisplayPlaces) + " " + currencyCode)
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
