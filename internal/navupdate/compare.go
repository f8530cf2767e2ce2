package navupdate

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/valuation"
)

// RowStatus classifies one fund in the comparison table.
type RowStatus string

const (
	// StatusPending means no result was recorded for the fund in this run,
	// either because the run has not reached it or because it was stopped first.
	StatusPending RowStatus = "pending"
	// StatusFailed means the fetch for the fund's scheme code failed.
	StatusFailed RowStatus = "failed"
	// StatusUpToDate means the fetched NAV equals the stored NAV at cent precision.
	StatusUpToDate RowStatus = "up_to_date"
	// StatusActionable means the fetched NAV differs from the stored NAV and may be selected.
	StatusActionable RowStatus = "actionable"
)

// ComparisonRow compares one fund's stored NAV with its fetched NAV.
type ComparisonRow struct {
	FundID           string              `json:"fund_id"`
	Name             string              `json:"name"`
	SchemeCode       string              `json:"scheme_code"`
	Units            decimal.Decimal     `json:"units"`
	CurrentNav       decimal.Decimal     `json:"current_nav"`
	FetchedNav       decimal.NullDecimal `json:"fetched_nav"`
	NavDate          string              `json:"nav_date,omitempty"`
	Status           RowStatus           `json:"status"`
	ErrorMessage     string              `json:"error_message,omitempty"`
	Selected         bool                `json:"selected"`
	NavChange        decimal.Decimal     `json:"nav_change"`
	NavChangePercent decimal.Decimal     `json:"nav_change_percent"`
	CurrentValue     decimal.Decimal     `json:"current_value"`
	PreviewValue     decimal.Decimal     `json:"preview_value"`
	ValueChange      decimal.Decimal     `json:"value_change"`
}

// Selectable reports whether the row may be ticked for apply.
func (r ComparisonRow) Selectable() bool {
	return r.Status == StatusActionable
}

// Partitions groups comparison rows by status, each group in input order.
type Partitions struct {
	Actionable []ComparisonRow `json:"actionable"`
	UpToDate   []ComparisonRow `json:"up_to_date"`
	Failed     []ComparisonRow `json:"failed"`
	Pending    []ComparisonRow `json:"pending"`
}

// EligibleFunds returns the funds that can take part in a bulk NAV update:
// those with a scheme code and a positive unit balance. Order is preserved.
func EligibleFunds(funds []model.Fund) []model.Fund {
	eligible := make([]model.Fund, 0, len(funds))
	for _, f := range funds {
		if f.HasSchemeCode() && f.TotalUnits.IsPositive() {
			eligible = append(eligible, f)
		}
	}
	return eligible
}

// IsActionable reports whether a fetched result should be offered for apply.
// The result must be successful and its NAV must differ from the stored NAV
// once both are rounded to cents.
func IsActionable(currentNav decimal.Decimal, result model.NavFetchResult) bool {
	if !result.Success || !result.NavValue.Valid {
		return false
	}
	return !valuation.SameAtCents(currentNav, result.NavValue.Decimal)
}

// ComputeComparisons builds the comparison table from the funds, the fetch
// results keyed by scheme code, and the selected fund IDs.
//
// It is a pure function and is recomputed on every state change rather than
// maintained incrementally. A selection entry only marks a row as selected
// when that row is actionable, so up-to-date or failed funds can never end up
// in an apply request even if they appear in the selection set.
func ComputeComparisons(funds []model.Fund, results map[string]model.NavFetchResult, selected map[string]bool) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(funds))
	for _, f := range funds {
		row := ComparisonRow{
			FundID:       f.ID,
			Name:         f.Name,
			SchemeCode:   f.Code,
			Units:        f.TotalUnits,
			CurrentNav:   f.LatestNav,
			CurrentValue: f.CurrentValue,
			Status:       StatusPending,
		}

		result, ok := results[f.Code]
		switch {
		case !ok:
		case !result.Success || !result.NavValue.Valid:
			row.Status = StatusFailed
			row.ErrorMessage = result.ErrorMessage
		default:
			fetched := result.NavValue.Decimal
			row.FetchedNav = result.NavValue
			row.NavDate = result.NavDate
			row.NavChange, row.NavChangePercent = valuation.NavChange(f.LatestNav, fetched)
			row.PreviewValue = f.PreviewValue(fetched)
			row.ValueChange = valuation.ValueChange(f.TotalUnits, f.LatestNav, fetched)
			if IsActionable(f.LatestNav, result) {
				row.Status = StatusActionable
				row.Selected = selected[f.ID]
			} else {
				row.Status = StatusUpToDate
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// Partition splits rows into actionable, up-to-date, failed and pending groups.
func Partition(rows []ComparisonRow) Partitions {
	p := Partitions{
		Actionable: []ComparisonRow{},
		UpToDate:   []ComparisonRow{},
		Failed:     []ComparisonRow{},
		Pending:    []ComparisonRow{},
	}
	for _, r := range rows {
		switch r.Status {
		case StatusActionable:
			p.Actionable = append(p.Actionable, r)
		case StatusUpToDate:
			p.UpToDate = append(p.UpToDate, r)
		case StatusFailed:
			p.Failed = append(p.Failed, r)
		default:
			p.Pending = append(p.Pending, r)
		}
	}
	return p
}
