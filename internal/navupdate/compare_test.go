package navupdate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/navupdate"
)

func TestEligibleFunds(t *testing.T) {
	funds := []model.Fund{
		fund("a", "100", "10", "1"),
		fund("b", "", "10", "1"),
		fund("c", "200", "0", "1"),
		fund("d", "300", "0.001", "1"),
	}

	got := navupdate.EligibleFunds(funds)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestIsActionable(t *testing.T) {
	current := d("100.00")

	assert.True(t, navupdate.IsActionable(current, quote("100.01")))
	assert.False(t, navupdate.IsActionable(current, quote("100.004")), "same at cents")
	assert.False(t, navupdate.IsActionable(current, quote("99.996")), "rounds to the stored NAV")
	assert.False(t, navupdate.IsActionable(current, model.NavFetchResult{Success: false}))
	assert.False(t, navupdate.IsActionable(current, model.NavFetchResult{Success: true}), "no value")
}

func TestComputeComparisons(t *testing.T) {
	funds := []model.Fund{
		fund("up", "100", "10", "100"),
		fund("same", "200", "5", "50"),
		fund("bad", "300", "1", "10"),
		fund("wait", "400", "1", "10"),
	}
	results := map[string]model.NavFetchResult{
		"100": quote("104.50"),
		"200": quote("50.001"),
		"300": {SchemeCode: "300", Success: false, ErrorMessage: "scheme not found"},
	}
	selected := map[string]bool{"up": true, "same": true, "bad": true}

	rows := navupdate.ComputeComparisons(funds, results, selected)

	require.Len(t, rows, 4)

	up := rows[0]
	assert.Equal(t, navupdate.StatusActionable, up.Status)
	assert.True(t, up.Selected)
	assert.True(t, up.NavChange.Equal(d("4.5")))
	assert.True(t, up.NavChangePercent.Equal(d("4.5")))
	assert.True(t, up.PreviewValue.Equal(d("1045")))
	assert.True(t, up.ValueChange.Equal(d("45")))
	assert.Equal(t, "2024-06-28", up.NavDate)

	assert.Equal(t, navupdate.StatusUpToDate, rows[1].Status)
	assert.False(t, rows[1].Selected, "up-to-date rows are never selected")

	assert.Equal(t, navupdate.StatusFailed, rows[2].Status)
	assert.Equal(t, "scheme not found", rows[2].ErrorMessage)
	assert.False(t, rows[2].Selected, "failed rows are never selected")
	assert.False(t, rows[2].FetchedNav.Valid)

	assert.Equal(t, navupdate.StatusPending, rows[3].Status)
	assert.True(t, rows[3].NavChange.Equal(decimal.Zero))
}

func TestComputeComparisons_SharedSchemeCode(t *testing.T) {
	funds := []model.Fund{
		fund("a", "100", "10", "10"),
		fund("b", "100", "2", "10"),
	}
	results := map[string]model.NavFetchResult{"100": quote("11")}

	rows := navupdate.ComputeComparisons(funds, results, nil)

	require.Len(t, rows, 2)
	assert.True(t, rows[0].ValueChange.Equal(d("10")))
	assert.True(t, rows[1].ValueChange.Equal(d("2")))
}

func TestPartition(t *testing.T) {
	rows := []navupdate.ComparisonRow{
		{FundID: "1", Status: navupdate.StatusActionable},
		{FundID: "2", Status: navupdate.StatusFailed},
		{FundID: "3", Status: navupdate.StatusActionable},
		{FundID: "4", Status: navupdate.StatusUpToDate},
		{FundID: "5", Status: navupdate.StatusPending},
	}

	p := navupdate.Partition(rows)

	require.Len(t, p.Actionable, 2)
	assert.Equal(t, "1", p.Actionable[0].FundID)
	assert.Equal(t, "3", p.Actionable[1].FundID)
	assert.Len(t, p.UpToDate, 1)
	assert.Len(t, p.Failed, 1)
	assert.Len(t, p.Pending, 1)

	empty := navupdate.Partition(nil)
	assert.NotNil(t, empty.Actionable)
	assert.Empty(t, empty.Actionable)
}

func TestStopToken(t *testing.T) {
	token := navupdate.NewStopToken()
	assert.False(t, token.Stopped())

	token.Stop()
	token.Stop()
	assert.True(t, token.Stopped())
}
