package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ndewijer/ledger-mf-companion/internal/valuation"
	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

// ParseFundFilters extracts and validates fund list filters from query parameters.
// Converts raw query string parameters into a valuation.Filter.
//
// All parameters are optional:
//   - owner: Matched case-insensitively against the fund owner
//   - amc: AMC ID, must be a valid UUID
//   - asset_class: Matched case-insensitively against the fund's asset class
//   - hide_zero: Boolean ("true", "1", "false", ...); drops funds with zero units
//
// Returns a *validation.Error listing every invalid parameter.
func ParseFundFilters(ownerParam, amcParam, assetClassParam, hideZeroParam string) (valuation.Filter, error) {
	errs := make(map[string]string)

	filter := valuation.Filter{
		Owner:      strings.TrimSpace(ownerParam),
		AssetClass: strings.TrimSpace(assetClassParam),
	}

	if amcParam != "" {
		if err := validation.ValidateUUID(amcParam); err != nil {
			errs["amc"] = err.Error()
		} else {
			filter.AMCID = amcParam
		}
	}

	if hideZeroParam != "" {
		hide, err := strconv.ParseBool(strings.ToLower(hideZeroParam))
		if err != nil {
			errs["hide_zero"] = fmt.Sprintf("invalid boolean: %s", hideZeroParam)
		} else {
			filter.HideZeroUnits = hide
		}
	}

	if len(errs) > 0 {
		return valuation.Filter{}, &validation.Error{Fields: errs}
	}
	return filter, nil
}
