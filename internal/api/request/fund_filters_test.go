package request

import (
	"errors"
	"testing"

	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

func TestParseFundFilters(t *testing.T) {
	t.Run("empty filter when no parameters provided", func(t *testing.T) {
		filter, err := ParseFundFilters("", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if !filter.IsEmpty() {
			t.Errorf("Expected empty filter, got %+v", filter)
		}
	})

	t.Run("all parameters", func(t *testing.T) {
		filter, err := ParseFundFilters(" Asha ", "550e8400-e29b-41d4-a716-446655440000", "Equity", "true")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if filter.Owner != "Asha" {
			t.Errorf("Expected owner 'Asha', got '%s'", filter.Owner)
		}
		if filter.AMCID != "550e8400-e29b-41d4-a716-446655440000" {
			t.Errorf("Expected AMC ID to be set, got '%s'", filter.AMCID)
		}
		if filter.AssetClass != "Equity" {
			t.Errorf("Expected asset class 'Equity', got '%s'", filter.AssetClass)
		}
		if !filter.HideZeroUnits {
			t.Error("Expected HideZeroUnits to be true")
		}
	})

	t.Run("hide_zero accepts numeric booleans", func(t *testing.T) {
		filter, err := ParseFundFilters("", "", "", "1")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !filter.HideZeroUnits {
			t.Error("Expected HideZeroUnits to be true")
		}
	})

	t.Run("invalid parameters are reported per field", func(t *testing.T) {
		_, err := ParseFundFilters("", "not-a-uuid", "", "maybe")
		if err == nil {
			t.Fatal("Expected error for invalid parameters")
		}

		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected *validation.Error, got %T", err)
		}
		if _, ok := vErr.Fields["amc"]; !ok {
			t.Error("Expected amc field error")
		}
		if _, ok := vErr.Fields["hide_zero"]; !ok {
			t.Error("Expected hide_zero field error")
		}
	})
}
