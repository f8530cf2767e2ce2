package model

// LedgerContext identifies the active ledger and the currency its amounts are
// denominated in. It is passed explicitly to every valuation and NAV update
// entry point.
type LedgerContext struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}
