package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/ledger-mf-companion/internal/api/request"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

// FundHandler handles HTTP requests for fund endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// valuation to the fundService.
type FundHandler struct {
	fundService *service.FundService
}

// NewFundHandler creates a new FundHandler with the provided service dependency.
func NewFundHandler(fundService *service.FundService) *FundHandler {
	return &FundHandler{
		fundService: fundService,
	}
}

// Funds handles GET requests to list a ledger's funds with their P&L figures.
//
// Endpoint: GET /api/ledger/{uuid}/funds
// Query parameters: owner, amc, asset_class, hide_zero (all optional)
// Response: 200 OK with array of model.FundValuation
// Error: 400 for invalid filters, 404 for unknown ledger, 502 if the backend fails
func (h *FundHandler) Funds(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "uuid")

	q := r.URL.Query()
	filter, err := request.ParseFundFilters(q.Get("owner"), q.Get("amc"), q.Get("asset_class"), q.Get("hide_zero"))
	if err != nil {
		respondServiceError(w, "invalid request", err)
		return
	}

	funds, err := h.fundService.ListFundValuations(r.Context(), ledgerID, filter)
	if err != nil {
		respondServiceError(w, "failed to retrieve funds", err)
		return
	}

	respondJSON(w, http.StatusOK, funds)
}

// Portfolio handles GET requests for the ledger's aggregate portfolio summary.
// Accepts the same filters as Funds.
//
// Endpoint: GET /api/ledger/{uuid}/portfolio
// Response: 200 OK with model.PortfolioSummary
func (h *FundHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "uuid")

	q := r.URL.Query()
	filter, err := request.ParseFundFilters(q.Get("owner"), q.Get("amc"), q.Get("asset_class"), q.Get("hide_zero"))
	if err != nil {
		respondServiceError(w, "invalid request", err)
		return
	}

	summary, err := h.fundService.PortfolioSummary(r.Context(), ledgerID, filter)
	if err != nil {
		respondServiceError(w, "failed to retrieve portfolio summary", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// PurchaseCost handles GET requests for a fund's highest and lowest
// purchase NAV and its transaction totals.
//
// Endpoint: GET /api/ledger/{uuid}/funds/{fundId}/purchase-cost
// Response: 200 OK with model.PurchaseCostSummary
// Error: 404 if the fund does not belong to the ledger
func (h *FundHandler) PurchaseCost(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "uuid")
	fundID := chi.URLParam(r, "fundId")

	if err := validation.ValidateUUID(fundID); err != nil {
		respondServiceError(w, "invalid fund ID", err)
		return
	}

	summary, err := h.fundService.PurchaseCosts(r.Context(), ledgerID, fundID)
	if err != nil {
		respondServiceError(w, "failed to retrieve purchase costs", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// CloseFund handles DELETE requests closing a fund with no remaining units.
//
// Endpoint: DELETE /api/ledger/{uuid}/funds/{fundId}
// Response: 204 No Content
// Error: 409 if the fund still holds units
func (h *FundHandler) CloseFund(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "uuid")
	fundID := chi.URLParam(r, "fundId")

	if err := validation.ValidateUUID(fundID); err != nil {
		respondServiceError(w, "invalid fund ID", err)
		return
	}

	if err := h.fundService.CloseFund(r.Context(), ledgerID, fundID); err != nil {
		respondServiceError(w, "failed to close fund", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
