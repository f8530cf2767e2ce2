package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/ledger-mf-companion/internal/service"
	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

// NavUpdateHandler exposes the bulk NAV update workflow of a ledger.
// Every action answers with the session snapshot so the UI can redraw
// the comparison table from a single response.
type NavUpdateHandler struct {
	navService *service.NavUpdateService
}

// NewNavUpdateHandler creates a new NavUpdateHandler.
func NewNavUpdateHandler(navService *service.NavUpdateService) *NavUpdateHandler {
	return &NavUpdateHandler{
		navService: navService,
	}
}

// Open starts a new session from the ledger's current funds.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update
// Response: 201 Created with navupdate.Snapshot
// Error: 409 if the ledger's session is fetching or applying
func (h *NavUpdateHandler) Open(w http.ResponseWriter, r *http.Request) {
	snap, err := h.navService.Open(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to open nav update", err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// View returns the session snapshot, used to poll fetch progress.
//
// Endpoint: GET /api/ledger/{uuid}/nav-update
func (h *NavUpdateHandler) View(w http.ResponseWriter, r *http.Request) {
	snap, err := h.navService.View(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to retrieve nav update", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Begin starts fetching NAVs in the background.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update/begin
// Response: 202 Accepted with navupdate.Snapshot
// Error: 422 if no fund is eligible, 409 if a run is already in flight
func (h *NavUpdateHandler) Begin(w http.ResponseWriter, r *http.Request) {
	snap, err := h.navService.Begin(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to start nav update", err)
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

// Stop asks the running fetch to end after the fund in flight.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update/stop
func (h *NavUpdateHandler) Stop(w http.ResponseWriter, r *http.Request) {
	snap, err := h.navService.Stop(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to stop nav update", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Toggle flips the selection of one fund.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update/select/{fundId}
// Error: 422 if the fund's row is not actionable
func (h *NavUpdateHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "fundId")
	if err := validation.ValidateUUID(fundID); err != nil {
		respondServiceError(w, "invalid fund ID", err)
		return
	}

	snap, err := h.navService.Toggle(chi.URLParam(r, "uuid"), fundID)
	if err != nil {
		respondServiceError(w, "failed to toggle selection", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// SelectAll selects every actionable fund.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update/select-all
func (h *NavUpdateHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	snap, err := h.navService.SelectAll(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to select funds", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// DeselectAll clears the selection.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update/deselect-all
func (h *NavUpdateHandler) DeselectAll(w http.ResponseWriter, r *http.Request) {
	snap, err := h.navService.DeselectAll(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to deselect funds", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Apply submits the selected NAVs in one bulk update and closes the session.
//
// Endpoint: POST /api/ledger/{uuid}/nav-update/apply
// Response: 200 OK with model.ApplySummary
// Error: 422 on an empty selection, 502 if the backend rejects the update
// (the session stays open with its selection so the user can retry)
func (h *NavUpdateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	summary, err := h.navService.Apply(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "failed to apply nav updates", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Close discards the session, stopping any running fetch.
//
// Endpoint: DELETE /api/ledger/{uuid}/nav-update
// Response: 204 No Content
func (h *NavUpdateHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.navService.Close(chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, "failed to close nav update", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote fetches one live NAV by scheme code, outside any session.
//
// Endpoint: GET /api/nav/{schemeCode}
// Response: 200 OK with model.NavFetchResult
// Error: 400 for a malformed scheme code, 502 if the provider has no quote
func (h *NavUpdateHandler) Quote(w http.ResponseWriter, r *http.Request) {
	result, err := h.navService.Quote(r.Context(), chi.URLParam(r, "schemeCode"))
	if err != nil {
		respondServiceError(w, "failed to fetch nav", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
