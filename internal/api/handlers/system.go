package handlers

import (
	"net/http"

	"github.com/ndewijer/ledger-mf-companion/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// Health reports whether the ledger backend is reachable.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with model.HealthStatus, or 503 when the backend is unreachable
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.systemService.CheckHealth(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Version handles GET requests to retrieve version information and feature availability.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.systemService.CheckVersion())
}
