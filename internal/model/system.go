package model

// VersionInfo contains version and feature information for the application.
type VersionInfo struct {
	AppVersion string          `json:"app_version"`
	Features   map[string]bool `json:"features"`
}

// HealthStatus reports whether the service and its ledger backend are usable.
type HealthStatus struct {
	Status       string `json:"status"`
	Backend      string `json:"backend"`
	OpenSessions int    `json:"open_sessions"`
	Error        string `json:"error,omitempty"`
}
