package service

import (
	"context"
	"time"

	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/version"
)

// healthTimeout bounds the backend probe of a health check.
const healthTimeout = 5 * time.Second

// SessionCounter reports how many NAV update sessions are open.
type SessionCounter interface {
	OpenSessions() int
}

// SystemService handles system-related operations
type SystemService struct {
	backend  HealthChecker
	sessions SessionCounter
	features map[string]bool
}

// NewSystemService creates a new SystemService
func NewSystemService(backend HealthChecker, sessions SessionCounter, features map[string]bool) *SystemService {
	if features == nil {
		features = map[string]bool{}
	}
	return &SystemService{
		backend:  backend,
		sessions: sessions,
		features: features,
	}
}

// CheckHealth probes the ledger backend and reports the service status.
// The returned error is the backend failure, if any; the status is filled either way.
func (s *SystemService) CheckHealth(ctx context.Context) (model.HealthStatus, error) {
	status := model.HealthStatus{
		Status:  "healthy",
		Backend: "connected",
	}
	if s.sessions != nil {
		status.OpenSessions = s.sessions.OpenSessions()
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := s.backend.Health(ctx); err != nil {
		status.Status = "unhealthy"
		status.Backend = "unreachable"
		status.Error = err.Error()
		return status, err
	}
	return status, nil
}

// CheckVersion returns the application version and enabled features.
func (s *SystemService) CheckVersion() model.VersionInfo {
	features := make(map[string]bool, len(s.features))
	for k, v := range s.features {
		features[k] = v
	}
	return model.VersionInfo{
		AppVersion: version.Version,
		Features:   features,
	}
}
