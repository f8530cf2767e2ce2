package testutil

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/querycache"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
)

// NewTestFundService creates a FundService reading from the mock backend.
func NewTestFundService(t *testing.T, backend *MockBackend) *service.FundService {
	t.Helper()

	return service.NewFundService(backend, logging.NewSilent())
}

// NewTestNavUpdateService creates a NavUpdateService over the mock backend
// with an unpaced fetcher. Background runs end when the test finishes.
func NewTestNavUpdateService(t *testing.T, backend *MockBackend) *service.NavUpdateService {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	svc := service.NewNavUpdateService(ctx, backend, nil, service.NavUpdateConfig{}, logging.NewSilent())
	t.Cleanup(func() {
		svc.Shutdown()
		cancel()
	})
	return svc
}

// NewTestCachedNavUpdateService is NewTestNavUpdateService with the mock
// behind a query cache, which is also the session invalidator.
func NewTestCachedNavUpdateService(t *testing.T, backend *MockBackend) (*service.NavUpdateService, *querycache.Cached) {
	t.Helper()

	cached := querycache.New(backend, 0, logging.NewSilent())
	ctx, cancel := context.WithCancel(context.Background())
	svc := service.NewNavUpdateService(ctx, cached, cached, service.NavUpdateConfig{}, logging.NewSilent())
	t.Cleanup(func() {
		svc.Shutdown()
		cancel()
	})
	return svc, cached
}

// NewTestSystemService creates a SystemService probing the mock backend.
func NewTestSystemService(t *testing.T, backend *MockBackend) *service.SystemService {
	t.Helper()

	return service.NewSystemService(backend, nil, map[string]bool{"nav_update": true})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSchemeCode generates a six-digit AMFI-style scheme code for testing.
//
// Example usage:
//
//	code := testutil.MakeSchemeCode()
//	// Returns: "104823"
func MakeSchemeCode() string {
	const digits = "0123456789"
	result := make([]byte, 6)
	result[0] = '1'
	for i := 1; i < len(result); i++ {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = digits[rand.Intn(len(digits))]
	}
	return string(result)
}

// MakeFundName generates a unique fund name for testing.
//
// Example usage:
//
//	name := testutil.MakeFundName("Tech Fund")
//	// Returns: "Tech Fund XYZ789"
func MakeFundName(base string) string {
	if base == "" {
		base = "Fund"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
