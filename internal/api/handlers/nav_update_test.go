package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/ledger-mf-companion/internal/api/handlers"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/navupdate"
	"github.com/ndewijer/ledger-mf-companion/internal/service"
	"github.com/ndewijer/ledger-mf-companion/internal/testutil"
)

func ledgerRequest(method, ledgerID, suffix string, extra map[string]string) *http.Request {
	params := map[string]string{"uuid": ledgerID}
	for k, v := range extra {
		params[k] = v
	}
	return testutil.NewRequestWithURLParams(method, "/api/ledger/"+ledgerID+"/nav-update"+suffix, params)
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) navupdate.Snapshot {
	t.Helper()
	var snap navupdate.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	return snap
}

// waitReviewing polls the service until the background fetch has finished.
func waitReviewing(t *testing.T, svc *service.NavUpdateService, ledgerID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, err := svc.View(ledgerID); err == nil && snap.State == navupdate.StateReviewing {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Fetch run did not finish in time")
}

// TestNavUpdateHandler_Workflow tests the nav-update endpoints end to end.
//
// WHY: The UI drives the whole bulk update through these endpoints and
// renders every step from the returned snapshot. Status codes tell it
// whether an action was refused or the backend failed.
func TestNavUpdateHandler_Workflow(t *testing.T) {
	t.Run("open, begin, select and apply", func(t *testing.T) {
		// Setup
		fund := testutil.NewFund().WithSchemeCode("100001").WithUnits("10").WithNav("100").Build()
		backend := testutil.NewMockBackend().WithFunds(fund).WithQuote("100001", "101")
		svc := testutil.NewTestNavUpdateService(t, backend)
		handler := handlers.NewNavUpdateHandler(svc)
		ledgerID := testutil.MakeID()

		// Open
		w := httptest.NewRecorder()
		handler.Open(w, ledgerRequest(http.MethodPost, ledgerID, "", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Open: expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if snap := decodeSnapshot(t, w); snap.State != navupdate.StateIdle || snap.Total != 1 {
			t.Errorf("Open: expected idle session with 1 fund, got %s/%d", snap.State, snap.Total)
		}

		// Begin
		w = httptest.NewRecorder()
		handler.Begin(w, ledgerRequest(http.MethodPost, ledgerID, "/begin", nil))
		if w.Code != http.StatusAccepted {
			t.Fatalf("Begin: expected 202, got %d: %s", w.Code, w.Body.String())
		}
		waitReviewing(t, svc, ledgerID)

		// View
		w = httptest.NewRecorder()
		handler.View(w, ledgerRequest(http.MethodGet, ledgerID, "", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("View: expected 200, got %d", w.Code)
		}
		if snap := decodeSnapshot(t, w); snap.UpdatesFound != 1 {
			t.Errorf("View: expected 1 update found, got %d", snap.UpdatesFound)
		}

		// Toggle
		w = httptest.NewRecorder()
		handler.Toggle(w, ledgerRequest(http.MethodPost, ledgerID, "/select/"+fund.ID, map[string]string{"fundId": fund.ID}))
		if w.Code != http.StatusOK {
			t.Fatalf("Toggle: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if snap := decodeSnapshot(t, w); !snap.CanApply {
			t.Error("Toggle: expected apply to be possible")
		}

		// Apply
		w = httptest.NewRecorder()
		handler.Apply(w, ledgerRequest(http.MethodPost, ledgerID, "/apply", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Apply: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var summary model.ApplySummary
		if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
			t.Fatalf("Failed to decode summary: %v", err)
		}
		if len(summary.UpdatedFundIDs) != 1 || summary.UpdatedFundIDs[0] != fund.ID {
			t.Errorf("Apply: expected fund %s to be updated, got %v", fund.ID, summary.UpdatedFundIDs)
		}

		// The session is gone after a successful apply.
		w = httptest.NewRecorder()
		handler.View(w, ledgerRequest(http.MethodGet, ledgerID, "", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("View after apply: expected 404, got %d", w.Code)
		}
	})

	t.Run("begin with no eligible funds returns 422", func(t *testing.T) {
		backend := testutil.NewMockBackend().WithFunds(testutil.NewFund().WithoutSchemeCode().Build())
		handler := handlers.NewNavUpdateHandler(testutil.NewTestNavUpdateService(t, backend))
		ledgerID := testutil.MakeID()

		w := httptest.NewRecorder()
		handler.Open(w, ledgerRequest(http.MethodPost, ledgerID, "", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Open: expected 201, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		handler.Begin(w, ledgerRequest(http.MethodPost, ledgerID, "/begin", nil))
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Begin: expected 422, got %d", w.Code)
		}
	})

	t.Run("apply with empty selection returns 422", func(t *testing.T) {
		backend := testutil.NewMockBackend().
			WithFunds(testutil.NewFund().WithSchemeCode("100001").Build()).
			WithQuote("100001", "1")
		svc := testutil.NewTestNavUpdateService(t, backend)
		handler := handlers.NewNavUpdateHandler(svc)
		ledgerID := testutil.MakeID()

		handler.Open(httptest.NewRecorder(), ledgerRequest(http.MethodPost, ledgerID, "", nil))
		handler.Begin(httptest.NewRecorder(), ledgerRequest(http.MethodPost, ledgerID, "/begin", nil))
		waitReviewing(t, svc, ledgerID)

		w := httptest.NewRecorder()
		handler.Apply(w, ledgerRequest(http.MethodPost, ledgerID, "/apply", nil))

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Apply: expected 422, got %d", w.Code)
		}
		if backend.ApplyCount() != 0 {
			t.Errorf("Expected no bulk update, got %d", backend.ApplyCount())
		}
	})

	t.Run("toggling a failed fund returns 422", func(t *testing.T) {
		fund := testutil.NewFund().WithSchemeCode("999999").Build()
		backend := testutil.NewMockBackend().WithFunds(fund)
		svc := testutil.NewTestNavUpdateService(t, backend)
		handler := handlers.NewNavUpdateHandler(svc)
		ledgerID := testutil.MakeID()

		handler.Open(httptest.NewRecorder(), ledgerRequest(http.MethodPost, ledgerID, "", nil))
		handler.Begin(httptest.NewRecorder(), ledgerRequest(http.MethodPost, ledgerID, "/begin", nil))
		waitReviewing(t, svc, ledgerID)

		w := httptest.NewRecorder()
		handler.Toggle(w, ledgerRequest(http.MethodPost, ledgerID, "/select/"+fund.ID, map[string]string{"fundId": fund.ID}))

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Toggle: expected 422, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("select-all, deselect-all and close", func(t *testing.T) {
		backend := testutil.NewMockBackend().
			WithFunds(
				testutil.NewFund().WithSchemeCode("100001").WithNav("10").Build(),
				testutil.NewFund().WithSchemeCode("100002").WithNav("10").Build(),
			).
			WithQuote("100001", "11").
			WithQuote("100002", "12")
		svc := testutil.NewTestNavUpdateService(t, backend)
		handler := handlers.NewNavUpdateHandler(svc)
		ledgerID := testutil.MakeID()

		handler.Open(httptest.NewRecorder(), ledgerRequest(http.MethodPost, ledgerID, "", nil))
		handler.Begin(httptest.NewRecorder(), ledgerRequest(http.MethodPost, ledgerID, "/begin", nil))
		waitReviewing(t, svc, ledgerID)

		w := httptest.NewRecorder()
		handler.SelectAll(w, ledgerRequest(http.MethodPost, ledgerID, "/select-all", nil))
		if snap := decodeSnapshot(t, w); len(snap.Selected) != 2 {
			t.Errorf("SelectAll: expected 2 selected, got %d", len(snap.Selected))
		}

		w = httptest.NewRecorder()
		handler.DeselectAll(w, ledgerRequest(http.MethodPost, ledgerID, "/deselect-all", nil))
		if snap := decodeSnapshot(t, w); len(snap.Selected) != 0 || snap.CanApply {
			t.Errorf("DeselectAll: expected empty selection, got %d", len(snap.Selected))
		}

		w = httptest.NewRecorder()
		handler.Close(w, ledgerRequest(http.MethodDelete, ledgerID, "", nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("Close: expected 204, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		handler.Close(w, ledgerRequest(http.MethodDelete, ledgerID, "", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Second close: expected 404, got %d", w.Code)
		}
	})

	t.Run("stop without session returns 404", func(t *testing.T) {
		handler := handlers.NewNavUpdateHandler(testutil.NewTestNavUpdateService(t, testutil.NewMockBackend()))
		ledgerID := testutil.MakeID()

		w := httptest.NewRecorder()
		handler.Stop(w, ledgerRequest(http.MethodPost, ledgerID, "/stop", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Stop: expected 404, got %d", w.Code)
		}
	})
}

// TestNavUpdateHandler_Quote tests the GET /api/nav/{schemeCode} endpoint.
func TestNavUpdateHandler_Quote(t *testing.T) {
	t.Run("returns the quote", func(t *testing.T) {
		backend := testutil.NewMockBackend().WithQuote("120503", "45.67")
		handler := handlers.NewNavUpdateHandler(testutil.NewTestNavUpdateService(t, backend))

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/nav/120503", map[string]string{"schemeCode": "120503"})
		w := httptest.NewRecorder()
		handler.Quote(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var res model.NavFetchResult
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if res.NavValue.Decimal.String() != "45.67" {
			t.Errorf("Expected 45.67, got %s", res.NavValue.Decimal)
		}
	})

	t.Run("returns 502 for unknown scheme", func(t *testing.T) {
		handler := handlers.NewNavUpdateHandler(testutil.NewTestNavUpdateService(t, testutil.NewMockBackend()))

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/nav/000000", map[string]string{"schemeCode": "000000"})
		w := httptest.NewRecorder()
		handler.Quote(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", w.Code)
		}
	})

	t.Run("returns 400 for malformed scheme code", func(t *testing.T) {
		handler := handlers.NewNavUpdateHandler(testutil.NewTestNavUpdateService(t, testutil.NewMockBackend()))

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/nav/x", map[string]string{"schemeCode": "a b"})
		w := httptest.NewRecorder()
		handler.Quote(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
