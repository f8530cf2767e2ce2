package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/ledger-mf-companion/internal/api/response"
)

// NewRequestWithURLParams builds a request carrying chi route parameters, so
// handlers can be called directly without a router. Query strings may be
// included in path.
//
//	req := testutil.NewRequestWithURLParams(http.MethodGet,
//	    "/api/ledger/"+ledgerID+"/funds?hide_zero=true",
//	    map[string]string{"uuid": ledgerID})
func NewRequestWithURLParams(method, path string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if len(params) == 0 {
		return req
	}

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// DecodeError decodes an {error, details} body written by response.RespondError.
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error response %q: %v", w.Body.String(), err)
	}
	return body
}
