// Package ledgerapi provides a client for the ledger backend's REST API.
package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client talks to the ledger backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit. A non-positive value disables limiting.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new ledger backend client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  logging.NewSilent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned for any non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// do performs a rate-limited request, JSON-encoding body when non-nil and
// decoding the response into result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", path).Msg("Ledger API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
			Endpoint:   path,
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// errorMessage extracts the backend's "detail" or "error" field when the
// error body is JSON, otherwise returns the raw body.
func errorMessage(raw []byte, status string) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return status
	}
	return msg
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/health", nil)
}

// GetLedger retrieves the ledger's name and currency.
func (c *Client) GetLedger(ctx context.Context, ledgerID string) (model.LedgerContext, error) {
	var ledger model.LedgerContext
	if err := c.get(ctx, "/api/ledgers/"+url.PathEscape(ledgerID), &ledger); err != nil {
		return model.LedgerContext{}, err
	}
	return ledger, nil
}

// ListAMCs retrieves the asset management companies of a ledger.
func (c *Client) ListAMCs(ctx context.Context, ledgerID string) ([]model.AMC, error) {
	amcs := []model.AMC{}
	path := fmt.Sprintf("/api/ledgers/%s/amcs", url.PathEscape(ledgerID))
	if err := c.get(ctx, path, &amcs); err != nil {
		return nil, err
	}
	return amcs, nil
}

// ListFunds retrieves every mutual fund of a ledger.
func (c *Client) ListFunds(ctx context.Context, ledgerID string) ([]model.Fund, error) {
	funds := []model.Fund{}
	path := fmt.Sprintf("/api/ledgers/%s/mutual-funds", url.PathEscape(ledgerID))
	if err := c.get(ctx, path, &funds); err != nil {
		return nil, err
	}
	return funds, nil
}

// ListTransactions retrieves mutual-fund transactions of a ledger.
// When fundID is non-empty only that fund's transactions are returned.
func (c *Client) ListTransactions(ctx context.Context, ledgerID, fundID string) ([]model.MfTransaction, error) {
	txns := []model.MfTransaction{}
	path := fmt.Sprintf("/api/ledgers/%s/mf-transactions", url.PathEscape(ledgerID))
	if fundID != "" {
		path += "?" + url.Values{"mutual_fund_id": {fundID}}.Encode()
	}
	if err := c.get(ctx, path, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// DeleteFund closes (deletes) a fund. The backend rejects funds that still hold units.
func (c *Client) DeleteFund(ctx context.Context, ledgerID, fundID string) error {
	path := fmt.Sprintf("/api/ledgers/%s/mutual-funds/%s", url.PathEscape(ledgerID), url.PathEscape(fundID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// FetchNav retrieves one live NAV quote by scheme code.
//
// A quote the provider reports as unsuccessful is returned as an error
// carrying the provider's message.
func (c *Client) FetchNav(ctx context.Context, schemeCode string) (model.NavFetchResult, error) {
	var result model.NavFetchResult
	path := "/api/mutual-funds/nav/" + url.PathEscape(schemeCode)
	if err := c.get(ctx, path, &result); err != nil {
		return model.NavFetchResult{}, err
	}

	if result.SchemeCode == "" {
		result.SchemeCode = schemeCode
	}
	if !result.Success {
		msg := result.ErrorMessage
		if msg == "" {
			msg = "no quote returned"
		}
		return result, fmt.Errorf("NAV provider error for %s: %s", schemeCode, msg)
	}
	if !result.NavValue.Valid {
		return result, fmt.Errorf("NAV provider returned no value for %s", schemeCode)
	}
	return result, nil
}

// BulkUpdateNavs submits every update in a single request.
func (c *Client) BulkUpdateNavs(ctx context.Context, ledgerID string, updates []model.NavUpdate) (model.BulkNavUpdateResult, error) {
	var result model.BulkNavUpdateResult
	path := fmt.Sprintf("/api/ledgers/%s/mutual-funds/bulk-update-navs", url.PathEscape(ledgerID))
	body := model.BulkNavUpdateRequest{Updates: updates}
	if err := c.do(ctx, http.MethodPut, path, body, &result); err != nil {
		return model.BulkNavUpdateResult{}, err
	}

	c.logger.Info().
		Str("ledger_id", ledgerID).
		Int("requested", len(updates)).
		Int("updated", len(result.UpdatedFunds)).
		Msg("Bulk NAV update accepted")

	return result, nil
}
