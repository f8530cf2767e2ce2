// Package querycache caches backend reads per ledger and invalidates them
// after writes.
package querycache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

const (
	DefaultTTL             = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Cache key formats. Every key starts with the ledger ID so a ledger's
// entries can be dropped together.
const (
	ckLedger           = "%s:ledger"
	ckAMCs             = "%s:amcs"
	ckFunds            = "%s:funds"
	ckTransactions     = "%s:transactions"
	ckFundTransactions = "%s:transactions:%s"
)

// Source is the set of backend operations the cache wraps.
type Source interface {
	GetLedger(ctx context.Context, ledgerID string) (model.LedgerContext, error)
	ListAMCs(ctx context.Context, ledgerID string) ([]model.AMC, error)
	ListFunds(ctx context.Context, ledgerID string) ([]model.Fund, error)
	ListTransactions(ctx context.Context, ledgerID, fundID string) ([]model.MfTransaction, error)
	DeleteFund(ctx context.Context, ledgerID, fundID string) error
	FetchNav(ctx context.Context, schemeCode string) (model.NavFetchResult, error)
	BulkUpdateNavs(ctx context.Context, ledgerID string, updates []model.NavUpdate) (model.BulkNavUpdateResult, error)
}

// Cached serves ledger reads from an in-memory cache and passes NAV fetches
// and bulk updates straight through. Concurrent misses for the same key share
// one backend request.
type Cached struct {
	source Source
	store  *cache.Cache
	group  singleflight.Group
	ttl    time.Duration
	logger *logging.Logger
}

// New wraps source with a cache whose entries live for ttl.
// A non-positive ttl uses DefaultTTL.
func New(source Source, ttl time.Duration, logger *logging.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewSilent()
	}
	return &Cached{
		source: source,
		store:  cache.New(ttl, DefaultCleanupInterval),
		ttl:    ttl,
		logger: logger,
	}
}

// load returns the cached value for key or calls fetch once, however many
// callers are waiting on the same key.
//
// The shared fetch is detached from the caller that started it, so one
// cancelled request does not fail the others waiting on the same key. A
// caller whose own context ends stops waiting and gets its context error.
func load[T any](ctx context.Context, c *Cached, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, found := c.store.Get(key); found {
		return v.(T), nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if v, found := c.store.Get(key); found {
			return v, nil
		}
		c.logger.Debug().Str("key", key).Msg("Cache miss")
		res, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store.Set(key, res, cache.DefaultExpiration)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// GetLedger returns the ledger context, cached.
func (c *Cached) GetLedger(ctx context.Context, ledgerID string) (model.LedgerContext, error) {
	return load(ctx, c, fmt.Sprintf(ckLedger, ledgerID), func(ctx context.Context) (model.LedgerContext, error) {
		return c.source.GetLedger(ctx, ledgerID)
	})
}

// ListAMCs returns the ledger's AMCs, cached.
func (c *Cached) ListAMCs(ctx context.Context, ledgerID string) ([]model.AMC, error) {
	return load(ctx, c, fmt.Sprintf(ckAMCs, ledgerID), func(ctx context.Context) ([]model.AMC, error) {
		return c.source.ListAMCs(ctx, ledgerID)
	})
}

// ListFunds returns the ledger's funds, cached.
func (c *Cached) ListFunds(ctx context.Context, ledgerID string) ([]model.Fund, error) {
	return load(ctx, c, fmt.Sprintf(ckFunds, ledgerID), func(ctx context.Context) ([]model.Fund, error) {
		return c.source.ListFunds(ctx, ledgerID)
	})
}

// ListTransactions returns the ledger's transactions, or one fund's when
// fundID is set, cached.
func (c *Cached) ListTransactions(ctx context.Context, ledgerID, fundID string) ([]model.MfTransaction, error) {
	key := fmt.Sprintf(ckTransactions, ledgerID)
	if fundID != "" {
		key = fmt.Sprintf(ckFundTransactions, ledgerID, fundID)
	}
	return load(ctx, c, key, func(ctx context.Context) ([]model.MfTransaction, error) {
		return c.source.ListTransactions(ctx, ledgerID, fundID)
	})
}

// DeleteFund deletes the fund and drops the ledger's cached funds and transactions.
func (c *Cached) DeleteFund(ctx context.Context, ledgerID, fundID string) error {
	if err := c.source.DeleteFund(ctx, ledgerID, fundID); err != nil {
		return err
	}
	c.InvalidateLedger(ledgerID)
	return nil
}

// FetchNav is never cached; every call reaches the NAV provider.
func (c *Cached) FetchNav(ctx context.Context, schemeCode string) (model.NavFetchResult, error) {
	return c.source.FetchNav(ctx, schemeCode)
}

// BulkUpdateNavs passes the batch to the backend. Callers invalidate the
// ledger once the whole apply has succeeded.
func (c *Cached) BulkUpdateNavs(ctx context.Context, ledgerID string, updates []model.NavUpdate) (model.BulkNavUpdateResult, error) {
	return c.source.BulkUpdateNavs(ctx, ledgerID, updates)
}

// InvalidateLedger drops the cached funds and transactions of a ledger.
// Ledger metadata and AMCs are kept since NAV updates never change them.
func (c *Cached) InvalidateLedger(ledgerID string) {
	funds := fmt.Sprintf(ckFunds, ledgerID)
	txns := fmt.Sprintf(ckTransactions, ledgerID)

	dropped := 0
	for key := range c.store.Items() {
		if key == funds || key == txns || strings.HasPrefix(key, txns+":") {
			c.store.Delete(key)
			dropped++
		}
	}
	c.logger.Debug().Str("ledger_id", ledgerID).Int("dropped", dropped).Msg("Invalidated ledger cache")
}

// Flush drops every cached entry.
func (c *Cached) Flush() {
	c.store.Flush()
}

// Len returns the number of cached entries, including expired ones not yet cleaned up.
func (c *Cached) Len() int {
	return c.store.ItemCount()
}
