package querycache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/ledger-mf-companion/internal/logging"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
	"github.com/ndewijer/ledger-mf-companion/internal/querycache"
	"github.com/ndewijer/ledger-mf-companion/internal/testutil"
)

func TestCached_ServesRepeatReadsFromCache(t *testing.T) {
	backend := testutil.NewMockBackend().WithFunds(testutil.NewFund().Build())
	c := querycache.New(backend, 0, logging.NewSilent())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		funds, err := c.ListFunds(ctx, "l1")
		require.NoError(t, err)
		assert.Len(t, funds, 1)
	}
	assert.Equal(t, 1, backend.QueryCount)

	_, err := c.ListFunds(ctx, "l2")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.QueryCount, "ledgers are cached separately")
}

func TestCached_TransactionKeysPerFund(t *testing.T) {
	fundA := testutil.NewFund().Build()
	fundB := testutil.NewFund().Build()
	backend := testutil.NewMockBackend().WithTransactions(
		testutil.NewTransaction(fundA.ID).Build(),
		testutil.NewTransaction(fundB.ID).Build(),
		testutil.NewTransaction(fundB.ID).Build(),
	)
	c := querycache.New(backend, 0, nil)
	ctx := context.Background()

	all, err := c.ListTransactions(ctx, "l1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyB, err := c.ListTransactions(ctx, "l1", fundB.ID)
	require.NoError(t, err)
	assert.Len(t, onlyB, 2)

	_, err = c.ListTransactions(ctx, "l1", fundB.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.QueryCount)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.FundsError = errors.New("backend down")
	c := querycache.New(backend, 0, nil)
	ctx := context.Background()

	_, err := c.ListFunds(ctx, "l1")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	backend.FundsError = nil
	_, err = c.ListFunds(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.QueryCount)
}

func TestCached_InvalidateLedger(t *testing.T) {
	fund := testutil.NewFund().Build()
	backend := testutil.NewMockBackend().
		WithFunds(fund).
		WithTransactions(testutil.NewTransaction(fund.ID).Build())
	c := querycache.New(backend, 0, nil)
	ctx := context.Background()

	_, err := c.GetLedger(ctx, "l1")
	require.NoError(t, err)
	_, err = c.ListFunds(ctx, "l1")
	require.NoError(t, err)
	_, err = c.ListTransactions(ctx, "l1", "")
	require.NoError(t, err)
	_, err = c.ListTransactions(ctx, "l1", fund.ID)
	require.NoError(t, err)
	_, err = c.ListFunds(ctx, "l2")
	require.NoError(t, err)
	require.Equal(t, 5, c.Len())

	c.InvalidateLedger("l1")

	// Ledger metadata and the other ledger survive.
	assert.Equal(t, 2, c.Len())

	before := backend.QueryCount
	_, err = c.GetLedger(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, before, backend.QueryCount)

	_, err = c.ListFunds(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, before+1, backend.QueryCount)
}

func TestCached_DeleteFundInvalidates(t *testing.T) {
	fund := testutil.NewFund().WithUnits("0").Build()
	backend := testutil.NewMockBackend().WithFunds(fund)
	c := querycache.New(backend, 0, nil)
	ctx := context.Background()

	_, err := c.ListFunds(ctx, "l1")
	require.NoError(t, err)

	require.NoError(t, c.DeleteFund(ctx, "l1", fund.ID))
	assert.Equal(t, []string{fund.ID}, backend.Deleted)

	_, err = c.ListFunds(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.QueryCount)
}

func TestCached_NavFetchesAreNeverCached(t *testing.T) {
	backend := testutil.NewMockBackend().WithQuote("120503", "45.67")
	c := querycache.New(backend, 0, nil)

	for i := 0; i < 2; i++ {
		_, err := c.FetchNav(context.Background(), "120503")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, backend.Fetches())
	assert.Equal(t, 0, c.Len())
}

func TestCached_ConcurrentReads(t *testing.T) {
	backend := testutil.NewMockBackend().WithFunds(testutil.NewFund().Build())
	c := querycache.New(backend, 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListFunds(context.Background(), "l1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// After the burst every read is served from the cache.
	before := backend.QueryCount
	_, err := c.ListFunds(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, before, backend.QueryCount)
}

// gatedBackend holds ListFunds until release is closed, honouring the
// context it was called with.
type gatedBackend struct {
	*testutil.MockBackend
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) ListFunds(ctx context.Context, ledgerID string) ([]model.Fund, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
	}
	return g.MockBackend.ListFunds(ctx, ledgerID)
}

func TestCached_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	backend := &gatedBackend{
		MockBackend: testutil.NewMockBackend().WithFunds(testutil.NewFund().Build()),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := querycache.New(backend, 0, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.ListFunds(firstCtx, "l1")
		firstErr <- err
	}()
	<-backend.entered

	type result struct {
		funds []model.Fund
		err   error
	}
	second := make(chan result, 1)
	go func() {
		funds, err := c.ListFunds(context.Background(), "l1")
		second <- result{funds, err}
	}()
	// Let the second caller join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(backend.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.funds, 1)
	assert.Equal(t, 1, backend.QueryCount)
}
