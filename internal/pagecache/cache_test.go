package pagecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackbridge/internal/pagination"
)

// fixtureFetch serves totalItems sequential ints as server pages of
// serverPageSize, counting upstream calls.
func fixtureFetch(totalItems, serverPageSize int, calls *atomic.Int64) FetchFunc[int] {
	return func(ctx context.Context, filterKey string, serverPage int) ([]int, int, error) {
		calls.Add(1)
		start := (serverPage - 1) * serverPageSize
		end := start + serverPageSize
		if end > totalItems {
			end = totalItems
		}
		items := make([]int, 0, serverPageSize)
		for i := start; i < end; i++ {
			items = append(items, i)
		}
		return items, totalItems, nil
	}
}

func newTestCache(t *testing.T, totalItems int, calls *atomic.Int64) *Cache[int] {
	t.Helper()
	c, err := New(Config{ClientPageSize: 5, ServerPageSize: 30}, fixtureFetch(totalItems, 30, calls))
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestNew_RejectsBadRatio(t *testing.T) {
	_, err := New(Config{ClientPageSize: 50, ServerPageSize: 30}, fixtureFetch(10, 30, &atomic.Int64{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, pagination.ErrUnsupportedPageRatio)

	_, err = New[int](Config{ClientPageSize: 5, ServerPageSize: 30}, nil)
	require.Error(t, err)
}

func TestFetch_SlicesClientPage(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	res, err := c.Fetch(context.Background(), "sort=creation", 8)
	require.NoError(t, err)

	// Client page 8 is global items 35..39, local [5,10) of server page 2.
	assert.Equal(t, []int{35, 36, 37, 38, 39}, res.Items)
	assert.Equal(t, 62, res.TotalCount)
	assert.Equal(t, 13, res.TotalClientPages)
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetch_CachedPageServedWithoutUpstreamCall(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	for _, page := range []int{1, 2, 3, 4, 5, 6} {
		_, err := c.Fetch(context.Background(), "k", page)
		require.NoError(t, err)
	}

	// All six client pages live in server page 1.
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetch_EndToEnd62Items(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	var last *Result[int]
	for page := 1; page <= 13; page++ {
		res, err := c.Fetch(context.Background(), "k", page)
		require.NoError(t, err, "client page %d", page)
		last = res

		if page < 13 {
			assert.Len(t, res.Items, 5, "client page %d", page)
		}
	}

	// 62 items at server page size 30 span exactly 3 server pages.
	assert.Equal(t, int64(3), calls.Load())

	// Page 13 holds the 2 remaining items (62 - 12*5).
	assert.Equal(t, []int{60, 61}, last.Items)
	assert.Equal(t, 13, last.TotalClientPages)
}

func TestFetch_PageBeyondTotalIsEmpty(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	res, err := c.Fetch(context.Background(), "k", 15)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 62, res.TotalCount)
}

func TestFetch_DeduplicatesConcurrentRequests(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})

	fetch := func(ctx context.Context, filterKey string, serverPage int) ([]int, int, error) {
		calls.Add(1)
		<-release
		return []int{0, 1, 2, 3, 4}, 5, nil
	}

	c, err := New(Config{ClientPageSize: 5, ServerPageSize: 30}, fetch)
	require.NoError(t, err)
	defer c.Stop()

	const n = 16
	var wg sync.WaitGroup
	results := make([]*Result[int], n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), "k", 1)
		}(i)
	}

	// Let every goroutine join the in-flight request before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []int{0, 1, 2, 3, 4}, results[i].Items)
	}
	assert.Equal(t, int64(1), calls.Load(), "N concurrent fetches must produce exactly 1 upstream request")
}

func TestFetch_FailureIsNotCached(t *testing.T) {
	var calls atomic.Int64
	wantErr := errors.New("boom")

	fetch := func(ctx context.Context, filterKey string, serverPage int) ([]int, int, error) {
		if calls.Add(1) == 1 {
			return nil, 0, wantErr
		}
		return []int{0, 1, 2, 3, 4}, 5, nil
	}

	c, err := New(Config{ClientPageSize: 5, ServerPageSize: 30}, fetch)
	require.NoError(t, err)
	defer c.Stop()

	_, err = c.Fetch(context.Background(), "k", 1)
	require.ErrorIs(t, err, wantErr)

	// The failed fetch cached nothing, so the retry hits upstream again.
	res, err := c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Items)
	assert.Equal(t, int64(2), calls.Load())
}

func TestInvalidate_ForcesRefetchAndBumpsGeneration(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	res, err := c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
	assert.Equal(t, uint64(0), res.Generation)

	c.Invalidate("k")
	assert.Equal(t, uint64(1), c.Generation("k"))

	res, err = c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "invalidated entry must be refetched")
	assert.Equal(t, uint64(1), res.Generation)
}

func TestInvalidate_OtherFiltersUntouched(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	_, err := c.Fetch(context.Background(), "a", 1)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "b", 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), calls.Load())

	c.Invalidate("a")

	_, err = c.Fetch(context.Background(), "b", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "filter b must still be served from cache")
}

func TestInvalidateAll(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	_, err := c.Fetch(context.Background(), "a", 1)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "b", 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), calls.Load())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.Generation("a"))
	assert.Equal(t, uint64(1), c.Generation("b"))

	_, err = c.Fetch(context.Background(), "a", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load(), "every filter must be refetched")
}

func TestGeneration_DetectsStaleResult(t *testing.T) {
	var calls atomic.Int64
	c := newTestCache(t, 62, &calls)

	res, err := c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)

	// Filter changed while the result was in flight.
	c.Invalidate("k")

	assert.NotEqual(t, c.Generation("k"), res.Generation,
		"a result fetched before invalidation must be detectable as stale")
}

func TestFetch_TimeoutFreesWaiters(t *testing.T) {
	fetch := func(ctx context.Context, filterKey string, serverPage int) ([]int, int, error) {
		<-ctx.Done()
		return nil, 0, ctx.Err()
	}

	c, err := New(Config{
		ClientPageSize: 5,
		ServerPageSize: 30,
		RequestTimeout: 30 * time.Millisecond,
	}, fetch)
	require.NoError(t, err)
	defer c.Stop()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.Fetch(context.Background(), "k", 1)
			done <- err
		}()
	}

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.ErrorIs(t, err, context.DeadlineExceeded)
		case <-time.After(2 * time.Second):
			t.Fatal("waiter was not freed after the upstream timeout")
		}
	}
}

func TestFetch_CallerStopsWaitingWithoutAbortingFetch(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})

	fetch := func(ctx context.Context, filterKey string, serverPage int) ([]int, int, error) {
		calls.Add(1)
		<-release
		return []int{0, 1, 2, 3, 4}, 5, nil
	}

	c, err := New(Config{ClientPageSize: 5, ServerPageSize: 30}, fetch)
	require.NoError(t, err)
	defer c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = c.Fetch(ctx, "k", 1)
	require.ErrorIs(t, err, context.Canceled)

	// The underlying request keeps going and its result is cached.
	close(release)
	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)

	res, err := c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Items)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCleanup_EvictsExpiredEntries(t *testing.T) {
	var calls atomic.Int64
	c, err := New(Config{
		ClientPageSize: 5,
		ServerPageSize: 30,
		EntryTTL:       10 * time.Millisecond,
	}, fixtureFetch(62, 30, &calls))
	require.NoError(t, err)
	defer c.Stop()

	_, err = c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	time.Sleep(20 * time.Millisecond)
	c.cleanup()
	assert.Equal(t, 0, c.Len())

	// Expired entries are refetched on demand.
	_, err = c.Fetch(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}
