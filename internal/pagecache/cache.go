// Package pagecache caches upstream server pages and coalesces concurrent
// requests for the same page.
//
// Entries are keyed by (filterKey, serverPage), where filterKey serializes
// the sort/filter/search parameters of a list query. The core invariant is
// at-most-one outstanding upstream request per key: concurrent callers for
// an identical key all observe the result of the single underlying request.
// Fetched pages are kept for a bounded time and swept by a background
// janitor; failed fetches cache nothing, so the next caller retries.
package pagecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stackbridge/internal/pagination"
	"stackbridge/pkg/logging"
)

const (
	// defaultEntryTTL is how long a fetched server page stays servable.
	defaultEntryTTL = 5 * time.Minute

	// defaultRequestTimeout bounds a single upstream fetch. Without it a
	// hung request would leave every coalesced waiter blocked forever.
	defaultRequestTimeout = 30 * time.Second

	cleanupInterval = time.Minute
)

// FetchFunc loads one server page from the upstream API. It returns the
// page's items and the server-reported total item count.
type FetchFunc[T any] func(ctx context.Context, filterKey string, serverPage int) (items []T, totalCount int, err error)

// Config configures a Cache.
type Config struct {
	// ClientPageSize is the display page granularity. Must divide
	// ServerPageSize evenly.
	ClientPageSize int

	// ServerPageSize is the fixed page size of the upstream API.
	ServerPageSize int

	// EntryTTL bounds how long a cached server page is served. Zero means
	// defaultEntryTTL.
	EntryTTL time.Duration

	// RequestTimeout bounds each upstream fetch. Zero means
	// defaultRequestTimeout.
	RequestTimeout time.Duration
}

// Result is one client page sliced out of a cached server page.
type Result[T any] struct {
	Items            []T
	TotalCount       int
	TotalClientPages int

	// FilterKey and Generation identify the query this result was fetched
	// for. A caller that changes filters mid-flight compares Generation
	// against Cache.Generation(filterKey) and discards stale results
	// instead of rendering them.
	FilterKey  string
	Generation uint64
}

type entryKey struct {
	filterKey  string
	serverPage int
}

type entry[T any] struct {
	items      []T
	totalCount int
	fetchedAt  time.Time
}

// Cache is a deduplicating server-page cache. It is safe for concurrent use.
type Cache[T any] struct {
	clientPageSize int
	serverPageSize int
	entryTTL       time.Duration
	requestTimeout time.Duration
	fetch          FetchFunc[T]

	mu          sync.RWMutex
	entries     map[entryKey]*entry[T]
	generations map[string]uint64

	group       singleflight.Group
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// New validates the page-size ratio and creates a cache. It starts a
// background janitor goroutine; call Stop when done.
func New[T any](cfg Config, fetch FetchFunc[T]) (*Cache[T], error) {
	if err := pagination.ValidateRatio(cfg.ClientPageSize, cfg.ServerPageSize); err != nil {
		return nil, err
	}
	if fetch == nil {
		return nil, fmt.Errorf("pagecache: fetch function is required")
	}

	entryTTL := cfg.EntryTTL
	if entryTTL <= 0 {
		entryTTL = defaultEntryTTL
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	c := &Cache[T]{
		clientPageSize: cfg.ClientPageSize,
		serverPageSize: cfg.ServerPageSize,
		entryTTL:       entryTTL,
		requestTimeout: requestTimeout,
		fetch:          fetch,
		entries:        make(map[entryKey]*entry[T]),
		generations:    make(map[string]uint64),
		stopCleanup:    make(chan struct{}),
	}

	go c.cleanupLoop()

	return c, nil
}

// Fetch returns the client page for (filterKey, clientPage), hitting the
// upstream at most once per (filterKey, serverPage) regardless of how many
// callers ask concurrently.
func (c *Cache[T]) Fetch(ctx context.Context, filterKey string, clientPage int) (*Result[T], error) {
	serverPage, err := pagination.ServerPageFor(clientPage, c.clientPageSize, c.serverPageSize)
	if err != nil {
		return nil, err
	}

	gen := c.Generation(filterKey)
	key := entryKey{filterKey: filterKey, serverPage: serverPage}

	if e := c.lookup(key); e != nil {
		return c.slice(e, filterKey, clientPage, serverPage, gen)
	}

	e, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.slice(e, filterKey, clientPage, serverPage, gen)
}

// load fetches the server page through singleflight so that concurrent
// callers for the same key share one upstream request. The fetch itself is
// detached from any single caller's context: a caller that stops waiting
// does not abort the request, and the response is still cached for reuse.
func (c *Cache[T]) load(ctx context.Context, key entryKey) (*entry[T], error) {
	flightKey := fmt.Sprintf("%s\x00%d", key.filterKey, key.serverPage)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		// Double-check after winning the flight; a previous winner may
		// have populated the entry while we queued.
		if e := c.lookup(key); e != nil {
			return e, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
		defer cancel()

		items, totalCount, err := c.fetch(fetchCtx, key.filterKey, key.serverPage)
		if err != nil {
			// Nothing is cached on failure; the next Fetch retries.
			return nil, err
		}

		e := &entry[T]{items: items, totalCount: totalCount, fetchedAt: time.Now()}
		c.store(key, e)
		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entry[T]), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache[T]) slice(e *entry[T], filterKey string, clientPage, serverPage int, gen uint64) (*Result[T], error) {
	start, end, err := pagination.SliceBounds(clientPage, serverPage, c.clientPageSize, c.serverPageSize)
	if err != nil {
		return nil, err
	}

	// The last server page is short; clip instead of failing.
	if start > len(e.items) {
		start = len(e.items)
	}
	if end > len(e.items) {
		end = len(e.items)
	}

	items := make([]T, end-start)
	copy(items, e.items[start:end])

	return &Result[T]{
		Items:            items,
		TotalCount:       e.totalCount,
		TotalClientPages: pagination.TotalClientPages(e.totalCount, c.clientPageSize),
		FilterKey:        filterKey,
		Generation:       gen,
	}, nil
}

func (c *Cache[T]) lookup(key entryKey) *entry[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Since(e.fetchedAt) > c.entryTTL {
		return nil
	}
	return e
}

func (c *Cache[T]) store(key entryKey, e *entry[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Invalidate drops every cached page for the given filter key and bumps its
// generation, so in-flight results for the old filter are identifiable as
// stale. Used when the sort, filter or search term changes.
func (c *Cache[T]) Invalidate(filterKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.entries {
		if key.filterKey == filterKey {
			delete(c.entries, key)
			count++
		}
	}
	c.generations[filterKey]++

	if count > 0 {
		logging.Debug("PageCache", "Invalidated %d cached pages for filter change", count)
	}
}

// InvalidateAll drops every cached page and bumps every known generation.
// Used after a write that changes list contents for all filters, such as
// posting a new item.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[entryKey]*entry[T])
	for key := range c.generations {
		c.generations[key]++
	}

	if count > 0 {
		logging.Debug("PageCache", "Invalidated all %d cached pages", count)
	}
}

// Generation returns the current generation counter for a filter key.
// It increments on every Invalidate.
func (c *Cache[T]) Generation(filterKey string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[filterKey]
}

// Len returns the number of cached server pages.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop halts the background janitor. Idempotent.
func (c *Cache[T]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

// cleanupLoop periodically evicts expired entries to bound memory.
func (c *Cache[T]) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache[T]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if time.Since(e.fetchedAt) > c.entryTTL {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		logging.Debug("PageCache", "Evicted %d expired pages", count)
	}
}
