package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/f1metrix/internal/table"
)

// Source reads tables and queries from the results database.
// *store.Store implements it.
type Source interface {
	ReadTable(ctx context.Context, name string) (*table.Table, error)
	ReadQuery(ctx context.Context, query string, args ...any) (*table.Table, error)
}

// Schemas looks up declared table schemas. *schema.Registry implements it.
type Schemas interface {
	Lookup(name string) (table.Schema, bool)
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Failures int64 `json:"failures"`
	Entries  int   `json:"entries"`
}

// Cache is a process-lifetime store of materialized results.
// Safe for concurrent use.
type Cache struct {
	src     Source
	schemas Schemas
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[Key]*table.Table
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithSchemas validates loaded tables against declared schemas.
func WithSchemas(s Schemas) Option {
	return func(c *Cache) { c.schemas = s }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty cache over src.
func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:     src,
		entries: make(map[Key]*table.Table),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the full contents of a table, reading it on first request.
//
// On failure the result is nil and the error is a *DataLoadError; nothing
// is cached, so a later call retries the read.
func (c *Cache) Load(ctx context.Context, name string) (*table.Table, error) {
	return c.load(ctx, TableKey(name), name, "", func(ctx context.Context) (*table.Table, error) {
		t, err := c.src.ReadTable(ctx, name)
		if err != nil {
			return nil, err
		}
		if c.schemas != nil {
			if s, ok := c.schemas.Lookup(name); ok {
				if err := s.Validate(t); err != nil {
					return nil, err
				}
				t = s.Conform(t)
			}
		}
		return table.DeriveDisplayName(t), nil
	})
}

// Query returns the result of a parameterized read query, cached per
// distinct SQL text and argument list.
func (c *Cache) Query(ctx context.Context, req Request) (*table.Table, error) {
	key, err := QueryKey(req)
	if err != nil {
		return nil, &DataLoadError{Code: ErrCodeQueryFailed, Query: req.SQL, Err: err}
	}
	query := strings.TrimSpace(req.SQL)
	return c.load(ctx, key, "", query, func(ctx context.Context) (*table.Table, error) {
		t, err := c.src.ReadQuery(ctx, query, req.Args...)
		if err != nil {
			return nil, err
		}
		return table.DeriveDisplayName(t), nil
	})
}

// load is the shared cache-or-read path.
//
// Concurrent misses on one key share a single read. The shared read runs
// detached from any caller's cancellation; each caller stops waiting when
// its own ctx is done, without failing the others.
func (c *Cache) load(ctx context.Context, key Key, tableName, query string, read func(context.Context) (*table.Table, error)) (*table.Table, error) {
	if t, ok := c.get(key); ok {
		c.hits.Add(1)
		c.logger.DebugContext(ctx, "cache hit", "key", key)
		return t, nil
	}

	readCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(key), func() (any, error) {
		// A concurrent caller may have filled the entry while we waited.
		if t, ok := c.get(key); ok {
			return t, nil
		}
		c.misses.Add(1)
		c.logger.DebugContext(readCtx, "cache miss", "key", key)

		t, err := read(readCtx)
		if err != nil {
			return nil, newLoadError(tableName, query, err)
		}
		c.put(key, t)
		return t, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			c.failures.Add(1)
			c.logger.WarnContext(ctx, "load failed", "key", key, "error", res.Err)
			return nil, res.Err
		}
		return res.Val.(*table.Table), nil
	case <-ctx.Done():
		err := newLoadError(tableName, query, ctx.Err())
		c.failures.Add(1)
		c.logger.WarnContext(ctx, "load abandoned", "key", key, "error", err)
		return nil, err
	}
}

func (c *Cache) get(key Key) (*table.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[key]
	return t, ok
}

func (c *Cache) put(key Key, t *table.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = t
}

// Invalidate drops one entry. Returns false if the key was not cached.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.logger.Debug("cache entry invalidated", "key", key)
	return true
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[Key]*table.Table)
	c.logger.Info("cache cleared", "entries", n)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys in no particular order.
func (c *Cache) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Failures: c.failures.Load(),
		Entries:  c.Len(),
	}
}
