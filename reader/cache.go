package reader

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vegasq/screener/table"
)

// Cache loads a table from its Source at most once and then serves it
// read-only. The zero value is not usable; use NewCache.
type Cache struct {
	source Source
	logger *slog.Logger

	mu    sync.Mutex // held for the duration of a load
	table atomic.Pointer[table.Table]
}

// NewCache creates a cache for source. A nil logger uses slog.Default().
func NewCache(source Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{source: source, logger: logger}
}

// NewStaticCache returns a cache that already holds t.
func NewStaticCache(t *table.Table) *Cache {
	c := &Cache{logger: slog.Default()}
	c.table.Store(t)
	return c
}

// Get returns the table, loading it on first use. Callers that arrive while
// a load is in progress wait for it and never see a partial table. A failed
// load is not cached.
func (c *Cache) Get(ctx context.Context) (*table.Table, error) {
	if t := c.table.Load(); t != nil {
		return t, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t := c.table.Load(); t != nil {
		return t, nil
	}

	start := time.Now()
	t, err := c.source.Load(ctx)
	if err != nil {
		c.logger.Error("failed to load table", "location", c.source.Location(), "error", err)
		return nil, err
	}

	c.table.Store(t)
	c.logger.Info("loaded table",
		"location", c.source.Location(),
		"rows", t.Len(),
		"columns", len(t.Columns()),
		"duration", time.Since(start))
	return t, nil
}

// Loaded returns the table if it has been loaded.
func (c *Cache) Loaded() (*table.Table, bool) {
	t := c.table.Load()
	return t, t != nil
}
