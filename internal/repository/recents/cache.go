// Package recents keeps the most-recently selected search results in a
// key-value store.
package recents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/db"
	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/metrics"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 10

// storageKey is appended to the configured key prefix.
const storageKey = "searchRecents"

// store is the consumer interface for the recents cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Cache is a bounded most-recent-first list persisted as one JSON array.
// Store failures are logged and never returned: the in-memory list stays
// authoritative for this process.
type Cache struct {
	store    store
	key      string
	capacity int
	logger   *zap.Logger

	mu     sync.Mutex
	loaded bool
	items  []result.Result
}

// New creates a cache under keyPrefix+"searchRecents".
func New(s store, keyPrefix string, capacity int, logger *zap.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:    s,
		key:      keyPrefix + storageKey,
		capacity: capacity,
		logger:   logger,
	}
}

// Key returns the storage key.
func (c *Cache) Key() string { return c.key }

// Read returns the list, loading it from the store on first use.
func (c *Cache) Read(ctx context.Context) []result.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked(ctx)
	return c.snapshotLocked()
}

// Record moves item to the front, drops older entries with the same id,
// truncates to capacity, persists, and returns the new list.
func (c *Cache) Record(ctx context.Context, item result.Result) []result.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked(ctx)

	next := make([]result.Result, 0, c.capacity)
	next = append(next, item)
	for _, r := range c.items {
		if len(next) == c.capacity {
			break
		}
		if r.ID != item.ID {
			next = append(next, r)
		}
	}
	c.items = next

	data, err := json.Marshal(next)
	if err != nil {
		c.opFailed("record", fmt.Errorf("encode recents: %w", err))
		return c.snapshotLocked()
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		c.opFailed("record", err)
	} else {
		metrics.RecentsOperationsTotal.WithLabelValues("record", "ok").Inc()
	}
	return c.snapshotLocked()
}

// Clear removes the persisted list and empties memory.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.loaded = true
	if err := c.store.Del(ctx, c.key); err != nil {
		c.opFailed("clear", err)
		return
	}
	metrics.RecentsOperationsTotal.WithLabelValues("clear", "ok").Inc()
}

func (c *Cache) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true
	c.items = nil

	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, db.ErrKeyNotFound) {
		metrics.RecentsOperationsTotal.WithLabelValues("load", "empty").Inc()
		return
	}
	if err != nil {
		c.opFailed("load", err)
		return
	}

	var items []result.Result
	if err := json.Unmarshal(data, &items); err != nil {
		metrics.RecentsOperationsTotal.WithLabelValues("load", "corrupt").Inc()
		c.logger.Warn("discarding unreadable recents",
			zap.String("key", c.key),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrDeserializationFailed, err)),
		)
		return
	}
	if len(items) > c.capacity {
		items = items[:c.capacity]
	}
	c.items = items
	metrics.RecentsOperationsTotal.WithLabelValues("load", "ok").Inc()
}

func (c *Cache) snapshotLocked() []result.Result {
	out := make([]result.Result, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cache) opFailed(op string, err error) {
	metrics.RecentsOperationsTotal.WithLabelValues(op, "error").Inc()
	c.logger.Warn("recents store operation failed",
		zap.String("op", op),
		zap.String("key", c.key),
		zap.Error(err),
	)
}
