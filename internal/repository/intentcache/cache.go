package intentcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/db"
)

// DefaultSize is the number of classifications kept in memory.
const DefaultSize = 200

// store is the consumer interface for the shared second-level cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Cache memoizes classifier tokens by exact query text. The in-process LRU
// is bounded and evicts the least recently used entry; nothing expires by
// time. An optional shared store is consulted on a local miss and written
// through on every insert.
type Cache struct {
	local      *lru.Cache[string, string]
	store      store
	keyPrefix  string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore enables the shared second-level store.
func WithStore(s store, keyPrefix string) Option {
	return func(c *Cache) {
		c.store = s
		c.keyPrefix = keyPrefix
	}
}

// WithCounter records "hit"/"miss" on a counter vec with label "result".
func WithCounter(cv *prometheus.CounterVec) Option {
	return func(c *Cache) { c.cacheTotal = cv }
}

// New creates a cache holding at most size entries.
func New(size int, logger *zap.Logger, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	local, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c := &Cache{local: local, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Get returns the cached token for query.
func (c *Cache) Get(ctx context.Context, query string) (string, bool) {
	if v, ok := c.local.Get(query); ok {
		c.incCache("hit")
		return v, true
	}

	if v, ok := c.getFromStore(ctx, query); ok {
		c.local.Add(query, v)
		c.incCache("hit")
		return v, true
	}

	c.incCache("miss")
	return "", false
}

// Add stores token for query, evicting the least recently used entry when full.
func (c *Cache) Add(ctx context.Context, query, token string) {
	c.local.Add(query, token)
	c.putToStore(ctx, query, token)
}

// GetOrCompute returns the cached token or calls compute and caches its
// result. Errors from compute are returned and not cached. Concurrent misses
// on the same key each call compute.
func (c *Cache) GetOrCompute(
	ctx context.Context, query string, compute func(ctx context.Context) (string, error),
) (string, error) {
	if v, ok := c.Get(ctx, query); ok {
		return v, nil
	}
	v, err := compute(ctx)
	if err != nil {
		return "", err
	}
	c.Add(ctx, query, v)
	return v, nil
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int { return c.local.Len() }

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) storeKey(query string) string {
	h := sha256.Sum256([]byte(query))
	return c.keyPrefix + "intent:" + hex.EncodeToString(h[:])
}

func (c *Cache) getFromStore(ctx context.Context, query string) (string, bool) {
	if c.store == nil {
		return "", false
	}
	key := c.storeKey(query)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached classification", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *Cache) putToStore(ctx context.Context, query, token string) {
	if c.store == nil {
		return
	}
	key := c.storeKey(query)
	if err := c.store.Set(ctx, key, []byte(token)); err != nil {
		c.logger.Warn("Failed to cache classification", zap.String("key", key), zap.Error(err))
	}
}
