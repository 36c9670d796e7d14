package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/redis"
)

const keyPrefix = "search:"

// Store is the slice of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	CountByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Stats is the cache's view of its own traffic since startup.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hit_rate"`
	Entries int64   `json:"entries"`
}

func (c *QueryCache) get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

func (c *QueryCache) set(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves req from the cache or runs compute once per key, even
// under concurrent identical requests. req must already be resolved so that
// equivalent requests share a key. Store failures degrade to a miss.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.Request,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	key := keyPrefix + req.Key()
	if result, ok := c.get(ctx, key); ok {
		c.hit()
		c.logger.Debug("cache hit", "query", req.Query.Raw(), "key", key)
		result.Query = req.Query.Raw()
		return result, true, nil
	}
	c.miss()

	val, err, _ := c.group.Do(key, func() (any, error) {
		if result, ok := c.get(ctx, key); ok {
			return result, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	// a shared flight may have been started by a differently ordered query
	out := *val.(*executor.SearchResult)
	out.Query = req.Query.Raw()
	return &out, false, nil
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

// InvalidateOnMessage flushes the cache for every message on the
// invalidation topic, which the corpus pipeline publishes to after a rebuild.
func InvalidateOnMessage(c *QueryCache) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if _, err := c.Invalidate(ctx); err != nil {
			return err
		}
		c.logger.Info("cache invalidated by event", "type", msg.Type, "key", string(msg.Key))
		return nil
	}
}

func (c *QueryCache) Stats(ctx context.Context) Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	s.Total = s.Hits + s.Misses
	if s.Total > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Total)
	}
	entries, err := c.store.CountByPattern(ctx, keyPrefix+"*")
	if err != nil {
		c.logger.Warn("cache entry count failed", "error", err)
		entries = -1
	}
	s.Entries = entries
	return s
}
