// Package cache memoizes search results per index fingerprint. Results are
// kept in an in-process LRU and, when configured, in Redis behind a circuit
// breaker so that an unavailable Redis degrades to local caching.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/resilience"
)

const (
	keyPrefix       = "search:"
	defaultLRUSize  = 1024
	remoteOpTimeout = 250 * time.Millisecond
)

// Remote is the shared cache tier. *pkgredis.Client implements it.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

var _ Remote = (*pkgredis.Client)(nil)

type Options struct {
	// Fingerprint identifies the index the cached results were computed on.
	Fingerprint string
	LRUSize     int
	TTL         time.Duration
	// Remote may be nil, in which case only the local tier is used.
	Remote  Remote
	Metrics *metrics.Metrics
}

type QueryCache struct {
	local       *lru.Cache[string, *executor.SearchResult]
	remote      Remote
	breaker     *resilience.CircuitBreaker
	fingerprint string
	ttl         time.Duration
	group       singleflight.Group
	metrics     *metrics.Metrics
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

func New(opts Options) (*QueryCache, error) {
	size := opts.LRUSize
	if size <= 0 {
		size = defaultLRUSize
	}
	local, err := lru.New[string, *executor.SearchResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	return &QueryCache{
		local:       local,
		remote:      opts.Remote,
		breaker:     resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
			OpTimeout:        remoteOpTimeout,
		}),
		fingerprint: opts.Fingerprint,
		ttl:         opts.TTL,
		metrics:     opts.Metrics,
		logger:      slog.Default().With("component", "query-cache"),
	}, nil
}

func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(query, limit)
	if result, ok := c.local.Get(key); ok {
		c.recordHit()
		return result, true
	}
	if c.remote != nil {
		var data []byte
		var found bool
		err := c.breaker.Do(ctx, func(ctx context.Context) error {
			var err error
			data, found, err = c.remote.Get(ctx, key)
			return err
		})
		if err != nil {
			c.logger.Warn("remote cache get failed", "key", key, "error", err)
		} else if found {
			var result executor.SearchResult
			if err := json.Unmarshal(data, &result); err != nil {
				c.logger.Error("cache unmarshal failed", "key", key, "error", err)
			} else {
				c.local.Add(key, &result)
				c.recordHit()
				return &result, true
			}
		}
	}
	c.recordMiss()
	return nil, false
}

func (c *QueryCache) Set(ctx context.Context, query string, limit int, result *executor.SearchResult) {
	key := c.buildKey(query, limit)
	c.local.Add(key, result)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.remote.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("remote cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes it once per key even
// under concurrent requests. hit reports whether the result came from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (result *executor.SearchResult, hit bool, err error) {
	if result, ok := c.Get(ctx, query, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.local.Get(key); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result, locally and in Redis.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.local.Purge()
	if c.remote == nil {
		c.logger.Info("cache invalidated", "tier", "local")
		return nil
	}
	deleted, err := c.remote.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	Total        int64  `json:"total"`
	HitRate      string `json:"hit_rate"`
	LocalEntries int    `json:"local_entries"`
	Remote       string `json:"remote"`
}

func (c *QueryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	remote := "disabled"
	if c.remote != nil {
		remote = "circuit " + c.breaker.State().String()
	}
	return Stats{
		Hits:         hits,
		Misses:       misses,
		Total:        total,
		HitRate:      fmt.Sprintf("%.1f%%", hitRate),
		LocalEntries: c.local.Len(),
		Remote:       remote,
	}
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", normalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.fingerprint, hash[:16])
}

// normalizeQuery folds case and whitespace only. Term order is kept because
// it fixes the order in which term scores are summed.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
