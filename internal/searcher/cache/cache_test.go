package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/metrics"
)

type memRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
	gets int
}

func newMemRemote() *memRemote {
	return &memRemote{data: make(map[string][]byte)}
}

func (m *memRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fail {
		return nil, false, errors.New("connection refused")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memRemote) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("connection refused")
	}
	m.data[key] = value
	return nil
}

func (m *memRemote) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func result(query string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     query,
		Terms:     []string{query},
		TotalHits: 1,
		Results:   []executor.Hit{{DocID: 3, Score: 1.25, Snippet: "a " + query}},
		TermStats: map[string]int{query: 1},
	}
}

func newCache(t *testing.T, opts Options) *QueryCache {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestLocalOnly(t *testing.T) {
	m := metrics.New()
	c := newCache(t, Options{Fingerprint: "f1", LRUSize: 8, Metrics: m})
	ctx := context.Background()

	_, ok := c.Get(ctx, "cat", 5)
	assert.False(t, ok)
	c.Set(ctx, "cat", 5, result("cat"))

	got, ok := c.Get(ctx, "  CAT ", 5)
	require.True(t, ok)
	assert.Equal(t, result("cat"), got)

	_, ok = c.Get(ctx, "cat", 10)
	assert.False(t, ok, "limit is part of the key")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, "disabled", stats.Remote)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestKeysDependOnFingerprintAndTermOrder(t *testing.T) {
	a := newCache(t, Options{Fingerprint: "a"})
	b := newCache(t, Options{Fingerprint: "b"})

	assert.NotEqual(t, a.buildKey("cat", 5), b.buildKey("cat", 5))
	assert.NotEqual(t, a.buildKey("cat dog", 5), a.buildKey("dog cat", 5))
	assert.Equal(t, a.buildKey("Cat  Dog", 5), a.buildKey("cat dog", 5))
	assert.True(t, strings.HasPrefix(a.buildKey("cat", 5), "search:a:"))
}

func TestRemoteTierSharedAcrossInstances(t *testing.T) {
	remote := newMemRemote()
	ctx := context.Background()
	writer := newCache(t, Options{Fingerprint: "f", Remote: remote, TTL: time.Minute})
	writer.Set(ctx, "storm", 5, result("storm"))

	reader := newCache(t, Options{Fingerprint: "f", Remote: remote})
	got, ok := reader.Get(ctx, "storm", 5)
	require.True(t, ok)
	assert.Equal(t, result("storm"), got)

	// second read is served from the local tier
	gets := remote.gets
	_, ok = reader.Get(ctx, "storm", 5)
	assert.True(t, ok)
	assert.Equal(t, gets, remote.gets)
}

func TestRemoteFailureDegradesToLocal(t *testing.T) {
	remote := newMemRemote()
	remote.fail = true
	c := newCache(t, Options{Fingerprint: "f", Remote: remote})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, ok := c.Get(ctx, "nothing", 5)
		assert.False(t, ok)
	}
	assert.Equal(t, "circuit open", c.Stats().Remote)
	// the breaker stops calling the remote once open
	assert.Equal(t, 3, remote.gets)

	c.Set(ctx, "cat", 5, result("cat"))
	_, ok := c.Get(ctx, "cat", 5)
	assert.True(t, ok)
}

func TestGetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c := newCache(t, Options{Fingerprint: "f"})
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), "rain", 5, func() (*executor.SearchResult, error) {
				calls.Add(1)
				<-release
				return result("rain"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "rain", res.Query)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	_, hit, err := c.GetOrCompute(context.Background(), "rain", 5, func() (*executor.SearchResult, error) {
		t.Fatal("must be served from cache")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := newCache(t, Options{Fingerprint: "f"})
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "x", 5, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get(context.Background(), "x", 5)
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	remote := newMemRemote()
	c := newCache(t, Options{Fingerprint: "f", Remote: remote})
	ctx := context.Background()
	c.Set(ctx, "cat", 5, result("cat"))
	c.Set(ctx, "dog", 5, result("dog"))
	remote.data["unrelated"] = []byte("keep")

	require.NoError(t, c.Invalidate(ctx))
	_, ok := c.Get(ctx, "cat", 5)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().LocalEntries)
	assert.Len(t, remote.data, 1)
}
