package benchmark

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/ranker"
)

var benchQueries = map[string]string{
	"single": "hurricane",
	"pair":   "storm coast",
	"long":   "federal reserve interest rates inflation investors markets",
	"miss":   "volcano eruption",
}

// BenchmarkRank compares the full scan with the postings-driven strategy.
func BenchmarkRank(b *testing.B) {
	for _, n := range corpusSizes {
		idx := buildIndex(b, n)
		for _, strategy := range []ranker.Strategy{ranker.StrategyScan, ranker.StrategyPostings} {
			engine := ranker.New(idx, ranker.WithStrategy(strategy))
			for name, q := range benchQueries {
				b.Run(sizeName(n)+"/"+string(strategy)+"/"+name, func(b *testing.B) {
					b.ReportAllocs()
					for i := 0; i < b.N; i++ {
						if _, err := engine.Search(q); err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		}
	}
}

func BenchmarkRankTopK(b *testing.B) {
	engine := ranker.New(buildIndex(b, 10000))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := engine.SearchTop("storm coast", 10); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRankParallel(b *testing.B) {
	engine := ranker.New(buildIndex(b, 1000), ranker.WithStrategy(ranker.StrategyPostings))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := engine.Search("election results"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkExecuteCached measures the local cache tier in front of the
// executor.
func BenchmarkExecuteCached(b *testing.B) {
	exec := executor.New(ranker.New(buildIndex(b, 1000)))
	qc, err := cache.New(cache.Options{Fingerprint: exec.Fingerprint(), LRUSize: 128})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	compute := func() (*executor.SearchResult, error) {
		return exec.Execute(ctx, "storm coast", 5)
	}

	b.Run("uncached", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := compute(); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("cached", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, _, err := qc.GetOrCompute(ctx, "storm coast", 5, compute); err != nil {
				b.Fatal(err)
			}
		}
	})
}
