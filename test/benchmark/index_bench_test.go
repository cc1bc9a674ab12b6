package benchmark

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
)

// BenchmarkBuild measures normalization plus postings construction.
func BenchmarkBuild(b *testing.B) {
	for _, n := range corpusSizes {
		docs := syntheticCorpus(n)
		normalizer := newNormalizer(b)
		b.Run(sizeName(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := indexer.NewBuilder(normalizer, nil).Build(docs); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSegmentEncode(b *testing.B) {
	for _, n := range corpusSizes {
		snap := buildIndex(b, n).Snapshot()
		b.Run(sizeName(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				blob, err := segment.Encode(snap)
				if err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(len(blob)))
			}
		})
	}
}

func BenchmarkSegmentDecode(b *testing.B) {
	for _, n := range corpusSizes {
		blob, err := segment.Encode(buildIndex(b, n).Snapshot())
		if err != nil {
			b.Fatal(err)
		}
		b.Run(sizeName(n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(blob)))
			for i := 0; i < b.N; i++ {
				if _, err := segment.Decode(blob); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPersistRestore measures a full round trip through each backend.
func BenchmarkPersistRestore(b *testing.B) {
	docs := syntheticCorpus(1000)
	ctx := context.Background()
	for _, backend := range []string{"file", "bolt"} {
		b.Run(backend, func(b *testing.B) {
			st, err := store.Open(config.IndexConfig{Path: filepath.Join(b.TempDir(), "ir.idx"), Backend: backend})
			if err != nil {
				b.Fatal(err)
			}
			defer st.Close()

			builder := indexer.NewBuilder(newNormalizer(b), st)
			if _, err := builder.Build(docs); err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := builder.Persist(ctx); err != nil {
					b.Fatal(err)
				}
				if _, err := builder.Restore(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
