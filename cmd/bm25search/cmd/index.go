package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/metrics"
)

// newBuilder opens the configured blob store and a builder on top of it.
// The caller closes the returned store.
func newBuilder(cfg *config.Config) (*indexer.Builder, store.Store, error) {
	st, err := store.Open(cfg.Index)
	if err != nil {
		return nil, nil, err
	}
	b, err := indexer.NewBuilderFromConfig(cfg.Index, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return b, st, nil
}

func loadDocuments(cfg *config.Config) func(ctx context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		src, err := corpus.FromConfig(cfg.Dataset, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		slog.Info("loading dataset", "source", src.Name())
		docs, err := src.Documents(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", src.Name(), err)
		}
		return docs, nil
	}
}

// indexOpener restores the persisted index or builds it from the dataset,
// reporting the outcome to metrics and analytics when they are set.
type indexOpener struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	collector *analytics.Collector
}

func (o indexOpener) open(ctx context.Context) (*index.Index, error) {
	b, st, err := newBuilder(o.cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	start := time.Now()
	built := false
	load := loadDocuments(o.cfg)
	idx, err := b.Open(ctx, func(ctx context.Context) ([]string, error) {
		built = true
		return load(ctx)
	})
	if err != nil {
		o.record("failed")
		return nil, err
	}

	status, eventType := "restored", analytics.EventIndexRestored
	if built {
		status, eventType = "built", analytics.EventIndexBuilt
	}
	o.record(status)
	stats := idx.Stats()
	if o.metrics != nil {
		o.metrics.SetIndex(stats.Documents, stats.Terms, stats.AvgDL)
	}
	if o.collector != nil {
		o.collector.TrackIndex(analytics.IndexEvent{
			Type:        eventType,
			Fingerprint: idx.Fingerprint(),
			Documents:   stats.Documents,
			Terms:       stats.Terms,
			AvgDL:       stats.AvgDL,
			LatencyMs:   time.Since(start).Milliseconds(),
			Timestamp:   time.Now().UTC(),
		})
	}
	slog.Info("index ready",
		"status", status,
		"location", st.Location(),
		"documents", stats.Documents,
		"terms", stats.Terms,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return idx, nil
}

func (o indexOpener) record(status string) {
	if o.metrics != nil {
		o.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	}
}
