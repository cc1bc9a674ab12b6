package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/redis"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP",
		Long: `Open the index and serve it over HTTP:

  GET  /api/v1/search?q=<text>&limit=<n>
  GET  /api/v1/documents/{id}
  GET  /api/v1/index/stats
  GET  /api/v1/cache/stats
  POST /api/v1/cache/invalidate
  GET  /api/v1/analytics
  GET  /health/live, /health/ready

Prometheus metrics are served on the metrics port when enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g.cfg)
		},
	}
}

// service is the wired query service. close releases its dependencies in
// reverse order of acquisition.
type service struct {
	handler http.Handler
	metrics *metrics.Metrics
	closers []func()
}

func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func newService(ctx context.Context, cfg *config.Config) (_ *service, err error) {
	svc := &service{metrics: metrics.New()}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()

	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		svc.closers = append(svc.closers, func() { producer.Close() })
		publisher = producer
		slog.Info("publishing search analytics", "topic", cfg.Kafka.Topics.SearchEvents, "brokers", cfg.Kafka.Brokers)
	}
	collector := analytics.NewCollector(publisher, analytics.NewAggregator(), cfg.Analytics.BufferSize)
	collector.Start(ctx)
	svc.closers = append(svc.closers, collector.Close)

	idx, err := indexOpener{cfg: cfg, metrics: svc.metrics, collector: collector}.open(ctx)
	if err != nil {
		return nil, err
	}
	strategy, err := ranker.ParseStrategy(cfg.Search.Strategy)
	if err != nil {
		return nil, err
	}
	exec := executor.New(ranker.New(idx,
		ranker.WithParams(cfg.Search.K1, cfg.Search.B),
		ranker.WithStrategy(strategy),
	))

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		stats := exec.Stats()
		if stats.Documents == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no documents"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", stats.Documents)}
	})

	cacheOpts := cache.Options{
		Fingerprint: exec.Fingerprint(),
		LRUSize:     cfg.Search.LRUSize,
		TTL:         cfg.Redis.CacheTTL,
		Metrics:     svc.metrics,
	}
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, caching locally only", "error", err)
		} else {
			svc.closers = append(svc.closers, func() { client.Close() })
			cacheOpts.Remote = client
			checker.Register("redis", health.PingCheck(client.Ping, true))
		}
	}
	queryCache, err := cache.New(cacheOpts)
	if err != nil {
		return nil, err
	}

	h := handler.New(exec, handler.Options{
		Cache:        queryCache,
		Collector:    collector,
		Metrics:      svc.metrics,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		go limiter.Sweep(ctx)
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.Metrics(svc.metrics)(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)
	svc.handler = chain
	return svc, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	servers := []*http.Server{{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      svc.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}}
	if cfg.Metrics.Enabled {
		servers = append(servers, metrics.NewServer(cfg.Metrics.Port, svc.metrics))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			slog.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown error", "addr", srv.Addr, "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("search service stopped")
	return nil
}
