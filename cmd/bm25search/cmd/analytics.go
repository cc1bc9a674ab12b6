package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/postgres"
)

func newAnalyticsCmd(g *globalOptions) *cobra.Command {
	var snapshots bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Aggregate search events published by serve",
		Long: `Consume the search events topic, aggregate them in memory and serve the
aggregate at GET /api/v1/analytics. With --snapshots the aggregate is also
saved to Postgres periodically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(cmd.Context(), g.cfg, snapshots)
		},
	}

	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Save periodic snapshots to Postgres")
	return cmd
}

func runAnalytics(ctx context.Context, cfg *config.Config, snapshots bool) error {
	if !cfg.Kafka.Enabled {
		return errors.New("analytics requires kafka; set kafka.enabled or BM25_KAFKA_BROKERS")
	}
	agg := analytics.NewAggregator()
	checker := health.NewChecker()

	g, gctx := errgroup.WithContext(ctx)

	if snapshots {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		store := aggregator.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if last, err := store.LatestSnapshot(ctx); err != nil {
			slog.Warn("could not read latest snapshot", "error", err)
		} else if last != nil {
			slog.Info("latest snapshot found", "total_searches", last.TotalSearches)
		}
		checker.Register("postgres", health.PingCheck(db.Ping, true))
		done := store.StartPeriodicSave(gctx, agg, cfg.Analytics.SnapshotInterval)
		defer func() { <-done }()
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleMessage(agg))
	g.Go(func() error {
		return consumer.Start(gctx)
	})

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/analytics", agg)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.RequestID(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr, "topic", cfg.Kafka.Topics.SearchEvents)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
