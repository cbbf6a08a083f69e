package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/gateway/router"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/consumer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/spool"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	searchhandler "github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	engine, err := indexer.New(
		indexer.WithStopWordsText(cfg.Engine.StopWords),
		indexer.WithMaxResults(cfg.Engine.MaxResults),
		indexer.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	slog.Info("engine created",
		"stop_words", len(engine.StopWords()),
		"max_results", engine.MaxResults(),
	)

	checker := health.NewChecker()
	checker.Register("engine", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", engine.GetDocumentCount()),
		}
	})

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    cfg.Server.ConnectAttempts,
		InitialDelay:   cfg.Server.ConnectBackoff,
		JitterFraction: 0.1,
	}

	var svcOpts []service.Option
	if cfg.Redis.Enabled {
		var redisClient *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", retryCfg, func(ctx context.Context) error {
			var err error
			redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewBreaker("redis", resilience.BreakerConfig{
				FailureThreshold: cfg.Redis.BreakerThreshold,
				ResetTimeout:     cfg.Redis.BreakerReset,
				OnStateChange: func(name string, _, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			backend := cache.Guard(redisClient, breaker)
			svcOpts = append(svcOpts, service.WithCache(cache.New(backend, cfg.Redis.CacheTTL, m)))
			checker.Register("redis", health.Ping(redisClient.Ping, health.StatusDegraded))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	svc, err := service.New(engine, svcOpts...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer svc.Close()

	var docs *postgres.DocumentStore
	if cfg.Postgres.Enabled {
		var db *postgres.Client
		err := resilience.Retry(ctx, "postgres connect", retryCfg, func(ctx context.Context) error {
			var err error
			db, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		checker.Register("postgres", health.Ping(db.Ping, health.StatusDegraded))

		docs = postgres.NewDocumentStore(db, cfg.Postgres.Table)
		if err := docs.EnsureSchema(ctx); err != nil {
			return err
		}
		if _, err := loader.Load(ctx, docs, svc); err != nil {
			return fmt.Errorf("loading documents: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	var ingester ingesthandler.Ingester
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
		defer producer.Close()
		ingester = publisher.New(docs, producer)

		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(svc, m))
		ic := consumer.New(kc)
		g.Go(func() error {
			return ic.Start(ctx)
		})
		slog.Info("kafka ingestion enabled",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topics.DocumentIngest,
		)
	} else {
		ingester = publisher.NewDirect(svc, docs)
	}

	if cfg.Spool.Enabled {
		sp := spool.New(cfg.Spool.Dir, ingester, spool.WithDebounce(cfg.Spool.Debounce))
		g.Go(func() error {
			return sp.Run(ctx)
		})
	}

	var limiter *middleware.Limiter
	if cfg.Server.IngestRatePerMinute > 0 {
		limiter = middleware.NewLimiter(cfg.Server.IngestRatePerMinute, time.Minute)
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router.New(router.Deps{
			Search:        searchhandler.New(svc),
			Ingest:        ingesthandler.New(ingester),
			Health:        checker,
			Metrics:       m,
			Timeout:       cfg.Server.WriteTimeout,
			IngestLimiter: limiter,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		slog.Info("search server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
