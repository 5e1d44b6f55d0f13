// Command docsearch-worker runs index maintenance tasks from a Kafka topic
// and serves the admin API used to schedule them.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docsearch/indexing"
	"github.com/kailas-cloud/docsearch/internal/config"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	kafkaq "github.com/kailas-cloud/docsearch/internal/queue/kafka"
	"github.com/kailas-cloud/docsearch/internal/source/postgres"
	chiTransport "github.com/kailas-cloud/docsearch/internal/transport/chi"
	"github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/version"
	"github.com/kailas-cloud/docsearch/platform"
	"github.com/kailas-cloud/docsearch/platform/bleve"
	"github.com/kailas-cloud/docsearch/platform/redis"
	"github.com/kailas-cloud/docsearch/tasks"
)

const serviceName = "docsearch-worker"

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, serviceName, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Worker failed", zap.Error(err))
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting docsearch worker",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("platform_driver", cfg.Platform.Driver),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("kafka_topic", cfg.Kafka.Topic),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, pinger, closeBackend, err := newPlatform(ctx, cfg.Platform, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	metrics.RegisterPlatformMetrics()
	metrics.RegisterTaskMetrics()
	metrics.RegisterHTTPMetrics()
	client := metrics.NewInstrumentedClient(backend, logger)

	reg, err := buildRegistry(cfg.Models)
	if err != nil {
		return fmt.Errorf("register models: %w", err)
	}
	logger.Info("Models registered", zap.Int("count", len(reg.Models())))

	toggle := indexing.NewToggle(cfg.Indexing.IsEnabled())
	healthSvc := health.New().Require("platform", pinger)

	producer := kafkaq.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	defer func() { _ = producer.Close() }()

	opts := []tasks.Option{
		tasks.WithToggle(toggle),
		tasks.WithLogger(logger),
		tasks.WithBatchSizes(cfg.Tasks.DeleteBatchSize, cfg.Tasks.RetrieveBatchSize),
	}
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		opts = append(opts, tasks.WithSource(postgres.New(db, cfg.Postgres.Tables, cfg.Postgres.IDColumn, logger)))
		healthSvc.Optional("postgres", health.PingFunc(db.PingContext))
		logger.Info("Connected to postgres")
	}
	runner := tasks.NewRunner(reg, client, producer, opts...)

	consumer := kafkaq.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, runner, logger)
	defer func() { _ = consumer.Close() }()

	server := chiTransport.NewServer(runner, healthSvc, reg, toggle, logger)
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newPlatform creates the configured search platform, a pinger for health
// checks and a close function.
func newPlatform(
	ctx context.Context,
	cfg config.PlatformConfig,
	logger *zap.Logger,
) (platform.Client, health.Pinger, func(), error) {
	switch cfg.Driver {
	case config.DriverRedis:
		store, err := redis.NewStore(redis.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		}, redis.WithLogger(logger))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Addrs))
		return store, store, store.Close, nil
	case config.DriverBleve:
		store := bleve.New(bleve.WithLogger(logger))
		alive := health.PingFunc(func(context.Context) error { return nil })
		return store, alive, func() { _ = store.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown platform driver %q", cfg.Driver)
}
