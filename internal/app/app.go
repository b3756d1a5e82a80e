// Package app assembles the dashboard service from configuration. It is shared
// by the HTTP server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"dashboard-service/internal/dashboard/merge"
	"dashboard-service/internal/dashboard/metrics"
	"dashboard-service/internal/dashboard/notify"
	"dashboard-service/internal/dashboard/registry"
	"dashboard-service/internal/dashboard/service"
	"dashboard-service/internal/dashboard/store"
	"dashboard-service/internal/platform/config"
	"dashboard-service/internal/platform/kafka"
	platformmetrics "dashboard-service/internal/platform/metrics"
	"dashboard-service/internal/platform/postgres"
	"dashboard-service/internal/platform/redis"
)

// App holds the wired service and the resources it owns.
type App struct {
	Service    *service.Service
	Dispatcher *notify.Dispatcher
	Registry   *prometheus.Registry
	Store      store.Store

	closers []func()
	checks  []check
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Build opens every configured backend and wires the service. Call Start to
// run the dispatcher and Close to release resources.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Registry: platformmetrics.NewRegistry()}
	if err := a.wire(ctx, cfg, log); err != nil {
		a.release()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New(a.Registry)

	backing, err := a.openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.Store, err = a.decorateStore(ctx, cfg, log, backing, m)
	if err != nil {
		return err
	}

	publisher, err := a.openPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	a.Dispatcher = notify.NewDispatcher(a.Store, publisher,
		notify.WithLogger(log),
		notify.WithMetrics(m),
		notify.WithQueueSize(cfg.Notify.QueueSize),
		notify.WithWorkers(cfg.Notify.Workers),
		notify.WithBatchSize(cfg.Notify.BatchSize),
		notify.WithRetries(cfg.Notify.PublishRetries, cfg.Notify.JobRetries),
	)

	defaults := store.SystemDefault()
	a.Service = service.New(a.Store, merge.New(&defaults),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithWidgetTypes(registry.NewStatic()),
		service.WithNotifier(a.Dispatcher),
		service.WithTracer(otel.Tracer("dashboard-service")),
		service.WithSaveAttempts(cfg.Store.SaveAttempts),
	)
	return nil
}

// Start runs the notification workers until Close.
func (a *App) Start(ctx context.Context) {
	a.Dispatcher.Start(context.WithoutCancel(ctx))
}

// Close drains pending notifications within ctx, then closes backends.
func (a *App) Close(ctx context.Context) error {
	err := a.Dispatcher.Shutdown(ctx)
	a.release()
	return err
}

// Ready pings every configured backend. The in-memory store has nothing to
// check.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	for _, c := range a.checks {
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) release() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStore returns the durable store, or the in-memory store for local
// development when no database is configured.
func (a *App) openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.Postgres.DSN == "" {
		if !cfg.Server.IsDevelopment() {
			return nil, errors.New("DATABASE_URL is required outside development")
		}
		log.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewInMemoryStore(), nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.checks = append(a.checks, check{name: "postgres", fn: db.PingContext})
	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(db); err != nil {
			return nil, err
		}
		logSchemaVersion(db, log)
	}
	return store.NewPostgres(db), nil
}

func logSchemaVersion(db *sql.DB, log *slog.Logger) {
	version, dirty, err := postgres.SchemaVersion(db)
	if err != nil {
		log.Warn("failed to read schema version", "error", err)
		return
	}
	log.Info("database schema ready", "version", version, "dirty", dirty)
}

// decorateStore bounds every call with timeouts and retries, and adds the
// company baseline cache when Redis is configured.
func (a *App) decorateStore(ctx context.Context, cfg config.Config, log *slog.Logger, inner store.Store, m *metrics.Metrics) (store.Store, error) {
	var s store.Store = store.NewRetrying(inner,
		store.WithMaxRetries(cfg.Store.MaxRetries),
		store.WithInitialBackoff(cfg.Store.InitialBackoff),
		store.WithCallTimeout(cfg.Store.CallTimeout),
		store.WithRetryLogger(log),
		store.WithRetryObserver(m.IncrementStoreRetry),
	)

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return s, nil
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.checks = append(a.checks, check{name: "redis", fn: client.Health})
	return store.NewCached(s, client.Client,
		store.WithCacheTTL(cfg.Redis.CacheTTL),
		store.WithCacheLogger(log),
		store.WithCacheObserver(m.ObserveCacheLookup),
	), nil
}

func (a *App) openPublisher(ctx context.Context, cfg config.Kafka, log *slog.Logger) (notify.Publisher, error) {
	producer, err := kafka.NewProducer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if producer == nil {
		log.Info("KAFKA_BROKERS not set, company change notifications are logged only")
		return notify.NewLogPublisher(log), nil
	}
	a.closers = append(a.closers, producer.Close)
	return notify.NewKafkaPublisher(producer, cfg.Topic), nil
}
