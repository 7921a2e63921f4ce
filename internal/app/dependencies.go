package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/auth"
	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/parceltrack/internal/health"
	"github.com/vladislavdragonenkov/parceltrack/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/parceltrack/internal/metrics"
	"github.com/vladislavdragonenkov/parceltrack/internal/service/cleanup"
	"github.com/vladislavdragonenkov/parceltrack/internal/service/orders"
	"github.com/vladislavdragonenkov/parceltrack/internal/service/outbox"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/blob"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/memory"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/postgres"
	httptransport "github.com/vladislavdragonenkov/parceltrack/internal/transport/http"
	"github.com/vladislavdragonenkov/parceltrack/internal/version"
)

// runtimeDependencies содержит всё, что нужно Run для запуска серверов.
type runtimeDependencies struct {
	orderRepo  domain.OrderRepository
	outboxRepo domain.OutboxRepository
	userRepo   domain.UserRepository
	sessions   auth.SessionStore
	blobs      domain.BlobStore
	images     *blob.MemoryStore

	orders *orders.Service
	auth   *auth.Service

	producer       *kafka.Producer
	outboxWorker   *outbox.Worker
	sessionCleanup *cleanup.Worker

	checkers map[string]healthcheck.Checker
	closers  []func() error
}

// closeFn освобождает ресурсы в порядке, обратном созданию.
func (d *runtimeDependencies) closeFn() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// initRuntimeDependencies собирает хранилища, сервисы и outbox worker по конфигурации.
// При ошибке уже созданные ресурсы закрываются.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry, registerer prometheus.Registerer) (_ *runtimeDependencies, err error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	deps := &runtimeDependencies{checkers: make(map[string]healthcheck.Checker)}
	defer func() {
		if err != nil {
			if closeErr := deps.closeFn(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to release partially initialized dependencies")
			}
		}
	}()

	if err = initStorage(ctx, cfg, logger, deps); err != nil {
		return nil, err
	}
	if err = initSessions(cfg, logger, registerer, deps); err != nil {
		return nil, err
	}
	if err = initBlobs(ctx, cfg, logger, deps); err != nil {
		return nil, err
	}

	orderOpts := []orders.Option{
		orders.WithLogger(logger.WithField("component", "orders")),
		orders.WithMetrics(metrics.NewTrackingMetricsWithRegisterer(registerer)),
		orders.WithShareSettings(cfg.Share.PublicOrigin, cfg.Share.Brand),
	}

	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		producer, perr := kafka.NewProducer(brokers, version.ClientID(),
			kafka.WithProducerLogger(logger.WithField("component", "kafka-producer")))
		if perr != nil {
			return nil, fmt.Errorf("create kafka producer: %w", perr)
		}
		deps.producer = producer
		deps.closers = append(deps.closers, producer.Close)

		deps.outboxWorker = outbox.NewWorker(
			deps.outboxRepo,
			kafka.NewOutboxPublisher(producer, cfg.Kafka.Topic),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.Kafka.DLQTopic)),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithMetrics(metrics.NewOutboxMetricsWithRegisterer(registerer)),
			outbox.WithPollInterval(cfg.Outbox.PollInterval),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
			outbox.WithRetryBaseDelay(cfg.Outbox.RetryDelay),
		)
		orderOpts = append(orderOpts, orders.WithOutbox(deps.outboxRepo))
		logger.WithField("brokers", brokers).Info("kafka producer initialized")
	} else {
		logger.Info("kafka brokers are not configured, order events are not published")
	}

	deps.orders = orders.NewService(deps.orderRepo, auth.ContextIdentity{}, deps.blobs, orderOpts...)
	deps.auth = auth.NewService(deps.userRepo, deps.sessions, logger.WithField("component", "auth"))

	return deps, nil
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry, deps *runtimeDependencies) error {
	switch cfg.Storage.Driver {
	case StorageDriverMemory, "":
		deps.orderRepo = memory.NewOrderRepository()
		deps.outboxRepo = memory.NewOutboxRepository()
		deps.userRepo = memory.NewUserRepository()
		logger.Info("using in-memory storage")
		return nil
	case StorageDriverPostgres:
		if cfg.Storage.PostgresDSN == "" {
			return errors.New("postgres storage requires PARCELTRACK_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.Storage.PostgresDSN, postgres.PoolOptions{
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		deps.closers = append(deps.closers, store.Close)

		if cfg.Storage.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
		}

		deps.orderRepo = postgres.NewOrderRepository(store)
		deps.outboxRepo = postgres.NewOutboxRepository(store)
		deps.userRepo = postgres.NewUserRepository(store)
		deps.checkers["postgres"] = healthcheck.NewSimpleChecker("postgres", store.Ping)
		logger.Info("using postgres storage")
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func initSessions(cfg Config, logger *log.Entry, registerer prometheus.Registerer, deps *runtimeDependencies) error {
	if cfg.Sessions.RedisURL == "" {
		store := auth.NewMemorySessionStore(cfg.Sessions.TTL)
		deps.sessions = store
		deps.sessionCleanup = cleanup.NewWorker(store,
			cleanup.WithLogger(logger.WithField("component", "session-cleanup-worker")),
			cleanup.WithMetrics(metrics.NewCleanupMetricsWithRegisterer(registerer)),
			cleanup.WithInterval(cfg.Sessions.CleanupInterval),
		)
		return nil
	}

	store, err := auth.NewRedisSessionStore(cfg.Sessions.RedisURL, cfg.Sessions.TTL)
	if err != nil {
		return fmt.Errorf("connect redis sessions: %w", err)
	}
	deps.sessions = store
	deps.closers = append(deps.closers, store.Close)
	deps.checkers["redis"] = healthcheck.DegradedChecker{
		Checker: healthcheck.NewSimpleChecker("redis", store.Ping),
	}
	logger.Info("using redis session store")
	return nil
}

func initBlobs(ctx context.Context, cfg Config, logger *log.Entry, deps *runtimeDependencies) error {
	if cfg.Blob.S3Bucket == "" {
		baseURL := cfg.Blob.PublicBaseURL
		if baseURL == "" {
			baseURL = strings.TrimRight(cfg.Share.PublicOrigin, "/") + httptransport.ImagePath
		}
		deps.images = blob.NewMemoryStore(baseURL)
		deps.blobs = deps.images
		return nil
	}

	s3cfg := blob.S3Config{
		Bucket:        cfg.Blob.S3Bucket,
		Region:        cfg.Blob.S3Region,
		Endpoint:      cfg.Blob.S3Endpoint,
		PublicBaseURL: cfg.Blob.PublicBaseURL,
	}
	client, err := blob.NewS3Client(ctx, s3cfg)
	if err != nil {
		return err
	}
	deps.blobs = blob.NewS3Store(client, s3cfg, logger.WithField("component", "blob-s3"))
	logger.WithField("bucket", cfg.Blob.S3Bucket).Info("using s3 image storage")
	return nil
}
