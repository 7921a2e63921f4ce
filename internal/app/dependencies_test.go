package app

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/parceltrack/internal/auth"
	healthcheck "github.com/vladislavdragonenkov/parceltrack/internal/health"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/blob"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	deps, err := initRuntimeDependencies(context.Background(), DefaultConfig(),
		log.WithField("test", "memory-storage"), prometheus.NewRegistry())
	require.NoError(t, err)
	defer func() { _ = deps.closeFn() }()

	assert.NotNil(t, deps.orderRepo)
	assert.NotNil(t, deps.outboxRepo)
	assert.NotNil(t, deps.userRepo)
	assert.NotNil(t, deps.orders)
	assert.NotNil(t, deps.auth)
	assert.IsType(t, &auth.MemorySessionStore{}, deps.sessions)
	assert.IsType(t, &blob.MemoryStore{}, deps.blobs)
	assert.Nil(t, deps.producer, "kafka is optional")
	assert.Nil(t, deps.outboxWorker)
	assert.NotNil(t, deps.sessionCleanup)
	assert.Empty(t, deps.checkers)
}

func TestInitRuntimeDependencies_MemoryImagesServedFromOrigin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Share.PublicOrigin = "https://track.example.com/"

	deps, err := initRuntimeDependencies(context.Background(), cfg,
		log.WithField("test", "memory-images"), prometheus.NewRegistry())
	require.NoError(t, err)
	defer func() { _ = deps.closeFn() }()

	require.NotNil(t, deps.images)
	url, err := deps.blobs.Put(context.Background(), "order-1.png", "image/png", []byte("png"), false)
	require.NoError(t, err)
	assert.Equal(t, "https://track.example.com/product-images/order-1.png", url)

	obj, ok := deps.images.Get("order-1.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Driver = StorageDriverPostgres

	_, err := initRuntimeDependencies(context.Background(), cfg,
		log.WithField("test", "postgres-missing-dsn"), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARCELTRACK_POSTGRES_DSN")
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Driver = "sqlite"

	_, err := initRuntimeDependencies(context.Background(), cfg,
		log.WithField("test", "unsupported-driver"), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage driver")
}

func TestInitRuntimeDependencies_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Sessions.RedisURL = "redis://" + mr.Addr()

	deps, err := initRuntimeDependencies(context.Background(), cfg,
		log.WithField("test", "redis-sessions"), prometheus.NewRegistry())
	require.NoError(t, err)
	defer func() { _ = deps.closeFn() }()

	assert.IsType(t, &auth.RedisSessionStore{}, deps.sessions)
	assert.Nil(t, deps.sessionCleanup, "redis expires sessions by itself")
	require.Contains(t, deps.checkers, "redis")
	assert.Equal(t, healthcheck.StatusHealthy, deps.checkers["redis"].Check(context.Background()).Status)

	mr.Close()
	check := deps.checkers["redis"].Check(context.Background())
	assert.Equal(t, healthcheck.StatusDegraded, check.Status, "redis outage must not fail readiness")
}

func TestInitRuntimeDependencies_KafkaUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kafka.Brokers = "127.0.0.1:1"

	_, err := initRuntimeDependencies(context.Background(), cfg,
		log.WithField("test", "kafka-unavailable"), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create kafka producer")
}

func TestInitRuntimeDependencies_PostgresSuccess(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("PARCELTRACK_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("PARCELTRACK_POSTGRES_TEST_DSN is not set")
	}

	cfg := DefaultConfig()
	cfg.Storage.Driver = StorageDriverPostgres
	cfg.Storage.PostgresDSN = dsn

	deps, err := initRuntimeDependencies(context.Background(), cfg,
		log.WithField("test", "postgres-init"), prometheus.NewRegistry())
	if err != nil {
		t.Skipf("postgres is not available for app integration test: %v", err)
	}
	defer func() { _ = deps.closeFn() }()

	require.Contains(t, deps.checkers, "postgres")
	assert.Equal(t, healthcheck.StatusHealthy, deps.checkers["postgres"].Check(context.Background()).Status)
}
