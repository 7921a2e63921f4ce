package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса.
// Теги:
// - mapstructure: имя переменной окружения (и ключа в .env)
// - default: значение по умолчанию
type Config struct {
	Environment string `mapstructure:"PARCELTRACK_ENV" default:"development"`
	LogLevel    string `mapstructure:"PARCELTRACK_LOG_LEVEL" default:"info"`
	// LogFormat — text или json.
	LogFormat string `mapstructure:"PARCELTRACK_LOG_FORMAT" default:"text"`

	HTTPAddr       string `mapstructure:"PARCELTRACK_HTTP_ADDR" default:":8080"`
	MetricsAddr    string `mapstructure:"PARCELTRACK_METRICS_ADDR" default:":9090"`
	GRPCHealthAddr string `mapstructure:"PARCELTRACK_GRPC_HEALTH_ADDR" default:":50051"`

	Storage  StorageConfig `mapstructure:",squash"`
	Sessions SessionConfig `mapstructure:",squash"`
	Kafka    KafkaConfig   `mapstructure:",squash"`
	Outbox   OutboxConfig  `mapstructure:",squash"`
	Blob     BlobConfig    `mapstructure:",squash"`
	Share    ShareConfig   `mapstructure:",squash"`
}

// StorageConfig — хранилище заказов.
type StorageConfig struct {
	Driver          string        `mapstructure:"PARCELTRACK_STORAGE_DRIVER" default:"memory"`
	PostgresDSN     string        `mapstructure:"PARCELTRACK_POSTGRES_DSN"`
	AutoMigrate     bool          `mapstructure:"PARCELTRACK_POSTGRES_AUTO_MIGRATE" default:"true"`
	MaxOpenConns    int           `mapstructure:"PARCELTRACK_POSTGRES_MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `mapstructure:"PARCELTRACK_POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
}

// SessionConfig — сессии пользователей. Пустой RedisURL включает in-memory сессии.
type SessionConfig struct {
	RedisURL string        `mapstructure:"PARCELTRACK_REDIS_URL"`
	TTL      time.Duration `mapstructure:"PARCELTRACK_SESSION_TTL" default:"24h"`
	// CleanupInterval — период удаления просроченных in-memory сессий.
	CleanupInterval time.Duration `mapstructure:"PARCELTRACK_SESSION_CLEANUP_INTERVAL" default:"10m"`
}

// KafkaConfig — публикация событий. Без брокеров outbox worker не запускается.
type KafkaConfig struct {
	Brokers  string `mapstructure:"PARCELTRACK_KAFKA_BROKERS"`
	Topic    string `mapstructure:"PARCELTRACK_KAFKA_TOPIC" default:"parceltrack.order.events"`
	DLQTopic string `mapstructure:"PARCELTRACK_KAFKA_DLQ_TOPIC" default:"parceltrack.dlq"`
}

// OutboxConfig — параметры outbox worker.
type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"PARCELTRACK_OUTBOX_POLL_INTERVAL" default:"1s"`
	BatchSize    int           `mapstructure:"PARCELTRACK_OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts  int           `mapstructure:"PARCELTRACK_OUTBOX_MAX_ATTEMPTS" default:"3"`
	RetryDelay   time.Duration `mapstructure:"PARCELTRACK_OUTBOX_RETRY_DELAY" default:"50ms"`
}

// BlobConfig — хранилище изображений товаров. Пустой S3Bucket включает in-memory хранилище.
// Пустой PublicBaseURL: для in-memory — PublicOrigin + /product-images, для S3 — адрес бакета.
type BlobConfig struct {
	S3Bucket      string `mapstructure:"PARCELTRACK_S3_BUCKET"`
	S3Region      string `mapstructure:"PARCELTRACK_S3_REGION" default:"sa-east-1"`
	S3Endpoint    string `mapstructure:"PARCELTRACK_S3_ENDPOINT"`
	PublicBaseURL string `mapstructure:"PARCELTRACK_BLOB_PUBLIC_BASE_URL"`
}

// ShareConfig — ссылки на страницу отслеживания.
type ShareConfig struct {
	PublicOrigin string `mapstructure:"PARCELTRACK_PUBLIC_ORIGIN" default:"http://localhost:8080"`
	Brand        string `mapstructure:"PARCELTRACK_BRAND" default:"ParcelTrack"`
}

// DefaultConfig возвращает конфигурацию только из значений по умолчанию.
func DefaultConfig() Config {
	v := viper.New()
	var cfg Config
	processTags(v, &cfg, false)
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("decode default config: %v", err))
	}
	return cfg
}

// LoadConfig читает .env из каталога path (если он есть) и переменные окружения.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName(".env")
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	processTags(v, &cfg, true)
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("PARCELTRACK_POSTGRES_DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.Storage.Driver))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level: %w", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}

	return errors.Join(errs...)
}

// KafkaBrokers возвращает список брокеров без пустых элементов.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// processTags задаёт значения по умолчанию и привязывает ключи к окружению.
func processTags(v *viper.Viper, cfg any, bindEnv bool) {
	val := reflect.ValueOf(cfg)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			processTags(v, val.Field(i).Addr().Interface(), bindEnv)
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if bindEnv {
			_ = v.BindEnv(key)
		}
		if def := field.Tag.Get("default"); def != "" {
			v.SetDefault(key, def)
		}
	}
}
