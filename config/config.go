package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	DispatchKafka  = "kafka"
	DispatchInproc = "inproc"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		Storage         Storage
		PG              PG
		SQLite          SQLite
		S3              S3
		Dispatch        Dispatch
		OutboxRelay     OutboxRelay
		Kafka           Kafka
		KafkaController KafkaController
		Upload          Upload
		Swagger         Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		BodyLimit      int    `env:"HTTP_BODY_LIMIT" envDefault:"16777216"` // 3 файла по 5 МБ + multipart
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	Storage struct {
		Driver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
		URL     string `env:"PG_URL"`
	}

	SQLite struct {
		Path        string        `env:"SQLITE_PATH" envDefault:"data/vectorizer.db"`
		BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		PublicURL      string        `env:"S3_PUBLIC_URL"` // база для original_url/svg_url, по умолчанию endpoint/bucket
		CreateBucket   bool          `env:"S3_CREATE_BUCKET" envDefault:"true"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Dispatch struct {
		Driver          string        `env:"DISPATCH_DRIVER" envDefault:"kafka"`
		Workers         int           `env:"DISPATCH_WORKERS"` // 0 - по числу CPU
		QueueSize       int           `env:"DISPATCH_QUEUE_SIZE" envDefault:"64"`
		ProcessTimeout  time.Duration `env:"DISPATCH_PROCESS_TIMEOUT" envDefault:"30s"`
		ShutdownTimeout time.Duration `env:"DISPATCH_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers           []string `env:"KAFKA_BROKERS"`
		GroupID           string   `env:"KAFKA_GROUP_ID" envDefault:"image-vectorizer"`
		Topic             string   `env:"KAFKA_TOPIC" envDefault:"images.convert"`
		Partitions        int      `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
		ReplicationFactor int      `env:"KAFKA_TOPIC_REPLICATION_FACTOR" envDefault:"1"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
		Retention           time.Duration `env:"OUTBOX_RELAY_RETENTION" envDefault:"24h"`
	}

	KafkaController struct {
		CommitTimeout time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
	}

	Upload struct {
		MaxFiles    int   `env:"UPLOAD_MAX_FILES" envDefault:"3"`
		MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"5242880"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.PG.URL == "" {
			errs = append(errs, errors.New(`PG_URL is required for STORAGE_DRIVER="postgres"`))
		}
	case StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Dispatch.Driver {
	case DispatchKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New(`KAFKA_BROKERS is required for DISPATCH_DRIVER="kafka"`))
		}
	case DispatchInproc:
	default:
		errs = append(errs, fmt.Errorf("unknown DISPATCH_DRIVER %q", c.Dispatch.Driver))
	}

	return errors.Join(errs...)
}
