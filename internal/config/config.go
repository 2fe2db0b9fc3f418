package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/gstroy/search-service/pkg/config"
	"github.com/gstroy/search-service/pkg/database"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8010"`

	// Elasticsearch. The master switch turns the whole engine path off;
	// the service then serves everything from SQL.
	ElasticsearchEnabled     bool          `env:"ELASTICSEARCH_ENABLED" envDefault:"true"`
	ElasticsearchURL         string        `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchUsername    string        `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword    string        `env:"ELASTICSEARCH_PASSWORD"`
	ElasticsearchVerifyCerts bool          `env:"ELASTICSEARCH_VERIFY_CERTS" envDefault:"true"`
	ElasticsearchTimeout     time.Duration `env:"ELASTICSEARCH_TIMEOUT" envDefault:"5s"`
	ElasticsearchIndex       string        `env:"ELASTICSEARCH_INDEX" envDefault:"gstroy-products"`
	IndexBatchSize           int           `env:"ELASTICSEARCH_BATCH_SIZE" envDefault:"1000"`
	AutoIndex                bool          `env:"ELASTICSEARCH_AUTO_INDEX" envDefault:"true"`
	ForceReindex             bool          `env:"ELASTICSEARCH_FORCE_REINDEX" envDefault:"false"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"gstroy"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"gstroy_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"gstroy"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"search-service"`

	// Redis (consumer idempotency)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.IndexBatchSize < 1 {
		return fmt.Errorf("invalid index batch size: %d", c.IndexBatchSize)
	}
	if c.ElasticsearchEnabled && c.ElasticsearchURL == "" {
		return fmt.Errorf("ELASTICSEARCH_URL is required when the engine is enabled")
	}
	return nil
}

// Postgres returns the pool configuration for the product store.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// Redis returns the client configuration for the idempotency store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
