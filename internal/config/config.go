// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Auth     AuthConfig    `mapstructure:"auth"`
	Timezone string        `mapstructure:"timezone"`
	Apify    ApifyConfig   `mapstructure:"apify"`
	Storage  StorageConfig `mapstructure:"storage"`
	Archive  ArchiveConfig `mapstructure:"archive"`
	PubSub   PubSubConfig  `mapstructure:"pubsub"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ApifyConfig governs the upstream scraping provider client.
type ApifyConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Actor          string `mapstructure:"actor"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	WaitSeconds    int    `mapstructure:"wait_seconds"`
}

// StorageConfig selects and configures the metric store backend.
type StorageConfig struct {
	Provider string         `mapstructure:"provider"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MongoConfig controls access to MongoDB.
type MongoConfig struct {
	URI             string `mapstructure:"uri"`
	Database        string `mapstructure:"database"`
	UserCollection  string `mapstructure:"user_collection"`
	AdminCollection string `mapstructure:"admin_collection"`
}

// PostgresConfig controls access to PostgreSQL.
type PostgresConfig struct {
	DSN        string `mapstructure:"dsn"`
	UserTable  string `mapstructure:"user_table"`
	AdminTable string `mapstructure:"admin_table"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

// ArchiveConfig selects the raw payload blob store.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for ingest notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("METRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("timezone", "America/Lima")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("apify.base_url", "https://api.apify.com")
	v.SetDefault("apify.actor", "")
	v.SetDefault("apify.timeout_seconds", 300)
	v.SetDefault("apify.wait_seconds", 300)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.mongo.uri", "")
	v.SetDefault("storage.mongo.database", "Microservicio3")
	v.SetDefault("storage.mongo.user_collection", "UserTiktokMetrics")
	v.SetDefault("storage.mongo.admin_collection", "AdminTiktokMetrics")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.user_table", "user_tiktok_metrics")
	v.SetDefault("storage.postgres.admin_table", "admin_tiktok_metrics")
	v.SetDefault("storage.postgres.max_conns", 0)
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.base_dir", "")
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q is not loadable: %w", c.Timezone, err)
	}
	if c.Apify.TimeoutSeconds <= 0 {
		return fmt.Errorf("apify.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Provider {
	case "memory":
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required for the mongo provider")
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	switch c.Archive.Provider {
	case "noop", "memory":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket is required for the gcs provider")
		}
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir is required for the local provider")
		}
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	return nil
}

// ApifyTimeout converts the upstream timeout config into a duration.
func (c Config) ApifyTimeout() time.Duration {
	return time.Duration(c.Apify.TimeoutSeconds) * time.Second
}
