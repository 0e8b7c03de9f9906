package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "America/Lima", cfg.Timezone)
	require.Equal(t, "https://api.apify.com", cfg.Apify.BaseURL)
	require.Equal(t, "memory", cfg.Storage.Provider)
	require.Equal(t, "Microservicio3", cfg.Storage.Mongo.Database)
	require.Equal(t, "UserTiktokMetrics", cfg.Storage.Mongo.UserCollection)
	require.Equal(t, "AdminTiktokMetrics", cfg.Storage.Mongo.AdminCollection)
	require.Equal(t, "user_tiktok_metrics", cfg.Storage.Postgres.UserTable)
	require.Equal(t, "noop", cfg.Archive.Provider)
	require.Equal(t, "raw", cfg.Archive.Prefix)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, 300*time.Second, cfg.ApifyTimeout())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("METRICS_SERVER_PORT", "9090")
	t.Setenv("METRICS_TIMEZONE", "UTC")
	t.Setenv("METRICS_STORAGE_PROVIDER", "mongo")
	t.Setenv("METRICS_STORAGE_MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "UTC", cfg.Timezone)
	require.Equal(t, "mongo", cfg.Storage.Provider)
	require.Equal(t, "mongodb://localhost:27017", cfg.Storage.Mongo.URI)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Timezone: "America/Lima",
		Apify:    ApifyConfig{TimeoutSeconds: 300},
		Storage:  StorageConfig{Provider: "memory"},
		Archive:  ArchiveConfig{Provider: "noop"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: "timezone",
		},
		{
			name:    "bad apify timeout",
			mutate:  func(c *Config) { c.Apify.TimeoutSeconds = 0 },
			wantErr: "apify.timeout_seconds",
		},
		{
			name:    "auth enabled without key",
			mutate:  func(c *Config) { c.Auth.Enabled = true },
			wantErr: "auth.api_key",
		},
		{
			name:    "mongo without uri",
			mutate:  func(c *Config) { c.Storage.Provider = "mongo" },
			wantErr: "storage.mongo.uri",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Storage.Provider = "postgres" },
			wantErr: "storage.postgres.dsn",
		},
		{
			name:    "unknown storage provider",
			mutate:  func(c *Config) { c.Storage.Provider = "etcd" },
			wantErr: "unknown storage provider",
		},
		{
			name:    "gcs without bucket",
			mutate:  func(c *Config) { c.Archive.Provider = "gcs" },
			wantErr: "archive.gcs_bucket",
		},
		{
			name:    "local without base dir",
			mutate:  func(c *Config) { c.Archive.Provider = "local" },
			wantErr: "archive.base_dir",
		},
		{
			name:    "unknown archive provider",
			mutate:  func(c *Config) { c.Archive.Provider = "s3" },
			wantErr: "unknown archive provider",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
