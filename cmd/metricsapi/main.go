package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/socialpulse/tiktok-metrics/internal/api"
	"github.com/socialpulse/tiktok-metrics/internal/apify"
	"github.com/socialpulse/tiktok-metrics/internal/archive"
	archivegcs "github.com/socialpulse/tiktok-metrics/internal/archive/gcs"
	archivelocal "github.com/socialpulse/tiktok-metrics/internal/archive/local"
	"github.com/socialpulse/tiktok-metrics/internal/clock/system"
	"github.com/socialpulse/tiktok-metrics/internal/config"
	"github.com/socialpulse/tiktok-metrics/internal/logging"
	"github.com/socialpulse/tiktok-metrics/internal/obs"
	"github.com/socialpulse/tiktok-metrics/internal/publisher"
	publisherpubsub "github.com/socialpulse/tiktok-metrics/internal/publisher/pubsub"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	storememory "github.com/socialpulse/tiktok-metrics/internal/store/memory"
	storemongo "github.com/socialpulse/tiktok-metrics/internal/store/mongo"
	storepostgres "github.com/socialpulse/tiktok-metrics/internal/store/postgres"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "metricsapi: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional, env vars work alone)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	obs.Init()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricStore.Close(closeCtx); err != nil {
			logger.Warn("close store failed", zap.Error(err))
		}
	}()

	blobStore, err := buildArchive(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	pub, topic, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	provider := apify.NewClient(apify.Config{
		BaseURL:     cfg.Apify.BaseURL,
		Actor:       cfg.Apify.Actor,
		Timeout:     cfg.ApifyTimeout(),
		WaitSeconds: cfg.Apify.WaitSeconds,
	}, logger)

	server := api.NewServer(api.Deps{
		Logger:        logger,
		Provider:      provider,
		Store:         metricStore,
		Archive:       blobStore,
		Publisher:     pub,
		Normalizer:    tiktok.NewNormalizer(loc),
		Clock:         system.New(),
		APIKey:        apiKey(cfg),
		ArchivePrefix: cfg.Archive.Prefix,
		Topic:         topic,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Provider),
			zap.String("archive", cfg.Archive.Provider),
			zap.String("timezone", cfg.Timezone),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (store.MetricStore, error) {
	switch cfg.Storage.Provider {
	case "mongo":
		return storemongo.NewStore(ctx, storemongo.Config{
			URI:             cfg.Storage.Mongo.URI,
			Database:        cfg.Storage.Mongo.Database,
			UserCollection:  cfg.Storage.Mongo.UserCollection,
			AdminCollection: cfg.Storage.Mongo.AdminCollection,
		})
	case "postgres":
		return storepostgres.NewStore(ctx, storepostgres.Config{
			DSN:        cfg.Storage.Postgres.DSN,
			UserTable:  cfg.Storage.Postgres.UserTable,
			AdminTable: cfg.Storage.Postgres.AdminTable,
			MaxConns:   cfg.Storage.Postgres.MaxConns,
		})
	case "memory":
		return storememory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}

func buildArchive(ctx context.Context, cfg config.Config) (archive.BlobStore, error) {
	switch cfg.Archive.Provider {
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		return archivegcs.New(client, archivegcs.Config{Bucket: cfg.Archive.GCSBucket})
	case "local":
		return archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.BaseDir})
	case "noop", "memory", "":
		return archive.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Archive.Provider)
	}
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (publisher.Publisher, string, error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return publisher.NoOp{}, "", nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, "", fmt.Errorf("create pubsub client: %w", err)
	}
	logger.Info("ingest notifications enabled",
		zap.String("project", cfg.PubSub.ProjectID),
		zap.String("topic", cfg.PubSub.TopicName),
	)
	return publisherpubsub.New(client.Topic(cfg.PubSub.TopicName)), cfg.PubSub.TopicName, nil
}

func apiKey(cfg config.Config) string {
	if !cfg.Auth.Enabled {
		return ""
	}
	return cfg.Auth.APIKey
}
