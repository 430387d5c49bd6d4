// Package main provides the entry point for the model ingestion service
// Temporal workers. One process polls both the ingestion and the spam-check
// task queues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simhub/model-ingestion-service/internal/config"
	"github.com/simhub/model-ingestion-service/internal/database"
	"github.com/simhub/model-ingestion-service/internal/events"
	"github.com/simhub/model-ingestion-service/internal/llm"
	"github.com/simhub/model-ingestion-service/internal/objectstore"
	"github.com/simhub/model-ingestion-service/internal/observability"
	"github.com/simhub/model-ingestion-service/internal/registry"
	"github.com/simhub/model-ingestion-service/internal/repository"
	"github.com/simhub/model-ingestion-service/internal/temporal"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
	"github.com/simhub/model-ingestion-service/internal/vectorstore"

	"go.temporal.io/sdk/client"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "worker").Logger()
	logger.Info().Msg("model-ingestion-service worker starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	modelRepo := repository.NewPgModelRepository(db)

	// Connect to the object store and make sure the backup bucket exists.
	store, err := objectstore.NewClient(objectstore.Config{
		Endpoint:  cfg.ObjectStore.Endpoint,
		AccessKey: cfg.ObjectStore.AccessKey,
		SecretKey: cfg.ObjectStore.SecretKey,
		Bucket:    cfg.ObjectStore.Bucket,
		UseSSL:    cfg.ObjectStore.UseSSL,
		Region:    cfg.ObjectStore.Region,
	})
	if err != nil {
		return fmt.Errorf("create object store client: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure backup bucket: %w", err)
	}
	logger.Info().Str("bucket", cfg.ObjectStore.Bucket).Msg("object store ready")

	// Connect to Qdrant and make sure every collection the pipeline writes to
	// exists before the first upsert.
	vectors, err := vectorstore.NewClient(vectorstore.Config{
		Address:    cfg.Qdrant.Address,
		VectorSize: cfg.Qdrant.VectorSize,
	})
	if err != nil {
		return fmt.Errorf("create vector store client: %w", err)
	}
	defer func() {
		if closeErr := vectors.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close vector store client")
		}
	}()
	for _, collection := range vectorstore.IngestCollections() {
		if err := vectors.EnsureCollection(ctx, collection); err != nil {
			return fmt.Errorf("ensure collection %q: %w", collection, err)
		}
	}
	logger.Info().Str("address", cfg.Qdrant.Address).Msg("vector store ready")

	// Create the LLM client for enrichment, embeddings and spam classification.
	llmClient := llm.NewClient(llm.Config{
		APIKey:           cfg.LLM.APIKey,
		BaseURL:          cfg.LLM.BaseURL,
		Model:            cfg.LLM.Model,
		EmbeddingBaseURL: cfg.LLM.EmbeddingBaseURLOrDefault(),
		EmbeddingModel:   cfg.LLM.EmbeddingModel,
		Temperature:      cfg.LLM.Temperature,
		Timeout:          cfg.LLM.Timeout,
	})

	// Create the registry client for the spam-check pipeline.
	registryClient, err := registry.NewHTTPClient(registry.Config{
		BaseURL:   cfg.Registry.BaseURL,
		APIKey:    cfg.Registry.APIKey,
		Timeout:   cfg.Registry.Timeout,
		RateLimit: cfg.Registry.RateLimit,
		RateBurst: cfg.Registry.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("create registry client: %w", err)
	}

	// Create the event publisher. With Kafka disabled, events are dropped.
	var publisher activities.EventPublisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := events.NewPublisher(events.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		defer func() {
			if closeErr := kafkaPublisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close event publisher")
			}
		}()
		publisher = kafkaPublisher
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("event publisher ready")
	} else {
		logger.Info().Msg("event publishing disabled")
	}

	// Create Prometheus metrics.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("modelingest")
	}

	// Create Temporal client.
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    observability.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("connect to temporal: %w", err)
	}
	defer temporalClient.Close()
	logger.Info().
		Str("host_port", cfg.Temporal.HostPort).
		Str("namespace", cfg.Temporal.Namespace).
		Msg("temporal client connected")

	// Build the ingest worker.
	ingestWorker, err := temporal.NewIngestWorker(
		temporalClient,
		temporal.DefaultWorkerConfig(cfg.Temporal.IngestTaskQueue),
		temporal.IngestWorkerDeps{
			Storage:  activities.NewStorageActivities(store, metrics),
			Database: activities.NewDatabaseActivities(modelRepo),
			Vector:   activities.NewVectorActivities(vectors, metrics),
			LLM:      activities.NewLLMActivities(llmClient, metrics),
			Metadata: activities.NewMetadataActivities(),
			Doc:      activities.NewDocActivities(metrics),
			Events:   activities.NewEventActivities(publisher),
		},
	)
	if err != nil {
		return fmt.Errorf("create ingest worker: %w", err)
	}

	// Build the spam-check worker.
	spamWorker, err := temporal.NewSpamWorker(
		temporalClient,
		temporal.DefaultWorkerConfig(cfg.Temporal.SpamCheckTaskQueue),
		temporal.SpamWorkerDeps{
			Registry: activities.NewRegistryActivities(registryClient, metrics),
			LLM:      activities.NewLLMActivities(llmClient, metrics),
			Events:   activities.NewEventActivities(publisher),
		},
	)
	if err != nil {
		return fmt.Errorf("create spam worker: %w", err)
	}

	// Run both workers until a signal arrives or one of them fails.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Str("task_queue", cfg.Temporal.IngestTaskQueue).Msg("ingest worker starting")
		return temporal.StartWorker(groupCtx, ingestWorker)
	})
	group.Go(func() error {
		logger.Info().Str("task_queue", cfg.Temporal.SpamCheckTaskQueue).Msg("spam-check worker starting")
		return temporal.StartWorker(groupCtx, spamWorker)
	})

	err = group.Wait()
	if err != nil && ctx.Err() != nil {
		// Shut down on signal; give in-flight log writes a moment to flush.
		logger.Info().Msg("shutdown signal received, workers stopped")
		time.Sleep(100 * time.Millisecond)
		return nil
	}
	return err
}
