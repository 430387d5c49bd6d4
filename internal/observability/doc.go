// Package observability provides logging and metrics support for the model
// ingestion service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for ingestion runs, embeddings, and spam checks
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("model_id", modelID).Msg("ingestion started")
//
// Add model context to a logger:
//
//	logger = observability.WithModelContext(logger, modelID, modelSlug)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("model_ingestion")
//
// Record metrics:
//
//	metrics.RecordIngestionStarted()
//	metrics.RecordEmbeddingsComputed(10)
//	metrics.RecordVectorPointsUpserted("Chunks", 42)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithModel(ctx, modelID, modelSlug)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	modelID, modelSlug := observability.ModelFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: API request identifier
//   - model_id: Model identifier
//   - model_slug: Model slug used in workflow ids and object names
//   - workflow_id: Temporal workflow identifier
//   - collection: Embedding collection name
//   - object_id: Spam-check moderation record identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
