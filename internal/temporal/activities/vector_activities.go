package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/observability"
	"github.com/simhub/model-ingestion-service/internal/vectorstore"
)

// VectorActivities provides Temporal activities for the vector store.
// Upserts are keyed by the point id, so re-running an attempt overwrites
// rather than duplicates.
type VectorActivities struct {
	store   vectorstore.VectorStore
	metrics *observability.Metrics
}

// NewVectorActivities creates a new VectorActivities instance.
// The metrics parameter may be nil (metrics recording will be skipped).
func NewVectorActivities(store vectorstore.VectorStore, metrics *observability.Metrics) *VectorActivities {
	return &VectorActivities{
		store:   store,
		metrics: metrics,
	}
}

// UpsertVectorPoints writes one batch of points to the named collection.
// Collections are created at worker startup; an empty batch is a no-op.
func (a *VectorActivities) UpsertVectorPoints(ctx context.Context, input UpsertVectorPointsInput) (*UpsertVectorPointsOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("upserting vector points",
		"collection", input.Collection,
		"points", len(input.Points),
	)

	if len(input.Points) == 0 {
		return &UpsertVectorPointsOutput{}, nil
	}

	if err := a.store.UpsertPoints(ctx, input.Collection, input.Points); err != nil {
		logger.Error("vector upsert failed", "collection", input.Collection, "error", err)
		if a.metrics != nil {
			a.metrics.RecordVectorUpsertFailed(input.Collection)
		}
		return nil, fmt.Errorf("upsert %d points into %q: %w", len(input.Points), input.Collection, err)
	}

	if a.metrics != nil {
		a.metrics.RecordVectorPointsUpserted(input.Collection, len(input.Points))
	}

	return &UpsertVectorPointsOutput{Upserted: len(input.Points)}, nil
}
