package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/repository"
)

// DatabaseActivities provides Temporal activities for relational persistence.
// Both writes are idempotent: the model row upserts on its id and the
// documentation tree is replaced wholesale under its model id, so a retried
// attempt converges to the same stored state.
type DatabaseActivities struct {
	models repository.ModelRepository
}

// NewDatabaseActivities creates a new DatabaseActivities instance.
func NewDatabaseActivities(models repository.ModelRepository) *DatabaseActivities {
	return &DatabaseActivities{models: models}
}

// CreateModelFromMetadata persists the model row and its metadata record.
func (a *DatabaseActivities) CreateModelFromMetadata(ctx context.Context, input CreateModelInput) (*CreateModelOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("persisting model metadata",
		"modelID", input.Metadata.ID,
		"externalID", input.ExternalID,
	)

	model, err := a.models.CreateModelFromMetadata(ctx, input.ExternalID, &input.Metadata)
	if err != nil {
		logger.Error("model persistence failed", "modelID", input.Metadata.ID, "error", err)
		return nil, fmt.Errorf("create model from metadata: %w", err)
	}

	return &CreateModelOutput{ModelID: model.ID}, nil
}

// SaveModelDoc persists the enriched documentation tree.
func (a *DatabaseActivities) SaveModelDoc(ctx context.Context, input SaveModelDocInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("persisting model doc",
		"modelDocID", input.Doc.ID,
		"modelID", input.Doc.ModelID,
		"sections", len(input.Doc.Sections),
	)

	if err := a.models.SaveModelDoc(ctx, &input.Doc); err != nil {
		logger.Error("model doc persistence failed", "modelDocID", input.Doc.ID, "error", err)
		return fmt.Errorf("save model doc: %w", err)
	}

	return nil
}
