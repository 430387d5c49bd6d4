package workflows

import (
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// IngestModelMetadataWorkflow is the metadata branch: derive ModelMetadata
// from the backed-up codemeta file, persist the model row, then hand the
// record to the metadata embedding child workflow. The child runs with
// parent-close policy REQUEST_CANCEL so an aborted run asks in-flight
// embedding work to stop instead of abandoning it.
func IngestModelMetadataWorkflow(ctx workflow.Context, input domain.IngestModelInput) (*IngestMetadataResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting metadata ingestion", "modelID", input.ModelID)

	var metadataAct *activities.MetadataActivities
	var dbAct *activities.DatabaseActivities

	var derived activities.DeriveModelMetadataOutput
	err := workflow.ExecuteActivity(withConversionOptions(ctx), metadataAct.DeriveModelMetadata, activities.DeriveModelMetadataInput{
		ModelID:          input.ModelID,
		MetadataJSONPath: input.MetadataJSONPath,
	}).Get(ctx, &derived)
	if err != nil {
		return nil, fmt.Errorf("derive model metadata: %w", err)
	}

	var created activities.CreateModelOutput
	err = workflow.ExecuteActivity(withDatabaseOptions(ctx), dbAct.CreateModelFromMetadata, activities.CreateModelInput{
		ExternalID: input.ModelID,
		Metadata:   derived.Metadata,
	}).Get(ctx, &created)
	if err != nil {
		return nil, fmt.Errorf("persist model metadata: %w", err)
	}

	embedCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:          metadataEmbedWorkflowID(input.ModelSlug),
		ParentClosePolicy:   enumspb.PARENT_CLOSE_POLICY_REQUEST_CANCEL,
		WaitForCancellation: true,
	})

	var embedResult MetadataEmbeddingsResult
	err = workflow.ExecuteChildWorkflow(embedCtx, ComputeAndUpsertMetadataEmbeddingsWorkflow, MetadataEmbeddingsInput{
		ModelID:  input.ModelID,
		Metadata: derived.Metadata,
	}).Get(ctx, &embedResult)
	if err != nil {
		return nil, fmt.Errorf("metadata embeddings: %w", err)
	}

	logger.Info("metadata ingestion completed",
		"modelID", created.ModelID,
		"fieldsEmbedded", embedResult.FieldsEmbedded,
	)

	return &IngestMetadataResult{
		ModelID:        created.ModelID,
		FieldsEmbedded: embedResult.FieldsEmbedded,
	}, nil
}

// ComputeAndUpsertMetadataEmbeddingsWorkflow embeds every populated metadata
// field and upserts the resulting points as one batch. The field table fixes
// the field order, so the composed text list is identical on every replay.
func ComputeAndUpsertMetadataEmbeddingsWorkflow(ctx workflow.Context, input MetadataEmbeddingsInput) (*MetadataEmbeddingsResult, error) {
	logger := workflow.GetLogger(ctx)

	fields := input.Metadata.EmbeddingFieldTexts()
	if len(fields) == 0 {
		logger.Info("no populated metadata fields to embed", "modelID", input.ModelID)
		return &MetadataEmbeddingsResult{}, nil
	}

	logger.Info("embedding metadata fields", "modelID", input.ModelID, "fields", len(fields))

	texts := make([]string, len(fields))
	for i, f := range fields {
		texts[i] = f.Text
	}

	var embedded ComputeEmbeddingsResult
	err := workflow.ExecuteChildWorkflow(ctx, ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{
		Texts: texts,
	}).Get(ctx, &embedded)
	if err != nil {
		return nil, fmt.Errorf("compute metadata embeddings: %w", err)
	}
	if len(embedded.Vectors) != len(fields) {
		return nil, fmt.Errorf("metadata embeddings: expected %d vectors, got %d", len(fields), len(embedded.Vectors))
	}

	points := make([]domain.VectorPoint, len(fields))
	for i, f := range fields {
		points[i] = domain.VectorPoint{
			ID:     fmt.Sprintf("%s_%s", input.ModelID, f.Name),
			Vector: embedded.Vectors[i],
			Payload: map[string]string{
				"model_id":   input.ModelID,
				"field_name": f.Name,
				"text":       f.Text,
			},
		}
	}

	var vectorAct *activities.VectorActivities
	var upserted activities.UpsertVectorPointsOutput
	err = workflow.ExecuteActivity(withUpsertOptions(ctx), vectorAct.UpsertVectorPoints, activities.UpsertVectorPointsInput{
		Collection: domain.CollectionModelMetadata,
		Points:     points,
	}).Get(ctx, &upserted)
	if err != nil {
		return nil, fmt.Errorf("upsert metadata embeddings: %w", err)
	}

	logger.Info("metadata fields embedded", "modelID", input.ModelID, "points", upserted.Upserted)

	return &MetadataEmbeddingsResult{FieldsEmbedded: upserted.Upserted}, nil
}
