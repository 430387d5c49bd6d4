package workflows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

func TestComputeAndUpsertMetadataEmbeddingsWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ComputeEmbeddingsWorkflow)
	mockComputeEmbedding(env)

	var vectorAct *activities.VectorActivities
	var captured activities.UpsertVectorPointsInput
	env.OnActivity(vectorAct.UpsertVectorPoints, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.UpsertVectorPointsInput) (*activities.UpsertVectorPointsOutput, error) {
			captured = input
			return &activities.UpsertVectorPointsOutput{Upserted: len(input.Points)}, nil
		},
	)

	metadata := domain.ModelMetadata{
		ID:       "model-1",
		Name:     "Predator Prey",
		Abstract: "An agent-based predation model.",
		Keywords: "ecology, agents",
	}

	env.ExecuteWorkflow(ComputeAndUpsertMetadataEmbeddingsWorkflow, MetadataEmbeddingsInput{
		ModelID:  "model-1",
		Metadata: metadata,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result MetadataEmbeddingsResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 4, result.FieldsEmbedded)

	assert.Equal(t, domain.CollectionModelMetadata, captured.Collection)
	require.Len(t, captured.Points, 4)

	// One point per populated field, in table order, keyed model id + field.
	assert.Equal(t, "model-1_id", captured.Points[0].ID)
	assert.Equal(t, "model-1_name", captured.Points[1].ID)
	assert.Equal(t, "model-1_abstract", captured.Points[2].ID)
	assert.Equal(t, "model-1_keywords", captured.Points[3].ID)

	assert.Equal(t, "Name of the model: Predator Prey", captured.Points[1].Payload["text"])
	assert.Equal(t, "name", captured.Points[1].Payload["field_name"])
	assert.Equal(t, "model-1", captured.Points[1].Payload["model_id"])
	assert.NotEmpty(t, captured.Points[1].Vector)
}

func TestComputeAndUpsertMetadataEmbeddingsWorkflow_NoPopulatedFields(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ComputeEmbeddingsWorkflow)
	calls := mockComputeEmbedding(env)

	var vectorAct *activities.VectorActivities
	upserts := 0
	env.OnActivity(vectorAct.UpsertVectorPoints, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.UpsertVectorPointsInput) (*activities.UpsertVectorPointsOutput, error) {
			upserts++
			return &activities.UpsertVectorPointsOutput{}, nil
		},
	).Maybe()

	env.ExecuteWorkflow(ComputeAndUpsertMetadataEmbeddingsWorkflow, MetadataEmbeddingsInput{
		ModelID:  "model-1",
		Metadata: domain.ModelMetadata{},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result MetadataEmbeddingsResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Zero(t, result.FieldsEmbedded)
	assert.Zero(t, *calls)
	assert.Zero(t, upserts)
}

func TestIngestModelMetadataWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ComputeAndUpsertMetadataEmbeddingsWorkflow)
	env.RegisterWorkflow(ComputeEmbeddingsWorkflow)
	mockComputeEmbedding(env)

	metadata := domain.ModelMetadata{ID: "model-1", Name: "Predator Prey"}

	var metadataAct *activities.MetadataActivities
	env.OnActivity(metadataAct.DeriveModelMetadata, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.DeriveModelMetadataInput) (*activities.DeriveModelMetadataOutput, error) {
			assert.Equal(t, "/tmp/codemeta.json", input.MetadataJSONPath)
			return &activities.DeriveModelMetadataOutput{Metadata: metadata}, nil
		},
	)

	var dbAct *activities.DatabaseActivities
	env.OnActivity(dbAct.CreateModelFromMetadata, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.CreateModelInput) (*activities.CreateModelOutput, error) {
			assert.Equal(t, "model-1", input.ExternalID)
			assert.Equal(t, "Predator Prey", input.Metadata.Name)
			return &activities.CreateModelOutput{ModelID: "db-row-9"}, nil
		},
	)

	var vectorAct *activities.VectorActivities
	env.OnActivity(vectorAct.UpsertVectorPoints, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.UpsertVectorPointsInput) (*activities.UpsertVectorPointsOutput, error) {
			return &activities.UpsertVectorPointsOutput{Upserted: len(input.Points)}, nil
		},
	)

	env.ExecuteWorkflow(IngestModelMetadataWorkflow, domain.IngestModelInput{
		ModelID:          "model-1",
		ModelSlug:        "predator-prey",
		OriginalFilePath: "/tmp/doc.pdf",
		MetadataJSONPath: "/tmp/codemeta.json",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result IngestMetadataResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "db-row-9", result.ModelID)
	assert.Equal(t, 2, result.FieldsEmbedded, "id and name are the only populated fields")
}
