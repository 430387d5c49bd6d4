package workflows

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/events"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

func ingestInput() domain.IngestModelInput {
	return domain.IngestModelInput{
		ModelID:          "model-1",
		ModelSlug:        "predator-prey",
		OriginalFilePath: "/tmp/inbox/predator-prey.pdf",
		MetadataJSONPath: "/tmp/inbox/codemeta.json",
		CodeFolderPath:   "/tmp/inbox/code",
	}
}

// storageCapture records uploads issued by the storage activities.
type storageCapture struct {
	mu      sync.Mutex
	files   []string
	folders []string
}

func captureStorage(env *testsuite.TestWorkflowEnvironment) *storageCapture {
	capture := &storageCapture{}
	var storageAct *activities.StorageActivities

	env.OnActivity(storageAct.UploadFile, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.UploadFileInput) (*activities.UploadFileOutput, error) {
			capture.mu.Lock()
			capture.files = append(capture.files, input.ObjectName)
			capture.mu.Unlock()
			return &activities.UploadFileOutput{ObjectName: input.ObjectName, Size: 128}, nil
		},
	)
	env.OnActivity(storageAct.UploadFolder, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.UploadFolderInput) (*activities.UploadFolderOutput, error) {
			capture.mu.Lock()
			capture.folders = append(capture.folders, input.Prefix)
			capture.mu.Unlock()
			return &activities.UploadFolderOutput{Files: 3, Size: 4096}, nil
		},
	)
	return capture
}

func TestBackupModelFilesWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	capture := captureStorage(env)

	env.ExecuteWorkflow(BackupModelFilesWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result BackupResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "predator-prey/metadata.json", result.MetadataObjectName)
	assert.Equal(t, "predator-prey/docs/original/predator-prey.pdf", result.OriginalObjectName)
	assert.Equal(t, "predator-prey/code", result.CodeObjectPrefix)

	assert.ElementsMatch(t, []string{
		"predator-prey/metadata.json",
		"predator-prey/docs/original/predator-prey.pdf",
	}, capture.files)
	assert.Equal(t, []string{"predator-prey/code"}, capture.folders)
}

func TestBackupModelFilesWorkflow_NoCodeFolder(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	capture := captureStorage(env)

	input := ingestInput()
	input.CodeFolderPath = ""
	env.ExecuteWorkflow(BackupModelFilesWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result BackupResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Empty(t, result.CodeObjectPrefix)
	assert.Len(t, capture.files, 2)
	assert.Empty(t, capture.folders, "no code folder means no folder upload")
}

// registerIngestTree registers every workflow the top-level ingestion run
// reaches, mirroring the worker's registration set.
func registerIngestTree(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterWorkflow(BackupModelFilesWorkflow)
	env.RegisterWorkflow(IngestModelMetadataWorkflow)
	env.RegisterWorkflow(IngestModelDocsWorkflow)
	env.RegisterWorkflow(IngestModelCodeWorkflow)
	env.RegisterWorkflow(ComputeAndUpsertMetadataEmbeddingsWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForModelDocWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForDocSectionWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForChunksWorkflow)
	env.RegisterWorkflow(ComputeEmbeddingsWorkflow)
	env.RegisterWorkflow(ComputeAndUpsertModelDocEmbeddingsWorkflow)
	env.RegisterWorkflow(PopulateCollectionWorkflow)
}

// ingestMocks tunes the shared activity mocks per test.
type ingestMocks struct {
	// convertErr, when set, fails the docs branch at conversion.
	convertErr error
	// savedDoc, when set, captures what SaveModelDoc persisted.
	savedDoc *domain.ModelDoc
}

// mockIngestActivities mocks everything but storage, the LLM, and the vector
// store, which the callers wire themselves.
func mockIngestActivities(env *testsuite.TestWorkflowEnvironment, eventTypes *[]string, mocks ingestMocks) {
	var metadataAct *activities.MetadataActivities
	env.OnActivity(metadataAct.DeriveModelMetadata, mock.Anything, mock.Anything).
		Return(&activities.DeriveModelMetadataOutput{Metadata: domain.ModelMetadata{
			ID:   "model-1",
			Name: "Predator Prey",
		}}, nil)

	var dbAct *activities.DatabaseActivities
	env.OnActivity(dbAct.CreateModelFromMetadata, mock.Anything, mock.Anything).
		Return(&activities.CreateModelOutput{ModelID: "db-row-9"}, nil)
	env.OnActivity(dbAct.SaveModelDoc, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SaveModelDocInput) error {
			if mocks.savedDoc != nil {
				*mocks.savedDoc = input.Doc
			}
			return nil
		},
	)

	var docAct *activities.DocActivities
	env.OnActivity(docAct.ConvertDocToMarkdown, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.ConvertDocInput) (*activities.ConvertDocOutput, error) {
			if mocks.convertErr != nil {
				return nil, mocks.convertErr
			}
			return &activities.ConvertDocOutput{
				MarkdownPath: "/tmp/conv/model_docs.md",
				ImagesDir:    "/tmp/conv/images",
			}, nil
		},
	)
	env.OnActivity(docAct.SplitMarkdown, mock.Anything, mock.Anything).
		Return(&activities.SplitMarkdownOutput{
			ModelDocID: "doc-1",
			Sections: []domain.DocSection{
				{
					ID: "sec-1", ModelDocID: "doc-1", Title: "Purpose", Level: 1,
					Content: "Purpose text.",
					Chunks: []domain.Chunk{
						{ID: "chunk-1", SectionID: "sec-1", Content: "purpose chunk"},
					},
				},
			},
		}, nil)

	var mu sync.Mutex
	var eventAct *activities.EventActivities
	env.OnActivity(eventAct.PublishEvent, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.PublishEventInput) error {
			mu.Lock()
			*eventTypes = append(*eventTypes, input.EventType)
			mu.Unlock()
			return nil
		},
	)
}

func TestIngestModelWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerIngestTree(env)

	var eventTypes []string
	mockIngestActivities(env, &eventTypes, ingestMocks{})
	storage := captureStorage(env)
	mockSynthLLM(env)
	mockComputeEmbedding(env)
	capture := captureUpserts(env)

	env.ExecuteWorkflow(IngestModelWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result IngestModelResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "model-1", result.ModelID)
	assert.Equal(t, "doc-1", result.ModelDocID)
	assert.Equal(t, 2, result.MetadataFields, "id and name are populated")
	assert.Positive(t, result.VectorPoints)

	// Backup plus the docs branch conversion outputs.
	assert.ElementsMatch(t, []string{
		"predator-prey/metadata.json",
		"predator-prey/docs/original/predator-prey.pdf",
		"predator-prey/docs/model_docs.md",
	}, storage.files)
	assert.ElementsMatch(t, []string{
		"predator-prey/code",
		"predator-prey/docs/images",
	}, storage.folders)

	// Both the metadata collection and the chunk collection were populated.
	assert.Contains(t, capture.points, domain.CollectionModelMetadata)
	assert.Equal(t, []string{"chunk-1"}, capture.points[domain.CollectionChunks])

	assert.Equal(t, []string{events.EventTypeModelIngested}, eventTypes)
}

func TestIngestModelWorkflow_DocsBranchFailureFailsTheRun(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerIngestTree(env)

	var eventTypes []string
	mockIngestActivities(env, &eventTypes, ingestMocks{
		convertErr: temporal.NewNonRetryableApplicationError("unreadable pdf", "ConversionFailed", nil),
	})
	captureStorage(env)
	mockSynthLLM(env)
	mockComputeEmbedding(env)
	captureUpserts(env)

	env.ExecuteWorkflow(IngestModelWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs branch")

	assert.Equal(t, []string{events.EventTypeModelIngestFailed}, eventTypes)
}

func TestIngestModelDocsWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GenerateSyntheticDataForModelDocWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForDocSectionWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForChunksWorkflow)
	env.RegisterWorkflow(ComputeAndUpsertModelDocEmbeddingsWorkflow)
	env.RegisterWorkflow(PopulateCollectionWorkflow)
	env.RegisterWorkflow(ComputeEmbeddingsWorkflow)

	var eventTypes []string
	var saved domain.ModelDoc
	mockIngestActivities(env, &eventTypes, ingestMocks{savedDoc: &saved})
	captureStorage(env)
	mockSynthLLM(env)
	mockComputeEmbedding(env)
	captureUpserts(env)

	env.ExecuteWorkflow(IngestModelDocsWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result IngestDocsResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "doc-1", result.ModelDocID)
	assert.Equal(t, 1, result.Sections)
	assert.Positive(t, result.VectorPoints)

	// The enriched tree is what gets persisted, with object names attached.
	assert.Equal(t, "doc-1", saved.ID)
	assert.Equal(t, "model-1", saved.ModelID)
	assert.Equal(t, "predator-prey/docs/original/predator-prey.pdf", saved.OriginalObjectName)
	assert.Equal(t, "predator-prey/docs/model_docs.md", saved.MarkdownObjectName)
	require.Len(t, saved.Sections, 1)
	assert.NotEmpty(t, saved.Sections[0].Summary, "the persisted tree is the enriched one")
	assert.NotEmpty(t, saved.Sections[0].Chunks[0].ContentWithContext)
}
