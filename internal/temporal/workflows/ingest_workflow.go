package workflows

import (
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/events"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// IngestModelWorkflow is the top-level ingestion run for one model.
//
// Phase 1 backs up the three artifact kinds to the object store and must
// complete before anything else starts, since the later phases reference the
// backed-up object names. Phase 2 runs three branches concurrently: the
// metadata branch (derive, persist, embed per-field), the docs branch
// (convert, split, enrich, persist, populate embedding collections), and the
// code branch (contract placeholder). The run succeeds only if all three
// branches succeed; a branch failure fails the run with the originating
// error, and artifacts persisted by other branches are left in place.
func IngestModelWorkflow(ctx workflow.Context, input domain.IngestModelInput) (*IngestModelResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting model ingestion",
		"modelID", input.ModelID,
		"modelSlug", input.ModelSlug,
	)

	// Phase 1: backup. Awaited to completion before the branches start.
	backupCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        backupWorkflowID(input.ModelSlug),
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_TERMINATE,
	})

	var backup BackupResult
	if err := workflow.ExecuteChildWorkflow(backupCtx, BackupModelFilesWorkflow, input).Get(ctx, &backup); err != nil {
		logger.Error("backup phase failed", "error", err)
		publishIngestEvent(ctx, events.EventTypeModelIngestFailed, input, map[string]string{"phase": "backup"})
		return nil, fmt.Errorf("backup phase: %w", err)
	}

	logger.Info("backup phase completed",
		"metadataObject", backup.MetadataObjectName,
		"originalObject", backup.OriginalObjectName,
	)

	// Phase 2: metadata, docs, and code branches run concurrently. Futures
	// are collected in issue order, never completion order.
	metadataCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        metadataWorkflowID(input.ModelSlug),
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_TERMINATE,
	})
	docsCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        docsWorkflowID(input.ModelSlug),
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_TERMINATE,
	})
	codeCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        codeWorkflowID(input.ModelSlug),
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_TERMINATE,
	})

	metadataFuture := workflow.ExecuteChildWorkflow(metadataCtx, IngestModelMetadataWorkflow, input)
	docsFuture := workflow.ExecuteChildWorkflow(docsCtx, IngestModelDocsWorkflow, input)
	codeFuture := workflow.ExecuteChildWorkflow(codeCtx, IngestModelCodeWorkflow, input)

	var metadataResult IngestMetadataResult
	var docsResult IngestDocsResult
	var branchErr error

	if err := metadataFuture.Get(ctx, &metadataResult); err != nil {
		logger.Error("metadata branch failed", "error", err)
		branchErr = fmt.Errorf("metadata branch: %w", err)
	}
	if err := docsFuture.Get(ctx, &docsResult); err != nil {
		logger.Error("docs branch failed", "error", err)
		if branchErr == nil {
			branchErr = fmt.Errorf("docs branch: %w", err)
		}
	}
	if err := codeFuture.Get(ctx, nil); err != nil {
		logger.Error("code branch failed", "error", err)
		if branchErr == nil {
			branchErr = fmt.Errorf("code branch: %w", err)
		}
	}

	if branchErr != nil {
		publishIngestEvent(ctx, events.EventTypeModelIngestFailed, input, map[string]string{"phase": "ingest"})
		return nil, branchErr
	}

	publishIngestEvent(ctx, events.EventTypeModelIngested, input, map[string]string{
		"model_slug":   input.ModelSlug,
		"model_doc_id": docsResult.ModelDocID,
	})

	logger.Info("model ingestion completed",
		"modelID", input.ModelID,
		"modelDocID", docsResult.ModelDocID,
		"metadataFields", metadataResult.FieldsEmbedded,
		"vectorPoints", docsResult.VectorPoints,
	)

	return &IngestModelResult{
		ModelID:        input.ModelID,
		ModelDocID:     docsResult.ModelDocID,
		MetadataFields: metadataResult.FieldsEmbedded,
		VectorPoints:   docsResult.VectorPoints,
	}, nil
}

// publishIngestEvent publishes a pipeline event best-effort. Event delivery
// never decides the run's outcome.
func publishIngestEvent(ctx workflow.Context, eventType string, input domain.IngestModelInput, payload map[string]string) {
	var eventAct *activities.EventActivities

	err := workflow.ExecuteActivity(withEventOptions(ctx), eventAct.PublishEvent, activities.PublishEventInput{
		EventType:   eventType,
		AggregateID: input.ModelID,
		Payload:     payload,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("event publish failed", "eventType", eventType, "error", err)
	}
}

// BackupModelFilesWorkflow uploads the metadata file, the source document,
// and the optional code folder to the object store in parallel. All required
// uploads must succeed; there is no partial-success outcome.
func BackupModelFilesWorkflow(ctx workflow.Context, input domain.IngestModelInput) (*BackupResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("backing up model files", "modelSlug", input.ModelSlug)

	var storageAct *activities.StorageActivities
	storageCtx := withStorageOptions(ctx)

	result := &BackupResult{
		MetadataObjectName: metadataObjectName(input.ModelSlug),
		OriginalObjectName: originalObjectName(input.ModelSlug, input.OriginalFilePath),
	}

	metadataFuture := workflow.ExecuteActivity(storageCtx, storageAct.UploadFile, activities.UploadFileInput{
		ObjectName: result.MetadataObjectName,
		FilePath:   input.MetadataJSONPath,
	})
	originalFuture := workflow.ExecuteActivity(storageCtx, storageAct.UploadFile, activities.UploadFileInput{
		ObjectName: result.OriginalObjectName,
		FilePath:   input.OriginalFilePath,
	})

	var codeFuture workflow.Future
	if input.CodeFolderPath != "" {
		result.CodeObjectPrefix = codeObjectPrefix(input.ModelSlug)
		codeFuture = workflow.ExecuteActivity(storageCtx, storageAct.UploadFolder, activities.UploadFolderInput{
			Prefix:     result.CodeObjectPrefix,
			FolderPath: input.CodeFolderPath,
		})
	}

	if err := metadataFuture.Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("upload metadata file: %w", err)
	}
	if err := originalFuture.Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("upload original document: %w", err)
	}
	if codeFuture != nil {
		if err := codeFuture.Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("upload code folder: %w", err)
		}
	}

	logger.Info("model files backed up", "modelSlug", input.ModelSlug)

	return result, nil
}

// IngestModelCodeWorkflow is the code ingestion branch. The code artifacts
// are already backed up by the backup phase; deeper code analysis has no
// defined contract yet, so this branch only records that it ran and
// completes successfully.
func IngestModelCodeWorkflow(ctx workflow.Context, input domain.IngestModelInput) error {
	workflow.GetLogger(ctx).Info("code ingestion has no analysis steps yet, completing",
		"modelSlug", input.ModelSlug,
		"codeFolderPath", input.CodeFolderPath,
	)
	return nil
}
