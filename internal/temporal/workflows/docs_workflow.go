package workflows

import (
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// IngestModelDocsWorkflow is the docs branch: convert the source document to
// markdown, back up the conversion outputs, split the markdown into the flat
// section arena, enrich the tree with synthetic data, persist it, then
// populate the embedding collections.
func IngestModelDocsWorkflow(ctx workflow.Context, input domain.IngestModelInput) (*IngestDocsResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting docs ingestion", "modelSlug", input.ModelSlug)

	var docAct *activities.DocActivities
	var storageAct *activities.StorageActivities
	var dbAct *activities.DatabaseActivities

	// Convert to markdown plus extracted images.
	var converted activities.ConvertDocOutput
	err := workflow.ExecuteActivity(withConversionOptions(ctx), docAct.ConvertDocToMarkdown, activities.ConvertDocInput{
		SourcePath: input.OriginalFilePath,
	}).Get(ctx, &converted)
	if err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}

	// Back up the conversion outputs in parallel.
	storageCtx := withStorageOptions(ctx)
	markdownFuture := workflow.ExecuteActivity(storageCtx, storageAct.UploadFile, activities.UploadFileInput{
		ObjectName: markdownObjectName(input.ModelSlug),
		FilePath:   converted.MarkdownPath,
	})
	imagesFuture := workflow.ExecuteActivity(storageCtx, storageAct.UploadFolder, activities.UploadFolderInput{
		Prefix:     imagesObjectPrefix(input.ModelSlug),
		FolderPath: converted.ImagesDir,
	})
	if err := markdownFuture.Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("upload markdown: %w", err)
	}
	if err := imagesFuture.Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}

	// Split into the section arena.
	var split activities.SplitMarkdownOutput
	err = workflow.ExecuteActivity(withConversionOptions(ctx), docAct.SplitMarkdown, activities.SplitMarkdownInput{
		MarkdownPath: converted.MarkdownPath,
	}).Get(ctx, &split)
	if err != nil {
		return nil, fmt.Errorf("split markdown: %w", err)
	}

	doc := domain.ModelDoc{
		ID:                 split.ModelDocID,
		ModelID:            input.ModelID,
		Sections:           split.Sections,
		OriginalObjectName: originalObjectName(input.ModelSlug, input.OriginalFilePath),
		MarkdownObjectName: markdownObjectName(input.ModelSlug),
	}

	// Enrich the tree with context, summaries, and Q&A.
	synthCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:          synthDataWorkflowID(input.ModelSlug),
		ParentClosePolicy:   enumspb.PARENT_CLOSE_POLICY_REQUEST_CANCEL,
		WaitForCancellation: true,
	})

	var enriched SyntheticDataResult
	err = workflow.ExecuteChildWorkflow(synthCtx, GenerateSyntheticDataForModelDocWorkflow, SyntheticDataInput{
		Doc: doc,
	}).Get(ctx, &enriched)
	if err != nil {
		return nil, fmt.Errorf("synthetic data enrichment: %w", err)
	}

	// Persist the enriched tree before populating collections, so a later
	// embedding failure leaves a queryable document behind.
	err = workflow.ExecuteActivity(withDatabaseOptions(ctx), dbAct.SaveModelDoc, activities.SaveModelDocInput{
		Doc: enriched.Doc,
	}).Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("persist model doc: %w", err)
	}

	// Populate the embedding collections.
	embedCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:          docEmbedWorkflowID(input.ModelSlug),
		ParentClosePolicy:   enumspb.PARENT_CLOSE_POLICY_REQUEST_CANCEL,
		WaitForCancellation: true,
	})

	var embedResult DocEmbeddingsResult
	err = workflow.ExecuteChildWorkflow(embedCtx, ComputeAndUpsertModelDocEmbeddingsWorkflow, DocEmbeddingsInput{
		ModelID: input.ModelID,
		Doc:     enriched.Doc,
	}).Get(ctx, &embedResult)
	if err != nil {
		return nil, fmt.Errorf("doc embeddings: %w", err)
	}

	logger.Info("docs ingestion completed",
		"modelDocID", doc.ID,
		"sections", len(doc.Sections),
		"vectorPoints", embedResult.TotalPoints,
	)

	return &IngestDocsResult{
		ModelDocID:   doc.ID,
		Sections:     len(doc.Sections),
		VectorPoints: embedResult.TotalPoints,
	}, nil
}
