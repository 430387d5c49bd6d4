package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
	"github.com/simhub/model-ingestion-service/internal/textutil"
)

// summaryLevel is the heading depth whose section summaries get their own
// collection.
const summaryLevel = 1

// ComputeAndUpsertModelDocEmbeddingsWorkflow populates the seven embedding
// collections derived from an enriched documentation tree. The collections
// are independent, so all populations run concurrently as child workflows
// and are joined in issue order; a single failed population fails the whole
// phase.
func ComputeAndUpsertModelDocEmbeddingsWorkflow(ctx workflow.Context, input DocEmbeddingsInput) (*DocEmbeddingsResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("populating embedding collections", "modelDocID", input.Doc.ID)

	batches := []PopulateCollectionInput{
		{Collection: domain.CollectionChunks, Items: chunkItems(input.ModelID, input.Doc)},
		{Collection: domain.CollectionModelDocSummary, Items: docSummaryItems(input.ModelID, input.Doc)},
		{Collection: domain.CollectionDocSectionSummary(summaryLevel), Items: sectionSummaryItems(input.ModelID, input.Doc, summaryLevel)},
		{Collection: domain.CollectionChunkQuestions, Items: chunkQAItems(input.ModelID, input.Doc, true)},
		{Collection: domain.CollectionChunkAnswers, Items: chunkQAItems(input.ModelID, input.Doc, false)},
		{Collection: domain.CollectionDocSectionQuestions, Items: sectionQAItems(input.ModelID, input.Doc, true)},
		{Collection: domain.CollectionDocSectionAnswers, Items: sectionQAItems(input.ModelID, input.Doc, false)},
	}

	futures := make([]workflow.ChildWorkflowFuture, len(batches))
	for i, batch := range batches {
		futures[i] = workflow.ExecuteChildWorkflow(ctx, PopulateCollectionWorkflow, batch)
	}

	result := &DocEmbeddingsResult{
		PointsByCollection: make(map[string]int, len(batches)),
	}
	for i, future := range futures {
		var populated PopulateCollectionResult
		if err := future.Get(ctx, &populated); err != nil {
			return nil, fmt.Errorf("populate collection %q: %w", batches[i].Collection, err)
		}
		result.PointsByCollection[populated.Collection] = populated.Points
		result.TotalPoints += populated.Points
	}

	logger.Info("embedding collections populated",
		"modelDocID", input.Doc.ID,
		"totalPoints", result.TotalPoints,
	)

	return result, nil
}

// PopulateCollectionWorkflow embeds one collection's texts through the
// checkpointed batch workflow and upserts the points in a single call.
// Items whose text embedded to an empty vector (blank text) are dropped
// rather than upserted.
func PopulateCollectionWorkflow(ctx workflow.Context, input PopulateCollectionInput) (*PopulateCollectionResult, error) {
	logger := workflow.GetLogger(ctx)

	if len(input.Items) == 0 {
		logger.Info("nothing to embed for collection", "collection", input.Collection)
		return &PopulateCollectionResult{Collection: input.Collection}, nil
	}

	texts := make([]string, len(input.Items))
	for i, item := range input.Items {
		texts[i] = item.Text
	}

	var embedded ComputeEmbeddingsResult
	err := workflow.ExecuteChildWorkflow(ctx, ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{
		Texts: texts,
	}).Get(ctx, &embedded)
	if err != nil {
		return nil, fmt.Errorf("compute embeddings for %q: %w", input.Collection, err)
	}
	if len(embedded.Vectors) != len(input.Items) {
		return nil, fmt.Errorf("collection %q: expected %d vectors, got %d", input.Collection, len(input.Items), len(embedded.Vectors))
	}

	points := make([]domain.VectorPoint, 0, len(input.Items))
	for i, item := range input.Items {
		if len(embedded.Vectors[i]) == 0 {
			continue
		}
		points = append(points, domain.VectorPoint{
			ID:      item.PointID,
			Vector:  embedded.Vectors[i],
			Payload: item.Payload,
		})
	}

	var vectorAct *activities.VectorActivities
	var upserted activities.UpsertVectorPointsOutput
	err = workflow.ExecuteActivity(withUpsertOptions(ctx), vectorAct.UpsertVectorPoints, activities.UpsertVectorPointsInput{
		Collection: input.Collection,
		Points:     points,
	}).Get(ctx, &upserted)
	if err != nil {
		return nil, fmt.Errorf("upsert into %q: %w", input.Collection, err)
	}

	logger.Info("collection populated", "collection", input.Collection, "points", upserted.Upserted)

	return &PopulateCollectionResult{
		Collection: input.Collection,
		Points:     upserted.Upserted,
	}, nil
}

// Collection item builders. All are pure functions of the enriched tree and
// iterate the arena in order, so the produced text lists are identical on
// every replay.

// chunkItems indexes every chunk by its context-augmented text.
func chunkItems(modelID string, doc domain.ModelDoc) []EmbedItem {
	var items []EmbedItem
	for _, section := range doc.Sections {
		for _, chunk := range section.Chunks {
			items = append(items, EmbedItem{
				PointID: chunk.ID,
				Text:    chunk.ContentWithContext,
				Payload: map[string]string{
					"model_id":   modelID,
					"section_id": section.ID,
					"chunk_id":   chunk.ID,
					"content":    chunk.Content,
				},
			})
		}
	}
	return items
}

// docSummaryItems indexes the chunked doc summary.
func docSummaryItems(modelID string, doc domain.ModelDoc) []EmbedItem {
	var items []EmbedItem
	for i, text := range textutil.ChunkWords(doc.Summary, textutil.DefaultChunkSize, textutil.DefaultChunkOverlap) {
		items = append(items, EmbedItem{
			PointID: fmt.Sprintf("model_doc_summary_%d", i),
			Text:    text,
			Payload: map[string]string{
				"model_id":     modelID,
				"model_doc_id": doc.ID,
				"content":      text,
			},
		})
	}
	return items
}

// sectionSummaryItems indexes the chunked summaries of sections at the given
// heading level.
func sectionSummaryItems(modelID string, doc domain.ModelDoc, level int) []EmbedItem {
	var items []EmbedItem
	for _, section := range doc.Sections {
		if section.Level != level {
			continue
		}
		for i, text := range textutil.ChunkWords(section.Summary, textutil.DefaultChunkSize, textutil.DefaultChunkOverlap) {
			items = append(items, EmbedItem{
				PointID: fmt.Sprintf("doc_section_summary_level%d_%s_%d", level, section.ID, i),
				Text:    text,
				Payload: map[string]string{
					"model_id":   modelID,
					"section_id": section.ID,
					"content":    text,
				},
			})
		}
	}
	return items
}

// chunkQAItems indexes chunk questions or answers.
func chunkQAItems(modelID string, doc domain.ModelDoc, questions bool) []EmbedItem {
	var items []EmbedItem
	for _, section := range doc.Sections {
		for _, chunk := range section.Chunks {
			for _, qa := range chunk.QAs {
				role, text := "answer", qa.Answer
				if questions {
					role, text = "question", qa.Question
				}
				items = append(items, EmbedItem{
					PointID: fmt.Sprintf("chunk_%s_%s_%s", role, chunk.ID, qa.ID),
					Text:    text,
					Payload: map[string]string{
						"model_id": modelID,
						"chunk_id": chunk.ID,
						"qa_id":    qa.ID,
						"content":  text,
					},
				})
			}
		}
	}
	return items
}

// sectionQAItems indexes section questions or answers.
func sectionQAItems(modelID string, doc domain.ModelDoc, questions bool) []EmbedItem {
	var items []EmbedItem
	for _, section := range doc.Sections {
		for _, qa := range section.QAs {
			role, text := "answer", qa.Answer
			if questions {
				role, text = "question", qa.Question
			}
			items = append(items, EmbedItem{
				PointID: fmt.Sprintf("doc_section_%s_%s_%s", role, section.ID, qa.ID),
				Text:    text,
				Payload: map[string]string{
					"model_id":   modelID,
					"section_id": section.ID,
					"qa_id":      qa.ID,
					"content":    text,
				},
			})
		}
	}
	return items
}
