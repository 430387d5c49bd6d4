package workflows

import (
	"fmt"
	"strings"

	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// GenerateSyntheticDataForModelDocWorkflow enriches a freshly split
// documentation tree: every section (and its chunks) gets context-augmented
// text, an LLM summary, and Q&A pairs, and the doc itself gets a summary
// synthesized from the section summaries. Sections are processed
// concurrently as child workflows and merged back by arena index, so the
// enriched tree is independent of completion order.
func GenerateSyntheticDataForModelDocWorkflow(ctx workflow.Context, input SyntheticDataInput) (*SyntheticDataResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("enriching model doc",
		"modelDocID", input.Doc.ID,
		"sections", len(input.Doc.Sections),
	)

	doc := input.Doc

	// Fan out one child per section, in arena order. Breadcrumbs are a pure
	// function of the arena, identical on every replay.
	futures := make([]workflow.ChildWorkflowFuture, len(doc.Sections))
	for i := range doc.Sections {
		futures[i] = workflow.ExecuteChildWorkflow(ctx, GenerateSyntheticDataForDocSectionWorkflow, SectionSynthInput{
			Section:    doc.Sections[i],
			Breadcrumb: doc.Breadcrumb(doc.Sections[i].ID),
		})
	}

	for i, future := range futures {
		var result SectionSynthResult
		if err := future.Get(ctx, &result); err != nil {
			return nil, fmt.Errorf("enrich section %q: %w", doc.Sections[i].ID, err)
		}
		doc.Sections[i] = result.Section
	}

	// Synthesize the doc summary from the section summaries.
	var sectionSummaries []string
	for i := range doc.Sections {
		if doc.Sections[i].Summary != "" {
			sectionSummaries = append(sectionSummaries, doc.Sections[i].Summary)
		}
	}

	if len(sectionSummaries) > 0 {
		var llmAct *activities.LLMActivities
		var summarized activities.SummarizeTextOutput
		err := workflow.ExecuteActivity(withLLMOptions(ctx), llmAct.SummarizeText, activities.SummarizeTextInput{
			Text: strings.Join(sectionSummaries, "\n\n"),
		}).Get(ctx, &summarized)
		if err != nil {
			return nil, fmt.Errorf("summarize model doc: %w", err)
		}
		doc.Summary = summarized.Summary
	}

	logger.Info("model doc enriched", "modelDocID", doc.ID)

	return &SyntheticDataResult{Doc: doc}, nil
}

// GenerateSyntheticDataForDocSectionWorkflow enriches one section: the
// context-augmented text is computed from the breadcrumb, while the summary,
// the Q&A pairs, and the chunk enrichment run concurrently and merge back
// into the section without touching fields they did not produce.
func GenerateSyntheticDataForDocSectionWorkflow(ctx workflow.Context, input SectionSynthInput) (*SectionSynthResult, error) {
	section := input.Section
	section.ContentWithContext = sectionContextText(input.Breadcrumb, section.Title, section.Content)

	var llmAct *activities.LLMActivities
	llmCtx := withLLMOptions(ctx)

	hasContent := strings.TrimSpace(section.Content) != ""

	var summaryFuture, qaFuture workflow.Future
	if hasContent {
		summaryFuture = workflow.ExecuteActivity(llmCtx, llmAct.SummarizeText, activities.SummarizeTextInput{
			Text: section.Content,
		})
		qaFuture = workflow.ExecuteActivity(llmCtx, llmAct.GenerateQAPairs, activities.GenerateQAPairsInput{
			Text: section.Content,
		})
	}

	var chunksFuture workflow.ChildWorkflowFuture
	if len(section.Chunks) > 0 {
		chunksFuture = workflow.ExecuteChildWorkflow(ctx, GenerateSyntheticDataForChunksWorkflow, ChunksSynthInput{
			Chunks:         section.Chunks,
			SectionContent: section.Content,
			Breadcrumb:     input.Breadcrumb,
		})
	}

	if summaryFuture != nil {
		var summarized activities.SummarizeTextOutput
		if err := summaryFuture.Get(ctx, &summarized); err != nil {
			return nil, fmt.Errorf("summarize section %q: %w", section.ID, err)
		}
		section.Summary = summarized.Summary
	}

	if qaFuture != nil {
		var generated activities.GenerateQAPairsOutput
		if err := qaFuture.Get(ctx, &generated); err != nil {
			return nil, fmt.Errorf("generate section QAs for %q: %w", section.ID, err)
		}
		section.QAs = make([]domain.DocSectionQA, len(generated.Pairs))
		for i, pair := range generated.Pairs {
			section.QAs[i] = domain.DocSectionQA{
				ID:        pair.ID,
				SectionID: section.ID,
				Question:  pair.Question,
				Answer:    pair.Answer,
			}
		}
	}

	if chunksFuture != nil {
		var enriched ChunksSynthResult
		if err := chunksFuture.Get(ctx, &enriched); err != nil {
			return nil, fmt.Errorf("enrich chunks of section %q: %w", section.ID, err)
		}
		section.Chunks = enriched.Chunks
	}

	return &SectionSynthResult{Section: section}, nil
}

// GenerateSyntheticDataForChunksWorkflow enriches a section's chunks. All
// chunk summaries and Q&A generations are issued concurrently and collected
// by chunk index.
func GenerateSyntheticDataForChunksWorkflow(ctx workflow.Context, input ChunksSynthInput) (*ChunksSynthResult, error) {
	chunks := make([]domain.Chunk, len(input.Chunks))
	copy(chunks, input.Chunks)

	var llmAct *activities.LLMActivities
	llmCtx := withLLMOptions(ctx)

	summaryFutures := make([]workflow.Future, len(chunks))
	qaFutures := make([]workflow.Future, len(chunks))

	for i := range chunks {
		chunks[i].ContentWithContext = chunkContextText(input.SectionContent, input.Breadcrumb, chunks[i].Content)

		if strings.TrimSpace(chunks[i].Content) == "" {
			continue
		}
		summaryFutures[i] = workflow.ExecuteActivity(llmCtx, llmAct.SummarizeText, activities.SummarizeTextInput{
			Text: chunks[i].Content,
		})
		qaFutures[i] = workflow.ExecuteActivity(llmCtx, llmAct.GenerateQAPairs, activities.GenerateQAPairsInput{
			Text: chunks[i].Content,
		})
	}

	for i := range chunks {
		if summaryFutures[i] == nil {
			continue
		}

		var summarized activities.SummarizeTextOutput
		if err := summaryFutures[i].Get(ctx, &summarized); err != nil {
			return nil, fmt.Errorf("summarize chunk %q: %w", chunks[i].ID, err)
		}
		chunks[i].Summary = summarized.Summary

		var generated activities.GenerateQAPairsOutput
		if err := qaFutures[i].Get(ctx, &generated); err != nil {
			return nil, fmt.Errorf("generate chunk QAs for %q: %w", chunks[i].ID, err)
		}
		chunks[i].QAs = make([]domain.ChunkQA, len(generated.Pairs))
		for j, pair := range generated.Pairs {
			chunks[i].QAs[j] = domain.ChunkQA{
				ID:       pair.ID,
				ChunkID:  chunks[i].ID,
				Question: pair.Question,
				Answer:   pair.Answer,
			}
		}
	}

	return &ChunksSynthResult{Chunks: chunks}, nil
}
