package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// embeddingBatchSize is the number of texts embedded per execution before
// the workflow continues as new.
const embeddingBatchSize = 10

// ComputeEmbeddingsWorkflow embeds an arbitrary-length text list, one
// fixed-size window per execution. The window's activities run concurrently
// and are collected by index, so the output is index-aligned with the input
// regardless of completion order. When texts remain past the window, the
// workflow continues as new carrying the accumulated vectors, which bounds
// durable history for any input size. Empty input returns an empty result
// without scheduling any activities.
func ComputeEmbeddingsWorkflow(ctx workflow.Context, input ComputeEmbeddingsInput) (*ComputeEmbeddingsResult, error) {
	logger := workflow.GetLogger(ctx)

	if len(input.Texts) == 0 {
		return &ComputeEmbeddingsResult{Vectors: [][]float32{}}, nil
	}
	if input.StartIndex < 0 || input.StartIndex > len(input.Texts) {
		return nil, fmt.Errorf("start index %d out of range for %d texts", input.StartIndex, len(input.Texts))
	}

	end := input.StartIndex + embeddingBatchSize
	if end > len(input.Texts) {
		end = len(input.Texts)
	}

	logger.Info("embedding batch window",
		"startIndex", input.StartIndex,
		"endIndex", end,
		"total", len(input.Texts),
	)

	var llmAct *activities.LLMActivities
	embedCtx := withEmbeddingOptions(ctx)

	window := input.Texts[input.StartIndex:end]
	futures := make([]workflow.Future, len(window))
	for i, text := range window {
		futures[i] = workflow.ExecuteActivity(embedCtx, llmAct.ComputeEmbedding, activities.ComputeEmbeddingInput{
			Text: text,
		})
	}

	accumulated := input.Accumulated
	for i, future := range futures {
		var output activities.ComputeEmbeddingOutput
		if err := future.Get(ctx, &output); err != nil {
			return nil, fmt.Errorf("embed text at index %d: %w", input.StartIndex+i, err)
		}
		accumulated = append(accumulated, output.Vector)
	}

	if end < len(input.Texts) {
		return nil, workflow.NewContinueAsNewError(ctx, ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{
			Texts:       input.Texts,
			StartIndex:  end,
			Accumulated: accumulated,
		})
	}

	return &ComputeEmbeddingsResult{Vectors: accumulated}, nil
}
