package activities

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/docconv"
	"github.com/simhub/model-ingestion-service/internal/observability"
)

// DocActivities provides Temporal activities for document conversion and
// section splitting.
type DocActivities struct {
	metrics *observability.Metrics
}

// NewDocActivities creates a new DocActivities instance.
// The metrics parameter may be nil (metrics recording will be skipped).
func NewDocActivities(metrics *observability.Metrics) *DocActivities {
	return &DocActivities{metrics: metrics}
}

// ConvertDocToMarkdown converts the source document into markdown plus an
// extracted-images directory under a fresh temp directory. A retried attempt
// writes a new temp directory; only the recorded output of the succeeding
// attempt is used downstream.
func (a *DocActivities) ConvertDocToMarkdown(ctx context.Context, input ConvertDocInput) (*ConvertDocOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("converting document", "sourcePath", input.SourcePath)

	outputDir, err := os.MkdirTemp("", "modeldoc-*")
	if err != nil {
		return nil, fmt.Errorf("create conversion output dir: %w", err)
	}

	result, err := docconv.ConvertToMarkdown(input.SourcePath, outputDir)
	if err != nil {
		logger.Error("document conversion failed", "sourcePath", input.SourcePath, "error", err)
		return nil, fmt.Errorf("convert %q to markdown: %w", input.SourcePath, err)
	}

	logger.Info("document converted",
		"markdownPath", result.MarkdownPath,
		"imagesDir", result.ImagesDir,
	)

	return &ConvertDocOutput{
		MarkdownPath: result.MarkdownPath,
		ImagesDir:    result.ImagesDir,
	}, nil
}

// SplitMarkdown splits the markdown file into the flat section arena and
// assigns the documentation tree its id. Ids are generated here so they are
// recorded in workflow history and stable across replays.
func (a *DocActivities) SplitMarkdown(ctx context.Context, input SplitMarkdownInput) (*SplitMarkdownOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("splitting markdown", "markdownPath", input.MarkdownPath)

	data, err := os.ReadFile(input.MarkdownPath)
	if err != nil {
		return nil, fmt.Errorf("read markdown file %q: %w", input.MarkdownPath, err)
	}

	docID := uuid.NewString()
	sections, err := docconv.SplitIntoSections(docID, data, docconv.SplitOptions{})
	if err != nil {
		logger.Error("markdown split failed", "markdownPath", input.MarkdownPath, "error", err)
		return nil, fmt.Errorf("split %q into sections: %w", input.MarkdownPath, err)
	}

	var chunks int
	for _, s := range sections {
		chunks += len(s.Chunks)
	}

	if a.metrics != nil {
		a.metrics.RecordDocumentSplit(len(sections), chunks)
	}

	logger.Info("markdown split", "sections", len(sections), "chunks", chunks)

	return &SplitMarkdownOutput{
		ModelDocID: docID,
		Sections:   sections,
	}, nil
}
