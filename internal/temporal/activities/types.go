// Package activities provides the Temporal activity implementations for the
// model ingestion and spam-check pipelines.
//
// Activity inputs and outputs are serializable structs that cross the
// Temporal serialization boundary. Each activity receives an input struct
// and returns an output struct (or error). All fields must be exported for
// JSON serialization by the Temporal SDK's default data converter. Every
// write-path activity is idempotent under retries: object-store and
// vector-store writes are keyed by stable names, database writes upsert.
package activities

import (
	"github.com/simhub/model-ingestion-service/internal/domain"
)

// UploadFileInput contains the parameters for the file upload activity.
type UploadFileInput struct {
	// ObjectName is the destination object name in the backup bucket.
	ObjectName string

	// FilePath is the local path of the file to upload.
	FilePath string
}

// UploadFileOutput contains the result of the file upload activity.
type UploadFileOutput struct {
	// ObjectName is the object name the file was stored under.
	ObjectName string

	// Size is the number of bytes uploaded.
	Size int64
}

// UploadFolderInput contains the parameters for the folder upload activity.
type UploadFolderInput struct {
	// Prefix is the destination object-name prefix in the backup bucket.
	Prefix string

	// FolderPath is the local path of the folder to upload.
	FolderPath string
}

// UploadFolderOutput contains the result of the folder upload activity.
type UploadFolderOutput struct {
	// Files is the number of files uploaded.
	Files int

	// Size is the total number of bytes uploaded.
	Size int64
}

// CreateModelInput contains the parameters for the model persistence activity.
type CreateModelInput struct {
	// ExternalID is the model's identifier in the origin registry.
	ExternalID string

	// Metadata is the derived model metadata. Metadata.ID keys the model row.
	Metadata domain.ModelMetadata
}

// CreateModelOutput contains the result of the model persistence activity.
type CreateModelOutput struct {
	// ModelID is the id of the persisted model row.
	ModelID string
}

// SaveModelDocInput contains the parameters for the documentation persistence
// activity.
type SaveModelDocInput struct {
	// Doc is the enriched documentation tree to persist.
	Doc domain.ModelDoc
}

// UpsertVectorPointsInput contains the parameters for the vector upsert
// activity.
type UpsertVectorPointsInput struct {
	// Collection is the destination collection name.
	Collection string

	// Points are the vector points to upsert, keyed by stable ids.
	Points []domain.VectorPoint
}

// UpsertVectorPointsOutput contains the result of the vector upsert activity.
type UpsertVectorPointsOutput struct {
	// Upserted is the number of points written.
	Upserted int
}

// SummarizeTextInput contains the parameters for the summarization activity.
type SummarizeTextInput struct {
	// Text is the text to summarize.
	Text string
}

// SummarizeTextOutput contains the result of the summarization activity.
type SummarizeTextOutput struct {
	// Summary is the LLM-generated summary.
	Summary string
}

// GenerateQAPairsInput contains the parameters for the Q&A generation
// activity.
type GenerateQAPairsInput struct {
	// Text is the text to generate question/answer pairs from.
	Text string

	// MaxPairs caps the number of generated pairs. Defaults to 3.
	MaxPairs int
}

// QAPair is one generated question/answer pair.
type QAPair struct {
	// ID is a generated identifier, stable once the activity has succeeded.
	ID string

	// Question is the generated question.
	Question string

	// Answer is the generated answer.
	Answer string
}

// GenerateQAPairsOutput contains the result of the Q&A generation activity.
type GenerateQAPairsOutput struct {
	// Pairs are the generated pairs, at most MaxPairs of them.
	Pairs []QAPair
}

// ComputeEmbeddingInput contains the parameters for the embedding activity.
type ComputeEmbeddingInput struct {
	// Text is the text to embed. Empty text yields an empty vector without
	// an API call.
	Text string
}

// ComputeEmbeddingOutput contains the result of the embedding activity.
type ComputeEmbeddingOutput struct {
	// Vector is the embedding vector, empty for empty input text.
	Vector []float32
}

// ClassifySpamInput contains the parameters for the spam classification
// activity.
type ClassifySpamInput struct {
	// Item is the moderation record under review.
	Item domain.SpamCheckItem
}

// ClassifySpamOutput contains the result of the spam classification activity.
type ClassifySpamOutput struct {
	// Report is the classifier's verdict.
	Report domain.LLMSpamReport
}

// DeriveModelMetadataInput contains the parameters for the metadata
// derivation activity.
type DeriveModelMetadataInput struct {
	// ModelID is the id the derived metadata record is keyed by.
	ModelID string

	// MetadataJSONPath is the local path of the model's codemeta file.
	MetadataJSONPath string
}

// DeriveModelMetadataOutput contains the result of the metadata derivation
// activity.
type DeriveModelMetadataOutput struct {
	// Metadata is the derived metadata record.
	Metadata domain.ModelMetadata
}

// ConvertDocInput contains the parameters for the document conversion
// activity.
type ConvertDocInput struct {
	// SourcePath is the local path of the source document (PDF or markdown).
	SourcePath string
}

// ConvertDocOutput contains the result of the document conversion activity.
type ConvertDocOutput struct {
	// MarkdownPath is the local path of the converted markdown file.
	MarkdownPath string

	// ImagesDir is the local path of the extracted images directory.
	ImagesDir string
}

// SplitMarkdownInput contains the parameters for the section split activity.
type SplitMarkdownInput struct {
	// MarkdownPath is the local path of the markdown file to split.
	MarkdownPath string
}

// SplitMarkdownOutput contains the result of the section split activity.
type SplitMarkdownOutput struct {
	// ModelDocID is the generated id of the documentation tree.
	ModelDocID string

	// Sections is the flat section arena, parent links by id.
	Sections []domain.DocSection
}

// FetchSpamBatchOutput contains the result of the batch fetch activity.
type FetchSpamBatchOutput struct {
	// Items are the moderation records awaiting a verdict.
	Items []domain.SpamCheckItem
}

// SubmitSpamReportInput contains the parameters for the report submission
// activity.
type SubmitSpamReportInput struct {
	// Report is the verdict to submit, keyed by the moderation record id.
	Report domain.SpamReport
}

// SubmitSpamReportOutput contains the result of the report submission
// activity.
type SubmitSpamReportOutput struct {
	// Accepted reports whether the registry applied the report. A false
	// value is a logical rejection, not a transport failure.
	Accepted bool
}

// PublishEventInput contains the parameters for the event publish activity.
type PublishEventInput struct {
	// EventType is the domain event type (e.g. "model.ingested").
	EventType string

	// AggregateID identifies the event subject.
	AggregateID string

	// Payload is the event-specific body.
	Payload map[string]string
}
