// Package workflows implements the durable orchestration logic of the model
// ingestion and spam-check pipelines. Workflow code is deterministic: all
// external effects go through activities, fan-out results are collected in
// issue order, and derived values (ids, object names, breadcrumbs) are pure
// functions of workflow input and recorded activity results.
package workflows

import (
	"fmt"
	"path"
	"strings"

	"github.com/simhub/model-ingestion-service/internal/domain"
)

// breadcrumbSeparator joins ancestor titles into the breadcrumb string.
const breadcrumbSeparator = " > "

// Child workflow id builders. Ids are derived from the model slug so that a
// re-triggered run collides with its in-flight predecessor instead of
// duplicating work.
func backupWorkflowID(slug string) string       { return fmt.Sprintf("backup-to-store-%s", slug) }
func metadataWorkflowID(slug string) string     { return fmt.Sprintf("ingest-metadata-%s", slug) }
func docsWorkflowID(slug string) string         { return fmt.Sprintf("ingest-docs-%s", slug) }
func codeWorkflowID(slug string) string         { return fmt.Sprintf("ingest-code-%s", slug) }
func metadataEmbedWorkflowID(slug string) string { return fmt.Sprintf("metadata-embeddings-%s", slug) }
func synthDataWorkflowID(slug string) string    { return fmt.Sprintf("doc-add-synth-data-%s", slug) }
func docEmbedWorkflowID(slug string) string     { return fmt.Sprintf("doc-embeddings-%s", slug) }
func spamCheckWorkflowID(recordID int64) string { return fmt.Sprintf("spam_check_%d", recordID) }

// Backup object names, all rooted at the model slug.
func metadataObjectName(slug string) string { return slug + "/metadata.json" }
func codeObjectPrefix(slug string) string   { return slug + "/code" }
func markdownObjectName(slug string) string { return slug + "/docs/model_docs.md" }
func imagesObjectPrefix(slug string) string { return slug + "/docs/images" }

func originalObjectName(slug, sourcePath string) string {
	return slug + "/docs/original/" + path.Base(sourcePath)
}

// breadcrumbText joins ancestor titles root-to-self.
func breadcrumbText(breadcrumb []string) string {
	return strings.Join(breadcrumb, breadcrumbSeparator)
}

// sectionContextText is the context-augmented text of a section.
func sectionContextText(breadcrumb []string, title, content string) string {
	return fmt.Sprintf("Context: %s\nTitle: %s\n\n%s", breadcrumbText(breadcrumb), title, content)
}

// chunkContextText is the context-augmented text of a chunk: its parent
// section's content, the breadcrumb, then the chunk itself.
func chunkContextText(sectionContent string, breadcrumb []string, chunkContent string) string {
	return fmt.Sprintf("%s\n\nContext: %s\n\n%s", sectionContent, breadcrumbText(breadcrumb), chunkContent)
}

// IngestModelResult is the result of the top-level ingestion workflow.
type IngestModelResult struct {
	// ModelID is the ingested model's id.
	ModelID string `json:"model_id"`
	// ModelDocID is the id of the persisted documentation tree.
	ModelDocID string `json:"model_doc_id"`
	// MetadataFields is the number of metadata fields embedded.
	MetadataFields int `json:"metadata_fields"`
	// VectorPoints is the total number of points upserted by the docs branch.
	VectorPoints int `json:"vector_points"`
}

// BackupResult reports where the backup workflow stored each artifact kind.
type BackupResult struct {
	// MetadataObjectName is the stored metadata file.
	MetadataObjectName string `json:"metadata_object_name"`
	// OriginalObjectName is the stored source document.
	OriginalObjectName string `json:"original_object_name"`
	// CodeObjectPrefix is the prefix the code folder was stored under, empty
	// when the input carried no code folder.
	CodeObjectPrefix string `json:"code_object_prefix,omitempty"`
}

// IngestMetadataResult is the result of the metadata branch.
type IngestMetadataResult struct {
	// ModelID is the persisted model's id.
	ModelID string `json:"model_id"`
	// FieldsEmbedded is the number of metadata fields embedded.
	FieldsEmbedded int `json:"fields_embedded"`
}

// IngestDocsResult is the result of the docs branch.
type IngestDocsResult struct {
	// ModelDocID is the id of the persisted documentation tree.
	ModelDocID string `json:"model_doc_id"`
	// Sections is the number of sections in the tree.
	Sections int `json:"sections"`
	// VectorPoints is the total number of points upserted across collections.
	VectorPoints int `json:"vector_points"`
}

// MetadataEmbeddingsInput is the input of the metadata embedding workflow.
type MetadataEmbeddingsInput struct {
	// ModelID keys the point ids.
	ModelID string `json:"model_id"`
	// Metadata is the record whose populated fields are embedded.
	Metadata domain.ModelMetadata `json:"metadata"`
}

// MetadataEmbeddingsResult is the result of the metadata embedding workflow.
type MetadataEmbeddingsResult struct {
	// FieldsEmbedded is the number of fields embedded and upserted.
	FieldsEmbedded int `json:"fields_embedded"`
}

// SyntheticDataInput is the input of the doc-level enrichment workflow.
type SyntheticDataInput struct {
	// Doc is the freshly split documentation tree.
	Doc domain.ModelDoc `json:"doc"`
}

// SyntheticDataResult carries the enriched documentation tree.
type SyntheticDataResult struct {
	// Doc is the tree with context, summaries, and Q&A filled in.
	Doc domain.ModelDoc `json:"doc"`
}

// SectionSynthInput is the input of the per-section enrichment workflow.
type SectionSynthInput struct {
	// Section is the section to enrich, including its chunks.
	Section domain.DocSection `json:"section"`
	// Breadcrumb is the ancestor title chain root-to-self.
	Breadcrumb []string `json:"breadcrumb"`
}

// SectionSynthResult carries the enriched section.
type SectionSynthResult struct {
	Section domain.DocSection `json:"section"`
}

// ChunksSynthInput is the input of the per-section chunk enrichment workflow.
type ChunksSynthInput struct {
	// Chunks are the section's chunks.
	Chunks []domain.Chunk `json:"chunks"`
	// SectionContent is the owning section's raw content.
	SectionContent string `json:"section_content"`
	// Breadcrumb is the owning section's breadcrumb.
	Breadcrumb []string `json:"breadcrumb"`
}

// ChunksSynthResult carries the enriched chunks, index-aligned with input.
type ChunksSynthResult struct {
	Chunks []domain.Chunk `json:"chunks"`
}

// ComputeEmbeddingsInput is the checkpointed state of the batch embedding
// workflow. A continue-as-new run carries the full text list, the index the
// next window starts at, and everything embedded so far.
type ComputeEmbeddingsInput struct {
	// Texts is the full input list, unchanged across continuations.
	Texts []string `json:"texts"`
	// StartIndex is where the next window begins.
	StartIndex int `json:"start_index"`
	// Accumulated holds the vectors for Texts[:StartIndex].
	Accumulated [][]float32 `json:"accumulated"`
}

// ComputeEmbeddingsResult is the completed, index-aligned embedding list.
type ComputeEmbeddingsResult struct {
	Vectors [][]float32 `json:"vectors"`
}

// DocEmbeddingsInput is the input of the collection population fan-out.
type DocEmbeddingsInput struct {
	// ModelID tags every point payload.
	ModelID string `json:"model_id"`
	// Doc is the enriched documentation tree.
	Doc domain.ModelDoc `json:"doc"`
}

// DocEmbeddingsResult is the aggregate of all collection populations.
type DocEmbeddingsResult struct {
	// PointsByCollection counts the upserted points per collection.
	PointsByCollection map[string]int `json:"points_by_collection"`
	// TotalPoints is the sum over all collections.
	TotalPoints int `json:"total_points"`
}

// EmbedItem is one text destined for a collection: the point id, the text to
// embed, and the point payload.
type EmbedItem struct {
	PointID string            `json:"point_id"`
	Text    string            `json:"text"`
	Payload map[string]string `json:"payload,omitempty"`
}

// PopulateCollectionInput is the input of one collection population run.
type PopulateCollectionInput struct {
	// Collection is the destination collection name.
	Collection string `json:"collection"`
	// Items are the texts to embed and upsert.
	Items []EmbedItem `json:"items"`
}

// PopulateCollectionResult is the result of one collection population run.
type PopulateCollectionResult struct {
	// Collection is the populated collection name.
	Collection string `json:"collection"`
	// Points is the number of points upserted.
	Points int `json:"points"`
}

// CheckSpamResult is the result of the spam-check batch workflow.
type CheckSpamResult struct {
	// Reports are the submitted verdicts, in batch order.
	Reports []domain.SpamReport `json:"reports"`
}

// SpamReportInput is the input of the per-item spam workflow.
type SpamReportInput struct {
	// Item is the moderation record to classify and report.
	Item domain.SpamCheckItem `json:"item"`
}
