package domain

import "fmt"

// VectorPoint is one embedding destined for a vector collection. ID encodes
// the point's provenance (owning entity and role) and is stable across
// retries, so upserting the same point twice overwrites rather than
// duplicates.
type VectorPoint struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Embedding collection names. One collection per retrieval angle over the
// documentation tree, plus one for metadata fields. Section-summary
// collections are suffixed with the heading level they index.
const (
	CollectionModelMetadata       = "model_metadata_embeddings"
	CollectionChunks              = "Chunks"
	CollectionModelDocSummary     = "ModelDocSummaryChunks"
	CollectionChunkQuestions      = "ChunkQuestions"
	CollectionChunkAnswers        = "ChunkAnswers"
	CollectionDocSectionQuestions = "DocSectionQuestions"
	CollectionDocSectionAnswers   = "DocSectionAnswers"
)

// CollectionDocSectionSummary returns the collection name for section
// summaries at the given heading level.
func CollectionDocSectionSummary(level int) string {
	return fmt.Sprintf("DocSectionSummaryChunksLevel%d", level)
}
