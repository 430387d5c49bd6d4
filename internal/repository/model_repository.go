package repository

import (
	"context"

	"github.com/simhub/model-ingestion-service/internal/domain"
)

// ModelRepository manages persistence of scientific models, their metadata
// and their documentation trees.
type ModelRepository interface {
	// CreateModelFromMetadata inserts a new model together with its metadata
	// record, or updates the metadata if a model with the same ID already
	// exists. The returned model carries the persisted metadata but no
	// documentation tree.
	//
	// Returns domain.ErrInvalidInput if metadata is nil or has no ID.
	CreateModelFromMetadata(ctx context.Context, externalID string, metadata *domain.ModelMetadata) (*domain.Model, error)

	// GetModel retrieves a model and its metadata by model ID.
	//
	// Returns domain.ErrNotFound if no model with the given ID exists.
	GetModel(ctx context.Context, id string) (*domain.Model, error)

	// SaveModelDoc persists a documentation tree, replacing any previously
	// stored tree for the same model. Sections, chunks and question/answer
	// pairs are written in arena order so reads reconstruct the exact tree
	// that was saved.
	//
	// Callers that need atomicity should run this inside a transaction via
	// database.DB.WithTransaction and a transactional repository instance.
	//
	// Returns domain.ErrInvalidInput if doc is nil or has no ID or model ID.
	SaveModelDoc(ctx context.Context, doc *domain.ModelDoc) error

	// GetModelDoc retrieves the documentation tree for a model, with sections
	// and chunks in the order they were saved.
	//
	// Returns domain.ErrNotFound if the model has no stored documentation.
	GetModelDoc(ctx context.Context, modelID string) (*domain.ModelDoc, error)

	// ListModels retrieves models matching the filter, most recently created
	// first. Documentation trees are not loaded.
	ListModels(ctx context.Context, filter ModelFilter) ([]*domain.Model, error)
}

// ModelFilter contains filtering options for listing models.
type ModelFilter struct {
	// ExternalID filters by the identifier of the model in the origin
	// registry. Empty means no filtering.
	ExternalID string

	// Limit is the maximum number of results (default 100, max 1000).
	Limit int

	// Offset is the number of results to skip for pagination.
	Offset int
}
