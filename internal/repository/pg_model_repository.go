package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/simhub/model-ingestion-service/internal/domain"
)

// Compile-time interface verification.
var _ ModelRepository = (*PgModelRepository)(nil)

// PgModelRepository is a PostgreSQL implementation of ModelRepository.
type PgModelRepository struct {
	db DBTX
}

// NewPgModelRepository creates a new PostgreSQL model repository.
func NewPgModelRepository(db DBTX) *PgModelRepository {
	return &PgModelRepository{db: db}
}

// CreateModelFromMetadata inserts a new model and its metadata record, or
// updates the metadata if the model already exists.
func (r *PgModelRepository) CreateModelFromMetadata(ctx context.Context, externalID string, metadata *domain.ModelMetadata) (*domain.Model, error) {
	if metadata == nil {
		return nil, domain.NewValidationError("metadata", "metadata cannot be nil")
	}
	if metadata.ID == "" {
		return nil, domain.NewValidationError("id", "model ID is required")
	}

	languagesJSON, err := json.Marshal(metadata.ProgrammingLanguages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal programming languages: %w", err)
	}
	authorsJSON, err := json.Marshal(metadata.Authors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authors: %w", err)
	}
	categoriesJSON, err := json.Marshal(metadata.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}
	tagsJSON, err := json.Marshal(metadata.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := time.Now().UTC()

	modelQuery := `
		INSERT INTO models (id, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, modelQuery, metadata.ID, externalID, now); err != nil {
		return nil, fmt.Errorf("failed to upsert model: %w", err)
	}

	metadataQuery := `
		INSERT INTO model_metadata (
			model_id, name, abstract, description, version, url, identifier,
			date_created, date_modified, keywords, citation, license,
			release_notes, publisher_id, programming_languages, authors,
			categories, tags, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19
		)
		ON CONFLICT (model_id) DO UPDATE SET
			name = EXCLUDED.name,
			abstract = EXCLUDED.abstract,
			description = EXCLUDED.description,
			version = EXCLUDED.version,
			url = EXCLUDED.url,
			identifier = EXCLUDED.identifier,
			date_created = EXCLUDED.date_created,
			date_modified = EXCLUDED.date_modified,
			keywords = EXCLUDED.keywords,
			citation = EXCLUDED.citation,
			license = EXCLUDED.license,
			release_notes = EXCLUDED.release_notes,
			publisher_id = EXCLUDED.publisher_id,
			programming_languages = EXCLUDED.programming_languages,
			authors = EXCLUDED.authors,
			categories = EXCLUDED.categories,
			tags = EXCLUDED.tags,
			updated_at = NOW()`

	_, err = r.db.Exec(ctx, metadataQuery,
		metadata.ID,
		metadata.Name,
		metadata.Abstract,
		metadata.Description,
		metadata.Version,
		metadata.URL,
		metadata.Identifier,
		metadata.DateCreated,
		metadata.DateModified,
		metadata.Keywords,
		metadata.Citation,
		metadata.License,
		metadata.ReleaseNotes,
		metadata.PublisherID,
		languagesJSON,
		authorsJSON,
		categoriesJSON,
		tagsJSON,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert model metadata: %w", err)
	}

	return &domain.Model{
		ID:         metadata.ID,
		ExternalID: externalID,
		Metadata:   *metadata,
	}, nil
}

// GetModel retrieves a model and its metadata by model ID.
func (r *PgModelRepository) GetModel(ctx context.Context, id string) (*domain.Model, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "model ID is required")
	}

	query := `
		SELECT m.id, m.external_id,
			md.name, md.abstract, md.description, md.version, md.url,
			md.identifier, md.date_created, md.date_modified, md.keywords,
			md.citation, md.license, md.release_notes, md.publisher_id,
			md.programming_languages, md.authors, md.categories, md.tags
		FROM models m
		INNER JOIN model_metadata md ON md.model_id = m.id
		WHERE m.id = $1`

	row := r.db.QueryRow(ctx, query, id)
	model, err := scanModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("model", id)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return model, nil
}

// ListModels retrieves models matching the filter, most recently created first.
func (r *PgModelRepository) ListModels(ctx context.Context, filter ModelFilter) ([]*domain.Model, error) {
	applyPaginationDefaults(&filter.Limit, &filter.Offset)

	query := `
		SELECT m.id, m.external_id,
			md.name, md.abstract, md.description, md.version, md.url,
			md.identifier, md.date_created, md.date_modified, md.keywords,
			md.citation, md.license, md.release_notes, md.publisher_id,
			md.programming_languages, md.authors, md.categories, md.tags
		FROM models m
		INNER JOIN model_metadata md ON md.model_id = m.id`

	args := []interface{}{}
	argIndex := 1

	if filter.ExternalID != "" {
		query += fmt.Sprintf(" WHERE m.external_id = $%d", argIndex)
		args = append(args, filter.ExternalID)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []*domain.Model
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating models: %w", err)
	}

	return models, nil
}

// SaveModelDoc persists a documentation tree, replacing any previously stored
// tree for the same model.
func (r *PgModelRepository) SaveModelDoc(ctx context.Context, doc *domain.ModelDoc) error {
	if doc == nil {
		return domain.NewValidationError("doc", "doc cannot be nil")
	}
	if doc.ID == "" {
		return domain.NewValidationError("id", "doc ID is required")
	}
	if doc.ModelID == "" {
		return domain.NewValidationError("model_id", "model ID is required")
	}

	now := time.Now().UTC()

	// Replace any previous tree; sections, chunks and QA pairs cascade.
	if _, err := r.db.Exec(ctx, `DELETE FROM model_docs WHERE model_id = $1`, doc.ModelID); err != nil {
		return fmt.Errorf("failed to delete previous model doc: %w", err)
	}

	docQuery := `
		INSERT INTO model_docs (
			id, model_id, summary, original_object_name, markdown_object_name,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)`

	_, err := r.db.Exec(ctx, docQuery,
		doc.ID, doc.ModelID, doc.Summary,
		doc.OriginalObjectName, doc.MarkdownObjectName, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert model doc: %w", err)
	}

	sectionQuery := `
		INSERT INTO doc_sections (
			id, model_doc_id, parent_id, title, level, content,
			content_with_context, summary, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	chunkQuery := `
		INSERT INTO chunks (
			id, section_id, chunk_type, content, content_with_context,
			summary, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	chunkQAQuery := `
		INSERT INTO chunk_qas (id, chunk_id, question, answer, position)
		VALUES ($1, $2, $3, $4, $5)`
	sectionQAQuery := `
		INSERT INTO doc_section_qas (id, section_id, question, answer, position)
		VALUES ($1, $2, $3, $4, $5)`

	for i := range doc.Sections {
		section := &doc.Sections[i]
		_, err := r.db.Exec(ctx, sectionQuery,
			section.ID, doc.ID, section.ParentID, section.Title, section.Level,
			section.Content, section.ContentWithContext, section.Summary, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert section %s: %w", section.ID, err)
		}

		for j, chunk := range section.Chunks {
			_, err := r.db.Exec(ctx, chunkQuery,
				chunk.ID, section.ID, string(chunk.Type), chunk.Content,
				chunk.ContentWithContext, chunk.Summary, j,
			)
			if err != nil {
				return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
			}

			for k, qa := range chunk.QAs {
				_, err := r.db.Exec(ctx, chunkQAQuery, qa.ID, chunk.ID, qa.Question, qa.Answer, k)
				if err != nil {
					return fmt.Errorf("failed to insert chunk QA %s: %w", qa.ID, err)
				}
			}
		}

		for k, qa := range section.QAs {
			_, err := r.db.Exec(ctx, sectionQAQuery, qa.ID, section.ID, qa.Question, qa.Answer, k)
			if err != nil {
				return fmt.Errorf("failed to insert section QA %s: %w", qa.ID, err)
			}
		}
	}

	return nil
}

// GetModelDoc retrieves the documentation tree for a model.
func (r *PgModelRepository) GetModelDoc(ctx context.Context, modelID string) (*domain.ModelDoc, error) {
	if modelID == "" {
		return nil, domain.NewValidationError("model_id", "model ID is required")
	}

	docQuery := `
		SELECT id, model_id, summary, original_object_name, markdown_object_name
		FROM model_docs
		WHERE model_id = $1`

	doc := &domain.ModelDoc{}
	err := r.db.QueryRow(ctx, docQuery, modelID).Scan(
		&doc.ID, &doc.ModelID, &doc.Summary,
		&doc.OriginalObjectName, &doc.MarkdownObjectName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("model doc", modelID)
		}
		return nil, fmt.Errorf("failed to get model doc: %w", err)
	}

	if err := r.loadSections(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadChunks(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadQAs(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// loadSections fills the doc's section arena in saved order.
func (r *PgModelRepository) loadSections(ctx context.Context, doc *domain.ModelDoc) error {
	query := `
		SELECT id, parent_id, title, level, content, content_with_context, summary
		FROM doc_sections
		WHERE model_doc_id = $1
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		section := domain.DocSection{ModelDocID: doc.ID}
		err := rows.Scan(
			&section.ID, &section.ParentID, &section.Title, &section.Level,
			&section.Content, &section.ContentWithContext, &section.Summary,
		)
		if err != nil {
			return fmt.Errorf("failed to scan section: %w", err)
		}
		doc.Sections = append(doc.Sections, section)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating sections: %w", err)
	}

	return nil
}

// loadChunks attaches chunks to their sections in saved order.
func (r *PgModelRepository) loadChunks(ctx context.Context, doc *domain.ModelDoc) error {
	query := `
		SELECT c.id, c.section_id, c.chunk_type, c.content, c.content_with_context, c.summary
		FROM chunks c
		INNER JOIN doc_sections s ON c.section_id = s.id
		WHERE s.model_doc_id = $1
		ORDER BY s.position, c.position`

	rows, err := r.db.Query(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	sectionIndex := make(map[string]int, len(doc.Sections))
	for i := range doc.Sections {
		sectionIndex[doc.Sections[i].ID] = i
	}

	for rows.Next() {
		var chunk domain.Chunk
		var chunkType string
		err := rows.Scan(
			&chunk.ID, &chunk.SectionID, &chunkType,
			&chunk.Content, &chunk.ContentWithContext, &chunk.Summary,
		)
		if err != nil {
			return fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Type = domain.ChunkType(chunkType)

		idx, ok := sectionIndex[chunk.SectionID]
		if !ok {
			return fmt.Errorf("chunk %s references unknown section %s", chunk.ID, chunk.SectionID)
		}
		doc.Sections[idx].Chunks = append(doc.Sections[idx].Chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating chunks: %w", err)
	}

	return nil
}

// loadQAs attaches question/answer pairs to sections and chunks.
func (r *PgModelRepository) loadQAs(ctx context.Context, doc *domain.ModelDoc) error {
	sectionIndex := make(map[string]int, len(doc.Sections))
	chunkIndex := make(map[string][2]int)
	for i := range doc.Sections {
		sectionIndex[doc.Sections[i].ID] = i
		for j := range doc.Sections[i].Chunks {
			chunkIndex[doc.Sections[i].Chunks[j].ID] = [2]int{i, j}
		}
	}

	sectionQAQuery := `
		SELECT q.id, q.section_id, q.question, q.answer
		FROM doc_section_qas q
		INNER JOIN doc_sections s ON q.section_id = s.id
		WHERE s.model_doc_id = $1
		ORDER BY s.position, q.position`

	rows, err := r.db.Query(ctx, sectionQAQuery, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to query section QAs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qa domain.DocSectionQA
		if err := rows.Scan(&qa.ID, &qa.SectionID, &qa.Question, &qa.Answer); err != nil {
			return fmt.Errorf("failed to scan section QA: %w", err)
		}
		idx, ok := sectionIndex[qa.SectionID]
		if !ok {
			return fmt.Errorf("QA %s references unknown section %s", qa.ID, qa.SectionID)
		}
		doc.Sections[idx].QAs = append(doc.Sections[idx].QAs, qa)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating section QAs: %w", err)
	}
	rows.Close()

	chunkQAQuery := `
		SELECT q.id, q.chunk_id, q.question, q.answer
		FROM chunk_qas q
		INNER JOIN chunks c ON q.chunk_id = c.id
		INNER JOIN doc_sections s ON c.section_id = s.id
		WHERE s.model_doc_id = $1
		ORDER BY s.position, c.position, q.position`

	rows, err = r.db.Query(ctx, chunkQAQuery, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to query chunk QAs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qa domain.ChunkQA
		if err := rows.Scan(&qa.ID, &qa.ChunkID, &qa.Question, &qa.Answer); err != nil {
			return fmt.Errorf("failed to scan chunk QA: %w", err)
		}
		pos, ok := chunkIndex[qa.ChunkID]
		if !ok {
			return fmt.Errorf("QA %s references unknown chunk %s", qa.ID, qa.ChunkID)
		}
		chunk := &doc.Sections[pos[0]].Chunks[pos[1]]
		chunk.QAs = append(chunk.QAs, qa)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating chunk QAs: %w", err)
	}

	return nil
}

// scanModel scans a model row with joined metadata columns.
func scanModel(row pgx.Row) (*domain.Model, error) {
	model := &domain.Model{}
	md := &model.Metadata

	var languagesJSON, authorsJSON, categoriesJSON, tagsJSON []byte

	err := row.Scan(
		&model.ID, &model.ExternalID,
		&md.Name, &md.Abstract, &md.Description, &md.Version, &md.URL,
		&md.Identifier, &md.DateCreated, &md.DateModified, &md.Keywords,
		&md.Citation, &md.License, &md.ReleaseNotes, &md.PublisherID,
		&languagesJSON, &authorsJSON, &categoriesJSON, &tagsJSON,
	)
	if err != nil {
		return nil, err
	}
	md.ID = model.ID

	if len(languagesJSON) > 0 {
		if err := json.Unmarshal(languagesJSON, &md.ProgrammingLanguages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal programming languages: %w", err)
		}
	}
	if len(authorsJSON) > 0 {
		if err := json.Unmarshal(authorsJSON, &md.Authors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authors: %w", err)
		}
	}
	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &md.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &md.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}

	return model, nil
}
