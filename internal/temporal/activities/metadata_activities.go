package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/domain"
)

// MetadataActivities provides the activity that derives a ModelMetadata
// record from the model's codemeta file.
type MetadataActivities struct{}

// NewMetadataActivities creates a new MetadataActivities instance.
func NewMetadataActivities() *MetadataActivities {
	return &MetadataActivities{}
}

// DeriveModelMetadata reads the codemeta JSON file and maps it onto a
// ModelMetadata record keyed by the input model id. Derivation is a pure
// function of the file contents apart from generated relation ids, which
// are fixed once the activity result is recorded.
func (a *MetadataActivities) DeriveModelMetadata(ctx context.Context, input DeriveModelMetadataInput) (*DeriveModelMetadataOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("deriving model metadata",
		"modelID", input.ModelID,
		"path", input.MetadataJSONPath,
	)

	data, err := os.ReadFile(input.MetadataJSONPath)
	if err != nil {
		return nil, fmt.Errorf("read metadata file %q: %w", input.MetadataJSONPath, err)
	}

	var doc codemetaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse codemeta file %q: %w", input.MetadataJSONPath, err)
	}

	metadata := doc.toMetadata(input.ModelID)

	logger.Info("model metadata derived",
		"modelID", input.ModelID,
		"name", metadata.Name,
		"authors", len(metadata.Authors),
		"languages", len(metadata.ProgrammingLanguages),
	)

	return &DeriveModelMetadataOutput{Metadata: metadata}, nil
}

// codemetaDoc mirrors the subset of the codemeta vocabulary the service
// consumes. Producers disagree on scalar-vs-list shapes for several fields,
// so those use tolerant wrapper types.
type codemetaDoc struct {
	Name                string           `json:"name"`
	Abstract            string           `json:"abstract"`
	Description         string           `json:"description"`
	Version             string           `json:"version"`
	URL                 string           `json:"url"`
	CodeRepository      string           `json:"codeRepository"`
	Identifier          string           `json:"identifier"`
	DateCreated         string           `json:"dateCreated"`
	DateModified        string           `json:"dateModified"`
	Keywords            nameList         `json:"keywords"`
	Citation            string           `json:"citation"`
	License             string           `json:"license"`
	ReleaseNotes        string           `json:"releaseNotes"`
	ProgrammingLanguage nameList         `json:"programmingLanguage"`
	ApplicationCategory nameList         `json:"applicationCategory"`
	Author              []codemetaPerson `json:"author"`
	Publisher           codemetaOrg      `json:"publisher"`
}

type codemetaPerson struct {
	ID          string      `json:"@id"`
	GivenName   string      `json:"givenName"`
	FamilyName  string      `json:"familyName"`
	Email       string      `json:"email"`
	Affiliation codemetaOrg `json:"affiliation"`
}

type codemetaOrg struct {
	ID   string `json:"@id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// nameList accepts a bare string, an object with a "name", or a list of
// either, and flattens to the names.
type nameList []string

func (l *nameList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		names := make(nameList, 0, len(raw))
		for _, item := range raw {
			name, err := decodeName(item)
			if err != nil {
				return err
			}
			if name != "" {
				names = append(names, name)
			}
		}
		*l = names
		return nil
	}

	name, err := decodeName(data)
	if err != nil {
		return err
	}
	if name == "" {
		*l = nil
		return nil
	}
	*l = nameList{name}
	return nil
}

func decodeName(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("expected string or object with name, got %s", string(data))
	}
	return strings.TrimSpace(obj.Name), nil
}

// toMetadata maps the codemeta document onto the domain record.
func (d codemetaDoc) toMetadata(modelID string) domain.ModelMetadata {
	metadata := domain.ModelMetadata{
		ID:           modelID,
		Name:         d.Name,
		Abstract:     d.Abstract,
		Description:  d.Description,
		Version:      d.Version,
		URL:          d.URL,
		Identifier:   d.Identifier,
		DateCreated:  d.DateCreated,
		DateModified: d.DateModified,
		Keywords:     strings.Join(d.Keywords, ", "),
		Citation:     d.Citation,
		License:      d.License,
		ReleaseNotes: d.ReleaseNotes,
	}

	if metadata.URL == "" {
		metadata.URL = d.CodeRepository
	}

	if d.Publisher.ID != "" {
		metadata.PublisherID = d.Publisher.ID
	} else {
		metadata.PublisherID = d.Publisher.Name
	}

	for _, name := range d.ProgrammingLanguage {
		metadata.ProgrammingLanguages = append(metadata.ProgrammingLanguages, domain.ProgrammingLanguage{Name: name})
	}

	for _, name := range d.ApplicationCategory {
		metadata.Categories = append(metadata.Categories, domain.Category{
			ID:   uuid.NewString(),
			Name: name,
		})
	}

	for _, author := range d.Author {
		id := author.ID
		if id == "" {
			id = uuid.NewString()
		}
		metadata.Authors = append(metadata.Authors, domain.Person{
			ID:         id,
			GivenName:  author.GivenName,
			FamilyName: author.FamilyName,
			Email:      author.Email,
			Affiliation: domain.Organization{
				ID:   author.Affiliation.ID,
				Name: author.Affiliation.Name,
				URL:  author.Affiliation.URL,
			},
		})
	}

	return metadata
}
