// Package domain defines the core entities shared across the model ingestion
// service: the model metadata record, the documentation tree, vector points,
// and the spam-check data contracts.
package domain

// ProgrammingLanguage is a language the model is implemented in.
type ProgrammingLanguage struct {
	// Name of the programming language used in the model.
	Name string `json:"name"`
}

// Organization is an institution a model author is affiliated with.
type Organization struct {
	// ID is a unique identifier for the organization.
	ID string `json:"id,omitempty"`
	// Type of the organization record, default is "Organization".
	Type string `json:"type,omitempty"`
	// Name of the organization.
	Name string `json:"name"`
	// URL of the organization's website.
	URL string `json:"url,omitempty"`
	// Identifier is an external identifier for the organization.
	Identifier string `json:"identifier,omitempty"`
}

// Person is a model author.
type Person struct {
	// ID is a unique identifier for the person.
	ID string `json:"id"`
	// GivenName is the first name of the person.
	GivenName string `json:"given_name"`
	// FamilyName is the last name of the person.
	FamilyName string `json:"family_name"`
	// Affiliation is the organization the person is affiliated with.
	Affiliation Organization `json:"affiliation"`
	// Email address of the person.
	Email string `json:"email,omitempty"`
}

// Tag is a descriptive label attached to a model for categorization and search.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Category is a classification category a model belongs to. Categories form
// a hierarchy via ParentID.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

// ModelMetadata is the descriptive metadata record of a scientific model,
// derived from the model's codemeta file. It is persisted once during
// ingestion and is immutable within a pipeline run.
//
// All descriptive fields are optional; empty values are skipped when the
// metadata embedding pipeline builds per-field embedding text.
type ModelMetadata struct {
	// ID is the unique identifier for the model, supplied by the caller.
	ID string `json:"id"`

	// Name of the model.
	Name string `json:"name,omitempty"`
	// Abstract is a brief summary of the model's purpose and capabilities.
	Abstract string `json:"abstract,omitempty"`
	// Description is a detailed description of the model.
	Description string `json:"description,omitempty"`
	// Version number or identifier of the model release.
	Version string `json:"version,omitempty"`
	// URL where the model can be accessed or downloaded.
	URL string `json:"url,omitempty"`
	// Identifier is an external reference identifier for the model.
	Identifier string `json:"identifier,omitempty"`
	// DateCreated is the original creation date of the model.
	DateCreated string `json:"date_created,omitempty"`
	// DateModified is the last modification date of the model.
	DateModified string `json:"date_modified,omitempty"`
	// Keywords are key terms associated with the model's domain.
	Keywords string `json:"keywords,omitempty"`
	// Citation is the academic reference for citing the model.
	Citation string `json:"citation,omitempty"`
	// License terms and conditions for model usage.
	License string `json:"license,omitempty"`
	// ReleaseNotes document changes in this model version.
	ReleaseNotes string `json:"release_notes,omitempty"`
	// PublisherID identifies the organization publishing the model.
	PublisherID string `json:"publisher_id,omitempty"`

	// ProgrammingLanguages used in implementing the model.
	ProgrammingLanguages []ProgrammingLanguage `json:"programming_languages,omitempty"`
	// Authors are the individuals who contributed to the model.
	Authors []Person `json:"authors,omitempty"`
	// Categories the model is classified under.
	Categories []Category `json:"categories,omitempty"`
	// Tags attached to the model.
	Tags []Tag `json:"tags,omitempty"`
}

// Model is the root aggregate: one metadata record and one documentation
// tree, keyed by the externally supplied model ID.
type Model struct {
	// ID is the unique identifier for the model.
	ID string `json:"id"`
	// ExternalID is the identifier of the model in the origin registry.
	ExternalID string `json:"external_id"`
	// Metadata is the model's descriptive metadata.
	Metadata ModelMetadata `json:"metadata"`
	// Doc is the model's documentation tree.
	Doc ModelDoc `json:"doc"`
}
