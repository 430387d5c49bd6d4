package domain

import (
	"fmt"
	"strings"
)

// MetadataFieldText is one embeddable metadata field: the field's name and
// the composed "<description>: <value>" text handed to the embedding model.
type MetadataFieldText struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// metadataField maps one ModelMetadata field to a human-readable description
// and an extractor that composes the field value as text. The extractor
// returns "" for an unpopulated field, which drops the field from the
// embedding set.
type metadataField struct {
	name    string
	desc    string
	extract func(ModelMetadata) string
}

// metadataFieldTable lists every embeddable ModelMetadata field in a fixed
// order. The order is part of the workflow's deterministic behavior; append
// new fields at the end.
var metadataFieldTable = []metadataField{
	{"id", "Unique identifier for the model", func(m ModelMetadata) string { return m.ID }},
	{"name", "Name of the model", func(m ModelMetadata) string { return m.Name }},
	{"abstract", "Brief summary of the model's purpose and capabilities", func(m ModelMetadata) string { return m.Abstract }},
	{"description", "Detailed description of the model", func(m ModelMetadata) string { return m.Description }},
	{"version", "Version number or identifier of the model release", func(m ModelMetadata) string { return m.Version }},
	{"programming_languages", "Programming languages used in implementing the model", composeProgrammingLanguages},
	{"authors", "List of individuals who contributed to the model's development", composeAuthors},
	{"url", "Web address where the model can be accessed or downloaded", func(m ModelMetadata) string { return m.URL }},
	{"identifier", "External reference identifier for the model", func(m ModelMetadata) string { return m.Identifier }},
	{"date_created", "Original creation date of the model", func(m ModelMetadata) string { return m.DateCreated }},
	{"date_modified", "Last modification date of the model", func(m ModelMetadata) string { return m.DateModified }},
	{"keywords", "Key terms and phrases associated with the model's domain and functionality", func(m ModelMetadata) string { return m.Keywords }},
	{"citation", "Academic citation or reference for citing the model in publications", func(m ModelMetadata) string { return m.Citation }},
	{"license", "License terms and conditions for model usage", func(m ModelMetadata) string { return m.License }},
	{"release_notes", "Documentation of changes, improvements, and fixes in this model version", func(m ModelMetadata) string { return m.ReleaseNotes }},
	{"categories", "Classification categories the model belongs to", composeCategories},
	{"tags", "Descriptive tags for model categorization and search", composeTags},
	{"publisher_id", "Identifier of the organization or entity publishing the model", func(m ModelMetadata) string { return m.PublisherID }},
}

func composeProgrammingLanguages(m ModelMetadata) string {
	if len(m.ProgrammingLanguages) == 0 {
		return ""
	}
	names := make([]string, len(m.ProgrammingLanguages))
	for i, lang := range m.ProgrammingLanguages {
		names[i] = lang.Name
	}
	return strings.Join(names, ", ")
}

func composeAuthors(m ModelMetadata) string {
	if len(m.Authors) == 0 {
		return ""
	}
	texts := make([]string, len(m.Authors))
	for i, author := range m.Authors {
		texts[i] = fmt.Sprintf("%s %s (%s)", author.GivenName, author.FamilyName, author.Affiliation.Name)
	}
	return strings.Join(texts, "; ")
}

func composeCategories(m ModelMetadata) string {
	if len(m.Categories) == 0 {
		return ""
	}
	names := make([]string, len(m.Categories))
	for i, cat := range m.Categories {
		names[i] = cat.Name
	}
	return strings.Join(names, ", ")
}

func composeTags(m ModelMetadata) string {
	if len(m.Tags) == 0 {
		return ""
	}
	names := make([]string, len(m.Tags))
	for i, tag := range m.Tags {
		names[i] = tag.Name
	}
	return strings.Join(names, ", ")
}

// EmbeddingFieldTexts returns one "<description>: <value>" text per populated
// field of m, in table order. Unpopulated fields are skipped entirely rather
// than embedded as empty strings.
func (m ModelMetadata) EmbeddingFieldTexts() []MetadataFieldText {
	var fields []MetadataFieldText
	for _, f := range metadataFieldTable {
		value := f.extract(m)
		if value == "" {
			continue
		}
		fields = append(fields, MetadataFieldText{
			Name: f.name,
			Text: fmt.Sprintf("%s: %s", f.desc, value),
		})
	}
	return fields
}
