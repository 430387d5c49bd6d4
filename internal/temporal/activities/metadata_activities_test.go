package activities

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func writeCodemeta(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "codemeta.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDeriveModelMetadata(t *testing.T) {
	path := writeCodemeta(t, `{
		"name": "Predator Prey",
		"abstract": "An agent-based predation model.",
		"version": "1.2.0",
		"codeRepository": "https://example.org/predator-prey",
		"keywords": ["ecology", "agents"],
		"programmingLanguage": {"name": "NetLogo"},
		"applicationCategory": "Ecology",
		"author": [
			{
				"@id": "person-1",
				"givenName": "Ada",
				"familyName": "Lovelace",
				"affiliation": {"name": "Example University"}
			},
			{"givenName": "Grace", "familyName": "Hopper"}
		],
		"publisher": {"@id": "org-1", "name": "Example Org"}
	}`)

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(NewMetadataActivities())

	val, err := env.ExecuteActivity(new(MetadataActivities).DeriveModelMetadata, DeriveModelMetadataInput{
		ModelID:          "model-1",
		MetadataJSONPath: path,
	})
	require.NoError(t, err)

	var output DeriveModelMetadataOutput
	require.NoError(t, val.Get(&output))
	m := output.Metadata

	assert.Equal(t, "model-1", m.ID, "the record is keyed by the caller's model id")
	assert.Equal(t, "Predator Prey", m.Name)
	assert.Equal(t, "An agent-based predation model.", m.Abstract)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, "https://example.org/predator-prey", m.URL, "codeRepository fills in a missing url")
	assert.Equal(t, "ecology, agents", m.Keywords)
	assert.Equal(t, "org-1", m.PublisherID)

	require.Len(t, m.ProgrammingLanguages, 1)
	assert.Equal(t, "NetLogo", m.ProgrammingLanguages[0].Name)

	require.Len(t, m.Categories, 1)
	assert.Equal(t, "Ecology", m.Categories[0].Name)
	assert.NotEmpty(t, m.Categories[0].ID)

	require.Len(t, m.Authors, 2)
	assert.Equal(t, "person-1", m.Authors[0].ID)
	assert.Equal(t, "Example University", m.Authors[0].Affiliation.Name)
	assert.NotEmpty(t, m.Authors[1].ID, "an author without @id gets a generated id")
}

func TestDeriveModelMetadata_MissingFile(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(NewMetadataActivities())

	_, err := env.ExecuteActivity(new(MetadataActivities).DeriveModelMetadata, DeriveModelMetadataInput{
		ModelID:          "model-1",
		MetadataJSONPath: filepath.Join(t.TempDir(), "nope.json"),
	})
	require.Error(t, err)
}

func TestDeriveModelMetadata_MalformedJSON(t *testing.T) {
	path := writeCodemeta(t, `{"name": `)

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(NewMetadataActivities())

	_, err := env.ExecuteActivity(new(MetadataActivities).DeriveModelMetadata, DeriveModelMetadataInput{
		ModelID:          "model-1",
		MetadataJSONPath: path,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse codemeta file")
}

func TestNameListShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		want nameList
	}{
		{"bare string", `"NetLogo"`, nameList{"NetLogo"}},
		{"object with name", `{"name": "NetLogo"}`, nameList{"NetLogo"}},
		{"list of strings", `["NetLogo", "Python"]`, nameList{"NetLogo", "Python"}},
		{"list of objects", `[{"name": "NetLogo"}, {"name": "Python"}]`, nameList{"NetLogo", "Python"}},
		{"mixed list", `["NetLogo", {"name": "Python"}]`, nameList{"NetLogo", "Python"}},
		{"null", `null`, nil},
		{"empty string", `""`, nil},
		{"blank entries dropped", `["", "NetLogo"]`, nameList{"NetLogo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got nameList
			require.NoError(t, json.Unmarshal([]byte(tt.json), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("number is rejected", func(t *testing.T) {
		var got nameList
		assert.Error(t, json.Unmarshal([]byte(`42`), &got))
	})
}
