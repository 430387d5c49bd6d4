package workflows

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// mockSynthLLM wires deterministic summarize and Q&A mocks: the summary echoes
// its input and every text yields exactly one pair.
func mockSynthLLM(env *testsuite.TestWorkflowEnvironment) {
	var llmAct *activities.LLMActivities
	var mu sync.Mutex

	env.OnActivity(llmAct.SummarizeText, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SummarizeTextInput) (*activities.SummarizeTextOutput, error) {
			return &activities.SummarizeTextOutput{Summary: "summary of: " + input.Text}, nil
		},
	)
	env.OnActivity(llmAct.GenerateQAPairs, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.GenerateQAPairsInput) (*activities.GenerateQAPairsOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			return &activities.GenerateQAPairsOutput{Pairs: []activities.QAPair{
				{ID: uuid.NewString(), Question: "about: " + input.Text, Answer: "answer"},
			}}, nil
		},
	)
}

func TestGenerateSyntheticDataForDocSectionWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GenerateSyntheticDataForChunksWorkflow)
	mockSynthLLM(env)

	section := domain.DocSection{
		ID:      "sec-1",
		Title:   "Submodels",
		Level:   2,
		Content: "The grass regrowth submodel.",
		Chunks: []domain.Chunk{
			{ID: "chunk-1", SectionID: "sec-1", Content: "grass regrows"},
			{ID: "chunk-2", SectionID: "sec-1", Content: ""},
		},
	}

	env.ExecuteWorkflow(GenerateSyntheticDataForDocSectionWorkflow, SectionSynthInput{
		Section:    section,
		Breadcrumb: []string{"ODD Protocol", "Submodels"},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result SectionSynthResult
	require.NoError(t, env.GetWorkflowResult(&result))
	enriched := result.Section

	assert.Equal(t,
		"Context: ODD Protocol > Submodels\nTitle: Submodels\n\nThe grass regrowth submodel.",
		enriched.ContentWithContext)
	assert.Equal(t, "summary of: The grass regrowth submodel.", enriched.Summary)

	require.Len(t, enriched.QAs, 1)
	assert.Equal(t, "sec-1", enriched.QAs[0].SectionID)
	assert.Equal(t, "about: The grass regrowth submodel.", enriched.QAs[0].Question)
	assert.NotEmpty(t, enriched.QAs[0].ID)

	require.Len(t, enriched.Chunks, 2)
	assert.Equal(t,
		"The grass regrowth submodel.\n\nContext: ODD Protocol > Submodels\n\ngrass regrows",
		enriched.Chunks[0].ContentWithContext)
	assert.Equal(t, "summary of: grass regrows", enriched.Chunks[0].Summary)
	require.Len(t, enriched.Chunks[0].QAs, 1)
	assert.Equal(t, "chunk-1", enriched.Chunks[0].QAs[0].ChunkID)

	// The blank chunk still gets its context text but no LLM output.
	assert.Equal(t,
		"The grass regrowth submodel.\n\nContext: ODD Protocol > Submodels\n\n",
		enriched.Chunks[1].ContentWithContext)
	assert.Empty(t, enriched.Chunks[1].Summary)
	assert.Empty(t, enriched.Chunks[1].QAs)
}

func TestGenerateSyntheticDataForDocSectionWorkflow_BlankSection(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GenerateSyntheticDataForChunksWorkflow)

	var llmAct *activities.LLMActivities
	llmCalls := 0
	env.OnActivity(llmAct.SummarizeText, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SummarizeTextInput) (*activities.SummarizeTextOutput, error) {
			llmCalls++
			return &activities.SummarizeTextOutput{}, nil
		},
	).Maybe()
	env.OnActivity(llmAct.GenerateQAPairs, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.GenerateQAPairsInput) (*activities.GenerateQAPairsOutput, error) {
			llmCalls++
			return &activities.GenerateQAPairsOutput{}, nil
		},
	).Maybe()

	env.ExecuteWorkflow(GenerateSyntheticDataForDocSectionWorkflow, SectionSynthInput{
		Section:    domain.DocSection{ID: "sec-empty", Title: "Stub", Level: 1, Content: "   "},
		Breadcrumb: []string{"Stub"},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result SectionSynthResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "Context: Stub\nTitle: Stub\n\n   ", result.Section.ContentWithContext)
	assert.Empty(t, result.Section.Summary)
	assert.Empty(t, result.Section.QAs)
	assert.Zero(t, llmCalls, "blank content must not reach the LLM")
}

func TestGenerateSyntheticDataForModelDocWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GenerateSyntheticDataForDocSectionWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForChunksWorkflow)
	mockSynthLLM(env)

	doc := domain.ModelDoc{
		ID:      "doc-1",
		ModelID: "model-1",
		Sections: []domain.DocSection{
			{ID: "sec-root", Title: "Purpose", Level: 1, Content: "Purpose text."},
			{ID: "sec-child", ParentID: "sec-root", Title: "Entities", Level: 2, Content: "Entities text."},
		},
	}

	env.ExecuteWorkflow(GenerateSyntheticDataForModelDocWorkflow, SyntheticDataInput{Doc: doc})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result SyntheticDataResult
	require.NoError(t, env.GetWorkflowResult(&result))
	enriched := result.Doc

	require.Len(t, enriched.Sections, 2)

	// Sections merge back by arena index with ancestor-aware context.
	assert.Equal(t, "sec-root", enriched.Sections[0].ID)
	assert.Equal(t, "Context: Purpose\nTitle: Purpose\n\nPurpose text.",
		enriched.Sections[0].ContentWithContext)
	assert.Equal(t, "Context: Purpose > Entities\nTitle: Entities\n\nEntities text.",
		enriched.Sections[1].ContentWithContext)

	assert.Equal(t, "summary of: Purpose text.", enriched.Sections[0].Summary)
	assert.Equal(t, "summary of: Entities text.", enriched.Sections[1].Summary)

	// The doc summary is synthesized from the section summaries.
	assert.Equal(t, "summary of: summary of: Purpose text.\n\nsummary of: Entities text.",
		enriched.Summary)
}

func TestGenerateSyntheticDataForModelDocWorkflow_NoSections(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GenerateSyntheticDataForDocSectionWorkflow)
	env.RegisterWorkflow(GenerateSyntheticDataForChunksWorkflow)

	var llmAct *activities.LLMActivities
	summaries := 0
	env.OnActivity(llmAct.SummarizeText, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SummarizeTextInput) (*activities.SummarizeTextOutput, error) {
			summaries++
			return &activities.SummarizeTextOutput{}, nil
		},
	).Maybe()

	env.ExecuteWorkflow(GenerateSyntheticDataForModelDocWorkflow, SyntheticDataInput{
		Doc: domain.ModelDoc{ID: "doc-empty", ModelID: "model-1"},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result SyntheticDataResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Empty(t, result.Doc.Summary)
	assert.Zero(t, summaries)
}
