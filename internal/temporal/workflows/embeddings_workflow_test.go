package workflows

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// echoEmbedding derives a tiny vector from the text itself, so tests can tell
// which input produced which output. Empty text yields an empty vector, like
// the real activity.
func echoEmbedding(text string) []float32 {
	if text == "" {
		return []float32{}
	}
	return []float32{float32(len(text))}
}

// mockComputeEmbedding wires the echo embedding into the environment and
// returns a call counter.
func mockComputeEmbedding(env *testsuite.TestWorkflowEnvironment) *int {
	var llmAct *activities.LLMActivities
	calls := 0
	var mu sync.Mutex

	env.OnActivity(llmAct.ComputeEmbedding, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.ComputeEmbeddingInput) (*activities.ComputeEmbeddingOutput, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return &activities.ComputeEmbeddingOutput{Vector: echoEmbedding(input.Text)}, nil
		},
	)
	return &calls
}

func TestComputeEmbeddingsWorkflow_EmptyInput(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	calls := mockComputeEmbedding(env)

	env.ExecuteWorkflow(ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ComputeEmbeddingsResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Empty(t, result.Vectors)
	assert.Zero(t, *calls, "empty input must not schedule any activities")
}

func TestComputeEmbeddingsWorkflow_SingleWindowAligned(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	calls := mockComputeEmbedding(env)

	texts := []string{"a", "bb", "", "dddd", "eeeee", "ff", "g"}
	env.ExecuteWorkflow(ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{Texts: texts})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ComputeEmbeddingsResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Len(t, result.Vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, echoEmbedding(text), result.Vectors[i], "vector %d must come from text %d", i, i)
	}
	assert.Equal(t, len(texts), *calls)
}

func TestComputeEmbeddingsWorkflow_ContinuesAsNewPastTheWindow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	calls := mockComputeEmbedding(env)

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "text"
	}
	env.ExecuteWorkflow(ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{Texts: texts})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.True(t, workflow.IsContinueAsNewError(err), "expected continue-as-new, got %v", err)
	assert.Equal(t, embeddingBatchSize, *calls, "only the first window is embedded before continuing")
}

func TestComputeEmbeddingsWorkflow_ResumesFromCheckpoint(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	calls := mockComputeEmbedding(env)

	texts := make([]string, 12)
	accumulated := make([][]float32, 10)
	for i := range texts {
		texts[i] = "text"
	}
	for i := range accumulated {
		accumulated[i] = []float32{float32(i)}
	}

	env.ExecuteWorkflow(ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{
		Texts:       texts,
		StartIndex:  10,
		Accumulated: accumulated,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ComputeEmbeddingsResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Len(t, result.Vectors, 12)
	assert.Equal(t, []float32{0}, result.Vectors[0], "carried vectors stay in front")
	assert.Equal(t, []float32{9}, result.Vectors[9])
	assert.Equal(t, echoEmbedding("text"), result.Vectors[10])
	assert.Equal(t, 2, *calls, "only the remaining texts are embedded")
}

func TestComputeEmbeddingsWorkflow_RejectsOutOfRangeStartIndex(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	mockComputeEmbedding(env)

	env.ExecuteWorkflow(ComputeEmbeddingsWorkflow, ComputeEmbeddingsInput{
		Texts:      []string{"a"},
		StartIndex: 5,
	})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
