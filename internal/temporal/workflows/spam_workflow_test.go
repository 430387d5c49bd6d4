package workflows

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

func spamItem(id int64, title string) domain.SpamCheckItem {
	return domain.SpamCheckItem{
		ID:          id,
		ContentType: "codebase",
		ObjectID:    id * 10,
		Content: domain.SpamContent{
			Title:       title,
			Description: "a description",
		},
	}
}

func newSpamEnv() *testsuite.TestWorkflowEnvironment {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GenerateAndSubmitSpamReportWorkflow)
	return env
}

func mockPublishEvent(env *testsuite.TestWorkflowEnvironment) {
	var eventAct *activities.EventActivities
	env.OnActivity(eventAct.PublishEvent, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestCheckSpamWorkflow_EmptyBatch(t *testing.T) {
	env := newSpamEnv()
	mockPublishEvent(env)

	var registryAct *activities.RegistryActivities
	env.OnActivity(registryAct.FetchLatestSpamBatch, mock.Anything).
		Return(&activities.FetchSpamBatchOutput{}, nil)

	var llmAct *activities.LLMActivities
	classifyCalls := 0
	env.OnActivity(llmAct.ClassifySpam, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.ClassifySpamInput) (*activities.ClassifySpamOutput, error) {
			classifyCalls++
			return &activities.ClassifySpamOutput{}, nil
		},
	).Maybe()

	env.ExecuteWorkflow(CheckSpamWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result CheckSpamResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Empty(t, result.Reports)
	assert.Zero(t, classifyCalls, "empty batch must not classify anything")
}

func TestCheckSpamWorkflow_ReportsEveryItem(t *testing.T) {
	env := newSpamEnv()
	mockPublishEvent(env)

	items := []domain.SpamCheckItem{
		spamItem(1, "legit model"),
		spamItem(2, "FREE CRYPTO"),
		spamItem(3, "another model"),
	}

	var registryAct *activities.RegistryActivities
	env.OnActivity(registryAct.FetchLatestSpamBatch, mock.Anything).
		Return(&activities.FetchSpamBatchOutput{Items: items}, nil)

	var llmAct *activities.LLMActivities
	env.OnActivity(llmAct.ClassifySpam, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.ClassifySpamInput) (*activities.ClassifySpamOutput, error) {
			return &activities.ClassifySpamOutput{Report: domain.LLMSpamReport{
				IsSpam:     input.Item.ID == 2,
				Reasoning:  "verdict for " + input.Item.Content.Title,
				Confidence: 0.8,
			}}, nil
		},
	)

	var mu sync.Mutex
	submitted := make(map[int64]bool)
	env.OnActivity(registryAct.SubmitSpamReport, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SubmitSpamReportInput) (*activities.SubmitSpamReportOutput, error) {
			mu.Lock()
			submitted[input.Report.ObjectID] = input.Report.IsSpam
			mu.Unlock()
			return &activities.SubmitSpamReportOutput{Accepted: true}, nil
		},
	)

	env.ExecuteWorkflow(CheckSpamWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result CheckSpamResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Len(t, result.Reports, 3)

	// Reports are keyed by the moderation record id, not the content object.
	assert.Equal(t, map[int64]bool{1: false, 2: true, 3: false}, submitted)
	assert.Equal(t, int64(1), result.Reports[0].ObjectID)
	assert.True(t, result.Reports[1].IsSpam)
}

func TestCheckSpamWorkflow_OneFailingChildFailsTheBatch(t *testing.T) {
	env := newSpamEnv()
	mockPublishEvent(env)

	items := []domain.SpamCheckItem{
		spamItem(1, "fine"),
		spamItem(2, "breaks classification"),
		spamItem(3, "also fine"),
	}

	var registryAct *activities.RegistryActivities
	env.OnActivity(registryAct.FetchLatestSpamBatch, mock.Anything).
		Return(&activities.FetchSpamBatchOutput{Items: items}, nil)

	var llmAct *activities.LLMActivities
	env.OnActivity(llmAct.ClassifySpam, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.ClassifySpamInput) (*activities.ClassifySpamOutput, error) {
			if input.Item.ID == 2 {
				return nil, temporal.NewNonRetryableApplicationError("classifier down", "ClassifierUnavailable", nil)
			}
			return &activities.ClassifySpamOutput{Report: domain.LLMSpamReport{Confidence: 0.5}}, nil
		},
	)

	var mu sync.Mutex
	var submittedIDs []int64
	env.OnActivity(registryAct.SubmitSpamReport, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SubmitSpamReportInput) (*activities.SubmitSpamReportOutput, error) {
			mu.Lock()
			submittedIDs = append(submittedIDs, input.Report.ObjectID)
			mu.Unlock()
			return &activities.SubmitSpamReportOutput{Accepted: true}, nil
		},
	)

	env.ExecuteWorkflow(CheckSpamWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spam check for record 2")

	// The siblings still ran to completion before the join reported failure.
	assert.ElementsMatch(t, []int64{1, 3}, submittedIDs)
}

func TestCheckSpamWorkflow_FetchRetriesExactlyThreeTimes(t *testing.T) {
	env := newSpamEnv()
	mockPublishEvent(env)

	var registryAct *activities.RegistryActivities
	attempts := 0
	env.OnActivity(registryAct.FetchLatestSpamBatch, mock.Anything).Return(
		func(ctx context.Context) (*activities.FetchSpamBatchOutput, error) {
			attempts++
			return nil, errors.New("registry unreachable")
		},
	)

	env.ExecuteWorkflow(CheckSpamWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, 3, attempts, "batch fetch policy allows exactly three attempts")
}

func TestGenerateAndSubmitSpamReportWorkflow_AcceptedReport(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	item := spamItem(42, "suspicious upload")

	var llmAct *activities.LLMActivities
	env.OnActivity(llmAct.ClassifySpam, mock.Anything, mock.Anything).
		Return(&activities.ClassifySpamOutput{Report: domain.LLMSpamReport{
			IsSpam:         true,
			SpamIndicators: []string{"external links"},
			Reasoning:      "promotional content",
			Confidence:     0.95,
		}}, nil)

	var registryAct *activities.RegistryActivities
	var captured domain.SpamReport
	env.OnActivity(registryAct.SubmitSpamReport, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input activities.SubmitSpamReportInput) (*activities.SubmitSpamReportOutput, error) {
			captured = input.Report
			return &activities.SubmitSpamReportOutput{Accepted: true}, nil
		},
	)

	env.ExecuteWorkflow(GenerateAndSubmitSpamReportWorkflow, SpamReportInput{Item: item})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report domain.SpamReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, int64(42), report.ObjectID, "the verdict is keyed by the moderation record id")
	assert.Equal(t, captured, report)
	assert.True(t, report.IsSpam)
}

func TestGenerateAndSubmitSpamReportWorkflow_RejectedReport(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	var llmAct *activities.LLMActivities
	env.OnActivity(llmAct.ClassifySpam, mock.Anything, mock.Anything).
		Return(&activities.ClassifySpamOutput{Report: domain.LLMSpamReport{Confidence: 0.4}}, nil)

	var registryAct *activities.RegistryActivities
	env.OnActivity(registryAct.SubmitSpamReport, mock.Anything, mock.Anything).
		Return(&activities.SubmitSpamReportOutput{Accepted: false}, nil)

	env.ExecuteWorkflow(GenerateAndSubmitSpamReportWorkflow, SpamReportInput{Item: spamItem(7, "rejected")})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrTypeReportRejected, appErr.Type())
}
