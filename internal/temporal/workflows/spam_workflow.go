package workflows

import (
	"fmt"
	"strconv"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/events"
	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
)

// CheckSpamWorkflow is the spam-check batch orchestrator: fetch the latest
// batch of moderation records, fan out one child workflow per record, and
// join them all. Children are terminated if the batch run closes first, and
// cancellation waits for each child to finish unwinding. A single failed
// child fails the batch, but the remaining children still run to their own
// terminal state before the join reports the failure.
func CheckSpamWorkflow(ctx workflow.Context) (*CheckSpamResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting spam check batch")

	var registryAct *activities.RegistryActivities

	var batch activities.FetchSpamBatchOutput
	err := workflow.ExecuteActivity(withBatchFetchOptions(ctx), registryAct.FetchLatestSpamBatch).Get(ctx, &batch)
	if err != nil {
		return nil, fmt.Errorf("fetch spam batch: %w", err)
	}

	if len(batch.Items) == 0 {
		logger.Info("spam batch is empty")
		publishSpamEvent(ctx, 0)
		return &CheckSpamResult{Reports: []domain.SpamReport{}}, nil
	}

	logger.Info("spam batch fetched", "items", len(batch.Items))

	futures := make([]workflow.ChildWorkflowFuture, len(batch.Items))
	for i, item := range batch.Items {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:          spamCheckWorkflowID(item.ID),
			ParentClosePolicy:   enumspb.PARENT_CLOSE_POLICY_TERMINATE,
			WaitForCancellation: true,
			RetryPolicy: &temporal.RetryPolicy{
				InitialInterval:    1 * time.Second,
				BackoffCoefficient: 2.0,
				MaximumInterval:    10 * time.Second,
				MaximumAttempts:    3,
			},
		})
		futures[i] = workflow.ExecuteChildWorkflow(childCtx, GenerateAndSubmitSpamReportWorkflow, SpamReportInput{
			Item: item,
		})
	}

	reports := make([]domain.SpamReport, 0, len(batch.Items))
	var firstErr error
	for i, future := range futures {
		var report domain.SpamReport
		if err := future.Get(ctx, &report); err != nil {
			logger.Error("spam check child failed",
				"recordID", batch.Items[i].ID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("spam check for record %d: %w", batch.Items[i].ID, err)
			}
			continue
		}
		reports = append(reports, report)
	}

	if firstErr != nil {
		return nil, firstErr
	}

	publishSpamEvent(ctx, len(reports))

	logger.Info("spam check batch completed", "reports", len(reports))

	return &CheckSpamResult{Reports: reports}, nil
}

// publishSpamEvent publishes the batch completion event best-effort.
func publishSpamEvent(ctx workflow.Context, reports int) {
	var eventAct *activities.EventActivities

	batchID := workflow.GetInfo(ctx).WorkflowExecution.ID
	err := workflow.ExecuteActivity(withEventOptions(ctx), eventAct.PublishEvent, activities.PublishEventInput{
		EventType:   events.EventTypeSpamBatchComplete,
		AggregateID: batchID,
		Payload:     map[string]string{"reports": strconv.Itoa(reports)},
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("spam batch event publish failed", "error", err)
	}
}

// GenerateAndSubmitSpamReportWorkflow classifies one moderation record and
// submits the verdict back to the registry. A submission the registry
// received but did not apply fails the workflow with an ApplicationError of
// type ReportRejected, distinguishable from transport failures which the
// activity retry policy already absorbed.
func GenerateAndSubmitSpamReportWorkflow(ctx workflow.Context, input SpamReportInput) (*domain.SpamReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("checking content for spam",
		"recordID", input.Item.ID,
		"contentType", input.Item.ContentType,
	)

	var llmAct *activities.LLMActivities
	var registryAct *activities.RegistryActivities

	var classified activities.ClassifySpamOutput
	err := workflow.ExecuteActivity(withClassifyOptions(ctx), llmAct.ClassifySpam, activities.ClassifySpamInput{
		Item: input.Item,
	}).Get(ctx, &classified)
	if err != nil {
		return nil, fmt.Errorf("classify record %d: %w", input.Item.ID, err)
	}

	report := domain.SpamReport{
		ObjectID:       input.Item.ID,
		IsSpam:         classified.Report.IsSpam,
		SpamIndicators: classified.Report.SpamIndicators,
		Reasoning:      classified.Report.Reasoning,
		Confidence:     classified.Report.Confidence,
	}

	var submitted activities.SubmitSpamReportOutput
	err = workflow.ExecuteActivity(withSubmitOptions(ctx), registryAct.SubmitSpamReport, activities.SubmitSpamReportInput{
		Report: report,
	}).Get(ctx, &submitted)
	if err != nil {
		return nil, fmt.Errorf("submit report for record %d: %w", input.Item.ID, err)
	}

	if !submitted.Accepted {
		return nil, temporal.NewApplicationError(
			fmt.Sprintf("registry did not accept spam report for record %d", input.Item.ID),
			domain.ErrTypeReportRejected,
		)
	}

	logger.Info("spam report accepted",
		"recordID", input.Item.ID,
		"isSpam", report.IsSpam,
		"confidence", report.Confidence,
	)

	return &report, nil
}
