package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/observability"
	"github.com/simhub/model-ingestion-service/internal/registry"
)

// RegistryActivities provides Temporal activities against the origin model
// registry: fetching spam-check batches and submitting verdicts.
type RegistryActivities struct {
	client  registry.Client
	metrics *observability.Metrics
}

// NewRegistryActivities creates a new RegistryActivities instance.
// The metrics parameter may be nil (metrics recording will be skipped).
func NewRegistryActivities(client registry.Client, metrics *observability.Metrics) *RegistryActivities {
	return &RegistryActivities{
		client:  client,
		metrics: metrics,
	}
}

// FetchLatestSpamBatch fetches the latest batch of moderation records
// awaiting a verdict. An empty batch is a valid result, not an error.
func (a *RegistryActivities) FetchLatestSpamBatch(ctx context.Context) (*FetchSpamBatchOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("fetching latest spam batch")

	items, err := a.client.GetLatestSpamBatch(ctx)
	if err != nil {
		logger.Error("spam batch fetch failed", "error", err)
		return nil, fmt.Errorf("fetch latest spam batch: %w", err)
	}

	logger.Info("spam batch fetched", "items", len(items))

	return &FetchSpamBatchOutput{Items: items}, nil
}

// SubmitSpamReport submits one verdict back to the registry. A transport
// failure is an error (retried by policy); a registry that received the
// report but did not apply it is reported as Accepted=false and left to the
// workflow to turn into a typed failure.
func (a *RegistryActivities) SubmitSpamReport(ctx context.Context, input SubmitSpamReportInput) (*SubmitSpamReportOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("submitting spam report",
		"objectID", input.Report.ObjectID,
		"isSpam", input.Report.IsSpam,
	)

	accepted, err := a.client.SubmitSpamReport(ctx, input.Report)
	if err != nil {
		logger.Error("spam report submission failed", "objectID", input.Report.ObjectID, "error", err)
		return nil, fmt.Errorf("submit spam report for %d: %w", input.Report.ObjectID, err)
	}

	if a.metrics != nil {
		if accepted {
			a.metrics.RecordSpamItemProcessed(input.Report.IsSpam)
		} else {
			a.metrics.RecordSpamReportRejected()
		}
	}

	logger.Info("spam report submitted", "objectID", input.Report.ObjectID, "accepted", accepted)

	return &SubmitSpamReportOutput{Accepted: accepted}, nil
}
