package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/events"
)

// EventPublisher is the subset of the Kafka publisher the activity needs.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, aggregateID string, payload interface{}) error
}

// EventActivities provides the activity that publishes domain events.
// Publishing is fire-and-forget from the pipelines' point of view: workflows
// give this activity a lenient retry policy and ignore its failure.
type EventActivities struct {
	publisher EventPublisher
}

// NewEventActivities creates a new EventActivities instance.
func NewEventActivities(publisher EventPublisher) *EventActivities {
	return &EventActivities{publisher: publisher}
}

// Compile-time check that the Kafka publisher satisfies EventPublisher.
var _ EventPublisher = (*events.Publisher)(nil)

// PublishEvent publishes one domain event.
func (a *EventActivities) PublishEvent(ctx context.Context, input PublishEventInput) error {
	logger := activity.GetLogger(ctx)

	err := a.publisher.Publish(ctx, input.EventType, input.AggregateID, input.Payload)
	if err != nil {
		logger.Error("event publish failed",
			"eventType", input.EventType,
			"aggregateID", input.AggregateID,
			"error", err,
		)
		return err
	}

	return nil
}
