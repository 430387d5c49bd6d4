// Package events publishes domain events to Kafka. Events are fire-and-forget
// signals for downstream consumers; pipeline outcomes never depend on them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types published by the service.
const (
	EventTypeModelIngested     = "model.ingested"
	EventTypeModelIngestFailed = "model.ingest_failed"
	EventTypeSpamBatchComplete = "spam_batch.completed"
)

// serviceName identifies the source service on the event envelope.
const serviceName = "model-ingestion-service"

// Event is the envelope written to Kafka.
type Event struct {
	// EventID is a unique identifier for this event.
	EventID string `json:"event_id"`
	// EventType is the type of event (e.g., "model.ingested").
	EventType string `json:"event_type"`
	// AggregateID identifies the subject, typically the model ID.
	AggregateID string `json:"aggregate_id"`
	// Source identifies the emitting service.
	Source string `json:"source"`
	// OccurredAt is when the event was created.
	OccurredAt time.Time `json:"occurred_at"`
	// Payload is the event-specific body.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Config holds configuration for the event publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic events are written to.
	Topic string
}

// Validate checks that all required Config fields are set.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("events config: at least one broker is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("events config: topic is required")
	}
	return nil
}

// messageWriter is the subset of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes domain events to a Kafka topic. Messages are keyed by
// aggregate ID so events for the same model stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewPublisher creates a new Kafka event publisher.
func NewPublisher(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}

	return &Publisher{
		writer: writer,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}, nil
}

// NopPublisher discards events. It stands in for the Kafka publisher when
// event publishing is disabled.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, eventType, aggregateID string, payload interface{}) error {
	return nil
}

// Publish writes one event. The payload is JSON-serialized into the envelope.
func (p *Publisher) Publish(ctx context.Context, eventType, aggregateID string, payload interface{}) error {
	if eventType == "" {
		return fmt.Errorf("events: event type is required")
	}
	if aggregateID == "" {
		return fmt.Errorf("events: aggregate ID is required")
	}

	event, err := newEvent(eventType, aggregateID, payload)
	if err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(aggregateID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("events: failed to publish %s for %s: %w", eventType, aggregateID, err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("aggregate_id", aggregateID).
		Str("event_id", event.EventID).
		Msg("event published")

	return nil
}

// PublishModelIngested publishes a model.ingested event.
func (p *Publisher) PublishModelIngested(ctx context.Context, modelID string, payload interface{}) error {
	return p.Publish(ctx, EventTypeModelIngested, modelID, payload)
}

// PublishModelIngestFailed publishes a model.ingest_failed event.
func (p *Publisher) PublishModelIngestFailed(ctx context.Context, modelID string, payload interface{}) error {
	return p.Publish(ctx, EventTypeModelIngestFailed, modelID, payload)
}

// PublishSpamBatchCompleted publishes a spam_batch.completed event.
func (p *Publisher) PublishSpamBatchCompleted(ctx context.Context, batchID string, payload interface{}) error {
	return p.Publish(ctx, EventTypeSpamBatchComplete, batchID, payload)
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// newEvent builds the envelope for one event.
func newEvent(eventType, aggregateID string, payload interface{}) (Event, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("events: failed to marshal payload: %w", err)
		}
		payloadBytes = b
	}

	return Event{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Source:      serviceName,
		OccurredAt:  time.Now().UTC(),
		Payload:     payloadBytes,
	}, nil
}
