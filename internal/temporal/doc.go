// Package temporal wires the service to the Temporal durable-execution
// engine. It provides the client used by the HTTP server to start, cancel,
// and inspect workflow runs, plus the worker constructors that register the
// ingestion and spam-check pipelines on their task queues.
//
// The two pipelines poll separate task queues so spam screening keeps
// running while a heavy ingestion run saturates the ingest workers:
//
//   - TaskQueueIngest carries the model ingestion workflow tree.
//   - TaskQueueSpamCheck carries the spam-check batch workflow and its
//     per-item children.
//
// Workflow implementations live in the workflows subpackage; activity
// implementations live in the activities subpackage. Workflow ids are
// caller-supplied and derived from the model slug (or the moderation record
// id for spam children), so re-triggering an in-flight run is rejected by
// the engine rather than duplicated.
package temporal
