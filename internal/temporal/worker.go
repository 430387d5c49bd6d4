package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/simhub/model-ingestion-service/internal/temporal/activities"
	"github.com/simhub/model-ingestion-service/internal/temporal/workflows"
)

// WorkerConfig contains tuning knobs for a Temporal worker.
type WorkerConfig struct {
	// TaskQueue is the name of the task queue to poll.
	TaskQueue string

	// MaxConcurrentActivityExecutionSize is the maximum concurrent activity executions.
	// Default: 100
	MaxConcurrentActivityExecutionSize int

	// MaxConcurrentWorkflowTaskExecutionSize is the maximum concurrent workflow task executions.
	// Default: 50
	MaxConcurrentWorkflowTaskExecutionSize int

	// MaxConcurrentActivityTaskPollers is the number of activity task pollers.
	// Default: 4
	MaxConcurrentActivityTaskPollers int

	// MaxConcurrentWorkflowTaskPollers is the number of workflow task pollers.
	// Default: 2
	MaxConcurrentWorkflowTaskPollers int
}

// DefaultWorkerConfig returns a WorkerConfig with default values.
func DefaultWorkerConfig(taskQueue string) WorkerConfig {
	return WorkerConfig{
		TaskQueue:                              taskQueue,
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
		MaxConcurrentActivityTaskPollers:       4,
		MaxConcurrentWorkflowTaskPollers:       2,
	}
}

// workerOptionsFromConfig builds worker.Options from WorkerConfig, applying
// defaults for any zero-valued fields.
func workerOptionsFromConfig(config WorkerConfig) worker.Options {
	options := worker.Options{
		MaxConcurrentActivityExecutionSize:     config.MaxConcurrentActivityExecutionSize,
		MaxConcurrentWorkflowTaskExecutionSize: config.MaxConcurrentWorkflowTaskExecutionSize,
		MaxConcurrentActivityTaskPollers:       config.MaxConcurrentActivityTaskPollers,
		MaxConcurrentWorkflowTaskPollers:       config.MaxConcurrentWorkflowTaskPollers,
	}

	if options.MaxConcurrentActivityExecutionSize == 0 {
		options.MaxConcurrentActivityExecutionSize = 100
	}
	if options.MaxConcurrentWorkflowTaskExecutionSize == 0 {
		options.MaxConcurrentWorkflowTaskExecutionSize = 50
	}
	if options.MaxConcurrentActivityTaskPollers == 0 {
		options.MaxConcurrentActivityTaskPollers = 4
	}
	if options.MaxConcurrentWorkflowTaskPollers == 0 {
		options.MaxConcurrentWorkflowTaskPollers = 2
	}

	return options
}

// IngestWorkerDeps carries the activity implementations the ingestion
// pipeline needs. All fields are required.
type IngestWorkerDeps struct {
	Storage  *activities.StorageActivities
	Database *activities.DatabaseActivities
	Vector   *activities.VectorActivities
	LLM      *activities.LLMActivities
	Metadata *activities.MetadataActivities
	Doc      *activities.DocActivities
	Events   *activities.EventActivities
}

func (d IngestWorkerDeps) validate() error {
	switch {
	case d.Storage == nil:
		return fmt.Errorf("storage activities are required")
	case d.Database == nil:
		return fmt.Errorf("database activities are required")
	case d.Vector == nil:
		return fmt.Errorf("vector activities are required")
	case d.LLM == nil:
		return fmt.Errorf("llm activities are required")
	case d.Metadata == nil:
		return fmt.Errorf("metadata activities are required")
	case d.Doc == nil:
		return fmt.Errorf("doc activities are required")
	case d.Events == nil:
		return fmt.Errorf("event activities are required")
	}
	return nil
}

// NewIngestWorker creates a worker polling the ingest task queue with the
// whole ingestion workflow tree and its activities registered.
func NewIngestWorker(c client.Client, cfg WorkerConfig, deps IngestWorkerDeps) (worker.Worker, error) {
	if cfg.TaskQueue == "" {
		cfg = DefaultWorkerConfig(TaskQueueIngest)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("ingest worker: %w", err)
	}

	w := worker.New(c, cfg.TaskQueue, workerOptionsFromConfig(cfg))

	w.RegisterWorkflow(workflows.IngestModelWorkflow)
	w.RegisterWorkflow(workflows.BackupModelFilesWorkflow)
	w.RegisterWorkflow(workflows.IngestModelMetadataWorkflow)
	w.RegisterWorkflow(workflows.IngestModelDocsWorkflow)
	w.RegisterWorkflow(workflows.IngestModelCodeWorkflow)
	w.RegisterWorkflow(workflows.ComputeAndUpsertMetadataEmbeddingsWorkflow)
	w.RegisterWorkflow(workflows.GenerateSyntheticDataForModelDocWorkflow)
	w.RegisterWorkflow(workflows.GenerateSyntheticDataForDocSectionWorkflow)
	w.RegisterWorkflow(workflows.GenerateSyntheticDataForChunksWorkflow)
	w.RegisterWorkflow(workflows.ComputeEmbeddingsWorkflow)
	w.RegisterWorkflow(workflows.ComputeAndUpsertModelDocEmbeddingsWorkflow)
	w.RegisterWorkflow(workflows.PopulateCollectionWorkflow)

	w.RegisterActivity(deps.Storage)
	w.RegisterActivity(deps.Database)
	w.RegisterActivity(deps.Vector)
	w.RegisterActivity(deps.LLM)
	w.RegisterActivity(deps.Metadata)
	w.RegisterActivity(deps.Doc)
	w.RegisterActivity(deps.Events)

	return w, nil
}

// SpamWorkerDeps carries the activity implementations the spam-check
// pipeline needs. All fields are required.
type SpamWorkerDeps struct {
	Registry *activities.RegistryActivities
	LLM      *activities.LLMActivities
	Events   *activities.EventActivities
}

func (d SpamWorkerDeps) validate() error {
	switch {
	case d.Registry == nil:
		return fmt.Errorf("registry activities are required")
	case d.LLM == nil:
		return fmt.Errorf("llm activities are required")
	case d.Events == nil:
		return fmt.Errorf("event activities are required")
	}
	return nil
}

// NewSpamWorker creates a worker polling the spam-check task queue with the
// spam pipeline workflows and activities registered.
func NewSpamWorker(c client.Client, cfg WorkerConfig, deps SpamWorkerDeps) (worker.Worker, error) {
	if cfg.TaskQueue == "" {
		cfg = DefaultWorkerConfig(TaskQueueSpamCheck)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("spam worker: %w", err)
	}

	w := worker.New(c, cfg.TaskQueue, workerOptionsFromConfig(cfg))

	w.RegisterWorkflow(workflows.CheckSpamWorkflow)
	w.RegisterWorkflow(workflows.GenerateAndSubmitSpamReportWorkflow)

	w.RegisterActivity(deps.Registry)
	w.RegisterActivity(deps.LLM)
	w.RegisterActivity(deps.Events)

	return w, nil
}

// StartWorker runs the worker until the context is cancelled or the worker
// fails.
func StartWorker(ctx context.Context, w worker.Worker) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(worker.InterruptCh())
	}()

	select {
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
