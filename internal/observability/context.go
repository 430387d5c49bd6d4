package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	modelIDKey    contextKey = "model_id"
	modelSlugKey  contextKey = "model_slug"
	workflowIDKey contextKey = "workflow_id"
	runIDKey      contextKey = "workflow_run_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithModel adds model ID and slug to the context.
func WithModel(ctx context.Context, modelID, modelSlug string) context.Context {
	ctx = context.WithValue(ctx, modelIDKey, modelID)
	ctx = context.WithValue(ctx, modelSlugKey, modelSlug)
	return ctx
}

// ModelFromContext retrieves model ID and slug from context.
// Returns empty strings if not present.
func ModelFromContext(ctx context.Context) (modelID, modelSlug string) {
	if v := ctx.Value(modelIDKey); v != nil {
		if id, ok := v.(string); ok {
			modelID = id
		}
	}
	if v := ctx.Value(modelSlugKey); v != nil {
		if slug, ok := v.(string); ok {
			modelSlug = slug
		}
	}
	return modelID, modelSlug
}

// WithWorkflow adds workflow ID and run ID to the context.
func WithWorkflow(ctx context.Context, workflowID, runID string) context.Context {
	ctx = context.WithValue(ctx, workflowIDKey, workflowID)
	ctx = context.WithValue(ctx, runIDKey, runID)
	return ctx
}

// WorkflowFromContext retrieves workflow ID and run ID from context.
// Returns empty strings if not present.
func WorkflowFromContext(ctx context.Context) (workflowID, runID string) {
	if v := ctx.Value(workflowIDKey); v != nil {
		if id, ok := v.(string); ok {
			workflowID = id
		}
	}
	if v := ctx.Value(runIDKey); v != nil {
		if id, ok := v.(string); ok {
			runID = id
		}
	}
	return workflowID, runID
}

// IngestContext contains all the context data for an ingestion run.
type IngestContext struct {
	RequestID  string
	ModelID    string
	ModelSlug  string
	WorkflowID string
	RunID      string
}

// WithIngestContext adds all ingestion context to the context.
func WithIngestContext(ctx context.Context, ic IngestContext) context.Context {
	if ic.RequestID != "" {
		ctx = WithRequestID(ctx, ic.RequestID)
	}
	if ic.ModelID != "" || ic.ModelSlug != "" {
		ctx = WithModel(ctx, ic.ModelID, ic.ModelSlug)
	}
	if ic.WorkflowID != "" || ic.RunID != "" {
		ctx = WithWorkflow(ctx, ic.WorkflowID, ic.RunID)
	}
	return ctx
}

// IngestContextFromContext extracts all ingestion context from the context.
func IngestContextFromContext(ctx context.Context) IngestContext {
	modelID, modelSlug := ModelFromContext(ctx)
	workflowID, runID := WorkflowFromContext(ctx)

	return IngestContext{
		RequestID:  RequestIDFromContext(ctx),
		ModelID:    modelID,
		ModelSlug:  modelSlug,
		WorkflowID: workflowID,
		RunID:      runID,
	}
}
