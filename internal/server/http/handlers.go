package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal"
)

// maxRequestBodySize limits request bodies to 1 MB.
const maxRequestBodySize = 1 << 20

// slugPattern is the accepted shape of a model slug: it ends up in workflow
// ids and object names, so it stays lowercase alphanumeric with dashes.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// startIngestResponse is the JSON response for a started ingestion run.
type startIngestResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}

// workflowStatusResponse describes a workflow execution.
type workflowStatusResponse struct {
	WorkflowID string     `json:"workflow_id"`
	RunID      string     `json:"run_id"`
	Status     string     `json:"status"`
	StartTime  time.Time  `json:"start_time"`
	CloseTime  *time.Time `json:"close_time,omitempty"`
}

// startSpamCheckResponse is the JSON response for a started spam-check batch.
type startSpamCheckResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}

// startModelIngest handles POST /api/v1/models/ingest.
func (s *Server) startModelIngest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var input domain.IngestModelInput
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("field %s failed validation (%s)", fieldErrs[0].Field(), fieldErrs[0].Tag()))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !slugPattern.MatchString(input.ModelSlug) {
		writeError(w, http.StatusBadRequest, "model_slug must be lowercase alphanumeric with dashes")
		return
	}

	workflowID, runID, err := s.pipeline.StartIngestWorkflow(r.Context(), s.ingestWorkflow, input)
	if err != nil {
		if temporal.IsWorkflowAlreadyStarted(err) {
			writeError(w, http.StatusConflict, fmt.Sprintf("ingestion for %q is already running", input.ModelSlug))
			return
		}
		s.logger.Error().Err(err).Str("modelSlug", input.ModelSlug).Msg("failed to start ingestion workflow")
		writeError(w, http.StatusBadGateway, "failed to start ingestion workflow")
		return
	}

	s.logger.Info().
		Str("workflowID", workflowID).
		Str("runID", runID).
		Str("modelSlug", input.ModelSlug).
		Msg("ingestion workflow started")

	writeJSON(w, http.StatusAccepted, startIngestResponse{
		WorkflowID: workflowID,
		RunID:      runID,
		Status:     "started",
	})
}

// getModelIngestStatus handles GET /api/v1/models/ingest/{modelSlug}.
func (s *Server) getModelIngestStatus(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "modelSlug")
	if !slugPattern.MatchString(slug) {
		writeError(w, http.StatusBadRequest, "invalid model slug")
		return
	}

	s.describeWorkflow(w, r, temporal.IngestWorkflowID(slug))
}

// cancelModelIngest handles DELETE /api/v1/models/ingest/{modelSlug}.
// Cancellation propagates to children according to their parent-close policy.
func (s *Server) cancelModelIngest(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "modelSlug")
	if !slugPattern.MatchString(slug) {
		writeError(w, http.StatusBadRequest, "invalid model slug")
		return
	}

	workflowID := temporal.IngestWorkflowID(slug)
	if err := s.pipeline.CancelWorkflow(r.Context(), workflowID, ""); err != nil {
		if temporal.IsWorkflowNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no ingestion run for %q", slug))
			return
		}
		s.logger.Error().Err(err).Str("workflowID", workflowID).Msg("failed to cancel ingestion workflow")
		writeError(w, http.StatusBadGateway, "failed to cancel ingestion workflow")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"workflow_id": workflowID,
		"status":      "cancelling",
	})
}

// startSpamCheck handles POST /api/v1/spam-checks. Every trigger gets a fresh
// batch workflow id; the per-record children derive their ids from the
// moderation record ids, so re-checking the same records collides there.
func (s *Server) startSpamCheck(w http.ResponseWriter, r *http.Request) {
	workflowID := fmt.Sprintf("spam-check-batch-%s", uuid.NewString())

	runID, err := s.pipeline.StartSpamCheckWorkflow(r.Context(), s.spamWorkflow, workflowID)
	if err != nil {
		s.logger.Error().Err(err).Str("workflowID", workflowID).Msg("failed to start spam check workflow")
		writeError(w, http.StatusBadGateway, "failed to start spam check workflow")
		return
	}

	s.logger.Info().Str("workflowID", workflowID).Str("runID", runID).Msg("spam check workflow started")

	writeJSON(w, http.StatusAccepted, startSpamCheckResponse{
		WorkflowID: workflowID,
		RunID:      runID,
		Status:     "started",
	})
}

// getSpamCheckStatus handles GET /api/v1/spam-checks/{workflowID}.
func (s *Server) getSpamCheckStatus(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	if workflowID == "" {
		writeError(w, http.StatusBadRequest, "workflow id is required")
		return
	}

	s.describeWorkflow(w, r, workflowID)
}

// describeWorkflow looks up one workflow execution and writes its status.
func (s *Server) describeWorkflow(w http.ResponseWriter, r *http.Request, workflowID string) {
	desc, err := s.pipeline.DescribeWorkflow(r.Context(), workflowID, "")
	if err != nil {
		if temporal.IsWorkflowNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("workflow %q not found", workflowID))
			return
		}
		s.logger.Error().Err(err).Str("workflowID", workflowID).Msg("failed to describe workflow")
		writeError(w, http.StatusBadGateway, "failed to describe workflow")
		return
	}

	writeJSON(w, http.StatusOK, workflowStatusResponse{
		WorkflowID: desc.WorkflowID,
		RunID:      desc.RunID,
		Status:     desc.Status,
		StartTime:  desc.StartTime,
		CloseTime:  desc.CloseTime,
	})
}
