// Package httpserver provides the HTTP REST API of the model ingestion
// service: triggering and inspecting ingestion runs and spam-check batches.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/simhub/model-ingestion-service/internal/database"
	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/temporal"
)

// PipelineClient is the subset of the Temporal pipeline client the server
// needs. Narrowed to an interface so handler tests can fake it.
type PipelineClient interface {
	StartIngestWorkflow(ctx context.Context, workflowFunc interface{}, input domain.IngestModelInput) (workflowID, runID string, err error)
	StartSpamCheckWorkflow(ctx context.Context, workflowFunc interface{}, workflowID string) (runID string, err error)
	CancelWorkflow(ctx context.Context, workflowID, runID string) error
	DescribeWorkflow(ctx context.Context, workflowID, runID string) (*temporal.WorkflowDescription, error)
	Health(ctx context.Context) error
}

var _ PipelineClient = (*temporal.PipelineClient)(nil)

// Server is the HTTP REST API server.
type Server struct {
	router         chi.Router
	httpServer     *http.Server
	pipeline       PipelineClient
	ingestWorkflow interface{}
	spamWorkflow   interface{}
	db             *database.DB
	validate       *validator.Validate
	metricsPath    string
	metricsHandler http.Handler
	logger         zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsPath mounts metricsHandler when both are set.
	MetricsPath string
}

// NewServer creates the HTTP server. ingestWorkflow and spamWorkflow are the
// Temporal workflow function references handed to the pipeline client when a
// run is started. metricsHandler may be nil to disable the metrics endpoint.
func NewServer(
	cfg Config,
	pipeline PipelineClient,
	ingestWorkflow interface{},
	spamWorkflow interface{},
	db *database.DB,
	metricsHandler http.Handler,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		pipeline:       pipeline,
		ingestWorkflow: ingestWorkflow,
		spamWorkflow:   spamWorkflow,
		db:             db,
		validate:       validator.New(),
		metricsPath:    cfg.MetricsPath,
		metricsHandler: metricsHandler,
		logger:         logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDContextMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	if s.metricsHandler != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/models/ingest", s.startModelIngest)
		r.Get("/models/ingest/{modelSlug}", s.getModelIngestStatus)
		r.Delete("/models/ingest/{modelSlug}", s.cancelModelIngest)

		r.Post("/spam-checks", s.startSpamCheck)
		r.Get("/spam-checks/{workflowID}", s.getSpamCheckStatus)
	})

	return r
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler reports readiness: the database and the Temporal server
// must both be reachable before the service accepts pipeline triggers.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}

	if err := s.pipeline.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": "healthy",
			"temporal": "unreachable",
			"error":    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
		"temporal": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent, nothing left to do.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
