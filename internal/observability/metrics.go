package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the model ingestion service.
// Metrics are organized by subsystem: ingestion runs, documents, embeddings,
// vector upserts, spam checks, and LLM operations. All counters and
// histograms are registered via promauto for automatic registration with the
// default Prometheus registry.
type Metrics struct {
	// IngestionsStarted counts the total number of ingestion runs initiated.
	IngestionsStarted prometheus.Counter

	// IngestionsCompleted counts the total number of runs that finished successfully.
	IngestionsCompleted prometheus.Counter

	// IngestionsFailed counts the total number of runs that ended in failure.
	IngestionsFailed prometheus.Counter

	// IngestionsCancelled counts the total number of runs cancelled by user or system.
	IngestionsCancelled prometheus.Counter

	// IngestionDuration observes the end-to-end duration of ingestion runs in seconds.
	IngestionDuration prometheus.Histogram

	// BackupsUploaded counts object store uploads, labeled by artifact kind.
	BackupsUploaded *prometheus.CounterVec

	// BackupBytes counts bytes written to the object store, labeled by artifact kind.
	BackupBytes *prometheus.CounterVec

	// SectionsSplit observes the number of sections per converted document.
	SectionsSplit prometheus.Histogram

	// ChunksSplit observes the number of chunks per converted document.
	ChunksSplit prometheus.Histogram

	// EmbeddingsComputed counts the total number of embeddings computed.
	EmbeddingsComputed prometheus.Counter

	// EmbeddingBatches counts batch-embedding windows processed.
	EmbeddingBatches prometheus.Counter

	// VectorPointsUpserted counts vector points upserted, labeled by collection.
	VectorPointsUpserted *prometheus.CounterVec

	// VectorUpsertsFailed counts failed upserts, labeled by collection.
	VectorUpsertsFailed *prometheus.CounterVec

	// SpamChecksStarted counts spam-check batch runs initiated.
	SpamChecksStarted prometheus.Counter

	// SpamItemsProcessed counts spam items classified, labeled by verdict.
	SpamItemsProcessed *prometheus.CounterVec

	// SpamReportsRejected counts reports the origin registry refused.
	SpamReportsRejected prometheus.Counter

	// LLMRequestsTotal counts LLM API requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by operation and model.
	LLMRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Ingestion runs
		IngestionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_started_total",
			Help:      "Total number of model ingestion runs started",
		}),
		IngestionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_completed_total",
			Help:      "Total number of model ingestion runs completed successfully",
		}),
		IngestionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_failed_total",
			Help:      "Total number of model ingestion runs that failed",
		}),
		IngestionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_cancelled_total",
			Help:      "Total number of model ingestion runs cancelled",
		}),
		IngestionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Duration of model ingestion runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),

		// Backups
		BackupsUploaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_uploaded_total",
			Help:      "Total number of object store uploads by artifact kind",
		}, []string{"kind"}),
		BackupBytes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_bytes_total",
			Help:      "Total bytes written to the object store by artifact kind",
		}, []string{"kind"}),

		// Documents
		SectionsSplit: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sections_per_document",
			Help:      "Number of sections produced per converted document",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
		ChunksSplit: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunks_per_document",
			Help:      "Number of chunks produced per converted document",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),

		// Embeddings
		EmbeddingsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_computed_total",
			Help:      "Total number of embeddings computed",
		}),
		EmbeddingBatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Total number of batch-embedding windows processed",
		}),

		// Vector store
		VectorPointsUpserted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_points_upserted_total",
			Help:      "Total number of vector points upserted by collection",
		}, []string{"collection"}),
		VectorUpsertsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_upserts_failed_total",
			Help:      "Total number of failed vector upserts by collection",
		}, []string{"collection"}),

		// Spam checks
		SpamChecksStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spam_checks_started_total",
			Help:      "Total number of spam-check batch runs started",
		}),
		SpamItemsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spam_items_processed_total",
			Help:      "Total number of spam items classified by verdict",
		}, []string{"verdict"}),
		SpamReportsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spam_reports_rejected_total",
			Help:      "Total number of spam reports refused by the origin registry",
		}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),
	}
}

// RecordIngestionStarted records that an ingestion run has started.
func (m *Metrics) RecordIngestionStarted() {
	m.IngestionsStarted.Inc()
}

// RecordIngestionCompleted records that an ingestion run has completed.
func (m *Metrics) RecordIngestionCompleted(durationSeconds float64) {
	m.IngestionsCompleted.Inc()
	m.IngestionDuration.Observe(durationSeconds)
}

// RecordIngestionFailed records that an ingestion run has failed.
func (m *Metrics) RecordIngestionFailed(durationSeconds float64) {
	m.IngestionsFailed.Inc()
	m.IngestionDuration.Observe(durationSeconds)
}

// RecordIngestionCancelled records that an ingestion run has been cancelled.
func (m *Metrics) RecordIngestionCancelled() {
	m.IngestionsCancelled.Inc()
}

// RecordBackupUploaded records an object store upload.
func (m *Metrics) RecordBackupUploaded(kind string, bytes int64) {
	m.BackupsUploaded.WithLabelValues(kind).Inc()
	m.BackupBytes.WithLabelValues(kind).Add(float64(bytes))
}

// RecordDocumentSplit records the shape of a converted document.
func (m *Metrics) RecordDocumentSplit(sections, chunks int) {
	m.SectionsSplit.Observe(float64(sections))
	m.ChunksSplit.Observe(float64(chunks))
}

// RecordEmbeddingsComputed records a batch of computed embeddings.
func (m *Metrics) RecordEmbeddingsComputed(count int) {
	m.EmbeddingsComputed.Add(float64(count))
	m.EmbeddingBatches.Inc()
}

// RecordVectorPointsUpserted records an upsert into a collection.
func (m *Metrics) RecordVectorPointsUpserted(collection string, count int) {
	m.VectorPointsUpserted.WithLabelValues(collection).Add(float64(count))
}

// RecordVectorUpsertFailed records a failed upsert into a collection.
func (m *Metrics) RecordVectorUpsertFailed(collection string) {
	m.VectorUpsertsFailed.WithLabelValues(collection).Inc()
}

// RecordSpamCheckStarted records that a spam-check batch run has started.
func (m *Metrics) RecordSpamCheckStarted() {
	m.SpamChecksStarted.Inc()
}

// RecordSpamItemProcessed records one classified spam item.
func (m *Metrics) RecordSpamItemProcessed(isSpam bool) {
	verdict := "ham"
	if isSpam {
		verdict = "spam"
	}
	m.SpamItemsProcessed.WithLabelValues(verdict).Inc()
}

// RecordSpamReportRejected records a report the origin registry refused.
func (m *Metrics) RecordSpamReportRejected() {
	m.SpamReportsRejected.Inc()
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}
