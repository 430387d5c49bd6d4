package domain

// IngestModelInput is the request that starts a model ingestion run. Paths
// are local to the worker host and must exist before the run starts.
type IngestModelInput struct {
	// ModelID is the unique identifier of the model being ingested.
	ModelID string `json:"model_id" validate:"required"`
	// ModelSlug is a URL-safe name used in workflow ids and object names.
	ModelSlug string `json:"model_slug" validate:"required"`
	// OriginalFilePath points at the source documentation file (PDF or
	// markdown).
	OriginalFilePath string `json:"original_file_path" validate:"required"`
	// MetadataJSONPath points at the model's codemeta JSON file.
	MetadataJSONPath string `json:"metadata_json_path" validate:"required"`
	// CodeFolderPath optionally points at the model's source tree.
	CodeFolderPath string `json:"code_folder_path,omitempty"`
}

// IngestStatus is a point-in-time view of an ingestion run, assembled from
// the workflow execution state.
type IngestStatus struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}
