package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/simhub/model-ingestion-service/internal/objectstore"
	"github.com/simhub/model-ingestion-service/internal/observability"
)

// StorageActivities provides Temporal activities for object-store backups.
// Uploads are keyed by object name, so a retried attempt overwrites the
// previous attempt's object instead of duplicating it.
type StorageActivities struct {
	store   objectstore.ObjectStore
	metrics *observability.Metrics
}

// NewStorageActivities creates a new StorageActivities instance.
// The metrics parameter may be nil (metrics recording will be skipped).
func NewStorageActivities(store objectstore.ObjectStore, metrics *observability.Metrics) *StorageActivities {
	return &StorageActivities{
		store:   store,
		metrics: metrics,
	}
}

// UploadFile uploads one local file to the backup bucket.
func (a *StorageActivities) UploadFile(ctx context.Context, input UploadFileInput) (*UploadFileOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("uploading file",
		"objectName", input.ObjectName,
		"filePath", input.FilePath,
	)

	result, err := a.store.UploadFile(ctx, input.ObjectName, input.FilePath)
	if err != nil {
		logger.Error("file upload failed", "objectName", input.ObjectName, "error", err)
		return nil, fmt.Errorf("upload file %q: %w", input.ObjectName, err)
	}

	if a.metrics != nil {
		a.metrics.RecordBackupUploaded("file", result.Size)
	}

	logger.Info("file uploaded", "objectName", result.ObjectName, "size", result.Size)

	return &UploadFileOutput{
		ObjectName: result.ObjectName,
		Size:       result.Size,
	}, nil
}

// UploadFolder uploads a local folder tree under an object-name prefix,
// preserving the relative layout.
func (a *StorageActivities) UploadFolder(ctx context.Context, input UploadFolderInput) (*UploadFolderOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("uploading folder",
		"prefix", input.Prefix,
		"folderPath", input.FolderPath,
	)

	results, err := a.store.UploadFolder(ctx, input.Prefix, input.FolderPath)
	if err != nil {
		logger.Error("folder upload failed", "prefix", input.Prefix, "error", err)
		return nil, fmt.Errorf("upload folder %q: %w", input.Prefix, err)
	}

	var total int64
	for _, r := range results {
		total += r.Size
	}

	if a.metrics != nil {
		a.metrics.RecordBackupUploaded("folder", total)
	}

	logger.Info("folder uploaded", "prefix", input.Prefix, "files", len(results), "size", total)

	return &UploadFolderOutput{
		Files: len(results),
		Size:  total,
	}, nil
}
