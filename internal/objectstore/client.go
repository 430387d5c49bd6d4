// Package objectstore provides a MinIO-backed object store client used to
// back up model artifacts: the metadata file, the original documentation,
// the converted markdown and the code folder.
package objectstore

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the configuration for connecting to a MinIO instance.
type Config struct {
	// Endpoint is the host:port of the MinIO server (e.g. "localhost:9000").
	Endpoint string
	// AccessKey and SecretKey are the MinIO credentials.
	AccessKey string
	SecretKey string
	// Bucket is the bucket all backups are written to.
	Bucket string
	// UseSSL enables TLS for the connection.
	UseSSL bool
	// Region is the bucket region used when the bucket has to be created.
	Region string
}

// Validate checks that all required Config fields are set.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("objectstore config: endpoint is required")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("objectstore config: access key is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("objectstore config: secret key is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("objectstore config: bucket is required")
	}
	return nil
}

// UploadResult describes a completed upload.
type UploadResult struct {
	// ObjectName is the full object key the content was written to.
	ObjectName string
	// Size is the number of bytes uploaded.
	Size int64
}

// ObjectStore defines the interface for backup storage operations. Object
// names are stable per model, so retried uploads overwrite their previous
// attempt instead of accumulating copies.
type ObjectStore interface {
	// EnsureBucket creates the configured bucket if it does not already exist.
	EnsureBucket(ctx context.Context) error
	// UploadFile uploads a single local file under the given object name.
	UploadFile(ctx context.Context, objectName, filePath string) (UploadResult, error)
	// UploadFolder uploads every regular file under folderPath, preserving the
	// relative layout beneath the given object name prefix. It returns one
	// result per uploaded file.
	UploadFolder(ctx context.Context, prefix, folderPath string) ([]UploadResult, error)
}

// Compile-time check that Client implements ObjectStore.
var _ ObjectStore = (*Client)(nil)

// Client is a MinIO object store client.
type Client struct {
	client *minio.Client
	bucket string
	region string
}

// NewClient creates a new MinIO client from the configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to create client: %w", err)
	}

	return &Client{
		client: minioClient,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// EnsureBucket creates the configured bucket if it does not already exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("objectstore: failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	err = c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region})
	if err != nil {
		return fmt.Errorf("objectstore: failed to create bucket %q: %w", c.bucket, err)
	}

	return nil
}

// UploadFile uploads a single local file under the given object name.
func (c *Client) UploadFile(ctx context.Context, objectName, filePath string) (UploadResult, error) {
	if objectName == "" {
		return UploadResult{}, fmt.Errorf("objectstore: object name is required")
	}
	if filePath == "" {
		return UploadResult{}, fmt.Errorf("objectstore: file path is required")
	}

	// Content type is detected from the file extension by the SDK.
	info, err := c.client.FPutObject(ctx, c.bucket, objectName, filePath, minio.PutObjectOptions{})
	if err != nil {
		return UploadResult{}, fmt.Errorf("objectstore: failed to upload %q as %q: %w", filePath, objectName, err)
	}

	return UploadResult{ObjectName: info.Key, Size: info.Size}, nil
}

// UploadFolder uploads every regular file under folderPath, preserving the
// relative layout beneath the given object name prefix.
func (c *Client) UploadFolder(ctx context.Context, prefix, folderPath string) ([]UploadResult, error) {
	if prefix == "" {
		return nil, fmt.Errorf("objectstore: prefix is required")
	}
	if folderPath == "" {
		return nil, fmt.Errorf("objectstore: folder path is required")
	}

	var results []UploadResult
	err := filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(folderPath, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %q: %w", path, err)
		}

		objectName := strings.TrimSuffix(prefix, "/") + "/" + filepath.ToSlash(rel)
		result, err := c.UploadFile(ctx, objectName, path)
		if err != nil {
			return err
		}
		results = append(results, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to upload folder %q: %w", folderPath, err)
	}

	return results, nil
}
