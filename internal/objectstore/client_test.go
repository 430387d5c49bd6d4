package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "model-backups",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty endpoint",
			mutate:  func(c *Config) { c.Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "empty access key",
			mutate:  func(c *Config) { c.AccessKey = "" },
			wantErr: "access key is required",
		},
		{
			name:    "empty secret key",
			mutate:  func(c *Config) { c.SecretKey = "" },
			wantErr: "secret key is required",
		},
		{
			name:    "empty bucket",
			mutate:  func(c *Config) { c.Bucket = "" },
			wantErr: "bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}

func TestObjectStoreInterface(t *testing.T) {
	t.Parallel()

	var _ ObjectStore = (*Client)(nil)
}

func TestClient_UploadFile_Validation(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "model-backups",
	})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("rejects empty object name", func(t *testing.T) {
		_, err := client.UploadFile(ctx, "", "/tmp/file")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object name is required")
	})

	t.Run("rejects empty file path", func(t *testing.T) {
		_, err := client.UploadFile(ctx, "sugarscape/metadata.json", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file path is required")
	})
}

func TestClient_UploadFolder_Validation(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "model-backups",
	})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("rejects empty prefix", func(t *testing.T) {
		_, err := client.UploadFolder(ctx, "", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prefix is required")
	})

	t.Run("rejects empty folder path", func(t *testing.T) {
		_, err := client.UploadFolder(ctx, "sugarscape/code", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "folder path is required")
	})
}

// Integration tests (require running MinIO)

func TestClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := setupTestClient(t)
	ctx := context.Background()

	t.Run("EnsureBucket is idempotent", func(t *testing.T) {
		require.NoError(t, client.EnsureBucket(ctx))
		require.NoError(t, client.EnsureBucket(ctx))
	})

	t.Run("UploadFile uploads and overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "metadata.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":"model-1"}`), 0o644))

		objectName := "test/" + uuid.New().String() + "/metadata.json"

		result, err := client.UploadFile(ctx, objectName, path)
		require.NoError(t, err)
		assert.Equal(t, objectName, result.ObjectName)
		assert.Equal(t, int64(17), result.Size)

		// Same object name again overwrites instead of failing.
		_, err = client.UploadFile(ctx, objectName, path)
		require.NoError(t, err)
	})

	t.Run("UploadFolder preserves relative layout", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.nlogo"), []byte("to setup end"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "agents.nls"), []byte("breed [ants ant]"), 0o644))

		prefix := "test/" + uuid.New().String() + "/code"

		results, err := client.UploadFolder(ctx, prefix, dir)
		require.NoError(t, err)
		require.Len(t, results, 2)

		names := []string{results[0].ObjectName, results[1].ObjectName}
		assert.Contains(t, names, prefix+"/main.nlogo")
		assert.Contains(t, names, prefix+"/src/agents.nls")
	})

	t.Run("UploadFile with missing local file fails", func(t *testing.T) {
		_, err := client.UploadFile(ctx, "test/missing.txt", filepath.Join(t.TempDir(), "missing.txt"))
		require.Error(t, err)
	})
}

// setupTestClient creates a test object store client against a local MinIO.
func setupTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "test-model-backups",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.EnsureBucket(ctx); err != nil {
		t.Skipf("Skipping integration test: MinIO not reachable: %v", err)
	}

	return client
}
