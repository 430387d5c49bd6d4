//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeInboxFiles creates the ingestion inputs on disk. The worker reads the
// same paths, so server, worker and test must share a filesystem.
func writeInboxFiles(t *testing.T, slug string) (docPath, metaPath string) {
	t.Helper()

	inbox := os.Getenv("MODELINGEST_E2E_INBOX")
	if inbox == "" {
		inbox = t.TempDir()
	}

	docPath = filepath.Join(inbox, slug+".md")
	doc := `# Purpose

The model explores predator prey population cycles on a grid.

## Entities

Wolves, sheep and grass patches.
`
	require.NoError(t, os.WriteFile(docPath, []byte(doc), 0o644))

	metaPath = filepath.Join(inbox, slug+"-codemeta.json")
	meta := fmt.Sprintf(`{
		"identifier": "%s",
		"name": "E2E Predator Prey",
		"description": "An end-to-end test model.",
		"keywords": ["ecology", "e2e"]
	}`, slug)
	require.NoError(t, os.WriteFile(metaPath, []byte(meta), 0o644))

	return docPath, metaPath
}

func TestFullIngestLifecycle_E2E(t *testing.T) {
	slug := fmt.Sprintf("e2e-model-%d", time.Now().Unix())
	docPath, metaPath := writeInboxFiles(t, slug)

	// Step 1: Start an ingestion run.
	body, _ := json.Marshal(map[string]string{
		"model_id":           slug,
		"model_slug":         slug,
		"original_file_path": docPath,
		"metadata_json_path": metaPath,
	})
	resp, err := http.Post(apiBaseURL+"/api/v1/models/ingest", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var startResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&startResp))
	workflowID := startResp["workflow_id"].(string)
	assert.Equal(t, "ingest-model-"+slug, workflowID)
	t.Logf("started ingestion: %s", workflowID)

	// Step 2: Poll until terminal state (max 3 minutes).
	deadline := time.Now().Add(3 * time.Minute)
	var finalStatus string
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/models/ingest/%s", apiBaseURL, slug))
		require.NoError(t, err)

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var statusResp map[string]interface{}
		require.NoError(t, json.Unmarshal(respBody, &statusResp))

		finalStatus = statusResp["status"].(string)
		t.Logf("status: %s", finalStatus)

		if finalStatus != "Running" {
			break
		}
		time.Sleep(2 * time.Second)
	}

	assert.Equal(t, "Completed", finalStatus, "ingestion should complete successfully")
}

func TestCancelIngest_E2E(t *testing.T) {
	slug := fmt.Sprintf("e2e-cancel-%d", time.Now().Unix())
	docPath, metaPath := writeInboxFiles(t, slug)

	// Start a run.
	body, _ := json.Marshal(map[string]string{
		"model_id":           slug,
		"model_slug":         slug,
		"original_file_path": docPath,
		"metadata_json_path": metaPath,
	})
	resp, err := http.Post(apiBaseURL+"/api/v1/models/ingest", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Wait briefly then cancel.
	time.Sleep(1 * time.Second)

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/models/ingest/%s", apiBaseURL, slug), nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Poll for terminal state.
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/models/ingest/%s", apiBaseURL, slug))
		require.NoError(t, err)

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var statusResp map[string]interface{}
		require.NoError(t, json.Unmarshal(respBody, &statusResp))

		status := statusResp["status"].(string)
		if status == "Canceled" || status == "Completed" || status == "Failed" || status == "Terminated" {
			t.Logf("run reached terminal state: %s", status)
			return
		}
		time.Sleep(1 * time.Second)
	}
	t.Fatal("ingestion run did not reach terminal state after cancellation")
}

func TestStartSpamCheck_E2E(t *testing.T) {
	resp, err := http.Post(apiBaseURL+"/api/v1/spam-checks", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var startResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&startResp))
	workflowID := startResp["workflow_id"].(string)
	require.NotEmpty(t, workflowID)

	// The batch status endpoint must know about the fresh run.
	resp, err = http.Get(fmt.Sprintf("%s/api/v1/spam-checks/%s", apiBaseURL, workflowID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
