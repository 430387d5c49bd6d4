//go:build e2e

// E2E tests require the full model ingestion stack running:
// 1. docker compose -f docker-compose.test.yml up -d --wait
// 2. Start server and worker pointed at the mock LLM:
//    MODELINGEST_LLM_BASE_URL=<mock> go run ./cmd/server &
//    MODELINGEST_LLM_BASE_URL=<mock> go run ./cmd/worker &
// 3. Run: go test -tags e2e -v ./tests/e2e/...

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

var (
	apiBaseURL    string
	mockLLMServer *httptest.Server
)

func TestMain(m *testing.M) {
	apiBaseURL = os.Getenv("MODELINGEST_API_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080"
	}

	// Mock OpenAI-compatible endpoint serving both chat completions (used
	// for summaries, Q&A generation and spam verdicts) and embeddings.
	mockLLMServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/embeddings" || r.URL.Path == "/api/embeddings":
			var req struct {
				Input []string `json:"input"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			type embedding struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}
			data := make([]embedding, len(req.Input))
			for i := range req.Input {
				data[i] = embedding{Embedding: make([]float32, 768), Index: i}
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
		default:
			w.Write([]byte(`{
				"choices": [{
					"message": {
						"content": "Q: What does the model do?\nA: It simulates populations."
					}
				}]
			}`))
		}
	}))
	defer mockLLMServer.Close()

	fmt.Printf("Mock LLM: %s\n", mockLLMServer.URL)

	os.Exit(m.Run())
}
