// Package llm provides a client for an OpenAI-compatible LLM API, covering
// the chat completions used for synthetic-data generation and spam
// classification, and the embeddings endpoint used by the embedding pipeline.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default values for the client. The defaults target Ollama's
// OpenAI-compatible endpoint, which is what local deployments run.
const (
	defaultBaseURL    = "http://localhost:11434/v1"
	defaultModel      = "llama3.1"
	defaultRetryDelay = 2 * time.Second
)

// Message is a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the LLM operations the pipelines depend on.
type Client interface {
	// Chat sends a chat completion request and returns the assistant's reply.
	Chat(ctx context.Context, messages []Message) (string, error)
	// ChatJSON is Chat with the response constrained to a JSON object.
	ChatJSON(ctx context.Context, messages []Message) (string, error)
	// Embed computes one embedding per input text. Empty texts produce empty
	// vectors without being sent to the API.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the chat model identifier being used.
	Model() string
	// EmbeddingModel returns the embedding model identifier being used.
	EmbeddingModel() string
}

// Config holds the parameters needed to create a client.
type Config struct {
	// APIKey is the API key; may be empty for local deployments.
	APIKey string
	// BaseURL is the chat API base URL (empty means the Ollama default).
	BaseURL string
	// Model is the chat model identifier.
	Model string
	// EmbeddingBaseURL is the embeddings API base URL (empty means BaseURL).
	EmbeddingBaseURL string
	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string
	// Temperature is the sampling temperature for chat completions.
	Temperature float64
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
	// MaxRetries is the number of retries on transient errors (429, 5xx).
	MaxRetries int
}

// Compile-time check that OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)

// OpenAIClient implements Client against any OpenAI-compatible API.
type OpenAIClient struct {
	httpClient       *http.Client
	apiKey           string
	baseURL          string
	model            string
	embeddingBaseURL string
	embeddingModel   string
	temperature      float64
	maxRetries       int
	retryDelay       time.Duration
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(cfg Config) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	embeddingBaseURL := cfg.EmbeddingBaseURL
	if embeddingBaseURL == "" {
		embeddingBaseURL = baseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OpenAIClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:           cfg.APIKey,
		baseURL:          baseURL,
		model:            model,
		embeddingBaseURL: embeddingBaseURL,
		embeddingModel:   cfg.EmbeddingModel,
		temperature:      cfg.Temperature,
		maxRetries:       maxRetries,
		retryDelay:       defaultRetryDelay,
	}
}

// Model returns the chat model identifier being used.
func (c *OpenAIClient) Model() string {
	return c.model
}

// EmbeddingModel returns the embedding model identifier being used.
func (c *OpenAIClient) EmbeddingModel() string {
	return c.embeddingModel
}

// chatRequest represents the Chat Completions API request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// responseFormat specifies the output format for the API response.
type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse represents the Chat Completions API response body.
type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

// chatChoice represents a single completion choice.
type chatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// embeddingsRequest represents the Embeddings API request body.
type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingsResponse represents the Embeddings API response body.
type embeddingsResponse struct {
	Data []embeddingDatum `json:"data"`
}

// embeddingDatum is one embedding in an embeddings response.
type embeddingDatum struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error apiErrorDetail `json:"error"`
}

// apiErrorDetail contains error details from the API.
type apiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Chat sends a chat completion request and returns the assistant's reply.
// Transient errors (5xx and 429) are retried up to MaxRetries times with
// linear backoff.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.chat(ctx, messages, nil)
}

// ChatJSON is Chat with the response constrained to a JSON object.
func (c *OpenAIClient) ChatJSON(ctx context.Context, messages []Message) (string, error) {
	return c.chat(ctx, messages, &responseFormat{Type: "json_object"})
}

func (c *OpenAIClient) chat(ctx context.Context, messages []Message, format *responseFormat) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("llm: at least one message is required")
	}

	chatReq := chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		ResponseFormat: format,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("llm: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		content, err := c.doChatRequest(ctx, chatReq)
		if err == nil {
			return content, nil
		}

		// Only retry on transient errors (5xx, 429).
		if !isTransientError(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("llm: exhausted %d retries: %w", c.maxRetries, lastErr)
}

// doChatRequest performs a single request to the chat completions endpoint.
func (c *OpenAIClient) doChatRequest(ctx context.Context, chatReq chatRequest) (string, error) {
	respBody, err := c.post(ctx, "chat", c.baseURL+"/chat/completions", chatReq)
	if err != nil {
		return "", err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("llm: failed to unmarshal chat response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices in chat response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Embed computes one embedding per input text, preserving input order. Empty
// texts get an empty vector without being sent to the API; if every text is
// empty no request is made at all.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var input []string
	var inputIndexes []int
	for i, text := range texts {
		if text == "" {
			vectors[i] = []float32{}
			continue
		}
		input = append(input, text)
		inputIndexes = append(inputIndexes, i)
	}
	if len(input) == 0 {
		return vectors, nil
	}

	embReq := embeddingsRequest{
		Model: c.embeddingModel,
		Input: input,
	}

	var respBody []byte
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("llm: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		var err error
		respBody, err = c.post(ctx, "embeddings", c.embeddingBaseURL+"/embeddings", embReq)
		if err == nil {
			lastErr = nil
			break
		}
		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("llm: exhausted %d retries: %w", c.maxRetries, lastErr)
	}

	var embResp embeddingsResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("llm: failed to unmarshal embeddings response: %w", err)
	}

	if len(embResp.Data) != len(input) {
		return nil, fmt.Errorf("llm: expected %d embeddings, got %d", len(input), len(embResp.Data))
	}

	for _, datum := range embResp.Data {
		if datum.Index < 0 || datum.Index >= len(inputIndexes) {
			return nil, fmt.Errorf("llm: embedding index %d out of range", datum.Index)
		}
		vectors[inputIndexes[datum.Index]] = datum.Embedding
	}

	return vectors, nil
}

// post performs a single JSON POST and returns the response body, mapping
// non-200 statuses to APIError.
func (c *OpenAIClient) post(ctx context.Context, endpoint, url string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(endpoint, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// parseAPIError parses an API error from the response status code and body.
func parseAPIError(endpoint string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp apiErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
		apiErr.Code = errResp.Error.Code
	}

	return apiErr
}
