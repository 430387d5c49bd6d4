package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/simhub/model-ingestion-service/internal/domain"
)

// API paths on the origin registry.
const (
	latestBatchPath = "/api/spam/get-latest-batch/"
	spamUpdatePath  = "/api/spam/update/"
)

// Config configures the registry client.
type Config struct {
	// BaseURL is the registry's base URL (e.g. "http://localhost:8000").
	BaseURL string

	// APIKey is sent in the X-API-Key header.
	APIKey string

	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// RateBurst is the maximum burst of requests allowed.
	RateBurst int

	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration
}

// Client defines the registry operations the spam-check pipeline depends on.
type Client interface {
	// GetLatestSpamBatch fetches the latest batch of items awaiting a spam
	// verdict. An empty batch is not an error.
	GetLatestSpamBatch(ctx context.Context) ([]domain.SpamCheckItem, error)
	// SubmitSpamReport submits a verdict for one moderation record. The
	// returned bool reports whether the registry accepted the report.
	SubmitSpamReport(ctx context.Context, report domain.SpamReport) (bool, error)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// HTTPClient is the HTTP implementation of Client, with rate limiting and
// retries on 429 and 5xx responses. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      Config
}

// NewHTTPClient creates a new registry client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("registry config: base URL is required")
	}

	// Apply defaults
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		config:      cfg,
	}, nil
}

// Wire types mirror the registry's API schema, which uses camelCase; they are
// converted to domain types at this boundary.

type contentObject struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	ExternalURL string `json:"externalUrl"`
}

type spamCheckModel struct {
	ID            int64         `json:"id"`
	ContentType   string        `json:"contentType"`
	ObjectID      int64         `json:"objectId"`
	ContentObject contentObject `json:"contentObject"`
}

func (m spamCheckModel) toDomain() domain.SpamCheckItem {
	return domain.SpamCheckItem{
		ID:          m.ID,
		ContentType: m.ContentType,
		ObjectID:    m.ObjectID,
		Content: domain.SpamContent{
			Title:       m.ContentObject.Title,
			Summary:     m.ContentObject.Summary,
			Description: m.ContentObject.Description,
			ExternalURL: m.ContentObject.ExternalURL,
		},
	}
}

// GetLatestSpamBatch fetches the latest batch of items awaiting a verdict.
func (c *HTTPClient) GetLatestSpamBatch(ctx context.Context) ([]domain.SpamCheckItem, error) {
	body, _, err := c.do(ctx, http.MethodGet, latestBatchPath, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to fetch latest spam batch: %w", err)
	}

	var models []spamCheckModel
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("registry: failed to decode spam batch: %w", err)
	}

	items := make([]domain.SpamCheckItem, 0, len(models))
	for _, m := range models {
		items = append(items, m.toDomain())
	}

	return items, nil
}

// SubmitSpamReport submits a verdict for one moderation record.
func (c *HTTPClient) SubmitSpamReport(ctx context.Context, report domain.SpamReport) (bool, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("registry: failed to marshal spam report: %w", err)
	}

	_, status, err := c.do(ctx, http.MethodPost, spamUpdatePath, payload)
	if err != nil {
		return false, fmt.Errorf("registry: failed to submit spam report for %d: %w", report.ObjectID, err)
	}

	// The registry signals acceptance with 200 specifically; other 2xx
	// statuses mean the report was received but not applied.
	return status == http.StatusOK, nil
}

// do executes one API request with rate limiting and retries on 429/5xx.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	url := c.config.BaseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter wait: %w", err)
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("X-API-Key", c.config.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, 0, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(ctx, c.config.RetryDelay); err != nil {
					return nil, 0, err
				}
				continue
			}
			return nil, 0, lastErr
		}

		if c.shouldRetry(resp.StatusCode) {
			retryDelay := c.getRetryDelay(resp)

			// Drain the response body to free the connection before retry.
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if attempt < c.config.MaxRetries {
				lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
				if err := c.waitForRetry(ctx, retryDelay); err != nil {
					return nil, 0, err
				}
				continue
			}

			return nil, 0, fmt.Errorf("max retries exhausted after %d attempts, last status: %d", c.config.MaxRetries+1, resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		resp.Body.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, 0, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		return body, resp.StatusCode, nil
	}

	if lastErr != nil {
		return nil, 0, lastErr
	}
	return nil, 0, errors.New("unexpected error: no response received")
}

// shouldRetry returns true if the status code indicates we should retry.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay determines how long to wait before retrying.
// It respects the Retry-After header if present, otherwise uses the configured retry delay.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

// waitForRetry waits for the specified duration, respecting context cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
