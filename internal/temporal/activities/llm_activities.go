package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/llm"
	"github.com/simhub/model-ingestion-service/internal/observability"
)

// defaultMaxQAPairs caps Q&A generation when the input does not say otherwise.
const defaultMaxQAPairs = 3

const summarizeSystemPrompt = "You summarize technical documentation of scientific simulation models. " +
	"Write a concise summary of the text you are given, preserving model names, parameters, and domain terms. " +
	"Reply with the summary only."

const qaSystemPrompt = "You generate study questions about scientific model documentation. " +
	"Given a passage, produce up to %d question/answer pairs about its content. " +
	"Format each pair as two lines, the first starting with \"Q:\" and the second starting with \"A:\". " +
	"Do not add anything else."

const spamSystemPrompt = "You are a content moderator for a scientific model registry. " +
	"Decide whether the submitted content is spam (advertising, scams, link farming, or content unrelated to scientific modeling). " +
	"Respond with a JSON object with exactly these keys: " +
	`"is_spam" (boolean), "spam_indicators" (array of strings), "reasoning" (string), "confidence" (number between 0 and 1).`

// LLMActivities provides Temporal activities backed by the LLM client:
// summarization, Q&A generation, embedding, and spam classification.
// Methods on this struct are registered as Temporal activities via the worker.
type LLMActivities struct {
	client  llm.Client
	metrics *observability.Metrics
}

// NewLLMActivities creates a new LLMActivities instance.
// The metrics parameter may be nil (metrics recording will be skipped).
func NewLLMActivities(client llm.Client, metrics *observability.Metrics) *LLMActivities {
	return &LLMActivities{
		client:  client,
		metrics: metrics,
	}
}

// SummarizeText produces an LLM summary of the input text. Blank input
// yields an empty summary without an API call.
func (a *LLMActivities) SummarizeText(ctx context.Context, input SummarizeTextInput) (*SummarizeTextOutput, error) {
	logger := activity.GetLogger(ctx)

	if strings.TrimSpace(input.Text) == "" {
		return &SummarizeTextOutput{}, nil
	}

	logger.Info("summarizing text", "textLength", len(input.Text))

	start := time.Now()
	summary, err := a.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: summarizeSystemPrompt},
		{Role: "user", Content: input.Text},
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.Error("summarization failed", "error", err, "duration", duration)
		if a.metrics != nil {
			a.metrics.RecordLLMRequestFailed("summarize", a.client.Model(), errorType(err))
		}
		return nil, fmt.Errorf("summarize text: %w", err)
	}

	if a.metrics != nil {
		a.metrics.RecordLLMRequest("summarize", a.client.Model(), duration)
	}

	return &SummarizeTextOutput{Summary: strings.TrimSpace(summary)}, nil
}

// GenerateQAPairs produces up to MaxPairs question/answer pairs about the
// input text, parsed from alternating "Q:"/"A:" lines in the LLM reply.
// A reply with no parseable pairs is not an error; enrichment simply leaves
// the owner without Q&A data.
func (a *LLMActivities) GenerateQAPairs(ctx context.Context, input GenerateQAPairsInput) (*GenerateQAPairsOutput, error) {
	logger := activity.GetLogger(ctx)

	maxPairs := input.MaxPairs
	if maxPairs <= 0 {
		maxPairs = defaultMaxQAPairs
	}

	if strings.TrimSpace(input.Text) == "" {
		return &GenerateQAPairsOutput{}, nil
	}

	logger.Info("generating QA pairs", "textLength", len(input.Text), "maxPairs", maxPairs)

	start := time.Now()
	reply, err := a.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: fmt.Sprintf(qaSystemPrompt, maxPairs)},
		{Role: "user", Content: input.Text},
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.Error("QA generation failed", "error", err, "duration", duration)
		if a.metrics != nil {
			a.metrics.RecordLLMRequestFailed("generate_qa", a.client.Model(), errorType(err))
		}
		return nil, fmt.Errorf("generate QA pairs: %w", err)
	}

	if a.metrics != nil {
		a.metrics.RecordLLMRequest("generate_qa", a.client.Model(), duration)
	}

	pairs := parseQAPairs(reply, maxPairs)
	logger.Info("QA pairs generated", "pairs", len(pairs))

	return &GenerateQAPairsOutput{Pairs: pairs}, nil
}

// ComputeEmbedding embeds one text. Empty text yields an empty vector
// without an API call.
func (a *LLMActivities) ComputeEmbedding(ctx context.Context, input ComputeEmbeddingInput) (*ComputeEmbeddingOutput, error) {
	logger := activity.GetLogger(ctx)

	start := time.Now()
	vectors, err := a.client.Embed(ctx, []string{input.Text})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.Error("embedding failed", "error", err, "duration", duration)
		if a.metrics != nil {
			a.metrics.RecordLLMRequestFailed("embed", a.client.EmbeddingModel(), errorType(err))
		}
		return nil, fmt.Errorf("compute embedding: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("compute embedding: expected 1 vector, got %d", len(vectors))
	}

	if a.metrics != nil {
		a.metrics.RecordLLMRequest("embed", a.client.EmbeddingModel(), duration)
		a.metrics.RecordEmbeddingsComputed(1)
	}

	return &ComputeEmbeddingOutput{Vector: vectors[0]}, nil
}

// ClassifySpam asks the LLM for a spam verdict on one moderation record.
// A reply that is not the expected JSON object fails with an
// ApplicationError of type MalformedLLMResponse, distinguishable from
// transport failures which are retried by policy.
func (a *LLMActivities) ClassifySpam(ctx context.Context, input ClassifySpamInput) (*ClassifySpamOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("classifying content",
		"recordID", input.Item.ID,
		"contentType", input.Item.ContentType,
		"objectID", input.Item.ObjectID,
	)

	start := time.Now()
	reply, err := a.client.ChatJSON(ctx, []llm.Message{
		{Role: "system", Content: spamSystemPrompt},
		{Role: "user", Content: spamContentText(input.Item)},
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.Error("classification failed", "recordID", input.Item.ID, "error", err, "duration", duration)
		if a.metrics != nil {
			a.metrics.RecordLLMRequestFailed("classify_spam", a.client.Model(), errorType(err))
		}
		return nil, fmt.Errorf("classify spam for record %d: %w", input.Item.ID, err)
	}

	var report domain.LLMSpamReport
	if err := json.Unmarshal([]byte(reply), &report); err != nil {
		logger.Error("classification reply is not valid JSON", "recordID", input.Item.ID, "error", err)
		if a.metrics != nil {
			a.metrics.RecordLLMRequestFailed("classify_spam", a.client.Model(), "malformed_response")
		}
		return nil, temporal.NewApplicationError(
			fmt.Sprintf("classifier reply for record %d is not the expected JSON object: %v", input.Item.ID, err),
			domain.ErrTypeMalformedLLMResponse,
		)
	}

	if report.Confidence < 0 {
		report.Confidence = 0
	}
	if report.Confidence > 1 {
		report.Confidence = 1
	}

	if a.metrics != nil {
		a.metrics.RecordLLMRequest("classify_spam", a.client.Model(), duration)
	}

	logger.Info("content classified",
		"recordID", input.Item.ID,
		"isSpam", report.IsSpam,
		"confidence", report.Confidence,
	)

	return &ClassifySpamOutput{Report: report}, nil
}

// spamContentText flattens a moderation record into the classifier prompt.
func spamContentText(item domain.SpamCheckItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content type: %s\n", item.ContentType)
	fmt.Fprintf(&b, "Title: %s\n", item.Content.Title)
	fmt.Fprintf(&b, "Summary: %s\n", item.Content.Summary)
	fmt.Fprintf(&b, "Description: %s\n", item.Content.Description)
	if item.Content.ExternalURL != "" {
		fmt.Fprintf(&b, "External URL: %s\n", item.Content.ExternalURL)
	}
	return b.String()
}

// parseQAPairs extracts up to maxPairs question/answer pairs from alternating
// "Q:"/"A:" lines. An answer line without a pending question and any other
// line are skipped.
func parseQAPairs(reply string, maxPairs int) []QAPair {
	var pairs []QAPair
	var question string

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Q:"):
			question = strings.TrimSpace(strings.TrimPrefix(line, "Q:"))
		case strings.HasPrefix(line, "A:"):
			answer := strings.TrimSpace(strings.TrimPrefix(line, "A:"))
			if question == "" || answer == "" {
				continue
			}
			pairs = append(pairs, QAPair{
				ID:       uuid.NewString(),
				Question: question,
				Answer:   answer,
			})
			question = ""
			if len(pairs) == maxPairs {
				return pairs
			}
		}
	}

	return pairs
}

// errorType classifies an error for metrics labeling.
// Uses errors.As to correctly unwrap wrapped errors.
func errorType(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type != "" {
			return apiErr.Type
		}
		return fmt.Sprintf("http_%d", apiErr.StatusCode)
	}
	return "unknown"
}
