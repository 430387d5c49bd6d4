package domain

// SpamContent is the user-submitted content under review.
type SpamContent struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	ExternalURL string `json:"external_url,omitempty"`
}

// SpamCheckItem is one entry of a spam-check batch fetched from the origin
// registry. ID identifies the moderation record; ObjectID identifies the
// content object it refers to.
type SpamCheckItem struct {
	ID          int64       `json:"id"`
	ContentType string      `json:"content_type"`
	ObjectID    int64       `json:"object_id"`
	Content     SpamContent `json:"content"`
}

// LLMSpamReport is the classifier's verdict on one item.
type LLMSpamReport struct {
	IsSpam         bool     `json:"is_spam"`
	SpamIndicators []string `json:"spam_indicators"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
}

// SpamReport is the verdict keyed by the moderation record id, as submitted
// back to the origin registry.
type SpamReport struct {
	ObjectID       int64    `json:"object_id"`
	IsSpam         bool     `json:"is_spam"`
	SpamIndicators []string `json:"spam_indicators"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
}
