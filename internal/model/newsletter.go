package model

import "time"

// Subscriber is a single newsletter subscription record.
type Subscriber struct {
	Email     string    `json:"email"`
	Topics    []string  `json:"topics"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// Section is generated content for one topic.
type Section struct {
	Topic       string    `json:"topic"`
	Content     string    `json:"content"`
	Source      string    `json:"source"` // SourcePrimary or SourceFallback
	GeneratedAt time.Time `json:"generated_at"`
}

// Content provenance values for Section.Source.
const (
	SourcePrimary  = "perplexity_ai"
	SourceFallback = "fallback"
)

// Content is a fully generated newsletter shared by every subscriber
// holding the same topic set.
type Content struct {
	Subject     string    `json:"subject"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
	TopicsCount int       `json:"topics_count"`
}

// RunRecord is one run-log row: what was generated for one subscriber
// during one pass.
type RunRecord struct {
	Email     string    `json:"subscriber_email"`
	TopicsKey string    `json:"topics"`  // canonical serialized topic set
	Content   string    `json:"content"` // serialized Content
	SentAt    time.Time `json:"sent_at"`
	Success   bool      `json:"success"`
}
