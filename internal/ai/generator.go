package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ai-newsletter/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces newsletter content for a set of topics. Implementations
// must never fail past this boundary: any provider problem degrades to
// deterministic fallback text with provenance marked accordingly.
type Generator interface {
	// IsConfigured reports whether the live provider can be called at all.
	IsConfigured() bool
	// GenerateNewsletter produces one section per topic, in order.
	GenerateNewsletter(ctx context.Context, topics []string) model.Content
}

// PerplexityClient implements Generator against the Perplexity chat
// completions API, which is OpenAI-compatible.
type PerplexityClient struct {
	client  *openai.Client
	model   string
	apiKey  string
	timeout time.Duration
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration // per topic call
}

func NewPerplexity(cfg Config) *PerplexityClient {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		panic("Perplexity model must be specified")
	}
	return &PerplexityClient{
		client:  openai.NewClientWithConfig(cc),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		timeout: timeout,
	}
}

func (p *PerplexityClient) IsConfigured() bool {
	return strings.TrimSpace(p.apiKey) != ""
}

// GenerateNewsletter builds one section per topic. Each topic is one provider
// call with its own timeout; a failed call yields the topic's fallback text.
func (p *PerplexityClient) GenerateNewsletter(ctx context.Context, topics []string) model.Content {
	now := time.Now().UTC()
	sections := make([]model.Section, 0, len(topics))
	for _, topic := range topics {
		sections = append(sections, p.generateSection(ctx, topic))
	}
	return model.Content{
		Subject:     fmt.Sprintf("Weekly AI Newsletter - %s", now.Format("January 02, 2006")),
		GeneratedAt: now,
		Sections:    sections,
		TopicsCount: len(topics),
	}
}

func (p *PerplexityClient) generateSection(ctx context.Context, topic string) model.Section {
	if !p.IsConfigured() {
		return fallbackSection(topic)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: promptFor(topic, maxWordsPerSection)},
		},
		MaxTokens:   300,
		Temperature: 0.2,
		TopP:        0.9,
	})
	if err != nil {
		slog.Error("ai: generate section error", "topic", topic, "err", err)
		return fallbackSection(topic)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		slog.Warn("ai: empty completion", "topic", topic)
		return fallbackSection(topic)
	}
	return model.Section{
		Topic:       topic,
		Content:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Source:      model.SourcePrimary,
		GeneratedAt: time.Now().UTC(),
	}
}

func fallbackSection(topic string) model.Section {
	return model.Section{
		Topic:       topic,
		Content:     fallbackFor(topic),
		Source:      model.SourceFallback,
		GeneratedAt: time.Now().UTC(),
	}
}
