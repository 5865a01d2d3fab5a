// Package anthropic implements the llm.Service collaborator contract on top
// of the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/miralabs/mira-go-sdk/llm"
)

// Options configure the Anthropic service adapter.
type Options struct {
	// Model is the Claude model used for all three roles.
	Model string
}

// Service implements llm.Service using one Anthropic client.
type Service struct {
	client *anthropic.Client
	opts   Options
}

// New creates a Service with a client configured from the environment.
func New(optFns ...func(o *Options)) *Service {
	client := anthropic.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a Service from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Service {
	opts := Options{Model: "claude-sonnet-4-20250514"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{client: client, opts: opts}
}

// Classify implements llm.Classifier.
func (s *Service) Classify(ctx context.Context, noteText string) (llm.Classification, error) {
	raw, err := s.complete(ctx, llm.ClassifyPrompt, noteText, 0.0, 64)
	if err != nil {
		return llm.Classification{}, fmt.Errorf("classify: %w", err)
	}
	return llm.ParseClassification(raw)
}

// Extract implements llm.Extractor.
func (s *Service) Extract(ctx context.Context, userText string) ([]string, error) {
	raw, err := s.complete(ctx, llm.ExtractPrompt, userText, 0.0, 128)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return llm.ParseFacts(raw), nil
}

// Summarize implements llm.Summarizer.
func (s *Service) Summarize(ctx context.Context, notes []string) (string, error) {
	var b strings.Builder
	for _, n := range notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	raw, err := s.complete(ctx, llm.SummarizePrompt, b.String(), 0.4, 220)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// complete runs one system+user message exchange and concatenates the text
// blocks of the reply.
func (s *Service) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.opts.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text blocks returned")
	}
	return strings.TrimSpace(text.String()), nil
}
