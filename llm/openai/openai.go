// Package openai implements the llm.Service collaborator contract on top of
// the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/miralabs/mira-go-sdk/llm"
)

// Options configure the OpenAI service adapter.
type Options struct {
	// Model is the chat model used for all three roles.
	Model string
}

// Service implements llm.Service using one OpenAI client.
type Service struct {
	client *openai.Client
	opts   Options
}

// New creates a Service with a client configured from the environment.
func New(optFns ...func(o *Options)) *Service {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a Service from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Service {
	opts := Options{Model: openai.ChatModelGPT4oMini}
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

// complete runs one system+user chat completion and returns the reply text.
func (s *Service) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
