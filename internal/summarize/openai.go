// Package summarize wraps the language-model call that condenses chat
// lines into prose.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	model        = "gpt-3.5-turbo"
	systemPrompt = "Summarize these chat messages concisely:"
)

// OpenAI summarizes chat lines with the OpenAI chat-completions API.
type OpenAI struct {
	llm llms.Model
}

// NewOpenAI creates the summarizer. baseURL is optional and mainly
// useful for tests and proxies.
func NewOpenAI(token, baseURL string) (*OpenAI, error) {
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return &OpenAI{llm: llm}, nil
}

// Summarize condenses the ordered lines into prose.
func (o *OpenAI) Summarize(ctx context.Context, lines []string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(strings.Join(lines, "\n"))},
		},
	}

	resp, err := o.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate summary: empty response")
	}
	return resp.Choices[0].Content, nil
}
