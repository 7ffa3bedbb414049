// Package stories fetches trending stories through a web-extraction
// service and formats them as a chat digest.
package stories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// frontPage is the news aggregator the /whatshot digest is built from.
const frontPage = "https://news.ycombinator.com"

// Story is one structured record returned by the extraction service.
type Story struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Extractor returns the current top stories.
type Extractor interface {
	TopStories(ctx context.Context) ([]Story, error)
}

// Client talks to a Firecrawl-style extraction API: it submits a target
// URL plus a schema and gets structured records back.
type Client struct {
	http *resty.Client
}

// NewClient creates the extraction client. baseURL defaults to the
// hosted service when empty.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev"
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20 * time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type extractResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Stories []Story `json:"stories"`
	} `json:"data"`
	Error string `json:"error"`
}

// storySchema describes the records we want back: a list of stories
// with title, link and a one-line summary.
var storySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"stories": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":   map[string]any{"type": "string"},
					"url":     map[string]any{"type": "string"},
					"summary": map[string]any{"type": "string"},
				},
				"required": []string{"title", "url"},
			},
		},
	},
	"required": []string{"stories"},
}

// TopStories extracts the aggregator's current front page.
func (c *Client) TopStories(ctx context.Context) ([]Story, error) {
	var out extractResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(extractRequest{
			URLs:   []string{frontPage},
			Prompt: "Extract the top stories from this page.",
			Schema: storySchema,
		}).
		SetResult(&out).
		Post("/v1/extract")
	if err != nil {
		return nil, fmt.Errorf("extract stories: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("extract stories: status %d", resp.StatusCode())
	}
	if !out.Success {
		return nil, fmt.Errorf("extract stories: %s", out.Error)
	}
	return out.Data.Stories, nil
}
