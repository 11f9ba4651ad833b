package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/apiclient"
)

const anthropicVersion = "2023-06-01"

// Anthropic calls the Anthropic /v1/messages endpoint.
type Anthropic struct {
	client *apiclient.Client
	url    string
	opts   Options
}

type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropic creates an Anthropic messages client. An API key is required.
func NewAnthropic(opts Options) (*Anthropic, error) {
	if opts.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com"
	}
	if opts.Model == "" {
		opts.Model = "claude-3-5-haiku-latest"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	client := apiclient.New("anthropic", opts.Timeout, 0)
	client.Headers["x-api-key"] = opts.APIKey
	client.Headers["anthropic-version"] = anthropicVersion
	return &Anthropic{client: client, url: strings.TrimRight(opts.BaseURL, "/") + "/v1/messages", opts: opts}, nil
}

func (c *Anthropic) Name() string { return "anthropic/" + c.opts.Model }

func (c *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	req := messagesRequest{
		Model:       c.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}
	var resp messagesResponse
	if err := c.client.PostJSON(ctx, c.url, req, &resp); err != nil {
		return "", serviceError("anthropic", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", serviceError("anthropic", errors.New("no text content in response"))
	}
	return b.String(), nil
}
