package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/apiclient"
)

// OpenAI calls an OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	client *apiclient.Client
	url    string
	opts   Options
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAI creates an OpenAI chat client. An API key is required.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	client := apiclient.New("openai", opts.Timeout, 0)
	client.Headers["Authorization"] = "Bearer " + opts.APIKey
	return &OpenAI{client: client, url: strings.TrimRight(opts.BaseURL, "/") + "/chat/completions", opts: opts}, nil
}

func (c *OpenAI) Name() string { return "openai/" + c.opts.Model }

func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}
	var resp chatResponse
	if err := c.client.PostJSON(ctx, c.url, req, &resp); err != nil {
		return "", serviceError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", serviceError("openai", errors.New("no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}
