package llm

import (
	"context"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/apiclient"
)

// Ollama calls a local Ollama /api/generate endpoint without streaming.
type Ollama struct {
	client *apiclient.Client
	url    string
	opts   Options
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllama creates an Ollama client.
func NewOllama(opts Options) *Ollama {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434"
	}
	if opts.Model == "" {
		opts.Model = "llama3.2"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Ollama{
		client: apiclient.New("ollama", opts.Timeout, 0),
		url:    strings.TrimRight(opts.BaseURL, "/") + "/api/generate",
		opts:   opts,
	}
}

func (c *Ollama) Name() string { return "ollama/" + c.opts.Model }

func (c *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Model: c.opts.Model, Prompt: prompt}
	if c.opts.MaxTokens > 0 || c.opts.Temperature > 0 {
		req.Options = &generateOptions{NumPredict: c.opts.MaxTokens, Temperature: c.opts.Temperature}
	}
	var resp generateResponse
	if err := c.client.PostJSON(ctx, c.url, req, &resp); err != nil {
		return "", serviceError("ollama", err)
	}
	return resp.Response, nil
}
