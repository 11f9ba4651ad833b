// Package llm provides language model clients that complete a single prompt.
package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// Client completes a prompt. One call per prompt; no retries. Failures wrap
// models.ErrModelService.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options are generation parameters shared by the HTTP providers.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// New builds the configured client. API keys are read from cfg.APIKeyEnv.
func New(cfg config.LLMConfig) (Client, error) {
	opts := Options{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if cfg.APIKeyEnv != "" {
		opts.APIKey = os.Getenv(cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(opts)
	case "anthropic":
		return NewAnthropic(opts)
	case "ollama":
		return NewOllama(opts), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, anthropic, ollama, mock)", cfg.Provider)
	}
}

func serviceError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrModelService, provider, err)
}
