// Package embedding turns text into vectors via a local model or a remote
// embedding service.
package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// Embedder produces vector embeddings for text. Implementations wrap service
// failures with models.ErrEmbeddingService.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the configured embedder, wrapped in an LRU cache when
// cfg.CacheSize is positive.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Provider {
	case "ollama":
		e = NewOllamaEmbedder(OllamaConfig{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "openai":
		e, err = NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:           cfg.BaseURL,
			APIKey:            os.Getenv(cfg.APIKeyEnv),
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "onnx":
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case "mock":
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: ollama, openai, onnx, mock)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		e = NewCachingEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}

func serviceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrEmbeddingService, op, err)
}

// embedEach implements EmbedBatch for services that take one text per call.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
