package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/apiclient"
	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	DefaultOllamaBaseURL    = "http://localhost:11434"
	DefaultOllamaModel      = "nomic-embed-text"
	DefaultOllamaDimensions = 768
)

// OllamaConfig configures an OllamaEmbedder.
type OllamaConfig struct {
	BaseURL           string
	Model             string
	Dimensions        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OllamaEmbedder calls the Ollama /api/embeddings endpoint, one text per request.
// Vectors are scaled to unit length so distance thresholds hold across models.
type OllamaEmbedder struct {
	client     *apiclient.Client
	baseURL    string
	model      string
	dimensions int
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates an Ollama embedder, filling unset fields with defaults.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultOllamaDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OllamaEmbedder{
		client:     apiclient.New("ollama", cfg.Timeout, cfg.RequestsPerSecond),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaResponse
	if err := e.client.PostJSON(ctx, e.baseURL+"/api/embeddings", ollamaRequest{Model: e.model, Prompt: text}, &resp); err != nil {
		return nil, serviceError("ollama embed", err)
	}
	if len(resp.Embedding) != e.dimensions {
		return nil, serviceError("ollama embed", fmt.Errorf("got %d dimensions, expected %d", len(resp.Embedding), e.dimensions))
	}
	out := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		out[i] = float32(v)
	}
	utils.NormalizeL2(out)
	return out, nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

func (e *OllamaEmbedder) Close() error { return nil }
