package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/apiclient"
	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultOpenAIDimensions = 1536
)

// OpenAIConfig configures an OpenAIEmbedder. Any OpenAI-compatible
// /embeddings endpoint works.
type OpenAIConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OpenAIEmbedder embeds whole batches in one /embeddings request. Vectors are
// scaled to unit length.
type OpenAIEmbedder struct {
	client     *apiclient.Client
	baseURL    string
	model      string
	dimensions int
}

type openAIRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates an OpenAI embedder. An API key is required.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultOpenAIDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := apiclient.New("openai", cfg.Timeout, cfg.RequestsPerSecond)
	client.Headers["Authorization"] = "Bearer " + cfg.APIKey
	return &OpenAIEmbedder{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var resp openAIResponse
	if err := e.client.PostJSON(ctx, e.baseURL+"/embeddings", openAIRequest{Model: e.model, Input: texts}, &resp); err != nil {
		return nil, serviceError("openai embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, serviceError("openai embed", fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || len(d.Embedding) != e.dimensions {
			return nil, serviceError("openai embed", fmt.Errorf("bad embedding at index %d (%d dimensions)", d.Index, len(d.Embedding)))
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		utils.NormalizeL2(v)
		out[d.Index] = v
	}
	for i, v := range out {
		if v == nil {
			return nil, serviceError("openai embed", fmt.Errorf("missing embedding for input %d", i))
		}
	}
	return out, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

func (e *OpenAIEmbedder) Close() error { return nil }
