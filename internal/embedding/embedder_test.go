package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "hello")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)

	assert.InDelta(t, 1.0, norm(a), 1e-5)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Embed(cancelled, "x")
	assert.True(t, errors.Is(err, models.ErrEmbeddingService))
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		if req.Prompt == "boom" {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}
		// Raw Ollama vectors are not unit length.
		_ = json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float64{3, 4 * float64(len(req.Prompt)), 0}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL + "/", Dimensions: 3})
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "abcd"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.InDeltaSlice(t, []float32{0.6, 0.8, 0}, vecs[0], 1e-6)
	assert.InDelta(t, 1.0, norm(vecs[1]), 1e-6)
	assert.InDelta(t, 3.0/math.Sqrt(9+256), float64(vecs[1][0]), 1e-6)

	_, err = e.Embed(context.Background(), "boom")
	assert.True(t, errors.Is(err, models.ErrEmbeddingService), "got %v", err)
	assert.ErrorContains(t, err, "model crashed")

	wrongDims := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, Dimensions: 768})
	_, err = wrongDims.Embed(context.Background(), "a")
	assert.True(t, errors.Is(err, models.ErrEmbeddingService))
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Respond out of order; the embedder must place by index.
		body := `{"data":[{"index":1,"embedding":[0,2]},{"index":0,"embedding":[10,0]}]}`
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := NewOpenAIEmbedder(OpenAIConfig{BaseURL: srv.URL + "/v1"})
	assert.Error(t, err, "missing API key")

	e, err := NewOpenAIEmbedder(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Dimensions: 2})
	require.NoError(t, err)
	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	_, err = e.Embed(context.Background(), "only one")
	assert.True(t, errors.Is(err, models.ErrEmbeddingService), "count mismatch should fail: %v", err)
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "mock", Dimensions: 4, CacheSize: 10})
	require.NoError(t, err)
	_, ok := e.(*CachingEmbedder)
	assert.True(t, ok, "cache wrapper expected when cache_size > 0")
	assert.Equal(t, 4, e.Dimensions())

	e, err = New(config.EmbeddingConfig{Provider: "ollama", BaseURL: "http://localhost:1", Dimensions: 3})
	require.NoError(t, err)
	_, ok = e.(*OllamaEmbedder)
	assert.True(t, ok)

	t.Setenv("KOTAE_TEST_EMBED_KEY", "")
	_, err = New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "KOTAE_TEST_EMBED_KEY"})
	assert.Error(t, err)

	_, err = New(config.EmbeddingConfig{Provider: "word2vec"})
	assert.ErrorContains(t, err, "unknown embedding provider")
}
