package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

func TestOpenAI_Generate(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		if req.Messages[0].Content == "fail" {
			http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Call 1-300-88-6688."}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAI(Options{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Model: "gpt-test"})
	require.NoError(t, err)
	out, err := c.Generate(context.Background(), "How can I contact Maybank?")
	require.NoError(t, err)
	assert.Equal(t, "Call 1-300-88-6688.", out)
	assert.Equal(t, "openai/gpt-test", c.Name())

	_, err = c.Generate(context.Background(), "fail")
	assert.True(t, errors.Is(err, models.ErrModelService), "got %v", err)
	assert.Equal(t, 2, calls, "failures are not retried")
}

func TestAnthropic_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1024, req.MaxTokens)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"there"}]}`))
	}))
	defer srv.Close()

	_, err := NewAnthropic(Options{BaseURL: srv.URL})
	assert.Error(t, err)

	c, err := NewAnthropic(Options{BaseURL: srv.URL, APIKey: "sk-ant"})
	require.NoError(t, err)
	out, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
}

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Nil(t, req.Options)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true})
	}))
	defer srv.Close()

	out, err := NewOllama(Options{BaseURL: srv.URL}).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = NewOllama(Options{BaseURL: "http://127.0.0.1:1"}).Generate(context.Background(), "p")
	assert.True(t, errors.Is(err, models.ErrModelService))
}

func TestMock(t *testing.T) {
	m := NewMock()
	out, err := m.Generate(context.Background(), "echo me")
	require.NoError(t, err)
	assert.Equal(t, "echo me", out)

	m.Reply = "fixed"
	out, _ = m.Generate(context.Background(), "x")
	assert.Equal(t, "fixed", out)
	assert.Equal(t, []string{"echo me", "x"}, m.Prompts())

	m.Err = errors.New("down")
	_, err = m.Generate(context.Background(), "y")
	assert.True(t, errors.Is(err, models.ErrModelService))
}

func TestNew(t *testing.T) {
	t.Setenv("KOTAE_TEST_LLM_KEY", "k")
	c, err := New(config.LLMConfig{Provider: "anthropic", APIKeyEnv: "KOTAE_TEST_LLM_KEY"})
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, c)

	c, err = New(config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())

	_, err = New(config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}
