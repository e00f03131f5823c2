package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesProvider(t *testing.T) {
	_, err := New(Config{Provider: "banana"})
	assert.Error(t, err)

	_, err = New(Config{Provider: "openai"})
	assert.Error(t, err, "openai requires an API key")

	c, err := New(Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", c.Model())
}

func TestGenerate_Ollama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(map[string]string{"response": "generated text"})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Provider: "ollama", Model: "test-model", BaseURL: srv.URL})
	require.NoError(t, err)

	answer, err := c.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "generated text", answer)
}

func TestGenerate_OllamaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Provider: "ollama", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt", Options{})
	assert.ErrorContains(t, err, "model not found")
}

func TestGenerate_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "the answer"}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Provider: "openai", APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	answer, err := c.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Provider: "ollama", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt", Options{})
	assert.ErrorContains(t, err, "HTTP 502")
}
