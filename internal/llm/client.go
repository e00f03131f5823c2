// Package llm is a thin HTTP client for language-model completion backends.
// It is glue around the retrieval core: prompts in, generated text out.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

var defaultModels = map[string]string{
	ProviderOllama: "llama3",
	ProviderOpenAI: "gpt-4o-mini",
}

var defaultBaseURLs = map[string]string{
	ProviderOllama: "http://localhost:11434",
	ProviderOpenAI: "https://api.openai.com/v1",
}

// Options tune a single generation call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client calls a completion backend.
type Client struct {
	provider string
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
}

// Config configures the completion client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New creates a completion client. The provider must be one of ollama or
// openai; openai-compatible backends (Together and friends) are reached by
// overriding BaseURL.
func New(cfg Config) (*Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider != ProviderOllama && provider != ProviderOpenAI {
		return nil, fmt.Errorf("llm: unsupported provider %q (supported: ollama, openai)", cfg.Provider)
	}
	if provider == ProviderOpenAI && cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: provider %q requires an API key", provider)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModels[provider]
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURLs[provider]
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		provider: provider,
		apiKey:   cfg.APIKey,
		model:    model,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Model returns the model the client generates with.
func (c *Client) Model() string { return c.model }

// Generate produces a completion for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}

	switch c.provider {
	case ProviderOllama:
		return c.generateOllama(ctx, prompt, opts)
	default:
		return c.generateOpenAI(ctx, prompt, opts)
	}
}

func (c *Client) generateOllama(ctx context.Context, prompt string, opts Options) (string, error) {
	body := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var out struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := c.post(ctx, c.baseURL+"/api/generate", body, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("llm: ollama: %s", out.Error)
	}
	return out.Response, nil
}

func (c *Client) generateOpenAI(ctx context.Context, prompt string, opts Options) (string, error) {
	body := map[string]any{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, c.baseURL+"/chat/completions", body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm: empty completion response")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("llm: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("llm: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("llm: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm: decoding response: %w", err)
	}
	return nil
}
