// Package config loads and validates the application configuration from a
// JSON file. Values support ${ENV_VAR} expansion, and KBASE_-prefixed
// environment variables override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the root application configuration.
type Config struct {
	VectorDBPath    string `json:"vector_db_path"`
	CatalogPath     string `json:"catalog_path,omitempty"` // empty disables chunk text resolution
	EmbeddingDim    int    `json:"embedding_dim"`
	TopK            int    `json:"top_k"`
	FeedbackLogPath string `json:"feedback_log_path"`
	APIHost         string `json:"api_host"`
	APIPort         int    `json:"api_port"`

	Embedder EmbedderConfig `json:"embedder"`
	LLM      LLMConfig      `json:"llm"`
	Crawl    CrawlConfig    `json:"crawl"`
}

// EmbedderConfig selects the embedding backend.
type EmbedderConfig struct {
	Provider string `json:"provider"`           // "hash" (offline), "openai"
	BaseURL  string `json:"base_url,omitempty"` // openai-compatible endpoint
	APIKey   string `json:"api_key,omitempty"`  // supports ${ENV_VAR} expansion
	Model    string `json:"model,omitempty"`
}

// LLMConfig selects the completion backend.
type LLMConfig struct {
	Provider string `json:"provider"` // "ollama", "openai"
	BaseURL  string `json:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"` // supports ${ENV_VAR} expansion
	Model    string `json:"model,omitempty"`
}

// CrawlConfig bounds web crawls.
type CrawlConfig struct {
	MaxPages       int      `json:"max_pages"`
	AllowedDomains []string `json:"allowed_domains,omitempty"`
	DelayMS        int      `json:"delay_ms"`
	TimeoutSecs    int      `json:"timeout_secs"`
	RenderEndpoint string   `json:"render_endpoint,omitempty"` // headless-rendering service
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VectorDBPath:    "data/index.bin",
		CatalogPath:     "data/catalog.db",
		EmbeddingDim:    768,
		TopK:            3,
		FeedbackLogPath: "logs/feedback.log",
		APIHost:         "127.0.0.1",
		APIPort:         8000,
		Embedder:        EmbedderConfig{Provider: "hash"},
		LLM: LLMConfig{
			Provider: "ollama",
			APIKey:   "${OPENAI_API_KEY}", // used only by the openai provider
		},
		Crawl: CrawlConfig{
			MaxPages:    10,
			DelayMS:     1000,
			TimeoutSecs: 20,
		},
	}
}

// Load loads configuration from a file. A missing file is not an error:
// defaults plus environment overrides are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.expandEnvVars()
	cfg.applyOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandEnvVars expands ${ENV_VAR} placeholders in secret-bearing fields.
func (c *Config) expandEnvVars() {
	c.Embedder.APIKey = os.ExpandEnv(c.Embedder.APIKey)
	c.LLM.APIKey = os.ExpandEnv(c.LLM.APIKey)
}

// applyOverrides replaces file values with KBASE_-prefixed environment
// variables when set. Overrides win over both defaults and the file.
func (c *Config) applyOverrides() {
	overrideString(&c.VectorDBPath, "KBASE_VECTOR_DB_PATH")
	overrideString(&c.CatalogPath, "KBASE_CATALOG_PATH")
	overrideInt(&c.EmbeddingDim, "KBASE_EMBEDDING_DIM")
	overrideInt(&c.TopK, "KBASE_TOP_K")
	overrideString(&c.FeedbackLogPath, "KBASE_FEEDBACK_LOG_PATH")
	overrideString(&c.APIHost, "KBASE_API_HOST")
	overrideInt(&c.APIPort, "KBASE_API_PORT")

	overrideString(&c.Embedder.Provider, "KBASE_EMBED_PROVIDER")
	overrideString(&c.Embedder.BaseURL, "KBASE_EMBED_BASE_URL")
	overrideString(&c.Embedder.APIKey, "KBASE_EMBED_API_KEY")
	overrideString(&c.Embedder.Model, "KBASE_EMBED_MODEL")

	overrideString(&c.LLM.Provider, "KBASE_LLM_PROVIDER")
	overrideString(&c.LLM.BaseURL, "KBASE_LLM_BASE_URL")
	overrideString(&c.LLM.APIKey, "KBASE_LLM_API_KEY")
	overrideString(&c.LLM.Model, "KBASE_LLM_MODEL")

	overrideInt(&c.Crawl.MaxPages, "KBASE_CRAWL_MAX_PAGES")
	overrideInt(&c.Crawl.DelayMS, "KBASE_CRAWL_DELAY_MS")
	overrideString(&c.Crawl.RenderEndpoint, "KBASE_CRAWL_RENDER_ENDPOINT")
}

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if c.VectorDBPath == "" {
		return fmt.Errorf("vector_db_path must not be empty")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be greater than 0, got %d", c.EmbeddingDim)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be greater than 0, got %d", c.TopK)
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("api_port %d out of range", c.APIPort)
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be greater than 0, got %d", c.Crawl.MaxPages)
	}
	if c.Crawl.TimeoutSecs <= 0 {
		return fmt.Errorf("crawl.timeout_secs must be greater than 0, got %d", c.Crawl.TimeoutSecs)
	}
	if c.Crawl.DelayMS < 0 {
		return fmt.Errorf("crawl.delay_ms must not be negative, got %d", c.Crawl.DelayMS)
	}

	switch c.Embedder.Provider {
	case "hash", "openai":
	default:
		return fmt.Errorf("unsupported embedder provider %q", c.Embedder.Provider)
	}
	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}

	return nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
