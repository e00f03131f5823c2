package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"kbase/internal/agent"
	"kbase/internal/catalog"
	"kbase/internal/config"
	"kbase/internal/embedder"
	"kbase/internal/ingest"
	"kbase/internal/llm"
	"kbase/internal/search"
	"kbase/internal/vector"
)

// stack holds the wired storage and embedding components shared by the
// commands.
type stack struct {
	emb     embedder.Embedder
	index   *vector.Index
	catalog *catalog.Catalog // nil when disabled or unavailable
}

// openStack builds the embedder, vector index and chunk catalog from the
// loaded configuration. The catalog is best-effort: if it cannot be opened,
// search falls back to placeholder labels.
func openStack(cfg *config.Config) (*stack, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.VectorDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	ix, err := vector.Open(cfg.VectorDBPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			log.Printf("catalog unavailable, labels will not resolve: %v", err)
			cat = nil
		}
	}

	return &stack{emb: emb, index: ix, catalog: cat}, nil
}

// Close releases the catalog connection. The index needs no teardown: every
// mutation persists immediately.
func (s *stack) Close() {
	if s.catalog != nil {
		if err := s.catalog.Close(); err != nil {
			log.Printf("closing catalog: %v", err)
		}
	}
}

func (s *stack) pipeline() *ingest.Pipeline {
	return ingest.New(s.emb, s.index, s.catalog)
}

func (s *stack) searchService(topK int) *search.Service {
	return search.New(s.emb, s.index, s.catalog, topK)
}

// newAgent wires the search service and completion client into an agent,
// plus the feedback collector when a log path is configured.
func (s *stack) newAgent(cfg *config.Config) (*agent.Agent, *agent.FeedbackCollector, error) {
	client, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating llm client: %w", err)
	}

	var fc *agent.FeedbackCollector
	if cfg.FeedbackLogPath != "" {
		fc, err = agent.NewFeedbackCollector(cfg.FeedbackLogPath)
		if err != nil {
			log.Printf("feedback collection disabled: %v", err)
			fc = nil
		}
	}

	return agent.New(s.searchService(cfg.TopK), client), fc, nil
}

func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	switch cfg.Embedder.Provider {
	case "hash":
		return embedder.NewHash(cfg.EmbeddingDim), nil
	case "openai":
		return embedder.NewOpenAI(embedder.OpenAIConfig{
			BaseURL: cfg.Embedder.BaseURL,
			APIKey:  cfg.Embedder.APIKey,
			Model:   cfg.Embedder.Model,
			Dims:    cfg.EmbeddingDim,
			Timeout: 30 * time.Second,
		})
	default:
		return nil, fmt.Errorf("unsupported embedder provider %q", cfg.Embedder.Provider)
	}
}
