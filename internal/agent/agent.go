// Package agent answers user questions by retrieving relevant chunks from
// the knowledge base and forwarding them with the question to a language
// model.
package agent

import (
	"context"
	"fmt"
	"strings"

	"kbase/internal/chunker"
	"kbase/internal/llm"
	"kbase/internal/search"
)

// contextTokenBudget bounds how much retrieved text goes into the prompt.
const contextTokenBudget = 2000

// Generator produces a completion for a prompt. Satisfied by *llm.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// Agent is the retrieval-augmented answerer.
type Agent struct {
	search *search.Service
	llm    Generator
}

// New creates an agent over the given search service and completion backend.
func New(svc *search.Service, gen Generator) *Agent {
	return &Agent{search: svc, llm: gen}
}

// Answer retrieves the chunks nearest to the query and asks the language
// model to answer from them.
func (a *Agent) Answer(ctx context.Context, query string) (string, error) {
	matches, err := a.search.SearchChunks(ctx, query, 0)
	if err != nil {
		return "", fmt.Errorf("agent: retrieving context: %w", err)
	}

	prompt := BuildPrompt(query, matches)
	answer, err := a.llm.Generate(ctx, prompt, llm.Options{})
	if err != nil {
		return "", fmt.Errorf("agent: generating answer: %w", err)
	}
	return answer, nil
}

// BuildPrompt assembles the retrieval context and the question into a single
// prompt. When no chunks were retrieved, the model is told so rather than
// being handed an empty context.
func BuildPrompt(query string, matches []search.Match) string {
	var blocks []string
	for _, m := range matches {
		if m.Text != "" {
			blocks = append(blocks, m.Text)
		} else {
			blocks = append(blocks, m.Label)
		}
	}

	docContext := "No relevant documents found."
	if len(blocks) > 0 {
		docContext = chunker.TruncateToTokens(strings.Join(blocks, "\n---\n"), contextTokenBudget)
	}

	return fmt.Sprintf(`Given the following context:
---
%s
---

Answer the user's question:
%s

If the context doesn't contain relevant information, say that you cannot answer based on the available information.
Answer:`, docContext, query)
}
