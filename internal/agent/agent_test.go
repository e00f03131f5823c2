package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbase/internal/embedder"
	"kbase/internal/ingest"
	"kbase/internal/llm"
	"kbase/internal/search"
	"kbase/internal/vector"
)

// fakeGenerator records the prompt it was given and returns a canned answer.
type fakeGenerator struct {
	prompt string
	answer string
	err    error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ llm.Options) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

func newSearchFixture(t *testing.T) (*search.Service, *ingest.Pipeline) {
	t.Helper()
	emb := embedder.NewHash(32)
	ix, err := vector.Open(filepath.Join(t.TempDir(), "index.bin"), 32)
	require.NoError(t, err)
	return search.New(emb, ix, nil, 3), ingest.New(emb, ix, nil)
}

func TestAnswer_UsesRetrievedContext(t *testing.T) {
	svc, pipeline := newSearchFixture(t)
	ctx := context.Background()

	require.NoError(t, pipeline.AddDocument(ctx, "resetting the router fixes most issues", nil))

	gen := &fakeGenerator{answer: "Try resetting the router."}
	a := New(svc, gen)

	answer, err := a.Answer(ctx, "resetting the router fixes most issues")
	require.NoError(t, err)
	assert.Equal(t, "Try resetting the router.", answer)

	// The retrieved chunk label reaches the prompt (no catalog, so labels
	// stand in for text).
	assert.Contains(t, gen.prompt, "chunk 0")
	assert.Contains(t, gen.prompt, "resetting the router fixes most issues")
}

func TestAnswer_EmptyIndex(t *testing.T) {
	svc, _ := newSearchFixture(t)

	gen := &fakeGenerator{answer: "I cannot answer that."}
	a := New(svc, gen)

	_, err := a.Answer(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Contains(t, gen.prompt, "No relevant documents found.")
}

func TestBuildPrompt_PrefersChunkText(t *testing.T) {
	prompt := BuildPrompt("how do I reset?", []search.Match{
		{Label: "manual.pdf#0 (distance: 0.100)", Text: "hold the button for ten seconds"},
		{Label: "chunk 3 (distance: 0.500)"},
	})

	assert.Contains(t, prompt, "hold the button for ten seconds")
	assert.Contains(t, prompt, "chunk 3 (distance: 0.500)")
	assert.Contains(t, prompt, "how do I reset?")
}

func TestBuildPrompt_TruncatesLongContext(t *testing.T) {
	long := strings.Repeat("word ", 10000)
	prompt := BuildPrompt("q", []search.Match{{Text: long}})

	// Budget plus the template itself stays well under the raw input.
	assert.Less(t, len(prompt), len(long)/2)
}
