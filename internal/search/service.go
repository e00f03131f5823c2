// Package search embeds a query and performs a k-nearest-neighbor lookup
// against the vector index, resolving matches through the chunk catalog when
// one is configured.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kbase/internal/catalog"
	"kbase/internal/embedder"
	"kbase/internal/vector"
)

// DefaultTopK is the result count used when the caller does not specify one.
const DefaultTopK = 3

// ErrEmptyQuery is returned for queries that are empty or whitespace-only.
var ErrEmptyQuery = errors.New("search: empty query")

// Match is one retrieved chunk. Text is empty when no catalog is configured;
// Label always identifies the match and its distance rank.
type Match struct {
	Label    string  `json:"label"`
	Text     string  `json:"text,omitempty"`
	SourceID string  `json:"source_id,omitempty"`
	Distance float32 `json:"distance"`
}

// Service answers similarity queries over a vector index. The embedder must
// be the same capability used during ingestion, so that index and query
// vectors are comparable.
type Service struct {
	embedder embedder.Embedder
	index    *vector.Index
	catalog  *catalog.Catalog // optional
	topK     int
}

// New creates a search service. cat may be nil; topK <= 0 selects
// DefaultTopK.
func New(emb embedder.Embedder, ix *vector.Index, cat *catalog.Catalog, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{embedder: emb, index: ix, catalog: cat, topK: topK}
}

// Search returns human-readable identifiers of the top-k chunks nearest to
// the query, ordered by ascending distance. An empty index yields an empty
// result, not an error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]string, error) {
	matches, err := s.SearchChunks(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Label
	}
	return out, nil
}

// SearchChunks returns the top-k matches with their chunk text when a
// catalog is available. Without a catalog, only the distance-annotated
// placeholder label is produced.
func (s *Service) SearchChunks(ctx context.Context, query string, k int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if s.index.Size() == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = s.topK
	}

	qv, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embedding query: %w", err)
	}

	qv = reconcileQuery(qv, s.index.Dimensions())

	results, err := s.index.Search(qv, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Label:    fmt.Sprintf("chunk %d (distance: %.3f)", r.ID, r.Distance),
			Distance: r.Distance,
		}
	}

	if s.catalog != nil {
		ids := make([]int, len(results))
		for i, r := range results {
			ids[i] = r.ID
		}
		entries, err := s.catalog.Get(ctx, ids)
		if err != nil {
			// Catalog resolution is best-effort; fall back to placeholders.
			return matches, nil
		}
		byID := make(map[int]catalog.Entry, len(entries))
		for _, e := range entries {
			byID[e.InternalID] = e
		}
		for i, r := range results {
			if e, ok := byID[r.ID]; ok {
				matches[i].Label = fmt.Sprintf("%s#%d (distance: %.3f)", e.SourceID, e.Ordinal, r.Distance)
				matches[i].Text = e.Text
				matches[i].SourceID = e.SourceID
			}
		}
	}

	return matches, nil
}

// reconcileQuery applies the same truncate/pad shim the ingestion path uses,
// so a query embedded at a different width can still be compared.
func reconcileQuery(v []float32, dim int) []float32 {
	if len(v) == dim {
		return v
	}
	if len(v) > dim {
		return v[:dim]
	}
	padded := make([]float32, dim)
	copy(padded, v)
	return padded
}
