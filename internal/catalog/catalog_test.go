package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet_RoundTrip(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	entries := []Entry{
		{InternalID: 0, SourceID: "doc-a", Ordinal: 0, Text: "first chunk", Metadata: map[string]string{"url": "https://example.com"}},
		{InternalID: 1, SourceID: "doc-a", Ordinal: 1, Text: "second chunk"},
	}
	require.NoError(t, c.Put(ctx, entries))

	got, err := c.Get(ctx, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestGet_PreservesRequestOrder(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, []Entry{
		{InternalID: 0, SourceID: "a", Text: "zero"},
		{InternalID: 1, SourceID: "a", Text: "one"},
		{InternalID: 2, SourceID: "b", Text: "two"},
	}))

	got, err := c.Get(ctx, []int{2, 0})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Text)
	assert.Equal(t, "zero", got[1].Text)
}

func TestGet_SkipsMissingIDs(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, []Entry{{InternalID: 5, SourceID: "a", Text: "five"}}))

	got, err := c.Get(ctx, []int{4, 5, 6})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].InternalID)
}

func TestPut_ReplacesExisting(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, []Entry{{InternalID: 0, SourceID: "a", Text: "old"}}))
	require.NoError(t, c.Put(ctx, []Entry{{InternalID: 0, SourceID: "a", Text: "new"}}))

	got, err := c.Get(ctx, []int{0})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)

	n, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPut_EmptyBatch(t *testing.T) {
	c := newTestCatalog(t)
	assert.NoError(t, c.Put(context.Background(), nil))
}
