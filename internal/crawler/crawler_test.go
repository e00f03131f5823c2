package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSite serves a small synthetic site and records every request.
type testSite struct {
	srv      *httptest.Server
	mu       sync.Mutex
	requests []string
}

func newTestSite(t *testing.T, pages map[string]string) *testSite {
	t.Helper()
	site := &testSite{}
	site.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.requests = append(site.requests, r.URL.Path)
		site.mu.Unlock()

		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(site.srv.Close)
	return site
}

func (s *testSite) requestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.requests {
		if p == path {
			n++
		}
	}
	return n
}

func TestCrawl_RespectsPageBudget(t *testing.T) {
	// A -> B, A -> C, B -> C
	site := newTestSite(t, map[string]string{
		"/a": `<html><body><main>page a</main><a href="/b">b</a><a href="/c">c</a></body></html>`,
		"/b": `<html><body><main>page b</main><a href="/c">c</a></body></html>`,
		"/c": `<html><body><main>page c</main></body></html>`,
	})

	c := New(NewStaticFetcher(5*time.Second), Config{MaxPages: 2})
	pages, err := c.Crawl(context.Background(), site.srv.URL+"/a")
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, site.srv.URL+"/a", pages[0].URL)
	assert.Equal(t, site.srv.URL+"/b", pages[1].URL)
	assert.Equal(t, "page a", pages[0].Content)

	// C was discovered but never fetched: budget reached first.
	assert.Equal(t, 0, site.requestCount("/c"))
}

func TestCrawl_NeverRevisits(t *testing.T) {
	// Every page links back to /a.
	site := newTestSite(t, map[string]string{
		"/a": `<html><body><main>a</main><a href="/b">b</a></body></html>`,
		"/b": `<html><body><main>b</main><a href="/a">a</a><a href="/c">c</a></body></html>`,
		"/c": `<html><body><main>c</main><a href="/a">a</a></body></html>`,
	})

	c := New(NewStaticFetcher(5*time.Second), Config{MaxPages: 10})
	pages, err := c.Crawl(context.Background(), site.srv.URL+"/a")
	require.NoError(t, err)

	assert.Len(t, pages, 3)
	assert.Equal(t, 1, site.requestCount("/a"))
	assert.Equal(t, 1, site.requestCount("/b"))
	assert.Equal(t, 1, site.requestCount("/c"))
}

func TestCrawl_FiltersDisallowedDomains(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/a": `<html><body><main>a</main>
			<a href="http://evil.invalid/x">offsite</a>
			<a href="/b">b</a></body></html>`,
		"/b": `<html><body><main>b</main></body></html>`,
	})

	// Default allow-list is the start URL's domain, so the offsite link is
	// filtered without ever being fetched.
	c := New(NewStaticFetcher(5*time.Second), Config{MaxPages: 10})
	pages, err := c.Crawl(context.Background(), site.srv.URL+"/a")
	require.NoError(t, err)

	require.Len(t, pages, 2)
	for _, p := range pages {
		assert.NotContains(t, p.URL, "evil.invalid")
	}
}

func TestCrawl_SkipsFailedFetches(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/a": `<html><body><main>a</main><a href="/missing">gone</a><a href="/b">b</a></body></html>`,
		"/b": `<html><body><main>b</main></body></html>`,
	})

	c := New(NewStaticFetcher(5*time.Second), Config{MaxPages: 10})
	pages, err := c.Crawl(context.Background(), site.srv.URL+"/a")
	require.NoError(t, err)

	// The 404 is skipped, the crawl continues.
	require.Len(t, pages, 2)
	assert.Equal(t, site.srv.URL+"/b", pages[1].URL)
}

func TestCrawl_EnqueuesLinksInDocumentOrder(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/a": `<html><body><main>a</main><a href="/c">c</a><a href="/b">b</a></body></html>`,
		"/b": `<html><body><main>b</main></body></html>`,
		"/c": `<html><body><main>c</main></body></html>`,
	})

	c := New(NewStaticFetcher(5*time.Second), Config{MaxPages: 10})
	pages, err := c.Crawl(context.Background(), site.srv.URL+"/a")
	require.NoError(t, err)

	require.Len(t, pages, 3)
	assert.Equal(t, site.srv.URL+"/c", pages[1].URL)
	assert.Equal(t, site.srv.URL+"/b", pages[2].URL)
}

func TestCrawl_InvalidStartURL(t *testing.T) {
	c := New(NewStaticFetcher(time.Second), Config{})
	_, err := c.Crawl(context.Background(), "::not a url::")
	assert.Error(t, err)
}

func TestRenderingFetcher_FallsBackToStatic(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"/page": `<html><body><main>static content</main></body></html>`,
	})
	renderer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "renderer down", http.StatusInternalServerError)
	}))
	t.Cleanup(renderer.Close)

	f := NewRenderingFetcher(renderer.URL, 5*time.Second)
	doc, err := f.Fetch(context.Background(), site.srv.URL+"/page")
	require.NoError(t, err)

	page := ExtractPage(doc, site.srv.URL+"/page")
	assert.Equal(t, "static content", page.Content)
}

func TestStaticFetcher_RejectsNonHTTPSchemes(t *testing.T) {
	f := NewStaticFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}
