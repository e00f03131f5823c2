package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "kbase/1.0 (knowledge base crawler)"

// Fetcher retrieves a URL and returns its parsed document. Implementations
// must bound each request with a timeout; a timeout is reported as an
// ordinary fetch failure.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// StaticFetcher retrieves pages with a plain HTTP GET. It handles
// server-rendered HTML, which covers the large majority of crawl targets.
type StaticFetcher struct {
	client *http.Client
}

// NewStaticFetcher creates a static fetcher with the given per-request
// timeout.
func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &StaticFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves and parses a page.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("crawler: invalid URL %q: %w", pageURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("crawler: unsupported scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("crawler: creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crawler: fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crawler: fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "xml") {
		return nil, fmt.Errorf("crawler: unsupported content type %q at %s", contentType, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("crawler: parsing %s: %w", pageURL, err)
	}
	return doc, nil
}

// RenderingFetcher retrieves pages through a headless-rendering service that
// executes JavaScript before returning HTML (a browserless-style /content
// endpoint). When the rendering service fails, it falls back to the static
// fetcher, in that order, so a down renderer degrades rather than halts a
// crawl.
type RenderingFetcher struct {
	endpoint string
	client   *http.Client
	fallback *StaticFetcher
}

// NewRenderingFetcher creates a rendering fetcher backed by the service at
// endpoint, with a static fallback sharing the same timeout.
func NewRenderingFetcher(endpoint string, timeout time.Duration) *RenderingFetcher {
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	return &RenderingFetcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		fallback: NewStaticFetcher(timeout),
	}
}

// Fetch renders and parses a page, falling back to a static fetch when the
// rendering service is unavailable.
func (f *RenderingFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	doc, err := f.render(ctx, pageURL)
	if err == nil {
		return doc, nil
	}
	return f.fallback.Fetch(ctx, pageURL)
}

func (f *RenderingFetcher) render(ctx context.Context, pageURL string) (*goquery.Document, error) {
	payload, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crawler: rendering %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("crawler: rendering %s: HTTP %d", pageURL, resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}
