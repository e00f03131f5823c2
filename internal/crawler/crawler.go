// Package crawler implements a bounded, domain-restricted breadth-first web
// crawler. A crawl maintains a FIFO frontier of URLs to visit and a set of
// already-visited URLs, and stops when the frontier is empty or the page
// budget is reached. Single-page failures never abort a crawl.
package crawler

import (
	"context"
	"log"
	"net/url"
	"time"
)

// Config bounds a crawl.
type Config struct {
	// MaxPages is the page budget: the crawl stops after this many pages
	// have been successfully extracted.
	MaxPages int

	// AllowedDomains restricts which hosts are fetched. Empty means "the
	// start URL's domain only".
	AllowedDomains []string

	// Delay is the fixed politeness pause between successive fetches.
	Delay time.Duration
}

// Crawler walks a site breadth-first within a domain allow-list.
type Crawler struct {
	fetcher  Fetcher
	maxPages int
	allowed  []string
	delay    time.Duration
}

// New creates a crawler using the given fetcher.
func New(fetcher Fetcher, cfg Config) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Crawler{
		fetcher:  fetcher,
		maxPages: cfg.MaxPages,
		allowed:  cfg.AllowedDomains,
		delay:    cfg.Delay,
	}
}

// Crawl traverses the site breadth-first starting at startURL and returns
// the extracted pages in visit order. The frontier and visited set live only
// for this invocation.
//
// Each step dequeues the frontier head. Already-visited URLs are discarded.
// URLs outside the domain allow-list are filtered before fetching and are
// not marked visited. Fetch or parse failures skip the URL and continue. On
// success the page is recorded, marked visited, and its outbound links are
// enqueued in document order when not yet visited and domain-allowed.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]*Page, error) {
	allowed := c.allowed
	if len(allowed) == 0 {
		start, err := url.Parse(startURL)
		if err != nil || start.Hostname() == "" {
			return nil, &url.Error{Op: "crawl", URL: startURL, Err: err}
		}
		allowed = []string{start.Hostname()}
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, d := range allowed {
		allowedSet[d] = true
	}

	frontier := []string{startURL}
	visited := make(map[string]bool)
	var results []*Page

	for len(frontier) > 0 && len(results) < c.maxPages {
		current := frontier[0]
		frontier = frontier[1:]

		if visited[current] {
			continue
		}
		if !domainAllowed(current, allowedSet) {
			continue
		}

		if len(results) > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		doc, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			log.Printf("crawler: skipping %s: %v", current, err)
			continue
		}

		page := ExtractPage(doc, current)
		visited[current] = true
		results = append(results, page)

		for _, link := range page.Links {
			if !visited[link] && domainAllowed(link, allowedSet) {
				frontier = append(frontier, link)
			}
		}
	}

	return results, nil
}

// domainAllowed reports whether the URL's host is in the allow-list.
func domainAllowed(rawURL string, allowed map[string]bool) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return allowed[u.Hostname()]
}
