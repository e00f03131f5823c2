package crawler

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// EmptyContentMarker is emitted when every extraction fallback produced
// nothing, so downstream consumers can tell "empty page" from "missing
// record".
const EmptyContentMarker = "[no extractable content]"

// Page is the extracted content and metadata of one crawled page.
type Page struct {
	ID          string
	URL         string
	Title       string
	Description string
	Content     string
	Links       []string // absolute URLs, in document order
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// FetchAndExtract retrieves a single page with the given fetcher and
// extracts it. This is the single-page loader behind `ingest --url`.
func FetchAndExtract(ctx context.Context, f Fetcher, pageURL string) (*Page, error) {
	doc, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractPage(doc, pageURL), nil
}

// ExtractPage pulls visible text and metadata out of a parsed page.
//
// Extraction prefers a main/article region and degrades through
// progressively wider selections when the preferred region yields nothing:
// paragraph tags, then block-level containers, then the raw page text, and
// finally the EmptyContentMarker. The ladder is the crawler's defense
// against varied page structures; keep the order intact.
func ExtractPage(doc *goquery.Document, pageURL string) *Page {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	page := &Page{
		ID:    uuid.NewString(),
		URL:   pageURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		page.Description = strings.TrimSpace(desc)
	}

	// Links are collected before element stripping so navigation links still
	// feed the frontier, in document order.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				resolved := base.ResolveReference(ref)
				resolved.Fragment = ""
				page.Links = append(page.Links, resolved.String())
				return
			}
		}
		page.Links = append(page.Links, href)
	})

	doc.Find("script, style, nav, footer, header, aside").Remove()

	page.Content = extractContent(doc)
	return page
}

// extractContent walks the fallback ladder until one rung yields text.
func extractContent(doc *goquery.Document) string {
	// Rung 1: a dedicated content region.
	for _, selector := range []string{"main", "article"} {
		if text := normalize(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	// Rung 2: the full body.
	if text := normalize(doc.Find("body").Text()); text != "" {
		return text
	}

	// Rung 3: paragraph tags anywhere.
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := normalize(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	// Rung 4: block-level containers.
	doc.Find("div, section, td, li").Each(func(_ int, s *goquery.Selection) {
		if text := normalize(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	// Rung 5: whatever text the document has at all.
	if text := normalize(doc.Text()); text != "" {
		return text
	}

	return EmptyContentMarker
}

// normalize collapses runs of whitespace and trims the result.
func normalize(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}
