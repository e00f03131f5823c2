package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"kbase/internal/crawler"
	"kbase/internal/ingest"

	"github.com/spf13/cobra"
)

var ingestURL string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest PDF documents or a single web page into the index",
	Long: `Ingest adds documents to the knowledge base. Given a path it extracts
text from a PDF file, or from every PDF in a directory tree. With --url it
fetches and extracts a single web page instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestURL == "" && len(args) == 0 {
			return fmt.Errorf("either a path or --url is required")
		}
		if ingestURL != "" && len(args) > 0 {
			return fmt.Errorf("a path and --url are mutually exclusive")
		}

		st, err := openStack(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if ingestURL != "" {
			return ingestPage(ctx, st, ingestURL)
		}
		return ingestPath(ctx, st, args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "fetch and ingest a single web page")
}

func ingestPath(ctx context.Context, st *stack, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}

	extractor := ingest.NewPDFExtractor()
	pipeline := st.pipeline()

	if !info.IsDir() {
		text, err := extractor.ExtractText(ctx, path)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", path, err)
		}
		if err := pipeline.AddDocument(ctx, text, map[string]string{"source": path}); err != nil {
			return err
		}
		fmt.Printf("Ingested %s (%d vectors in index)\n", path, st.index.Size())
		return nil
	}

	docs, err := extractor.ProcessDirectory(ctx, path)
	if err != nil {
		return fmt.Errorf("processing %s: %w", path, err)
	}

	ingested := 0
	for _, doc := range docs {
		if err := pipeline.AddDocument(ctx, doc.Text, map[string]string{"source": doc.Path}); err != nil {
			return fmt.Errorf("ingesting %s: %w", doc.Path, err)
		}
		ingested++
	}

	fmt.Printf("Ingested %d of %d documents (%d vectors in index)\n",
		ingested, len(docs), st.index.Size())
	return nil
}

// ingestPage fetches one page, extracts its content and ingests it under the
// page URL as source.
func ingestPage(ctx context.Context, st *stack, pageURL string) error {
	page, err := crawler.FetchAndExtract(ctx, newFetcher(), pageURL)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	if page.Content == crawler.EmptyContentMarker {
		return fmt.Errorf("no extractable content at %s", pageURL)
	}

	if err := st.pipeline().AddDocument(ctx, page.Content, map[string]string{
		"source": pageURL,
		"title":  page.Title,
	}); err != nil {
		return err
	}

	fmt.Printf("Ingested %s (%d vectors in index)\n", pageURL, st.index.Size())
	return nil
}

// newFetcher picks the rendering fetcher when a render endpoint is
// configured, otherwise plain HTTP.
func newFetcher() crawler.Fetcher {
	timeout := time.Duration(cfg.Crawl.TimeoutSecs) * time.Second
	if cfg.Crawl.RenderEndpoint != "" {
		return crawler.NewRenderingFetcher(cfg.Crawl.RenderEndpoint, timeout)
	}
	return crawler.NewStaticFetcher(timeout)
}
