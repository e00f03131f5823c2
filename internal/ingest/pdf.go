package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Classified PDF extraction errors.
var (
	ErrPDFNotFound  = errors.New("ingest: pdf file not found")
	ErrPDFEncrypted = errors.New("ingest: pdf file is encrypted")
	ErrNotPDF       = errors.New("ingest: not a pdf file")
)

// CommandRunner executes an external command and returns its combined
// output. Abstracted so tests can stub the pdftotext invocation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFExtractor extracts text from PDF files by shelling out to pdftotext
// (poppler-utils).
type PDFExtractor struct {
	runner CommandRunner
}

// NewPDFExtractor creates a PDF extractor using the system pdftotext binary.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: execRunner{}}
}

// NewPDFExtractorWithRunner creates a PDF extractor with a custom command
// runner. Used in tests.
func NewPDFExtractorWithRunner(r CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: r}
}

// ExtractText extracts the text content of a PDF file. Failures are
// classified: ErrPDFNotFound for a missing file, ErrNotPDF for content that
// is not a PDF, ErrPDFEncrypted for password-protected files.
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	header, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrPDFNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("ingest: reading %s: %w", path, err)
	}
	if !bytes.HasPrefix(header, []byte("%PDF-")) {
		return "", fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		if isEncryptedError(err) {
			return "", fmt.Errorf("%w: %s", ErrPDFEncrypted, path)
		}
		return "", fmt.Errorf("ingest: pdftotext failed for %s: %w", path, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// isEncryptedError checks pdftotext stderr for the copy-protection message.
func isEncryptedError(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	stderr := strings.ToLower(string(exitErr.Stderr))
	return strings.Contains(stderr, "encrypted") || strings.Contains(stderr, "incorrect password")
}

// FileText is the extracted text of one file.
type FileText struct {
	Path string
	Text string
}

// ProcessDirectory extracts text from every PDF under dir. Per-file failures
// are logged and skipped; they never abort the sweep.
func (e *PDFExtractor) ProcessDirectory(ctx context.Context, dir string) ([]FileText, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("ingest: directory not found: %s", dir)
	}

	var docs []FileText
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			return nil
		}

		text, err := e.ExtractText(ctx, path)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", path, err)
			return nil
		}
		docs = append(docs, FileText{Path: path, Text: text})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walking %s: %w", dir, err)
	}

	return docs, nil
}
