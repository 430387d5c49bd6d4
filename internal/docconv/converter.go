// Package docconv converts model documentation into markdown and splits the
// markdown into the flat section arena the ingestion pipeline works on.
package docconv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Output names inside the conversion directory. The backup workflow uploads
// these under {slug}/docs/.
const (
	MarkdownFileName = "model_docs.md"
	ImagesDirName    = "images"
)

// ConversionResult holds the local paths produced by ConvertToMarkdown.
type ConversionResult struct {
	// MarkdownPath is the converted markdown file.
	MarkdownPath string
	// ImagesDir is the directory holding extracted images. It always exists,
	// even when the source document had no extractable images.
	ImagesDir string
}

// ConvertToMarkdown converts the document at inputPath into markdown inside
// outputDir. Markdown sources are passed through unchanged; PDF sources get
// their text extracted page by page. Other formats are rejected.
func ConvertToMarkdown(inputPath, outputDir string) (ConversionResult, error) {
	if inputPath == "" {
		return ConversionResult{}, fmt.Errorf("docconv: input path is required")
	}
	if outputDir == "" {
		return ConversionResult{}, fmt.Errorf("docconv: output dir is required")
	}

	var markdown []byte
	switch ext := strings.ToLower(filepath.Ext(inputPath)); ext {
	case ".md", ".markdown":
		content, err := os.ReadFile(inputPath)
		if err != nil {
			return ConversionResult{}, fmt.Errorf("docconv: failed to read markdown source: %w", err)
		}
		markdown = content
	case ".pdf":
		text, err := extractPDFText(inputPath)
		if err != nil {
			return ConversionResult{}, err
		}
		markdown = []byte(text)
	default:
		return ConversionResult{}, fmt.Errorf("docconv: unsupported document format %q", ext)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ConversionResult{}, fmt.Errorf("docconv: failed to create output dir: %w", err)
	}

	imagesDir := filepath.Join(outputDir, ImagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return ConversionResult{}, fmt.Errorf("docconv: failed to create images dir: %w", err)
	}

	markdownPath := filepath.Join(outputDir, MarkdownFileName)
	if err := os.WriteFile(markdownPath, markdown, 0o644); err != nil {
		return ConversionResult{}, fmt.Errorf("docconv: failed to write markdown: %w", err)
	}

	return ConversionResult{
		MarkdownPath: markdownPath,
		ImagesDir:    imagesDir,
	}, nil
}

// extractPDFText extracts the plain text of every page, joined by newlines.
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("docconv: failed to open PDF: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("docconv: failed to extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}

	return buf.String(), nil
}
