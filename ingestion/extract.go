package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/searchrag/core"
	"github.com/tmc/langchaingo/documentloaders"
)

// ExtractPages reads the PDF at path and returns one Page per PDF page with
// the file's base name, its 1-based number and whitespace-trimmed text.
func ExtractPages(ctx context.Context, path string) ([]core.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf %s: %w", path, err)
	}

	pages := make([]core.Page, 0, len(docs))
	for i, doc := range docs {
		number := i + 1
		if n, ok := doc.Metadata["page"].(int); ok && n > 0 {
			number = n
		}
		pages = append(pages, core.Page{
			Source:     filepath.Base(path),
			PageNumber: number,
			Text:       strings.TrimSpace(doc.PageContent),
		})
	}
	return pages, nil
}
