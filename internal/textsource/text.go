package textsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"invwatch/internal/domain"
)

// TextFileSource reads pre-extracted text where pages are separated by form
// feeds, the layout produced by pdftotext -layout.
type TextFileSource struct{}

// Pages reads path and splits it into pages of normalized lines.
func (TextFileSource) Pages(_ context.Context, path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	chunks := strings.Split(string(data), "\f")
	pages := make([][]string, 0, len(chunks))
	for i, c := range chunks {
		if i == len(chunks)-1 && strings.TrimSpace(c) == "" && i > 0 {
			break
		}
		pages = append(pages, splitLines(c))
	}
	return pages, nil
}

// SiblingTextSource reads the pre-extracted text stored next to a document
// under the same name with a .txt extension.
type SiblingTextSource struct {
	TextFileSource
}

func (s SiblingTextSource) Pages(ctx context.Context, path string) ([][]string, error) {
	return s.TextFileSource.Pages(ctx, SiblingTextPath(path))
}

// SiblingTextPath maps "in/a.pdf" to "in/a.txt".
func SiblingTextPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
}
