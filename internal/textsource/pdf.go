package textsource

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"invwatch/internal/domain"
)

// PDFSource extracts reading-order lines from a PDF's text layer.
type PDFSource struct {
	log zerolog.Logger
}

// NewPDFSource creates a PDFSource.
func NewPDFSource(log zerolog.Logger) *PDFSource {
	return &PDFSource{log: log.With().Str("component", "textsource.pdf").Logger()}
}

// Pages opens the PDF at path and returns its text, one slice of lines per page.
func (s *PDFSource) Pages(ctx context.Context, path string) (pages [][]string, err error) {
	// The PDF library panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: reading %s: %v", domain.ErrSourceUnavailable, path, rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrSourceUnavailable, path, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([][]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, s.pageLines(page, i))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", domain.ErrSourceUnavailable, path)
	}
	return pages, nil
}

func (s *PDFSource) pageLines(page pdf.Page, num int) []string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			if l := strings.Join(strings.Fields(strings.Join(words, " ")), " "); l != "" {
				lines = append(lines, l)
			}
		}
		return lines
	}

	s.log.Debug().Int("page", num).Err(err).Msg("row extraction failed, using plain text")
	text, err := page.GetPlainText(nil)
	if err != nil {
		s.log.Warn().Int("page", num).Err(err).Msg("no text extracted from page")
		return nil
	}
	return splitLines(text)
}
