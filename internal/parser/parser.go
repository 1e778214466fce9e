package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"invwatch/internal/domain"
	"invwatch/internal/port"
)

// ParseResult is an assembled document plus the warnings raised building it.
type ParseResult struct {
	Document  domain.InvoiceDocument `json:"document"`
	Anomalies []SegmentationAnomaly  `json:"anomalies,omitempty"`
}

// Parser turns the text lines of an invoice into an InvoiceDocument.
// It holds no per-document state and is safe for concurrent use.
type Parser struct {
	rules *Rules
	log   zerolog.Logger
}

// New creates a Parser. A nil rules value selects DefaultRules.
func New(rules *Rules, log zerolog.Logger) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Parser{rules: rules, log: log.With().Str("component", "parser").Logger()}
}

// Parse reads the document's pages from src and assembles the result. The
// document's source file is the base name of path.
func (p *Parser) Parse(ctx context.Context, src port.TextSource, path string) (*ParseResult, error) {
	pages, err := src.Pages(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return p.ParseLines(filepath.Base(path), pages)
}

// ParseLines assembles a document from already extracted page lines.
func (p *Parser) ParseLines(sourceFile string, pages [][]string) (*ParseResult, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", domain.ErrSourceUnavailable, sourceFile)
	}

	headerPage := p.headerPage(pages)
	header, err := ExtractHeader(pages[headerPage], p.rules)
	if err != nil {
		return nil, fmt.Errorf("extracting header of %s: %w", sourceFile, err)
	}

	items := ExtractItems(pages, p.rules)
	for _, a := range items.Anomalies {
		p.log.Warn().Str("file", sourceFile).Int("item_no", a.ItemNo).Int("prev_item_no", a.PrevItemNo).
			Int("page", a.Page).Msg("item numbers out of order")
	}
	for _, d := range items.Dropped {
		p.log.Debug().Str("file", sourceFile).Int("page", d.Page).Str("line", d.Line).
			Msg("table line not attached to any item")
	}

	doc := domain.InvoiceDocument{
		Header:     header,
		Items:      items.Items,
		SourceFile: sourceFile,
		PeriodKey:  header.PeriodKey(),
	}
	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}

	p.log.Debug().Str("file", sourceFile).Str("invoice_number", header.InvoiceNumber).
		Str("period", doc.PeriodKey).Int("header_page", headerPage+1).Int("items", len(doc.Items)).
		Msg("document parsed")
	return &ParseResult{Document: doc, Anomalies: items.Anomalies}, nil
}

// headerPage picks the first page carrying the invoice marker, else page one.
func (p *Parser) headerPage(pages [][]string) int {
	for i, lines := range pages {
		if p.rules.isInvoicePage(lines) {
			return i
		}
	}
	return 0
}
