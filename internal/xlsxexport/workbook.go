package xlsxexport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"invwatch/internal/csvexport"
	"invwatch/internal/domain"
)

const (
	HeadersSheet = "Headers"
	ItemsSheet   = "Items"
)

// WorkbookFile returns the per-period workbook name.
func WorkbookFile(periodKey string) string {
	return domain.PeriodFileStem(periodKey) + "Invoices.xlsx"
}

// PeriodWorkbook appends parsed documents to one workbook per period with a
// Headers and an Items sheet. It implements port.DocumentSink.
type PeriodWorkbook struct {
	dir string
	mu  sync.Mutex
	log zerolog.Logger
}

// NewPeriodWorkbook creates a PeriodWorkbook writing into dir.
func NewPeriodWorkbook(dir string, log zerolog.Logger) *PeriodWorkbook {
	return &PeriodWorkbook{dir: dir, log: log}
}

func (p *PeriodWorkbook) Write(_ context.Context, doc *domain.InvoiceDocument) error {
	if doc.PeriodKey == "" {
		return fmt.Errorf("document %s has no period key", doc.SourceFile)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(p.dir, WorkbookFile(doc.PeriodKey))

	f, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := appendRow(f, HeadersSheet, headerCells(doc)); err != nil {
		return err
	}
	for i := range doc.Items {
		if err := appendRow(f, ItemsSheet, itemCells(doc, &doc.Items[i])); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	p.log.Debug().Str("path", path).Str("invoice_number", doc.Header.InvoiceNumber).Msg("workbook updated")
	return nil
}

func openOrCreate(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName("Sheet1", HeadersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for sheet, cols := range map[string][]string{HeadersSheet: csvexport.HeaderColumns, ItemsSheet: csvexport.ItemColumns} {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
			return nil, err
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func appendRow(f *excelize.File, sheet string, cells []any) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func headerCells(doc *domain.InvoiceDocument) []any {
	row := csvexport.HeaderRow(doc)
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// itemCells keeps numeric columns numeric so the sheet can be summed.
func itemCells(doc *domain.InvoiceDocument, it *domain.LineItem) []any {
	row := csvexport.ItemRow(doc, it)
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	out[2] = it.ItemNo
	if it.Quantity != nil {
		out[4] = *it.Quantity
	}
	out[6] = number(it.Rate)
	out[7] = number(it.Amount)
	return out
}

func number(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	f, _ := strconv.ParseFloat(v.Decimal.StringFixed(2), 64)
	return f
}
