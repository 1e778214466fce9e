package csvexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"invwatch/internal/domain"
)

// HeadersFile and ItemsFile return the per-period CSV file names.
func HeadersFile(periodKey string) string { return domain.PeriodFileStem(periodKey) + "Headers.csv" }
func ItemsFile(periodKey string) string   { return domain.PeriodFileStem(periodKey) + "Items.csv" }

// PeriodAppender appends parsed documents to the header and items CSVs of
// their period. Column rows are written only when a file is created.
// It implements port.DocumentSink.
type PeriodAppender struct {
	dir     string
	withBOM bool
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewPeriodAppender creates a PeriodAppender writing into dir.
func NewPeriodAppender(dir string, withBOM bool, log zerolog.Logger) *PeriodAppender {
	return &PeriodAppender{dir: dir, withBOM: withBOM, log: log}
}

func (a *PeriodAppender) Write(_ context.Context, doc *domain.InvoiceDocument) error {
	if doc.PeriodKey == "" {
		return fmt.Errorf("document %s has no period key", doc.SourceFile)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	// Items go first: the sync reader treats a header row as the signal that
	// the invoice is complete.
	itemsPath := filepath.Join(a.dir, ItemsFile(doc.PeriodKey))
	undoItems, err := a.appendRows(itemsPath, (*Writer).WriteItemColumns, func(w *Writer) error {
		return w.WriteItems(doc)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", itemsPath, err)
	}

	headersPath := filepath.Join(a.dir, HeadersFile(doc.PeriodKey))
	if _, err := a.appendRows(headersPath, (*Writer).WriteHeaderColumns, func(w *Writer) error {
		return w.WriteHeader(doc)
	}); err != nil {
		if uerr := undoItems(); uerr != nil {
			a.log.Error().Err(uerr).Str("path", itemsPath).Msg("failed to roll back item rows")
		}
		return fmt.Errorf("writing %s: %w", headersPath, err)
	}

	a.log.Info().
		Str("source_file", doc.SourceFile).
		Str("invoice_number", doc.Header.InvoiceNumber).
		Str("period", doc.PeriodKey).
		Int("items", len(doc.Items)).
		Msg("csv rows appended")
	return nil
}

// appendRows appends to path and returns a func restoring the file to its
// previous length. A failed append is rolled back before returning.
func (a *PeriodAppender) appendRows(path string, columns, rows func(*Writer) error) (undo func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	prev := info.Size()
	undo = func() error {
		if prev == 0 {
			return os.Remove(path)
		}
		return os.Truncate(path, prev)
	}
	defer func() {
		if err != nil {
			if uerr := undo(); uerr != nil {
				a.log.Error().Err(uerr).Str("path", path).Msg("failed to roll back partial rows")
			}
		}
	}()

	w := NewWriter(f)
	if prev == 0 {
		if a.withBOM {
			if _, err = f.Write(BOM); err != nil {
				return nil, err
			}
		}
		if err = columns(w); err != nil {
			return nil, err
		}
	}
	if err = rows(w); err != nil {
		return nil, err
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return nil, err
	}
	if err = f.Sync(); err != nil {
		return nil, err
	}
	return undo, nil
}
