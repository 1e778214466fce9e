package port

import (
	"context"

	"invwatch/internal/domain"
)

// DocumentSink persists a parsed document to an output (CSV, XLSX).
type DocumentSink interface {
	Write(ctx context.Context, doc *domain.InvoiceDocument) error
}
