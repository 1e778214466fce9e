package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"invwatch/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// HeaderColumns defines the header-table CSV header row (24 columns).
var HeaderColumns = []string{
	"Source File",
	"Invoice Number",
	"Invoice Date",
	"Period",
	"Consignee Name",
	"Consignee Address",
	"Consignee GSTIN",
	"Consignee State",
	"Consignee State Code",
	"Consignee Contact",
	"Consignee Email",
	"Buyer Name",
	"Buyer Address",
	"Buyer GSTIN",
	"Buyer State",
	"Buyer State Code",
	"Buyer Contact",
	"Buyer Email",
	"Place of Supply",
	"Destination",
	"IRN",
	"Ack No",
	"Ack Date",
	"e-Way Bill No",
}

// ItemColumns defines the items-table CSV header row (9 columns).
var ItemColumns = []string{
	"Source File",
	"Invoice Number",
	"Item No",
	"Description",
	"Quantity",
	"Unit",
	"Rate",
	"Amount",
	"HSN/SAC",
}

// Writer wraps csv.Writer for exporting parsed invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeaderColumns writes the header-table column row.
func (w *Writer) WriteHeaderColumns() error {
	return w.csv.Write(HeaderColumns)
}

// WriteItemColumns writes the items-table column row.
func (w *Writer) WriteItemColumns() error {
	return w.csv.Write(ItemColumns)
}

// WriteHeader writes the single header-table row for doc.
func (w *Writer) WriteHeader(doc *domain.InvoiceDocument) error {
	return w.csv.Write(HeaderRow(doc))
}

// WriteItems writes one items-table row per line item of doc.
func (w *Writer) WriteItems(doc *domain.InvoiceDocument) error {
	for i := range doc.Items {
		if err := w.csv.Write(ItemRow(doc, &doc.Items[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// HeaderRow converts a document header to a 24-element string slice.
func HeaderRow(doc *domain.InvoiceDocument) []string {
	h := &doc.Header
	return []string{
		doc.SourceFile,
		h.InvoiceNumber,
		h.InvoiceDateRaw,
		doc.PeriodKey,
		h.Consignee.Name,
		h.Consignee.Address,
		h.Consignee.GSTIN,
		h.Consignee.StateName,
		h.Consignee.StateCode,
		h.Consignee.Contact,
		h.Consignee.Email,
		h.Buyer.Name,
		h.Buyer.Address,
		h.Buyer.GSTIN,
		h.Buyer.StateName,
		h.Buyer.StateCode,
		h.Buyer.Contact,
		h.Buyer.Email,
		h.PlaceOfSupply,
		h.Destination,
		h.IRN,
		h.AckNo,
		h.AckDate,
		h.EWayBillNo,
	}
}

// ItemRow converts a line item to a 9-element string slice.
func ItemRow(doc *domain.InvoiceDocument, it *domain.LineItem) []string {
	qty := ""
	if it.Quantity != nil {
		qty = strconv.Itoa(*it.Quantity)
	}
	return []string{
		doc.SourceFile,
		doc.Header.InvoiceNumber,
		strconv.Itoa(it.ItemNo),
		it.Description,
		qty,
		it.Unit,
		formatMoney(it.Rate),
		formatMoney(it.Amount),
		it.HSNCode,
	}
}

func formatMoney(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}
