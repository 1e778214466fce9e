package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodLayout is the time layout of a period key ("Apr-24").
const PeriodLayout = "Jan-06"

// Party is a consignee or buyer block on the invoice.
type Party struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	AddressLines []string `json:"address_lines,omitempty"`
	GSTIN        string   `json:"gstin"`
	StateName    string   `json:"state_name"`
	StateCode    string   `json:"state_code"`
	Contact      string   `json:"contact"`
	Email        string   `json:"email"`
}

// InvoiceHeader holds invoice-level metadata recovered from the header page.
type InvoiceHeader struct {
	InvoiceNumber     string    `json:"invoice_number"`
	InvoiceDate       time.Time `json:"invoice_date"`
	InvoiceDateRaw    string    `json:"invoice_date_raw"`
	IRN               string    `json:"irn,omitempty"`
	AckNo             string    `json:"ack_no,omitempty"`
	AckDate           string    `json:"ack_date,omitempty"`
	EWayBillNo        string    `json:"eway_bill_no,omitempty"`
	DispatchedThrough string    `json:"dispatched_through,omitempty"`
	MotorVehicleNo    string    `json:"motor_vehicle_no,omitempty"`
	Consignee         Party     `json:"consignee"`
	Buyer             Party     `json:"buyer"`
	PlaceOfSupply     string    `json:"place_of_supply"`
	Destination       string    `json:"destination"`
}

// PeriodKey projects the invoice date onto its month-year routing key.
func (h *InvoiceHeader) PeriodKey() string {
	return h.InvoiceDate.Format(PeriodLayout)
}

// LineItem is one row of the invoice item table.
type LineItem struct {
	ItemNo      int                 `json:"item_no"`
	Description string              `json:"description"`
	Quantity    *int                `json:"quantity,omitempty"`
	Unit        string              `json:"unit,omitempty"`
	Rate        decimal.NullDecimal `json:"rate"`
	Amount      decimal.NullDecimal `json:"amount"`
	HSNCode     string              `json:"hsn_code,omitempty"`
	Kind        ItemKind            `json:"kind"`
}

// InvoiceDocument is the assembled result of parsing one source document.
// It is built once and never mutated afterwards.
type InvoiceDocument struct {
	Header     InvoiceHeader `json:"header"`
	Items      []LineItem    `json:"items"`
	SourceFile string        `json:"source_file"`
	PeriodKey  string        `json:"period_key"`
}

// PeriodFileStem turns a period key ("Apr-24") into a file stem ("Apr24").
func PeriodFileStem(periodKey string) string {
	return strings.ReplaceAll(periodKey, "-", "")
}

// IngestStats is a snapshot of the ingest pipeline counters.
type IngestStats struct {
	Processed   int64      `json:"processed"`
	Archived    int64      `json:"archived"`
	Quarantined int64      `json:"quarantined"`
	Abandoned   int64      `json:"abandoned"`
	Pending     int        `json:"pending"`
	LastFile    string     `json:"last_file,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
}

// SyncStats summarizes the most recent sync cycle.
type SyncStats struct {
	Running         bool       `json:"running"`
	LastStartedAt   *time.Time `json:"last_started_at,omitempty"`
	LastFinishedAt  *time.Time `json:"last_finished_at,omitempty"`
	HeadersUploaded int        `json:"headers_uploaded"`
	ItemsUploaded   int        `json:"items_uploaded"`
	InvoicesSkipped int        `json:"invoices_skipped"`
	LastError       string     `json:"last_error,omitempty"`
	CompletedCycles int64      `json:"completed_cycles"`
	SkippedOverlaps int64      `json:"skipped_overlaps"`
}
