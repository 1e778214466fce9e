package port

import "context"

// Column is a column of a remote table. ID is the stable identifier,
// Label the display name.
type Column struct {
	ID    string
	Label string
}

// Record is a single remote row keyed by column ID.
type Record map[string]any

// RemoteTable abstracts the hosted spreadsheet-like datastore the sync
// client uploads to.
type RemoteTable interface {
	Ping(ctx context.Context) error
	Columns(ctx context.Context, table string) ([]Column, error)
	Records(ctx context.Context, table string) ([]Record, error)
	AddRecords(ctx context.Context, table string, records []Record) error
}
