package port

import "context"

// SyncLog is the persisted set of invoice numbers already uploaded.
type SyncLog interface {
	// Exists reports whether the log has been initialized.
	Exists(ctx context.Context) (bool, error)
	// Contains returns the subset of invoiceNos already logged.
	Contains(ctx context.Context, invoiceNos []string) (map[string]bool, error)
	// Record adds invoiceNos to the log, creating it if needed.
	Record(ctx context.Context, invoiceNos []string) error
}
