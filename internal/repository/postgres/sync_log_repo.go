package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"invwatch/internal/port"
)

type syncLogRepo struct {
	db *sqlx.DB
}

// NewSyncLogRepo creates a PostgreSQL-backed SyncLog.
func NewSyncLogRepo(db *sqlx.DB) port.SyncLog {
	return &syncLogRepo{db: db}
}

func (r *syncLogRepo) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM sync_log_state WHERE id = 1)`)
	if err != nil {
		return false, fmt.Errorf("checking sync log state: %w", err)
	}
	return exists, nil
}

func (r *syncLogRepo) Contains(ctx context.Context, invoiceNos []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(invoiceNos) == 0 {
		return found, nil
	}
	var rows []string
	err := r.db.SelectContext(ctx, &rows,
		`SELECT invoice_number FROM synced_invoices WHERE invoice_number = ANY($1)`, invoiceNos)
	if err != nil {
		return nil, fmt.Errorf("querying synced invoices: %w", err)
	}
	for _, n := range rows {
		found[n] = true
	}
	return found, nil
}

func (r *syncLogRepo) Record(ctx context.Context, invoiceNos []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sync_log_state (id, initialized_at) VALUES (1, NOW())
		 ON CONFLICT (id) DO NOTHING`); err != nil {
		return fmt.Errorf("initializing sync log: %w", err)
	}
	if len(invoiceNos) > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO synced_invoices (invoice_number, synced_at)
			 SELECT n, NOW() FROM UNNEST($1::text[]) AS n
			 ON CONFLICT (invoice_number) DO NOTHING`, invoiceNos); err != nil {
			return fmt.Errorf("recording synced invoices: %w", err)
		}
	}
	return tx.Commit()
}
