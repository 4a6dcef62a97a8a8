package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-dashboard/internal/ingest"
)

// InsertTransaction writes one transaction row and reports whether it was
// new. A duplicate import_hash from a previous run makes the insert a no-op
// and returns false; that is the durable idempotency guarantee re-imports
// rely on.
func (t *runTx) InsertTransaction(ctx context.Context, row *ingest.Transaction) (bool, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO transactions (
			id,
			transaction_id,
			source_provider,
			account_id,
			account_name,
			account_type,
			datetime,
			amount,
			currency,
			merchant,
			description,
			import_hash,
			import_run_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (import_hash) DO NOTHING
	`,
		row.ID,
		row.TransactionID,
		row.SourceProvider,
		row.AccountID,
		row.AccountName,
		row.AccountType,
		row.DateTime,
		row.Amount,
		row.Currency,
		row.Merchant,
		row.Description,
		row.ImportHash,
		row.ImportRunID,
	)
	if err != nil {
		return false, fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertTransaction: rows affected: %w", err)
	}
	return n == 1, nil
}
