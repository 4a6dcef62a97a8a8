package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-dashboard/internal/ingest"
)

// FindAccount looks an account up by (provider, name). Returns nil when no
// matching account exists.
func (t *runTx) FindAccount(ctx context.Context, provider, name string) (*ingest.Account, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, provider, name, type, currency
		FROM accounts
		WHERE provider = $1 AND name = $2
	`, provider, name)

	var a ingest.Account
	err := row.Scan(&a.ID, &a.Provider, &a.Name, &a.Type, &a.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindAccount: scanning row: %w", err)
	}
	return &a, nil
}

// CreateAccount inserts a new account row, generating an ID when the caller
// did not set one.
func (t *runTx) CreateAccount(ctx context.Context, account *ingest.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (id, provider, name, type, currency)
		VALUES ($1, $2, $3, $4, $5)
	`, account.ID, account.Provider, account.Name, account.Type, account.Currency)
	if err != nil {
		return fmt.Errorf("CreateAccount: inserting row: %w", err)
	}
	return nil
}
