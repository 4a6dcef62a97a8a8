package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-dashboard/internal/logger"
)

// Importer drives one CSV import end to end.
type Importer struct {
	mappings MappingSource
	source   StatementSource
	store    Store
}

// NewImporter wires the importer with its collaborators.
func NewImporter(mappings MappingSource, source StatementSource, store Store) *Importer {
	return &Importer{
		mappings: mappings,
		source:   source,
		store:    store,
	}
}

// ImportCSV imports one provider CSV export for an account. Mapping, file and
// parse problems abort before any database state exists. Once the import run
// row has been created, any failure rolls the transaction back and records the
// run as failed in its own transaction, then the original error is returned.
// Re-running the same file is safe: inserts are idempotent by import hash.
func (imp *Importer) ImportCSV(ctx context.Context, provider, accountName, csvPath string) error {
	log := logger.FromContext(ctx)

	// 1. Resolve the column mapping for this provider.
	mapping, err := imp.mappings.Load(provider)
	if err != nil {
		return err
	}

	// 2. Fetch and decode the CSV export.
	data, err := imp.source.Fetch(ctx, csvPath)
	if err != nil {
		return err
	}
	rows, err := ReadRows(data)
	if err != nil {
		return err
	}

	// 3. Normalize raw rows into canonical records.
	records, err := Normalize(rows, provider, accountName, mapping)
	if err != nil {
		return err
	}

	// 4. Drop in-batch duplicates, first occurrence wins.
	unique := Dedupe(records)
	log.Info().
		Str("provider", provider).
		Int("rows", len(rows)).
		Int("records", len(records)).
		Int("unique", len(unique)).
		Msg("normalized statement rows")

	// 5. Everything below happens inside one transaction, with failure
	//    bookkeeping keyed by the run ID captured here.
	run := &ImportRun{
		ID:             uuid.NewString(),
		SourceProvider: provider,
		Status:         RunStarted,
		StartedAt:      time.Now().UTC(),
	}

	tx, err := imp.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ImportCSV: starting transaction: %w", err)
	}

	inserted, err := imp.runInTx(ctx, tx, run, accountName, mapping.Currency, unique)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warn().Err(rbErr).Str("import_run_id", run.ID).Msg("rollback after failed import")
		}
		if markErr := imp.store.MarkImportRunFailed(ctx, run, err); markErr != nil {
			log.Error().Err(markErr).Str("import_run_id", run.ID).Msg("recording failed import run")
		}
		return err
	}

	log.Info().
		Str("import_run_id", run.ID).
		Int("row_count", inserted).
		Msg("import completed")
	return nil
}

// runInTx performs all writes for one run and commits. On error the caller
// owns rollback and failure marking.
func (imp *Importer) runInTx(ctx context.Context, tx RunTx, run *ImportRun, accountName, defaultCurrency string, records []*Record) (int, error) {
	if err := tx.CreateImportRun(ctx, run); err != nil {
		return 0, fmt.Errorf("ImportCSV: creating import run: %w", err)
	}

	// A header-only file is a successful run with zero rows; no account is
	// created for it.
	if len(records) == 0 {
		if err := tx.CompleteImportRun(ctx, run.ID, 0); err != nil {
			return 0, fmt.Errorf("ImportCSV: completing empty run: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("ImportCSV: committing empty run: %w", err)
		}
		return 0, nil
	}

	accountCurrency := defaultCurrency
	if accountCurrency == "" {
		accountCurrency = records[0].Currency
	}
	accountID, err := imp.ensureAccount(ctx, tx, run.SourceProvider, accountName, records[0].AccountType, accountCurrency)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, record := range records {
		row := &Transaction{
			Record:      *record,
			AccountID:   accountID,
			ImportRunID: run.ID,
		}
		ok, err := tx.InsertTransaction(ctx, row)
		if err != nil {
			return 0, fmt.Errorf("ImportCSV: inserting transaction: %w", err)
		}
		if ok {
			inserted++
		}
	}

	if err := tx.CompleteImportRun(ctx, run.ID, inserted); err != nil {
		return 0, fmt.Errorf("ImportCSV: completing import run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ImportCSV: committing import run: %w", err)
	}
	return inserted, nil
}

// ensureAccount looks the account up by (provider, name) and creates it on
// first encounter. Existing accounts are never updated here.
func (imp *Importer) ensureAccount(ctx context.Context, tx RunTx, provider, name, accountType, currency string) (string, error) {
	existing, err := tx.FindAccount(ctx, provider, name)
	if err != nil {
		return "", fmt.Errorf("ImportCSV: looking up account: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	account := &Account{
		ID:       uuid.NewString(),
		Provider: provider,
		Name:     name,
		Type:     accountType,
		Currency: currency,
	}
	if err := tx.CreateAccount(ctx, account); err != nil {
		return "", fmt.Errorf("ImportCSV: creating account: %w", err)
	}
	return account.ID, nil
}
