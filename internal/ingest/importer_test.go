package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/finance-dashboard/internal/config"
)

type mockMappings struct {
	mapping *config.Mapping
	err     error
}

func (m *mockMappings) Load(provider string) (*config.Mapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mapping, nil
}

type mockSource struct {
	data []byte
	err  error
}

func (m *mockSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

// mockStore tracks the transactions it hands out and the failure markings it
// receives.
type mockStore struct {
	tx         *mockTx
	beginErr   error
	beginCount int
	failedRuns []*ImportRun
	failedErrs []error
}

func (m *mockStore) Begin(ctx context.Context) (RunTx, error) {
	m.beginCount++
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

func (m *mockStore) MarkImportRunFailed(ctx context.Context, run *ImportRun, runErr error) error {
	m.failedRuns = append(m.failedRuns, run)
	m.failedErrs = append(m.failedErrs, runErr)
	return nil
}

// mockTx simulates the database transaction. existingHashes stands in for
// rows committed by earlier runs.
type mockTx struct {
	createdRuns    []*ImportRun
	completed      map[string]int
	accounts       []*Account
	inserted       []*Transaction
	existingHashes map[string]bool
	insertErr      error
	committed      bool
	rolledBack     bool
}

func newMockTx() *mockTx {
	return &mockTx{
		completed:      make(map[string]int),
		existingHashes: make(map[string]bool),
	}
}

func (t *mockTx) CreateImportRun(ctx context.Context, run *ImportRun) error {
	t.createdRuns = append(t.createdRuns, run)
	return nil
}

func (t *mockTx) CompleteImportRun(ctx context.Context, runID string, rowCount int) error {
	t.completed[runID] = rowCount
	return nil
}

func (t *mockTx) FindAccount(ctx context.Context, provider, name string) (*Account, error) {
	for _, a := range t.accounts {
		if a.Provider == provider && a.Name == name {
			return a, nil
		}
	}
	return nil, nil
}

func (t *mockTx) CreateAccount(ctx context.Context, account *Account) error {
	t.accounts = append(t.accounts, account)
	return nil
}

func (t *mockTx) InsertTransaction(ctx context.Context, row *Transaction) (bool, error) {
	if t.insertErr != nil {
		return false, t.insertErr
	}
	if t.existingHashes[row.ImportHash] {
		return false, nil
	}
	t.existingHashes[row.ImportHash] = true
	t.inserted = append(t.inserted, row)
	return true, nil
}

func (t *mockTx) Commit() error   { t.committed = true; return nil }
func (t *mockTx) Rollback() error { t.rolledBack = true; return nil }

func newTestImporter(csv string) (*Importer, *mockStore) {
	store := &mockStore{tx: newMockTx()}
	importer := NewImporter(
		&mockMappings{mapping: testMapping()},
		&mockSource{data: []byte(csv)},
		store,
	)
	return importer, store
}

const sampleCSV = "Date,Amount,Merchant,Description\n" +
	"2024-01-05,-54.32,Acme Grocers,Weekly shop\n" +
	"2024-01-06,-12.00,Corner Shop,Snacks\n"

func TestImportCSV_InsertsRows(t *testing.T) {
	importer, store := newTestImporter(sampleCSV)

	if err := importer.ImportCSV(context.Background(), "sample_bank", "Main", "statement.csv"); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	tx := store.tx
	if len(tx.inserted) != 2 {
		t.Fatalf("Expected 2 inserted transactions, got %d", len(tx.inserted))
	}
	if len(tx.accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(tx.accounts))
	}
	if tx.accounts[0].Currency != "GBP" || tx.accounts[0].Type != "checking" {
		t.Errorf("Unexpected account: %+v", tx.accounts[0])
	}
	if len(tx.createdRuns) != 1 {
		t.Fatalf("Expected 1 import run, got %d", len(tx.createdRuns))
	}
	run := tx.createdRuns[0]
	if tx.completed[run.ID] != 2 {
		t.Errorf("Expected run completed with row_count 2, got %d", tx.completed[run.ID])
	}
	if !tx.committed {
		t.Error("Expected transaction to be committed")
	}
	if len(store.failedRuns) != 0 {
		t.Errorf("Expected no failure markings, got %d", len(store.failedRuns))
	}
	for _, row := range tx.inserted {
		if row.ImportRunID != run.ID {
			t.Errorf("Expected transaction bound to run %s, got %s", run.ID, row.ImportRunID)
		}
		if row.AccountID != tx.accounts[0].ID {
			t.Errorf("Expected transaction bound to account %s, got %s", tx.accounts[0].ID, row.AccountID)
		}
	}
}

func TestImportCSV_HeaderOnlyCompletesWithZeroRows(t *testing.T) {
	importer, store := newTestImporter("Date,Amount\n")

	if err := importer.ImportCSV(context.Background(), "sample_bank", "Main", "statement.csv"); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	tx := store.tx
	if len(tx.createdRuns) != 1 {
		t.Fatalf("Expected 1 import run, got %d", len(tx.createdRuns))
	}
	if got := tx.completed[tx.createdRuns[0].ID]; got != 0 {
		t.Errorf("Expected row_count 0, got %d", got)
	}
	if len(tx.accounts) != 0 {
		t.Errorf("Expected no account for an empty import, got %d", len(tx.accounts))
	}
	if !tx.committed {
		t.Error("Expected transaction to be committed")
	}
}

func TestImportCSV_IdempotentRerun(t *testing.T) {
	importer, store := newTestImporter(sampleCSV)
	ctx := context.Background()

	if err := importer.ImportCSV(ctx, "sample_bank", "Main", "statement.csv"); err != nil {
		t.Fatalf("first ImportCSV failed: %v", err)
	}
	firstInserted := len(store.tx.inserted)

	// Second run against the same store state: every hash already exists.
	rerunTx := newMockTx()
	rerunTx.existingHashes = store.tx.existingHashes
	rerunTx.accounts = store.tx.accounts
	store.tx = rerunTx

	if err := importer.ImportCSV(ctx, "sample_bank", "Main", "statement.csv"); err != nil {
		t.Fatalf("second ImportCSV failed: %v", err)
	}

	if firstInserted != 2 {
		t.Errorf("Expected 2 rows from the first run, got %d", firstInserted)
	}
	if len(rerunTx.inserted) != 0 {
		t.Errorf("Expected 0 new rows on rerun, got %d", len(rerunTx.inserted))
	}
	run := rerunTx.createdRuns[0]
	if got := rerunTx.completed[run.ID]; got != 0 {
		t.Errorf("Expected rerun row_count 0, got %d", got)
	}
	if !rerunTx.committed {
		t.Error("Expected rerun to still complete and commit")
	}
	if len(rerunTx.accounts) != 1 {
		t.Errorf("Expected no second account, got %d", len(rerunTx.accounts))
	}
}

func TestImportCSV_DuplicateRowsInFile(t *testing.T) {
	csv := "Date,Amount\n2024-01-05,-10.00\n2024-01-05,-10.00\n"
	importer, store := newTestImporter(csv)

	if err := importer.ImportCSV(context.Background(), "sample_bank", "Main", "statement.csv"); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	if len(store.tx.inserted) != 1 {
		t.Errorf("Expected in-batch dedupe to leave 1 row, got %d", len(store.tx.inserted))
	}
}

func TestImportCSV_MalformedDataAbortsBeforeTransaction(t *testing.T) {
	importer, store := newTestImporter("Date,Amount\n2024-01-05,abc\n")

	err := importer.ImportCSV(context.Background(), "sample_bank", "Main", "statement.csv")
	if err == nil {
		t.Fatal("Expected error for malformed amount, got nil")
	}
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Errorf("Expected a DataError, got %T: %v", err, err)
	}
	if store.beginCount != 0 {
		t.Error("Expected no transaction for a parse failure")
	}
	if len(store.failedRuns) != 0 {
		t.Error("Expected no run record for a pre-transaction failure")
	}
}

func TestImportCSV_MappingNotFound(t *testing.T) {
	store := &mockStore{tx: newMockTx()}
	importer := NewImporter(
		&mockMappings{err: config.ErrMappingNotFound},
		&mockSource{data: []byte(sampleCSV)},
		store,
	)

	err := importer.ImportCSV(context.Background(), "unknown", "Main", "statement.csv")
	if !errors.Is(err, config.ErrMappingNotFound) {
		t.Fatalf("Expected ErrMappingNotFound, got %v", err)
	}
	if store.beginCount != 0 {
		t.Error("Expected no transaction when the mapping is missing")
	}
}

func TestImportCSV_InsertFailureMarksRunFailed(t *testing.T) {
	importer, store := newTestImporter(sampleCSV)
	insertErr := errors.New("connection reset")
	store.tx.insertErr = insertErr

	err := importer.ImportCSV(context.Background(), "sample_bank", "Main", "statement.csv")
	if !errors.Is(err, insertErr) {
		t.Fatalf("Expected the insert error to propagate, got %v", err)
	}

	tx := store.tx
	if !tx.rolledBack {
		t.Error("Expected transaction to be rolled back")
	}
	if tx.committed {
		t.Error("Expected no commit after a failed insert")
	}
	if len(store.failedRuns) != 1 {
		t.Fatalf("Expected 1 failure marking, got %d", len(store.failedRuns))
	}
	if store.failedRuns[0].ID != tx.createdRuns[0].ID {
		t.Error("Expected the failure marking to target the run created in this import")
	}
	if !errors.Is(store.failedErrs[0], insertErr) {
		t.Errorf("Expected the original error to be recorded, got %v", store.failedErrs[0])
	}
}

func TestImportCSV_BeginFailure(t *testing.T) {
	importer, store := newTestImporter(sampleCSV)
	store.beginErr = errors.New("too many connections")

	err := importer.ImportCSV(context.Background(), "sample_bank", "Main", "statement.csv")
	if err == nil {
		t.Fatal("Expected error when the transaction cannot start, got nil")
	}
	if len(store.failedRuns) != 0 {
		t.Error("Expected no failure marking when no run was created")
	}
}
