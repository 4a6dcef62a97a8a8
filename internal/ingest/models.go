// Package ingest implements the CSV statement import pipeline: mapping-driven
// row normalization, content-addressed deduplication and the transactional
// import run lifecycle.
package ingest

import "time"

// Import run statuses. A run is created as started and transitions exactly
// once to completed or failed.
const (
	RunStarted   = "started"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RawRow is one CSV line keyed by the header names.
type RawRow map[string]string

// Record is the canonical transaction shape produced by normalization.
// DateTime and Amount are kept in their text forms because those exact
// strings feed the import hash and the database row.
type Record struct {
	TransactionID  string
	SourceProvider string
	AccountName    string
	AccountType    string
	DateTime       string // ISO-8601 with numeric offset, e.g. 2024-01-05T00:00:00+00:00
	Amount         string // fixed-point with two fraction digits, sign preserved
	Currency       string
	Merchant       string
	Description    string
	ImportHash     string
}

// Account is the persisted account entity, keyed by (provider, name).
type Account struct {
	ID       string
	Provider string
	Name     string
	Type     string
	Currency string
}

// ImportRun is the persisted bookkeeping entity for one import invocation.
type ImportRun struct {
	ID             string
	SourceProvider string
	Status         string
	RowCount       int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Transaction is the persisted transaction row, a Record bound to its
// account and import run.
type Transaction struct {
	ID string
	Record
	AccountID   string
	ImportRunID string
}
