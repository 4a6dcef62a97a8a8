package ingest

import (
	"context"

	"github.com/dvloznov/finance-dashboard/internal/config"
)

// MappingSource resolves the CSV column mapping for a provider name.
type MappingSource interface {
	Load(provider string) (*config.Mapping, error)
}

// StatementSource fetches raw statement bytes from a local path or remote URI.
type StatementSource interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Store is the persistence gateway the importer drives. Begin opens the one
// transaction a run writes inside; MarkImportRunFailed runs independently of
// it so the failure record survives the rollback.
type Store interface {
	Begin(ctx context.Context) (RunTx, error)
	MarkImportRunFailed(ctx context.Context, run *ImportRun, runErr error) error
}

// RunTx is one database transaction scoped to a single import run.
type RunTx interface {
	CreateImportRun(ctx context.Context, run *ImportRun) error
	CompleteImportRun(ctx context.Context, runID string, rowCount int) error
	FindAccount(ctx context.Context, provider, name string) (*Account, error)
	CreateAccount(ctx context.Context, account *Account) error

	// InsertTransaction reports whether a new row was written. A duplicate
	// import hash from an earlier run is a silent no-op and returns false.
	InsertTransaction(ctx context.Context, row *Transaction) (bool, error)

	Commit() error
	Rollback() error
}
