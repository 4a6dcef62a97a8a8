// Package postgres implements the persistence gateway for the ingestion
// pipeline on top of database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Postgres driver
	_ "github.com/lib/pq"

	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/ingest"
)

// Store wraps the shared connection pool. One Store serves the whole process;
// each import run gets its own transaction through Begin.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("Open: connecting to postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: pinging postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Begin opens the transaction all writes of one import run go through.
func (s *Store) Begin(ctx context.Context) (ingest.RunTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Begin: starting transaction: %w", err)
	}
	return &runTx{tx: tx}, nil
}

// runTx is one database transaction scoped to a single import run.
type runTx struct {
	tx *sql.Tx
}

func (t *runTx) Commit() error {
	return t.tx.Commit()
}

// Rollback is safe to call after a failed or completed commit.
func (t *runTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
