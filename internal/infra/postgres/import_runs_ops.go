package postgres

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dvloznov/finance-dashboard/internal/ingest"
)

// CreateImportRun inserts the bookkeeping row for one import invocation in
// started status.
func (t *runTx) CreateImportRun(ctx context.Context, run *ingest.ImportRun) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO import_runs (id, source_provider, status, row_count, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.SourceProvider, run.Status, run.RowCount, run.StartedAt)
	if err != nil {
		return fmt.Errorf("CreateImportRun: inserting row: %w", err)
	}
	return nil
}

// CompleteImportRun marks a run completed with its final inserted-row count.
func (t *runTx) CompleteImportRun(ctx context.Context, runID string, rowCount int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE import_runs
		SET status = $1, row_count = $2, finished_at = NOW()
		WHERE id = $3
	`, ingest.RunCompleted, rowCount, runID)
	if err != nil {
		return fmt.Errorf("CompleteImportRun: updating row: %w", err)
	}
	return nil
}

// MarkImportRunFailed records the failure outcome for a run in its own
// transaction. The started row normally vanished with the rollback of the
// run's transaction, so this upserts by the ID captured at creation; the
// failure audit trail survives regardless of what was committed.
func (s *Store) MarkImportRunFailed(ctx context.Context, run *ingest.ImportRun, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = truncateErrorMessage(runErr.Error())
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, source_provider, status, row_count, error_message, started_at, finished_at)
		VALUES ($1, $2, $3, 0, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    error_message = EXCLUDED.error_message,
		    finished_at = EXCLUDED.finished_at
	`, run.ID, run.SourceProvider, ingest.RunFailed, errMsg, run.StartedAt)
	if err != nil {
		return fmt.Errorf("MarkImportRunFailed: upserting row: %w", err)
	}
	return nil
}

// truncateErrorMessage caps the stored error message at 2000 bytes, backing
// up to a rune boundary so the stored text stays valid UTF-8.
func truncateErrorMessage(msg string) string {
	const maxLen = 2000
	if len(msg) <= maxLen {
		return msg
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
