package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// canonicalText trims, lower-cases and collapses internal whitespace runs to
// single spaces, so cosmetic differences never change a record's identity.
func canonicalText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// ComputeImportHash returns the content-addressed identity of a record: the
// SHA-256 of its eight canonicalized identity fields joined by "|", as
// lowercase hex. Two records are the same transaction iff their hashes match,
// which makes the hash both the in-batch dedup key and the database-level
// idempotency key.
func ComputeImportHash(r *Record) string {
	parts := []string{
		canonicalText(r.SourceProvider),
		canonicalText(r.AccountName),
		canonicalText(r.DateTime),
		canonicalText(r.Amount),
		canonicalText(r.Currency),
		canonicalText(r.Merchant),
		canonicalText(r.Description),
		canonicalText(r.TransactionID),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Dedupe removes records whose import hash was already seen earlier in the
// batch. First occurrence wins; input order is preserved.
func Dedupe(records []*Record) []*Record {
	seen := make(map[string]bool, len(records))
	unique := make([]*Record, 0, len(records))
	for _, r := range records {
		if seen[r.ImportHash] {
			continue
		}
		seen[r.ImportHash] = true
		unique = append(unique, r)
	}
	return unique
}
