// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package store persists validation results to a local sqlite database,
// giving batch runs an audit trail and the portfolio report a history to
// query.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cert-scan/internal/cert"
)

const schema = `
CREATE TABLE IF NOT EXISTS validation_results (
	certificate_id TEXT PRIMARY KEY,
	source_file    TEXT,
	purchaser_name TEXT,
	exemption_state TEXT,
	form_type      TEXT NOT NULL,
	entity_type    TEXT NOT NULL,
	pathway        TEXT NOT NULL,
	disposition    TEXT NOT NULL,
	confidence     INTEGER NOT NULL,
	duplicate_of   TEXT,
	payload        TEXT NOT NULL,
	validated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_disposition ON validation_results(disposition);
CREATE INDEX IF NOT EXISTS idx_results_purchaser ON validation_results(purchaser_name);
CREATE INDEX IF NOT EXISTS idx_results_validated_at ON validation_results(validated_at);
`

// Store wraps the sqlite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult upserts one validation result. The full result is stored as
// JSON alongside the indexed columns.
func (s *Store) SaveResult(r *cert.ValidationResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result %s: %w", r.CertificateID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO validation_results
		(certificate_id, source_file, purchaser_name, exemption_state, form_type,
		 entity_type, pathway, disposition, confidence, duplicate_of, payload, validated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(certificate_id) DO UPDATE SET
			disposition = excluded.disposition,
			confidence = excluded.confidence,
			duplicate_of = excluded.duplicate_of,
			payload = excluded.payload,
			validated_at = excluded.validated_at`,
		r.CertificateID, r.SourceFile, r.Fields.PurchaserName, resultState(r),
		string(r.FormType), string(r.EntityType), string(r.Pathway),
		string(r.Disposition), r.Confidence, r.DuplicateOf, string(payload),
		r.ValidatedAt)
	if err != nil {
		return fmt.Errorf("saving result %s: %w", r.CertificateID, err)
	}
	return nil
}

// SaveBatch persists a whole batch in one transaction.
func (s *Store) SaveBatch(results []*cert.ValidationResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for _, r := range results {
		payload, err := json.Marshal(r)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding result %s: %w", r.CertificateID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO validation_results
			(certificate_id, source_file, purchaser_name, exemption_state, form_type,
			 entity_type, pathway, disposition, confidence, duplicate_of, payload, validated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(certificate_id) DO UPDATE SET
				disposition = excluded.disposition,
				confidence = excluded.confidence,
				duplicate_of = excluded.duplicate_of,
				payload = excluded.payload,
				validated_at = excluded.validated_at`,
			r.CertificateID, r.SourceFile, r.Fields.PurchaserName, resultState(r),
			string(r.FormType), string(r.EntityType), string(r.Pathway),
			string(r.Disposition), r.Confidence, r.DuplicateOf, string(payload),
			r.ValidatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving result %s: %w", r.CertificateID, err)
		}
	}
	return tx.Commit()
}

// resultState picks the indexed exemption state: the state the pipeline
// resolved, falling back to the first extracted exemption state.
func resultState(r *cert.ValidationResult) string {
	if r.State != "" {
		return r.State
	}
	if len(r.Fields.ExemptionStates) > 0 {
		return r.Fields.ExemptionStates[0]
	}
	return ""
}

// Recent returns up to limit results ordered newest first.
func (s *Store) Recent(limit int) ([]*cert.ValidationResult, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM validation_results ORDER BY validated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []*cert.ValidationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var r cert.ValidationResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decoding stored result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// CountByDisposition tallies stored results since the cutoff.
func (s *Store) CountByDisposition(since time.Time) (map[cert.Disposition]int, error) {
	rows, err := s.db.Query(
		`SELECT disposition, COUNT(*) FROM validation_results WHERE validated_at >= ? GROUP BY disposition`, since)
	if err != nil {
		return nil, fmt.Errorf("querying dispositions: %w", err)
	}
	defer rows.Close()

	counts := make(map[cert.Disposition]int)
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		counts[cert.Disposition(d)] = n
	}
	return counts, rows.Err()
}
