// Package store mirrors ingested usage records into a local sqlite
// database so a restarted process can warm-start its aggregators
// instead of losing up to the analysis window of history. The mirror is
// advisory: the source logs remain authoritative, and re-ingesting the
// same records is safe under the dedup filter.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arvindn/genaicost/internal/record"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating DB dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening DB: %w", err)
	}
	if err := configureConnection(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: configure sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func configureConnection(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("set journal_mode WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous = NORMAL;`); err != nil {
		return fmt.Errorf("set synchronous NORMAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usage_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			model TEXT NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cache_creation_tokens INTEGER NOT NULL,
			cache_read_tokens INTEGER NOT NULL,
			cost_usd REAL NOT NULL,
			cache_savings_usd REAL NOT NULL,
			message_id TEXT,
			request_id TEXT,
			unknown_model INTEGER NOT NULL DEFAULT 0,
			dedup_key TEXT UNIQUE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_usage_records_occurred_at ON usage_records(occurred_at);`,
		`CREATE INDEX IF NOT EXISTS idx_usage_records_provider_occurred ON usage_records(provider, occurred_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// dedupKey mirrors the dedup filter's identity: provider-scoped
// (message_id, request_id). Records with neither id get a NULL key so
// the UNIQUE constraint never collapses them.
func dedupKey(r record.Record) any {
	if r.MessageID == "" && r.RequestID == "" {
		return nil
	}
	return string(r.Provider) + "|" + r.MessageID + "|" + r.RequestID
}

// Insert mirrors a batch of accepted records. Duplicate dedup keys are
// ignored, so replaying overlapping source pulls is harmless.
func (s *Store) Insert(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO usage_records
		(provider, occurred_at, model, input_tokens, output_tokens,
		 cache_creation_tokens, cache_read_tokens, cost_usd,
		 cache_savings_usd, message_id, request_id, unknown_model, dedup_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		unknown := 0
		if r.UnknownModel {
			unknown = 1
		}
		_, err := stmt.ExecContext(ctx,
			string(r.Provider), r.Timestamp.UTC().Format(time.RFC3339Nano), r.Model,
			r.Tokens.Input, r.Tokens.Output, r.Tokens.CacheCreation, r.Tokens.CacheRead,
			r.Cost, r.CacheSavings, r.MessageID, r.RequestID, unknown, dedupKey(r))
		if err != nil {
			return fmt.Errorf("store: insert record: %w", err)
		}
	}

	return tx.Commit()
}

// LoadSince returns every mirrored record for provider with a timestamp
// at or after cutoff, in chronological order, the warm-start feed.
func (s *Store) LoadSince(ctx context.Context, provider record.Provider, cutoff time.Time) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			occurred_at, model, input_tokens, output_tokens,
			cache_creation_tokens, cache_read_tokens, cost_usd,
			cache_savings_usd, message_id, request_id, unknown_model
		FROM usage_records
		WHERE provider = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC`,
		string(provider), cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("store: load since: %w", err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		var (
			occurredAt string
			r          record.Record
			messageID  sql.NullString
			requestID  sql.NullString
			unknown    int
		)
		if err := rows.Scan(&occurredAt, &r.Model,
			&r.Tokens.Input, &r.Tokens.Output, &r.Tokens.CacheCreation, &r.Tokens.CacheRead,
			&r.Cost, &r.CacheSavings, &messageID, &requestID, &unknown); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			continue
		}
		r.Timestamp = ts.UTC()
		r.Provider = provider
		r.MessageID = messageID.String
		r.RequestID = requestID.String
		r.UnknownModel = unknown != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneBefore drops mirrored records older than cutoff, matching the
// aggregator's analysis-window pruning.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM usage_records WHERE occurred_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: prune: %w", err)
	}
	return nil
}
