package repository

import (
	"context"
	"fmt"
)

// Timestamps are RFC 3339 text and booleans are 0/1 integers so the same DDL runs on
// SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		documents INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		zero_yield INTEGER NOT NULL DEFAULT 0,
		analyzed INTEGER NOT NULL DEFAULT 0,
		unique_records INTEGER NOT NULL DEFAULT 0,
		foc INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS output_records (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batch_runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		document_name TEXT NOT NULL,
		declaration_number TEXT NOT NULL,
		trade_code TEXT NOT NULL,
		line_index TEXT NOT NULL,
		item_tag TEXT NOT NULL,
		model_spec TEXT NOT NULL,
		quantity TEXT NOT NULL,
		net_weight TEXT NOT NULL,
		declared_price TEXT NOT NULL,
		is_foc INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS output_records_batch_seq ON output_records (batch_id, seq)`,
	`CREATE TABLE IF NOT EXISTS document_warnings (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batch_runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		document_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		line TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS document_warnings_batch_seq ON document_warnings (batch_id, seq)`,
}

// Migrate creates the run-history tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if err := d.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.logger.Debug("repository.migrate.ok", "dialect", d.dialect)
	return nil
}
