package cache

import (
	"context"
	"errors"
	"fmt"
)

const schemaVersion = 1

// ErrSchemaMismatch is returned by Open for a database written by another
// schema version.
var ErrSchemaMismatch = errors.New("cache schema mismatch")

const schemaSQL = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);
CREATE TABLE reports (
	source_cid  TEXT NOT NULL,
	profile     TEXT NOT NULL,
	source_name TEXT NOT NULL,
	report_cid  TEXT NOT NULL,
	unf         TEXT NOT NULL,
	rows_count  INTEGER NOT NULL,
	columns     INTEGER NOT NULL,
	report      BLOB NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (source_cid, profile)
);
CREATE INDEX reports_created_at ON reports(created_at);
`

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
