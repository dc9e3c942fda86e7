package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for ASG snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS snapshots (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL,
  api_version     TEXT NOT NULL,
  root_id         INTEGER NOT NULL,
  node_count      INTEGER NOT NULL,
  digest          TEXT
);

CREATE TABLE IF NOT EXISTS nodes (
  snapshot_id     TEXT NOT NULL REFERENCES snapshots(id),
  id              INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  parent_id       INTEGER,
  parent_edge     TEXT,
  filtered        BOOLEAN DEFAULT FALSE,
  PRIMARY KEY (snapshot_id, id)
);

CREATE TABLE IF NOT EXISTS node_attrs (
  snapshot_id     TEXT NOT NULL REFERENCES snapshots(id),
  node_id         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  value           TEXT NOT NULL,
  PRIMARY KEY (snapshot_id, node_id, name)
);

CREATE TABLE IF NOT EXISTS edges (
  snapshot_id     TEXT NOT NULL REFERENCES snapshots(id),
  source_id       INTEGER NOT NULL,
  edge            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  target_id       INTEGER NOT NULL,
  payload         INTEGER DEFAULT 0,
  PRIMARY KEY (snapshot_id, source_id, edge, ordinal)
);

CREATE TABLE IF NOT EXISTS metadata (
  snapshot_id     TEXT NOT NULL REFERENCES snapshots(id),
  key             TEXT NOT NULL,
  value           TEXT,
  PRIMARY KEY (snapshot_id, key)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(snapshot_id, kind);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(snapshot_id, parent_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(snapshot_id, target_id);
`

// DeleteSnapshots transactionally removes the given snapshots and all of
// their rows. Child tables go first to respect FK constraints.
func (s *Store) DeleteSnapshots(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := placeholderList(len(ids))
	args := stringsToArgs(ids)
	for _, q := range []string{
		"DELETE FROM metadata WHERE snapshot_id IN (" + placeholders + ")",
		"DELETE FROM edges WHERE snapshot_id IN (" + placeholders + ")",
		"DELETE FROM node_attrs WHERE snapshot_id IN (" + placeholders + ")",
		"DELETE FROM nodes WHERE snapshot_id IN (" + placeholders + ")",
		"DELETE FROM snapshots WHERE id IN (" + placeholders + ")",
	} {
		if _, err := tx.Exec(q, args...); err != nil {
			return fmt.Errorf("delete snapshots: %w", err)
		}
	}
	return tx.Commit()
}
