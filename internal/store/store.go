// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the persistence layer on top of
// modernc.org/sqlite, the pure-Go embedded relational engine this project
// uses in place of a CGO-linked graph database binding. It owns the
// on-disk schema, batched writes, indexed reads, and the SQLite FTS5 full
// text index.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store is the embedded relational backend for one project's code graph: a
// mutex-guarded handle with an explicit closed flag and entry points that
// honor context cancellation.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Config configures the embedded store.
type Config struct {
	// DataDir is the directory the sqlite file lives in. Defaults to
	// ".codegraph" under the project root.
	DataDir string
}

// Open opens (creating if necessary) the sqlite database for a project.
func Open(cfg Config) (*Store, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = ".codegraph"
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(cfg.DataDir, "graph.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite write serialization; single-writer embedded model
	s := &Store{db: db}
	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying sqlite handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// schemaStatements is the full DDL. Each CREATE is idempotent
// ("IF NOT EXISTS"), so EnsureSchema can run on every open without a
// migration-tracking table; a statement that fails for any reason is
// returned as an error.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS commits (
		commit_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		parent TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		commit_id TEXT NOT NULL,
		path TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		language TEXT NOT NULL,
		PRIMARY KEY (commit_id, path)
	)`,
	`CREATE TABLE IF NOT EXISTS symbols (
		id TEXT NOT NULL,
		commit_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		fqn TEXT NOT NULL,
		signature TEXT,
		sig_hash INTEGER NOT NULL,
		language TEXT NOT NULL,
		file_path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		visibility TEXT,
		doc TEXT,
		PRIMARY KEY (id, commit_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(commit_id, fqn)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(commit_id, file_path)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(commit_id, name)`,
	`CREATE TABLE IF NOT EXISTS edges (
		commit_id TEXT NOT NULL,
		type TEXT NOT NULL,
		src TEXT NOT NULL,
		dst TEXT NOT NULL,
		resolution TEXT NOT NULL,
		provenance TEXT,
		PRIMARY KEY (commit_id, src, dst, type, resolution)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(commit_id, src, type)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(commit_id, dst, type)`,
	`CREATE TABLE IF NOT EXISTS occurrences (
		commit_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		symbol_id TEXT,
		role TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		token TEXT,
		PRIMARY KEY (commit_id, file_path, start_line, start_col, role)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_occ_symbol ON occurrences(commit_id, symbol_id)`,
	`CREATE INDEX IF NOT EXISTS idx_occ_file ON occurrences(commit_id, file_path)`,
	`CREATE TABLE IF NOT EXISTS project_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
		id UNINDEXED, commit_id UNINDEXED, name, name_tokens, fqn, signature, doc,
		tokenize = 'unicode61 remove_diacritics 2'
	)`,
}

// EnsureSchema creates every table/index that doesn't already exist.
func (s *Store) EnsureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed (%q): %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

// GetProjectMeta reads a single key/value pair, returning ("", false) when
// absent.
func (s *Store) GetProjectMeta(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM project_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get project meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetProjectMeta upserts a key/value pair.
func (s *Store) SetProjectMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO project_meta(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set project meta %s: %w", key, err)
	}
	return nil
}

// GetLastIndexedSHA returns the commit id of the last successful scan, or
// ("", false) if none has run yet.
func (s *Store) GetLastIndexedSHA(ctx context.Context) (string, bool, error) {
	return s.GetProjectMeta(ctx, "last_indexed_sha")
}

// SetLastIndexedSHA records the commit id of the scan that just completed.
func (s *Store) SetLastIndexedSHA(ctx context.Context, sha string) error {
	return s.SetProjectMeta(ctx, "last_indexed_sha", sha)
}

// DB exposes the underlying handle for components (like the FTS layer)
// that need direct SQL access within this package.
func (s *Store) DB() *sql.DB { return s.db }
