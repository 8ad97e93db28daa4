// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package database wraps the embedded DuckDB instance: schema
// management, the quote library CRUD, and the transactional surface
// the materializer runs on.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/epigraphlabs/epigraph/internal/config"
	"github.com/epigraphlabs/epigraph/internal/logging"
)

// DefaultUserID is the library owner seeded at first startup. The
// service runs single-tenant; callers that omit a user fall back to
// this row.
const DefaultUserID = 1

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn   *sql.DB
	cfg    config.DatabaseConfig
	logger zerolog.Logger
}

// New opens the database file, applies tuning options from cfg and
// initializes the schema.
func New(cfg config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	// The data directory may not exist on first run.
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logging.With().Str("component", "database").Logger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	db.logger.Info().Str("path", cfg.Path).Int("threads", threads).Msg("Database ready")
	return db, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Health verifies the connection is usable.
func (db *DB) Health(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_users START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_sources START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_quotes START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_tags START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_bookmarks START 1`,
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGINT PRIMARY KEY DEFAULT nextval('seq_users'),
			name       VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			id          BIGINT PRIMARY KEY DEFAULT nextval('seq_sources'),
			title       VARCHAR NOT NULL,
			author      VARCHAR NOT NULL DEFAULT '',
			source_type VARCHAR NOT NULL DEFAULT 'other',
			cover_url   VARCHAR NOT NULL DEFAULT '',
			link        VARCHAR NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS quotes (
			id         BIGINT PRIMARY KEY DEFAULT nextval('seq_quotes'),
			user_id    BIGINT NOT NULL,
			source_id  BIGINT NOT NULL,
			content    VARCHAR NOT NULL,
			page       INTEGER NOT NULL DEFAULT 0,
			memo       VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id   BIGINT PRIMARY KEY DEFAULT nextval('seq_tags'),
			name VARCHAR NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS quote_tags (
			quote_id BIGINT NOT NULL,
			tag_id   BIGINT NOT NULL,
			UNIQUE (quote_id, tag_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id         BIGINT PRIMARY KEY DEFAULT nextval('seq_bookmarks'),
			user_id    BIGINT NOT NULL,
			quote_id   BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE (user_id, quote_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_content ON quotes (content)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_user ON quotes (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks (user_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:min(len(stmt), 40)], err)
		}
	}

	// Seed the single-tenant owner.
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name)
		 SELECT ?, 'owner'
		 WHERE NOT EXISTS (SELECT 1 FROM users WHERE id = ?)`,
		DefaultUserID, DefaultUserID)
	if err != nil {
		return fmt.Errorf("seeding default user: %w", err)
	}
	return nil
}
