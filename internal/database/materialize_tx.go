// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/epigraphlabs/epigraph/internal/materialize"
)

// RunInTx opens a transaction, hands its operation surface to fn, and
// commits. Any error from fn rolls everything back, so a source row is
// never committed without its quote.
func (db *DB) RunInTx(ctx context.Context, fn func(tx materialize.Tx) error) error {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&quoteTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("Rollback failed after transaction error")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// quoteTx implements materialize.Tx on one *sql.Tx.
type quoteTx struct {
	tx *sql.Tx
}

var _ materialize.Tx = (*quoteTx)(nil)

// FindQuoteByExactContent returns the most recent quote whose content
// matches text exactly.
func (t *quoteTx) FindQuoteByExactContent(ctx context.Context, content string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM quotes WHERE content = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		content).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("finding quote by content: %w", err)
	}
	return id, true, nil
}

// FindOrCreateSource resolves a source by (title, author), creating it
// when absent. A concurrent insert losing the race is recovered by
// re-querying.
func (t *quoteTx) FindOrCreateSource(ctx context.Context, title, author, sourceType string) (int64, error) {
	id, found, err := t.findSource(ctx, title, author)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	err = t.tx.QueryRowContext(ctx,
		`INSERT INTO sources (title, author, source_type) VALUES (?, ?, ?) RETURNING id`,
		title, author, sourceType).Scan(&id)
	if err != nil {
		// A sibling transaction may have created the same source.
		if recoveredID, recovered, lookupErr := t.findSource(ctx, title, author); lookupErr == nil && recovered {
			return recoveredID, nil
		}
		return 0, fmt.Errorf("creating source: %w", err)
	}
	return id, nil
}

func (t *quoteTx) findSource(ctx context.Context, title, author string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM sources WHERE title = ? AND author = ? ORDER BY id LIMIT 1`,
		title, author).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("finding source: %w", err)
	}
	return id, true, nil
}

// CreateQuote writes the quote row and returns its generated id.
func (t *quoteTx) CreateQuote(ctx context.Context, sourceID, userID int64, content string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO quotes (user_id, source_id, content) VALUES (?, ?, ?) RETURNING id`,
		userID, sourceID, content).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting quote: %w", err)
	}
	return id, nil
}

// AttachTags links the quote to each named tag, creating tags that do
// not exist yet.
func (t *quoteTx) AttachTags(ctx context.Context, quoteID int64, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		var tagID int64
		err := t.tx.QueryRowContext(ctx,
			`SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			err = t.tx.QueryRowContext(ctx,
				`INSERT INTO tags (name) VALUES (?) RETURNING id`, name).Scan(&tagID)
		}
		if err != nil {
			return fmt.Errorf("resolving tag %q: %w", name, err)
		}

		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO quote_tags (quote_id, tag_id)
			 SELECT ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM quote_tags WHERE quote_id = ? AND tag_id = ?)`,
			quoteID, tagID, quoteID, tagID)
		if err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
	}
	return nil
}
