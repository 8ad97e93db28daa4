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

	"github.com/epigraphlabs/epigraph/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("database: not found")

const quoteSelect = `
	SELECT q.id, q.user_id, q.source_id, q.content, q.page, q.memo,
	       q.created_at, q.updated_at,
	       s.id, s.title, s.author, s.source_type, s.cover_url, s.link, s.created_at,
	       EXISTS (SELECT 1 FROM bookmarks b WHERE b.quote_id = q.id AND b.user_id = q.user_id)
	FROM quotes q
	JOIN sources s ON s.id = q.source_id`

func scanQuote(row interface{ Scan(...any) error }) (models.Quote, error) {
	var q models.Quote
	var s models.Source
	var bookmarked bool
	err := row.Scan(
		&q.ID, &q.UserID, &q.SourceID, &q.Content, &q.Page, &q.Memo,
		&q.CreatedAt, &q.UpdatedAt,
		&s.ID, &s.Title, &s.Author, &s.Type, &s.CoverURL, &s.Link, &s.CreatedAt,
		&bookmarked,
	)
	if err != nil {
		return models.Quote{}, err
	}
	q.Source = &s
	q.Bookmarked = bookmarked
	return q, nil
}

// GetQuote returns one quote with its source and tags.
func (db *DB) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	row := db.conn.QueryRowContext(ctx, quoteSelect+` WHERE q.id = ?`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying quote %d: %w", id, err)
	}
	if err := db.loadTags(ctx, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuotes returns a page of the user's quotes, newest first, plus
// the total count for pagination.
func (db *DB) ListQuotes(ctx context.Context, userID int64, offset, limit int) ([]models.Quote, int, error) {
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM quotes WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting quotes: %w", err)
	}

	quotes, err := db.queryQuotes(ctx,
		quoteSelect+` WHERE q.user_id = ? ORDER BY q.created_at DESC, q.id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// QuotesByUser returns the user's most recent quotes for context
// building.
func (db *DB) QuotesByUser(ctx context.Context, userID int64, limit int) ([]models.Quote, error) {
	return db.queryQuotes(ctx,
		quoteSelect+` WHERE q.user_id = ? ORDER BY q.created_at DESC, q.id DESC LIMIT ?`,
		userID, limit)
}

// BookmarkedQuotes returns the user's most recently bookmarked quotes.
func (db *DB) BookmarkedQuotes(ctx context.Context, userID int64, limit int) ([]models.Quote, error) {
	return db.queryQuotes(ctx, `
		SELECT q.id, q.user_id, q.source_id, q.content, q.page, q.memo,
		       q.created_at, q.updated_at,
		       s.id, s.title, s.author, s.source_type, s.cover_url, s.link, s.created_at,
		       TRUE
		FROM bookmarks b
		JOIN quotes q ON q.id = b.quote_id
		JOIN sources s ON s.id = q.source_id
		WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`,
		userID, limit)
}

// PopularQuotes returns the most-bookmarked quotes across all users,
// the caller-side fallback when the recommendation engine returns
// empty.
func (db *DB) PopularQuotes(ctx context.Context, limit int) ([]models.Quote, error) {
	return db.queryQuotes(ctx, `
		SELECT q.id, q.user_id, q.source_id, q.content, q.page, q.memo,
		       q.created_at, q.updated_at,
		       s.id, s.title, s.author, s.source_type, s.cover_url, s.link, s.created_at,
		       FALSE
		FROM quotes q
		JOIN sources s ON s.id = q.source_id
		JOIN bookmarks b ON b.quote_id = q.id
		GROUP BY ALL
		ORDER BY count(b.id) DESC, q.id DESC
		LIMIT ?`,
		limit)
}

func (db *DB) queryQuotes(ctx context.Context, query string, args ...any) ([]models.Quote, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quotes: %w", err)
	}

	for i := range quotes {
		if err := db.loadTags(ctx, &quotes[i]); err != nil {
			return nil, err
		}
	}
	return quotes, nil
}

func (db *DB) loadTags(ctx context.Context, q *models.Quote) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM quote_tags qt
		JOIN tags t ON t.id = qt.tag_id
		WHERE qt.quote_id = ?
		ORDER BY t.id`, q.ID)
	if err != nil {
		return fmt.Errorf("querying tags for quote %d: %w", q.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		q.Tags = append(q.Tags, tag)
	}
	return rows.Err()
}
