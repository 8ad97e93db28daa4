// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package database

import (
	"context"
	"fmt"
)

// ToggleBookmark flips the bookmark for (userID, quoteID) and reports
// the resulting state: true when the quote is now bookmarked.
func (db *DB) ToggleBookmark(ctx context.Context, userID, quoteID int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = ? AND quote_id = ?)`,
		userID, quoteID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking bookmark: %w", err)
	}

	if exists {
		_, err = db.conn.ExecContext(ctx,
			`DELETE FROM bookmarks WHERE user_id = ? AND quote_id = ?`, userID, quoteID)
		if err != nil {
			return false, fmt.Errorf("removing bookmark: %w", err)
		}
		return false, nil
	}

	var quoteExists bool
	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM quotes WHERE id = ?)`, quoteID).Scan(&quoteExists)
	if err != nil {
		return false, fmt.Errorf("checking quote: %w", err)
	}
	if !quoteExists {
		return false, ErrNotFound
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, quote_id) VALUES (?, ?)`, userID, quoteID)
	if err != nil {
		return false, fmt.Errorf("adding bookmark: %w", err)
	}
	return true, nil
}
