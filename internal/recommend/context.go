// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import (
	"context"
	"strings"

	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/models"
)

// Limits on how much library history feeds into one prompt.
const (
	contextMaxItems      = 10
	contextSnippetLength = 50
)

// LibraryReader supplies the user's recent library activity for
// context building. Implemented by the database package; defined here
// so the engine side owns the contract.
type LibraryReader interface {
	BookmarkedQuotes(ctx context.Context, userID int64, limit int) ([]models.Quote, error)
	QuotesByUser(ctx context.Context, userID int64, limit int) ([]models.Quote, error)
}

// BuildUserContext assembles the free-text taste context from the
// user's recent bookmarks and own quotes. Any read failure yields an
// empty context, never an error: recommendations for a fresh or
// unreadable library just run uncontextualized.
func BuildUserContext(ctx context.Context, reader LibraryReader, userID int64) string {
	var parts []string

	bookmarks, err := reader.BookmarkedQuotes(ctx, userID, contextMaxItems)
	if err != nil {
		logging.Warn().Err(err).Int64("user_id", userID).Msg("Failed to read bookmarks for context")
		return ""
	}
	if len(bookmarks) > 0 {
		parts = append(parts, "--- User Bookmarks ---")
		for _, q := range bookmarks {
			parts = append(parts, contextLine(q))
		}
	}

	own, err := reader.QuotesByUser(ctx, userID, contextMaxItems)
	if err != nil {
		logging.Warn().Err(err).Int64("user_id", userID).Msg("Failed to read quotes for context")
		return strings.Join(parts, "\n")
	}
	if len(own) > 0 {
		parts = append(parts, "--- User Created Quotes ---")
		for _, q := range own {
			parts = append(parts, contextLine(q))
		}
	}

	return strings.Join(parts, "\n")
}

func contextLine(q models.Quote) string {
	title := "Unknown"
	if q.Source != nil && q.Source.Title != "" {
		title = q.Source.Title
	}
	return "- Source: " + title + ", Content: " + snippet(q.Content, contextSnippetLength)
}

// snippet truncates on rune boundaries; quote content is mostly
// Korean, so byte slicing would split characters.
func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
