// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package materialize promotes ephemeral recommendations into durable
// quote records. Deduplication is by exact content match, so two users
// bookmarking the same AI-suggested quote share one row.
package materialize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/metrics"
	"github.com/epigraphlabs/epigraph/internal/models"
)

// Payload carries the original recommendation fields a user acted on.
// QuoteID is the identifier the caller holds: negative (ephemeral) or
// zero means not yet persisted; positive means already durable.
type Payload struct {
	QuoteID     int64    `json:"quote_id"`
	Content     string   `json:"content" validate:"required"`
	SourceTitle string   `json:"source_title"`
	Author      string   `json:"author"`
	SourceType  string   `json:"source_type"`
	Tags        []string `json:"tags"`
	UserID      int64    `json:"user_id" validate:"required,gt=0"`
}

// Tx is the transactional persistence surface the service needs. All
// three lookups/writes of one materialization run inside a single
// transaction.
type Tx interface {
	FindQuoteByExactContent(ctx context.Context, content string) (int64, bool, error)
	FindOrCreateSource(ctx context.Context, title, author, sourceType string) (int64, error)
	CreateQuote(ctx context.Context, sourceID, userID int64, content string) (int64, error)
	AttachTags(ctx context.Context, quoteID int64, names []string) error
}

// Store opens a transaction, runs fn, and commits; any error from fn
// rolls back every partial write. Implemented by the database package.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Service converts ephemeral recommendations into durable records.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService wires the materializer onto its persistence store.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		logger: logging.With().Str("component", "materialize").Logger(),
	}
}

// EnsureDurable returns a durable quote ID for the payload.
//
// A positive payload ID is returned unchanged (idempotent no-op). An
// existing quote with exactly matching content is reused, most recent
// first. Otherwise the source is found or created by (title, author),
// the source type normalized against the allow-list, and a new quote
// row written. Everything runs in one transaction: a failure rolls
// back and surfaces a single error, never a source without its quote.
func (s *Service) EnsureDurable(ctx context.Context, p Payload) (int64, error) {
	if p.QuoteID > 0 {
		return p.QuoteID, nil
	}
	if strings.TrimSpace(p.Content) == "" {
		return 0, fmt.Errorf("materialize: content must not be empty")
	}
	if p.UserID <= 0 {
		return 0, fmt.Errorf("materialize: user id must be positive, got %d", p.UserID)
	}

	var quoteID int64
	err := s.store.RunInTx(ctx, func(tx Tx) error {
		existing, found, err := tx.FindQuoteByExactContent(ctx, p.Content)
		if err != nil {
			return fmt.Errorf("looking up existing quote: %w", err)
		}
		if found {
			quoteID = existing
			metrics.QuotesMaterializedTotal.WithLabelValues("deduplicated").Inc()
			return nil
		}

		sourceID, err := tx.FindOrCreateSource(ctx, defaultTitle(p.SourceTitle), p.Author, NormalizeSourceType(p.SourceType))
		if err != nil {
			return fmt.Errorf("resolving source: %w", err)
		}

		quoteID, err = tx.CreateQuote(ctx, sourceID, p.UserID, p.Content)
		if err != nil {
			return fmt.Errorf("creating quote: %w", err)
		}
		if len(p.Tags) > 0 {
			if err := tx.AttachTags(ctx, quoteID, p.Tags); err != nil {
				return fmt.Errorf("attaching tags: %w", err)
			}
		}
		metrics.QuotesMaterializedTotal.WithLabelValues("created").Inc()
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", p.UserID).Msg("Materialization failed")
		return 0, fmt.Errorf("materialize: %w", err)
	}

	return quoteID, nil
}

// NormalizeSourceType maps arbitrary model output onto the fixed
// allow-list, defaulting to the catch-all category.
func NormalizeSourceType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if models.ValidSourceType(t) {
		return t
	}
	return models.SourceTypeOther
}

func defaultTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Unknown"
	}
	return title
}
