// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package api exposes the HTTP surface: the recommendation endpoints,
// quote materialization and the thin library CRUD around them.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/epigraphlabs/epigraph/internal/config"
	"github.com/epigraphlabs/epigraph/internal/database"
	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/materialize"
	"github.com/epigraphlabs/epigraph/internal/models"
	"github.com/epigraphlabs/epigraph/internal/recommend"
)

// Recommender is the engine surface the handlers call. Satisfied by
// *recommend.Engine.
type Recommender interface {
	GetRecommendations(ctx context.Context, req recommend.Request) ([]recommend.Recommendation, error)
	GetRelated(ctx context.Context, content string, count int) ([]recommend.Recommendation, error)
	DailyQuote(ctx context.Context, topic recommend.Topic) recommend.Recommendation
	RecommendBooks(ctx context.Context, userContext string, bypassCache bool) []recommend.BookRecommendation
}

// Materializer promotes ephemeral payloads into durable quotes.
// Satisfied by *materialize.Service.
type Materializer interface {
	EnsureDurable(ctx context.Context, p materialize.Payload) (int64, error)
}

// Library is the persistence surface of the read endpoints and
// bookmark toggling. Satisfied by *database.DB.
type Library interface {
	recommend.LibraryReader
	GetQuote(ctx context.Context, id int64) (*models.Quote, error)
	ListQuotes(ctx context.Context, userID int64, offset, limit int) ([]models.Quote, int, error)
	PopularQuotes(ctx context.Context, limit int) ([]models.Quote, error)
	ToggleBookmark(ctx context.Context, userID, quoteID int64) (bool, error)
	Health(ctx context.Context) error
}

// Handlers carries the wired dependencies of every endpoint.
type Handlers struct {
	engine       Recommender
	library      Library
	materializer Materializer
	cfg          *config.Config
	logger       zerolog.Logger
}

// NewHandlers wires the endpoint set.
func NewHandlers(engine Recommender, library Library, materializer Materializer, cfg *config.Config) *Handlers {
	return &Handlers{
		engine:       engine,
		library:      library,
		materializer: materializer,
		cfg:          cfg,
		logger:       logging.With().Str("component", "api").Logger(),
	}
}

// Health reports liveness including database reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if err := h.library.Health(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, status)
}

// GetRecommendations returns enriched quote candidates for a topic. An
// empty data list is a valid response; callers apply their own
// fallback (see GET /quotes/popular).
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := int64(queryInt(r, "user_id", database.DefaultUserID))

	req := recommend.Request{
		Topic:       recommend.Topic(r.URL.Query().Get("topic")),
		Count:       clamp(queryInt(r, "count", 3), 1, h.cfg.Recommend.MaxCount),
		BypassCache: queryBool(r, "bypass_cache"),
		UserContext: recommend.BuildUserContext(r.Context(), h.library, userID),
	}
	if req.Topic == "" {
		req.Topic = recommend.TopicBook
	}

	recs, err := h.engine.GetRecommendations(r.Context(), req)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	respondJSON(w, r, http.StatusOK, recs)
}

// GetRelated returns quotes chained off the content the user is
// currently reading.
func (h *Handlers) GetRelated(w http.ResponseWriter, r *http.Request) {
	content := r.URL.Query().Get("content")
	count := clamp(queryInt(r, "count", 3), 1, h.cfg.Recommend.MaxCount)

	recs, err := h.engine.GetRelated(r.Context(), content, count)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	respondJSON(w, r, http.StatusOK, recs)
}

// GetDaily returns the quote of the day for a topic.
func (h *Handlers) GetDaily(w http.ResponseWriter, r *http.Request) {
	topic := recommend.Topic(r.URL.Query().Get("topic"))
	switch topic {
	case recommend.TopicBook, recommend.TopicMovie, recommend.TopicDrama:
	case "":
		topic = recommend.TopicBook
	default:
		respondError(w, r, http.StatusBadRequest, codeValidation, "topic must be one of: book, movie, drama", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, h.engine.DailyQuote(r.Context(), topic))
}

// GetBooks returns whole-work suggestions from the book curator flow.
func (h *Handlers) GetBooks(w http.ResponseWriter, r *http.Request) {
	userID := int64(queryInt(r, "user_id", database.DefaultUserID))
	userContext := recommend.BuildUserContext(r.Context(), h.library, userID)
	books := h.engine.RecommendBooks(r.Context(), userContext, queryBool(r, "bypass_cache"))
	respondJSON(w, r, http.StatusOK, books)
}

// MaterializeQuote promotes an ephemeral recommendation into a durable
// quote and returns its id.
func (h *Handlers) MaterializeQuote(w http.ResponseWriter, r *http.Request) {
	var payload materialize.Payload
	if !decodeBody(w, r, &payload) {
		return
	}

	quoteID, err := h.materializer.EnsureDurable(r.Context(), payload)
	if err != nil {
		h.logger.Error().Err(err).Msg("Materialization failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to save quote", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int64{"quote_id": quoteID})
}

// ToggleBookmark flips the bookmark for a quote. A payload carrying an
// ephemeral (non-positive) id is materialized first, so bookmarking an
// AI suggestion both persists and marks it in one call.
func (h *Handlers) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	var payload materialize.Payload
	if !decodeBody(w, r, &payload) {
		return
	}

	quoteID := payload.QuoteID
	if quoteID <= 0 {
		var err error
		quoteID, err = h.materializer.EnsureDurable(r.Context(), payload)
		if err != nil {
			h.logger.Error().Err(err).Msg("Materialization before bookmark failed")
			respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to save quote", nil)
			return
		}
	}

	bookmarked, err := h.library.ToggleBookmark(r.Context(), payload.UserID, quoteID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "quote not found", nil)
			return
		}
		h.logger.Error().Err(err).Int64("quote_id", quoteID).Msg("Bookmark toggle failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to toggle bookmark", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"quote_id":   quoteID,
		"bookmarked": bookmarked,
	})
}

// PopularQuotes lists the most-bookmarked quotes, the fallback callers
// use when the engine returns empty.
func (h *Handlers) PopularQuotes(w http.ResponseWriter, r *http.Request) {
	limit := clamp(queryInt(r, "limit", h.cfg.API.DefaultPageSize), 1, h.cfg.API.MaxPageSize)

	quotes, err := h.library.PopularQuotes(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Popular quotes query failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to list popular quotes", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, quotes)
}

// GetQuote returns a single durable quote.
func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "id must be a positive integer", nil)
		return
	}

	quote, err := h.library.GetQuote(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "quote not found", nil)
			return
		}
		h.logger.Error().Err(err).Int64("quote_id", id).Msg("Quote lookup failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to load quote", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, quote)
}

// ListQuotes returns a page of the user's quotes, newest first.
func (h *Handlers) ListQuotes(w http.ResponseWriter, r *http.Request) {
	userID := int64(queryInt(r, "user_id", database.DefaultUserID))
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := clamp(queryInt(r, "limit", h.cfg.API.DefaultPageSize), 1, h.cfg.API.MaxPageSize)

	quotes, total, err := h.library.ListQuotes(r.Context(), userID, offset, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Quote list query failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to list quotes", nil)
		return
	}
	respondPage(w, r, quotes, models.Pagination{Offset: offset, Limit: limit, Total: total})
}
