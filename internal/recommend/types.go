// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package recommend implements the AI-assisted recommendation engine:
// prompt construction, resilient decoding of model output, time-bucketed
// pool caching, sampling, concurrent enrichment and ephemeral ID
// assignment. Upstream failures never escape the engine; they degrade
// to reduced or empty output.
package recommend

import "context"

// Topic selects the kind of work recommendations are drawn from.
type Topic string

const (
	TopicBook  Topic = "book"
	TopicMovie Topic = "movie"
	TopicDrama Topic = "drama"
)

// Request describes one recommendation batch. Validation failures are
// rejected before any network call.
type Request struct {
	Topic       Topic  `json:"topic" validate:"required,oneof=book movie drama"`
	Count       int    `json:"count" validate:"min=1,max=50"`
	UserContext string `json:"user_context"`
	BypassCache bool   `json:"bypass_cache"`
}

// RawCandidate is the model's unvalidated item shape. Every field may
// be absent or empty and must be defaulted, never trusted.
type RawCandidate struct {
	Content     string   `json:"content"`
	SourceTitle string   `json:"source_title"`
	Author      string   `json:"author"`
	SourceType  string   `json:"source_type"`
	Tags        []string `json:"tags"`
}

// TagRef is a tag on a not-yet-persisted recommendation. IDs are
// negative and scoped to one response.
type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Recommendation is an enriched candidate ready for transmission.
// EphemeralID is strictly negative and unique within one batch; it is
// never a valid durable identifier.
type Recommendation struct {
	EphemeralID int64    `json:"id"`
	Content     string   `json:"content"`
	SourceTitle string   `json:"source_title"`
	Author      string   `json:"author"`
	SourceType  string   `json:"source_type"`
	Tags        []TagRef `json:"tags"`
	CoverURL    string   `json:"cover_url"`
	Link        string   `json:"link"`
}

// BookRecommendation is a whole-work suggestion from the book curator
// flow, as opposed to a single quote.
type BookRecommendation struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Reason   string `json:"reason"`
	CoverURL string `json:"cover_url"`
	Link     string `json:"link"`
}

// Generator produces free text from a prompt. Implemented by the llm
// package; defined here so the engine stays decoupled from transport.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, structured bool) (string, error)
}

// Enricher looks up cover art and a catalog link for (title, author).
// A miss is not an error: it returns empty or fallback fields with a
// nil error. Implemented by the catalog package.
type Enricher interface {
	Enrich(ctx context.Context, title, author string) (coverURL, link string, err error)
}
