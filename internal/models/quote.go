// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package models defines the persistent domain types and the shared
// API response envelope.
package models

import "time"

// Source type values accepted by the materializer. Anything outside
// this set is stored as SourceTypeOther.
const (
	SourceTypeBook   = "book"
	SourceTypeMovie  = "movie"
	SourceTypeDrama  = "drama"
	SourceTypeTV     = "tv"
	SourceTypeSpeech = "speech"
	SourceTypeOther  = "other"
)

// ValidSourceType reports whether t is one of the accepted source
// type values.
func ValidSourceType(t string) bool {
	switch t {
	case SourceTypeBook, SourceTypeMovie, SourceTypeDrama, SourceTypeTV, SourceTypeSpeech, SourceTypeOther:
		return true
	}
	return false
}

// Source is a work quotes are attributed to: a book, film, drama,
// speech, or similar.
type Source struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Type      string    `json:"type"`
	CoverURL  string    `json:"cover_url,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Quote is a saved passage. Persisted quotes carry positive IDs;
// recommendation candidates that have not been saved use negative
// ephemeral IDs and never appear in this type.
type Quote struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	SourceID   int64     `json:"source_id"`
	Content    string    `json:"content"`
	Page       int       `json:"page,omitempty"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Source     *Source   `json:"source,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
	Bookmarked bool      `json:"bookmarked"`
}

// Tag labels quotes for filtering and for building user taste context.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Bookmark marks a quote as a favorite of a user.
type Bookmark struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	QuoteID   int64     `json:"quote_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the owner of a quote library.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
