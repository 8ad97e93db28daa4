// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package services

import (
	"context"
	"time"

	"github.com/epigraphlabs/epigraph/internal/recommend"
)

// JanitorService runs the pool cache cleanup loop under supervision.
type JanitorService struct {
	cache    *recommend.PoolCache
	interval time.Duration
}

// NewJanitorService wraps the cleanup loop of cache.
func NewJanitorService(cache *recommend.PoolCache, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JanitorService{cache: cache, interval: interval}
}

// Serve implements suture.Service; it blocks until ctx is done.
func (s *JanitorService) Serve(ctx context.Context) error {
	s.cache.Janitor(ctx, s.interval)
	return ctx.Err()
}

func (s *JanitorService) String() string { return "pool-cache-janitor" }
