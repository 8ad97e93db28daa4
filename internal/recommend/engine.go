// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/epigraphlabs/epigraph/internal/config"
	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/metrics"
	"github.com/epigraphlabs/epigraph/internal/validation"
)

// Identifier band for related/chained batches, kept apart from the
// -1..-k band of general batches so the two are distinguishable when
// compared.
const relatedIDOffset = -1000

// bookCount matches the 3:2 mixture ratio the book prompt encodes.
const bookCount = 5

// Engine orchestrates prompt construction, generation, decoding, pool
// caching, sampling, concurrent enrichment and ephemeral ID
// assignment. All upstream failures are absorbed: the engine returns
// reduced or empty output, never an error, except for invalid input
// which is rejected before any network call.
type Engine struct {
	gen         Generator
	enricher    Enricher
	cache       *PoolCache
	cfg         config.RecommendConfig
	temperature float64
	logger      zerolog.Logger

	// now is swapped in tests to pin the time bucket.
	now func() time.Time
}

// NewEngine wires the engine. cache may be shared with the supervision
// tree's janitor service.
func NewEngine(gen Generator, enricher Enricher, cache *PoolCache, cfg config.RecommendConfig, temperature float64) *Engine {
	return &Engine{
		gen:         gen,
		enricher:    enricher,
		cache:       cache,
		cfg:         cfg,
		temperature: temperature,
		logger:      logging.With().Str("component", "recommend").Logger(),
		now:         time.Now,
	}
}

// GetRecommendations returns up to req.Count enriched candidates for
// the topic. Pools are cached per (topic, hour, context fingerprint)
// and sampled without replacement, so repeated calls within the hour
// see variety from one generation. Ephemeral IDs are -1..-k in
// returned order.
func (e *Engine) GetRecommendations(ctx context.Context, req Request) ([]Recommendation, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	bucket := e.now().UTC().Format("2006-01-02-15")
	key := poolKey(req.Topic, bucket, contextFingerprint(req.UserContext))

	var pool []RawCandidate
	if !req.BypassCache {
		if cached, ok := e.cache.Get(key); ok {
			metrics.PoolCacheHitsTotal.Inc()
			pool = cached
		}
	}
	if pool == nil {
		metrics.PoolCacheMissesTotal.Inc()
		poolSize := e.cfg.PoolSize
		if req.Count > poolSize {
			poolSize = req.Count
		}
		pool = e.generatePool(ctx, quotePrompt(poolSize, req.UserContext, req.Topic))
		if len(pool) == 0 {
			return []Recommendation{}, nil
		}
		e.cache.Set(key, pool, e.cfg.CacheTTL)
	}

	selected := samplePool(pool, req.Count)
	enrichments := e.enrichAll(ctx, selected)

	out := make([]Recommendation, len(selected))
	for i, c := range selected {
		rec := toRecommendation(c, -int64(i+1), string(req.Topic))
		rec.CoverURL = enrichments[i].coverURL
		rec.Link = enrichments[i].link
		out[i] = rec
	}
	return out, nil
}

// GetRelated returns up to count quotes chained off content. Each call
// is a fresh generation since the seed varies per call; there is no
// pool cache. Ephemeral IDs occupy the -1000-i band.
func (e *Engine) GetRelated(ctx context.Context, content string, count int) ([]Recommendation, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("related: content must not be empty")
	}
	if count < 1 {
		return nil, fmt.Errorf("related: count must be positive, got %d", count)
	}

	candidates := e.generatePool(ctx, relatedPrompt(content, count))
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	enrichments := e.enrichAll(ctx, candidates)

	out := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		rec := toRecommendation(c, int64(relatedIDOffset-i), "book")
		rec.CoverURL = enrichments[i].coverURL
		rec.Link = enrichments[i].link
		out[i] = rec
	}
	return out, nil
}

// DailyQuote returns one widely recognized quote for the calendar day,
// cached per (topic, day). Generation failure falls back to a static
// quote, which is not cached so a later call can still recover.
func (e *Engine) DailyQuote(ctx context.Context, topic Topic) Recommendation {
	day := e.now().UTC().Format("2006-01-02")
	key := dailyKey(topic, day)

	if cached, ok := e.cache.Get(key); ok && len(cached) > 0 {
		metrics.PoolCacheHitsTotal.Inc()
		return toRecommendation(cached[0], -1, string(topic))
	}
	metrics.PoolCacheMissesTotal.Inc()

	candidates := e.generatePool(ctx, dailyPrompt(topic, day))
	if len(candidates) == 0 {
		return toRecommendation(fallbackDailyQuote(topic), -1, string(topic))
	}

	e.cache.Set(key, candidates[:1], 24*time.Hour)
	return toRecommendation(candidates[0], -1, string(topic))
}

// RecommendBooks returns whole-work suggestions from the book curator
// prompt, enriched with catalog covers and links. The decoded pool is
// cached hourly per context fingerprint.
func (e *Engine) RecommendBooks(ctx context.Context, userContext string, bypassCache bool) []BookRecommendation {
	bucket := e.now().UTC().Format("2006-01-02-15")
	key := bookKey(bucket, contextFingerprint(userContext))

	var pool []RawCandidate
	if !bypassCache {
		if cached, ok := e.cache.Get(key); ok {
			metrics.PoolCacheHitsTotal.Inc()
			pool = cached
		}
	}
	if pool == nil {
		metrics.PoolCacheMissesTotal.Inc()
		pool = e.generateBookPool(ctx, bookPrompt(bookCount, userContext))
		if len(pool) == 0 {
			return []BookRecommendation{}
		}
		e.cache.Set(key, pool, e.cfg.CacheTTL)
	}

	enrichments := e.enrichAll(ctx, pool)

	out := make([]BookRecommendation, len(pool))
	for i, c := range pool {
		out[i] = BookRecommendation{
			Title:    c.SourceTitle,
			Author:   c.Author,
			Reason:   c.Content,
			CoverURL: enrichments[i].coverURL,
			Link:     enrichments[i].link,
		}
	}
	return out
}

// generatePool runs one generation call and decodes the output into
// candidates. Every failure mode degrades to an empty pool.
func (e *Engine) generatePool(ctx context.Context, prompt string) []RawCandidate {
	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	raw, err := e.gen.Generate(genCtx, prompt, e.temperature, true)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Generation failed, degrading to empty pool")
		return nil
	}

	candidates, ok := DecodeCandidates(raw)
	if !ok {
		metrics.DecodeFailuresTotal.Inc()
		e.logger.Warn().Str("raw", headOf(raw, 200)).Msg("Generation output failed to decode")
		return nil
	}

	// The model occasionally pads the list with empty stubs.
	kept := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Content) != "" {
			kept = append(kept, c)
		}
	}
	return kept
}

// bookItem is the wire shape of the book curator prompt; it is mapped
// onto RawCandidate (reason travels in Content) so book pools share
// the candidate cache.
type bookItem struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

func (e *Engine) generateBookPool(ctx context.Context, prompt string) []RawCandidate {
	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	raw, err := e.gen.Generate(genCtx, prompt, e.temperature, true)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Book generation failed, degrading to empty pool")
		return nil
	}

	var items []bookItem
	if !Decode(raw, &items) {
		metrics.DecodeFailuresTotal.Inc()
		e.logger.Warn().Str("raw", headOf(raw, 200)).Msg("Book output failed to decode")
		return nil
	}

	pool := make([]RawCandidate, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		pool = append(pool, RawCandidate{
			SourceTitle: it.Title,
			Author:      it.Author,
			Content:     it.Reason,
			SourceType:  "book",
		})
	}
	return pool
}

type enrichment struct {
	coverURL string
	link     string
}

// enrichAll fans the items out concurrently, one lookup each, bounded
// by the per-item timeout. Results are re-associated by index, never by
// completion order, and a failed lookup degrades that item to empty
// fields without touching its siblings.
func (e *Engine) enrichAll(ctx context.Context, items []RawCandidate) []enrichment {
	results := make([]enrichment, len(items))
	if e.enricher == nil {
		return results
	}

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, title, author string) {
			defer wg.Done()
			itemCtx, cancel := context.WithTimeout(ctx, e.cfg.EnrichTimeout)
			defer cancel()

			coverURL, link, err := e.enricher.Enrich(itemCtx, title, author)
			if err != nil {
				e.logger.Debug().Err(err).Str("title", title).Msg("Enrichment failed for item")
				return
			}
			results[i] = enrichment{coverURL: coverURL, link: link}
		}(i, item.SourceTitle, item.Author)
	}
	wg.Wait()
	return results
}

// samplePool picks min(k, len(pool)) items without replacement,
// shuffled, so repeated calls within one time bucket see variety.
func samplePool(pool []RawCandidate, k int) []RawCandidate {
	if k > len(pool) {
		k = len(pool)
	}
	picked := make([]RawCandidate, 0, k)
	for _, idx := range rand.Perm(len(pool))[:k] {
		picked = append(picked, pool[idx])
	}
	return picked
}

// toRecommendation defaults the untrusted candidate fields and assigns
// ephemeral identifiers to the item and its tags.
func toRecommendation(c RawCandidate, id int64, defaultType string) Recommendation {
	sourceType := c.SourceType
	if sourceType == "" {
		sourceType = defaultType
	}
	title := c.SourceTitle
	if title == "" {
		title = "Unknown"
	}
	author := c.Author
	if author == "" {
		author = "Unknown"
	}

	tags := make([]TagRef, 0, len(c.Tags))
	for i, name := range c.Tags {
		if name == "" {
			continue
		}
		tags = append(tags, TagRef{ID: -int64(i + 1), Name: name})
	}

	return Recommendation{
		EphemeralID: id,
		Content:     c.Content,
		SourceTitle: title,
		Author:      author,
		SourceType:  sourceType,
		Tags:        tags,
	}
}

func fallbackDailyQuote(topic Topic) RawCandidate {
	return RawCandidate{
		Content:     "가장 훌륭한 시는 아직 쓰여지지 않았다.",
		SourceTitle: "나짐 히크메트 시집",
		Author:      "나짐 히크메트",
		SourceType:  string(topic),
		Tags:        []string{"희망", "시"},
	}
}

// headOf truncates on rune boundaries; model output is mostly Korean.
func headOf(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
