// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/epigraphlabs/epigraph/internal/config"
)

type mockGenerator struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (g *mockGenerator) Generate(ctx context.Context, prompt string, temperature float64, structured bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.response, g.err
}

func (g *mockGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// mockEnricher derives deterministic results from the title so tests
// can verify positional re-association. Titles in failTitles error;
// titles in delays complete late.
type mockEnricher struct {
	failTitles map[string]bool
	delays     map[string]time.Duration
}

func (m *mockEnricher) Enrich(ctx context.Context, title, author string) (string, string, error) {
	if d, ok := m.delays[title]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}
	if m.failTitles[title] {
		return "", "", context.DeadlineExceeded
	}
	return "cover:" + title, "link:" + title, nil
}

func testEngine(gen Generator, enr Enricher) *Engine {
	cfg := config.RecommendConfig{
		PoolSize:        5,
		MaxCount:        10,
		CacheTTL:        time.Hour,
		GenerateTimeout: 2 * time.Second,
		EnrichTimeout:   200 * time.Millisecond,
	}
	e := NewEngine(gen, enr, NewPoolCache(), cfg, 0.9)
	fixed := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }
	return e
}

func fiveQuotePool() string {
	items := make([]string, 5)
	for i := range items {
		items[i] = fmt.Sprintf(`{"content":"명언 %d","source_title":"책 %d","author":"저자 %d","source_type":"book","tags":["철학"]}`, i+1, i+1, i+1)
	}
	return "```json\n[" + strings.Join(items, ",") + "]\n```"
}

func TestGetRecommendationsScenario(t *testing.T) {
	// Fenced 5-item pool, desiredCount=3: exactly 3 enriched items
	// with unique ids among {-1,-2,-3}, and the second identical call
	// must not re-invoke the generator.
	gen := &mockGenerator{response: fiveQuotePool()}
	e := testEngine(gen, &mockEnricher{})

	req := Request{Topic: TopicBook, Count: 3, UserContext: "philosophy"}
	got, err := e.GetRecommendations(context.Background(), req)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}

	seen := make(map[int64]bool)
	for _, rec := range got {
		if rec.EphemeralID >= 0 {
			t.Errorf("ephemeral id must be negative, got %d", rec.EphemeralID)
		}
		if rec.EphemeralID < -3 {
			t.Errorf("ephemeral id out of band for batch of 3: %d", rec.EphemeralID)
		}
		if seen[rec.EphemeralID] {
			t.Errorf("duplicate ephemeral id %d", rec.EphemeralID)
		}
		seen[rec.EphemeralID] = true

		if rec.CoverURL != "cover:"+rec.SourceTitle {
			t.Errorf("cover %q not associated with its item %q", rec.CoverURL, rec.SourceTitle)
		}
	}

	if _, err := e.GetRecommendations(context.Background(), req); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if gen.callCount() != 1 {
		t.Errorf("expected 1 generation call across cached requests, got %d", gen.callCount())
	}

	req.BypassCache = true
	if _, err := e.GetRecommendations(context.Background(), req); err != nil {
		t.Fatalf("bypass call: %v", err)
	}
	if gen.callCount() != 2 {
		t.Errorf("expected bypass to force a new generation call, got %d", gen.callCount())
	}
}

func TestGetRecommendationsDistinctContextsDistinctPools(t *testing.T) {
	gen := &mockGenerator{response: fiveQuotePool()}
	e := testEngine(gen, &mockEnricher{})

	for _, ctxStr := range []string{"philosophy", "romance"} {
		if _, err := e.GetRecommendations(context.Background(), Request{Topic: TopicBook, Count: 2, UserContext: ctxStr}); err != nil {
			t.Fatalf("GetRecommendations(%q): %v", ctxStr, err)
		}
	}
	if gen.callCount() != 2 {
		t.Errorf("expected one generation per context fingerprint, got %d", gen.callCount())
	}
}

func TestGetRecommendationsValidation(t *testing.T) {
	gen := &mockGenerator{response: fiveQuotePool()}
	e := testEngine(gen, &mockEnricher{})

	tests := []Request{
		{Topic: "poem", Count: 3},
		{Topic: TopicBook, Count: 0},
		{Topic: "", Count: 3},
	}
	for _, req := range tests {
		if _, err := e.GetRecommendations(context.Background(), req); err == nil {
			t.Errorf("expected validation error for %+v", req)
		}
	}
	// Rejected before any network call.
	if gen.callCount() != 0 {
		t.Errorf("expected no generation calls for invalid input, got %d", gen.callCount())
	}
}

func TestGetRecommendationsGenerationFailure(t *testing.T) {
	gen := &mockGenerator{err: errors.New("quota exceeded")}
	e := testEngine(gen, &mockEnricher{})

	got, err := e.GetRecommendations(context.Background(), Request{Topic: TopicBook, Count: 3})
	if err != nil {
		t.Fatalf("upstream failure must not surface as error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list on generation failure, got %d items", len(got))
	}
}

func TestGetRecommendationsDecodeFailure(t *testing.T) {
	gen := &mockGenerator{response: "I'm sorry, I can't produce JSON today."}
	e := testEngine(gen, &mockEnricher{})

	got, err := e.GetRecommendations(context.Background(), Request{Topic: TopicBook, Count: 3})
	if err != nil {
		t.Fatalf("decode failure must not surface as error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list on decode failure, got %d items", len(got))
	}
	// The unusable output must not be cached.
	if e.cache.Len() != 0 {
		t.Errorf("expected nothing cached after decode failure, got %d entries", e.cache.Len())
	}
}

func TestGetRelatedTimeoutDegradesSingleItem(t *testing.T) {
	// Item 2 of 3 times out: it degrades to empty cover/link while
	// items 1 and 3 stay populated, all three in original order.
	gen := &mockGenerator{response: `[
		{"content":"하나","source_title":"A","author":"a"},
		{"content":"둘","source_title":"B","author":"b"},
		{"content":"셋","source_title":"C","author":"c"}
	]`}
	enr := &mockEnricher{delays: map[string]time.Duration{"B": time.Second}}
	e := testEngine(gen, enr)

	got, err := e.GetRelated(context.Background(), "씨앗 문장", 3)
	if err != nil {
		t.Fatalf("GetRelated: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}

	wantTitles := []string{"A", "B", "C"}
	for i, rec := range got {
		if rec.SourceTitle != wantTitles[i] {
			t.Errorf("item %d: order not preserved, got title %q", i, rec.SourceTitle)
		}
	}
	if got[1].CoverURL != "" || got[1].Link != "" {
		t.Errorf("timed-out item must have empty enrichment, got cover=%q link=%q", got[1].CoverURL, got[1].Link)
	}
	for _, i := range []int{0, 2} {
		if got[i].CoverURL == "" || got[i].Link == "" {
			t.Errorf("item %d should be enriched, got cover=%q link=%q", i, got[i].CoverURL, got[i].Link)
		}
	}
}

func TestGetRelatedIDBand(t *testing.T) {
	gen := &mockGenerator{response: `[{"content":"하나","source_title":"A"},{"content":"둘","source_title":"B"}]`}
	e := testEngine(gen, &mockEnricher{})

	got, err := e.GetRelated(context.Background(), "seed", 2)
	if err != nil {
		t.Fatalf("GetRelated: %v", err)
	}
	want := []int64{-1000, -1001}
	for i, rec := range got {
		if rec.EphemeralID != want[i] {
			t.Errorf("item %d: expected id %d, got %d", i, want[i], rec.EphemeralID)
		}
	}
}

func TestGetRelatedInputValidation(t *testing.T) {
	gen := &mockGenerator{response: "[]"}
	e := testEngine(gen, &mockEnricher{})

	if _, err := e.GetRelated(context.Background(), "   ", 3); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := e.GetRelated(context.Background(), "seed", 0); err == nil {
		t.Error("expected error for non-positive count")
	}
	if gen.callCount() != 0 {
		t.Errorf("expected no generation calls for invalid input, got %d", gen.callCount())
	}
}

func TestEnrichAllReverseCompletionPreservesAssociation(t *testing.T) {
	// Enrichment completes in reverse order; results must still land
	// at their originating index.
	items := []RawCandidate{
		{SourceTitle: "first", Content: "1"},
		{SourceTitle: "second", Content: "2"},
		{SourceTitle: "third", Content: "3"},
	}
	enr := &mockEnricher{delays: map[string]time.Duration{
		"first":  60 * time.Millisecond,
		"second": 30 * time.Millisecond,
		"third":  0,
	}}
	e := testEngine(&mockGenerator{}, enr)

	results := e.enrichAll(context.Background(), items)
	for i, item := range items {
		if results[i].coverURL != "cover:"+item.SourceTitle {
			t.Errorf("index %d: got %q, want cover:%s", i, results[i].coverURL, item.SourceTitle)
		}
	}
}

func TestDailyQuoteCachesPerDay(t *testing.T) {
	gen := &mockGenerator{response: `{"content":"오늘의 문장","source_title":"어떤 책","author":"작가","source_type":"book","tags":["아침"]}`}
	e := testEngine(gen, &mockEnricher{})

	first := e.DailyQuote(context.Background(), TopicBook)
	second := e.DailyQuote(context.Background(), TopicBook)

	if first.Content != "오늘의 문장" || second.Content != first.Content {
		t.Errorf("unexpected daily quotes: %q / %q", first.Content, second.Content)
	}
	if gen.callCount() != 1 {
		t.Errorf("expected 1 generation call for same day, got %d", gen.callCount())
	}
	if first.EphemeralID >= 0 {
		t.Errorf("daily quote id must be negative, got %d", first.EphemeralID)
	}
}

func TestDailyQuoteFallbackNotCached(t *testing.T) {
	gen := &mockGenerator{err: errors.New("unavailable")}
	e := testEngine(gen, &mockEnricher{})

	got := e.DailyQuote(context.Background(), TopicBook)
	if got.Content == "" {
		t.Fatal("expected static fallback quote")
	}
	if got.Author != "나짐 히크메트" {
		t.Errorf("unexpected fallback author %q", got.Author)
	}

	// A later call retries generation instead of serving the fallback
	// from cache.
	e.DailyQuote(context.Background(), TopicBook)
	if gen.callCount() != 2 {
		t.Errorf("expected fallback to stay uncached, got %d generation calls", gen.callCount())
	}
}

func TestRecommendBooks(t *testing.T) {
	gen := &mockGenerator{response: `[
		{"title":"데미안","author":"헤르만 헤세","reason":"자아를 찾는 여정"},
		{"title":"참을 수 없는 존재의 가벼움","author":"밀란 쿤데라","reason":"존재에 대한 사유"}
	]`}
	e := testEngine(gen, &mockEnricher{})

	books := e.RecommendBooks(context.Background(), "성장 소설", false)
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].Title != "데미안" || books[0].Reason != "자아를 찾는 여정" {
		t.Errorf("unexpected first book: %+v", books[0])
	}
	if books[0].CoverURL != "cover:데미안" || books[0].Link != "link:데미안" {
		t.Errorf("expected enrichment on first book, got %+v", books[0])
	}

	e.RecommendBooks(context.Background(), "성장 소설", false)
	if gen.callCount() != 1 {
		t.Errorf("expected cached book pool, got %d generation calls", gen.callCount())
	}

	e.RecommendBooks(context.Background(), "성장 소설", true)
	if gen.callCount() != 2 {
		t.Errorf("expected bypass to regenerate, got %d generation calls", gen.callCount())
	}
}

func TestSamplePoolWithoutReplacement(t *testing.T) {
	pool := make([]RawCandidate, 10)
	for i := range pool {
		pool[i] = RawCandidate{Content: fmt.Sprintf("q%d", i)}
	}

	picked := samplePool(pool, 4)
	if len(picked) != 4 {
		t.Fatalf("expected 4 items, got %d", len(picked))
	}
	seen := make(map[string]bool)
	for _, c := range picked {
		if seen[c.Content] {
			t.Errorf("duplicate item %q in sample", c.Content)
		}
		seen[c.Content] = true
	}

	// k larger than the pool returns everything once.
	all := samplePool(pool, 50)
	if len(all) != len(pool) {
		t.Errorf("expected whole pool, got %d", len(all))
	}
}

func TestToRecommendationDefaults(t *testing.T) {
	rec := toRecommendation(RawCandidate{Content: "본문", Tags: []string{"태그", ""}}, -1, "drama")
	if rec.SourceTitle != "Unknown" || rec.Author != "Unknown" {
		t.Errorf("expected defaulted fields, got %+v", rec)
	}
	if rec.SourceType != "drama" {
		t.Errorf("expected default source type drama, got %q", rec.SourceType)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != (TagRef{ID: -1, Name: "태그"}) {
		t.Errorf("unexpected tags: %+v", rec.Tags)
	}
}

func TestHeadOfRuneSafe(t *testing.T) {
	in := strings.Repeat("가", 10)
	got := headOf(in, 4)
	if got != "가가가가..." {
		t.Errorf("expected four runes plus ellipsis, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: %q", got)
	}
	if short := headOf("짧다", 10); short != "짧다" {
		t.Errorf("short input must pass through, got %q", short)
	}
}
