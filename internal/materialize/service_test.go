// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package materialize

import (
	"context"
	"errors"
	"testing"
)

// mockStore runs fn against an in-memory Tx and records whether the
// transaction would have committed or rolled back.
type mockStore struct {
	tx        *mockTx
	rollbacks int
	commits   int
}

func (s *mockStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	before := s.tx.snapshot()
	if err := fn(s.tx); err != nil {
		s.tx.restore(before)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

type txState struct {
	quotes  map[string]int64
	sources map[string]int64
	tags    map[int64][]string
	nextID  int64
}

type mockTx struct {
	txState
	failCreateQuote bool
}

func newMockTx() *mockTx {
	return &mockTx{txState: txState{
		quotes:  make(map[string]int64),
		sources: make(map[string]int64),
		tags:    make(map[int64][]string),
		nextID:  1,
	}}
}

func (t *mockTx) snapshot() txState {
	s := txState{
		quotes:  make(map[string]int64, len(t.quotes)),
		sources: make(map[string]int64, len(t.sources)),
		tags:    make(map[int64][]string, len(t.tags)),
		nextID:  t.nextID,
	}
	for k, v := range t.quotes {
		s.quotes[k] = v
	}
	for k, v := range t.sources {
		s.sources[k] = v
	}
	for k, v := range t.tags {
		s.tags[k] = v
	}
	return s
}

func (t *mockTx) restore(s txState) { t.txState = s }

func (t *mockTx) FindQuoteByExactContent(ctx context.Context, content string) (int64, bool, error) {
	id, ok := t.quotes[content]
	return id, ok, nil
}

func (t *mockTx) FindOrCreateSource(ctx context.Context, title, author, sourceType string) (int64, error) {
	key := title + "|" + author
	if id, ok := t.sources[key]; ok {
		return id, nil
	}
	id := t.nextID
	t.nextID++
	t.sources[key] = id
	return id, nil
}

func (t *mockTx) CreateQuote(ctx context.Context, sourceID, userID int64, content string) (int64, error) {
	if t.failCreateQuote {
		return 0, errors.New("constraint violation")
	}
	id := t.nextID
	t.nextID++
	t.quotes[content] = id
	return id, nil
}

func (t *mockTx) AttachTags(ctx context.Context, quoteID int64, names []string) error {
	t.tags[quoteID] = names
	return nil
}

func TestEnsureDurableIdempotent(t *testing.T) {
	store := &mockStore{tx: newMockTx()}
	svc := NewService(store)

	p := Payload{
		QuoteID:     -2,
		Content:     "살아있는 동안 살아라",
		SourceTitle: "그리스인 조르바",
		Author:      "니코스 카잔차키스",
		SourceType:  "book",
		Tags:        []string{"자유"},
		UserID:      1,
	}

	first, err := svc.EnsureDurable(context.Background(), p)
	if err != nil {
		t.Fatalf("first EnsureDurable: %v", err)
	}
	if first <= 0 {
		t.Fatalf("expected positive durable id, got %d", first)
	}

	second, err := svc.EnsureDurable(context.Background(), p)
	if err != nil {
		t.Fatalf("second EnsureDurable: %v", err)
	}
	if second != first {
		t.Errorf("expected same durable id on repeat, got %d then %d", first, second)
	}
	if len(store.tx.quotes) != 1 {
		t.Errorf("expected exactly one durable quote row, got %d", len(store.tx.quotes))
	}
}

func TestEnsureDurableDurableIDPassesThrough(t *testing.T) {
	store := &mockStore{tx: newMockTx()}
	svc := NewService(store)

	id, err := svc.EnsureDurable(context.Background(), Payload{QuoteID: 42, Content: "x", UserID: 1})
	if err != nil {
		t.Fatalf("EnsureDurable: %v", err)
	}
	if id != 42 {
		t.Errorf("durable id must pass through unchanged, got %d", id)
	}
	if store.commits+store.rollbacks != 0 {
		t.Error("durable id must not open a transaction")
	}
}

func TestEnsureDurableDedupAcrossUsers(t *testing.T) {
	store := &mockStore{tx: newMockTx()}
	svc := NewService(store)

	p := Payload{Content: "같은 문장", SourceTitle: "책", UserID: 1}
	first, err := svc.EnsureDurable(context.Background(), p)
	if err != nil {
		t.Fatalf("EnsureDurable: %v", err)
	}

	p.UserID = 2
	second, err := svc.EnsureDurable(context.Background(), p)
	if err != nil {
		t.Fatalf("EnsureDurable for second user: %v", err)
	}
	if second != first {
		t.Errorf("two users bookmarking the same content must share one row: %d vs %d", first, second)
	}
}

func TestEnsureDurableRollbackOnFailure(t *testing.T) {
	tx := newMockTx()
	tx.failCreateQuote = true
	store := &mockStore{tx: tx}
	svc := NewService(store)

	_, err := svc.EnsureDurable(context.Background(), Payload{Content: "문장", SourceTitle: "책", UserID: 1})
	if err == nil {
		t.Fatal("expected error when quote creation fails")
	}
	if store.rollbacks != 1 {
		t.Errorf("expected one rollback, got %d", store.rollbacks)
	}
	// The source created before the failure must be rolled back too.
	if len(tx.sources) != 0 {
		t.Errorf("source without quote left committed: %v", tx.sources)
	}
}

func TestEnsureDurableInputValidation(t *testing.T) {
	store := &mockStore{tx: newMockTx()}
	svc := NewService(store)

	if _, err := svc.EnsureDurable(context.Background(), Payload{Content: "  ", UserID: 1}); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := svc.EnsureDurable(context.Background(), Payload{Content: "x", UserID: 0}); err == nil {
		t.Error("expected error for missing user id")
	}
}

func TestNormalizeSourceType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"book", "book"},
		{"Movie", "movie"},
		{" DRAMA ", "drama"},
		{"tv", "tv"},
		{"speech", "speech"},
		{"other", "other"},
		{"podcast", "other"},
		{"", "other"},
		{"소설", "other"},
	}
	for _, tt := range tests {
		if got := NormalizeSourceType(tt.in); got != tt.want {
			t.Errorf("NormalizeSourceType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureDurableDefaultsTitle(t *testing.T) {
	store := &mockStore{tx: newMockTx()}
	svc := NewService(store)

	if _, err := svc.EnsureDurable(context.Background(), Payload{Content: "제목 없는 문장", UserID: 1}); err != nil {
		t.Fatalf("EnsureDurable: %v", err)
	}
	if _, ok := store.tx.sources["Unknown|"]; !ok {
		t.Errorf("expected defaulted source title, got %v", store.tx.sources)
	}
}
