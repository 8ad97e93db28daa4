// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import (
	"reflect"
	"testing"
)

const plainArray = `[{"content":"살아있는 동안 살아라","source_title":"그리스인 조르바","author":"니코스 카잔차키스","source_type":"book","tags":["자유"]}]`

func TestExtractJSONFenceEquivalence(t *testing.T) {
	// Wrapped variants must extract the same payload the plain input
	// yields.
	wrapped := []string{
		plainArray,
		"```json\n" + plainArray + "\n```",
		"```\n" + plainArray + "\n```",
		"Here are the quotes you asked for:\n" + plainArray,
		plainArray + "\nI hope these inspire you!",
		"Sure! ```json\n" + plainArray + "\n``` Enjoy.",
	}

	want, ok := ExtractJSON(plainArray)
	if !ok {
		t.Fatal("plain input failed to extract")
	}
	for i, in := range wrapped {
		got, ok := ExtractJSON(in)
		if !ok {
			t.Errorf("variant %d failed to extract", i)
			continue
		}
		if got != want {
			t.Errorf("variant %d extracted %q, want %q", i, got, want)
		}
	}
}

func TestExtractJSONObjectBoundaries(t *testing.T) {
	in := `The quote of the day is {"content":"hello","tags":"none"} as requested.`
	got, ok := ExtractJSON(in)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if got != `{"content":"hello","tags":"none"}` {
		t.Errorf("unexpected slice: %q", got)
	}
}

func TestExtractJSONFailures(t *testing.T) {
	tests := []struct {
		name, in string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"no json", "I cannot answer that."},
		{"unbalanced", "here is [ nothing useful"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ExtractJSON(tt.in); ok {
				t.Errorf("expected extraction failure for %q", tt.in)
			}
		})
	}
}

func TestDecodeCandidatesArray(t *testing.T) {
	got, ok := DecodeCandidates("```json\n" + plainArray + "\n```")
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	want := []RawCandidate{{
		Content:     "살아있는 동안 살아라",
		SourceTitle: "그리스인 조르바",
		Author:      "니코스 카잔차키스",
		SourceType:  "book",
		Tags:        []string{"자유"},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
}

func TestDecodeCandidatesBareObjectNormalized(t *testing.T) {
	got, ok := DecodeCandidates(`{"content":"단 하나의 문장","source_title":"어떤 책","author":"작가"}`)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if len(got) != 1 {
		t.Fatalf("expected bare object normalized to one-element list, got %d", len(got))
	}
	if got[0].Content != "단 하나의 문장" {
		t.Errorf("unexpected content: %q", got[0].Content)
	}
}

func TestDecodeCandidatesBareObjectWithTagsArray(t *testing.T) {
	// The array-valued tags field puts a '['..']' span inside the
	// object; decoding must recover the whole object, not the tags.
	raw := `{"content":"오늘의 문장","source_title":"어떤 책","author":"작가","source_type":"book","tags":["아침","시작"]}`
	got, ok := DecodeCandidates(raw)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %d", len(got))
	}
	if got[0].Content != "오늘의 문장" {
		t.Errorf("unexpected content: %q", got[0].Content)
	}
	if !reflect.DeepEqual(got[0].Tags, []string{"아침", "시작"}) {
		t.Errorf("unexpected tags: %v", got[0].Tags)
	}
}

func TestDecodeCandidatesCorruptJSON(t *testing.T) {
	if _, ok := DecodeCandidates(`[{"content": "truncated...`); ok {
		t.Error("expected decode failure on corrupt JSON")
	}
	if _, ok := DecodeCandidates(""); ok {
		t.Error("expected decode failure on empty input")
	}
}

func TestDecodeIntoArbitraryShape(t *testing.T) {
	var items []bookItem
	raw := "```json\n[{\"title\":\"데미안\",\"author\":\"헤세\",\"reason\":\"성장\"}]\n```"
	if !Decode(raw, &items) {
		t.Fatal("expected decode to succeed")
	}
	if len(items) != 1 || items[0].Title != "데미안" {
		t.Errorf("unexpected items: %+v", items)
	}
}
