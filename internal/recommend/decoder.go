// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import (
	"strings"

	json "github.com/goccy/go-json"
)

// ExtractJSON pulls the JSON payload out of model free text. Models
// routinely wrap their output in markdown fences or surround it with
// prose despite instructions not to; this slices out the span between
// the first '[' and last ']' when an array is present, otherwise the
// first '{' and last '}'. It returns ok=false when no such span
// exists. The result is not guaranteed to parse; it is only the best
// available slice.
func ExtractJSON(text string) (string, bool) {
	spans := candidateSpans(text)
	if len(spans) == 0 {
		return "", false
	}
	return spans[0], true
}

// candidateSpans returns the plausible JSON spans of the text, array
// slice first. Both are offered because a bare object with an
// array-valued field (tags, say) puts a '['..']' span inside the
// object, and slicing that out alone would lose the object.
func candidateSpans(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	var spans []string
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start != -1 && start < end {
		spans = append(spans, text[start:end+1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && start < end {
		spans = append(spans, text[start:end+1])
	}
	return spans
}

// Decode extracts the embedded JSON from raw model output and
// unmarshals it into v, trying the array span before the enclosing
// object span. It never panics; any failure reports false and callers
// treat that as "no candidates".
func Decode(raw string, v any) bool {
	for _, payload := range candidateSpans(raw) {
		if json.Unmarshal([]byte(payload), v) == nil {
			return true
		}
	}
	return false
}

// DecodeCandidates decodes raw model output into a candidate list. A
// bare object is normalized to a one-element list here at the caller
// level, keeping ExtractJSON shape-agnostic.
func DecodeCandidates(raw string) ([]RawCandidate, bool) {
	var list []RawCandidate
	if Decode(raw, &list) {
		return list, true
	}
	var single RawCandidate
	if Decode(raw, &single) && single.Content != "" {
		return []RawCandidate{single}, true
	}
	return nil, false
}
