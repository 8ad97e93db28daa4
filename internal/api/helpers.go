// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/models"
	"github.com/epigraphlabs/epigraph/internal/validation"
)

// Stable machine-readable error codes exposed in the envelope.
const (
	codeValidation = "validation_error"
	codeBadRequest = "bad_request"
	codeNotFound   = "not_found"
	codeInternal   = "internal_error"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
		},
	}
	resp.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	writeEnvelope(w, r, status, resp)
}

func respondPage(w http.ResponseWriter, r *http.Request, data any, page models.Pagination) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
			Page:      &page,
		},
	}
	resp.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	writeEnvelope(w, r, http.StatusOK, resp)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
		},
	}
	resp.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	writeEnvelope(w, r, status, resp)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeBody unmarshals and validates a JSON request body. It writes
// the error response itself and reports whether the caller may
// proceed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "invalid JSON body", nil)
		return false
	}
	if err := validation.Struct(v); err != nil {
		var reqErr *validation.RequestError
		if errors.As(err, &reqErr) {
			respondError(w, r, http.StatusBadRequest, codeValidation, "request validation failed", reqErr.Fields)
		} else {
			respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		}
		return false
	}
	return true
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
