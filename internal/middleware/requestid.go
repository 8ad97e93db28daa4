// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package middleware holds the HTTP middleware shared by every route:
// request correlation IDs, request logging and Prometheus
// instrumentation.
package middleware

import (
	"net/http"

	"github.com/epigraphlabs/epigraph/internal/logging"
)

// RequestIDHeader is the wire header carrying the correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a correlation ID to the request context and the
// response. An inbound header value is trusted and propagated so
// multi-hop traces stay connected; otherwise a fresh UUID is minted.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
