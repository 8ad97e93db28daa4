// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package metrics registers the service's Prometheus collectors.
// Everything is registered against the default registry via promauto,
// so importing this package is enough to expose the metrics on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "epigraph"

var (
	// HTTPRequestsTotal counts API requests by method, route pattern
	// and response status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency per route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// GenerationCallsTotal counts text generation attempts by outcome
	// (success, error, open_circuit).
	GenerationCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "generation_calls_total",
		Help:      "Text generation calls by outcome.",
	}, []string{"outcome"})

	// GenerationDuration observes end-to-end generation latency.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "generation_duration_seconds",
		Help:      "Text generation call latency.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// DecodeFailuresTotal counts generation outputs that could not be
	// decoded into candidates even after repair.
	DecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recommend",
		Name:      "decode_failures_total",
		Help:      "Generation outputs rejected by the resilient decoder.",
	})

	// PoolCacheHitsTotal and PoolCacheMissesTotal track candidate pool
	// cache effectiveness.
	PoolCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recommend",
		Name:      "pool_cache_hits_total",
		Help:      "Candidate pool cache hits.",
	})
	PoolCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recommend",
		Name:      "pool_cache_misses_total",
		Help:      "Candidate pool cache misses.",
	})

	// EnrichmentCallsTotal counts catalog lookups by outcome
	// (success, miss, error, timeout).
	EnrichmentCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "enrichment_calls_total",
		Help:      "Catalog enrichment lookups by outcome.",
	}, []string{"outcome"})

	// EnrichmentDuration observes per-item catalog lookup latency.
	EnrichmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "enrichment_duration_seconds",
		Help:      "Catalog enrichment lookup latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// CircuitBreakerState exports the generation breaker state
	// (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"name"})

	// QuotesMaterializedTotal counts recommendation candidates saved
	// to the library, split by whether an existing quote was reused.
	QuotesMaterializedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "materialize",
		Name:      "quotes_total",
		Help:      "Materialized quotes by result (created, deduplicated).",
	}, []string{"result"})
)
