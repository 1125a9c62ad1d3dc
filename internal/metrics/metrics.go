// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package metrics provides Prometheus instrumentation for the Intell Weave
// server:
//
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - Ranking pipeline stage timings and fallback activations
//   - Profile cache and vector index efficiency
//   - Embedding service health (circuit breaker state)
//   - Event bus and ingestion throughput
//
// Collectors are registered with the default registry via promauto and exposed
// through the /metrics endpoint.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Ranking pipeline metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of personalized feed requests by serving path",
		},
		[]string{"served_by"}, // "personalized" or "fallback"
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_pipeline_stage_duration_seconds",
			Help:    "Duration of ranking pipeline stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "profile", "retrieve", "score", "rerank", "fallback"
	)

	FallbackActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fallback_activations_total",
			Help: "Total number of fallback feed activations by reason",
		},
		[]string{"reason"}, // "empty_candidates", "retrieval_unavailable", "deadline"
	)

	RetrievalCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_retrieval_candidates_total",
			Help: "Total number of candidates returned per retrieval strategy",
		},
		[]string{"strategy"}, // "vector" or "recency"
	)

	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_retrieval_failures_total",
			Help: "Total number of retrieval strategy failures (including timeouts)",
		},
		[]string{"strategy"},
	)

	// Profile cache metrics
	ProfileCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_cache_hits_total",
			Help: "Total number of user profile cache hits",
		},
	)

	ProfileCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_cache_misses_total",
			Help: "Total number of user profile cache misses",
		},
	)

	// Vector index metrics
	VectorIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vector_index_entries",
			Help: "Current number of article embeddings in the vector index",
		},
	)

	VectorSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vector_search_duration_seconds",
			Help:    "Duration of vector index searches in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// Embedding service metrics
	EmbedderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedder_requests_total",
			Help: "Total number of embedding requests by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "degraded"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of interaction events published to the bus",
		},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of interaction events consumed by subscriber",
		},
		[]string{"subscriber"}, // "writer" or "popularity"
	)

	EventBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_write_batch_size",
			Help:    "Number of events per storage write batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		},
	)

	EventWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_write_failures_total",
			Help: "Total number of failed event batch writes",
		},
	)

	// Ingestion metrics
	IngestFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_fetches_total",
			Help: "Total number of source fetch attempts by outcome",
		},
		[]string{"source", "outcome"}, // outcome: "ok" or "error"
	)

	IngestArticlesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_articles_stored_total",
			Help: "Total number of articles stored per source",
		},
		[]string{"source"},
	)

	IngestArticlesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_articles_skipped_total",
			Help: "Total number of articles skipped per source by reason",
		},
		[]string{"source", "reason"}, // "duplicate", "empty", "error"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_sweep_duration_seconds",
			Help:    "Duration of per-source ingest sweeps in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)
)

// RecordDBQuery records a database query with duration and error status.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request with its response status and duration.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPipelineStage records the duration of one ranking pipeline stage.
func RecordPipelineStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFeedServed records which path produced a feed response.
func RecordFeedServed(servedBy string) {
	FeedRequestsTotal.WithLabelValues(servedBy).Inc()
}

// RecordFallback records a fallback activation with its trigger reason.
func RecordFallback(reason string) {
	FallbackActivations.WithLabelValues(reason).Inc()
}

// RecordRetrieval records the outcome of one retrieval strategy invocation.
func RecordRetrieval(strategy string, candidates int, failed bool) {
	if failed {
		RetrievalFailures.WithLabelValues(strategy).Inc()
		return
	}
	RetrievalCandidates.WithLabelValues(strategy).Add(float64(candidates))
}

// RecordProfileCache records a profile cache lookup outcome.
func RecordProfileCache(hit bool) {
	if hit {
		ProfileCacheHits.Inc()
	} else {
		ProfileCacheMisses.Inc()
	}
}

// RecordEmbedderRequest records an embedding request outcome.
// Outcome is "ok", "error", or "degraded" (fallback embedder used).
func RecordEmbedderRequest(outcome string) {
	EmbedderRequests.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState records a breaker state transition.
// State encoding: 0=closed, 1=half-open, 2=open.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordEventPublished records one interaction event accepted onto the bus.
func RecordEventPublished() {
	EventsPublished.Inc()
}

// RecordEventConsumed records one event handled by the named subscriber.
func RecordEventConsumed(subscriber string) {
	EventsConsumed.WithLabelValues(subscriber).Inc()
}

// RecordEventBatchFlush records a completed event batch write.
func RecordEventBatchFlush(batchSize int, err error) {
	if err != nil {
		EventWriteFailures.Inc()
		return
	}
	EventBatchSize.Observe(float64(batchSize))
}

// RecordIngestSweep records a completed per-source ingest sweep.
func RecordIngestSweep(source string, duration time.Duration, err error) {
	IngestDuration.WithLabelValues(source).Observe(duration.Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	IngestFetches.WithLabelValues(source, outcome).Inc()
}

// StatusCodeLabel converts an HTTP status code to its metric label.
func StatusCodeLabel(code int) string {
	return strconv.Itoa(code)
}
