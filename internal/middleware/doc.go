// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking,
structured request logging, Prometheus metrics, IP-keyed rate limiting, gzip
compression, and in-process latency monitoring. The components work alongside
the auth and authz middlewares to form the complete request processing stack.

Key Components:

  - RequestID: UUID-based request tracking, proxy-aware
  - RequestLogger: one structured zerolog line per completed request
  - Metrics: Prometheus request/response instrumentation by route pattern
  - RateLimit: sliding-window limiter keyed by client IP
  - Compression: gzip encoding for clients that accept it
  - PerformanceMonitor: latency percentiles over a sliding request window

Middleware Stack:

All components are chi-compatible (func(http.Handler) http.Handler), so the
typical stack is registered through chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Compression)
	r.Use(perfMon.Middleware)

	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.RateLimit(100, time.Minute))
	    r.Use(middleware.Metrics)
	    // handlers
	})

Usage Example - Request ID:

	// Access the request ID in a handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("processing")
	}

The ID is also installed in the logging context, so logging.Ctx picks it up
automatically without touching this package.

Usage Example - Performance Monitoring:

	perfMon := middleware.NewPerformanceMonitor(1000)
	r.Use(perfMon.Middleware)

	// Later, e.g. from an admin endpoint:
	stats := perfMon.GetStats()
	for _, s := range stats {
	    fmt.Printf("%s p95=%dms\n", s.Path, s.P95Duration)
	}

Metrics Label Cardinality:

The Metrics middleware labels requests by the chi route pattern rather than
the raw URL path, so /api/v1/articles/{id} stays a single Prometheus series
no matter how many article IDs are requested.

Thread Safety:

All middleware components are safe for concurrent use:

  - Compression uses a sync.Pool of gzip writers
  - PerformanceMonitor guards its window with sync.RWMutex
  - RequestID relies on immutable context values
  - Metrics delegates to atomic Prometheus collectors

See Also:

  - internal/auth: authentication middleware (Bearer tokens)
  - internal/authz: authorization middleware (Casbin policy checks)
  - internal/api: HTTP handlers wrapped by this stack
  - internal/metrics: Prometheus metric definitions
*/
package middleware
