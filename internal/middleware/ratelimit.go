// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"

	"github.com/intellweave/intellweave/internal/models"
)

// RateLimit returns a sliding-window rate limiter keyed by client IP,
// allowing requests per window. A non-positive requests value disables
// limiting entirely and the returned middleware is a passthrough.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// rateLimitExceeded sends a 429 in the standard response envelope.
func rateLimitExceeded(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    "RATE_LIMIT_EXCEEDED",
			Message: "rate limit exceeded, retry later",
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
