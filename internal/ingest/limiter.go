// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter throttles outbound fetches per publisher host so sweeps stay
// polite no matter how many sources share a domain. The limiter map is never
// pruned: it only ever holds the configured source hosts plus
// operator-submitted domains.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// newHostLimiter allows perSecond fetches per host with the given burst.
// perSecond <= 0 disables throttling.
func newHostLimiter(perSecond float64, burst int) *hostLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  limit,
		burst:    burst,
	}
}

// wait blocks until the URL's host has request budget or ctx ends.
func (h *hostLimiter) wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = strings.ToLower(u.Hostname())
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(h.perHost, h.burst)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for host %q: %w", host, err)
	}
	return nil
}
