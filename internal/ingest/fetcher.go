// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/intellweave/intellweave/internal/config"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultUserAgent    = "intellweave/1.0"

	// perHostBurst lets a short run of fetches against one host proceed
	// immediately; sustained crawling drops to the configured rate.
	perHostBurst = 3
)

// Fetcher performs the outbound HTTP work of ingestion: feed downloads and
// single-page fetches, both throttled per publisher host.
type Fetcher struct {
	client    *http.Client
	limiter   *hostLimiter
	userAgent string
}

// NewFetcher builds a fetcher from the ingest configuration.
func NewFetcher(cfg *config.IngestConfig) *Fetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   newHostLimiter(cfg.PerHostRate, perHostBurst),
		userAgent: userAgent,
	}
}

// FetchFeed downloads and parses one RSS/Atom source.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if err := f.limiter.wait(ctx, feedURL); err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.userAgent

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}
	return feed, nil
}

// Get fetches one page. Only 200 responses are returned; the caller owns the
// response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := f.limiter.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s returned status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}
