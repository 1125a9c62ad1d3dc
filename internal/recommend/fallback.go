// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
)

// FallbackSupplier serves the non-personalized feed of last resort: recent
// articles ordered by credibility, then recency. It runs when retrieval
// comes back empty, when both strategies are down, or when the request
// deadline has already been spent.
type FallbackSupplier struct {
	articles ArticleSource
	cfg      *config.RecommendConfig
	now      func() time.Time
	log      zerolog.Logger
}

// NewFallbackSupplier wires a supplier. now defaults to time.Now when nil.
func NewFallbackSupplier(articles ArticleSource, cfg *config.RecommendConfig, now func() time.Time) *FallbackSupplier {
	if now == nil {
		now = time.Now
	}
	return &FallbackSupplier{
		articles: articles,
		cfg:      cfg,
		now:      now,
		log:      logging.WithComponent("recommend"),
	}
}

// Fallback returns up to n flat-scored items. It never fails: a store error
// yields an empty feed, which is still a valid response.
func (f *FallbackSupplier) Fallback(ctx context.Context, n int) []models.FeedItem {
	since := f.now().Add(-f.cfg.FallbackWindow)
	rows, err := f.articles.ListFallback(ctx, since, n)
	if err != nil {
		f.log.Warn().Err(err).Msg("Fallback feed query failed, serving empty feed")
		return []models.FeedItem{}
	}

	items := make([]models.FeedItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, models.FeedItem{Article: a, Score: fallbackScore})
	}
	return items
}
