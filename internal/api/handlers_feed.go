// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/recommend"
)

// defaultRequestTimeout bounds a feed request when no timeout is configured.
const defaultRequestTimeout = 5 * time.Second

// FeedPersonalized serves the ranked feed for the authenticated user. The
// engine degrades to the fallback feed internally rather than failing, so
// this endpoint answers 200 whenever the process is up.
// GET /api/v1/feed/personalized?limit=20&diversity_factor=0.3
func (h *Handler) FeedPersonalized(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	query, apiErr := parseFeedQuery(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	timeout := h.cfg.Recommend.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	var opts []recommend.FeedOption
	if query.DiversityFactor != nil {
		opts = append(opts, recommend.WithDiversityFactor(*query.DiversityFactor))
	}

	feed := h.engine.PersonalizedFeed(ctx, claims.UserID(), query.Limit, opts...)

	meta := newMetadata(start)
	meta.ServedBy = feed.ServedBy
	meta.Degraded = feed.Degraded

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     feed,
		Metadata: meta,
	})
}

// FeedRecent serves the newest articles without personalization. Public,
// cacheable, and the product surface for signed-out readers.
// GET /api/v1/feed/recent?limit=20
func (h *Handler) FeedRecent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	def, max := h.feedLimits()
	limit := clampLimit(getIntParam(r, "limit", 0), def, max)

	window := h.cfg.Recommend.FallbackWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}

	articles, err := h.db.ListFallback(r.Context(), time.Now().Add(-window), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list recent articles", err)
		return
	}

	items := make([]models.FeedItem, 0, len(articles))
	for i := range articles {
		items = append(items, models.FeedItem{Article: articles[i]})
	}

	respondCacheable(w, r, &models.APIResponse{
		Status:   "success",
		Data:     models.Feed{Items: items, ServedBy: "recent"},
		Metadata: newMetadata(start),
	})
}
