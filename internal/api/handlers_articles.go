// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/storage"
)

// GetArticle returns one annotated article by id.
// GET /api/v1/articles/{id}
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "article id must be a UUID", nil)
		return
	}

	article, err := h.db.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "article not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "article lookup failed", err)
		return
	}

	respondCacheable(w, r, &models.APIResponse{
		Status:   "success",
		Data:     article,
		Metadata: newMetadata(start),
	})
}

// Search runs a keyword search over titles and body text.
// GET /api/v1/search?q=quantum&limit=20
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	def, max := h.feedLimits()
	req, apiErr := parseSearchRequest(r, def, max)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	articles, err := h.db.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "search failed", err)
		return
	}

	respondCacheable(w, r, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"query":   req.Query,
			"results": articles,
			"count":   len(articles),
		},
		Metadata: newMetadata(start),
	})
}

// TrendingTopics returns the most frequent topics across articles published
// in a trailing window, with average source credibility per topic.
// GET /api/v1/topics/trending?window_hours=24&limit=10
func (h *Handler) TrendingTopics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, apiErr := parseTrendingRequest(r, 10, 50)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	since := time.Now().Add(-time.Duration(req.WindowHours) * time.Hour)
	topics, err := h.db.TrendingTopics(r.Context(), since, req.Limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "trending query failed", err)
		return
	}

	respondCacheable(w, r, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"window_hours": req.WindowHours,
			"topics":       topics,
		},
		Metadata: newMetadata(start),
	})
}
