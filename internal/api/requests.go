// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/intellweave/intellweave/internal/models"
)

// SearchRequest binds the GET /api/v1/search query parameters.
type SearchRequest struct {
	Query string `validate:"required,min=1,max=200"`
	Limit int    `validate:"-"`
}

// TrendingRequest binds the GET /api/v1/topics/trending query parameters.
type TrendingRequest struct {
	WindowHours int `validate:"min=1,max=168"`
	Limit       int `validate:"-"`
}

// FeedQuery binds the GET /api/v1/feed/personalized query parameters.
// Limit is clamped downstream rather than validated; DiversityFactor
// overrides the configured re-ranking lambda when present.
type FeedQuery struct {
	Limit           int      `validate:"-"`
	DiversityFactor *float64 `validate:"omitempty,min=0,max=1"`
}

// IngestURLRequest is the body of POST /api/v1/ingest/url.
type IngestURLRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// parseFeedQuery extracts and validates feed parameters from the query
// string. A non-numeric diversity_factor is a validation error, not a
// silent default.
func parseFeedQuery(r *http.Request) (*FeedQuery, *models.APIError) {
	q := &FeedQuery{Limit: getIntParam(r, "limit", 0)}

	if raw := r.URL.Query().Get("diversity_factor"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &models.APIError{
				Code:    "VALIDATION_ERROR",
				Message: "diversity_factor must be a number between 0 and 1",
				Details: map[string]interface{}{"field": "diversity_factor", "value": raw},
			}
		}
		q.DiversityFactor = &v
	}

	if apiErr := validateRequest(q); apiErr != nil {
		return nil, apiErr
	}
	return q, nil
}

// parseSearchRequest extracts and validates search parameters. The limit is
// clamped to maxLimit with def as the unspecified default.
func parseSearchRequest(r *http.Request, def, maxLimit int) (*SearchRequest, *models.APIError) {
	req := &SearchRequest{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Limit: clampLimit(getIntParam(r, "limit", 0), def, maxLimit),
	}
	if apiErr := validateRequest(req); apiErr != nil {
		return nil, apiErr
	}
	return req, nil
}

// parseTrendingRequest extracts and validates trending-topics parameters.
func parseTrendingRequest(r *http.Request, def, maxLimit int) (*TrendingRequest, *models.APIError) {
	req := &TrendingRequest{
		WindowHours: getIntParam(r, "window_hours", 24),
		Limit:       clampLimit(getIntParam(r, "limit", 0), def, maxLimit),
	}
	if apiErr := validateRequest(req); apiErr != nil {
		return nil, apiErr
	}
	return req, nil
}
