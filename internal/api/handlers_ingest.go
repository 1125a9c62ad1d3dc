// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/intellweave/intellweave/internal/ingest"
	"github.com/intellweave/intellweave/internal/models"
)

// IngestURL scrapes a single page on demand and runs it through the full
// annotation pipeline. Submitting a URL that was already ingested refreshes
// the stored article rather than failing.
// POST /api/v1/ingest/url (admin only)
func (h *Handler) IngestURL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.scraper == nil {
		respondError(w, r, http.StatusServiceUnavailable, "INGEST_DISABLED", "ingestion is disabled", nil)
		return
	}

	var req IngestURLRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	// Canonicalize before fetching so malformed or non-HTTP URLs fail fast
	// with a clear message instead of a fetch error.
	if _, err := ingest.CanonicalURL(req.URL); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "url is not a fetchable http(s) address", err)
		return
	}

	article, err := h.scraper.ScrapeURL(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, ingest.ErrEmpty) {
			respondError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "page has no extractable text", err)
			return
		}
		respondError(w, r, http.StatusBadGateway, "FETCH_ERROR", "failed to fetch or parse the page", err)
		return
	}

	// Prefer the annotated row so the response carries topics and entities.
	var data interface{} = article
	if annotated, err := h.db.GetArticle(r.Context(), article.ID); err == nil {
		data = annotated
	}

	respondJSON(w, r, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: newMetadata(start),
	})
}

// IngestRun kicks off an immediate sweep of every configured feed source,
// outside the regular schedule.
// POST /api/v1/ingest/run (admin only)
func (h *Handler) IngestRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.scheduler == nil {
		respondError(w, r, http.StatusServiceUnavailable, "INGEST_DISABLED", "ingestion is disabled", nil)
		return
	}

	// Detached context: the sweep outlives this request and must not be
	// cancelled when the client disconnects.
	go h.scheduler.SweepAll(context.Background())

	respondJSON(w, r, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":  "sweep_started",
			"sources": len(h.cfg.Ingest.Sources),
		},
		Metadata: newMetadata(start),
	})
}
