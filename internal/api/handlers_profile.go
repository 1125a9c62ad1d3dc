// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"net/http"
	"time"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/models"
)

// GetPreferredTopics returns the caller's explicit topic preferences. A user
// who has never set any gets an empty list, not an error.
// GET /api/v1/profile/topics
func (h *Handler) GetPreferredTopics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	topics, err := h.db.GetPreferredTopics(r.Context(), claims.UserID())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load preferred topics", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     topics,
		Metadata: newMetadata(start),
	})
}

// UpdatePreferredTopics replaces the caller's topic preferences wholesale.
// The stored set takes effect on the next personalized feed request; the
// ranking profile itself is derived from events and is not touched here.
// PUT /api/v1/profile/topics
func (h *Handler) UpdatePreferredTopics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	var req models.UpdatePreferredTopicsRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.db.SetPreferredTopics(r.Context(), claims.UserID(), req.Topics); err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to save preferred topics", err)
		return
	}

	// Read back so the response reflects the canonical row, including the
	// server-assigned update timestamp.
	topics, err := h.db.GetPreferredTopics(r.Context(), claims.UserID())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load preferred topics", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     topics,
		Metadata: newMetadata(start),
	})
}

// GetProfileSummary exposes the learned interest profile behind the caller's
// personalized feed: topic and entity weights, active hours, and how many
// events the profile was built from.
// GET /api/v1/profile/summary
func (h *Handler) GetProfileSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	summary := h.engine.ProfileSummary(r.Context(), claims.UserID())

	meta := newMetadata(start)
	meta.Cached = summary.Cached

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     summary,
		Metadata: meta,
	})
}
