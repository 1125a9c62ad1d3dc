// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/models"
)

// maxEventBatch caps how many events one request may carry.
const maxEventBatch = 100

// RecordEvents accepts one interaction event or a JSON array of them and
// hands them to the event bus. The caller's identity comes from the token;
// a user cannot record events for someone else.
// POST /api/v1/events
func (h *Handler) RecordEvents(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request body unreadable or too large", nil)
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request body is required", nil)
		return
	}

	// A leading bracket selects batch shape; anything else is one event.
	var reqs []models.RecordEventRequest
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON", nil)
			return
		}
	} else {
		var one models.RecordEventRequest
		if err := json.Unmarshal(trimmed, &one); err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON", nil)
			return
		}
		reqs = append(reqs, one)
	}

	if len(reqs) == 0 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "at least one event is required", nil)
		return
	}
	if len(reqs) > maxEventBatch {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "too many events in one request", nil)
		return
	}

	now := time.Now().UTC()
	events := make([]models.InteractionEvent, 0, len(reqs))
	for i := range reqs {
		if apiErr := validateRequest(&reqs[i]); apiErr != nil {
			respondAPIError(w, r, http.StatusBadRequest, apiErr)
			return
		}
		events = append(events, models.InteractionEvent{
			ID:        uuid.New().String(),
			UserID:    claims.UserID(),
			ArticleID: reqs[i].ArticleID,
			EventType: reqs[i].EventType,
			CreatedAt: now,
		})
	}

	if len(events) == 1 {
		err = h.publisher.Publish(r.Context(), &events[0])
	} else {
		err = h.publisher.PublishBatch(r.Context(), events)
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "event intake failed", err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, &models.APIResponse{
		Status:   "success",
		Data:     map[string]interface{}{"accepted": len(events)},
		Metadata: models.Metadata{Timestamp: now},
	})
}
