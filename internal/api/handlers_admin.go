// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"net/http"
	"time"

	"github.com/intellweave/intellweave/internal/models"
)

// AdminStats returns an operational snapshot: corpus counts, vector index
// size, embedder breaker state, event bus and pipeline counters, and
// per-endpoint latency percentiles when the performance monitor is wired.
// GET /api/v1/admin/stats (admin only)
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.db.GetStats(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to collect statistics", err)
		return
	}

	data := map[string]interface{}{
		"corpus":         stats,
		"index_size":     h.index.Len(),
		"breaker_state":  h.embedder.BreakerState(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}

	if last, err := h.db.LastIngestedAt(r.Context()); err == nil && last != nil {
		data["last_ingested_at"] = last
	}
	if h.bus != nil {
		data["events"] = h.bus.Stats()
	}
	if h.pipeline != nil {
		data["ingest"] = h.pipeline.Stats()
	}
	if h.perfMon != nil {
		data["performance"] = h.perfMon.GetStats()
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: newMetadata(start),
	})
}
