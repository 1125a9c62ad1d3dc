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

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/storage"
)

// CreateBookmark saves an article for the caller. Re-bookmarking the same
// article is idempotent and returns the original bookmark. A bookmark is
// also a strong interest signal, so one is recorded on the event bus.
// POST /api/v1/bookmarks
func (h *Handler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	var req models.CreateBookmarkRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	// Reject unknown articles up front; a dangling bookmark would surface
	// as a hole in every later list response.
	if _, err := h.db.GetArticle(r.Context(), req.ArticleID); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "article not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "article lookup failed", err)
		return
	}

	bookmark := &models.Bookmark{
		ID:        uuid.New().String(),
		UserID:    claims.UserID(),
		ArticleID: req.ArticleID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.db.CreateBookmark(r.Context(), bookmark); err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to save bookmark", err)
		return
	}

	if h.publisher != nil {
		event := &models.InteractionEvent{
			ID:        uuid.New().String(),
			UserID:    claims.UserID(),
			ArticleID: req.ArticleID,
			EventType: models.EventBookmark,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.publisher.Publish(r.Context(), event); err != nil {
			// The bookmark row is the source of truth; a lost signal only
			// delays profile learning.
			h.log.Warn().Err(err).Str("article_id", req.ArticleID).Msg("Bookmark event publish failed")
		}
	}

	respondJSON(w, r, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     bookmark,
		Metadata: newMetadata(start),
	})
}

// ListBookmarks returns the caller's saved articles, newest first, each
// hydrated with its annotated article.
// GET /api/v1/bookmarks
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	bookmarks, err := h.db.ListBookmarks(r.Context(), claims.UserID())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list bookmarks", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"bookmarks": bookmarks,
			"count":     len(bookmarks),
		},
		Metadata: newMetadata(start),
	})
}

// DeleteBookmark removes a saved article. Deleting a bookmark that does not
// exist is a 404, not a silent success, so clients can reconcile state.
// DELETE /api/v1/bookmarks/{article_id}
func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	articleID := chi.URLParam(r, "article_id")
	if _, err := uuid.Parse(articleID); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "article id must be a UUID", nil)
		return
	}

	if err := h.db.DeleteBookmark(r.Context(), claims.UserID(), articleID); err != nil {
		if errors.Is(err, storage.ErrBookmarkNotFound) {
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "bookmark not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to delete bookmark", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
