// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/storage"
)

// Register creates a reader account.
// POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.RegisterRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			respondError(w, r, http.StatusConflict, "CONFLICT", "email is already registered", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "registration failed", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     user,
		Metadata: newMetadata(start),
	})
}

// Login verifies credentials and issues a session token. The route carries
// its own tight rate limit; see the router.
// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.LoginRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid email or password", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     resp,
		Metadata: newMetadata(start),
	})
}

// Me returns the account behind the presented token.
// GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "no authentication context", nil)
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Valid token for a deleted account.
			respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "account no longer exists", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "account lookup failed", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     user,
		Metadata: newMetadata(start),
	})
}
