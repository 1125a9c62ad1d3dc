// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package authz

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
)

// Middleware enforces the role policy for every request that passed
// authentication. It must run after auth.Middleware.Authenticate, which
// installs the claims it reads.
type Middleware struct {
	enforcer *Enforcer
	log      zerolog.Logger
}

// NewMiddleware creates the authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		log:      logging.WithComponent("authz"),
	}
}

// Authorize maps the request to a (role, path, action) triple and asks the
// enforcer. A missing identity or a policy miss is a 403; an enforcer
// failure is a 500 rather than silently allowing the request through.
func (m *Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			writeAuthzError(w, http.StatusForbidden, "no authentication context")
			return
		}

		action := methodToAction(r.Method)
		allowed, err := m.enforcer.Enforce(claims.Role, r.URL.Path, action)
		if err != nil {
			m.log.Error().Err(err).Str("path", r.URL.Path).Msg("Authorization check failed")
			writeAuthzError(w, http.StatusInternalServerError, "authorization check failed")
			return
		}
		if !allowed {
			m.log.Debug().
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Str("action", action).
				Msg("Request denied by policy")
			writeAuthzError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// methodToAction maps HTTP methods onto the policy's action vocabulary.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

func writeAuthzError(w http.ResponseWriter, status int, message string) {
	code := "AUTHORIZATION_ERROR"
	if status == http.StatusInternalServerError {
		code = "INTERNAL_ERROR"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
