// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/authz"
	"github.com/intellweave/intellweave/internal/middleware"
)

// Router assembles the chi route tree over a Handler and the auth stack.
type Router struct {
	handler *Handler
	auth    *auth.Middleware
	authz   *authz.Middleware
}

// NewRouter creates a Router. Configuration and the performance monitor are
// read from the handler, which already carries both.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware) *Router {
	return &Router{
		handler: handler,
		auth:    authMW,
		authz:   authzMW,
	}
}

// Setup builds the complete HTTP handler.
//
// The API group stacks rate limiting, authentication, authorization and
// metrics in that order: unauthenticated floods are shed before any token
// verification, and metrics only label requests that reached routing.
func (rt *Router) Setup() http.Handler {
	cfg := rt.handler.cfg
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Compression)
	if rt.handler.perfMon != nil {
		r.Use(rt.handler.perfMon.Middleware)
	}

	// Unmatched routes still answer in the response envelope.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "NOT_FOUND", "no such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed for this endpoint", nil)
	})

	// ========================
	// Health and Observability
	// ========================
	r.Get("/health", rt.handler.Health)
	r.Get("/ready", rt.handler.Ready)
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	// ========================
	// API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.Server.RateLimitReqs, cfg.Server.RateLimitWindow))

		// Public endpoints. Login gets its own much tighter limit on top of
		// the API-wide one to slow credential stuffing.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Metrics)

			r.Post("/auth/register", rt.handler.Register)
			r.With(middleware.RateLimit(rt.loginLimit())).Post("/auth/login", rt.handler.Login)

			r.Get("/feed/recent", rt.handler.FeedRecent)
			r.Get("/articles/{id}", rt.handler.GetArticle)
			r.Get("/search", rt.handler.Search)
			r.Get("/topics/trending", rt.handler.TrendingTopics)
		})

		// Authenticated endpoints. Role checks run in the authorization
		// middleware against the Casbin policy, not in handlers.
		r.Group(func(r chi.Router) {
			r.Use(rt.auth.Authenticate)
			r.Use(rt.authz.Authorize)
			r.Use(middleware.Metrics)

			r.Get("/auth/me", rt.handler.Me)
			r.Get("/feed/personalized", rt.handler.FeedPersonalized)
			r.Post("/events", rt.handler.RecordEvents)

			r.Get("/bookmarks", rt.handler.ListBookmarks)
			r.Post("/bookmarks", rt.handler.CreateBookmark)
			r.Delete("/bookmarks/{article_id}", rt.handler.DeleteBookmark)

			r.Get("/profile/topics", rt.handler.GetPreferredTopics)
			r.Put("/profile/topics", rt.handler.UpdatePreferredTopics)
			r.Get("/profile/summary", rt.handler.GetProfileSummary)

			r.Post("/ingest/url", rt.handler.IngestURL)
			r.Post("/ingest/run", rt.handler.IngestRun)
			r.Get("/admin/stats", rt.handler.AdminStats)
		})
	})

	return r
}

// corsOrigins returns the configured origins, defaulting to * so a
// hand-built config without the field does not silently block browsers.
func (rt *Router) corsOrigins() []string {
	if len(rt.handler.cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return rt.handler.cfg.Server.CORSOrigins
}

// loginLimit returns the login rate limit as (requests, window), shaped to
// feed middleware.RateLimit directly.
func (rt *Router) loginLimit() (int, time.Duration) {
	limit := rt.handler.cfg.Auth.LoginRateLimit
	if limit <= 0 {
		limit = 5
	}
	window := rt.handler.cfg.Auth.LoginRateWindow
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}
