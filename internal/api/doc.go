// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
Package api implements the HTTP surface of the Intell Weave server.

The package wires chi routes to handlers over the storage, recommendation,
messaging and ingestion layers. Every endpoint speaks the same response
envelope (models.APIResponse): a status string, the payload under data, an
optional structured error, and metadata carrying the server timestamp,
handler time and cache disposition.

Route Groups:

	GET  /health                        liveness probe
	GET  /ready                         readiness probe (storage + event bus)
	GET  /metrics                       Prometheus exposition (configurable)

	POST /api/v1/auth/register          create a reader account
	POST /api/v1/auth/login             issue a session token (tight rate limit)
	GET  /api/v1/feed/recent            public recency feed
	GET  /api/v1/articles/{id}          single annotated article
	GET  /api/v1/search                 keyword search
	GET  /api/v1/topics/trending        trending topics over a trailing window

	GET  /api/v1/auth/me                authenticated account
	GET  /api/v1/feed/personalized      ranked feed for the caller
	POST /api/v1/events                 interaction event intake (single or batch)
	GET  /api/v1/bookmarks              saved articles
	POST /api/v1/bookmarks              save an article
	DELETE /api/v1/bookmarks/{article_id}
	GET  /api/v1/profile/topics         explicit topic preferences
	PUT  /api/v1/profile/topics
	GET  /api/v1/profile/summary        interest profile diagnostics
	POST /api/v1/ingest/url             scrape one URL (admin)
	POST /api/v1/ingest/run             sweep all sources now (admin)
	GET  /api/v1/admin/stats            operational snapshot (admin)

Middleware Order:

Within the API group the stack runs rate limit, then authentication, then
authorization, then metrics, so unauthenticated floods are shed before any
token work and metrics label only requests that reached routing.

Caching:

Public read endpoints emit a strong ETag computed over the data payload
(FNV-1a) and honor If-None-Match with 304 Not Modified. Authenticated
responses are never marked cacheable; their content varies by caller.

Error Contract:

Failures map to stable error codes in the envelope: VALIDATION_ERROR (400
or 422), AUTHENTICATION_ERROR (401), AUTHORIZATION_ERROR (403), NOT_FOUND
(404), METHOD_NOT_ALLOWED (405), CONFLICT (409), RATE_LIMIT_EXCEEDED (429),
DATABASE_ERROR and INTERNAL_ERROR (500), FETCH_ERROR (502) and
INGEST_DISABLED (503). Internal details are logged with the request ID,
never returned to the client.
*/
package api
