// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package authz decides what an authenticated role may reach. It wraps a
// Casbin RBAC enforcer whose model and policy ship embedded in the binary,
// with an optional file override for deployments that need to adjust the
// policy without a rebuild.
//
// The request path is the Casbin object and the HTTP method maps to one of
// three actions (read, write, delete). Two roles exist: reader covers the
// signed-in product surface, admin inherits reader and adds the ingestion
// and stats endpoints. Anything the policy does not allow is a 403.
//
// Decisions are cached per (subject, object, action) for a short TTL; the
// route surface is small and the policy changes rarely, so staleness is
// bounded by the reload interval of the file adapter.
package authz
