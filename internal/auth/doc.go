// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package auth implements account authentication: bcrypt password hashing,
// HMAC-SHA256 JWT issuing and verification, and the HTTP middleware that
// turns a Bearer token into request-scoped claims.
//
// The package owns identity only. What an authenticated role may reach is
// decided by internal/authz; the split keeps token handling testable without
// a policy engine in the loop.
//
// Register/Login/CurrentUser live on Service, which talks to storage through
// the narrow UserStore interface. BootstrapAdmin creates the first admin
// account from configuration when the users table is empty, so a fresh
// deployment is reachable without manual SQL.
package auth
