// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
// It provides a consistent structure for both successful and error responses,
// with metadata for observability and caching.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"items": [...]},
//	  "metadata": {
//	    "timestamp": "2026-02-10T12:00:00Z",
//	    "query_time_ms": 12,
//	    "cached": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "limit must be at most 100",
//	    "details": {"field": "limit"}
//	  },
//	  "metadata": {"timestamp": "2026-02-10T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Fields:
//   - Timestamp: Server time when the response was generated (RFC3339)
//   - QueryTimeMS: Handler execution time in milliseconds (0 if cached)
//   - Cached: Whether the response was served from cache (omitted if false)
//   - ServedBy: Which pipeline produced a feed response: "personalized",
//     "fallback" or "recent" (feed endpoints only)
//   - Degraded: True when a personalization input was unavailable and a
//     neutral default was substituted (feed endpoints only)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	ServedBy    string    `json:"served_by,omitempty"`
	Degraded    bool      `json:"degraded,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - AUTHENTICATION_ERROR: Invalid/missing credentials
//   - AUTHORIZATION_ERROR: Insufficient permissions
//   - NOT_FOUND: Resource doesn't exist
//   - CONFLICT: Resource already exists
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - DATABASE_ERROR: Query execution failure
//   - INTERNAL_ERROR: Unexpected server failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
