// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/validation"
)

// maxRequestBody caps request bodies at 1 MiB. Nothing the API accepts is
// anywhere near that large.
const maxRequestBody = 1 << 20

// respondJSON marshals the envelope and writes it with the given status.
// No cache headers are set; use respondCacheable for the public read
// endpoints.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	body, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Response marshaling failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"INTERNAL_ERROR","message":"response encoding failed"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Response write failed")
	}
}

// respondCacheable writes a 200 envelope with revalidation headers for
// public GET endpoints. The ETag hashes only the data payload; the metadata
// timestamp changes every response and must not defeat If-None-Match.
func respondCacheable(w http.ResponseWriter, r *http.Request, response *models.APIResponse) {
	etag := generateETag(response.Data)
	if etag != "" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("Vary", "Accept-Encoding")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	respondJSON(w, r, http.StatusOK, response)
}

// generateETag derives a strong ETag from the marshaled payload using the
// FNV-1a hash. Returns empty string when the payload cannot be marshaled.
func generateETag(data interface{}) string {
	body, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	hash := uint32(2166136261)
	for _, b := range body {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondError writes an error envelope with the given code and message.
// err is logged with the request context but never leaks to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("code", code).
			Int("status", status).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	respondAPIError(w, r, status, &models.APIError{Code: code, Message: message})
}

// respondAPIError writes a fully-formed error (including details) in the
// envelope.
func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	respondJSON(w, r, status, &models.APIResponse{
		Status:   "error",
		Error:    apiErr,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// validateRequest runs struct validation and converts failures into the
// envelope's error shape. Returns nil when the value is valid.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// decodeBody decodes a JSON request body into dst, bounded by
// maxRequestBody. Unknown fields are tolerated; malformed JSON is not.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) *models.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "request body must be valid JSON",
		}
	}
	return nil
}

// newMetadata stamps the envelope with the handler elapsed time.
func newMetadata(start time.Time) models.Metadata {
	return models.Metadata{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: time.Since(start).Milliseconds(),
	}
}

// getIntParam reads an integer query parameter, falling back to the default
// on absence or parse failure.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// clampLimit bounds a requested page size. Non-positive values take the
// default; oversized requests are clamped to max rather than rejected.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
