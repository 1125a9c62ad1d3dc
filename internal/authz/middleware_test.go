// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/models"
)

func authorizedRequest(method, path, role string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		claims := &auth.Claims{Role: role}
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
	}
	return req
}

func runAuthorize(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEnforcer(t)
	mw := NewMiddleware(e)
	handler := mw.Authorize(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthorizeAllowsReaderSurface(t *testing.T) {
	cases := []struct {
		method string
		path   string
		role   string
	}{
		{http.MethodGet, "/api/v1/feed/personalized", models.RoleReader},
		{http.MethodPost, "/api/v1/events", models.RoleReader},
		{http.MethodDelete, "/api/v1/bookmarks/0b7c9d1e", models.RoleReader},
		{http.MethodPut, "/api/v1/profile/topics", models.RoleReader},
		{http.MethodPost, "/api/v1/ingest/url", models.RoleAdmin},
		{http.MethodGet, "/api/v1/admin/stats", models.RoleAdmin},
		{http.MethodGet, "/api/v1/bookmarks", models.RoleAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			rec := runAuthorize(t, authorizedRequest(tc.method, tc.path, tc.role))
			if rec.Code != http.StatusOK {
				t.Errorf("Expected 200, got %d", rec.Code)
			}
		})
	}
}

func TestAuthorizeDeniesOutsidePolicy(t *testing.T) {
	cases := []struct {
		method string
		path   string
		role   string
	}{
		{http.MethodPost, "/api/v1/ingest/url", models.RoleReader},
		{http.MethodPost, "/api/v1/ingest/run", models.RoleReader},
		{http.MethodGet, "/api/v1/admin/stats", models.RoleReader},
		{http.MethodDelete, "/api/v1/events", models.RoleReader},
		{http.MethodGet, "/api/v1/feed/personalized", "superuser"},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			rec := runAuthorize(t, authorizedRequest(tc.method, tc.path, tc.role))
			if rec.Code != http.StatusForbidden {
				t.Fatalf("Expected 403, got %d", rec.Code)
			}

			var resp models.APIResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error envelope: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != "AUTHORIZATION_ERROR" {
				t.Errorf("Expected AUTHORIZATION_ERROR code, got %+v", resp.Error)
			}
		})
	}
}

func TestAuthorizeRequiresClaims(t *testing.T) {
	rec := runAuthorize(t, authorizedRequest(http.MethodGet, "/api/v1/feed/personalized", ""))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without claims, got %d", rec.Code)
	}
}

func TestMethodToAction(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "read"},
		{http.MethodHead, "read"},
		{http.MethodOptions, "read"},
		{http.MethodPost, "write"},
		{http.MethodPut, "write"},
		{http.MethodPatch, "write"},
		{http.MethodDelete, "delete"},
		{"TRACE", "read"},
	}
	for _, tt := range tests {
		if got := methodToAction(tt.method); got != tt.want {
			t.Errorf("methodToAction(%s): expected %q, got %q", tt.method, tt.want, got)
		}
	}
}
