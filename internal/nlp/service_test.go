// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package nlp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/intellweave/intellweave/internal/config"
)

func TestServiceWithoutURLUsesFallback(t *testing.T) {
	svc := NewService(&config.NLPConfig{Dimensions: 8})

	got, err := svc.Embed(context.Background(), "fallback only")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	want, _ := NewFallbackEmbedder(8).Embed(context.Background(), "fallback only")
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected fallback vector, differ at %d", i)
		}
	}
	if svc.Dimensions() != 8 {
		t.Errorf("Expected 8 dimensions, got %d", svc.Dimensions())
	}
}

func TestServicePrefersPrimary(t *testing.T) {
	want := []float32{0.5, 0.25}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: want})
	}))
	defer server.Close()

	svc := NewService(&config.NLPConfig{
		EmbedderURL: server.URL,
		Dimensions:  2,
		Timeout:     5 * time.Second,
	})

	got, err := svc.Embed(context.Background(), "primary path")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected primary vec[%d]=%v, got %v", i, want[i], got[i])
		}
	}
}

func TestServiceDegradesToFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(&config.NLPConfig{
		EmbedderURL: server.URL,
		Dimensions:  16,
		Timeout:     5 * time.Second,
	})

	got, err := svc.Embed(context.Background(), "degraded path")
	if err != nil {
		t.Fatalf("Expected degraded embed to succeed, got %v", err)
	}

	want, _ := NewFallbackEmbedder(16).Embed(context.Background(), "degraded path")
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected fallback vector after primary failure, differ at %d", i)
		}
	}
}

func TestServiceStopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(&config.NLPConfig{
		EmbedderURL: server.URL,
		Dimensions:  4,
		Timeout:     5 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Embed(ctx, "cancelled"); err == nil {
		t.Error("Expected error when context is already cancelled")
	}
}
