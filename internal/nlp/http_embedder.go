// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package nlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
)

const breakerName = "embedder"

// HTTPEmbedder calls an external embedding service. Every request passes a
// client-side rate limiter and a circuit breaker; when the breaker is open
// requests fail fast without touching the network, and the composite Service
// degrades to the fallback embedder.
type HTTPEmbedder struct {
	url        string
	dims       int
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]float32]
	limiter    *rate.Limiter
}

// Ensure HTTPEmbedder implements Embedder
var _ Embedder = (*HTTPEmbedder)(nil)

// embedRequest is the wire request to the embedding service.
type embedRequest struct {
	Text string `json:"text"`
}

// embedResponse is the wire response from the embedding service.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewHTTPEmbedder creates a client for the configured embedding service.
// Breaker settings: open at >=60% failures over >=10 requests, 3 half-open
// probes, 1 minute closed-state measurement window, 2 minute open timeout.
func NewHTTPEmbedder(cfg *config.NLPConfig) *HTTPEmbedder {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	metrics.SetCircuitBreakerState(breakerName, 0)

	cb := gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening embedder circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("[CIRCUIT BREAKER] Embedder state transition")
			metrics.SetCircuitBreakerState(name, breakerStateValue(to))
		},
	})

	return &HTTPEmbedder{
		url:        strings.TrimSuffix(cfg.EmbedderURL, "/"),
		dims:       dims,
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// Dimensions returns the vector width the service is expected to produce.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dims
}

// BreakerState reports the circuit breaker state as a diagnostic string:
// "closed", "half-open" or "open".
func (e *HTTPEmbedder) BreakerState() string {
	return breakerStateString(e.cb.State())
}

// Embed requests a vector from the service. The rate limiter runs before the
// breaker so a burst of callers cannot trip the circuit by queueing; a
// breaker-open error surfaces immediately.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedder rate limit wait: %w", err)
	}

	vec, err := e.cb.Execute(func() ([]float32, error) {
		return e.doEmbed(ctx, text)
	})
	if err != nil {
		metrics.RecordEmbedderRequest("error")
		return nil, err
	}
	metrics.RecordEmbedderRequest("ok")
	return vec, nil
}

func (e *HTTPEmbedder) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
		if readErr != nil {
			return nil, fmt.Errorf("embedder returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("embedder returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(decoded.Embedding) != e.dims {
		return nil, fmt.Errorf("embedder returned %d dimensions, expected %d", len(decoded.Embedding), e.dims)
	}
	return decoded.Embedding, nil
}

func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
