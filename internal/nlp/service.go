// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package nlp

import (
	"context"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
)

// Service is the degrading embedder used by the rest of the system. It tries
// the external service first and falls back to the deterministic hash
// embedder when the service is unconfigured, rate limited away, or failing.
// Embed never returns an error: the fallback always produces a vector.
type Service struct {
	primary  Embedder
	fallback *FallbackEmbedder
}

// Ensure Service implements Embedder
var _ Embedder = (*Service)(nil)

// NewService wires the embedder stack from configuration. An empty
// EmbedderURL disables the external service entirely.
func NewService(cfg *config.NLPConfig) *Service {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}

	svc := &Service{
		fallback: NewFallbackEmbedder(dims),
	}
	if cfg.EmbedderURL == "" {
		logging.Info().Msg("No embedder URL configured, using deterministic fallback embeddings")
		return svc
	}

	svc.primary = NewHTTPEmbedder(cfg)
	logging.Info().
		Str("url", cfg.EmbedderURL).
		Int("dimensions", dims).
		Msg("External embedding service configured")
	return svc
}

// Dimensions returns the configured vector width.
func (s *Service) Dimensions() int {
	return s.fallback.Dimensions()
}

// Embed produces an embedding for text, degrading to the fallback embedder
// when the primary is unavailable. Callers cannot tell which path produced
// the vector; the embedder_requests metric records the split.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.primary != nil {
		vec, err := s.primary.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		// Honor cancellation rather than burning CPU on a doomed request.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Debug().Err(err).Msg("Primary embedder failed, using fallback")
		metrics.RecordEmbedderRequest("degraded")
		return s.fallback.Embed(ctx, text)
	}
	return s.fallback.Embed(ctx, text)
}

// BreakerState reports the external embedder's circuit breaker state, or
// "disabled" when no external service is configured.
func (s *Service) BreakerState() string {
	if he, ok := s.primary.(*HTTPEmbedder); ok {
		return he.BreakerState()
	}
	return "disabled"
}
