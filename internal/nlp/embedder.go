// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package nlp

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint for a deterministic pseudo-embedding, not a credential hash
)

// DefaultDimensions is the embedding width used when none is configured,
// matching the MiniLM-family models the embedding service typically runs.
const DefaultDimensions = 384

// Embedder produces a fixed-width vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// FallbackEmbedder derives a vector from the MD5 digest of the text: each
// digest byte scaled to [0,1], tiled to the configured width. The vectors
// carry no semantic signal, but they are deterministic, cheap, and non-zero,
// which keeps vector retrieval structurally working when no embedding
// service is reachable. Callers never special-case it.
type FallbackEmbedder struct {
	dims int
}

// Ensure FallbackEmbedder implements Embedder
var _ Embedder = (*FallbackEmbedder)(nil)

// NewFallbackEmbedder creates a fallback embedder with the given width.
// Non-positive widths use DefaultDimensions.
func NewFallbackEmbedder(dims int) *FallbackEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &FallbackEmbedder{dims: dims}
}

// Dimensions returns the vector width.
func (e *FallbackEmbedder) Dimensions() int {
	return e.dims
}

// Embed never fails; the error return satisfies Embedder.
func (e *FallbackEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	digest := md5.Sum([]byte(text)) //nolint:gosec // see type comment

	vec := make([]float32, e.dims)
	for i := range vec {
		vec[i] = float32(digest[i%len(digest)]) / 255.0
	}
	return vec, nil
}
