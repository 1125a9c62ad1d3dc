// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package vector holds article embeddings in memory and serves cosine
// similarity searches for the candidate retriever. The index is an exact
// scan: with the candidate windows used here the corpus stays small enough
// that a linear pass beats the operational cost of an ANN structure.
package vector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/intellweave/intellweave/internal/cache"
	"github.com/intellweave/intellweave/internal/metrics"
)

// Result is one search hit. Distance is 1 - cosine similarity, so lower is
// closer and 0 means identical direction.
type Result struct {
	ID       string
	Distance float64
}

// SearchOptions filter a search. A zero PublishedAfter means no time filter;
// ids in Exclude are never returned.
type SearchOptions struct {
	PublishedAfter time.Time
	Exclude        map[string]struct{}
}

type entry struct {
	vec         []float32
	norm        float64
	publishedAt time.Time
}

// Index is an RWMutex-guarded in-memory embedding store. Writers (ingest,
// warm-up) take the write lock; searches share the read lock.
type Index struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]*entry
}

// NewIndex creates an empty index for vectors of the given width.
func NewIndex(dims int) *Index {
	return &Index{
		dims:    dims,
		entries: make(map[string]*entry),
	}
}

// Dimensions returns the vector width the index accepts.
func (ix *Index) Dimensions() int {
	return ix.dims
}

// Len returns the number of indexed articles.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Upsert inserts or replaces the vector for an article. The vector is copied
// and its norm precomputed; publishedAt should be the effective timestamp
// (created_at when the article has no publication date) so time-filtered
// searches see every article.
func (ix *Index) Upsert(id string, vec []float32, publishedAt time.Time) error {
	if len(vec) != ix.dims {
		return fmt.Errorf("vector for %s has %d dimensions, index expects %d", id, len(vec), ix.dims)
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)

	ix.mu.Lock()
	ix.entries[id] = &entry{
		vec:         stored,
		norm:        norm(stored),
		publishedAt: publishedAt,
	}
	size := len(ix.entries)
	ix.mu.Unlock()

	metrics.VectorIndexSize.Set(float64(size))
	return nil
}

// Remove deletes an article's vector. Removing an absent id is a no-op.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	delete(ix.entries, id)
	size := len(ix.entries)
	ix.mu.Unlock()

	metrics.VectorIndexSize.Set(float64(size))
}

// Search returns up to k nearest articles by cosine distance, ascending,
// with equal distances ordered by id. Zero-norm vectors on either side never
// match. The scan holds only the read lock, concurrent searches proceed in
// parallel.
func (ix *Index) Search(query []float32, k int, opts SearchOptions) ([]Result, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d", len(query), ix.dims)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	start := time.Now()
	top := cache.NewTopK[struct{}](k)

	ix.mu.RLock()
	for id, e := range ix.entries {
		if e.norm == 0 {
			continue
		}
		if !opts.PublishedAfter.IsZero() && e.publishedAt.Before(opts.PublishedAfter) {
			continue
		}
		if _, skip := opts.Exclude[id]; skip {
			continue
		}
		top.Push(id, struct{}{}, dot(query, e.vec)/(queryNorm*e.norm))
	}
	ix.mu.RUnlock()

	entries := top.Sorted()
	results := make([]Result, len(entries))
	for i, e := range entries {
		results[i] = Result{ID: e.Key, Distance: 1 - e.Score}
	}

	metrics.VectorSearchDuration.Observe(time.Since(start).Seconds())
	return results, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
