// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package cache

import (
	"sort"
	"sync"
)

// TopKEntry is one scored entry held by a TopK heap.
type TopKEntry[T any] struct {
	Key   string
	Value T
	Score float64
	index int // position in the heap array, kept for O(log n) updates
}

// TopK keeps the K highest-scoring entries seen so far. Internally it is
// a min-heap whose root is the current worst entry, so accepting a better
// candidate is an O(log k) replace. A parallel map gives O(1) key lookup
// and lets a re-pushed key keep its best score.
//
// Ties are deterministic: among equal scores the smaller key wins, so a
// full scan over the same inputs always selects the same K entries. The
// vector index relies on this when truncating similarity results.
type TopK[T any] struct {
	mu    sync.Mutex
	heap  []*TopKEntry[T]
	byKey map[string]*TopKEntry[T]
	limit int
}

// NewTopK creates a selector that retains the limit highest-scoring
// entries. A limit <= 0 means unbounded.
func NewTopK[T any](limit int) *TopK[T] {
	return &TopK[T]{
		heap:  make([]*TopKEntry[T], 0, max(limit, 0)),
		byKey: make(map[string]*TopKEntry[T]),
		limit: limit,
	}
}

// Push offers an entry. If the key is already present the entry keeps the
// higher of the two scores. Returns true if the entry is retained after
// any eviction.
func (t *TopK[T]) Push(key string, value T, score float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, exists := t.byKey[key]; exists {
		if score > existing.Score {
			existing.Score = score
			existing.Value = value
			t.fix(existing.index)
		}
		return true
	}

	entry := &TopKEntry[T]{Key: key, Value: value, Score: score}

	if t.limit > 0 && len(t.heap) >= t.limit {
		worst := t.heap[0]
		if !t.worse(worst, entry) {
			// Candidate is no better than the current worst.
			return false
		}
		t.removeAt(0)
	}

	entry.index = len(t.heap)
	t.heap = append(t.heap, entry)
	t.byKey[key] = entry
	t.bubbleUp(entry.index)
	return true
}

// Len returns the number of retained entries.
func (t *TopK[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.heap)
}

// Min returns the worst retained entry without removing it, or nil when
// empty. Useful as an admission threshold during scans.
func (t *TopK[T]) Min() *TopKEntry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.heap) == 0 {
		return nil
	}
	return t.heap[0]
}

// Sorted returns the retained entries ordered by descending score, with
// ascending key among equals. The heap is left intact.
func (t *TopK[T]) Sorted() []TopKEntry[T] {
	t.mu.Lock()
	entries := make([]TopKEntry[T], len(t.heap))
	for i, e := range t.heap {
		entries[i] = *e
	}
	t.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Clear removes all entries.
func (t *TopK[T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.heap = t.heap[:0]
	t.byKey = make(map[string]*TopKEntry[T])
}

// Internal heap operations, called with the lock held.

// worse reports whether a ranks below b: lower score, or equal score with
// the larger key.
func (t *TopK[T]) worse(a, b *TopKEntry[T]) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Key > b.Key
}

func (t *TopK[T]) removeAt(i int) {
	n := len(t.heap) - 1
	entry := t.heap[i]
	delete(t.byKey, entry.Key)

	if i == n {
		t.heap = t.heap[:n]
		return
	}

	t.heap[i] = t.heap[n]
	t.heap[i].index = i
	t.heap = t.heap[:n]
	t.fix(i)
}

func (t *TopK[T]) fix(i int) {
	if t.bubbleUp(i) {
		return
	}
	t.bubbleDown(i)
}

func (t *TopK[T]) bubbleUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !t.worse(t.heap[i], t.heap[parent]) {
			break
		}
		t.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (t *TopK[T]) bubbleDown(i int) {
	n := len(t.heap)
	for {
		worst := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && t.worse(t.heap[left], t.heap[worst]) {
			worst = left
		}
		if right < n && t.worse(t.heap[right], t.heap[worst]) {
			worst = right
		}
		if worst == i {
			break
		}

		t.swap(i, worst)
		i = worst
	}
}

func (t *TopK[T]) swap(i, j int) {
	t.heap[i], t.heap[j] = t.heap[j], t.heap[i]
	t.heap[i].index = i
	t.heap[j].index = j
}
