// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package cache

import (
	"sync"
	"time"
)

// SlidingWindowCounter is a memory-efficient sliding window counter.
// It divides the window into fixed buckets and sums them on read, so a
// 24-hour window with hourly buckets costs 24 int64s per counter.
//
// Complexity:
//   - Increment: O(1)
//   - Count: O(k) where k = number of buckets
type SlidingWindowCounter struct {
	mu         sync.Mutex
	now        func() time.Time
	buckets    []int64       // circular buffer of bucket counts
	bucketSize time.Duration // duration of each bucket
	windowSize time.Duration // total window duration
	numBuckets int
	current    int       // current bucket index
	lastUpdate time.Time // last window advancement
}

// NewSlidingWindowCounter creates a counter over the given window divided
// into numBuckets buckets, reading time from time.Now.
func NewSlidingWindowCounter(windowSize time.Duration, numBuckets int) *SlidingWindowCounter {
	return NewSlidingWindowCounterWithClock(windowSize, numBuckets, time.Now)
}

// NewSlidingWindowCounterWithClock creates a counter with an explicit clock.
func NewSlidingWindowCounterWithClock(windowSize time.Duration, numBuckets int, now func() time.Time) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 24
	}
	if windowSize <= 0 {
		windowSize = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}

	return &SlidingWindowCounter{
		now:        now,
		buckets:    make([]int64, numBuckets),
		bucketSize: windowSize / time.Duration(numBuckets),
		windowSize: windowSize,
		numBuckets: numBuckets,
		lastUpdate: now(),
	}
}

// Increment adds delta to the current bucket.
func (sw *SlidingWindowCounter) Increment(delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()
	sw.buckets[sw.current] += delta
}

// IncrementOne adds 1 to the current bucket.
func (sw *SlidingWindowCounter) IncrementOne() {
	sw.Increment(1)
}

// Count returns the sum of all buckets in the window.
func (sw *SlidingWindowCounter) Count() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()

	var total int64
	for _, count := range sw.buckets {
		total += count
	}
	return total
}

// Reset clears all buckets.
func (sw *SlidingWindowCounter) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	for i := range sw.buckets {
		sw.buckets[i] = 0
	}
	sw.current = 0
	sw.lastUpdate = sw.now()
}

// advance rotates the window forward based on elapsed time.
// Must be called with the lock held.
func (sw *SlidingWindowCounter) advance() {
	now := sw.now()
	elapsed := now.Sub(sw.lastUpdate)

	bucketsElapsed := int(elapsed / sw.bucketSize)
	if bucketsElapsed <= 0 {
		return
	}

	if bucketsElapsed >= sw.numBuckets {
		// Entire window elapsed, clear everything.
		for i := range sw.buckets {
			sw.buckets[i] = 0
		}
		sw.current = 0
	} else {
		for i := 0; i < bucketsElapsed; i++ {
			sw.current = (sw.current + 1) % sw.numBuckets
			sw.buckets[sw.current] = 0
		}
	}

	sw.lastUpdate = now
}

// SlidingWindowStore manages sliding window counters by key. It backs the
// per-article popularity signal: the event pipeline increments an
// article's counter on every interaction, and the scorer reads Count to
// price recent attention without touching the database.
type SlidingWindowStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	counters   map[string]*SlidingWindowCounter
	windowSize time.Duration
	numBuckets int
	maxKeys    int // maximum number of keys (0 = unlimited)
}

// NewSlidingWindowStore creates a store whose counters read time.Now.
func NewSlidingWindowStore(windowSize time.Duration, numBuckets, maxKeys int) *SlidingWindowStore {
	return NewSlidingWindowStoreWithClock(windowSize, numBuckets, maxKeys, time.Now)
}

// NewSlidingWindowStoreWithClock creates a store with an explicit clock
// shared by all counters it creates.
func NewSlidingWindowStoreWithClock(windowSize time.Duration, numBuckets, maxKeys int, now func() time.Time) *SlidingWindowStore {
	if now == nil {
		now = time.Now
	}
	return &SlidingWindowStore{
		now:        now,
		counters:   make(map[string]*SlidingWindowCounter),
		windowSize: windowSize,
		numBuckets: numBuckets,
		maxKeys:    maxKeys,
	}
}

// Increment adds 1 to the counter for the given key.
func (s *SlidingWindowStore) Increment(key string) {
	s.IncrementBy(key, 1)
}

// IncrementBy adds delta to the counter for the given key, creating the
// counter on first use.
func (s *SlidingWindowStore) IncrementBy(key string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, exists := s.counters[key]
	if !exists {
		if s.maxKeys > 0 && len(s.counters) >= s.maxKeys {
			s.evictAny()
		}
		counter = NewSlidingWindowCounterWithClock(s.windowSize, s.numBuckets, s.now)
		s.counters[key] = counter
	}

	counter.Increment(delta)
}

// Count returns the windowed count for the given key, 0 for unknown keys.
func (s *SlidingWindowStore) Count(key string) int64 {
	s.mu.RLock()
	counter, exists := s.counters[key]
	s.mu.RUnlock()

	if !exists {
		return 0
	}
	return counter.Count()
}

// Remove deletes the counter for the given key.
func (s *SlidingWindowStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
}

// Keys returns all keys currently tracked.
func (s *SlidingWindowStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.counters))
	for key := range s.counters {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of counters in the store.
func (s *SlidingWindowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters)
}

// Clear removes all counters.
func (s *SlidingWindowStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]*SlidingWindowCounter)
}

// CleanupInactive removes counters whose windows have fully drained.
// Returns the number removed. Intended for a periodic maintenance tick so
// articles that stopped receiving events do not pin memory.
func (s *SlidingWindowStore) CleanupInactive() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, counter := range s.counters {
		if counter.Count() == 0 {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

// evictAny removes one counter when at capacity. Map iteration order makes
// the choice effectively random; at popularity-store scale this is an
// acceptable trade for O(1) eviction.
// Must be called with the lock held.
func (s *SlidingWindowStore) evictAny() {
	for key := range s.counters {
		delete(s.counters, key)
		return
	}
}
