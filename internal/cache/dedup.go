// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package cache

import (
	"hash/fnv"
	"math"
	"math/bits"
	"sync"
	"time"
)

// BloomFilter is a probabilistic set membership structure.
//
// Characteristics:
//   - No false negatives: a false Test means the item was never added
//   - Tunable false positives: a true Test needs verification
//   - ~10 bits per element at a 1% false positive rate
//   - Items cannot be removed
//
// On the ingestion path it pre-filters canonical URLs: most unseen URLs
// short-circuit here, and only possible repeats pay for the exact check.
type BloomFilter struct {
	mu       sync.RWMutex
	bits     []uint64
	size     uint64 // number of bits
	hashFns  int
	count    int
	capacity int
}

// NewBloomFilter sizes a filter for the expected number of unique items
// and target false positive rate (e.g. 0.01 for 1%).
func NewBloomFilter(expectedItems int, falsePositiveRate float64) *BloomFilter {
	if expectedItems <= 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	// Optimal sizing: m = -n*ln(p)/ln(2)^2 bits, k = (m/n)*ln(2) hashes.
	ln2 := math.Ln2
	m := int(-float64(expectedItems) * math.Log(falsePositiveRate) / (ln2 * ln2))
	if m < 64 {
		m = 64
	}

	k := int(float64(m) / float64(expectedItems) * ln2)
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10 // diminishing returns beyond this
	}

	words := (m + 63) / 64
	return &BloomFilter{
		bits:     make([]uint64, words),
		size:     uint64(words * 64),
		hashFns:  k,
		capacity: expectedItems,
	}
}

// Add inserts an item.
func (bf *BloomFilter) Add(key string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for _, h := range bf.hashes(key) {
		idx := h % bf.size
		bf.bits[idx/64] |= 1 << (idx % 64)
	}
	bf.count++
}

// Test reports whether an item might be present. False means definitely
// absent; true requires verification against an exact source.
func (bf *BloomFilter) Test(key string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	for _, h := range bf.hashes(key) {
		idx := h % bf.size
		if bf.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// Clear resets the filter.
func (bf *BloomFilter) Clear() {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.count = 0
}

// Count returns the number of Add calls, duplicates included.
func (bf *BloomFilter) Count() int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.count
}

// FillRatio returns the fraction of set bits, a saturation indicator.
func (bf *BloomFilter) FillRatio() float64 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	set := 0
	for _, word := range bf.bits {
		set += bits.OnesCount64(word)
	}
	return float64(set) / float64(bf.size)
}

// hashes derives k hash values via double hashing: h(i) = h1 + i*h2.
// Cheaper than k independent functions with equivalent distribution.
func (bf *BloomFilter) hashes(key string) []uint64 {
	h1 := fnv.New64a()
	h1.Write([]byte(key))
	hash1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write([]byte(key))
	h2.Write([]byte{0xff}) // salt to decorrelate from h1
	hash2 := h2.Sum64()

	out := make([]uint64, bf.hashFns)
	for i := 0; i < bf.hashFns; i++ {
		out[i] = hash1 + uint64(i)*hash2
	}
	return out
}

// SeenFilter deduplicates keys within a TTL window by layering a Bloom
// filter over an exact LRU. The Bloom filter absorbs the common case of
// brand-new keys; the LRU resolves potential repeats exactly and ages
// entries out so a URL becomes eligible again after the TTL.
//
// Ingestion uses one SeenFilter per process, keyed by canonical URL, to
// avoid re-annotating and re-upserting articles every fetch cycle. A
// Bloom false positive only costs an LRU lookup, never a wrong answer.
type SeenFilter struct {
	mu    sync.Mutex
	bloom *BloomFilter
	lru   *LRU[time.Time]
	now   func() time.Time

	bloomNegatives int64
	lruChecks      int64
	duplicates     int64
}

// NewSeenFilter creates a filter remembering up to capacity keys for ttl.
func NewSeenFilter(capacity int, ttl time.Duration, falsePositiveRate float64) *SeenFilter {
	return NewSeenFilterWithClock(capacity, ttl, falsePositiveRate, time.Now)
}

// NewSeenFilterWithClock creates a filter with an explicit clock.
func NewSeenFilterWithClock(capacity int, ttl time.Duration, falsePositiveRate float64, now func() time.Time) *SeenFilter {
	if now == nil {
		now = time.Now
	}
	return &SeenFilter{
		bloom: NewBloomFilter(capacity, falsePositiveRate),
		lru:   NewLRUWithClock[time.Time](capacity, ttl, now),
		now:   now,
	}
}

// Seen reports whether the key was seen within the TTL window, recording
// it either way. The check-and-record pair is atomic with respect to
// other Seen calls.
func (f *SeenFilter) Seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.bloom.Test(key) {
		f.bloomNegatives++
		f.bloom.Add(key)
		f.lru.Add(key, f.now())
		return false
	}

	f.lruChecks++
	if f.lru.Contains(key) {
		f.duplicates++
		f.lru.Add(key, f.now()) // refresh recency and TTL
		return true
	}

	// Expired entry or Bloom false positive.
	f.bloom.Add(key)
	f.lru.Add(key, f.now())
	return false
}

// Record marks a key as seen without a duplicate check.
func (f *SeenFilter) Record(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bloom.Add(key)
	f.lru.Add(key, f.now())
}

// Contains checks membership without recording.
func (f *SeenFilter) Contains(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.bloom.Test(key) {
		return false
	}
	return f.lru.Contains(key)
}

// CleanupExpired drops expired LRU entries. The Bloom filter cannot be
// cleaned; its false positive rate drifts up until Clear.
func (f *SeenFilter) CleanupExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lru.CleanupExpired()
}

// Clear resets both layers and the counters.
func (f *SeenFilter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bloom.Clear()
	f.lru.Clear()
	f.bloomNegatives = 0
	f.lruChecks = 0
	f.duplicates = 0
}

// Len returns the number of exactly-tracked keys.
func (f *SeenFilter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lru.Len()
}

// Stats returns fast-path/slow-path/duplicate counters and the exact
// tracker size.
func (f *SeenFilter) Stats() (bloomNegatives, lruChecks, duplicates int64, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bloomNegatives, f.lruChecks, f.duplicates, f.lru.Len()
}
