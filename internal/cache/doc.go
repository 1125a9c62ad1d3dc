// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
Package cache provides thread-safe in-memory data structures for caching,
counting, and text matching.

These implementations are tuned for the access patterns of the feed pipeline
and the ingestion path, where per-request database work has to be bounded.

# Structures

  - LRU: generic least-recently-used cache with TTL and an injectable clock.
    Backs the user profile cache so ranking does not replay interaction
    history on every feed request.
  - Cache: flat TTL map for API response caching (trending topics, admin
    stats) with hit/miss statistics.
  - SlidingWindowCounter / SlidingWindowStore: bucketed event counters.
    Back the per-article popularity signal over its 24-hour window without
    a database query per candidate.
  - TopK: bounded min-heap keeping the K highest-scoring entries.
    Backs vector search result selection.
  - AhoCorasick / PatternMatcher: multi-pattern string matching for topic
    lexicons and entity gazetteers during annotation.
  - BloomFilter / SeenFilter: probabilistic plus exact deduplication of
    canonical article URLs on the ingestion path.

# Clock Injection

LRU and the sliding window counters accept an explicit clock so expiry and
window advancement are testable without sleeping. Production callers use
the default constructors, which read time.Now.

# Thread Safety

All exported types are safe for concurrent use. Locks are per-structure;
none of the operations block on I/O.
*/
package cache
