// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package cache

import (
	"sync"
	"testing"
	"time"
)

func TestSlidingWindowCounter_BasicOperations(t *testing.T) {
	sw := NewSlidingWindowCounter(time.Minute, 10)

	if sw.Count() != 0 {
		t.Errorf("Expected initial count 0, got %d", sw.Count())
	}

	sw.IncrementOne()
	sw.IncrementOne()
	sw.Increment(3)

	if sw.Count() != 5 {
		t.Errorf("Expected count 5, got %d", sw.Count())
	}
}

func TestSlidingWindowCounter_WindowExpiration(t *testing.T) {
	clock := newFakeClock()
	sw := NewSlidingWindowCounterWithClock(24*time.Hour, 24, clock.Now)

	sw.Increment(10)
	if sw.Count() != 10 {
		t.Errorf("Expected count 10, got %d", sw.Count())
	}

	clock.Advance(25 * time.Hour)
	if sw.Count() != 0 {
		t.Errorf("Expected count 0 after window elapsed, got %d", sw.Count())
	}
}

func TestSlidingWindowCounter_PartialExpiration(t *testing.T) {
	clock := newFakeClock()
	// 24-hour window, hourly buckets.
	sw := NewSlidingWindowCounterWithClock(24*time.Hour, 24, clock.Now)

	sw.Increment(10)

	clock.Advance(12 * time.Hour)
	sw.Increment(5)

	if sw.Count() != 15 {
		t.Errorf("Expected count 15 mid-window, got %d", sw.Count())
	}

	// First batch began 12h before the second; after 13 more hours it has
	// rotated out while the second batch is still inside the window.
	clock.Advance(13 * time.Hour)
	if sw.Count() != 5 {
		t.Errorf("Expected count 5 after first batch expired, got %d", sw.Count())
	}
}

func TestSlidingWindowCounter_Reset(t *testing.T) {
	sw := NewSlidingWindowCounter(time.Minute, 10)

	sw.Increment(100)
	sw.Reset()

	if sw.Count() != 0 {
		t.Errorf("Expected count 0 after reset, got %d", sw.Count())
	}
}

func TestSlidingWindowCounter_Concurrent(t *testing.T) {
	sw := NewSlidingWindowCounter(time.Minute, 10)

	var wg sync.WaitGroup
	numGoroutines := 100
	incrementsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < incrementsPerGoroutine; j++ {
				sw.IncrementOne()
			}
		}()
	}
	wg.Wait()

	expected := int64(numGoroutines * incrementsPerGoroutine)
	if sw.Count() != expected {
		t.Errorf("Expected count %d, got %d", expected, sw.Count())
	}
}

func TestSlidingWindowStore_BasicOperations(t *testing.T) {
	store := NewSlidingWindowStore(24*time.Hour, 24, 0)

	store.Increment("article-1")
	store.Increment("article-1")
	store.IncrementBy("article-2", 5)

	if got := store.Count("article-1"); got != 2 {
		t.Errorf("Expected count 2 for article-1, got %d", got)
	}
	if got := store.Count("article-2"); got != 5 {
		t.Errorf("Expected count 5 for article-2, got %d", got)
	}
	if got := store.Count("unknown"); got != 0 {
		t.Errorf("Expected count 0 for unknown key, got %d", got)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 counters, got %d", store.Len())
	}
}

func TestSlidingWindowStore_WindowedCounts(t *testing.T) {
	clock := newFakeClock()
	store := NewSlidingWindowStoreWithClock(24*time.Hour, 24, 0, clock.Now)

	store.IncrementBy("article-1", 30)
	clock.Advance(25 * time.Hour)
	store.IncrementBy("article-1", 7)

	if got := store.Count("article-1"); got != 7 {
		t.Errorf("Expected only recent events counted, got %d", got)
	}
}

func TestSlidingWindowStore_MaxKeys(t *testing.T) {
	store := NewSlidingWindowStore(time.Minute, 10, 2)

	store.Increment("a")
	store.Increment("b")
	store.Increment("c")

	if store.Len() != 2 {
		t.Errorf("Expected store capped at 2 counters, got %d", store.Len())
	}
}

func TestSlidingWindowStore_CleanupInactive(t *testing.T) {
	clock := newFakeClock()
	store := NewSlidingWindowStoreWithClock(24*time.Hour, 24, 0, clock.Now)

	store.Increment("stale")
	clock.Advance(25 * time.Hour)
	store.Increment("active")

	removed := store.CleanupInactive()
	if removed != 1 {
		t.Errorf("Expected 1 counter removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 counter remaining, got %d", store.Len())
	}
	if got := store.Count("active"); got != 1 {
		t.Errorf("Expected active counter preserved, got %d", got)
	}
}

func TestSlidingWindowStore_RemoveAndClear(t *testing.T) {
	store := NewSlidingWindowStore(time.Minute, 10, 0)

	store.Increment("a")
	store.Increment("b")

	store.Remove("a")
	if store.Count("a") != 0 {
		t.Error("Expected removed counter to report 0")
	}

	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Expected empty store after clear, got %d", store.Len())
	}
}
