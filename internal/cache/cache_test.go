// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package cache

import (
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("trending", []string{"politics", "technology"})

	value, found := c.Get("trending")
	if !found {
		t.Fatal("Expected cached value to be found")
	}
	topics, ok := value.([]string)
	if !ok || len(topics) != 2 {
		t.Errorf("Expected 2 topics, got %v", value)
	}
}

func TestCache_MissForAbsentKey(t *testing.T) {
	c := New(time.Minute)

	if _, found := c.Get("absent"); found {
		t.Error("Expected miss for absent key")
	}

	stats := c.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New(time.Minute)

	c.SetWithTTL("short", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("Expected entry to expire")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("Expected deleted key to be absent")
	}

	c.Clear()
	if _, found := c.Get("b"); found {
		t.Error("Expected cleared cache to be empty")
	}

	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("Expected 0 keys after clear, got %d", stats.TotalKeys)
	}
}

func TestCache_HitRate(t *testing.T) {
	c := New(time.Minute)

	if rate := c.HitRate(); rate != 0.0 {
		t.Errorf("Expected 0 hit rate before any access, got %f", rate)
	}

	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	rate := c.HitRate()
	expected := 2.0 / 3.0 * 100.0
	if rate < expected-0.01 || rate > expected+0.01 {
		t.Errorf("Expected hit rate %.2f, got %.2f", expected, rate)
	}
}

func TestGenerateKey_StableAndDistinct(t *testing.T) {
	type params struct {
		Window string
		Limit  int
	}

	k1 := GenerateKey("topics:trending", params{Window: "24h", Limit: 10})
	k2 := GenerateKey("topics:trending", params{Window: "24h", Limit: 10})
	k3 := GenerateKey("topics:trending", params{Window: "24h", Limit: 20})

	if k1 != k2 {
		t.Errorf("Expected identical params to produce identical keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("Expected different params to produce different keys")
	}
	if k1 == GenerateKey("admin:stats", params{Window: "24h", Limit: 10}) {
		t.Error("Expected endpoint name to differentiate keys")
	}
}
