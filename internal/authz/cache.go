// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package authz

import (
	"sync"
	"time"
)

// decisionCache memoizes enforcement results. Entries expire on TTL; a
// background sweep keeps the map from accumulating dead keys.
type decisionCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	entries  map[string]decision
	stopCh   chan struct{}
	stopOnce sync.Once
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:     ttl,
		entries: make(map[string]decision),
		stopCh:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

func cacheKey(subject, object, action string) string {
	return subject + "\x00" + object + "\x00" + action
}

func (c *decisionCache) get(subject, object, action string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(subject, object, action)]
	if !ok || time.Now().After(entry.expiresAt) {
		return false, false
	}
	return entry.allowed, true
}

func (c *decisionCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(subject, object, action)] = decision{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *decisionCache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop is idempotent.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
