// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package cache

import (
	"strings"
	"sync"
)

// AhoCorasick implements the Aho-Corasick multi-pattern matching
// algorithm. It finds all occurrences of every pattern in a text in
// O(n + m + z) time, where n is the text length, m the total pattern
// length, and z the number of matches. This beats per-pattern scanning
// (O(n * patterns)) by a wide margin for the lexicon sizes used here.
//
// Use cases in this codebase:
//   - Topic lexicons: match a few hundred topic keywords against article
//     title and body during annotation
//   - Entity gazetteers: case-sensitive matching of known organization
//     and location names
//
// Example:
//
//	ac := NewAhoCorasick()
//	ac.AddPattern("quantum computing", "technology")
//	ac.AddPattern("interest rate", "finance")
//	ac.Build()
//
//	matches := ac.Search("The central bank held the interest rate steady")
type AhoCorasick struct {
	mu            sync.RWMutex
	root          *acNode
	patterns      []Pattern
	built         bool
	caseSensitive bool
}

// acNode is one node of the automaton.
type acNode struct {
	children map[rune]*acNode
	failure  *acNode // fallback when the next rune has no edge
	output   []int   // indices of patterns ending at this node
	depth    int
}

// Pattern is a search pattern with associated data, typically the
// canonical topic or entity type the surface form maps to.
type Pattern struct {
	Text string
	Data any
}

// Match is one pattern occurrence. Position is the byte offset of the
// match start, which callers use for word-boundary checks against the
// original text.
type Match struct {
	Pattern  string
	Data     any
	Position int
}

// NewAhoCorasick creates a case-insensitive automaton, the right mode for
// topic keyword lexicons.
func NewAhoCorasick() *AhoCorasick {
	return &AhoCorasick{
		root:          newACNode(0),
		caseSensitive: false,
	}
}

// NewAhoCorasickCaseSensitive creates a case-sensitive automaton, used
// for entity gazetteers where casing distinguishes names from common
// words.
func NewAhoCorasickCaseSensitive() *AhoCorasick {
	return &AhoCorasick{
		root:          newACNode(0),
		caseSensitive: true,
	}
}

func newACNode(depth int) *acNode {
	return &acNode{
		children: make(map[rune]*acNode),
		output:   make([]int, 0),
		depth:    depth,
	}
}

// AddPattern registers a pattern. Build must be called before searching.
func (ac *AhoCorasick) AddPattern(pattern string, data any) {
	if pattern == "" {
		return
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.built {
		ac.built = false // needs rebuild
	}
	ac.patterns = append(ac.patterns, Pattern{Text: pattern, Data: data})
}

// AddPatterns registers multiple patterns sharing the same data value.
func (ac *AhoCorasick) AddPatterns(patterns []string, data any) {
	for _, p := range patterns {
		ac.AddPattern(p, data)
	}
}

// Build constructs the automaton from the registered patterns.
func (ac *AhoCorasick) Build() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.built {
		return
	}

	ac.root = newACNode(0)
	for i, p := range ac.patterns {
		ac.insertPattern(i, p.Text)
	}
	ac.buildFailureLinks()
	ac.built = true
}

func (ac *AhoCorasick) insertPattern(index int, pattern string) {
	node := ac.root

	text := pattern
	if !ac.caseSensitive {
		text = strings.ToLower(pattern)
	}

	for _, ch := range text {
		if node.children[ch] == nil {
			node.children[ch] = newACNode(node.depth + 1)
		}
		node = node.children[ch]
	}
	node.output = append(node.output, index)
}

// buildFailureLinks wires fallback edges via BFS, merging output sets so
// nested patterns report at the same position.
func (ac *AhoCorasick) buildFailureLinks() {
	queue := make([]*acNode, 0)
	for _, child := range ac.root.children {
		child.failure = ac.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}

			if fail == nil {
				child.failure = ac.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

// Search finds all pattern matches in the text.
func (ac *AhoCorasick) Search(text string) []Match {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return nil
	}

	searchText := text
	if !ac.caseSensitive {
		searchText = strings.ToLower(text)
	}

	var matches []Match
	node := ac.root

	for i, ch := range searchText {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = ac.root
			continue
		}
		node = node.children[ch]

		for _, patternIdx := range node.output {
			pattern := ac.patterns[patternIdx]
			matches = append(matches, Match{
				Pattern:  pattern.Text,
				Data:     pattern.Data,
				Position: i - len(pattern.Text) + 1,
			})
		}
	}
	return matches
}

// SearchFirst returns the first match only, cheaper than Search when one
// hit is enough.
func (ac *AhoCorasick) SearchFirst(text string) (Match, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return Match{}, false
	}

	searchText := text
	if !ac.caseSensitive {
		searchText = strings.ToLower(text)
	}

	node := ac.root
	for i, ch := range searchText {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = ac.root
			continue
		}
		node = node.children[ch]

		if len(node.output) > 0 {
			patternIdx := node.output[0]
			pattern := ac.patterns[patternIdx]
			return Match{
				Pattern:  pattern.Text,
				Data:     pattern.Data,
				Position: i - len(pattern.Text) + 1,
			}, true
		}
	}
	return Match{}, false
}

// Contains reports whether any pattern occurs in the text.
func (ac *AhoCorasick) Contains(text string) bool {
	_, found := ac.SearchFirst(text)
	return found
}

// PatternCount returns the number of registered patterns.
func (ac *AhoCorasick) PatternCount() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return len(ac.patterns)
}

// Clear removes all patterns and resets the automaton.
func (ac *AhoCorasick) Clear() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.root = newACNode(0)
	ac.patterns = nil
	ac.built = false
}

// PatternMatcher is a built, ready-to-search automaton for the common
// "construct once from a lexicon, search many times" pattern.
type PatternMatcher struct {
	ac *AhoCorasick
}

// NewPatternMatcher builds a case-insensitive matcher from pattern->data
// pairs.
func NewPatternMatcher(patterns map[string]any) *PatternMatcher {
	ac := NewAhoCorasick()
	for pattern, data := range patterns {
		ac.AddPattern(pattern, data)
	}
	ac.Build()
	return &PatternMatcher{ac: ac}
}

// NewPatternMatcherCaseSensitive builds an exact-case matcher, the right
// mode for proper-noun gazetteers where case is the signal.
func NewPatternMatcherCaseSensitive(patterns map[string]any) *PatternMatcher {
	ac := NewAhoCorasickCaseSensitive()
	for pattern, data := range patterns {
		ac.AddPattern(pattern, data)
	}
	ac.Build()
	return &PatternMatcher{ac: ac}
}

// NewPatternMatcherFromSlice builds a matcher whose patterns all share
// one data value.
func NewPatternMatcherFromSlice(patterns []string, data any) *PatternMatcher {
	ac := NewAhoCorasick()
	ac.AddPatterns(patterns, data)
	ac.Build()
	return &PatternMatcher{ac: ac}
}

// Match returns all matches in the text.
func (pm *PatternMatcher) Match(text string) []Match {
	return pm.ac.Search(text)
}

// MatchFirst returns the first match in the text.
func (pm *PatternMatcher) MatchFirst(text string) (Match, bool) {
	return pm.ac.SearchFirst(text)
}

// Contains reports whether any pattern matches.
func (pm *PatternMatcher) Contains(text string) bool {
	return pm.ac.Contains(text)
}
