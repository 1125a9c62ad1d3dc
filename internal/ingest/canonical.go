// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL normalizes an article URL into its dedup identity: scheme and
// host lowercased, utm_* tracking parameters removed, everything else kept
// as-is including parameter order and fragment. The same story shared via
// different campaign links collapses to one canonical form.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}

	u.Host = strings.ToLower(u.Host)
	u.RawQuery = stripTracking(u.RawQuery)
	return u.String(), nil
}

// stripTracking removes utm_* parameters from a raw query string without
// re-encoding the survivors, so the canonical form never diverges from the
// publisher's own encoding.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
