// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package ingest

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// subtitleMaxChars caps the first-heading subtitle; anything longer is body
// text wearing a heading tag.
const subtitleMaxChars = 300

// strictPolicy strips every tag and attribute. The policy is immutable after
// construction and safe for concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// Page is the article content extracted from one fetched HTML document.
type Page struct {
	Title        string
	Subtitle     string
	Author       string
	BodyText     string
	CanonicalURL string
	PublishedAt  *time.Time
}

// publishedMeta lists the metadata tags that carry a publish timestamp, in
// preference order.
var publishedMeta = []string{
	`meta[property='article:published_time']`,
	`meta[name='pubdate']`,
	`meta[name='date']`,
	`meta[itemprop='datePublished']`,
}

// authorMeta lists the metadata tags that carry a byline, in preference order.
var authorMeta = []string{
	`meta[name='author']`,
	`meta[property='article:author']`,
	`meta[name='byl']`,
}

// ExtractPage pulls article content out of a fetched HTML document. The title
// comes from og:title, the document title or the first h1; the subtitle is the
// first h2/h3; the body is the paragraph text joined by newlines and capped at
// maxBody. The canonical URL honors a rel=canonical link when the page
// declares one, resolved against fetchedURL, and falls back to fetchedURL
// itself.
func ExtractPage(r io.Reader, fetchedURL string, maxBody int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	page := &Page{}

	page.Title = sanitizeText(doc.Find(`meta[property='og:title']`).First().AttrOr("content", ""))
	if page.Title == "" {
		page.Title = sanitizeText(doc.Find("title").First().Text())
	}
	if page.Title == "" {
		page.Title = sanitizeText(doc.Find("h1").First().Text())
	}

	page.Subtitle = clampText(sanitizeText(doc.Find("h2, h3").First().Text()), subtitleMaxChars)

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := sanitizeText(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	page.BodyText = clampText(strings.Join(paragraphs, "\n"), maxBody)

	page.CanonicalURL = canonicalFromDoc(doc, fetchedURL)

	for _, selector := range publishedMeta {
		content := strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
		if content == "" {
			continue
		}
		if ts, ok := parseMetaTime(content); ok {
			page.PublishedAt = &ts
			break
		}
	}

	for _, selector := range authorMeta {
		if author := sanitizeText(doc.Find(selector).First().AttrOr("content", "")); author != "" {
			page.Author = author
			break
		}
	}

	return page, nil
}

// canonicalFromDoc resolves the page's dedup identity: the first
// link rel=canonical href when present, otherwise the URL the page was
// fetched from. Relative canonical hrefs resolve against the fetched URL.
func canonicalFromDoc(doc *goquery.Document, fetchedURL string) string {
	declared := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return true
		}
		for _, token := range strings.Fields(rel) {
			if strings.EqualFold(token, "canonical") {
				declared = href
				return false
			}
		}
		return true
	})

	if declared != "" {
		if base, err := url.Parse(fetchedURL); err == nil {
			if ref, err := url.Parse(declared); err == nil {
				declared = base.ResolveReference(ref).String()
			}
		}
		if canonical, err := CanonicalURL(declared); err == nil {
			return canonical
		}
	}
	if canonical, err := CanonicalURL(fetchedURL); err == nil {
		return canonical
	}
	return fetchedURL
}

// ExtractText reduces an HTML fragment, as found in feed item descriptions,
// to plain text. Paragraphs become newline-separated lines; fragments without
// markup pass through with entities decoded and whitespace collapsed.
func ExtractText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return sanitizeText(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return sanitizeText(fragment)
	}
	doc.Find("script, style, noscript").Remove()

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := sanitizeText(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n")
	}
	return sanitizeText(doc.Text())
}

// sanitizeText strips any markup that survived extraction, decodes entities
// and collapses whitespace runs to single spaces.
func sanitizeText(s string) string {
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// clampText truncates s to at most max bytes without splitting a rune.
// max <= 0 disables the cap.
func clampText(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseMetaTime parses the timestamp formats publishers actually emit:
// RFC 3339, a bare ISO date-time and a bare date. Zone-less values are read
// as UTC.
func parseMetaTime(content string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, content); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
