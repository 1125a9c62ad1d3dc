// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/intellweave/intellweave/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Wire</title>
<language>en-US</language>
<item>
<title>Quantum computing milestone &amp; what it means</title>
<link>https://news.example/science/quantum?utm_source=rss</link>
<description><![CDATA[<p>Researchers hit a <b>milestone</b>.</p><p>More detail inside.</p>]]></description>
<pubDate>Thu, 20 Aug 2026 10:30:00 +0000</pubDate>
</item>
<item>
<title>Second story</title>
<link>https://news.example/world/second</link>
<description>Plain text summary.</description>
</item>
<item>
<title>No link here</title>
<description>Orphan entry.</description>
</item>
</channel>
</rss>`

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testIngestConfig(feedURL string) *config.IngestConfig {
	return &config.IngestConfig{
		Enabled:         true,
		Sources:         []config.FeedSource{{Name: "wire", URL: feedURL}},
		DefaultSchedule: "@every 15m",
		FetchTimeout:    5 * time.Second,
		MaxBodyChars:    20000,
	}
}

func TestSchedulerSweepStoresFeedItems(t *testing.T) {
	srv := feedServer(t)
	cfg := testIngestConfig(srv.URL + "/feed.xml")

	store := newFakeArticleStore()
	p := newTestPipeline(t, store, &fakeEmbedder{}, newFakeIndexer())
	sched, err := NewScheduler(cfg, NewFetcher(cfg), p)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	sched.SweepAll(context.Background())

	if got := store.count(); got != 2 {
		t.Fatalf("Expected 2 stored articles, got %d", got)
	}

	first := store.article("https://news.example/science/quantum")
	if first == nil {
		t.Fatal("Expected the quantum story stored under its canonical URL")
	}
	if first.Source != "wire" {
		t.Errorf("Expected source name from config, got %q", first.Source)
	}
	if first.Language != "en" {
		t.Errorf("Expected base language en, got %q", first.Language)
	}
	if first.Title != "Quantum computing milestone & what it means" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	want := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	if first.PublishedAt == nil || !first.PublishedAt.Equal(want) {
		t.Errorf("Expected published time %v, got %v", want, first.PublishedAt)
	}
	if !strings.Contains(first.BodyText, "Researchers hit a milestone.") {
		t.Errorf("Expected description markup flattened, got %q", first.BodyText)
	}
	if !strings.Contains(first.BodyText, "\nMore detail inside.") {
		t.Errorf("Expected paragraphs joined by newline, got %q", first.BodyText)
	}

	// A second sweep only sees duplicates.
	sched.SweepAll(context.Background())
	if got := store.upsertCount(); got != 2 {
		t.Errorf("Expected no new upserts on the second sweep, got %d", got)
	}
	if stats := p.Stats(); stats.Duplicates != 2 {
		t.Errorf("Expected 2 duplicates after the second sweep, got %d", stats.Duplicates)
	}
}

func TestSchedulerSurvivesBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cfg := testIngestConfig(srv.URL + "/feed.xml")
	store := newFakeArticleStore()
	p := newTestPipeline(t, store, &fakeEmbedder{}, newFakeIndexer())
	sched, err := NewScheduler(cfg, NewFetcher(cfg), p)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	sched.SweepAll(context.Background())
	if got := store.count(); got != 0 {
		t.Errorf("Expected nothing stored from a failing feed, got %d", got)
	}
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	cfg := testIngestConfig("https://news.example/feed.xml")
	cfg.Sources[0].Schedule = "every 5 minutes"

	p := newTestPipeline(t, newFakeArticleStore(), &fakeEmbedder{}, newFakeIndexer())
	if _, err := NewScheduler(cfg, NewFetcher(cfg), p); err == nil {
		t.Fatal("Expected error for an invalid schedule expression")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	srv := feedServer(t)
	cfg := testIngestConfig(srv.URL + "/feed.xml")

	store := newFakeArticleStore()
	p := newTestPipeline(t, store, &fakeEmbedder{}, newFakeIndexer())
	sched, err := NewScheduler(cfg, NewFetcher(cfg), p)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	sched.Start(ctx) // second call is a no-op

	waitFor(t, 5*time.Second, "initial sweep to store both articles", func() bool {
		return store.count() == 2
	})

	sched.Stop()
	sched.Stop() // second call is a no-op
}

func TestFeedArticleMapping(t *testing.T) {
	published := time.Date(2026, 8, 18, 8, 0, 0, 0, time.UTC)
	item := &gofeed.Item{
		Title:           "Hello <em>there</em>",
		Link:            " https://news.example/a ",
		Content:         "<p>Alpha</p><p>Beta</p>",
		Description:     "ignored when content is present",
		Authors:         []*gofeed.Person{{Name: "Ana Author"}},
		PublishedParsed: &published,
	}
	feed := &gofeed.Feed{Language: "en-GB"}
	src := config.FeedSource{Name: "wire"}

	article := feedArticle(src, feed, item, 20000)
	if article == nil {
		t.Fatal("Expected an article from a well-formed item")
	}
	if article.Title != "Hello there" {
		t.Errorf("Expected markup stripped from title, got %q", article.Title)
	}
	if article.BodyText != "Alpha\nBeta" {
		t.Errorf("Expected content paragraphs, got %q", article.BodyText)
	}
	if article.URL != "https://news.example/a" {
		t.Errorf("Expected trimmed link, got %q", article.URL)
	}
	if article.Author != "Ana Author" {
		t.Errorf("Expected first listed author, got %q", article.Author)
	}
	if article.Language != "en" {
		t.Errorf("Expected base language en, got %q", article.Language)
	}
	if article.Source != "wire" {
		t.Errorf("Expected source name wire, got %q", article.Source)
	}
	if article.PublishedAt == nil || !article.PublishedAt.Equal(published) {
		t.Errorf("Expected published time %v, got %v", published, article.PublishedAt)
	}
}

func TestFeedArticleEdgeCases(t *testing.T) {
	src := config.FeedSource{Name: "wire"}
	feed := &gofeed.Feed{}

	if got := feedArticle(src, feed, nil, 20000); got != nil {
		t.Errorf("Expected nil for a nil item, got %+v", got)
	}
	if got := feedArticle(src, feed, &gofeed.Item{Title: "no link"}, 20000); got != nil {
		t.Errorf("Expected nil for an item without a link, got %+v", got)
	}

	// Updated time stands in when no published time exists.
	updated := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	article := feedArticle(src, feed, &gofeed.Item{
		Link:          "https://news.example/b",
		Title:         "Updated only",
		UpdatedParsed: &updated,
	}, 20000)
	if article == nil {
		t.Fatal("Expected an article")
	}
	if article.PublishedAt == nil || !article.PublishedAt.Equal(updated) {
		t.Errorf("Expected updated time as fallback, got %v", article.PublishedAt)
	}

	// The body cap applies to feed content too.
	article = feedArticle(src, feed, &gofeed.Item{
		Link:    "https://news.example/c",
		Title:   "Capped",
		Content: "<p>abcdefghij</p>",
	}, 4)
	if article.BodyText != "abcd" {
		t.Errorf("Expected capped body, got %q", article.BodyText)
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en-US", "en"},
		{"EN", "en"},
		{"pt_BR", "pt"},
		{"deu", "deu"},
		{"", ""},
		{"english", ""},
		{"x", ""},
	}
	for _, tt := range tests {
		if got := baseLanguage(tt.in); got != tt.want {
			t.Errorf("baseLanguage(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
