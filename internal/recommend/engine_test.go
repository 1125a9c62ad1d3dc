// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/vector"
)

var fixedNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func frozenClock() func() time.Time {
	return func() time.Time { return fixedNow }
}

func testRecommendConfig() *config.RecommendConfig {
	return &config.RecommendConfig{
		ProfileWindow:         90 * 24 * time.Hour,
		ProfileEventCap:       500,
		ProfileCacheTTL:       15 * time.Minute,
		ProfileCacheSize:      100,
		CandidateWindow:       14 * 24 * time.Hour,
		RetrievalMultiple:     2,
		RetrievalTimeout:      2 * time.Second,
		RequestTimeout:        5 * time.Second,
		ContentWeight:         0.4,
		PopularityWeight:      0.2,
		FreshnessWeight:       0.2,
		CredibilityWeight:     0.2,
		PopularityWindow:      24 * time.Hour,
		PopularityDenominator: 50,
		FreshnessMode:         FreshnessModeStep,
		FreshnessHalfLife:     48 * time.Hour,
		DiversityFactor:       0.3,
		FallbackWindow:        7 * 24 * time.Hour,
		DefaultLimit:          20,
		MaxLimit:              100,
	}
}

// fakeStore implements Store with canned rows. Optional fn hooks override
// the canned behavior for tests that need blocking or context checks.
type fakeStore struct {
	mu sync.Mutex

	events    []models.UserEvent
	eventsErr error
	eventsFn  func(ctx context.Context, userID string, since time.Time, limit int) ([]models.UserEvent, error)

	consumed    map[string]struct{}
	consumedErr error

	recent    []models.AnnotatedArticle
	recentErr error
	recentFn  func(ctx context.Context, since time.Time, exclude map[string]struct{}, limit int) ([]models.AnnotatedArticle, error)

	byID    map[string]models.AnnotatedArticle
	byIDErr error

	fallbackRows []models.AnnotatedArticle
	fallbackErr  error
	fallbackFn   func(ctx context.Context, since time.Time, limit int) ([]models.AnnotatedArticle, error)

	prefs    *models.PreferredTopics
	prefsErr error

	eventCalls    int
	recentCalls   int
	fallbackCalls int

	gotEventsSince   time.Time
	gotEventsLimit   int
	gotRecentLimit   int
	gotRecentExclude map[string]struct{}
}

var _ Store = (*fakeStore)(nil)

func (s *fakeStore) ListUserEvents(ctx context.Context, userID string, since time.Time, limit int) ([]models.UserEvent, error) {
	s.mu.Lock()
	s.eventCalls++
	s.gotEventsSince = since
	s.gotEventsLimit = limit
	fn := s.eventsFn
	events := s.events
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, userID, since, limit)
	}
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	if limit > 0 && len(events) > limit {
		return events[:limit], nil
	}
	return events, nil
}

func (s *fakeStore) ConsumedArticleIDs(_ context.Context, _ string) (map[string]struct{}, error) {
	if s.consumedErr != nil {
		return nil, s.consumedErr
	}
	if s.consumed == nil {
		return map[string]struct{}{}, nil
	}
	return s.consumed, nil
}

func (s *fakeStore) ListRecent(ctx context.Context, since time.Time, exclude map[string]struct{}, limit int) ([]models.AnnotatedArticle, error) {
	s.mu.Lock()
	s.recentCalls++
	s.gotRecentLimit = limit
	s.gotRecentExclude = exclude
	fn := s.recentFn
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, since, exclude, limit)
	}
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	out := make([]models.AnnotatedArticle, 0, len(s.recent))
	for _, a := range s.recent {
		if _, skip := exclude[a.ID]; skip {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) ListByIDs(_ context.Context, ids []string) ([]models.AnnotatedArticle, error) {
	if s.byIDErr != nil {
		return nil, s.byIDErr
	}
	out := make([]models.AnnotatedArticle, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListFallback(ctx context.Context, since time.Time, limit int) ([]models.AnnotatedArticle, error) {
	s.mu.Lock()
	s.fallbackCalls++
	fn := s.fallbackFn
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, since, limit)
	}
	if s.fallbackErr != nil {
		return nil, s.fallbackErr
	}
	if limit > 0 && len(s.fallbackRows) > limit {
		return s.fallbackRows[:limit], nil
	}
	return s.fallbackRows, nil
}

func (s *fakeStore) GetPreferredTopics(_ context.Context, userID string) (*models.PreferredTopics, error) {
	if s.prefsErr != nil {
		return nil, s.prefsErr
	}
	if s.prefs != nil {
		return s.prefs, nil
	}
	return &models.PreferredTopics{UserID: userID, Topics: []string{}}, nil
}

type fakeSearcher struct {
	results  []vector.Result
	err      error
	gotQuery []float32
	gotK     int
	gotOpts  vector.SearchOptions
}

var _ VectorSearcher = (*fakeSearcher)(nil)

func (f *fakeSearcher) Search(query []float32, k int, opts vector.SearchOptions) ([]vector.Result, error) {
	f.gotQuery = query
	f.gotK = k
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	if k >= 0 && k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

type fakeEmbedder struct {
	vec     []float32
	err     error
	gotText string
}

var _ Embedder = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.gotText = text
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func feedArticle(id string, topics []string, published time.Time, credibility *float64) models.AnnotatedArticle {
	a := models.AnnotatedArticle{Topics: topics, Credibility: credibility}
	a.ID = id
	a.URL = "https://example.com/articles/" + id
	a.Title = "Article " + id
	a.PublishedAt = &published
	a.CreatedAt = published
	return a
}

func userEvent(eventType, articleID string, created time.Time, topics ...string) models.UserEvent {
	e := models.UserEvent{Topics: topics}
	e.ID = "ev-" + articleID + "-" + eventType
	e.UserID = "u1"
	e.ArticleID = articleID
	e.EventType = eventType
	e.CreatedAt = created
	return e
}

func floatPtr(v float64) *float64 { return &v }

func feedIDs(feed models.Feed) []string {
	ids := make([]string, len(feed.Items))
	for i, item := range feed.Items {
		ids[i] = item.Article.ID
	}
	return ids
}

// engineTestStore builds a store whose events give technology weight 10 and
// science weight 1, with three fresh unconsumed candidates.
func engineTestStore() *fakeStore {
	published := fixedNow.Add(-30 * time.Minute)
	events := make([]models.UserEvent, 0, 6)
	for i := 0; i < 5; i++ {
		events = append(events, userEvent(models.EventRead, "hist-1", fixedNow.Add(-time.Duration(i+1)*time.Hour), "technology"))
	}
	events = append(events, userEvent(models.EventClick, "hist-2", fixedNow.Add(-7*time.Hour), "science"))

	return &fakeStore{
		events: events,
		recent: []models.AnnotatedArticle{
			feedArticle("tech-1", []string{"technology"}, published, floatPtr(0.9)),
			feedArticle("tech-2", []string{"technology"}, published, floatPtr(0.8)),
			feedArticle("sci-1", []string{"science"}, published, floatPtr(0.9)),
		},
		fallbackRows: []models.AnnotatedArticle{
			feedArticle("fb-1", []string{"world"}, published, floatPtr(0.95)),
			feedArticle("fb-2", []string{"world"}, published, floatPtr(0.9)),
		},
	}
}

func newTestEngine(store *fakeStore) *Engine {
	return NewEngine(testRecommendConfig(), store, &fakeSearcher{}, &fakeEmbedder{}, nil, WithClock(frozenClock()))
}

func TestPersonalizedFeedHappyPath(t *testing.T) {
	store := engineTestStore()
	engine := newTestEngine(store)

	feed := engine.PersonalizedFeed(context.Background(), "u1", 10)

	if feed.ServedBy != ServedByPersonalized {
		t.Fatalf("Expected served_by %q, got %q", ServedByPersonalized, feed.ServedBy)
	}
	if feed.Degraded {
		t.Error("Expected non-degraded feed")
	}
	if len(feed.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(feed.Items))
	}

	// Blends: tech-1 0.88, tech-2 0.86, sci-1 0.52. At lambda 0.3 the second
	// pick trades tech-2's score for sci-1's novelty.
	ids := feedIDs(feed)
	want := []string{"tech-1", "sci-1", "tech-2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, ids)
		}
	}

	first := feed.Items[0]
	if first.Scores == nil {
		t.Fatal("Expected score breakdown on personalized items")
	}
	if first.Score != first.Scores.Final {
		t.Errorf("Expected item score %v to equal breakdown final %v", first.Score, first.Scores.Final)
	}
	if wantScore := 0.7 * 0.88; math.Abs(first.Score-wantScore) > 1e-9 {
		t.Errorf("Expected first score %v, got %v", wantScore, first.Score)
	}
	if math.Abs(first.Scores.Content-1.0) > 1e-9 {
		t.Errorf("Expected content 1.0 for tech-1, got %v", first.Scores.Content)
	}

	third := feed.Items[2]
	if wantScore := 0.7*0.86 - 0.3*0.5; math.Abs(third.Score-wantScore) > 1e-9 {
		t.Errorf("Expected third score %v, got %v", wantScore, third.Score)
	}
}

func TestPersonalizedFeedDiversityOverride(t *testing.T) {
	store := engineTestStore()
	engine := newTestEngine(store)

	plain := engine.PersonalizedFeed(context.Background(), "u1", 10, WithDiversityFactor(0))
	wantPlain := []string{"tech-1", "tech-2", "sci-1"}
	for i, id := range feedIDs(plain) {
		if id != wantPlain[i] {
			t.Fatalf("Expected score order %v with diversity 0, got %v", wantPlain, feedIDs(plain))
		}
	}

	diverse := engine.PersonalizedFeed(context.Background(), "u1", 10, WithDiversityFactor(1))
	wantDiverse := []string{"tech-1", "sci-1", "tech-2"}
	for i, id := range feedIDs(diverse) {
		if id != wantDiverse[i] {
			t.Fatalf("Expected novelty order %v with diversity 1, got %v", wantDiverse, feedIDs(diverse))
		}
	}
}

func TestPersonalizedFeedFallbackWhenNoCandidates(t *testing.T) {
	store := engineTestStore()
	store.recent = nil
	engine := newTestEngine(store)

	feed := engine.PersonalizedFeed(context.Background(), "u1", 5)

	if feed.ServedBy != ServedByFallback {
		t.Fatalf("Expected served_by %q, got %q", ServedByFallback, feed.ServedBy)
	}
	if feed.Degraded {
		t.Error("Expected empty retrieval without failures to stay non-degraded")
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 fallback items, got %d", len(feed.Items))
	}
	for _, item := range feed.Items {
		if item.Score != fallbackScore {
			t.Errorf("Expected flat score %v, got %v", fallbackScore, item.Score)
		}
		if item.Scores != nil {
			t.Error("Expected no score breakdown on fallback items")
		}
	}
}

func TestPersonalizedFeedShortCircuitsOnDeadContext(t *testing.T) {
	store := engineTestStore()
	store.fallbackFn = func(ctx context.Context, _ time.Time, limit int) ([]models.AnnotatedArticle, error) {
		// The engine must hand us a live detached context even though the
		// caller's context is already cancelled.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Expected detached fallback context to carry a deadline")
		}
		if limit > len(store.fallbackRows) {
			limit = len(store.fallbackRows)
		}
		return store.fallbackRows[:limit], nil
	}
	engine := newTestEngine(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := engine.PersonalizedFeed(ctx, "u1", 2)

	if feed.ServedBy != ServedByFallback {
		t.Fatalf("Expected served_by %q, got %q", ServedByFallback, feed.ServedBy)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items despite dead context, got %d", len(feed.Items))
	}
	if store.eventCalls != 0 {
		t.Errorf("Expected pipeline to skip profile build on dead context, got %d event queries", store.eventCalls)
	}
}

func TestPersonalizedFeedDegradedOnVectorFailure(t *testing.T) {
	store := engineTestStore()
	embedder := &fakeEmbedder{err: context.DeadlineExceeded}
	engine := NewEngine(testRecommendConfig(), store, &fakeSearcher{}, embedder, nil, WithClock(frozenClock()))

	feed := engine.PersonalizedFeed(context.Background(), "u1", 5)

	if feed.ServedBy != ServedByPersonalized {
		t.Fatalf("Expected recency strategy to keep the feed personalized, got %q", feed.ServedBy)
	}
	if !feed.Degraded {
		t.Error("Expected degraded flag when the vector strategy fails")
	}
	if len(feed.Items) == 0 {
		t.Fatal("Expected items from the surviving recency strategy")
	}
}

func TestPersonalizedFeedFallbackWhenRetrievalDown(t *testing.T) {
	store := engineTestStore()
	store.recentErr = context.DeadlineExceeded
	embedder := &fakeEmbedder{err: context.DeadlineExceeded}
	engine := NewEngine(testRecommendConfig(), store, &fakeSearcher{}, embedder, nil, WithClock(frozenClock()))

	feed := engine.PersonalizedFeed(context.Background(), "u1", 5)

	if feed.ServedBy != ServedByFallback {
		t.Fatalf("Expected served_by %q, got %q", ServedByFallback, feed.ServedBy)
	}
	if !feed.Degraded {
		t.Error("Expected degraded flag when both strategies fail")
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 fallback items, got %d", len(feed.Items))
	}
}

func TestPersonalizedFeedPopularitySignal(t *testing.T) {
	store := engineTestStore()
	counts := map[string]int64{"tech-1": 50, "tech-2": 50, "sci-1": 50}
	popularity := func(articleID string) (int64, bool) {
		c, ok := counts[articleID]
		return c, ok
	}
	engine := NewEngine(testRecommendConfig(), store, &fakeSearcher{}, &fakeEmbedder{}, popularity, WithClock(frozenClock()))

	feed := engine.PersonalizedFeed(context.Background(), "u1", 10, WithDiversityFactor(0))

	if len(feed.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(feed.Items))
	}
	// 50 events over a denominator of 50 saturates popularity at 1.0,
	// lifting tech-1's blend from 0.88 to 0.98.
	if got := feed.Items[0].Scores.Popularity; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Expected popularity 1.0, got %v", got)
	}
	if got := feed.Items[0].Score; math.Abs(got-0.98) > 1e-9 {
		t.Errorf("Expected blended score 0.98, got %v", got)
	}
}

func TestPersonalizedFeedLimitClamp(t *testing.T) {
	store := engineTestStore()
	engine := newTestEngine(store)

	engine.PersonalizedFeed(context.Background(), "u1", 0)
	if store.gotRecentLimit != 40 {
		t.Errorf("Expected limit 0 to use default 20 (fetch 40), got fetch %d", store.gotRecentLimit)
	}

	engine.PersonalizedFeed(context.Background(), "u1", 5000)
	if store.gotRecentLimit != 200 {
		t.Errorf("Expected limit 5000 to clamp to 100 (fetch 200), got fetch %d", store.gotRecentLimit)
	}
}

func TestClampLimit(t *testing.T) {
	engine := newTestEngine(engineTestStore())

	cases := []struct {
		in   int
		want int
	}{
		{0, 20},
		{-3, 20},
		{1, 1},
		{100, 100},
		{101, 100},
	}
	for _, tc := range cases {
		if got := engine.clampLimit(tc.in); got != tc.want {
			t.Errorf("Expected clampLimit(%d) = %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestProfileSummary(t *testing.T) {
	store := engineTestStore()
	engine := newTestEngine(store)

	first := engine.ProfileSummary(context.Background(), "u1")
	if first.Cached {
		t.Error("Expected first summary to build the profile, not hit cache")
	}
	if first.EventCount != 6 {
		t.Errorf("Expected 6 events, got %d", first.EventCount)
	}
	if first.UserID != "u1" {
		t.Errorf("Expected user_id u1, got %q", first.UserID)
	}
	if got := first.TopicWeights["technology"]; math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected technology weight 10, got %v", got)
	}
	if !first.BuiltAt.Equal(fixedNow) {
		t.Errorf("Expected built_at %v, got %v", fixedNow, first.BuiltAt)
	}

	second := engine.ProfileSummary(context.Background(), "u1")
	if !second.Cached {
		t.Error("Expected second summary to come from cache")
	}
	if store.eventCalls != 1 {
		t.Errorf("Expected one profile build, got %d event queries", store.eventCalls)
	}
}

func TestProfileSummaryTrimsWeights(t *testing.T) {
	var topics []string
	for _, suffix := range []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"} {
		topics = append(topics, "topic-"+suffix)
	}
	store := &fakeStore{
		events: []models.UserEvent{userEvent(models.EventClick, "a1", fixedNow.Add(-time.Hour), topics...)},
	}
	engine := newTestEngine(store)

	summary := engine.ProfileSummary(context.Background(), "u1")

	if len(summary.TopicWeights) != summaryWeightLimit {
		t.Fatalf("Expected %d topic weights, got %d", summaryWeightLimit, len(summary.TopicWeights))
	}
	if _, ok := summary.TopicWeights["topic-01"]; !ok {
		t.Error("Expected topic-01 to survive the trim")
	}
	if _, ok := summary.TopicWeights["topic-11"]; ok {
		t.Error("Expected topic-11 to be trimmed")
	}
}

func TestRefreshProfile(t *testing.T) {
	store := engineTestStore()
	engine := newTestEngine(store)

	before := engine.ProfileSummary(context.Background(), "u1")
	if before.EventCount != 6 {
		t.Fatalf("Expected 6 events before refresh, got %d", before.EventCount)
	}

	store.mu.Lock()
	store.events = append(store.events, userEvent(models.EventShare, "hist-3", fixedNow.Add(-time.Minute), "health"))
	store.mu.Unlock()

	refreshed := engine.RefreshProfile(context.Background(), "u1")
	if refreshed.EventCount != 7 {
		t.Errorf("Expected refresh to see 7 events, got %d", refreshed.EventCount)
	}

	after := engine.ProfileSummary(context.Background(), "u1")
	if !after.Cached {
		t.Error("Expected refresh to repopulate the cache")
	}
	if after.EventCount != 7 {
		t.Errorf("Expected cached profile updated to 7 events, got %d", after.EventCount)
	}
	if store.eventCalls != 2 {
		t.Errorf("Expected 2 event queries (build + refresh), got %d", store.eventCalls)
	}
}
