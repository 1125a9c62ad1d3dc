// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package nlp

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/intellweave/intellweave/internal/cache"
	"github.com/intellweave/intellweave/internal/models"
)

const (
	// titleTopicWeight makes one title keyword worth three body keywords,
	// enough to clear topicThreshold on its own.
	titleTopicWeight = 3
	topicThreshold   = 3
	maxTopics        = 3
	maxEntities      = 20

	wordsPerMinute = 225.0
)

// Annotator derives topics, entities, sentiment and source credibility for
// articles at ingestion time. Everything is deterministic keyword and
// pattern work; model-quality inference lives behind the embedding service.
type Annotator struct {
	topics    *cache.PatternMatcher
	sentiment *cache.PatternMatcher
	gazetteer *cache.PatternMatcher
}

// NewAnnotator builds the matchers once; the annotator is safe for
// concurrent use afterwards.
func NewAnnotator() *Annotator {
	topicPatterns := make(map[string]any)
	for topic, keywords := range topicLexicon {
		for _, kw := range keywords {
			topicPatterns[kw] = topic
		}
	}

	sentimentPatterns := make(map[string]any, len(sentimentPositive)+len(sentimentNegative))
	for _, w := range sentimentPositive {
		sentimentPatterns[w] = 1
	}
	for _, w := range sentimentNegative {
		sentimentPatterns[w] = -1
	}

	gazetteerPatterns := make(map[string]any, len(entityGazetteer))
	for name, info := range entityGazetteer {
		gazetteerPatterns[name] = info
	}

	return &Annotator{
		topics:    cache.NewPatternMatcher(topicPatterns),
		sentiment: cache.NewPatternMatcher(sentimentPatterns),
		gazetteer: cache.NewPatternMatcherCaseSensitive(gazetteerPatterns),
	}
}

// Annotate analyzes one article. The returned annotation carries no
// embedding; the embedder fills that in separately.
func (a *Annotator) Annotate(article *models.Article) *models.ArticleNLP {
	full := article.Title
	if article.BodyText != "" {
		full = article.Title + "\n\n" + article.BodyText
	}

	return &models.ArticleNLP{
		ArticleID:   article.ID,
		Topics:      a.ClassifyTopics(article.Title, article.BodyText),
		Entities:    a.ExtractEntities(article.Title, article.BodyText),
		Sentiment:   a.AnalyzeSentiment(full),
		Credibility: SourceCredibility(article.URL),
	}
}

// ClassifyTopics scores every lexicon keyword occurrence, title hits
// weighted titleTopicWeight, and returns up to maxTopics topics that clear
// topicThreshold, ordered by score then name.
func (a *Annotator) ClassifyTopics(title, body string) []string {
	scores := make(map[string]int)
	a.scoreTopics(strings.ToLower(title), titleTopicWeight, scores)
	a.scoreTopics(strings.ToLower(body), 1, scores)

	type topicScore struct {
		name  string
		score int
	}
	qualified := make([]topicScore, 0, len(scores))
	for name, score := range scores {
		if score >= topicThreshold {
			qualified = append(qualified, topicScore{name: name, score: score})
		}
	}
	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].score != qualified[j].score {
			return qualified[i].score > qualified[j].score
		}
		return qualified[i].name < qualified[j].name
	})
	if len(qualified) > maxTopics {
		qualified = qualified[:maxTopics]
	}

	topics := make([]string, len(qualified))
	for i, q := range qualified {
		topics[i] = q.name
	}
	return topics
}

// scoreTopics accumulates weighted keyword hits from already-lowercased
// text. Lowercasing here keeps match positions aligned with the string the
// boundary check indexes into.
func (a *Annotator) scoreTopics(lowered string, weight int, scores map[string]int) {
	for _, m := range a.topics.Match(lowered) {
		if !onWordBoundary(lowered, m.Position, len(m.Pattern)) {
			continue
		}
		topic, ok := m.Data.(string)
		if !ok {
			continue
		}
		scores[topic] += weight
	}
}

// AnalyzeSentiment counts positive against negative keyword occurrences and
// returns "positive", "negative" or "neutral". Ties are neutral.
func (a *Annotator) AnalyzeSentiment(text string) string {
	lowered := strings.ToLower(text)
	score := 0
	for _, m := range a.sentiment.Match(lowered) {
		if !onWordBoundary(lowered, m.Position, len(m.Pattern)) {
			continue
		}
		vote, ok := m.Data.(int)
		if !ok {
			continue
		}
		score += vote
	}
	switch {
	case score > 0:
		return "positive"
	case score < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// ExtractEntities finds named entities in two passes: an exact-case
// gazetteer sweep over title and body, then a capitalized-sequence scan over
// body prose for names the gazetteer does not know. The scan skips the
// title, Title-Case headlines read as one long false name. Duplicate surface
// texts keep the higher confidence. Results are ordered by confidence then
// text, capped at maxEntities.
func (a *Annotator) ExtractEntities(title, body string) []models.KeyEntity {
	found := make(map[string]models.KeyEntity)

	a.sweepGazetteer(title, found)
	a.sweepGazetteer(body, found)
	a.scanCapitalized(body, found)

	entities := make([]models.KeyEntity, 0, len(found))
	for _, e := range found {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Confidence != entities[j].Confidence {
			return entities[i].Confidence > entities[j].Confidence
		}
		return entities[i].Text < entities[j].Text
	})
	if len(entities) > maxEntities {
		entities = entities[:maxEntities]
	}
	return entities
}

func (a *Annotator) sweepGazetteer(text string, found map[string]models.KeyEntity) {
	for _, m := range a.gazetteer.Match(text) {
		if !onWordBoundary(text, m.Position, len(m.Pattern)) {
			continue
		}
		info, ok := m.Data.(entityInfo)
		if !ok {
			continue
		}
		mergeEntity(found, models.KeyEntity{
			Text:       m.Pattern,
			Type:       info.Type,
			Confidence: info.Confidence,
		})
	}
}

// scanCapitalized walks runs of adjacent capitalized tokens and classifies
// each run with type heuristics. A lone capitalized word at a sentence start
// is ignored unless the gazetteer knows it, ordinary sentence casing would
// otherwise flood the results.
func (a *Annotator) scanCapitalized(text string, found map[string]models.KeyEntity) {
	tokens := tokenize(text)

	i := 0
	for i < len(tokens) {
		if !isCapitalized(tokens[i].text) {
			i++
			continue
		}
		j := i
		for j+1 < len(tokens) && isCapitalized(tokens[j+1].text) && adjacentTokens(text, tokens[j], tokens[j+1]) {
			j++
		}
		a.classifySequence(tokens[i:j+1], found)
		i = j + 1
	}
}

func (a *Annotator) classifySequence(seq []token, found map[string]models.KeyEntity) {
	for len(seq) > 0 {
		if _, stop := capitalizedStopwords[seq[0].text]; !stop {
			break
		}
		seq = seq[1:]
	}

	honored := false
	for len(seq) > 0 {
		if _, ok := honorifics[seq[0].text]; !ok {
			break
		}
		honored = true
		seq = seq[1:]
	}
	if len(seq) == 0 {
		return
	}

	parts := make([]string, len(seq))
	for i, t := range seq {
		parts[i] = t.text
	}
	name := strings.Join(parts, " ")
	name = strings.TrimSuffix(name, "'s")
	name = strings.TrimSuffix(name, "’s")
	name = strings.TrimSuffix(name, "'")
	if utf8.RuneCountInString(name) < 2 {
		return
	}

	info, known := entityGazetteer[name]
	if known {
		mergeEntity(found, models.KeyEntity{Text: name, Type: info.Type, Confidence: info.Confidence})
		return
	}
	if len(seq) == 1 && seq[0].sentenceStart {
		return
	}
	// A lone "Bank" or "University" is a generic noun, not a name.
	if len(seq) == 1 && isOrgSuffix(name) {
		return
	}

	entity := models.KeyEntity{Text: name}
	last := seq[len(seq)-1].text
	switch {
	case honored:
		entity.Type = "PERSON"
		entity.Confidence = 0.85
	case isOrgSuffix(last):
		entity.Type = "ORG"
		entity.Confidence = 0.8
	case len(seq) >= 2:
		entity.Type = "PERSON"
		entity.Confidence = 0.7
	default:
		entity.Type = "MISC"
		entity.Confidence = 0.6
	}
	mergeEntity(found, entity)
}

func isOrgSuffix(word string) bool {
	_, ok := orgSuffixes[word]
	return ok
}

func mergeEntity(found map[string]models.KeyEntity, e models.KeyEntity) {
	if existing, ok := found[e.Text]; ok && existing.Confidence >= e.Confidence {
		return
	}
	found[e.Text] = e
}

// ReadingTime estimates minutes to read at wordsPerMinute, never below one.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// SourceCredibility maps a URL's publisher domain to a 0-100 score from the
// trust table, stripping any www. prefix and port. Unknown domains return
// nil so readers can distinguish "unrated" from a genuine midpoint rating.
func SourceCredibility(rawURL string) *float64 {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	trust, ok := sourceTrust[host]
	if !ok {
		return nil
	}
	score := trust * 100
	return &score
}

// token is one word of the entity scan with its byte span and whether it
// opens a sentence.
type token struct {
	text          string
	start         int
	end           int
	sentenceStart bool
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' || r == '-'
}

// tokenize splits text into word tokens. Sentence-ending punctuation and
// newlines mark the next token as a sentence start; periods are never part
// of a token, so "Inc." tokenizes as "Inc".
func tokenize(text string) []token {
	var tokens []token
	sentenceStart := true

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isTokenRune(r) {
			j := i + size
			for j < len(text) {
				r2, size2 := utf8.DecodeRuneInString(text[j:])
				if !isTokenRune(r2) {
					break
				}
				j += size2
			}
			tokens = append(tokens, token{
				text:          text[i:j],
				start:         i,
				end:           j,
				sentenceStart: sentenceStart,
			})
			sentenceStart = false
			i = j
			continue
		}
		if r == '.' || r == '!' || r == '?' || r == ':' || r == '\n' {
			sentenceStart = true
		}
		i += size
	}
	return tokens
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// adjacentTokens reports whether only plain spaces separate two tokens.
// Commas and other punctuation break a capitalized run on purpose:
// "Smith, Jones" is two names.
func adjacentTokens(text string, a, b token) bool {
	for _, r := range text[a.end:b.start] {
		if r != ' ' {
			return false
		}
	}
	return true
}

// onWordBoundary reports whether the match at [start, start+length) is not
// embedded in a longer word. Byte-level checks are enough: every lexicon
// keyword is ASCII, and multi-byte runes never read as word bytes.
func onWordBoundary(text string, start, length int) bool {
	if start < 0 || start+length > len(text) {
		return false
	}
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end := start + length; end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_':
		return true
	}
	return false
}
