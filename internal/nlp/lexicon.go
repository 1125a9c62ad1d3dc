// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package nlp

// Annotation lexicons. All topic and sentiment keywords are lowercase and
// matched case-insensitively with word-boundary checks; the entity gazetteer
// is matched with exact case. A keyword must appear in exactly one topic
// list, otherwise the later entry silently wins during matcher construction.

// topicLexicon maps each topic to the surface keywords that vote for it.
// Scoring weights title occurrences higher than body occurrences.
var topicLexicon = map[string][]string{
	"technology": {
		"software", "hardware", "artificial intelligence", "machine learning",
		"neural network", "semiconductor", "chip", "smartphone", "app",
		"cybersecurity", "encryption", "cloud computing", "quantum computing",
		"robotics", "algorithm", "internet", "browser", "open source",
		"data center", "silicon valley", "startup", "tech giant",
	},
	"business": {
		"economy", "economic", "market", "stocks", "shares", "investor",
		"investment", "earnings", "revenue", "profit", "merger", "acquisition",
		"inflation", "interest rate", "federal reserve", "central bank",
		"tariff", "bankruptcy", "ipo", "wall street", "gdp", "quarterly",
		"ceo", "trade deal",
	},
	"science": {
		"research", "researchers", "study", "scientists", "physics",
		"chemistry", "biology", "astronomy", "telescope", "spacecraft",
		"climate", "species", "genome", "dna", "experiment", "laboratory",
		"quantum", "fossil", "asteroid", "galaxy", "particle", "peer-reviewed",
	},
	"health": {
		"hospital", "patients", "vaccine", "virus", "disease", "outbreak",
		"epidemic", "pandemic", "cancer", "treatment", "therapy",
		"clinical trial", "drug", "medication", "doctors", "nurses",
		"mental health", "diabetes", "infection", "surgery", "diagnosis",
		"public health", "healthcare", "symptoms",
	},
	"sports": {
		"game", "match", "season", "championship", "tournament", "league",
		"playoff", "coach", "players", "team", "goal", "olympic", "world cup",
		"football", "soccer", "basketball", "baseball", "tennis", "golf",
		"athlete", "stadium", "victory", "defeat", "halftime",
	},
	"politics": {
		"election", "vote", "voters", "ballot", "campaign", "congress",
		"senate", "parliament", "legislation", "bill", "policy", "president",
		"prime minister", "governor", "lawmakers", "democrat", "republican",
		"government", "minister", "coalition", "referendum", "impeachment",
		"cabinet", "supreme court",
	},
	"entertainment": {
		"film", "movie", "box office", "actor", "actress", "director",
		"album", "concert", "singer", "band", "celebrity", "television",
		"netflix", "streaming", "premiere", "festival", "award", "grammy",
		"oscar", "emmy", "hollywood", "music", "sequel", "trailer",
	},
	"world": {
		"united nations", "diplomatic", "diplomacy", "embassy", "treaty",
		"sanctions", "border", "refugee", "migration", "war", "conflict",
		"ceasefire", "military", "troops", "airstrike", "humanitarian",
		"foreign minister", "summit", "nato", "peacekeeping", "invasion",
		"alliance", "geopolitical",
	},
}

// sentimentPositive and sentimentNegative vote +1/-1 per occurrence.
var sentimentPositive = []string{
	"good", "great", "excellent", "positive", "success", "successful",
	"win", "wins", "won", "growth", "improve", "improved", "improvement",
	"gain", "gains", "strong", "breakthrough", "boost", "recovery",
	"hope", "optimism", "optimistic", "celebrate", "achievement",
	"progress", "praised",
}

var sentimentNegative = []string{
	"bad", "worst", "negative", "fail", "failed", "failure", "loss",
	"losses", "crisis", "crash", "decline", "declined", "fear", "fears",
	"threat", "risk", "warning", "warned", "collapse", "recession",
	"layoffs", "died", "killed", "disaster", "fraud", "scandal",
	"lawsuit", "plunged",
}

// entityInfo is the type and confidence assigned to a gazetteer entry.
type entityInfo struct {
	Type       string
	Confidence float64
}

// entityGazetteer seeds entity extraction with names whose type is known.
// Gazetteer hits outrank heuristic guesses for the same surface text, and
// entries with lowercase connectors ("Bank of America") are reachable only
// through the gazetteer because the capitalized-sequence scanner breaks at
// lowercase tokens.
var entityGazetteer = map[string]entityInfo{
	"United Nations":              {Type: "ORG", Confidence: 0.9},
	"European Union":              {Type: "ORG", Confidence: 0.9},
	"World Health Organization":   {Type: "ORG", Confidence: 0.9},
	"Federal Reserve":             {Type: "ORG", Confidence: 0.9},
	"European Central Bank":       {Type: "ORG", Confidence: 0.9},
	"World Bank":                  {Type: "ORG", Confidence: 0.9},
	"International Monetary Fund": {Type: "ORG", Confidence: 0.9},
	"Bank of America":             {Type: "ORG", Confidence: 0.9},
	"NASA":                        {Type: "ORG", Confidence: 0.9},
	"NATO":                        {Type: "ORG", Confidence: 0.9},
	"Google":                      {Type: "ORG", Confidence: 0.9},
	"Microsoft":                   {Type: "ORG", Confidence: 0.9},
	"Apple":                       {Type: "ORG", Confidence: 0.9},
	"Amazon":                      {Type: "ORG", Confidence: 0.9},
	"Meta":                        {Type: "ORG", Confidence: 0.9},
	"Tesla":                       {Type: "ORG", Confidence: 0.9},
	"Intel":                       {Type: "ORG", Confidence: 0.9},
	"Nvidia":                      {Type: "ORG", Confidence: 0.9},
	"Samsung":                     {Type: "ORG", Confidence: 0.9},
	"Boeing":                      {Type: "ORG", Confidence: 0.9},
	"Airbus":                      {Type: "ORG", Confidence: 0.9},
	"Toyota":                      {Type: "ORG", Confidence: 0.9},
	"Reuters":                     {Type: "ORG", Confidence: 0.9},
	"Associated Press":            {Type: "ORG", Confidence: 0.9},
	"BBC":                         {Type: "ORG", Confidence: 0.9},
	"Pentagon":                    {Type: "ORG", Confidence: 0.85},
	"White House":                 {Type: "ORG", Confidence: 0.85},
	"Supreme Court":               {Type: "ORG", Confidence: 0.85},
	"United States":               {Type: "LOC", Confidence: 0.9},
	"United Kingdom":              {Type: "LOC", Confidence: 0.9},
	"Britain":                     {Type: "LOC", Confidence: 0.9},
	"America":                     {Type: "LOC", Confidence: 0.85},
	"China":                       {Type: "LOC", Confidence: 0.9},
	"Russia":                      {Type: "LOC", Confidence: 0.9},
	"India":                       {Type: "LOC", Confidence: 0.9},
	"Japan":                       {Type: "LOC", Confidence: 0.9},
	"Germany":                     {Type: "LOC", Confidence: 0.9},
	"France":                      {Type: "LOC", Confidence: 0.9},
	"Brazil":                      {Type: "LOC", Confidence: 0.9},
	"Canada":                      {Type: "LOC", Confidence: 0.9},
	"Australia":                   {Type: "LOC", Confidence: 0.9},
	"Mexico":                      {Type: "LOC", Confidence: 0.9},
	"Italy":                       {Type: "LOC", Confidence: 0.9},
	"Spain":                       {Type: "LOC", Confidence: 0.9},
	"Ukraine":                     {Type: "LOC", Confidence: 0.9},
	"Israel":                      {Type: "LOC", Confidence: 0.9},
	"Iran":                        {Type: "LOC", Confidence: 0.9},
	"Egypt":                       {Type: "LOC", Confidence: 0.9},
	"Nigeria":                     {Type: "LOC", Confidence: 0.9},
	"South Africa":                {Type: "LOC", Confidence: 0.9},
	"South Korea":                 {Type: "LOC", Confidence: 0.9},
	"North Korea":                 {Type: "LOC", Confidence: 0.9},
	"Hong Kong":                   {Type: "LOC", Confidence: 0.9},
	"New York":                    {Type: "LOC", Confidence: 0.9},
	"London":                      {Type: "LOC", Confidence: 0.9},
	"Paris":                       {Type: "LOC", Confidence: 0.9},
	"Berlin":                      {Type: "LOC", Confidence: 0.9},
	"Tokyo":                       {Type: "LOC", Confidence: 0.9},
	"Beijing":                     {Type: "LOC", Confidence: 0.9},
	"Moscow":                      {Type: "LOC", Confidence: 0.9},
	"Washington":                  {Type: "LOC", Confidence: 0.9},
	"Brussels":                    {Type: "LOC", Confidence: 0.9},
	"Geneva":                      {Type: "LOC", Confidence: 0.9},
	"California":                  {Type: "LOC", Confidence: 0.9},
	"Texas":                       {Type: "LOC", Confidence: 0.9},
	"Europe":                      {Type: "LOC", Confidence: 0.85},
	"Asia":                        {Type: "LOC", Confidence: 0.85},
	"Africa":                      {Type: "LOC", Confidence: 0.85},
}

// honorifics mark the following capitalized sequence as a person. Stored
// without the trailing period; the tokenizer never includes periods.
var honorifics = map[string]struct{}{
	"Mr":             {},
	"Mrs":            {},
	"Ms":             {},
	"Dr":             {},
	"Prof":           {},
	"Professor":      {},
	"President":      {},
	"Senator":        {},
	"Governor":       {},
	"Mayor":          {},
	"Judge":          {},
	"Justice":        {},
	"Secretary":      {},
	"Minister":       {},
	"Chancellor":     {},
	"Ambassador":     {},
	"Representative": {},
	"General":        {},
	"Captain":        {},
	"Colonel":        {},
	"Sir":            {},
	"Dame":           {},
}

// orgSuffixes classify a capitalized sequence as an organization when they
// end it.
var orgSuffixes = map[string]struct{}{
	"Inc":          {},
	"Corp":         {},
	"Corporation":  {},
	"Ltd":          {},
	"LLC":          {},
	"Co":           {},
	"Company":      {},
	"Group":        {},
	"Holdings":     {},
	"University":   {},
	"Institute":    {},
	"College":      {},
	"Foundation":   {},
	"Association":  {},
	"Agency":       {},
	"Bank":         {},
	"Committee":    {},
	"Council":      {},
	"Ministry":     {},
	"Department":   {},
	"Authority":    {},
	"Commission":   {},
	"Airlines":     {},
	"Motors":       {},
	"Labs":         {},
	"Technologies": {},
	"Systems":      {},
	"Partners":     {},
}

// capitalizedStopwords never start an entity: function words, pronouns,
// temporal words, months and weekdays. Direction words (North, South) and
// "New" are deliberately absent, they begin real place names.
var capitalizedStopwords = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "And": {}, "But": {}, "Or": {}, "Nor": {},
	"In": {}, "On": {}, "At": {}, "By": {}, "For": {}, "From": {}, "To": {},
	"With": {}, "Without": {}, "Of": {}, "As": {}, "If": {},
	"It": {}, "Its": {}, "He": {}, "His": {}, "She": {}, "Her": {},
	"They": {}, "Them": {}, "Their": {}, "We": {}, "Us": {}, "Our": {},
	"You": {}, "Your": {}, "I": {}, "My": {},
	"This": {}, "That": {}, "These": {}, "Those": {}, "There": {}, "Here": {},
	"When": {}, "Where": {}, "Why": {}, "How": {}, "What": {}, "Who": {},
	"Whom": {}, "Whose": {}, "Which": {}, "While": {},
	"After": {}, "Before": {}, "During": {}, "Since": {}, "Until": {},
	"However": {}, "Although": {}, "Though": {}, "Despite": {},
	"Meanwhile": {}, "Also": {}, "Not": {}, "No": {}, "Yes": {}, "So": {},
	"Then": {}, "Now": {}, "Today": {}, "Yesterday": {}, "Tomorrow": {},
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
	"January": {}, "February": {}, "March": {}, "April": {}, "May": {},
	"June": {}, "July": {}, "August": {}, "September": {}, "October": {},
	"November": {}, "December": {},
	"Last": {}, "First": {}, "Next": {}, "Some": {}, "Many": {}, "Most": {},
	"More": {}, "Both": {}, "Each": {}, "Every": {}, "Several": {},
	"Few": {}, "Other": {}, "Another": {}, "Such": {}, "Still": {},
	"Just": {}, "Even": {}, "Only": {}, "Over": {}, "Under": {},
	"Between": {}, "Against": {}, "Among": {}, "Within": {},
	"Because": {}, "Whether": {}, "Instead": {}, "Earlier": {},
	"Later": {}, "Once": {}, "Again": {}, "According": {},
}

// sourceTrust maps publisher domains to reliability on a [0,1] scale.
// Unknown domains carry no score; readers substitute the neutral default.
var sourceTrust = map[string]float64{
	"reuters.com":             0.95,
	"ap.org":                  0.95,
	"bbc.com":                 0.90,
	"npr.org":                 0.88,
	"pbs.org":                 0.87,
	"nature.com":              0.98,
	"science.org":             0.98,
	"nejm.org":                0.97,
	"pubmed.ncbi.nlm.nih.gov": 0.96,
	"cdc.gov":                 0.94,
	"who.int":                 0.93,
	"gov.uk":                  0.90,
	"europa.eu":               0.89,
	"snopes.com":              0.85,
	"factcheck.org":           0.87,
	"politifact.com":          0.83,
	"fullfact.org":            0.86,
}
